// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package envsetup

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"os"
	"sort"
	"strings"
)

const secretCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateSecret returns a cryptographically random secretCharset string
// of length n.
func generateSecret(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("envsetup: generate secret: %w", err)
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = secretCharset[int(b)%len(secretCharset)]
	}
	return string(out), nil
}

// parsedEnv is an existing .env file's content, split into managed and
// custom (non-managed) key/value pairs, plus the keys' original order
// among the custom set.
type parsedEnv struct {
	values     map[string]string
	customKeys []string // insertion order, non-managed keys only
	mode       os.FileMode
	existed    bool
}

// parseEnvFile reads and parses an existing .env file at path. A missing
// file is not an error: it yields an empty parsedEnv with existed=false
// and a mode that preserves the default 0o640 on first write.
func parseEnvFile(path string) (*parsedEnv, error) {
	out := &parsedEnv{values: make(map[string]string), mode: 0o640}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("envsetup: open %s: %w", path, err)
	}
	defer f.Close()

	out.existed = true
	if info, err := f.Stat(); err == nil {
		out.mode = info.Mode().Perm()
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitKV(line)
		if !ok {
			continue
		}
		out.values[key] = value
		if !IsManagedKey(key) {
			out.customKeys = append(out.customKeys, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("envsetup: read %s: %w", path, err)
	}
	return out, nil
}

func splitKV(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	value = strings.Trim(value, `"'`)
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// Init computes the merged managed-key set for opts and, if
// opts.WriteFile is set, writes it back to opts.EnvPath atomically
// (spec.md §6). The merge is idempotent: applying Init twice with the
// same Rotate target and the same existing managed values yields the
// same Result (invariant 5 / testable property 5).
func Init(opts Options) (*Result, error) {
	existing, err := parseEnvFile(opts.EnvPath)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string, len(existing.values)+len(managedKeyOrder))
	for k, v := range existing.values {
		values[k] = v
	}

	rotateSet := make(map[string]struct{})
	for _, k := range opts.Rotate.keys() {
		rotateSet[k] = struct{}{}
	}

	var rotatedKeys []string
	secretFor := func(key string, length int) (string, error) {
		_, mustRotate := rotateSet[key]
		if existingVal, ok := values[key]; ok && !mustRotate {
			return existingVal, nil
		}
		var secret string
		var err error
		if opts.NonInteractive && !mustRotate {
			secret = DevPlaceholderPassword
		} else {
			secret, err = generateSecret(length)
			if err != nil {
				return "", err
			}
		}
		if mustRotate {
			rotatedKeys = append(rotatedKeys, key)
		}
		return secret, nil
	}

	values["DEV_MODE"] = boolString(opts.NonInteractive)
	values["SERVER_HOST"] = "0.0.0.0"
	values["SERVER_PORT"] = "3000"
	values["DATABASE_HOST"] = "localhost"
	values["REDIS_URL"] = "redis://localhost:6379"

	if opts.Tailscale {
		values["DATABASE_HOST_CONTAINER"] = "127.0.0.1"
		values["REDIS_URL_CONTAINER"] = "redis://127.0.0.1:6379"
	} else {
		if _, ok := values["DATABASE_HOST_CONTAINER"]; !ok {
			values["DATABASE_HOST_CONTAINER"] = "localhost"
		}
		if _, ok := values["REDIS_URL_CONTAINER"]; !ok {
			values["REDIS_URL_CONTAINER"] = "redis://localhost:6379"
		}
	}

	appPassword, err := secretFor("DATABASE_APP_PASSWORD", 32)
	if err != nil {
		return nil, err
	}
	values["DATABASE_APP_PASSWORD"] = appPassword

	adminPassword, err := secretFor("DATABASE_ADMIN_PASSWORD", 32)
	if err != nil {
		return nil, err
	}
	values["DATABASE_ADMIN_PASSWORD"] = adminPassword

	values["DATABASE_URL"] = fmt.Sprintf("postgresql://ferrex_app:%s@localhost:5432/ferrex", appPassword)

	pepper, err := secretFor("AUTH_PASSWORD_PEPPER", 32)
	if err != nil {
		return nil, err
	}
	values["AUTH_PASSWORD_PEPPER"] = pepper

	tokenKey, err := secretFor("AUTH_TOKEN_KEY", 48)
	if err != nil {
		return nil, err
	}
	values["AUTH_TOKEN_KEY"] = tokenKey

	setupToken, err := secretFor("FERREX_SETUP_TOKEN", 32)
	if err != nil {
		return nil, err
	}
	values["FERREX_SETUP_TOKEN"] = setupToken

	lines := renderLines(values, existing.customKeys)

	result := &Result{Values: values, Lines: lines, RotatedKeys: rotatedKeys}

	if opts.WriteFile {
		if err := writeEnvFile(opts.EnvPath, lines, existing.mode); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// renderLines produces the canonical file body: managed keys in
// managedKeyOrder, then a "# Custom overrides" section for every
// non-managed key that existed in the source file, preserved verbatim
// and in their original order.
func renderLines(values map[string]string, customKeys []string) []string {
	lines := make([]string, 0, len(managedKeyOrder)+len(customKeys)+2)
	for _, k := range managedKeyOrder {
		if v, ok := values[k]; ok {
			lines = append(lines, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if len(customKeys) > 0 {
		sorted := append([]string(nil), customKeys...)
		sort.Strings(sorted)
		lines = append(lines, "", "# Custom overrides")
		for _, k := range sorted {
			lines = append(lines, fmt.Sprintf("%s=%s", k, values[k]))
		}
	}

	return lines
}
