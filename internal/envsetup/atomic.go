// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package envsetup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// writeEnvFile writes lines to path atomically (temp file in the same
// directory, fsync if available, then rename) and preserves mode on an
// existing file rather than letting the temp file's default mode leak
// through (spec.md testable property 6).
func writeEnvFile(path string, lines []string, mode os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("envsetup: create %s: %w", dir, err)
		}
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := renameio.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("envsetup: write %s: %w", path, err)
	}
	return nil
}
