// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package envsetup

// RotateTarget selects which subset of managed secrets an Init/Rotate
// call regenerates (spec.md §6).
type RotateTarget int

const (
	RotateNone RotateTarget = iota
	RotateDb
	RotateAuth
	RotateAll
)

func (t RotateTarget) String() string {
	switch t {
	case RotateDb:
		return "db"
	case RotateAuth:
		return "auth"
	case RotateAll:
		return "all"
	default:
		return "none"
	}
}

// dbSecretKeys are the managed keys RotateDb (and RotateAll) regenerate.
// DATABASE_URL is derived from DATABASE_APP_PASSWORD, not rotated
// directly, but is always rewritten when the password it embeds changes.
var dbSecretKeys = []string{"DATABASE_APP_PASSWORD", "DATABASE_ADMIN_PASSWORD"}

// authSecretKeys are the managed keys RotateAuth (and RotateAll) regenerate.
var authSecretKeys = []string{"AUTH_PASSWORD_PEPPER", "AUTH_TOKEN_KEY", "FERREX_SETUP_TOKEN"}

func (t RotateTarget) keys() []string {
	switch t {
	case RotateDb:
		return dbSecretKeys
	case RotateAuth:
		return authSecretKeys
	case RotateAll:
		out := make([]string, 0, len(dbSecretKeys)+len(authSecretKeys))
		out = append(out, dbSecretKeys...)
		out = append(out, authSecretKeys...)
		return out
	default:
		return nil
	}
}

// managedKeyOrder is the canonical key order Init writes managed keys in,
// matching spec.md §6's enumeration.
var managedKeyOrder = []string{
	"DEV_MODE",
	"SERVER_HOST",
	"SERVER_PORT",
	"DATABASE_HOST",
	"DATABASE_HOST_CONTAINER",
	"DATABASE_URL",
	"DATABASE_APP_PASSWORD",
	"DATABASE_ADMIN_PASSWORD",
	"REDIS_URL",
	"REDIS_URL_CONTAINER",
	"AUTH_PASSWORD_PEPPER",
	"AUTH_TOKEN_KEY",
	"FERREX_SETUP_TOKEN",
}

// managedKeySet answers "is key one this generator owns" in O(1).
var managedKeySet = func() map[string]struct{} {
	out := make(map[string]struct{}, len(managedKeyOrder))
	for _, k := range managedKeyOrder {
		out[k] = struct{}{}
	}
	return out
}()

// IsManagedKey reports whether key is overwritten on every Init run
// rather than preserved verbatim from an existing .env file.
func IsManagedKey(key string) bool {
	_, ok := managedKeySet[key]
	return ok
}

// DevPlaceholderPassword is the fixed, checked-in secret used for
// DATABASE_APP_PASSWORD/DATABASE_ADMIN_PASSWORD on a non-interactive,
// non-rotating Init of a fresh .env: it keeps a first-run dev setup
// reproducible and greppable instead of minting an unrecoverable
// random secret nobody asked to rotate. Explicit rotation (RotateDb/
// RotateAll) always mints a real random secret, never this value.
const DevPlaceholderPassword = "0zsMbNLxQh9yYtHhJYiMaDz7zbJMXJN5"

// Options configures one Init call.
type Options struct {
	// EnvPath is the .env file to read and (if WriteFile is true) merge
	// into. A missing file is treated as an empty starting point.
	EnvPath string
	// Tailscale switches container-facing hosts to the loopback
	// addresses Tailscale's userspace proxy expects (spec.md S3).
	Tailscale bool
	// Rotate selects which managed secrets are regenerated even if
	// already present in the existing file.
	Rotate RotateTarget
	// NonInteractive governs whether a freshly-generated secret (one
	// absent from the existing file and not targeted by Rotate) uses
	// DevPlaceholderPassword or a random secret. Non-interactive runs
	// default to the placeholder so local setup stays reproducible;
	// interactive/production runs should set this false.
	NonInteractive bool
	// WriteFile controls whether Init persists the merged result to
	// EnvPath. When false, Init only computes the merge (useful for a
	// dry-run CLI flag).
	WriteFile bool
}

// Result is the outcome of one Init call.
type Result struct {
	// Values is the full merged key/value map, managed and custom keys
	// alike.
	Values map[string]string
	// Lines renders Values in the canonical managed-key order followed
	// by a "# Custom overrides" section, the same order written to disk.
	Lines []string
	// RotatedKeys lists exactly the managed keys this call regenerated
	// (empty for RotateNone).
	RotatedKeys []string
}
