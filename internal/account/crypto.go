// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the Argon2id parameters used for password hashing,
// PIN proof hashing, and at-rest key derivation. Defaults mirror
// config.SecurityConfig's Argon2Memory/Argon2Time/Argon2Parallelism.
type Argon2Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// DefaultArgon2Params matches internal/config's defaultConfig Security
// section (64 MiB, t=3, p=2, 32-byte keys) for password/PIN hashing.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Memory: 64 * 1024, Time: 3, Parallelism: 2, KeyLength: 32}
}

// tokenKeyParams are the fixed at-rest key derivation parameters
// required by schema v2 of the Encrypted Token Store (spec.md §4.5):
// m=64 MiB, t=3, p=4, len=32. These are not configurable.
var tokenKeyParams = Argon2Params{Memory: 64 * 1024, Time: 3, Parallelism: 4, KeyLength: 32}

// Crypto provides password hashing, PIN proof hashing, and at-rest key
// derivation (spec.md C5 Auth Crypto). It holds no state beyond its
// parameters and a pepper mixed into PIN proofs.
type Crypto struct {
	params Argon2Params
	pepper []byte
}

// NewCrypto creates a Crypto using params for password/PIN hashing and
// pepper as an additional secret mixed into PIN proof hashes (e.g. from
// config.SecurityConfig or an environment-provided AUTH_PASSWORD_PEPPER).
func NewCrypto(params Argon2Params, pepper []byte) *Crypto {
	return &Crypto{params: params, pepper: pepper}
}

// NewDefaultCrypto creates a Crypto with DefaultArgon2Params and no pepper.
func NewDefaultCrypto() *Crypto {
	return NewCrypto(DefaultArgon2Params(), nil)
}

const phcFormat = "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"

// HashPassword hashes plain with Argon2id and returns a PHC-formatted
// string encoding the salt and parameters used.
func (c *Crypto) HashPassword(plain string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(plain), salt, c.params.Time, c.params.Memory, c.params.Parallelism, c.params.KeyLength)
	return fmt.Sprintf(phcFormat, argon2.Version, c.params.Memory, c.params.Time, c.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt), base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword reports whether plain matches the Argon2id PHC string
// stored. It accepts any well-formed Argon2id PHC string regardless of
// the parameters it was created with.
func (c *Crypto) VerifyPassword(plain, stored string) bool {
	params, salt, hash, err := parsePHC(stored)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plain), salt, params.Time, params.Memory, params.Parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// NeedsRehash reports whether stored was produced with parameters
// older than c's current parameters, so callers can re-hash on a
// successful login (spec.md §4.7).
func (c *Crypto) NeedsRehash(stored string) bool {
	params, _, _, err := parsePHC(stored)
	if err != nil {
		return true
	}
	return params.Memory < c.params.Memory || params.Time < c.params.Time || params.Parallelism < c.params.Parallelism
}

func parsePHC(stored string) (Argon2Params, []byte, []byte, error) {
	parts := strings.Split(stored, "$")
	// "", "argon2id", "v=19", "m=...,t=...,p=...", "<salt>", "<hash>"
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2Params{}, nil, nil, errors.New("not an argon2id PHC string")
	}
	var params Argon2Params
	for _, kv := range strings.Split(parts[3], ",") {
		pair := strings.SplitN(kv, "=", 2)
		if len(pair) != 2 {
			return Argon2Params{}, nil, nil, errors.New("malformed argon2 parameter")
		}
		n, err := strconv.Atoi(pair[1])
		if err != nil {
			return Argon2Params{}, nil, nil, fmt.Errorf("malformed argon2 parameter %q: %w", kv, err)
		}
		switch pair[0] {
		case "m":
			params.Memory = uint32(n)
		case "t":
			params.Time = uint32(n)
		case "p":
			params.Parallelism = uint8(n)
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2Params{}, nil, nil, fmt.Errorf("decode hash: %w", err)
	}
	return params, salt, hash, nil
}

// HashPinProof hashes a client-supplied PIN proof scoped by the user's
// per-user salt and the server pepper, using Argon2id. The proof never
// reaches storage directly; only this hash does.
func (c *Crypto) HashPinProof(clientProof string, userSalt [16]byte) string {
	material := append(append([]byte{}, userSalt[:]...), c.pepper...)
	hash := argon2.IDKey([]byte(clientProof), material, c.params.Time, c.params.Memory, c.params.Parallelism, c.params.KeyLength)
	return base64.RawStdEncoding.EncodeToString(hash)
}

// VerifyPinProof reports whether clientProof, scoped by the same salt
// used to produce stored, matches it in constant time.
func (c *Crypto) VerifyPinProof(clientProof string, userSalt [16]byte, stored string) bool {
	expected := c.HashPinProof(clientProof, userSalt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(stored)) == 1
}

// DeriveAtRestKey derives a 256-bit key from deviceFingerprint and salt
// using the fixed schema-v2 parameters (m=64 MiB, t=3, p=4, len=32),
// for the Encrypted Token Store (spec.md §4.5/§4.9).
func DeriveAtRestKey(deviceFingerprint [32]byte, salt [16]byte) [32]byte {
	key := argon2.IDKey(deviceFingerprint[:], salt[:], tokenKeyParams.Time, tokenKeyParams.Memory, tokenKeyParams.Parallelism, tokenKeyParams.KeyLength)
	var out [32]byte
	copy(out[:], key)
	return out
}

// GenerateSalt16 returns fresh cryptographically random 16 bytes,
// suitable for a PIN client salt or a token store salt.
func GenerateSalt16() ([16]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// GenerateNonce12 returns fresh cryptographically random 96 bits,
// suitable for an AEAD nonce.
func GenerateNonce12() ([12]byte, error) {
	var nonce [12]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}
