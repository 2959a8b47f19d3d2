// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package tokenstore

import "errors"

var (
	// ErrSaltMissing is returned by Load when a schema v2 envelope has no salt.
	ErrSaltMissing = errors.New("tokenstore: salt missing on schema v2 envelope")
	// ErrFingerprintChanged is returned by Load when AEAD decryption fails,
	// which only happens when the device fingerprint used to derive the
	// key no longer matches the one the envelope was sealed with.
	ErrFingerprintChanged = errors.New("device fingerprint has changed")
)
