// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/ferrex/mediaserver/internal/ids"
)

// DeviceStatus is the device session lifecycle state.
type DeviceStatus string

const (
	DeviceStatusPending DeviceStatus = "pending"
	DeviceStatusTrusted DeviceStatus = "trusted"
	DeviceStatusRevoked DeviceStatus = "revoked"
)

// ErrDeviceRevoked is returned by any operation on a revoked device session.
var ErrDeviceRevoked = errors.New("device session revoked")

// ErrNoPinConfigured is returned when a device session attempts PIN
// authentication before the user has set a PIN.
var ErrNoPinConfigured = errors.New("no pin configured")

// TooManyFailedAttempts is returned once a device session's PIN failure
// counter reaches the configured maximum.
type TooManyFailedAttempts struct {
	Attempts int
	Max      int
}

func (e *TooManyFailedAttempts) Error() string {
	return fmt.Sprintf("too many failed attempts: %d/%d", e.Attempts, e.Max)
}

// SessionToken is a high-entropy opaque token bound to a device session.
type SessionToken struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer valid at t.
func (s SessionToken) Expired(t time.Time) bool { return !t.Before(s.ExpiresAt) }

// DeviceSession is the per-device state machine: Pending -> Trusted |
// Revoked, with PIN failure lockout and session token issuance
// (spec.md §4.6).
type DeviceSession struct {
	ID             ids.DeviceSessionID
	UserID         ids.UserID
	Fingerprint    [32]byte
	DeviceName     string
	Status         DeviceStatus
	FailedAttempts int
	lockedUntil    time.Time
	CreatedAt      time.Time
	LastActivity   time.Time
}

// NewDeviceSession creates a Pending device session for a newly seen
// fingerprint, created on first password success (spec.md §3).
func NewDeviceSession(userID ids.UserID, fingerprint [32]byte, deviceName string) *DeviceSession {
	now := time.Now()
	return &DeviceSession{
		ID:           ids.NewDeviceSessionID(),
		UserID:       userID,
		Fingerprint:  fingerprint,
		DeviceName:   deviceName,
		Status:       DeviceStatusPending,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Active reports whether the session counts toward a user's active
// device count (status != Revoked).
func (d *DeviceSession) Active() bool { return d.Status != DeviceStatusRevoked }

// UpdateActivity bumps LastActivity to now.
func (d *DeviceSession) UpdateActivity() { d.LastActivity = time.Now() }

// EnsurePinAvailable fails if the device is revoked, currently locked
// out from repeated PIN failure, or has no PIN configured (hasPIN is
// supplied by the caller since the PIN itself is stored on the user,
// not the device).
func (d *DeviceSession) EnsurePinAvailable(hasPIN bool, maxAttempts int) error {
	if d.Status == DeviceStatusRevoked {
		return ErrDeviceRevoked
	}
	if time.Now().Before(d.lockedUntil) {
		return &TooManyFailedAttempts{Attempts: d.FailedAttempts, Max: maxAttempts}
	}
	if !hasPIN {
		return ErrNoPinConfigured
	}
	return nil
}

// RegisterPinFailure increments the failure counter. At maxAttempts the
// session is temporarily locked and a TooManyFailedAttempts error is
// returned.
func (d *DeviceSession) RegisterPinFailure(maxAttempts int, lockoutDuration time.Duration) error {
	d.FailedAttempts++
	if d.FailedAttempts >= maxAttempts {
		d.lockedUntil = time.Now().Add(lockoutDuration)
		return &TooManyFailedAttempts{Attempts: d.FailedAttempts, Max: maxAttempts}
	}
	return nil
}

// RecordPinSuccess clears the failure counter and lockout.
func (d *DeviceSession) RecordPinSuccess() {
	d.FailedAttempts = 0
	d.lockedUntil = time.Time{}
}

// IssuePinSession creates a random high-entropy session token valid
// until now + lifetime.
func (d *DeviceSession) IssuePinSession(lifetime time.Duration) (SessionToken, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return SessionToken{}, fmt.Errorf("generate session token: %w", err)
	}
	return SessionToken{
		Token:     hex.EncodeToString(raw),
		ExpiresAt: time.Now().Add(lifetime),
	}, nil
}

// MarkTrustedAfterPinSetup transitions Pending -> Trusted. No-op if
// already trusted.
func (d *DeviceSession) MarkTrustedAfterPinSetup() {
	if d.Status == DeviceStatusPending {
		d.Status = DeviceStatusTrusted
	}
}

// Revoke transitions any state to Revoked. Idempotent.
func (d *DeviceSession) Revoke() {
	d.Status = DeviceStatusRevoked
}

// FingerprintHex renders the device fingerprint as the lowercase hex
// string used as its map key (spec.md §3 device_sessions keying).
func (d *DeviceSession) FingerprintHex() string {
	return hex.EncodeToString(d.Fingerprint[:])
}
