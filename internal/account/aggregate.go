// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ferrex/mediaserver/internal/ids"
	"github.com/ferrex/mediaserver/internal/metrics"
)

const maxFailedLoginAttempts = 5
const lockoutDuration = 15 * time.Minute

// User is the User Authentication Aggregate: password + per-user PIN,
// the device session set, account lock state, and pending domain
// events, mutated behind one invariant boundary (spec.md §3/§4.7). All
// mutators are synchronous and perform no I/O; callers are responsible
// for serializing concurrent operations on the same user (spec.md §5).
type User struct {
	UserID              ids.UserID
	Username            string
	PasswordHash        string
	IsActive            bool
	IsLocked            bool
	FailedLoginAttempts int
	LockedUntil         time.Time
	UserPin             string // empty if unset
	PinUpdatedAt        time.Time
	PinClientSalt       [16]byte
	DeviceSessions      map[string]*DeviceSession // fingerprint hex -> session
	MaxDevices          int
	LastLogin           time.Time
	pendingEvents       []AuthEvent
}

// NewUser creates a User with the given hashed password. The caller
// must have already validated the plaintext password against a
// PasswordPolicy and hashed it via Crypto.HashPassword.
func NewUser(username, passwordHash string, maxDevices int) (*User, error) {
	salt, err := GenerateSalt16()
	if err != nil {
		return nil, err
	}
	return &User{
		UserID:         ids.NewUserID(),
		Username:       username,
		PasswordHash:   passwordHash,
		IsActive:       true,
		PinClientSalt:  salt,
		DeviceSessions: make(map[string]*DeviceSession),
		MaxDevices:     maxDevices,
	}, nil
}

func (u *User) emit(kind AuthEventKind, fingerprint, reason string) {
	u.pendingEvents = append(u.pendingEvents, AuthEvent{
		Kind:        kind,
		UserID:      u.UserID,
		Fingerprint: fingerprint,
		Reason:      reason,
		At:          time.Now(),
	})
}

// TakeEvents returns and clears the pending event list (a move, per
// spec.md §5's ordering guarantee).
func (u *User) TakeEvents() []AuthEvent {
	events := u.pendingEvents
	u.pendingEvents = nil
	return events
}

// activeDeviceCount returns the number of device sessions whose status
// is not Revoked.
func (u *User) activeDeviceCount() int {
	n := 0
	for _, d := range u.DeviceSessions {
		if d.Active() {
			n++
		}
	}
	return n
}

// AuthenticatePassword verifies plain against the stored hash, applying
// account lockout and re-hash-on-success per spec.md §4.7.
func (u *User) AuthenticatePassword(plain string, crypto *Crypto) error {
	if !u.IsActive {
		u.emit(EventAuthenticationFailed, "", "account_inactive")
		metrics.RecordLoginAttempt("inactive")
		return ErrAccountInactive
	}

	now := time.Now()
	if u.IsLocked {
		if now.Before(u.LockedUntil) {
			u.emit(EventAuthenticationFailed, "", "account_locked")
			metrics.RecordLoginAttempt("locked")
			return ErrAccountLocked
		}
		// Lockout window has passed; clear it before continuing.
		u.IsLocked = false
		u.LockedUntil = time.Time{}
		u.FailedLoginAttempts = 0
	}

	if !crypto.VerifyPassword(plain, u.PasswordHash) {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= maxFailedLoginAttempts {
			u.IsLocked = true
			u.LockedUntil = now.Add(lockoutDuration)
			u.emit(EventAccountLocked, "", "max_failed_attempts")
			metrics.RecordLoginAttempt("locked")
		} else {
			metrics.RecordLoginAttempt("bad_credentials")
		}
		u.emit(EventAuthenticationFailed, "", "bad_credentials")
		if u.IsLocked {
			return ErrAccountLocked
		}
		return ErrInvalidCredentials
	}

	u.FailedLoginAttempts = 0
	u.LastLogin = now
	u.emit(EventPasswordAuthenticated, "", "")
	metrics.RecordLoginAttempt("success")

	if crypto.NeedsRehash(u.PasswordHash) {
		if rehashed, err := crypto.HashPassword(plain); err == nil {
			u.PasswordHash = rehashed
		}
	}

	return nil
}

// RegisterDevice is idempotent on fingerprint: a second call for the
// same fingerprint just bumps activity. TooManyDevices is returned if
// the active device count would exceed MaxDevices.
func (u *User) RegisterDevice(fingerprint [32]byte, name string) (*DeviceSession, error) {
	key := hex.EncodeToString(fingerprint[:])
	if existing, ok := u.DeviceSessions[key]; ok {
		existing.UpdateActivity()
		return existing, nil
	}
	if u.activeDeviceCount() >= u.MaxDevices {
		return nil, ErrTooManyDevices
	}
	session := NewDeviceSession(u.UserID, fingerprint, name)
	u.DeviceSessions[key] = session
	u.emit(EventDeviceRegistered, key, "")
	return session, nil
}

// AuthenticateDevice verifies pinProof against the user's PIN, gated by
// the device session's failure-lockout state, and issues a session
// token on success.
func (u *User) AuthenticateDevice(fingerprint [32]byte, pinProof string, maxAttempts int, sessionLifetime time.Duration, crypto *Crypto) (SessionToken, error) {
	key := hex.EncodeToString(fingerprint[:])
	device, ok := u.DeviceSessions[key]
	if !ok {
		return SessionToken{}, ErrUnknownDevice
	}

	if err := device.EnsurePinAvailable(u.UserPin != "", maxAttempts); err != nil {
		metrics.RecordDevicePinAttempt("locked")
		return SessionToken{}, err
	}

	if !crypto.VerifyPinProof(pinProof, u.PinClientSalt, u.UserPin) {
		if err := device.RegisterPinFailure(maxAttempts, lockoutDuration); err != nil {
			metrics.RecordDevicePinAttempt("locked")
			return SessionToken{}, err
		}
		metrics.RecordDevicePinAttempt("bad_pin")
		return SessionToken{}, ErrInvalidCredentials
	}

	device.RecordPinSuccess()
	device.MarkTrustedAfterPinSetup()
	token, err := device.IssuePinSession(sessionLifetime)
	if err != nil {
		return SessionToken{}, err
	}
	u.emit(EventDeviceAuthenticated, key, "")
	metrics.RecordDevicePinAttempt("success")
	metrics.DeviceSessionsActive.Set(float64(u.activeDeviceCount()))
	return token, nil
}

// SetDevicePin validates proof against policy and sets it as the
// user's PIN (PIN is per-user, not per-device; devices merely gate its
// use per spec.md §4.7).
func (u *User) SetDevicePin(fingerprint [32]byte, proof string, policy PinPolicy, crypto *Crypto) error {
	if err := policy.Validate(proof); err != nil {
		return err
	}
	key := hex.EncodeToString(fingerprint[:])
	device, ok := u.DeviceSessions[key]
	if !ok {
		return ErrUnknownDevice
	}

	u.UserPin = crypto.HashPinProof(proof, u.PinClientSalt)
	u.PinUpdatedAt = time.Now()
	device.MarkTrustedAfterPinSetup()
	u.emit(EventPinUpdated, key, "")
	u.emit(EventDeviceTrusted, key, "")
	return nil
}

// RefreshDeviceToken issues a new token bound to the same session.
// Fails if the session is revoked.
func (u *User) RefreshDeviceToken(fingerprint [32]byte, lifetime time.Duration) (SessionToken, error) {
	key := hex.EncodeToString(fingerprint[:])
	device, ok := u.DeviceSessions[key]
	if !ok {
		return SessionToken{}, ErrUnknownDevice
	}
	if device.Status == DeviceStatusRevoked {
		return SessionToken{}, fmt.Errorf("%w: device revoked", ErrRefreshFailed)
	}
	device.UpdateActivity()
	return device.IssuePinSession(lifetime)
}

// RevokeDevice revokes a single device session. Idempotent.
func (u *User) RevokeDevice(fingerprint [32]byte) error {
	key := hex.EncodeToString(fingerprint[:])
	device, ok := u.DeviceSessions[key]
	if !ok {
		return ErrUnknownDevice
	}
	device.Revoke()
	u.emit(EventDeviceRevoked, key, "")
	metrics.DeviceSessionsActive.Set(float64(u.activeDeviceCount()))
	return nil
}

// RevokeAllDevices revokes every device session, used by UpdatePassword
// and Deactivate.
func (u *User) RevokeAllDevices() {
	for _, d := range u.DeviceSessions {
		d.Revoke()
	}
	u.emit(EventAllDevicesRevoked, "", "")
	metrics.DeviceSessionsActive.Set(0)
}

// UpdatePassword re-hashes and replaces the stored password hash and
// revokes every device session.
func (u *User) UpdatePassword(newPlain string, crypto *Crypto) error {
	hash, err := crypto.HashPassword(newPlain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.RevokeAllDevices()
	return nil
}

// Deactivate marks the account inactive and revokes every device session.
func (u *User) Deactivate() {
	u.IsActive = false
	u.RevokeAllDevices()
}

// RotatePinClientSalt regenerates the 128-bit salt scoping PIN proofs.
// The existing PIN hash remains valid until the next set/change, per
// spec.md §4.7 (callers that want the old PIN invalidated should also
// clear UserPin).
func (u *User) RotatePinClientSalt() error {
	salt, err := GenerateSalt16()
	if err != nil {
		return err
	}
	u.PinClientSalt = salt
	return nil
}
