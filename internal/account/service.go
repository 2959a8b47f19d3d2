// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ferrex/mediaserver/internal/config"
)

// AuthToken is the bearer credential handed back to a freshly-created
// admin; it reuses the same opaque-token shape device sessions use
// rather than minting a second token format.
type AuthToken = SessionToken

const initialAdminSessionLifetime = 24 * time.Hour

// Service composes the Claim and User stores with Crypto/PasswordPolicy
// to implement the three First-Run Claim operations end to end
// (spec.md §4.8). It is the seam the CLI (cmd/ferrexctl) and any future
// HTTP surface call into.
type Service struct {
	Claims     *BadgerClaimStore
	Users      *BadgerUserStore
	Crypto     *Crypto
	Password   config.PasswordPolicy
	MaxDevices int
	jwtSecret  []byte
}

// NewService wires a claim store, user store, crypto, and password
// policy into a First-Run Claim service. jwtSecret signs claim tokens
// the same way auth.JWTManager signs session JWTs.
func NewService(claims *BadgerClaimStore, users *BadgerUserStore, crypto *Crypto, pw config.PasswordPolicy, maxDevices int, jwtSecret []byte) *Service {
	return &Service{
		Claims:     claims,
		Users:      users,
		Crypto:     crypto,
		Password:   pw,
		MaxDevices: maxDevices,
		jwtSecret:  jwtSecret,
	}
}

// NeedsSetup reports whether no admin user has been created yet.
func (s *Service) NeedsSetup(ctx context.Context) (bool, error) {
	count, err := s.Users.Count(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// StartClaim begins a new First-Run Claim and persists it.
func (s *Service) StartClaim(ctx context.Context, lanOnly bool) (*Claim, error) {
	claim, err := StartClaim(lanOnly)
	if err != nil {
		return nil, err
	}
	if err := s.Claims.Put(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

// ConfirmClaim consumes the claim_code and returns a signed claim_token.
func (s *Service) ConfirmClaim(ctx context.Context, code string) (*Claim, string, error) {
	claim, err := s.Claims.FindByCode(ctx, code)
	if err != nil {
		return nil, "", err
	}
	if claim.Expired(time.Now()) {
		return nil, "", ErrClaimExpired
	}
	token, err := claim.ConfirmClaim(code, s.jwtSecret)
	if err != nil {
		return nil, "", err
	}
	if err := s.Claims.Put(ctx, claim); err != nil {
		return nil, "", err
	}
	return claim, token, nil
}

// CreateInitialAdminRequest carries the fields needed to bootstrap the
// first admin user. Username and Password are validated by
// config.PasswordPolicy before the User aggregate is constructed.
type CreateInitialAdminRequest struct {
	Username    string `validate:"required,min=3,max=64"`
	Password    string `validate:"required"`
	DisplayName string `validate:"omitempty,max=128"`
	ClaimID     string `validate:"required,uuid"`
	ClaimToken  string `validate:"required"`
}

// CreateInitialAdmin validates req.ClaimToken against the referenced
// claim, hashes the password, creates the admin User, and issues an
// AuthToken. The claim is deleted on success so the token cannot be
// reused (spec.md §4.8 op3: "requires a valid, unused, unexpired
// claim_token").
func (s *Service) CreateInitialAdmin(ctx context.Context, req CreateInitialAdminRequest) (*User, AuthToken, error) {
	if req.ClaimToken == "" {
		return nil, AuthToken{}, ErrClaimTokenMissing
	}

	claim, err := s.Claims.Get(ctx, req.ClaimID)
	if err != nil {
		return nil, AuthToken{}, err
	}
	if err := claim.VerifyClaimToken(req.ClaimToken, s.jwtSecret); err != nil {
		return nil, AuthToken{}, err
	}

	if result := s.Password.Validate(req.Password, req.Username); !result.Valid {
		return nil, AuthToken{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, result.Errors)
	}

	hash, err := s.Crypto.HashPassword(req.Password)
	if err != nil {
		return nil, AuthToken{}, err
	}

	user, err := NewUser(req.Username, hash, s.MaxDevices)
	if err != nil {
		return nil, AuthToken{}, err
	}
	if err := s.Users.Put(ctx, user); err != nil {
		return nil, AuthToken{}, err
	}

	// The claim_token is single-use: its claim is deleted once it has
	// minted the admin account.
	if err := s.Claims.Delete(ctx, claim.ClaimID.String()); err != nil {
		return nil, AuthToken{}, err
	}

	token, err := issueBootstrapToken(initialAdminSessionLifetime)
	if err != nil {
		return nil, AuthToken{}, err
	}
	return user, token, nil
}

// issueBootstrapToken mints the initial admin's AuthToken the same way
// DeviceSession.IssuePinSession does: a random 256-bit opaque token,
// not tied to any device fingerprint yet (the admin registers their
// first device separately via RegisterDevice).
func issueBootstrapToken(lifetime time.Duration) (AuthToken, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return AuthToken{}, fmt.Errorf("generate auth token: %w", err)
	}
	return AuthToken{
		Token:     hex.EncodeToString(raw),
		ExpiresAt: time.Now().Add(lifetime),
	}, nil
}
