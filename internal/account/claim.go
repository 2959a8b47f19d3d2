// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ferrex/mediaserver/internal/ids"
	"github.com/ferrex/mediaserver/internal/metrics"
)

// claimCodeAlphabet is a 32-symbol Crockford-base32-like alphabet that
// excludes 0/O/1/I/L to avoid transcription ambiguity (spec.md §9
// leaves the exact alphabet to the implementer; see DESIGN.md).
const claimCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const claimCodeLength = 8

const claimCodeTTL = 5 * time.Minute
const claimTokenTTL = 10 * time.Minute

var (
	// ErrClaimExpired is returned by ConfirmClaim when expires_at has passed.
	ErrClaimExpired = errors.New("claim expired")
	// ErrClaimAlreadyConfirmed is returned by ConfirmClaim on a second attempt.
	ErrClaimAlreadyConfirmed = errors.New("claim already confirmed")
	// ErrClaimCodeMismatch is returned when the supplied code does not match.
	ErrClaimCodeMismatch = errors.New("claim code mismatch")
	// ErrClaimTokenMissing is returned when create_initial_admin is called without a token.
	ErrClaimTokenMissing = errors.New("claim token missing")
	// ErrClaimTokenInvalid is returned when the claim token fails verification.
	ErrClaimTokenInvalid = errors.New("claim token invalid")
)

// Claim is the First-Run Claim aggregate (spec.md §4.8): a short-lived
// human-transcribable binding code that, once confirmed, yields exactly
// one opaque claim token gating the creation of the initial admin user.
type Claim struct {
	ClaimID   ids.ClaimID
	ClaimCode string
	ExpiresAt time.Time
	LanOnly   bool
	Confirmed bool

	// claimTokenHash stores only the signed JWT's identity (its jti),
	// not the raw token; ConfirmClaim returns the raw token once and
	// never again.
	claimTokenJTI   string
	claimTokenUntil time.Time
}

// claimClaims is the JWT claim set minted by ConfirmClaim, mirroring
// auth.JWTManager's Claims shape but scoped to a single claim_id
// instead of a username/role pair.
type claimClaims struct {
	ClaimID string `json:"claim_id"`
	jwt.RegisteredClaims
}

// StartClaim begins a First-Run Claim: generates a fresh claim_id and a
// short human-transcribable claim_code valid for 5 minutes.
func StartClaim(lanOnly bool) (*Claim, error) {
	code, err := generateClaimCode()
	if err != nil {
		return nil, err
	}
	return &Claim{
		ClaimID:   ids.NewClaimID(),
		ClaimCode: code,
		ExpiresAt: time.Now().Add(claimCodeTTL),
		LanOnly:   lanOnly,
	}, nil
}

func generateClaimCode() (string, error) {
	buf := make([]byte, claimCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate claim code: %w", err)
	}
	out := make([]byte, claimCodeLength)
	for i, b := range buf {
		out[i] = claimCodeAlphabet[int(b)%len(claimCodeAlphabet)]
	}
	return string(out), nil
}

// ConfirmClaim consumes the binding code exactly once and mints a
// signed, short-lived claim token. secret is the HMAC-SHA256 signing
// key (SecurityConfig.JWTSecret in practice). Claim tokens and session
// tokens never share a signature namespace even though both are signed
// with the same configured secret.
func (c *Claim) ConfirmClaim(code string, secret []byte) (string, error) {
	now := time.Now()
	if now.After(c.ExpiresAt) {
		return "", ErrClaimExpired
	}
	if c.Confirmed {
		return "", ErrClaimAlreadyConfirmed
	}
	if code != c.ClaimCode {
		return "", ErrClaimCodeMismatch
	}

	until := now.Add(claimTokenTTL)
	jti := c.ClaimID.String() + "-" + fmt.Sprintf("%d", now.UnixNano())
	claims := &claimClaims{
		ClaimID: c.ClaimID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(until),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign claim token: %w", err)
	}

	c.Confirmed = true
	c.claimTokenJTI = jti
	c.claimTokenUntil = until
	metrics.ClaimTokensIssued.Inc()
	return signed, nil
}

// VerifyClaimToken checks that token was minted by this claim's
// ConfirmClaim call, is unexpired, and has not already been consumed
// by a prior CreateInitialAdmin. It does not itself mark the token
// consumed; callers pair this with a store-level one-time-use check
// since the verification is a pure function of the token and this
// aggregate's state.
func (c *Claim) VerifyClaimToken(token string, secret []byte) error {
	if token == "" {
		return ErrClaimTokenMissing
	}
	if !c.Confirmed {
		return ErrClaimTokenInvalid
	}

	parsed, err := jwt.ParseWithClaims(token, &claimClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrClaimTokenInvalid, err)
	}
	claims, ok := parsed.Claims.(*claimClaims)
	if !ok || !parsed.Valid {
		return ErrClaimTokenInvalid
	}
	if claims.ClaimID != c.ClaimID.String() || claims.ID != c.claimTokenJTI {
		return ErrClaimTokenInvalid
	}
	if time.Now().After(c.claimTokenUntil) {
		return ErrClaimTokenInvalid
	}
	return nil
}

// Expired reports whether the claim_code window has passed without
// confirmation.
func (c *Claim) Expired(now time.Time) bool {
	return !c.Confirmed && now.After(c.ExpiresAt)
}
