// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testClaimSecret = []byte("test-claim-signing-secret-0123456789")

func TestClaimLifecycleHappyPath(t *testing.T) {
	claim, err := StartClaim(true)
	require.NoError(t, err)
	require.Len(t, claim.ClaimCode, claimCodeLength)
	require.False(t, claim.Confirmed)

	token, err := claim.ConfirmClaim(claim.ClaimCode, testClaimSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, claim.Confirmed)

	require.NoError(t, claim.VerifyClaimToken(token, testClaimSecret))
}

func TestClaimCannotBeConfirmedTwice(t *testing.T) {
	claim, err := StartClaim(false)
	require.NoError(t, err)

	_, err = claim.ConfirmClaim(claim.ClaimCode, testClaimSecret)
	require.NoError(t, err)

	_, err = claim.ConfirmClaim(claim.ClaimCode, testClaimSecret)
	require.ErrorIs(t, err, ErrClaimAlreadyConfirmed)
}

func TestClaimCodeMismatch(t *testing.T) {
	claim, err := StartClaim(false)
	require.NoError(t, err)

	_, err = claim.ConfirmClaim("WRONGCODE", testClaimSecret)
	require.ErrorIs(t, err, ErrClaimCodeMismatch)
}

func TestClaimExpiry(t *testing.T) {
	claim, err := StartClaim(false)
	require.NoError(t, err)
	claim.ExpiresAt = time.Now().Add(-time.Second)

	_, err = claim.ConfirmClaim(claim.ClaimCode, testClaimSecret)
	require.ErrorIs(t, err, ErrClaimExpired)
}

func TestVerifyClaimTokenRejectsForeignSecret(t *testing.T) {
	claim, err := StartClaim(false)
	require.NoError(t, err)

	token, err := claim.ConfirmClaim(claim.ClaimCode, testClaimSecret)
	require.NoError(t, err)

	err = claim.VerifyClaimToken(token, []byte("a-different-secret-entirely-000"))
	require.ErrorIs(t, err, ErrClaimTokenInvalid)
}

func TestVerifyClaimTokenRejectsUnconfirmedClaim(t *testing.T) {
	claim, err := StartClaim(false)
	require.NoError(t, err)

	err = claim.VerifyClaimToken("anything", testClaimSecret)
	require.ErrorIs(t, err, ErrClaimTokenInvalid)
}

func TestVerifyClaimTokenMissing(t *testing.T) {
	claim, err := StartClaim(false)
	require.NoError(t, err)
	require.ErrorIs(t, claim.VerifyClaimToken("", testClaimSecret), ErrClaimTokenMissing)
}
