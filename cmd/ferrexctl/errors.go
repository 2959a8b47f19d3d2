// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"errors"
	"os"

	"github.com/ferrex/mediaserver/internal/account"
)

// exitCodeFor classifies an error returned from command execution into
// one of the stable exit codes spec.md §6 names.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		return exitIOError
	case errors.Is(err, account.ErrClaimTokenMissing), errors.Is(err, account.ErrClaimTokenInvalid):
		return exitClaimTokenMissing
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrClaimExpired), errors.Is(err, account.ErrClaimAlreadyConfirmed):
		return exitPolicyViolation
	default:
		return exitUnknown
	}
}
