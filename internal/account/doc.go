// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package account implements the multi-user, multi-device Authentication &
Device Trust core: password + per-user PIN credentials, device session
lifecycle, account lockout, and first-run admin claim.

Components:

  - Crypto (crypto.go): Argon2id password hashing, PIN proof hashing,
    and at-rest key derivation, grounded on the Argon2 parameters
    internal/config already declares.
  - DeviceSession (device.go): the per-device Pending -> Trusted |
    Revoked state machine with PIN failure lockout and session token
    issuance.
  - User (aggregate.go): the User Authentication Aggregate combining
    password auth, device registration, and PIN management behind one
    invariant boundary; every mutation appends an AuthEvent that
    callers harvest with TakeEvents.
  - Claim (claim.go): the First-Run Claim bootstrap bridging an
    unauthenticated admin client to the server's first admin account.
  - Service (service.go): composes Claim + User persistence, Crypto,
    and config.PasswordPolicy into the three First-Run Claim operations
    (start_claim, confirm_claim, create_initial_admin) as a single
    entry point for callers.

The aggregate performs no I/O — it is pure in-memory state plus event
emission (encoded here as the AuthState tagged variant rather than
compile-time marker types, since Go has no const-generic/typestate
facility). Persistence is a separate concern: BadgerStore
(store_badger.go) persists User/Claim snapshots behind a small
repository interface so the aggregate itself never touches Badger.
*/
package account
