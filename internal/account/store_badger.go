// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage, one prefix per aggregate plus a
// secondary username index.
const (
	userKeyPrefix       = "account_user:"
	userByNameKeyPrefix = "account_user_name:"
	claimKeyPrefix      = "account_claim:"
)

// ErrUserNotFound is returned by BadgerUserStore.Get for an unknown id.
var ErrUserNotFound = errors.New("user not found")

// ErrClaimNotFound is returned by BadgerClaimStore.Get for an unknown id.
var ErrClaimNotFound = errors.New("claim not found")

// BadgerUserStore persists User aggregates in an embedded BadgerDB,
// keyed by UserID with a secondary username index, one Badger
// transaction per operation.
type BadgerUserStore struct {
	db *badger.DB
}

// NewBadgerUserStore wraps an already-opened Badger database.
func NewBadgerUserStore(db *badger.DB) *BadgerUserStore {
	return &BadgerUserStore{db: db}
}

// Put persists user, overwriting any prior record with the same ID.
func (s *BadgerUserStore) Put(ctx context.Context, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + user.UserID.String())
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		nameKey := []byte(userByNameKeyPrefix + user.Username)
		if err := txn.Set(nameKey, []byte(user.UserID.String())); err != nil {
			return fmt.Errorf("set user name index: %w", err)
		}
		return nil
	})
}

// Get retrieves a user by ID.
func (s *BadgerUserStore) Get(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername resolves the secondary username index then loads the record.
func (s *BadgerUserStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userByNameKeyPrefix + username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user name index: %w", err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Count returns the number of persisted users, used by the First-Run
// Claim flow's needs_setup predicate (no admin created yet).
func (s *BadgerUserStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// BadgerClaimStore persists First-Run Claim aggregates, keyed by
// ClaimID. Claims are short-lived (minutes) and are not indexed by
// claim_code: confirm_claim scans the small live set instead.
type BadgerClaimStore struct {
	db *badger.DB
}

// NewBadgerClaimStore wraps an already-opened Badger database.
func NewBadgerClaimStore(db *badger.DB) *BadgerClaimStore {
	return &BadgerClaimStore{db: db}
}

// Put persists claim, overwriting any prior record with the same ID.
func (s *BadgerClaimStore) Put(ctx context.Context, claim *Claim) error {
	data, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(claimKeyPrefix+claim.ClaimID.String()), data)
	})
}

// Get retrieves a claim by ID.
func (s *BadgerClaimStore) Get(ctx context.Context, id string) (*Claim, error) {
	var claim Claim
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(claimKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrClaimNotFound
		}
		if err != nil {
			return fmt.Errorf("get claim: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &claim)
		})
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// FindByCode scans live claims for one with a matching, unconfirmed
// claim_code. The live set is tiny (claims expire after 5 minutes) so
// a linear scan is used rather than maintaining a second index for a
// short-lived value.
func (s *BadgerClaimStore) FindByCode(ctx context.Context, code string) (*Claim, error) {
	var found *Claim
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(claimKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var claim Claim
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &claim)
			}); err != nil {
				continue
			}
			if claim.ClaimCode == code {
				found = &claim
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrClaimNotFound
	}
	return found, nil
}

// Delete removes a claim, used once its token has been consumed by
// CreateInitialAdmin or it has expired unconfirmed.
func (s *BadgerClaimStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(claimKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
