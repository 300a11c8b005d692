// Stockpulse - Stock Watchlist and Price-Move Alerts
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/stockpulse/stockpulse/internal/logging"
)

// ErrTokenRevoked indicates the presented refresh token's digest is not in
// the active session store: it was rotated away, logged out, or never issued.
var ErrTokenRevoked = errors.New("refresh token revoked")

// ErrStoreClosed indicates the revocation store has been closed.
var ErrStoreClosed = errors.New("revocation store is closed")

// SessionEntry is the record stored per active refresh token, keyed by the
// token's SHA-256 digest.
type SessionEntry struct {
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevocationStore tracks the digests of currently valid refresh tokens.
// A refresh token is honored only while its digest is present; deleting the
// digest revokes the token immediately regardless of its JWT expiry.
type RevocationStore interface {
	// Put records a digest as an active session with the given TTL.
	Put(ctx context.Context, digest string, entry *SessionEntry, ttl time.Duration) error

	// Get returns the session entry for a digest, or ErrTokenRevoked if
	// the digest is absent or expired.
	Get(ctx context.Context, digest string) (*SessionEntry, error)

	// Delete removes a digest. Deleting an absent digest is not an error.
	Delete(ctx context.Context, digest string) error

	// Rotate atomically replaces oldDigest with newDigest. The old digest
	// must be present; otherwise ErrTokenRevoked is returned and no state
	// changes.
	Rotate(ctx context.Context, oldDigest, newDigest string, entry *SessionEntry, ttl time.Duration) error

	// Close releases store resources.
	Close() error
}

// BadgerRevocationStore persists session digests in BadgerDB with per-entry
// TTL, so sessions survive restarts and expired digests vanish on their own.
type BadgerRevocationStore struct {
	db     *badger.DB
	prefix []byte
	mu     sync.RWMutex
	closed bool
}

// NewBadgerRevocationStore opens (or creates) a Badger database at path.
func NewBadgerRevocationStore(path string) (*BadgerRevocationStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening revocation store: %w", err)
	}

	return &BadgerRevocationStore{
		db:     db,
		prefix: []byte("session:"),
	}, nil
}

func (s *BadgerRevocationStore) makeKey(digest string) []byte {
	return append(s.prefix, []byte(digest)...)
}

func (s *BadgerRevocationStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Put records a digest as an active session.
func (s *BadgerRevocationStore) Put(ctx context.Context, digest string, entry *SessionEntry, ttl time.Duration) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding session entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(s.makeKey(digest), data).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Get returns the session entry for a digest.
func (s *BadgerRevocationStore) Get(ctx context.Context, digest string) (*SessionEntry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	entry := &SessionEntry{}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.makeKey(digest))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTokenRevoked
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, entry)
		})
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Delete removes a digest. Absent digests are ignored.
func (s *BadgerRevocationStore) Delete(ctx context.Context, digest string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.makeKey(digest))
	})
}

// Rotate replaces oldDigest with newDigest in a single transaction. If the
// old digest is absent the rotation fails closed with ErrTokenRevoked.
func (s *BadgerRevocationStore) Rotate(ctx context.Context, oldDigest, newDigest string, entry *SessionEntry, ttl time.Duration) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding session entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		oldKey := s.makeKey(oldDigest)
		if _, err := txn.Get(oldKey); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrTokenRevoked
			}
			return err
		}
		if err := txn.Delete(oldKey); err != nil {
			return err
		}
		e := badger.NewEntry(s.makeKey(newDigest), data).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Close closes the underlying Badger database.
func (s *BadgerRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close revocation store")
		return err
	}
	return nil
}

// MemoryRevocationStore is an in-memory RevocationStore for tests and
// single-process development runs. Sessions are lost on restart.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]*memorySession
	closed  bool
}

type memorySession struct {
	entry     SessionEntry
	expiresAt time.Time
}

// NewMemoryRevocationStore creates an empty in-memory store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]*memorySession),
	}
}

// Put records a digest as an active session.
func (s *MemoryRevocationStore) Put(ctx context.Context, digest string, entry *SessionEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	s.entries[digest] = &memorySession{entry: *entry, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Get returns the session entry for a digest.
func (s *MemoryRevocationStore) Get(ctx context.Context, digest string) (*SessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	sess, ok := s.entries[digest]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.entries, digest)
		return nil, ErrTokenRevoked
	}

	entry := sess.entry
	return &entry, nil
}

// Delete removes a digest. Absent digests are ignored.
func (s *MemoryRevocationStore) Delete(ctx context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	delete(s.entries, digest)
	return nil
}

// Rotate replaces oldDigest with newDigest atomically.
func (s *MemoryRevocationStore) Rotate(ctx context.Context, oldDigest, newDigest string, entry *SessionEntry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	sess, ok := s.entries[oldDigest]
	if !ok || time.Now().After(sess.expiresAt) {
		delete(s.entries, oldDigest)
		return ErrTokenRevoked
	}

	delete(s.entries, oldDigest)
	s.entries[newDigest] = &memorySession{entry: *entry, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Close clears the store.
func (s *MemoryRevocationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}
