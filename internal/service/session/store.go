package session

import (
	"context"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrUserIDRequired = errors.New("session user id is required")
)

// Store abstracts per-user conversation state so tests can substitute a fake
// and assert exact transition sequences.
type Store interface {
	Get(ctx context.Context, userID string) (meet.Session, error)
	Put(ctx context.Context, sess meet.Session) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore keeps sessions in an expiring in-memory cache. Abandoned
// conversations age out after the TTL instead of leaking.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore builds a store whose entries expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryStore{cache: gocache.New(ttl, ttl)}
}

// Get retrieves the session for userID.
func (s *MemoryStore) Get(_ context.Context, userID string) (meet.Session, error) {
	v, ok := s.cache.Get(userID)
	if !ok {
		return meet.Session{}, ErrNotFound
	}
	sess, ok := v.(meet.Session)
	if !ok {
		return meet.Session{}, ErrNotFound
	}
	sess.Locations = append([]string(nil), sess.Locations...)
	return sess, nil
}

// Put replaces the stored session for its user, refreshing the TTL.
func (s *MemoryStore) Put(_ context.Context, sess meet.Session) error {
	if sess.UserID == "" {
		return ErrUserIDRequired
	}
	sess.Locations = append([]string(nil), sess.Locations...)
	sess.UpdatedAt = time.Now().UTC()
	s.cache.SetDefault(sess.UserID, sess)
	return nil
}

// Delete removes the session for userID. Deleting a missing session is a
// no-op.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.cache.Delete(userID)
	return nil
}
