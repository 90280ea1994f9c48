package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process revocation set. Suitable for
// single-instance deployments; revocations do not survive a restart and are
// not visible to other processes. Expired records are pruned opportunistically
// on writes so the set stays bounded by the refresh TTL window.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore returns an empty in-process revocation set.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryStore) Revoke(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl < minTTL {
		ttl = minTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)

	if exp, ok := s.entries[key]; ok && exp.After(now) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if !exp.After(s.now()) {
		delete(s.entries, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	for key, exp := range s.entries {
		if !exp.After(now) {
			delete(s.entries, key)
		}
	}
}
