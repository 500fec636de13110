package repository

import (
	"context"
	"sync"
	"time"

	"pet-adoption-portal/internal/model"
)

type memoryEntry struct {
	value     string
	updatedAt time.Time
}

// MemoryTokenRepository is the in-process backend used when no database is
// configured. Entries do not survive a restart.
type MemoryTokenRepository struct {
	mu       sync.Mutex
	sessions map[string]map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{
		sessions: map[string]map[string]memoryEntry{},
		now:      time.Now,
	}
}

func (r *MemoryTokenRepository) Set(_ context.Context, sessionID string, key string, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.sessions[sessionID]
	if !ok {
		entries = map[string]memoryEntry{}
		r.sessions[sessionID] = entries
	}
	entries[key] = memoryEntry{value: value, updatedAt: r.now().UTC()}
	return nil
}

// Get returns the value under key and marks every entry of the session as
// used, so an active session is never reclaimed by CleanIdle.
func (r *MemoryTokenRepository) Get(_ context.Context, sessionID string, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.sessions[sessionID]
	entry, ok := entries[key]
	if !ok {
		return "", model.ErrTokenNotFound
	}

	now := r.now().UTC()
	for k, e := range entries {
		e.updatedAt = now
		entries[k] = e
	}
	return entry.value, nil
}

func (r *MemoryTokenRepository) Delete(_ context.Context, sessionID string, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(entries, key)
	}
	if len(entries) == 0 {
		delete(r.sessions, sessionID)
	}
	return nil
}

func (r *MemoryTokenRepository) CleanIdle(_ context.Context, idle time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().UTC().Add(-idle)
	var removed int64
	for sessionID, entries := range r.sessions {
		for key, entry := range entries {
			if !entry.updatedAt.After(cutoff) {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(r.sessions, sessionID)
		}
	}
	return removed, nil
}
