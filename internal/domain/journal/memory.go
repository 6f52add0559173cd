package journal

import (
	"context"
	"sync"
)

// MemoryRepository is the in-process journal backend, used when no SQL
// backend is configured and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
}

// NewMemoryRepository creates an empty in-memory journal.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Insert implements Repository.
func (r *MemoryRepository) Insert(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *entry
	r.entries = append(r.entries, &clone)
	return nil
}

// List implements Repository. Newest first.
func (r *MemoryRepository) List(_ context.Context, f Filter) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if f.SequenceID != "" && entry.SequenceID != f.SequenceID {
			continue
		}
		if f.ElementID != "" && entry.ElementID != f.ElementID {
			continue
		}
		if f.Action != "" && entry.Action != f.Action {
			continue
		}
		if !f.From.IsZero() && entry.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && entry.CreatedAt.After(f.To) {
			continue
		}
		clone := *entry
		out = append(out, &clone)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}
