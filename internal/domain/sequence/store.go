package sequence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sequor/internal/core/apperror"
	"sequor/internal/core/id"
	"sequor/internal/infrastructure/storage"
	"sequor/pkg/logger"
)

// Persisted layout: one JSON array of sequences under one key, scalar keys
// for the selected-sequence pointer and the schema version, plus the legacy
// single-counter key recognized by migration.
const (
	keySequences     = "sequences"
	keySelected      = "selectedSequence"
	keySchemaVersion = "schemaVersion"
	keyLegacyCounter = "counter"
)

// Store provides CRUD over the persisted sequence collection. Every
// mutation re-reads the full collection, applies the change, and writes the
// full collection back, so a stale in-memory copy can never clobber state.
type Store struct {
	kv storage.Store
}

// NewStore creates a Store over the given state backend.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// List returns all sequences, freshly read from the backend.
func (s *Store) List(ctx context.Context) ([]*Sequence, error) {
	return s.load(ctx)
}

// Get returns the sequence with the given id.
func (s *Store) Get(ctx context.Context, sequenceID string) (*Sequence, error) {
	seqs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, seq := range seqs {
		if seq.ID == sequenceID {
			return seq, nil
		}
	}
	return nil, apperror.NewSequenceNotFound(sequenceID)
}

// Create assigns id, creation timestamp and defaults, validates, and
// persists the new sequence.
func (s *Store) Create(ctx context.Context, seq *Sequence) (*Sequence, error) {
	if seq.NextValue == "" {
		seq.NextValue = ZeroValue(seq.Type)
	}
	if seq.Mode == "" {
		seq.Mode = ModeDesign
	}
	seq.ID = id.NewString()
	seq.Locked = false
	seq.HighestUsed = "" // nothing issued yet
	seq.CreatedAt = time.Now().UTC()

	if err := seq.Validate(ctx); err != nil {
		return nil, err
	}

	seqs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	seqs = append(seqs, seq)
	if err := s.save(ctx, seqs); err != nil {
		return nil, err
	}
	return seq, nil
}

// Update applies mutate to the stored sequence and persists the collection.
// The mutator sees the freshly loaded record; returning an error aborts
// with no state change.
func (s *Store) Update(ctx context.Context, sequenceID string, mutate func(*Sequence) error) (*Sequence, error) {
	seqs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, seq := range seqs {
		if seq.ID != sequenceID {
			continue
		}
		if err := mutate(seq); err != nil {
			return nil, err
		}
		if err := seq.Validate(ctx); err != nil {
			return nil, err
		}
		if err := s.save(ctx, seqs); err != nil {
			return nil, err
		}
		return seq, nil
	}
	return nil, apperror.NewSequenceNotFound(sequenceID)
}

// Delete removes the sequence. Links pointing at it are not touched; they
// become broken and stay discoverable by the selection analyzer.
func (s *Store) Delete(ctx context.Context, sequenceID string) error {
	seqs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := seqs[:0]
	found := false
	for _, seq := range seqs {
		if seq.ID == sequenceID {
			found = true
			continue
		}
		kept = append(kept, seq)
	}
	if !found {
		return apperror.NewSequenceNotFound(sequenceID)
	}
	if err := s.save(ctx, kept); err != nil {
		return err
	}

	// drop a dangling selected pointer
	if selected, _ := s.Selected(ctx); selected == sequenceID {
		return s.SetSelected(ctx, "")
	}
	return nil
}

// Selected returns the id of the selected sequence, "" when none.
func (s *Store) Selected(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, keySelected)
	if err != nil {
		return "", apperror.NewStorage(err)
	}
	return v, nil
}

// SetSelected points the selection at sequenceID; "" clears it. A non-empty
// id must resolve.
func (s *Store) SetSelected(ctx context.Context, sequenceID string) error {
	if sequenceID != "" {
		if _, err := s.Get(ctx, sequenceID); err != nil {
			return err
		}
	}
	if err := s.kv.Set(ctx, keySelected, sequenceID); err != nil {
		return apperror.NewStorage(err)
	}
	return nil
}

// load reads the persisted collection. Corrupt JSON degrades to an empty
// collection rather than bricking every operation on bad state.
func (s *Store) load(ctx context.Context) ([]*Sequence, error) {
	raw, ok, err := s.kv.Get(ctx, keySequences)
	if err != nil {
		return nil, apperror.NewStorage(err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var seqs []*Sequence
	if err := json.Unmarshal([]byte(raw), &seqs); err != nil {
		logger.Warn(ctx, "persisted sequence collection is corrupt, treating as empty",
			"error", err,
		)
		return nil, nil
	}
	return seqs, nil
}

// save writes the entire collection atomically under one key.
func (s *Store) save(ctx context.Context, seqs []*Sequence) error {
	if seqs == nil {
		seqs = []*Sequence{}
	}
	raw, err := json.Marshal(seqs)
	if err != nil {
		return apperror.NewStorage(fmt.Errorf("encode sequences: %w", err))
	}
	if err := s.kv.Set(ctx, keySequences, string(raw)); err != nil {
		return apperror.NewStorage(err)
	}
	return nil
}
