package sequence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sequor/internal/core/apperror"
	"sequor/internal/infrastructure/storage"
)

func newTestStore(t *testing.T) (*Store, storage.Store) {
	t.Helper()
	kv := storage.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })
	return NewStore(kv), kv
}

func TestStore_CreateDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Sequence{Name: "Invoices", Type: TypeNumber})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "0", created.NextValue)
	assert.Equal(t, ModeDesign, created.Mode)
	assert.Equal(t, "", created.HighestUsed)
	assert.False(t, created.Locked)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestStore_CreateLetterDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	created, err := store.Create(context.Background(), &Sequence{Name: "Appendix", Type: TypeLetter})
	require.NoError(t, err)
	assert.Equal(t, "A", created.NextValue)
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		seq  *Sequence
	}{
		{"missing name", &Sequence{Type: TypeNumber}},
		{"unknown type", &Sequence{Name: "x", Type: "roman"}},
		{"value wrong for type", &Sequence{Name: "x", Type: TypeLetter, NextValue: "12"}},
		{"bad policy rule", &Sequence{Name: "x", Type: TypeNumber, PolicyRule: "op =="}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.seq)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestStore_UpdatePersists(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Sequence{Name: "Invoices", Type: TypeNumber})
	require.NoError(t, err)

	_, err = store.Update(ctx, created.ID, func(q *Sequence) error {
		q.NextValue = "42"
		return nil
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "42", got.NextValue)
}

func TestStore_UpdateMutatorErrorLeavesStateUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Sequence{Name: "Invoices", Type: TypeNumber})
	require.NoError(t, err)

	_, err = store.Update(ctx, created.ID, func(q *Sequence) error {
		q.NextValue = "999"
		return apperror.NewValidation("nope")
	})
	require.Error(t, err)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "0", got.NextValue)
}

func TestStore_DeleteClearsDanglingSelection(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, &Sequence{Name: "Invoices", Type: TypeNumber})
	require.NoError(t, err)
	require.NoError(t, store.SetSelected(ctx, created.ID))

	require.NoError(t, store.Delete(ctx, created.ID))

	selected, err := store.Selected(ctx)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestStore_SetSelectedRequiresExistingSequence(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.SetSelected(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	// clearing is always allowed
	require.NoError(t, store.SetSelected(ctx, ""))
}

func TestStore_FreshReadSeesExternalWrites(t *testing.T) {
	// Two stores over the same backend model two plugin instances against
	// one document. Writes by one must be visible to the other immediately.
	kv := storage.NewMemoryStore()
	defer kv.Close()
	a := NewStore(kv)
	b := NewStore(kv)
	ctx := context.Background()

	created, err := a.Create(ctx, &Sequence{Name: "Invoices", Type: TypeNumber})
	require.NoError(t, err)

	got, err := b.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	_, err = b.Update(ctx, created.ID, func(q *Sequence) error {
		q.Name = "Invoices 2026"
		return nil
	})
	require.NoError(t, err)

	got, err = a.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Invoices 2026", got.Name)
}

func TestStore_CorruptStateDegradesToEmpty(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, keySequences, "{not json"))

	seqs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, seqs)

	// the store stays writable after degrading
	_, err = store.Create(ctx, &Sequence{Name: "Recovered", Type: TypeNumber})
	require.NoError(t, err)
}
