// Package stamping drives the top-level stamp lifecycle: the orchestrated
// stamp/unlink/relink/reset operations and the selection analysis the UI
// renders from.
package stamping

import (
	"context"

	"sequor/internal/core/apperror"
	"sequor/internal/domain/document"
	"sequor/internal/domain/link"
	"sequor/internal/domain/sequence"
)

// StateKind tags the derived state of the current selection.
type StateKind string

const (
	// StateNone: empty or multi-element selection, nothing to act on.
	StateNone StateKind = "none"

	// StateNotText: a single element is selected but it is not a text leaf.
	StateNotText StateKind = "not-text"

	// StateUnlinked: a text element with no link; the UI can offer linking.
	StateUnlinked StateKind = "unlinked"

	// StateNeedsStamp: linked but the value is empty or duplicated
	// elsewhere; stamping is the way forward.
	StateNeedsStamp StateKind = "needs-stamp"

	// StateStamped: linked with a unique stamped value.
	StateStamped StateKind = "stamped"

	// StateBrokenLink: the link's sequence no longer exists in the store.
	StateBrokenLink StateKind = "broken-link"
)

// SelectionState is derived, never persisted: recomputed from the live
// tree and store on every call. Fields carry what the corresponding UI
// action needs.
type SelectionState struct {
	Kind      StateKind `json:"kind"`
	ElementID string    `json:"elementId,omitempty"`

	// Text is the element's current raw content (unlinked state).
	Text string `json:"text,omitempty"`

	// StampedValue is the value on the element (broken-link carries the
	// orphaned value for user-driven relink, stamped the canonical one).
	StampedValue string `json:"stampedValue,omitempty"`

	// IsDuplicate marks a needs-stamp state caused by copy/paste twins.
	IsDuplicate bool `json:"isDuplicate,omitempty"`

	// Sequence is the resolved sequence (needs-stamp and stamped states).
	Sequence *sequence.Sequence `json:"sequence,omitempty"`
}

// Analyzer derives the selection state. It holds no cached state of its
// own.
type Analyzer struct {
	store *sequence.Store
	links *link.Registry
	tree  document.Tree
}

// NewAnalyzer creates an Analyzer over the live collaborators.
func NewAnalyzer(store *sequence.Store, links *link.Registry, tree document.Tree) *Analyzer {
	return &Analyzer{store: store, links: links, tree: tree}
}

// Analyze derives the state of the current selection.
func (a *Analyzer) Analyze(ctx context.Context) (*SelectionState, error) {
	selected := a.tree.Selection()
	if len(selected) != 1 {
		return &SelectionState{Kind: StateNone}, nil
	}

	node := selected[0]
	text, ok := node.(document.TextNode)
	if !ok {
		return &SelectionState{Kind: StateNotText, ElementID: node.ID()}, nil
	}

	l := a.links.Get(text)
	if l == nil {
		return &SelectionState{
			Kind:      StateUnlinked,
			ElementID: text.ID(),
			Text:      text.Characters(),
		}, nil
	}

	seq, err := a.store.Get(ctx, l.SequenceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return &SelectionState{
				Kind:         StateBrokenLink,
				ElementID:    text.ID(),
				StampedValue: l.StampedValue,
			}, nil
		}
		return nil, err
	}

	duplicates := a.links.CountDuplicateStampedValue(l.StampedValue, text.ID())
	if duplicates > 0 || l.StampedValue == "" {
		return &SelectionState{
			Kind:        StateNeedsStamp,
			ElementID:   text.ID(),
			IsDuplicate: duplicates > 0,
			Sequence:    seq,
		}, nil
	}

	return &SelectionState{
		Kind:         StateStamped,
		ElementID:    text.ID(),
		StampedValue: l.StampedValue,
		Sequence:     seq,
	}, nil
}
