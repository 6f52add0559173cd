package dto

import (
	"sequor/internal/domain/link"
	"sequor/internal/domain/stamping"
)

// Outbound message types on the event channel. Every mutating operation
// responds with (and broadcasts) one of these tagged envelopes.
const (
	TypeInit             = "init"
	TypeSequenceCreated  = "sequence-created"
	TypeSequenceUpdated  = "sequence-updated"
	TypeSequenceDeleted  = "sequence-deleted"
	TypeSequenceSelected = "sequence-selected"
	TypeStamped          = "stamped"
	TypeUnlinked         = "unlinked"
	TypeRelinked         = "relinked"
	TypeResetDone        = "reset-done"
	TypeSelectionState   = "selection-state"
	TypeError            = "error"
	TypeInfo             = "info"
)

// InitMessage announces the store state when a client attaches.
type InitMessage struct {
	Type       string              `json:"type"`
	Sequences  []*SequenceResponse `json:"sequences"`
	SelectedID string              `json:"selectedId,omitempty"`
}

// SequenceMessage carries a sequence lifecycle event.
type SequenceMessage struct {
	Type     string            `json:"type"`
	Sequence *SequenceResponse `json:"sequence,omitempty"`
	ID       string            `json:"id,omitempty"`
}

// StampedMessage reports a completed stamp.
type StampedMessage struct {
	Type      string            `json:"type"`
	ElementID string            `json:"elementId"`
	Value     string            `json:"value"`
	Restamped bool              `json:"restamped"`
	Sequence  *SequenceResponse `json:"sequence"`
}

// FromStampResult builds the stamped envelope.
func FromStampResult(res *stamping.StampResult) *StampedMessage {
	return &StampedMessage{
		Type:      TypeStamped,
		ElementID: res.ElementID,
		Value:     res.Value,
		Restamped: res.Restamped,
		Sequence:  FromSequence(res.Sequence),
	}
}

// LinkMessage reports an unlink or relink.
type LinkMessage struct {
	Type      string     `json:"type"`
	ElementID string     `json:"elementId"`
	Link      *link.Link `json:"link,omitempty"`
}

// ResetMessage reports a completed reset.
type ResetMessage struct {
	Type     string            `json:"type"`
	Sequence *SequenceResponse `json:"sequence"`
}

// SelectionStateMessage carries the derived selection state.
type SelectionStateMessage struct {
	Type  string                   `json:"type"`
	State *stamping.SelectionState `json:"state"`
}

// NewSelectionState wraps an analyzer result in its envelope.
func NewSelectionState(state *stamping.SelectionState) *SelectionStateMessage {
	return &SelectionStateMessage{Type: TypeSelectionState, State: state}
}
