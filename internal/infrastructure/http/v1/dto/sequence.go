package dto

import (
	"time"

	"sequor/internal/domain/sequence"
)

// --- Request DTOs ---

// CreateSequenceRequest is the create-sequence message payload.
type CreateSequenceRequest struct {
	Name       string `json:"name" binding:"required"`
	Prefix     string `json:"prefix"`
	Type       string `json:"type" binding:"required"`
	Mode       string `json:"mode"`
	NextValue  string `json:"nextValue"`
	PolicyRule string `json:"policyRule"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSequenceRequest) ToEntity() *sequence.Sequence {
	return &sequence.Sequence{
		Name:       r.Name,
		Prefix:     r.Prefix,
		Type:       sequence.Type(r.Type),
		Mode:       sequence.Mode(r.Mode),
		NextValue:  r.NextValue,
		PolicyRule: r.PolicyRule,
	}
}

// UpdateSequenceRequest renames a sequence or edits its prefix/policy rule.
// Nil fields are left unchanged; prefix edits are refused once locked.
type UpdateSequenceRequest struct {
	Name       *string `json:"name"`
	Prefix     *string `json:"prefix"`
	PolicyRule *string `json:"policyRule"`
}

// ResetRequest is the reset message payload.
type ResetRequest struct {
	Value string `json:"value" binding:"required"`
}

// SelectSequenceRequest is the select-sequence message payload. An empty
// id clears the selection.
type SelectSequenceRequest struct {
	SequenceID string `json:"sequenceId"`
}

// --- Response DTOs ---

// SequenceResponse is the wire shape of a sequence.
type SequenceResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Prefix      string    `json:"prefix"`
	Type        string    `json:"type"`
	Mode        string    `json:"mode"`
	NextValue   string    `json:"nextValue"`
	HighestUsed string    `json:"highestUsed,omitempty"`
	Locked      bool      `json:"locked"`
	PolicyRule  string    `json:"policyRule,omitempty"`
	FullValue   string    `json:"fullValue"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FromSequence creates response DTO from domain entity.
func FromSequence(seq *sequence.Sequence) *SequenceResponse {
	if seq == nil {
		return nil
	}
	return &SequenceResponse{
		ID:          seq.ID,
		Name:        seq.Name,
		Prefix:      seq.Prefix,
		Type:        string(seq.Type),
		Mode:        string(seq.Mode),
		NextValue:   seq.NextValue,
		HighestUsed: seq.HighestUsed,
		Locked:      seq.Locked,
		PolicyRule:  seq.PolicyRule,
		FullValue:   seq.FullValue(),
		CreatedAt:   seq.CreatedAt,
	}
}

// FromSequences maps a collection.
func FromSequences(seqs []*sequence.Sequence) []*SequenceResponse {
	out := make([]*SequenceResponse, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, FromSequence(seq))
	}
	return out
}
