// Package sequence provides the persisted identifier-sequence model, its
// store with schema migration, and the compliance guard that gates
// destructive operations.
package sequence

import (
	"context"
	"time"

	"sequor/internal/core/apperror"
	"sequor/internal/core/increment"
)

// Type defines the value representation of a sequence.
type Type string

const (
	TypeNumber Type = "number" // zero-padded decimal
	TypeLetter Type = "letter" // bijective base-26, uppercase
)

// Mode defines the governance policy of a sequence.
type Mode string

const (
	// ModeCompliance protects issued identifiers: no re-numbering, no
	// re-stamping of unique values, no deletion while referenced.
	ModeCompliance Mode = "compliance"

	// ModeDesign is the unrestricted policy for non-binding use.
	ModeDesign Mode = "design"
)

// Sequence is a named, typed, persisted identifier generator.
type Sequence struct {
	// ID is assigned at creation and immutable.
	ID string `json:"id"`

	// Name is a human label, mutable, non-unique.
	Name string `json:"name"`

	// Prefix is prepended to every issued value. Immutable once Locked.
	Prefix string `json:"prefix"`

	// Type is immutable after creation; changing it would invalidate the
	// HighestUsed semantics.
	Type Type `json:"type"`

	// NextValue is the unformatted value issued by the next stamp.
	NextValue string `json:"nextValue"`

	// HighestUsed is the watermark: the largest unformatted value ever
	// issued. Monotonically non-decreasing.
	HighestUsed string `json:"highestUsed"`

	// Mode is set at creation and not changeable thereafter.
	Mode Mode `json:"mode"`

	// Locked becomes true on the first successful stamp under compliance
	// mode; once true, prefix edits are refused.
	Locked bool `json:"locked"`

	// PolicyRule is an optional CEL expression evaluated as an extra deny
	// rule on guarded operations. Empty means no custom rule.
	PolicyRule string `json:"policyRule,omitempty"`

	// CreatedAt is the creation timestamp, immutable.
	CreatedAt time.Time `json:"createdAt"`
}

// Kind maps the sequence type onto the increment engine's value kind.
func (s *Sequence) Kind() increment.Kind {
	if s.Type == TypeLetter {
		return increment.KindLetter
	}
	return increment.KindNumber
}

// FullValue returns the formatted value the next stamp would issue:
// prefix + next value. The prefix is never itself incremented.
func (s *Sequence) FullValue() string {
	return s.Prefix + s.NextValue
}

// ZeroValue returns the first value of a sequence type.
func ZeroValue(t Type) string {
	if t == TypeLetter {
		return "A"
	}
	return "0"
}

// Validate checks structural invariants: known type and mode, and a
// NextValue that is a syntactically valid representation of Type.
func (s *Sequence) Validate(_ context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("sequence name is required").
			WithDetail("field", "name")
	}
	if s.Type != TypeNumber && s.Type != TypeLetter {
		return apperror.NewValidation("invalid sequence type").
			WithDetail("field", "type").
			WithDetail("value", string(s.Type))
	}
	if s.Mode != ModeCompliance && s.Mode != ModeDesign {
		return apperror.NewValidation("invalid sequence mode").
			WithDetail("field", "mode").
			WithDetail("value", string(s.Mode))
	}
	if !increment.ValidValue(s.NextValue, s.Kind()) {
		return apperror.NewValidation("next value is not a valid representation of the sequence type").
			WithDetail("field", "nextValue").
			WithDetail("value", s.NextValue)
	}
	if s.HighestUsed != "" && !increment.ValidValue(s.HighestUsed, s.Kind()) {
		return apperror.NewValidation("highest used value is not a valid representation of the sequence type").
			WithDetail("field", "highestUsed").
			WithDetail("value", s.HighestUsed)
	}
	if s.PolicyRule != "" {
		if err := CompileRule(s.PolicyRule); err != nil {
			return apperror.NewValidation("policy rule does not compile").
				WithDetail("field", "policyRule").
				WithCause(err)
		}
	}
	return nil
}
