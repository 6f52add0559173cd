package stamping

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sequor/internal/core/apperror"
	"sequor/internal/core/increment"
	"sequor/internal/domain/document"
	"sequor/internal/domain/journal"
	"sequor/internal/domain/link"
	"sequor/internal/domain/sequence"
	"sequor/pkg/logger"
)

// Service is the stamping orchestrator: it sequences validation, guard
// checks, value computation, document mutation, link recording, sequence
// advancement and persistence for every mutating UI message.
type Service struct {
	store   *sequence.Store
	links   *link.Registry
	tree    document.Tree
	fonts   document.FontLoader
	journal *journal.Service
	tracer  trace.Tracer
}

// NewService wires the orchestrator.
func NewService(
	store *sequence.Store,
	links *link.Registry,
	tree document.Tree,
	fonts document.FontLoader,
	journalSvc *journal.Service,
) *Service {
	return &Service{
		store:   store,
		links:   links,
		tree:    tree,
		fonts:   fonts,
		journal: journalSvc,
		tracer:  otel.Tracer("sequor/stamping"),
	}
}

// StampResult reports a completed stamp.
type StampResult struct {
	ElementID string             `json:"elementId"`
	Value     string             `json:"value"`
	Sequence  *sequence.Sequence `json:"sequence"`
	Restamped bool               `json:"restamped"`
}

// StampOrLink writes the sequence's next formatted value into the element
// and records the link. Re-stamping an already-stamped element passes
// through the compliance guard first. On any failure before the text write
// nothing has mutated; a persistence failure after the write is reported
// as an error and the element text is the durable source of truth.
func (s *Service) StampOrLink(ctx context.Context, elementID, sequenceID string) (*StampResult, error) {
	ctx, span := s.tracer.Start(ctx, "stamping.StampOrLink",
		trace.WithAttributes(
			attribute.String("element_id", elementID),
			attribute.String("sequence_id", sequenceID),
		))
	defer span.End()

	node, err := s.resolveText(elementID)
	if err != nil {
		return nil, err
	}
	seq, err := s.store.Get(ctx, sequenceID)
	if err != nil {
		return nil, err
	}

	existing := s.links.Get(node)
	restamp := existing != nil && (existing.SequenceID != sequenceID || existing.StampedValue != "")
	if restamp {
		duplicates := s.links.CountDuplicateStampedValue(existing.StampedValue, node.ID())
		if issuer, err := s.store.Get(ctx, existing.SequenceID); err == nil {
			// The guard protects the value already on the element, so it
			// runs against the sequence that issued it. A broken link has
			// no issuer left to protect and is repaired freely.
			if d := sequence.CanRestamp(issuer, duplicates); !d.Allowed {
				return nil, apperror.NewComplianceViolation(d.Reason)
			}
			if d := s.policyCheck(issuer, sequence.OpRestamp, existing.StampedValue, duplicates); !d.Allowed {
				return nil, apperror.NewComplianceViolation(d.Reason)
			}
		} else if !apperror.IsNotFound(err) {
			return nil, err
		}
	}

	stampValue := seq.FullValue()
	issued := seq.NextValue

	if d := s.policyCheck(seq, sequence.OpStamp, stampValue, 0); !d.Allowed {
		return nil, apperror.NewComplianceViolation(d.Reason)
	}

	// Typeface must be ready before any text mutation. An unreadable
	// typeface (mixed runs) falls back to the default, never a hard error.
	font, err := node.Font()
	if err != nil {
		logger.Debug(ctx, "typeface unreadable, falling back to default",
			"element_id", node.ID(),
			"error", err,
		)
		font = document.DefaultFont
	}
	if err := s.fonts.EnsureFont(ctx, font); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("ensure typeface %s %s: %w", font.Family, font.Style, err))
	}

	if err := node.SetCharacters(ctx, stampValue); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("write element text: %w", err))
	}

	s.links.Set(node, seq.ID, stampValue)

	updated, err := s.store.Update(ctx, seq.ID, func(q *sequence.Sequence) error {
		next, err := increment.Next(q.NextValue, q.Kind())
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("advance sequence: %w", err))
		}
		q.NextValue = next
		if q.HighestUsed == "" || increment.Compare(issued, q.HighestUsed, q.Kind()) > 0 {
			q.HighestUsed = issued
		}
		if q.Mode == sequence.ModeCompliance {
			q.Locked = true
		}
		return nil
	})
	if err != nil {
		// The element text already changed; callers re-run the analyzer
		// to reconcile against the document, which stays authoritative.
		return nil, err
	}

	action := journal.ActionStamp
	if restamp {
		action = journal.ActionRestamp
	}
	s.record(ctx, journal.Entry{
		Action:     action,
		SequenceID: updated.ID,
		ElementID:  node.ID(),
		Value:      stampValue,
		Payload:    mustJSON(map[string]any{"nextValue": updated.NextValue, "highestUsed": updated.HighestUsed}),
	})

	return &StampResult{
		ElementID: node.ID(),
		Value:     stampValue,
		Sequence:  updated,
		Restamped: restamp,
	}, nil
}

// Unlink clears the element's link unconditionally. Compliance protects
// numbering integrity, not traceability removal by the author.
func (s *Service) Unlink(ctx context.Context, elementID string) (*link.Link, error) {
	ctx, span := s.tracer.Start(ctx, "stamping.Unlink",
		trace.WithAttributes(attribute.String("element_id", elementID)))
	defer span.End()

	node, err := s.resolveText(elementID)
	if err != nil {
		return nil, err
	}
	prior := s.links.Get(node)
	s.links.Clear(node)

	if prior != nil {
		s.record(ctx, journal.Entry{
			Action:     journal.ActionUnlink,
			SequenceID: prior.SequenceID,
			ElementID:  node.ID(),
			Value:      prior.StampedValue,
		})
	}
	return prior, nil
}

// Relink repairs a broken link by rewriting only the sequence reference,
// preserving the stamped value and timestamp.
func (s *Service) Relink(ctx context.Context, elementID, newSequenceID string) (*link.Link, error) {
	ctx, span := s.tracer.Start(ctx, "stamping.Relink",
		trace.WithAttributes(
			attribute.String("element_id", elementID),
			attribute.String("sequence_id", newSequenceID),
		))
	defer span.End()

	node, err := s.resolveText(elementID)
	if err != nil {
		return nil, err
	}
	if s.links.Get(node) == nil {
		return nil, apperror.NewValidation("element has no link to repair")
	}
	if _, err := s.store.Get(ctx, newSequenceID); err != nil {
		return nil, err
	}

	s.links.Relink(node, newSequenceID)
	repaired := s.links.Get(node)

	s.record(ctx, journal.Entry{
		Action:     journal.ActionRelink,
		SequenceID: newSequenceID,
		ElementID:  node.ID(),
		Value:      repaired.StampedValue,
	})
	return repaired, nil
}

// Reset moves the sequence's next value. Under compliance the requested
// value must strictly exceed the watermark; a denied reset leaves both
// nextValue and highestUsed untouched.
func (s *Service) Reset(ctx context.Context, sequenceID, value string) (*sequence.Sequence, error) {
	ctx, span := s.tracer.Start(ctx, "stamping.Reset",
		trace.WithAttributes(
			attribute.String("sequence_id", sequenceID),
			attribute.String("value", value),
		))
	defer span.End()

	seq, err := s.store.Get(ctx, sequenceID)
	if err != nil {
		return nil, err
	}
	if d := sequence.CanReset(seq, value); !d.Allowed {
		return nil, apperror.NewComplianceViolation(d.Reason)
	}
	if d := s.policyCheck(seq, sequence.OpReset, value, 0); !d.Allowed {
		return nil, apperror.NewComplianceViolation(d.Reason)
	}

	updated, err := s.store.Update(ctx, sequenceID, func(q *sequence.Sequence) error {
		q.NextValue = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, journal.Entry{
		Action:     journal.ActionReset,
		SequenceID: updated.ID,
		Value:      value,
	})
	return updated, nil
}

// DeleteSequence removes a sequence after the guard confirms no compliance
// obligation keeps it alive. The denial message carries the linked count.
func (s *Service) DeleteSequence(ctx context.Context, sequenceID string) error {
	ctx, span := s.tracer.Start(ctx, "stamping.DeleteSequence",
		trace.WithAttributes(attribute.String("sequence_id", sequenceID)))
	defer span.End()

	seq, err := s.store.Get(ctx, sequenceID)
	if err != nil {
		return err
	}
	linked := len(s.links.FindLinkedElements(sequenceID))
	if d := sequence.CanDelete(seq, linked); !d.Allowed {
		return apperror.NewComplianceViolation(d.Reason)
	}
	if d := s.policyCheckLinked(seq, sequence.OpDelete, "", 0, linked); !d.Allowed {
		return apperror.NewComplianceViolation(d.Reason)
	}

	if err := s.store.Delete(ctx, sequenceID); err != nil {
		return err
	}

	s.record(ctx, journal.Entry{
		Action:     journal.ActionDelete,
		SequenceID: sequenceID,
		Payload:    mustJSON(map[string]any{"name": seq.Name, "linked": linked}),
	})
	return nil
}

// CreateSequence persists a new sequence and journals its creation.
func (s *Service) CreateSequence(ctx context.Context, seq *sequence.Sequence) (*sequence.Sequence, error) {
	ctx, span := s.tracer.Start(ctx, "stamping.CreateSequence")
	defer span.End()

	created, err := s.store.Create(ctx, seq)
	if err != nil {
		return nil, err
	}
	s.record(ctx, journal.Entry{
		Action:     journal.ActionCreate,
		SequenceID: created.ID,
		Value:      created.FullValue(),
		Payload:    mustJSON(created),
	})
	return created, nil
}

// UpdateSequenceMeta renames a sequence and, when unlocked, changes its
// prefix. Nil fields are left as-is.
func (s *Service) UpdateSequenceMeta(ctx context.Context, sequenceID string, name, prefix, policyRule *string) (*sequence.Sequence, error) {
	return s.store.Update(ctx, sequenceID, func(q *sequence.Sequence) error {
		if prefix != nil && *prefix != q.Prefix {
			if d := sequence.CanChangePrefix(q); !d.Allowed {
				return apperror.NewComplianceViolation(d.Reason)
			}
			q.Prefix = *prefix
		}
		if name != nil {
			q.Name = *name
		}
		if policyRule != nil {
			q.PolicyRule = *policyRule
		}
		return nil
	})
}

func (s *Service) resolveText(elementID string) (document.TextNode, error) {
	node, ok := s.tree.NodeByID(elementID)
	if !ok {
		return nil, apperror.NewNotFound("element", elementID)
	}
	text, ok := node.(document.TextNode)
	if !ok {
		return nil, apperror.NewInvalidSelection("operation requires a text element").
			WithDetail("elementId", elementID).
			WithDetail("type", string(node.Type()))
	}
	return text, nil
}

func (s *Service) policyCheck(seq *sequence.Sequence, op sequence.Op, value string, duplicates int) sequence.Decision {
	linked := 0
	if seq.PolicyRule != "" {
		linked = len(s.links.FindLinkedElements(seq.ID))
	}
	return s.policyCheckLinked(seq, op, value, duplicates, linked)
}

func (s *Service) policyCheckLinked(seq *sequence.Sequence, op sequence.Op, value string, duplicates, linked int) sequence.Decision {
	return sequence.EvaluateRule(seq, sequence.RuleInput{
		Op:         op,
		Value:      value,
		Duplicates: duplicates,
		Linked:     linked,
	})
}

// record appends to the journal best-effort: a journaling failure is logged
// but never fails the already-completed operation.
func (s *Service) record(ctx context.Context, entry journal.Entry) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "journal write failed",
			"action", string(entry.Action),
			"sequence_id", entry.SequenceID,
			"error", err,
		)
	}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
