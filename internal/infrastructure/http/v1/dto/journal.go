package dto

import (
	"time"

	"sequor/internal/domain/journal"
)

// JournalQuery narrows a journal listing.
type JournalQuery struct {
	SequenceID string `form:"sequenceId"`
	ElementID  string `form:"elementId"`
	Action     string `form:"action"`
	From       string `form:"from"` // RFC 3339
	To         string `form:"to"`   // RFC 3339
	Limit      int    `form:"limit"`
}

// ToFilter converts the query to a journal filter.
func (q *JournalQuery) ToFilter() (journal.Filter, error) {
	f := journal.Filter{
		SequenceID: q.SequenceID,
		ElementID:  q.ElementID,
		Action:     journal.Action(q.Action),
		Limit:      q.Limit,
	}
	if q.From != "" {
		t, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			return f, err
		}
		f.From = t
	}
	if q.To != "" {
		t, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			return f, err
		}
		f.To = t
	}
	return f, nil
}
