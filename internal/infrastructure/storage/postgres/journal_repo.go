package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"sequor/internal/domain/journal"
)

// JournalRepo is the PostgreSQL journal backend.
type JournalRepo struct {
	pool       *pgxpool.Pool
	documentID string
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS stamp_journal (
	id                 UUID PRIMARY KEY,
	document_id        TEXT NOT NULL,
	action             TEXT NOT NULL,
	sequence_id        TEXT NOT NULL,
	element_id         TEXT NOT NULL DEFAULT '',
	value              TEXT NOT NULL DEFAULT '',
	payload            JSONB,
	payload_compressed BYTEA,
	compression_algo   TEXT NOT NULL DEFAULT 'none',
	created_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS stamp_journal_doc_seq_idx
	ON stamp_journal (document_id, sequence_id, created_at DESC);`

var journalColumns = []string{
	"id", "action", "sequence_id", "element_id", "value",
	"payload", "payload_compressed", "compression_algo", "created_at",
}

// NewJournalRepo creates the journal repo and its schema on the shared pool.
func NewJournalRepo(ctx context.Context, pool *pgxpool.Pool, documentID string) (*JournalRepo, error) {
	if _, err := pool.Exec(ctx, journalSchema); err != nil {
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &JournalRepo{pool: pool, documentID: documentID}, nil
}

func (r *JournalRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Insert implements journal.Repository.
func (r *JournalRepo) Insert(ctx context.Context, entry *journal.Entry) error {
	q := r.builder().
		Insert("stamp_journal").
		SetMap(map[string]any{
			"id":                 entry.ID,
			"document_id":        r.documentID,
			"action":             string(entry.Action),
			"sequence_id":        entry.SequenceID,
			"element_id":         entry.ElementID,
			"value":              entry.Value,
			"payload":            entry.Payload,
			"payload_compressed": entry.PayloadCompressed,
			"compression_algo":   string(entry.CompressionAlgo),
			"created_at":         entry.CreatedAt,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// List implements journal.Repository. Newest first.
func (r *JournalRepo) List(ctx context.Context, f journal.Filter) ([]*journal.Entry, error) {
	q := r.builder().
		Select(journalColumns...).
		From("stamp_journal").
		Where(squirrel.Eq{"document_id": r.documentID}).
		OrderBy("created_at DESC")

	if f.SequenceID != "" {
		q = q.Where(squirrel.Eq{"sequence_id": f.SequenceID})
	}
	if f.ElementID != "" {
		q = q.Where(squirrel.Eq{"element_id": f.ElementID})
	}
	if f.Action != "" {
		q = q.Where(squirrel.Eq{"action": string(f.Action)})
	}
	if !f.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"created_at": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"created_at": f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*journal.Entry
	if err := pgxscan.Select(ctx, r.pool, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return entries, nil
}
