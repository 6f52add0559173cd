// Package journal keeps the traceability record of identifier issuance:
// one entry per stamp, unlink, relink, reset and sequence deletion. The
// journal is append-only; compliance reviews read it, nothing rewrites it.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"sequor/internal/core/id"
)

// Action is the journaled operation type.
type Action string

const (
	ActionStamp   Action = "stamp"
	ActionRestamp Action = "restamp"
	ActionUnlink  Action = "unlink"
	ActionRelink  Action = "relink"
	ActionReset   Action = "reset"
	ActionCreate  Action = "create"
	ActionDelete  Action = "delete"
)

// CompressionAlgo specifies the payload compression used for an entry.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Entry is a single journal record.
type Entry struct {
	ID                id.ID           `db:"id" json:"id"`
	Action            Action          `db:"action" json:"action"`
	SequenceID        string          `db:"sequence_id" json:"sequenceId"`
	ElementID         string          `db:"element_id" json:"elementId,omitempty"`
	Value             string          `db:"value" json:"value,omitempty"`
	Payload           json.RawMessage `db:"payload" json:"payload,omitempty"`
	PayloadCompressed []byte          `db:"payload_compressed" json:"-"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
}

// Filter narrows a journal listing. Zero fields match everything.
type Filter struct {
	SequenceID string
	ElementID  string
	Action     Action
	From       time.Time
	To         time.Time
	Limit      int
}

// Repository stores journal entries.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	List(ctx context.Context, f Filter) ([]*Entry, error)
}

// Service records and lists journal entries, compressing large payloads.
type Service struct {
	repo              Repository
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewService creates a journal service over the given repository.
func NewService(repo Repository) (*Service, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Service{
		repo:              repo,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// Record appends an entry, assigning id and timestamp when unset and
// compressing payloads above the threshold.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Payload) > s.compressThreshold {
		entry.PayloadCompressed = s.encoder.EncodeAll(entry.Payload, nil)
		entry.Payload = nil
		entry.CompressionAlgo = CompressionZstd
	}

	return s.repo.Insert(ctx, &entry)
}

// List returns matching entries, newest first, payloads decompressed.
func (s *Service) List(ctx context.Context, f Filter) ([]*Entry, error) {
	entries, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.CompressionAlgo != CompressionZstd {
			continue
		}
		raw, err := s.decoder.DecodeAll(entry.PayloadCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress journal payload %s: %w", entry.ID, err)
		}
		entry.Payload = raw
		entry.PayloadCompressed = nil
		entry.CompressionAlgo = CompressionNone
	}
	return entries, nil
}
