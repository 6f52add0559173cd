package sequence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"sequor/internal/core/apperror"
	"sequor/internal/core/id"
	"sequor/internal/core/increment"
	"sequor/pkg/logger"
)

// SchemaVersion is the current persisted schema version.
//
// History:
//
//	v0: one global counter under the legacy key, no sequence objects
//	v1: sequence objects with a "value" field, no mode/watermark/lock
//	v2: current, nextValue, mode, highestUsed, locked, createdAt
const SchemaVersion = 2

// Migrate upgrades persisted state to the current schema version. Running
// it when already current is a no-op, so it is safe on every startup.
func (s *Store) Migrate(ctx context.Context) error {
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version >= SchemaVersion {
		return nil
	}

	raw, ok, err := s.kv.Get(ctx, keySequences)
	if err != nil {
		return apperror.NewStorage(err)
	}

	var upgraded []*Sequence
	switch {
	case ok && raw != "":
		var records []map[string]any
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			logger.Warn(ctx, "persisted sequence collection is corrupt, migration starts empty",
				"error", err,
			)
			break
		}
		for _, rec := range records {
			upgraded = append(upgraded, upgradeRecord(rec))
		}
	default:
		// The single-counter format predates sequence objects. Convert it
		// only when no sequences exist yet.
		if legacy, found, err := s.kv.Get(ctx, keyLegacyCounter); err == nil && found {
			upgraded = append(upgraded, legacyCounterSequence(legacy))
		}
	}

	if err := s.save(ctx, upgraded); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, keySchemaVersion, strconv.Itoa(SchemaVersion)); err != nil {
		return apperror.NewStorage(err)
	}

	logger.Info(ctx, "sequence schema migrated",
		"from_version", version,
		"to_version", SchemaVersion,
		"sequences", len(upgraded),
	)
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	raw, ok, err := s.kv.Get(ctx, keySchemaVersion)
	if err != nil {
		return 0, apperror.NewStorage(err)
	}
	if !ok {
		return 0, nil
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return version, nil
}

// upgradeRecord lifts a v1 (or already-v2) loosely-typed record into the
// current schema. Pure and total: any record yields a usable sequence.
//
// v1 -> v2: rename value -> nextValue, default mode to compliance, seed
// highestUsed from the prior value, locked false, createdAt now.
func upgradeRecord(rec map[string]any) *Sequence {
	seq := &Sequence{
		ID:     stringField(rec, "id"),
		Name:   stringField(rec, "name"),
		Prefix: stringField(rec, "prefix"),
		Type:   Type(stringField(rec, "type")),
	}
	if seq.ID == "" {
		seq.ID = id.NewString()
	}
	if seq.Type != TypeNumber && seq.Type != TypeLetter {
		seq.Type = TypeNumber
	}

	priorValue := stringField(rec, "value")

	if next := stringField(rec, "nextValue"); next != "" {
		seq.NextValue = next
	} else {
		seq.NextValue = priorValue
	}
	if !increment.ValidValue(seq.NextValue, seq.Kind()) {
		seq.NextValue = ZeroValue(seq.Type)
	}

	if mode := Mode(stringField(rec, "mode")); mode == ModeCompliance || mode == ModeDesign {
		seq.Mode = mode
	} else {
		seq.Mode = ModeCompliance
	}

	if highest := stringField(rec, "highestUsed"); increment.ValidValue(highest, seq.Kind()) {
		seq.HighestUsed = highest
	} else if increment.ValidValue(priorValue, seq.Kind()) {
		seq.HighestUsed = priorValue
	}

	if locked, ok := rec["locked"].(bool); ok {
		seq.Locked = locked
	}

	if created := stringField(rec, "createdAt"); created != "" {
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			seq.CreatedAt = t
		}
	}
	if seq.CreatedAt.IsZero() {
		seq.CreatedAt = time.Now().UTC()
	}

	seq.PolicyRule = stringField(rec, "policyRule")
	return seq
}

// legacyCounterSequence converts the v0 global counter into one default
// numeric sequence carrying the counter as its next value.
func legacyCounterSequence(counter string) *Sequence {
	next := counter
	if !increment.ValidNumber(next) {
		next = ZeroValue(TypeNumber)
	}
	return &Sequence{
		ID:        id.NewString(),
		Name:      "Default",
		Type:      TypeNumber,
		NextValue: next,
		Mode:      ModeCompliance,
		CreatedAt: time.Now().UTC(),
	}
}

func stringField(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}
