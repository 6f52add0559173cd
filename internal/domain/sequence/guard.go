package sequence

import (
	"fmt"

	"sequor/internal/core/increment"
)

// Op names a guarded operation, as seen by policy rules.
type Op string

const (
	OpStamp        Op = "stamp"
	OpRestamp      Op = "restamp"
	OpDelete       Op = "delete"
	OpReset        Op = "reset"
	OpPrefixChange Op = "prefix-change"
)

// Decision is the outcome of a guard check. Reason is human-readable and
// set only on denial.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// CanDelete gates sequence deletion. A compliance sequence with stamped
// elements must remain traceable, so deletion is denied while any element
// still links to it.
func CanDelete(seq *Sequence, linkedCount int) Decision {
	if seq.Mode != ModeCompliance {
		return allow()
	}
	if linkedCount > 0 {
		return deny("compliance sequence %q has %d stamped element(s) and cannot be deleted", seq.Name, linkedCount)
	}
	return allow()
}

// CanRestamp gates overwriting an element that already carries a stamped
// value. A single canonical compliance value must never be overwritten;
// when the value is currently duplicated elsewhere (copy/paste twins),
// re-stamping is the disambiguation path and is allowed.
func CanRestamp(seq *Sequence, duplicateCount int) Decision {
	if seq.Mode != ModeCompliance {
		return allow()
	}
	if duplicateCount == 0 {
		return deny("element already carries a unique compliance value issued by %q; re-stamping would re-number it", seq.Name)
	}
	return allow()
}

// CanReset gates moving the next value. The requested value must be
// syntactically valid for the sequence type in both modes; under
// compliance it must additionally exceed the watermark strictly.
func CanReset(seq *Sequence, value string) Decision {
	if !increment.ValidValue(value, seq.Kind()) {
		return deny("%q is not a valid %s value", value, seq.Type)
	}
	if seq.Mode != ModeCompliance {
		return allow()
	}
	if seq.HighestUsed != "" && increment.Compare(value, seq.HighestUsed, seq.Kind()) <= 0 {
		return deny("reset value %q must be greater than the highest issued value %q", value, seq.HighestUsed)
	}
	return allow()
}

// CanChangePrefix gates prefix edits. Locked is the durable signal that a
// compliance sequence has issued at least one value.
func CanChangePrefix(seq *Sequence) Decision {
	if seq.Locked {
		return deny("sequence %q is locked; issued identifiers pin its prefix", seq.Name)
	}
	return allow()
}
