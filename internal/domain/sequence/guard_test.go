package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanDelete(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		linked  int
		allowed bool
	}{
		{"design with links", ModeDesign, 3, true},
		{"design without links", ModeDesign, 0, true},
		{"compliance without links", ModeCompliance, 0, true},
		{"compliance with links", ModeCompliance, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := &Sequence{Name: "Invoices", Type: TypeNumber, Mode: tt.mode}
			d := CanDelete(seq, tt.linked)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.Contains(t, d.Reason, "Invoices")
				assert.Contains(t, d.Reason, "1 stamped element")
			}
		})
	}
}

func TestCanRestamp(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		duplicates int
		allowed    bool
	}{
		{"design unique value", ModeDesign, 0, true},
		{"design duplicated value", ModeDesign, 2, true},
		{"compliance unique value", ModeCompliance, 0, false},
		{"compliance duplicated value", ModeCompliance, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := &Sequence{Name: "Invoices", Type: TypeNumber, Mode: tt.mode}
			d := CanRestamp(seq, tt.duplicates)
			assert.Equal(t, tt.allowed, d.Allowed)
		})
	}
}

func TestCanReset(t *testing.T) {
	tests := []struct {
		name    string
		seq     *Sequence
		value   string
		allowed bool
	}{
		{
			"design backwards",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeDesign, HighestUsed: "50"},
			"10", true,
		},
		{
			"compliance forwards",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeCompliance, HighestUsed: "50"},
			"51", true,
		},
		{
			"compliance equal to watermark",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeCompliance, HighestUsed: "50"},
			"50", false,
		},
		{
			"compliance backwards",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeCompliance, HighestUsed: "50"},
			"10", false,
		},
		{
			"compliance nothing issued yet",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeCompliance},
			"0", true,
		},
		{
			"compliance padded comparison is numeric",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeCompliance, HighestUsed: "0099"},
			"100", true,
		},
		{
			"letter length beats lexicographic",
			&Sequence{Name: "n", Type: TypeLetter, Mode: ModeCompliance, HighestUsed: "Z"},
			"AA", true,
		},
		{
			"letter backwards",
			&Sequence{Name: "n", Type: TypeLetter, Mode: ModeCompliance, HighestUsed: "AA"},
			"Z", false,
		},
		{
			"syntactically invalid in design mode",
			&Sequence{Name: "n", Type: TypeNumber, Mode: ModeDesign},
			"12a", false,
		},
		{
			"wrong alphabet for type",
			&Sequence{Name: "n", Type: TypeLetter, Mode: ModeDesign},
			"42", false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanReset(tt.seq, tt.value)
			assert.Equal(t, tt.allowed, d.Allowed, d.Reason)
		})
	}
}

func TestCanChangePrefix(t *testing.T) {
	unlocked := &Sequence{Name: "Invoices", Mode: ModeCompliance}
	assert.True(t, CanChangePrefix(unlocked).Allowed)

	locked := &Sequence{Name: "Invoices", Mode: ModeCompliance, Locked: true}
	d := CanChangePrefix(locked)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "locked")
}
