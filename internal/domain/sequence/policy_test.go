package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRule(t *testing.T) {
	require.NoError(t, CompileRule(`op == "reset"`))
	require.NoError(t, CompileRule(`duplicates > 0 && locked`))

	assert.Error(t, CompileRule(`op ==`), "syntax error")
	assert.Error(t, CompileRule(`unknownVar == "x"`), "unknown variable")
	assert.Error(t, CompileRule(`"just a string"`), "non-bool output")
}

func TestEvaluateRule(t *testing.T) {
	seq := &Sequence{
		Name:        "Invoices",
		Prefix:      "INV-",
		Type:        TypeNumber,
		Mode:        ModeDesign,
		NextValue:   "10",
		HighestUsed: "9",
	}

	t.Run("empty rule allows", func(t *testing.T) {
		d := EvaluateRule(seq, RuleInput{Op: OpStamp})
		assert.True(t, d.Allowed)
	})

	t.Run("false rule allows", func(t *testing.T) {
		seq := *seq
		seq.PolicyRule = `op == "delete"`
		d := EvaluateRule(&seq, RuleInput{Op: OpStamp})
		assert.True(t, d.Allowed)
	})

	t.Run("true rule denies", func(t *testing.T) {
		seq := *seq
		seq.PolicyRule = `op == "reset" && value < nextValue`
		d := EvaluateRule(&seq, RuleInput{Op: OpReset, Value: "05"})
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "Invoices")
	})

	t.Run("sequence fields are visible", func(t *testing.T) {
		seq := *seq
		seq.PolicyRule = `prefix == "INV-" && mode == "design"`
		d := EvaluateRule(&seq, RuleInput{Op: OpStamp})
		assert.False(t, d.Allowed)
	})

	t.Run("linked and duplicates are visible", func(t *testing.T) {
		seq := *seq
		seq.PolicyRule = `op == "delete" && linked > 5`
		assert.True(t, EvaluateRule(&seq, RuleInput{Op: OpDelete, Linked: 5}).Allowed)
		assert.False(t, EvaluateRule(&seq, RuleInput{Op: OpDelete, Linked: 6}).Allowed)
	})

	t.Run("broken rule fails closed", func(t *testing.T) {
		seq := *seq
		seq.PolicyRule = `op ==`
		d := EvaluateRule(&seq, RuleInput{Op: OpStamp})
		assert.False(t, d.Allowed)
	})
}
