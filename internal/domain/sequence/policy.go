package sequence

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// Custom policy rules let operators tighten the guard beyond the built-in
// predicates. A rule is a CEL expression attached to a sequence; it is
// evaluated for every guarded operation and DENIES the operation when it
// evaluates to true. Rules can only deny, never re-allow what the built-in
// guard already denied.
//
// Example: deny resets past a hard ceiling regardless of mode:
//
//	op == "reset" && value > "9000"

// RuleInput is the operation context a policy rule sees.
type RuleInput struct {
	Op         Op
	Value      string // requested value (reset) or stamped value (stamp/restamp)
	Duplicates int    // duplicate count of the stamped value
	Linked     int    // elements currently linked to the sequence
}

var (
	ruleEnvOnce sync.Once
	ruleEnv     *cel.Env
	ruleEnvErr  error
)

func policyEnv() (*cel.Env, error) {
	ruleEnvOnce.Do(func() {
		ruleEnv, ruleEnvErr = cel.NewEnv(
			cel.Variable("op", cel.StringType),
			cel.Variable("mode", cel.StringType),
			cel.Variable("type", cel.StringType),
			cel.Variable("name", cel.StringType),
			cel.Variable("prefix", cel.StringType),
			cel.Variable("nextValue", cel.StringType),
			cel.Variable("highestUsed", cel.StringType),
			cel.Variable("locked", cel.BoolType),
			cel.Variable("value", cel.StringType),
			cel.Variable("duplicates", cel.IntType),
			cel.Variable("linked", cel.IntType),
		)
	})
	return ruleEnv, ruleEnvErr
}

// CompileRule checks that expr compiles against the policy environment and
// evaluates to bool. Used at sequence create/update time so bad rules are
// rejected before they can block operations.
func CompileRule(expr string) error {
	env, err := policyEnv()
	if err != nil {
		return fmt.Errorf("policy environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return fmt.Errorf("policy rule must evaluate to bool, got %s", ast.OutputType())
	}
	return nil
}

// EvaluateRule runs the sequence's policy rule, if any, against the
// operation. A rule that fails to evaluate denies the operation; guard
// rules fail closed.
func EvaluateRule(seq *Sequence, in RuleInput) Decision {
	if seq.PolicyRule == "" {
		return allow()
	}

	env, err := policyEnv()
	if err != nil {
		return deny("policy rule unavailable: %v", err)
	}
	ast, issues := env.Compile(seq.PolicyRule)
	if issues != nil && issues.Err() != nil {
		return deny("policy rule does not compile: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return deny("policy rule does not compile: %v", err)
	}

	out, _, err := prg.Eval(map[string]any{
		"op":          string(in.Op),
		"mode":        string(seq.Mode),
		"type":        string(seq.Type),
		"name":        seq.Name,
		"prefix":      seq.Prefix,
		"nextValue":   seq.NextValue,
		"highestUsed": seq.HighestUsed,
		"locked":      seq.Locked,
		"value":       in.Value,
		"duplicates":  in.Duplicates,
		"linked":      in.Linked,
	})
	if err != nil {
		return deny("policy rule evaluation failed: %v", err)
	}
	if denied, ok := out.Value().(bool); ok && denied {
		return deny("denied by policy rule on sequence %q", seq.Name)
	}
	return allow()
}
