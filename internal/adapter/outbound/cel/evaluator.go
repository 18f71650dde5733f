// Package cel provides the CEL evaluator for custom policy rules.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
)

// maxExpressionLength bounds rule expression size.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit, guarding against
// cost-exhaustion from pathological expressions.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout bounds a single rule evaluation.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// Evaluator compiles and evaluates custom policy rule expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the booking-rule environment.
func NewEvaluator() (*Evaluator, error) {
	env, err := NewRuleEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create rule environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Compile parses and type-checks a rule expression, returning a compiled
// program ready for repeated evaluation.
func (e *Evaluator) Compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}
	return prg, nil
}

// ValidateExpression checks that a rule expression is syntactically valid
// and within the safety limits. Called before persisting policies so an
// invalid expression cannot poison the policy store.
func (e *Evaluator) ValidateExpression(expr string) error {
	if expr == "" {
		return errors.New("expression is empty")
	}
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	if err := validateNesting(expr); err != nil {
		return err
	}
	if _, err := e.Compile(expr); err != nil {
		return fmt.Errorf("invalid rule expression: %w", err)
	}
	return nil
}

// Evaluate runs a compiled rule against the given input. Returns true when
// the expression flags the request.
func (e *Evaluator) Evaluate(prg cel.Program, in RuleInput) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, BuildActivation(in))
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}

	boolResult, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}
	return boolResult, nil
}

// validateNesting checks parenthesis/bracket/brace nesting depth.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}
