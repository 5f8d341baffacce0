// Package rules provides the CEL-Go based factor rules that explain a score.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Variables available to factor rule expressions.
const (
	VarNetMonthlyIncome       = "net_monthly_income"
	VarDebtRatio              = "debt_ratio"
	VarEmploymentTenureYears  = "employment_tenure_years"
	VarDocumentsComplete      = "documents_complete"
	VarWalletAgeYears         = "wallet_age_years"
	VarTransactionCount       = "transaction_count"
	VarProtocolTenureYears    = "protocol_tenure_years"
	VarTotalLoansCount        = "total_loans_count"
	VarLoansRepaidOnTimeCount = "loans_repaid_on_time_count"
	VarLatePaymentsCount      = "late_payments_count"
	VarReferenceIncome        = "reference_income"
)

// FactorRule turns one aspect of a borrower profile into at most one
// explanatory message. Favorable is checked first; Unfavorable only when
// Favorable did not fire.
type FactorRule struct {
	ID          string  `json:"id" yaml:"id"`
	Favorable   *Clause `json:"favorable,omitempty" yaml:"favorable,omitempty"`
	Unfavorable *Clause `json:"unfavorable,omitempty" yaml:"unfavorable,omitempty"`
}

// Clause is a boolean CEL predicate and the message emitted when it holds.
// If Arg is set, its variable value replaces the %s verb in Message.
type Clause struct {
	Expression string `json:"expression" yaml:"expression"`
	Message    string `json:"message" yaml:"message"`
	Arg        string `json:"arg,omitempty" yaml:"arg,omitempty"`
}

// FactorEngine holds compiled factor rules in evaluation order.
// It is immutable after construction and safe for concurrent use.
type FactorEngine struct {
	rules    []FactorRule
	compiled []compiledRule
}

type compiledRule struct {
	favorable   cel.Program
	unfavorable cel.Program
}

// NewFactorEngine compiles the given rules. Order is preserved.
func NewFactorEngine(factorRules []FactorRule) (*FactorEngine, error) {
	env, err := newEnv()
	if err != nil {
		return nil, err
	}

	e := &FactorEngine{
		rules:    make([]FactorRule, len(factorRules)),
		compiled: make([]compiledRule, len(factorRules)),
	}
	copy(e.rules, factorRules)

	for i, r := range factorRules {
		if r.Favorable == nil && r.Unfavorable == nil {
			return nil, fmt.Errorf("factor rule %s has no clause", r.ID)
		}
		if r.Favorable != nil {
			prg, err := compileClause(env, r.ID, r.Favorable)
			if err != nil {
				return nil, err
			}
			e.compiled[i].favorable = prg
		}
		if r.Unfavorable != nil {
			prg, err := compileClause(env, r.ID, r.Unfavorable)
			if err != nil {
				return nil, err
			}
			e.compiled[i].unfavorable = prg
		}
	}

	return e, nil
}

func newEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(VarNetMonthlyIncome, cel.DoubleType),
		cel.Variable(VarDebtRatio, cel.DoubleType),
		cel.Variable(VarEmploymentTenureYears, cel.DoubleType),
		cel.Variable(VarDocumentsComplete, cel.BoolType),
		cel.Variable(VarWalletAgeYears, cel.DoubleType),
		cel.Variable(VarTransactionCount, cel.IntType),
		cel.Variable(VarProtocolTenureYears, cel.DoubleType),
		cel.Variable(VarTotalLoansCount, cel.IntType),
		cel.Variable(VarLoansRepaidOnTimeCount, cel.IntType),
		cel.Variable(VarLatePaymentsCount, cel.IntType),
		cel.Variable(VarReferenceIncome, cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

func compileClause(env *cel.Env, ruleID string, c *Clause) (cel.Program, error) {
	ast, issues := env.Compile(c.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile factor rule %s: %w", ruleID, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("factor rule %s: expression must return bool, got %s", ruleID, ast.OutputType())
	}
	if c.Arg != "" && !strings.Contains(c.Message, "%s") {
		return nil, fmt.Errorf("factor rule %s: message must contain %%s when arg is set", ruleID)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for factor rule %s: %w", ruleID, err)
	}
	return prg, nil
}

// Evaluate runs every rule in order against vars and returns the messages
// of the clauses that fired. A clause that fails to evaluate does not fire.
// Both returned slices are non-nil.
func (e *FactorEngine) Evaluate(vars map[string]any) (favorable, unfavorable []string) {
	favorable = make([]string, 0, len(e.rules))
	unfavorable = make([]string, 0, len(e.rules))

	for i, r := range e.rules {
		c := e.compiled[i]
		if c.favorable != nil && holds(c.favorable, vars) {
			favorable = append(favorable, render(r.Favorable, vars))
			continue
		}
		if c.unfavorable != nil && holds(c.unfavorable, vars) {
			unfavorable = append(unfavorable, render(r.Unfavorable, vars))
		}
	}

	return favorable, unfavorable
}

// Rules returns a copy of the loaded rules in evaluation order.
func (e *FactorEngine) Rules() []FactorRule {
	out := make([]FactorRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// RulesCount returns the number of loaded rules.
func (e *FactorEngine) RulesCount() int {
	return len(e.rules)
}

func holds(prg cel.Program, vars map[string]any) bool {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false
	}
	b, ok := out.(types.Bool)
	return ok && bool(b)
}

func render(c *Clause, vars map[string]any) string {
	if c.Arg == "" {
		return c.Message
	}
	return fmt.Sprintf(c.Message, formatNumber(vars[c.Arg]))
}

// formatNumber prints the shortest decimal form, so 5.0 renders as "5".
func formatNumber(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	default:
		return fmt.Sprint(v)
	}
}
