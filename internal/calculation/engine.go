package calculation

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/vm"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// Applied records one successfully applied rule.
type Applied struct {
	Name      string    `json:"name"`
	Operation Operation `json:"operation"`
	Columns   []string  `json:"columns"`
	Details   string    `json:"details"`
}

// Result is the outcome of Engine.Apply. On failure Table is nil and no
// rule's output is kept.
type Result struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	ColumnsAdded []string  `json:"columns_added"`
	Applied      []Applied `json:"applied,omitempty"`
	Error        string    `json:"error,omitempty"`

	Table *table.Table `json:"-"`
	Err   error        `json:"-"`
}

// Engine applies calculation rules to tables. It holds no per-call state
// and is safe for concurrent use.
type Engine struct {
	allowCustom bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCustomExpressions enables or disables custom rules.
func WithCustomExpressions(allowed bool) Option {
	return func(e *Engine) { e.allowCustom = allowed }
}

// NewEngine returns an engine. Custom expressions stay disabled unless
// enabled with WithCustomExpressions.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply runs rules in order against t. Each rule's output column is
// visible to the rules after it. All rules are validated before any runs;
// the first computation failure discards every rule's output.
func (e *Engine) Apply(t *table.Table, rules []Rule) Result {
	programs, err := e.validate(t, rules)
	if err != nil {
		return failure(err)
	}

	out := t
	applied := make([]Applied, 0, len(rules))
	for i, rule := range rules {
		col, err := e.compute(out, rule, programs[i])
		if err != nil {
			return failure(err)
		}
		out, err = out.WithColumn(col)
		if err != nil {
			return failure(err)
		}
		applied = append(applied, Applied{
			Name:      rule.Name,
			Operation: rule.Operation,
			Columns:   rule.Columns,
			Details:   rule.describe(),
		})
	}

	added := make([]string, 0, len(rules))
	seen := make(map[string]bool, len(rules))
	for _, rule := range rules {
		if t.Has(rule.Name) || seen[rule.Name] {
			continue
		}
		seen[rule.Name] = true
		added = append(added, rule.Name)
	}

	return Result{
		Success:      true,
		Message:      fmt.Sprintf("Successfully applied %d calculation(s)", len(rules)),
		ColumnsAdded: added,
		Applied:      applied,
		Table:        out,
	}
}

func failure(err error) Result {
	detail := err.Error()
	if appErr, ok := apierrors.AsAppError(err); ok {
		detail = appErr.Detail()
	}
	return Result{
		Success:      false,
		Message:      "Error applying calculations: " + detail,
		ColumnsAdded: []string{},
		Error:        detail,
		Err:          err,
	}
}

// validate checks every rule against the columns that will exist when it
// runs and compiles custom expressions. Every violation is reported.
func (e *Engine) validate(t *table.Table, rules []Rule) ([]*vm.Program, error) {
	var violations []apierrors.ValidationError
	programs := make([]*vm.Program, len(rules))

	available := make(map[string]bool, t.NumCols()+len(rules))
	order := t.ColumnNames()
	for _, name := range order {
		available[name] = true
	}

	for i, rule := range rules {
		field := fmt.Sprintf("calculations[%d]", i)
		structural := rule.violations(field, e.allowCustom)
		violations = append(violations, structural...)

		var missing []string
		for _, c := range rule.Columns {
			if !available[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			violations = append(violations, apierrors.Violation(field+".columns",
				"Columns not found: "+strings.Join(missing, ", ")))
		}

		if rule.Operation == OpCustom && len(structural) == 0 {
			program, err := compileExpression(rule.Expression, order)
			if err != nil {
				violations = append(violations, apierrors.Violation(field+".custom_function",
					"Error in custom function: "+err.Error()))
			}
			programs[i] = program
		}

		if rule.Name != "" && !available[rule.Name] {
			available[rule.Name] = true
			order = append(order, rule.Name)
		}
	}

	if len(violations) > 0 {
		return nil, apierrors.NewAppValidationError("Invalid calculation rules", violations...)
	}
	return programs, nil
}

func (e *Engine) compute(t *table.Table, rule Rule, program *vm.Program) (*table.Column, error) {
	cols := make([]*table.Column, len(rule.Columns))
	for i, name := range rule.Columns {
		cols[i], _ = t.Column(name)
	}

	switch rule.Operation {
	case OpSum:
		return sumColumns(rule, cols)
	case OpCount:
		return countColumns(rule, cols), nil
	case OpCountIf:
		return countIf(rule, cols[0])
	case OpSumIf:
		return sumIf(rule, cols[0], cols[1])
	case OpIf:
		return ifThenElse(rule, cols[0])
	case OpCustom:
		return evalExpression(rule, program, t)
	}
	return nil, apierrors.NewAppValidationError("Invalid calculation rules",
		apierrors.Violation("operation", fmt.Sprintf("Unsupported operation: %s", rule.Operation)))
}
