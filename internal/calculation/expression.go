package calculation

import (
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	apierrors "excelcleaner/internal/errors"
	"excelcleaner/internal/table"
)

// rowEnv is the evaluation environment of a custom rule. Expressions see
// the current row through the row map, and column(name) which returns a
// column's non-null values. Nothing else from the host is reachable.
type rowEnv map[string]any

func compileEnv() rowEnv {
	return rowEnv{
		"row":    map[string]any{},
		"column": func(string) ([]any, error) { return nil, nil },
	}
}

// columnRefs rewrites a bare column name into row["name"]. Cells are only
// typed at run time, so the checker must see every column reference as a
// dynamic row lookup rather than as an untyped identifier.
type columnRefs map[string]bool

func (c columnRefs) Visit(node *ast.Node) {
	ident, ok := (*node).(*ast.IdentifierNode)
	if !ok || !c[ident.Value] {
		return
	}
	ast.Patch(node, &ast.MemberNode{
		Node:     &ast.IdentifierNode{Value: "row"},
		Property: &ast.StringNode{Value: ident.Value},
	})
}

// compileExpression type-checks the expression against the columns that
// will exist when it runs. Names that are neither columns nor builtins
// fail here.
func compileExpression(source string, columns []string) (*vm.Program, error) {
	env := compileEnv()
	refs := make(columnRefs, len(columns))
	for _, c := range columns {
		if _, reserved := env[c]; !reserved {
			refs[c] = true
		}
	}
	return expr.Compile(source, expr.Env(map[string]any(env)), expr.Patch(refs))
}

// evalExpression runs program once per row of t.
func evalExpression(rule Rule, program *vm.Program, t *table.Table) (*table.Column, error) {
	names := t.ColumnNames()
	columnCache := make(map[string][]any)
	column := func(name string) ([]any, error) {
		if vals, ok := columnCache[name]; ok {
			return vals, nil
		}
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		vals := make([]any, 0, col.Len())
		for _, v := range col.Values() {
			if !v.IsNull() {
				vals = append(vals, v.Interface())
			}
		}
		columnCache[name] = vals
		return vals, nil
	}

	out := make([]table.Value, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		row := make(map[string]any, len(names))
		for j, v := range t.Row(i) {
			row[names[j]] = v.Interface()
		}

		res, err := expr.Run(program, map[string]any(rowEnv{"row": row, "column": column}))
		if err != nil {
			return nil, rowError(rule, i, err)
		}
		val, err := scalar(res)
		if err != nil {
			return nil, rowError(rule, i, err)
		}
		out[i] = val
	}
	return table.NewColumn(rule.Name, out), nil
}

func rowError(rule Rule, row int, err error) error {
	return apierrors.NewComputationError(
		fmt.Sprintf("Error in custom function %s at row %d", rule.Name, row), err).
		WithContext("rule", rule.Name).
		WithContext("row", row)
}

// scalar converts an expression result into a cell.
func scalar(res any) (table.Value, error) {
	if d, ok := res.(time.Duration); ok {
		return table.Float(d.Seconds()), nil
	}
	v, err := table.FromAny(res)
	if err != nil {
		return table.Null(), fmt.Errorf("custom function must produce a scalar: %w", err)
	}
	return v, nil
}
