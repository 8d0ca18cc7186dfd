/*
Copyright © 2024 the tapioca authors.
This file is part of tapioca.

tapioca is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

tapioca is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with tapioca.  If not, see <http://www.gnu.org/licenses/>.
*/

package tapioca

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// derivedFuncs are the functions available in derived variable expressions.
var derivedFuncs = map[string]govaluate.ExpressionFunction{
	"exp":   mathFunc("exp", math.Exp),
	"sqrt":  mathFunc("sqrt", math.Sqrt),
	"abs":   mathFunc("abs", math.Abs),
	"log10": mathFunc("log10", math.Log10),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("tapioca: got %d arguments for function 'pow', but needs 2", len(args))
		}
		x, ok1 := args[0].(float64)
		y, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("tapioca: function 'pow' needs numeric arguments")
		}
		return math.Pow(x, y), nil
	},
}

func mathFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("tapioca: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("tapioca: function '%s' needs a numeric argument", name)
		}
		return f(x), nil
	}
}

// Derive adds variables calculated from the existing data variables.
// The keys of exprs are the names of the new variables and the values
// are expressions evaluated element by element, for example:
//
//	"speed": "sqrt(velocity_x**2 + velocity_z**2)"
//
// The functions exp, sqrt, abs, log10 and pow are available. Every
// variable in an expression must have the same dimensions. Derived
// variables may refer to each other as long as there is no cycle.
func (d *Dataset) Derive(exprs map[string]string) error {
	parsed := make(map[string]*govaluate.EvaluableExpression, len(exprs))
	names := make([]string, 0, len(exprs))
	for name, expr := range exprs {
		if _, ok := d.Data[name]; ok {
			return fmt.Errorf("tapioca: derived variable %s already exists", name)
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, derivedFuncs)
		if err != nil {
			return fmt.Errorf("tapioca: derived variable %s: %w", name, err)
		}
		parsed[name] = e
		names = append(names, name)
	}
	sort.Strings(names)

	order, err := deriveOrder(names, parsed)
	if err != nil {
		return err
	}
	for _, name := range order {
		if err := d.derive(name, exprs[name], parsed[name]); err != nil {
			return err
		}
	}
	return nil
}

// deriveOrder sorts the derived variables so that each one comes
// after the derived variables it depends on.
func deriveOrder(names []string, parsed map[string]*govaluate.EvaluableExpression) ([]string, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(names))
	var order []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("tapioca: derived variable %s depends on itself", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, v := range parsed[name].Vars() {
			if _, ok := parsed[v]; ok {
				if err := visit(v); err != nil {
					return err
				}
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (d *Dataset) derive(name, expr string, e *govaluate.EvaluableExpression) error {
	vars := removeDuplicates(e.Vars())
	if len(vars) == 0 {
		return fmt.Errorf("tapioca: derived variable %s does not use any variables", name)
	}
	inputs := make([]*Variable, len(vars))
	for i, v := range vars {
		in, ok := d.Data[v]
		if !ok {
			return fmt.Errorf("tapioca: derived variable %s: undefined variable name '%s'", name, v)
		}
		if i > 0 && !sameShape(in, inputs[0]) {
			return fmt.Errorf("tapioca: derived variable %s: variables %s and %s have different dimensions",
				name, vars[0], v)
		}
		inputs[i] = in
	}

	out := sparse.ZerosDense(inputs[0].Data.Shape...)
	params := make(map[string]interface{}, len(vars))
	for i := range out.Elements {
		for j, v := range vars {
			params[v] = inputs[j].Data.Elements[i]
		}
		result, err := e.Evaluate(params)
		if err != nil {
			return fmt.Errorf("tapioca: derived variable %s: %w", name, err)
		}
		f, ok := result.(float64)
		if !ok {
			return fmt.Errorf("tapioca: derived variable %s evaluates to %T, not a number", name, result)
		}
		out.Elements[i] = f
	}
	d.AddVariable(name, inputs[0].Dims, expr, "", out)
	return nil
}

func sameShape(a, b *Variable) bool {
	if len(a.Dims) != len(b.Dims) {
		return false
	}
	for i := range a.Dims {
		if a.Dims[i] != b.Dims[i] || a.Data.Shape[i] != b.Data.Shape[i] {
			return false
		}
	}
	return true
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]bool)
	for _, val := range s {
		if !seen[val] {
			result = append(result, val)
			seen[val] = true
		}
	}
	return result
}
