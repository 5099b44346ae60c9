// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package expr

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bitjungle/sanitise/pkg/value"
)

// Program is a compiled, type-checked expression ready for repeated
// evaluation against a row's free-variable bindings. It is the opaque
// evaluator spec §4.B attaches to a Column.
type Program struct {
	root       *Node
	outputType value.Type
}

// Compile parses and type-checks src against env, requiring the result
// type to equal want (the owning Column's output_type). The owning column
// name is used only to localise the error message (spec §4.B: "localised
// to the owning column").
func Compile(src string, env Env, want value.Type, column string) (*Program, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", column, err)
	}
	got, err := TypeCheck(root, env)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", column, err)
	}
	if got != want {
		return nil, fmt.Errorf("column %q: output expression has type %s, declared output-type is %s", column, got, want)
	}
	return &Program{root: root, outputType: want}, nil
}

// OutputType reports the checked result type.
func (p *Program) OutputType() value.Type { return p.outputType }

// Eval evaluates the compiled expression against a set of bindings. It
// fails at runtime when an identifier has no binding (a sibling whose
// cell is null for this row), on integer division or modulo by zero, and
// when boolean()/integer()/real() is applied to an unparseable string.
func (p *Program) Eval(bindings map[string]value.Value) (value.Value, error) {
	return evalNode(p.root, bindings)
}

func evalNode(n *Node, env map[string]value.Value) (value.Value, error) {
	switch n.Kind {
	case nodeIdent:
		v, ok := env[n.Ident]
		if !ok {
			return value.Value{}, fmt.Errorf("unbound identifier %q", n.Ident)
		}
		return v, nil
	case nodeIntLit:
		return value.Int(n.I), nil
	case nodeRealLit:
		return value.Flt(n.R), nil
	case nodeStrLit:
		return value.Str(n.S), nil
	case nodeBoolLit:
		return value.Bool(n.B), nil
	case nodeUnary:
		v, err := evalNode(n.Children[0], env)
		if err != nil {
			return value.Value{}, err
		}
		return evalUnary(n.Op, v)
	case nodeBinary:
		l, err := evalNode(n.Children[0], env)
		if err != nil {
			return value.Value{}, err
		}
		r, err := evalNode(n.Children[1], env)
		if err != nil {
			return value.Value{}, err
		}
		return evalBinary(n.Op, l, r)
	case nodeCall:
		args := make([]value.Value, len(n.Children))
		for i, c := range n.Children {
			v, err := evalNode(c, env)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return evalCall(n.Callee, args)
	default:
		return value.Value{}, fmt.Errorf("unknown node kind")
	}
}

func evalUnary(op string, v value.Value) (value.Value, error) {
	switch op {
	case "-":
		if v.Typ == value.Integer {
			return value.Int(-v.I), nil
		}
		return value.Flt(-v.R), nil
	case "!":
		return value.Bool(!v.B), nil
	default:
		return value.Value{}, fmt.Errorf("unknown unary operator %q", op)
	}
}

func evalBinary(op string, l, r value.Value) (value.Value, error) {
	switch op {
	case "==":
		return value.Bool(l.Equal(r)), nil
	case "!=":
		return value.Bool(!l.Equal(r)), nil
	case "<":
		return value.Bool(l.Less(r)), nil
	case "<=":
		return value.Bool(l.Less(r) || l.Equal(r)), nil
	case ">":
		return value.Bool(r.Less(l)), nil
	case ">=":
		return value.Bool(r.Less(l) || l.Equal(r)), nil
	case "+", "-", "*", "/", "%":
		return evalArith(op, l, r)
	default:
		return value.Value{}, fmt.Errorf("unknown binary operator %q", op)
	}
}

// evalArith implements spec §4.B's arithmetic rules: integer division
// truncates toward zero (Go's native int64 "/" already does this), modulo
// takes the sign of the dividend (Go's native "%" already does this), and
// real division/modulo follow IEEE-754.
func evalArith(op string, l, r value.Value) (value.Value, error) {
	if l.Typ == value.Integer {
		switch op {
		case "+":
			return value.Int(l.I + r.I), nil
		case "-":
			return value.Int(l.I - r.I), nil
		case "*":
			return value.Int(l.I * r.I), nil
		case "/":
			if r.I == 0 {
				return value.Value{}, fmt.Errorf("integer division by zero")
			}
			return value.Int(l.I / r.I), nil
		case "%":
			if r.I == 0 {
				return value.Value{}, fmt.Errorf("integer modulo by zero")
			}
			return value.Int(l.I % r.I), nil
		}
	}
	switch op {
	case "+":
		return value.Flt(l.R + r.R), nil
	case "-":
		return value.Flt(l.R - r.R), nil
	case "*":
		return value.Flt(l.R * r.R), nil
	case "/":
		return value.Flt(l.R / r.R), nil
	case "%":
		return value.Flt(math.Mod(l.R, r.R)), nil
	}
	return value.Value{}, fmt.Errorf("unknown arithmetic operator %q", op)
}

func evalCall(name string, args []value.Value) (value.Value, error) {
	switch name {
	case "boolean":
		return convertBoolean(args[0])
	case "integer":
		return convertInteger(args[0])
	case "real":
		return convertReal(args[0])
	case "string":
		return value.Str(args[0].String()), nil
	case "ceiling":
		return value.Flt(math.Ceil(args[0].R)), nil
	case "floor":
		return value.Flt(math.Floor(args[0].R)), nil
	case "round":
		return value.Flt(math.Round(args[0].R)), nil
	case "concat":
		return value.Str(args[0].S + args[1].S), nil
	default:
		return value.Value{}, fmt.Errorf("unknown function %q", name)
	}
}

func convertBoolean(v value.Value) (value.Value, error) {
	switch v.Typ {
	case value.Boolean:
		return v, nil
	case value.Integer:
		return value.Bool(v.I != 0), nil
	case value.Real:
		return value.Bool(v.R != 0), nil
	case value.String:
		b, err := strconv.ParseBool(v.S)
		if err != nil {
			return value.Value{}, fmt.Errorf("cannot convert %q to boolean", v.S)
		}
		return value.Bool(b), nil
	}
	return value.Value{}, fmt.Errorf("cannot convert to boolean")
}

func convertInteger(v value.Value) (value.Value, error) {
	switch v.Typ {
	case value.Integer:
		return v, nil
	case value.Real:
		return value.Int(int64(v.R)), nil
	case value.Boolean:
		if v.B {
			return value.Int(1), nil
		}
		return value.Int(0), nil
	case value.String:
		i, err := strconv.ParseInt(v.S, 10, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("cannot convert %q to integer", v.S)
		}
		return value.Int(i), nil
	}
	return value.Value{}, fmt.Errorf("cannot convert to integer")
}

func convertReal(v value.Value) (value.Value, error) {
	switch v.Typ {
	case value.Real:
		return v, nil
	case value.Integer:
		return value.Flt(float64(v.I)), nil
	case value.Boolean:
		if v.B {
			return value.Flt(1), nil
		}
		return value.Flt(0), nil
	case value.String:
		f, err := strconv.ParseFloat(v.S, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("cannot convert %q to real", v.S)
		}
		return value.Flt(f), nil
	}
	return value.Value{}, fmt.Errorf("cannot convert to real")
}
