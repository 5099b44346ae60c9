// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package expr

import (
	"fmt"

	"github.com/bitjungle/sanitise/pkg/value"
)

// Env maps the free identifiers an expression may reference (`value` and
// `value_<sibling>`) to their declared column type.
type Env map[string]value.Type

// TypeCheck walks the AST bottom-up, assigning a value.Type to every node
// and failing on an undeclared identifier, a tag mismatch, or a function
// call applied to the wrong type. It returns the resolved type of the
// whole expression.
func TypeCheck(n *Node, env Env) (value.Type, error) {
	switch n.Kind {
	case nodeIdent:
		t, ok := env[n.Ident]
		if !ok {
			return 0, fmt.Errorf("undeclared identifier %q", n.Ident)
		}
		n.resolvedType = t
		return t, nil

	case nodeIntLit:
		n.resolvedType = value.Integer
		return value.Integer, nil
	case nodeRealLit:
		n.resolvedType = value.Real
		return value.Real, nil
	case nodeStrLit:
		n.resolvedType = value.String
		return value.String, nil
	case nodeBoolLit:
		n.resolvedType = value.Boolean
		return value.Boolean, nil

	case nodeUnary:
		childType, err := TypeCheck(n.Children[0], env)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case "-":
			if !childType.IsNumeric() {
				return 0, fmt.Errorf("unary '-' requires a numeric operand, got %s", childType)
			}
			n.resolvedType = childType
		case "!":
			if childType != value.Boolean {
				return 0, fmt.Errorf("unary '!' requires a boolean operand, got %s", childType)
			}
			n.resolvedType = value.Boolean
		default:
			return 0, fmt.Errorf("unknown unary operator %q", n.Op)
		}
		return n.resolvedType, nil

	case nodeBinary:
		lt, err := TypeCheck(n.Children[0], env)
		if err != nil {
			return 0, err
		}
		rt, err := TypeCheck(n.Children[1], env)
		if err != nil {
			return 0, err
		}
		return typeCheckBinary(n, lt, rt)

	case nodeCall:
		return typeCheckCall(n, env)

	default:
		return 0, fmt.Errorf("unknown node kind")
	}
}

func typeCheckBinary(n *Node, lt, rt value.Type) (value.Type, error) {
	switch n.Op {
	case "==", "!=":
		if lt != rt {
			return 0, fmt.Errorf("comparison %q requires both sides the same type, got %s and %s", n.Op, lt, rt)
		}
		n.resolvedType = value.Boolean
		return value.Boolean, nil
	case "<", "<=", ">", ">=":
		if lt != rt {
			return 0, fmt.Errorf("comparison %q requires both sides the same type, got %s and %s", n.Op, lt, rt)
		}
		if !lt.IsOrdered() {
			return 0, fmt.Errorf("comparison %q is not defined for type %s", n.Op, lt)
		}
		n.resolvedType = value.Boolean
		return value.Boolean, nil
	case "+", "-", "*", "/", "%":
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return 0, fmt.Errorf("arithmetic %q requires numeric operands, got %s and %s", n.Op, lt, rt)
		}
		if lt != rt {
			return 0, fmt.Errorf("arithmetic %q requires both sides the same numeric type, got %s and %s", n.Op, lt, rt)
		}
		if n.Op == "%" && lt != value.Integer {
			return 0, fmt.Errorf("'%%' is only defined for integer operands, got %s", lt)
		}
		n.resolvedType = lt
		return lt, nil
	default:
		return 0, fmt.Errorf("unknown binary operator %q", n.Op)
	}
}

func typeCheckCall(n *Node, env Env) (value.Type, error) {
	argTypes := make([]value.Type, len(n.Children))
	for i, c := range n.Children {
		t, err := TypeCheck(c, env)
		if err != nil {
			return 0, err
		}
		argTypes[i] = t
	}
	switch n.Callee {
	case "boolean":
		n.resolvedType = value.Boolean
	case "integer":
		n.resolvedType = value.Integer
	case "real":
		n.resolvedType = value.Real
	case "string":
		n.resolvedType = value.String
	case "ceiling", "floor", "round":
		if argTypes[0] != value.Real {
			return 0, fmt.Errorf("%s() is only defined for real, got %s", n.Callee, argTypes[0])
		}
		n.resolvedType = value.Real
	case "concat":
		if argTypes[0] != value.String || argTypes[1] != value.String {
			return 0, fmt.Errorf("concat() requires two string arguments, got %s and %s", argTypes[0], argTypes[1])
		}
		n.resolvedType = value.String
	default:
		return 0, fmt.Errorf("unknown function %q", n.Callee)
	}
	return n.resolvedType, nil
}
