// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package expr

import (
	"fmt"
	"strconv"
)

// builtinArity pins down the fixed function set from spec §4.B so the
// parser can reject unknown calls and wrong arities before type checking.
var builtinArity = map[string]int{
	"boolean":  1,
	"integer":  1,
	"real":     1,
	"string":   1,
	"ceiling":  1,
	"floor":    1,
	"round":    1,
	"concat":   2,
}

// parser is a recursive-descent, precedence-climbing parser over the
// grammar in spec §4.B: comparison (lowest) -> additive -> multiplicative
// -> unary -> call/primary (highest), grounded on the tagged-AST walk
// style of the pack's query/expr evaluator.
type parser struct {
	lex  *lexer
	tok  token
	err  error
}

// Parse compiles raw source text into an (untyped) AST.
func Parse(src string) (*Node, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing input at position %d", p.tok.pos)
	}
	return n, nil
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *parser) parseComparison() (*Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && isComparisonOp(p.tok.text) {
		op := p.tok.text
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: nodeBinary, Op: op, Pos: pos, Children: []*Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseAdditive() (*Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: nodeBinary, Op: op, Pos: pos, Children: []*Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "%") {
		op := p.tok.text
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Node{Kind: nodeBinary, Op: op, Pos: pos, Children: []*Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseUnary() (*Node, error) {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "!") {
		op := p.tok.text
		pos := p.tok.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: nodeUnary, Op: op, Pos: pos, Children: []*Node{operand}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*Node, error) {
	t := p.tok
	switch t.kind {
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		n, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at position %d", p.tok.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return n, nil
	case tokInt:
		i, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q at position %d", t.text, t.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Node{Kind: nodeIntLit, I: i, Pos: t.pos}, nil
	case tokReal:
		r, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real literal %q at position %d", t.text, t.pos)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Node{Kind: nodeRealLit, R: r, Pos: t.pos}, nil
	case tokString:
		s := t.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Node{Kind: nodeStrLit, S: s, Pos: t.pos}, nil
	case tokBool:
		b := t.text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Node{Kind: nodeBoolLit, B: b, Pos: t.pos}, nil
	case tokIdent:
		name := t.text
		pos := t.pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokLParen {
			return p.parseCall(name, pos)
		}
		return &Node{Kind: nodeIdent, Ident: name, Pos: pos}, nil
	default:
		return nil, fmt.Errorf("unexpected token at position %d", t.pos)
	}
}

func (p *parser) parseCall(name string, pos int) (*Node, error) {
	arity, known := builtinArity[name]
	if !known {
		return nil, fmt.Errorf("unknown function %q at position %d", name, pos)
	}
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	var args []*Node
	if p.tok.kind != tokRParen {
		for {
			arg, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.tok.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if p.tok.kind != tokRParen {
		return nil, fmt.Errorf("expected ')' closing call to %q at position %d", name, p.tok.pos)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if len(args) != arity {
		return nil, fmt.Errorf("function %q expects %d argument(s), got %d", name, arity, len(args))
	}
	return &Node{Kind: nodeCall, Callee: name, Pos: pos, Children: args}, nil
}

func isComparisonOp(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}
