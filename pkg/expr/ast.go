// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package expr

import "github.com/bitjungle/sanitise/pkg/value"

// NodeKind tags the variant of an expression AST node. A single tagged
// struct, not a family of node types, matches the rest of this module's
// "policy-tagged state over subclassing" style (spec §9).
type NodeKind int

const (
	nodeIdent NodeKind = iota
	nodeIntLit
	nodeRealLit
	nodeStrLit
	nodeBoolLit
	nodeUnary
	nodeBinary
	nodeCall
)

// Node is one AST node. Only the fields relevant to Kind are meaningful.
type Node struct {
	Kind NodeKind
	Pos  int

	Ident string // nodeIdent
	I     int64  // nodeIntLit
	R     float64
	S     string
	B     bool

	Op       string // nodeUnary, nodeBinary
	Children []*Node

	Callee string // nodeCall

	// resolvedType is filled in by the type checker.
	resolvedType value.Type
}

// Type returns the type the checker assigned to this node. Calling it
// before TypeCheck succeeds returns the zero Type.
func (n *Node) Type() value.Type { return n.resolvedType }
