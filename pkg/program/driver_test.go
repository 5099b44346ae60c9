// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package program

import (
	"testing"

	"github.com/bitjungle/sanitise/pkg/column"
	"github.com/bitjungle/sanitise/pkg/expr"
	"github.com/bitjungle/sanitise/pkg/policy"
	"github.com/bitjungle/sanitise/pkg/value"
)

func identityCol(t *testing.T, title string, typ value.Type, onInvalid, onNull policy.Policy) *column.Column {
	t.Helper()
	prog, err := expr.Compile("value", expr.Env{"value": typ}, typ, title)
	if err != nil {
		t.Fatalf("compiling identity expression for %q: %v", title, err)
	}
	return &column.Column{Title: title, InputType: typ, OutputType: typ, OnInvalid: onInvalid, OnNull: onNull, Output: prog}
}

func cell(v value.Value) Cell { return Cell{V: v} }
func nullCell() Cell          { return Cell{Null: true} }

// TestDeletePropagation mirrors spec scenario S2: a row-level delete on
// column a must stop column b from ever seeing that row's value.
func TestDeletePropagation(t *testing.T) {
	a := identityCol(t, "a", value.Integer, policy.Policy{Kind: policy.Delete}, policy.Policy{Kind: policy.Abort})
	a.Max = ptrVal(value.Int(50))
	b := identityCol(t, "b", value.Integer, policy.Policy{Kind: policy.Abort}, policy.Policy{Kind: policy.Abort})

	proc := &Process{Name: "p", Columns: []*column.Column{a, b}}
	rows := [][]Cell{
		{cell(value.Int(99)), cell(value.Int(5))}, // a rejects 99 -> row dropped, b never sees 5
		{cell(value.Int(1)), cell(value.Int(2))},
	}

	res, err := RunProcess(proc, rows)
	if err != nil {
		t.Fatalf("RunProcess() unexpected error: %v", err)
	}
	assertColumn(t, res, "a", []value.Value{value.Int(1)})
	assertColumn(t, res, "b", []value.Value{value.Int(2)})
}

func TestIgnoredColumnsSkipAutomaton(t *testing.T) {
	a := identityCol(t, "a", value.Integer, policy.Policy{Kind: policy.Abort}, policy.Policy{Kind: policy.Abort})
	ignored := &column.Column{Title: "junk", Ignore: true}

	proc := &Process{Name: "p", Columns: []*column.Column{ignored, a}}
	rows := [][]Cell{{cell(value.Int(0)), cell(value.Int(1))}}

	res, err := RunProcess(proc, rows)
	if err != nil {
		t.Fatalf("RunProcess() unexpected error: %v", err)
	}
	if _, ok := res.Columns["junk"]; ok {
		t.Error("ignored column should not appear in the output")
	}
	assertColumn(t, res, "a", []value.Value{value.Int(1)})
}

func TestNullCellRoutesThroughOnNull(t *testing.T) {
	a := identityCol(t, "a", value.Integer, policy.Policy{Kind: policy.Abort}, policy.Policy{Kind: policy.Sentinel, Sentinel: value.Int(-1)})
	proc := &Process{Name: "p", Columns: []*column.Column{a}}
	rows := [][]Cell{{nullCell()}, {cell(value.Int(7))}}

	res, err := RunProcess(proc, rows)
	if err != nil {
		t.Fatalf("RunProcess() unexpected error: %v", err)
	}
	assertColumn(t, res, "a", []value.Value{value.Int(-1), value.Int(7)})
}

func TestAbortPropagatesLineNumber(t *testing.T) {
	a := identityCol(t, "a", value.Integer, policy.Policy{Kind: policy.Abort}, policy.Policy{Kind: policy.Abort})
	a.Max = ptrVal(value.Int(10))
	proc := &Process{Name: "p", Columns: []*column.Column{a}}
	rows := [][]Cell{{cell(value.Int(5))}, {cell(value.Int(99))}}

	_, err := RunProcess(proc, rows)
	if err == nil {
		t.Fatal("expected an abort error")
	}
	lineErr, ok := err.(interface{ LineNumber() int })
	if !ok {
		t.Fatalf("error %v does not implement LineNumber()", err)
	}
	if lineErr.LineNumber() != 2 {
		t.Errorf("LineNumber() = %d, want 2 (row-relative)", lineErr.LineNumber())
	}
}

func assertColumn(t *testing.T, res *Result, title string, want []value.Value) {
	t.Helper()
	got := res.Columns[title]
	if len(got) != len(want) {
		t.Fatalf("column %q length = %d, want %d (%v)", title, len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("column %q[%d] = %v, want %v", title, i, got[i], want[i])
		}
	}
}

func ptrVal(v value.Value) *value.Value { return &v }
