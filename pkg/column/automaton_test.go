// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package column

import (
	"testing"

	"github.com/bitjungle/sanitise/pkg/expr"
	"github.com/bitjungle/sanitise/pkg/policy"
	"github.com/bitjungle/sanitise/pkg/value"
)

func identityColumn(t *testing.T, typ value.Type, onInvalid, onNull policy.Policy) *Column {
	t.Helper()
	prog, err := expr.Compile("value", expr.Env{"value": typ}, typ, "col")
	if err != nil {
		t.Fatalf("compiling identity expression: %v", err)
	}
	return &Column{Title: "col", InputType: typ, OutputType: typ, OnInvalid: onInvalid, OnNull: onNull, Output: prog}
}

func pushAll(t *testing.T, a *Automaton, vs []value.Value) {
	t.Helper()
	for _, v := range vs {
		if _, err := a.Push(v, nil); err != nil {
			t.Fatalf("Push(%v) unexpected error: %v", v, err)
		}
	}
}

// TestAverageCommitAndBackfill mirrors spec scenario S5: a streak of k=3
// valid values closes an average repair with a computed backfill.
func TestAverageCommitAndBackfill(t *testing.T) {
	c := identityColumn(t, value.Integer, policy.Policy{Kind: policy.Average, Streak: 3}, policy.Policy{Kind: policy.Abort})
	c.Min = ptr(value.Int(40))
	c.Max = ptr(value.Int(100))
	a := New(c)

	pushAll(t, a, []value.Value{value.Int(50)})
	pushAll(t, a, []value.Value{value.Int(200), value.Int(200)}) // both invalid
	pushAll(t, a, []value.Value{value.Int(60), value.Int(70), value.Int(80)})

	want := []value.Value{value.Int(50), value.Int(55), value.Int(55), value.Int(60), value.Int(70), value.Int(80)}
	assertOutput(t, a, want)
}

// TestAverageFinishWithPendingStreak mirrors spec scenario S1: the streak
// never closes, so finish() backfills with the last committed value.
func TestAverageFinishWithPendingStreak(t *testing.T) {
	c := identityColumn(t, value.Integer, policy.Policy{Kind: policy.Average, Streak: 3}, policy.Policy{Kind: policy.Abort})
	c.Min = ptr(value.Int(40))
	c.Max = ptr(value.Int(100))
	a := New(c)

	pushAll(t, a, []value.Value{value.Int(67), value.Int(45)})
	if _, err := a.Push(value.Int(132), nil); err != nil { // invalid, enters Average
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Finish(); err != nil {
		t.Fatalf("Finish() unexpected error: %v", err)
	}
	assertOutput(t, a, []value.Value{value.Int(67), value.Int(45), value.Int(45)})
}

// TestSentinelNullPolicy mirrors spec scenario S3.
func TestSentinelNullPolicy(t *testing.T) {
	c := identityColumn(t, value.Integer, policy.Policy{Kind: policy.Abort}, policy.Policy{Kind: policy.Sentinel, Sentinel: value.Int(-1)})
	a := New(c)

	for i := 0; i < 3; i++ {
		if _, err := a.Null(); err != nil {
			t.Fatalf("Null() unexpected error: %v", err)
		}
	}
	if _, err := a.Push(value.Int(7), nil); err != nil {
		t.Fatalf("Push() unexpected error: %v", err)
	}
	assertOutput(t, a, []value.Value{value.Int(-1), value.Int(-1), value.Int(-1), value.Int(7)})
}

// TestPreviousFallback mirrors spec scenario S4: repeated invalid pushes
// fall back to the last *output*, not the last input.
func TestPreviousFallback(t *testing.T) {
	c := identityColumn(t, value.Integer, policy.Policy{Kind: policy.Previous, Sentinel: value.Int(0)}, policy.Policy{Kind: policy.Abort})
	c.Max = ptr(value.Int(10))
	a := New(c)

	pushAll(t, a, []value.Value{value.Int(5)})
	pushAll(t, a, []value.Value{value.Int(20), value.Int(20)})
	pushAll(t, a, []value.Value{value.Int(3)})

	assertOutput(t, a, []value.Value{value.Int(5), value.Int(5), value.Int(5), value.Int(3)})
}

func TestDeleteSignalsRowDrop(t *testing.T) {
	c := identityColumn(t, value.Integer, policy.Policy{Kind: policy.Delete}, policy.Policy{Kind: policy.Abort})
	c.Min = ptr(value.Int(0))
	a := New(c)

	res, err := a.Push(value.Int(-1), nil)
	if err != nil {
		t.Fatalf("Push() unexpected error: %v", err)
	}
	if res != Delete {
		t.Errorf("expected Delete, got %v", res)
	}
}

func TestUndoRetractsValidPush(t *testing.T) {
	c := identityColumn(t, value.Integer, policy.Policy{Kind: policy.Abort}, policy.Policy{Kind: policy.Abort})
	a := New(c)
	pushAll(t, a, []value.Value{value.Int(1), value.Int(2)})
	a.Undo()
	assertOutput(t, a, []value.Value{value.Int(1)})
}

func assertOutput(t *testing.T, a *Automaton, want []value.Value) {
	t.Helper()
	got := a.Output()
	if len(got) != len(want) {
		t.Fatalf("output length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("output[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func ptr(v value.Value) *value.Value { return &v }
