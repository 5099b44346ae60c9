// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package column

import (
	"fmt"

	"github.com/bitjungle/sanitise/pkg/policy"
	"github.com/bitjungle/sanitise/pkg/value"
	"gonum.org/v1/gonum/stat"
)

// Result is the outcome of dispatching one event to an Automaton.
type Result int

const (
	// Ok means the event was absorbed; the row driver moves to the next
	// column.
	Ok Result = iota
	// Delete means this row must be dropped and earlier same-row
	// automata rolled back (spec §4.C, §4.D).
	Delete
)

type automatonState int

const (
	stateValid automatonState = iota
	stateInvalid
)

type lastAction int

const (
	actionNone lastAction = iota
	actionAppendValid
	actionIncrementInvalid
)

// Automaton is the per-column state machine of spec §4.C. One is created
// fresh per Process invocation (per non-ignored Column), owns a growable
// output buffer plus its state, and is destroyed after Finish. It encodes
// the several column behaviours as a single policy-tagged state rather
// than a family of specialised types (spec §9).
type Automaton struct {
	col    *Column
	output []value.Value

	state      automatonState
	missing    int
	streak     []value.Value
	lastAction lastAction
	avgK       int
}

// New creates a fresh automaton for a non-ignored column.
func New(col *Column) *Automaton {
	return &Automaton{col: col, state: stateValid}
}

// Output returns the committed output vector accumulated so far. Callers
// must not mutate the returned slice.
func (a *Automaton) Output() []value.Value { return a.output }

// Push ingests one non-null raw input value together with the current
// row's sibling bindings ("value_<title>" -> that sibling's current-row Value; a
// sibling contributes no binding when its own cell was null, since the
// expression language never observes null siblings directly — only the
// "value" of the column currently executing is guaranteed present).
func (a *Automaton) Push(v value.Value, siblings map[string]value.Value) (Result, error) {
	if !a.col.Valid(v) {
		return a.routeBad(a.col.OnInvalid, v)
	}
	return a.pushValid(v, siblings)
}

// Null ingests a null event: the raw cell was empty or matched a null
// surrogate.
func (a *Automaton) Null() (Result, error) {
	return a.routeBad(a.col.OnNull, value.Value{})
}

func (a *Automaton) pushValid(v value.Value, siblings map[string]value.Value) (Result, error) {
	bindings := make(map[string]value.Value, len(siblings)+1)
	for k, sv := range siblings {
		bindings[k] = sv
	}
	bindings["value"] = v

	out, err := a.col.Output.Eval(bindings)
	if err != nil {
		return Ok, fmt.Errorf("column %q: %w", a.col.Title, err)
	}

	switch a.state {
	case stateValid:
		a.output = append(a.output, out)
		return Ok, nil
	case stateInvalid:
		a.streak = append(a.streak, out)
		a.lastAction = actionAppendValid
		if len(a.streak) == a.avgK {
			a.commit()
		}
		return Ok, nil
	}
	return Ok, nil
}

// routeBad dispatches an invalid-push or null event through the given
// policy. offending is only meaningful for abort's error message (zero
// Value for a null event).
func (a *Automaton) routeBad(p policy.Policy, offending value.Value) (Result, error) {
	if a.state == stateInvalid {
		// Only average policies can keep an automaton in Invalid state;
		// another bad value discards the in-progress streak.
		a.missing += 1 + len(a.streak)
		a.streak = nil
		a.lastAction = actionIncrementInvalid
		return Ok, nil
	}

	switch p.Kind {
	case policy.Sentinel:
		a.output = append(a.output, p.Sentinel)
		return Ok, nil
	case policy.Previous:
		if len(a.output) > 0 {
			a.output = append(a.output, a.output[len(a.output)-1])
		} else {
			a.output = append(a.output, p.Sentinel)
		}
		return Ok, nil
	case policy.Abort:
		// Line is unknown at this level; the row driver fills it in from
		// the SanitiseError this carries (see program.RunProcess).
		return Ok, value.NewValidationError(0, a.col.Title, offending)
	case policy.Delete:
		return Delete, nil
	case policy.Average:
		a.state = stateInvalid
		a.missing = 1
		a.streak = nil
		a.lastAction = actionIncrementInvalid
		a.avgK = p.Streak
		return Ok, nil
	default:
		return Ok, fmt.Errorf("column %q: unknown policy", a.col.Title)
	}
}

// commit closes a completed k-streak: it back-fills `missing` average
// values, then appends the streak itself, returning to Valid.
func (a *Automaton) commit() {
	var before value.Value
	if len(a.output) > 0 {
		before = a.output[len(a.output)-1]
	} else {
		before = a.streak[0]
	}
	avg := averageValue(before, a.streak[0], a.col.OutputType)
	for i := 0; i < a.missing; i++ {
		a.output = append(a.output, avg)
	}
	a.output = append(a.output, a.streak...)
	a.state = stateValid
	a.missing = 0
	a.streak = nil
}

// Undo retracts the most recent Push/Null effect. Called by the row
// driver, in reverse declaration order, when a later sibling signals
// Delete on the same row.
func (a *Automaton) Undo() {
	switch a.state {
	case stateValid:
		if len(a.output) > 0 {
			a.output = a.output[:len(a.output)-1]
		}
	case stateInvalid:
		if a.lastAction == actionAppendValid {
			if len(a.streak) > 0 {
				a.streak = a.streak[:len(a.streak)-1]
			}
		} else {
			a.missing--
			if a.missing <= 0 {
				a.missing = 0
				a.state = stateValid
			}
		}
	}
}

// Finish is called once after the last row. A pending average streak that
// never closed is flushed using the last committed value as fill; if no
// prior output exists, finishing fails (spec §4.C, §7).
func (a *Automaton) Finish() error {
	if a.state != stateInvalid {
		return nil
	}
	a.missing += len(a.streak)
	a.streak = nil
	if len(a.output) == 0 {
		return fmt.Errorf("column %q: pending average streak at finish with no prior committed value", a.col.Title)
	}
	fill := a.output[len(a.output)-1]
	for i := 0; i < a.missing; i++ {
		a.output = append(a.output, fill)
	}
	a.missing = 0
	a.state = stateValid
	return nil
}

// Aggregate computes the run-length aggregate over the inclusive index
// range [lo, hi] of the committed output, per the column's Aggregate
// strategy.
func (a *Automaton) Aggregate(lo, hi int) value.Value {
	switch a.col.Aggregate {
	case Last:
		return a.output[hi]
	case AverageAgg:
		return meanRange(a.output[lo:hi+1], a.col.OutputType)
	default: // First
		return a.output[lo]
	}
}

// averageValue implements the average-repair backfill formula of spec
// §4.C/§9: integer output types use truncated division (Go's native "/"),
// never promoted to real; real output types use gonum's stat.Mean over
// the two-element {before, first} sample.
func averageValue(before, first value.Value, t value.Type) value.Value {
	if t == value.Integer {
		return value.Int((before.I + first.I) / 2)
	}
	return value.Flt(stat.Mean([]float64{before.R, first.R}, nil))
}

// meanRange implements the *average* aggregate strategy of spec §4.C's
// Aggregate operation: truncated integer mean, or gonum's stat.Mean for
// real.
func meanRange(vs []value.Value, t value.Type) value.Value {
	if t == value.Integer {
		var sum int64
		for _, v := range vs {
			sum += v.I
		}
		return value.Int(sum / int64(len(vs)))
	}
	floats := make([]float64, len(vs))
	for i, v := range vs {
		floats[i] = v.R
	}
	return value.Flt(stat.Mean(floats, nil))
}
