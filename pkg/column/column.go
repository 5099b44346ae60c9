// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

// Package column implements the per-column automaton of spec §4.C: the
// state machine that ingests one raw value at a time, decides valid /
// invalid / null, applies a repair policy, and emits an output value or
// suspends.
package column

import (
	"github.com/bitjungle/sanitise/pkg/expr"
	"github.com/bitjungle/sanitise/pkg/policy"
	"github.com/bitjungle/sanitise/pkg/value"
)

// AggregateKind is the run-length aggregation strategy a column uses when
// its Process declares an aggregate_column (spec §3, §4.E).
type AggregateKind int

const (
	// NoAggregate means the column declares no aggregate strategy. When
	// its Process does declare an aggregate_column, Automaton.Aggregate
	// treats such a column like First.
	NoAggregate AggregateKind = iota
	// First takes the first value of the run.
	First
	// Last takes the last value of the run.
	Last
	// AverageAgg takes the arithmetic mean of the run (numeric only).
	AverageAgg
)

// Column is the immutable-after-loading declaration of one column (spec
// §3). Ignored columns still carry Title/InputType (for row-arity
// checking) but have no Output, OnInvalid, OnNull, or Aggregate meaning.
type Column struct {
	Title          string
	InputType      value.Type
	OutputType     value.Type
	NullSurrogates []value.Value
	ValidValues    []value.Value
	InvalidValues  []value.Value
	Min            *value.Value
	Max            *value.Value
	OnInvalid      policy.Policy
	OnNull         policy.Policy
	Output         *expr.Program
	Ignore         bool
	Aggregate      AggregateKind
}

// IsNullSurrogate reports whether raw equals one of the column's declared
// null surrogates. Per spec §9, the surrogate check runs before min/max
// predicates: "the surrogate check happens first".
func (c *Column) IsNullSurrogate(v value.Value) bool {
	for _, s := range c.NullSurrogates {
		if s.Equal(v) {
			return true
		}
	}
	return false
}

// Valid reports whether v passes the column's min/max/whitelist/blacklist
// predicates (spec §4.C transition table, first row).
func (c *Column) Valid(v value.Value) bool {
	if len(c.ValidValues) > 0 {
		found := false
		for _, vv := range c.ValidValues {
			if vv.Equal(v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, iv := range c.InvalidValues {
		if iv.Equal(v) {
			return false
		}
	}
	if c.Min != nil && v.Less(*c.Min) {
		return false
	}
	if c.Max != nil && c.Max.Less(v) {
		return false
	}
	return true
}
