// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

// Package program holds the compiled, immutable Program/Process schema
// (spec §3) and implements the row driver (spec §4.D) and the process
// chain plus aggregator (spec §4.E).
package program

import (
	"github.com/bitjungle/sanitise/pkg/column"
	"github.com/bitjungle/sanitise/pkg/value"
)

// OnTitle governs how repeated header lines in the input split it into
// logical sections (spec §6).
type OnTitle int

const (
	// Once expects exactly one header line; more than one is an error.
	Once OnTitle = iota
	// Combine concatenates multiple header-delimited sections into one
	// logical input.
	Combine
	// Split processes each header-delimited section independently.
	Split
)

// Process is an ordered group of Columns sharing a row driver, plus an
// optional aggregate key column (spec §3).
type Process struct {
	Name            string
	Columns         []*column.Column
	AggregateColumn string // "" if this Process declares none.
}

// Program is an ordered list of Processes plus the on-title mode and the
// string_input flag (spec §3).
type Program struct {
	Processes   []*Process
	OnTitle     OnTitle
	StringInput bool
}

// Result is one Process's output: a vector of Values per non-ignored
// column, in declared order. Automata is retained (rather than discarded
// once Output() has been read) so the process chain's aggregation pass
// can call Aggregate(lo, hi) against the final Process's columns.
type Result struct {
	Process *Process
	Columns map[string][]value.Value
	Order   []string // non-ignored column titles, declared order
	Automata map[string]*column.Automaton
}
