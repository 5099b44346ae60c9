// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package program

import (
	"fmt"

	"github.com/bitjungle/sanitise/pkg/value"
	"github.com/samber/lo"
)

// ChainResult is the overall outcome of running a Program: one Result
// per Process, in declaration order, with the final Process's Result
// replaced by its run-length compressed form when it declares an
// aggregate_column.
type ChainResult struct {
	Results []*Result
}

// RunProgram runs Processes P1...Pn in sequence (spec §4.E): P1 consumes
// the raw per-column buffer; each subsequent Pk+1 consumes Pk's
// non-ignored outputs, lifted into always-present cells (no nulls, no
// null-surrogate matching — spec's "always-present" lifting). After Pn,
// if it declares an aggregate_column, the result is run-length
// compressed; earlier Processes are returned uncompressed.
func RunProgram(prog *Program, initial [][]Cell) (*ChainResult, error) {
	if len(prog.Processes) == 0 {
		return &ChainResult{}, nil
	}

	results := make([]*Result, len(prog.Processes))

	rows := initial
	for k, proc := range prog.Processes {
		res, err := RunProcess(proc, rows)
		if err != nil {
			return nil, err
		}
		results[k] = res

		if k+1 < len(prog.Processes) {
			rows, err = lift(res, prog.Processes[k+1])
			if err != nil {
				return nil, err
			}
		}
	}

	last := results[len(results)-1]
	if last.Process.AggregateColumn != "" {
		compressed, err := aggregate(last)
		if err != nil {
			return nil, err
		}
		results[len(results)-1] = compressed
	}

	return &ChainResult{Results: results}, nil
}

// lift turns Process k's non-ignored output vectors into Process k+1's
// row buffer, one always-present Cell per declared column, positionally
// zipped against k's declared output order.
func lift(res *Result, next *Process) ([][]Cell, error) {
	if len(next.Columns) != len(res.Order) {
		return nil, fmt.Errorf("process %q expects %d input columns from %q, got %d", next.Name, len(next.Columns), res.Process.Name, len(res.Order))
	}
	n := 0
	if len(res.Order) > 0 {
		n = len(res.Columns[res.Order[0]])
	}
	rows := make([][]Cell, n)
	for r := 0; r < n; r++ {
		row := make([]Cell, len(res.Order))
		for i, title := range res.Order {
			row[i] = Cell{V: res.Columns[title][r], Null: false}
		}
		rows[r] = row
	}
	return rows, nil
}

// aggregate implements spec §4.E's run-length compression pass: scan the
// key column left to right, identify maximal runs of equal consecutive
// values, and emit one record per run once it closes — including the
// final trailing run, which spec §9 documents as a bug in the original
// implementation that this module deliberately corrects.
func aggregate(res *Result) (*Result, error) {
	proc := res.Process
	key := res.Columns[proc.AggregateColumn]
	n := len(key)
	if n == 0 {
		return &Result{Process: proc, Columns: map[string][]value.Value{}, Order: res.Order}, nil
	}

	type run struct{ lo, hi int }
	var runs []run
	lo0 := 0
	for i := 1; i < n; i++ {
		if !key[i].Equal(key[i-1]) {
			runs = append(runs, run{lo: lo0, hi: i - 1})
			lo0 = i
		}
	}
	runs = append(runs, run{lo: lo0, hi: n - 1})

	out := make(map[string][]value.Value, len(res.Order))
	for _, title := range res.Order {
		vals := lo.Map(runs, func(rg run, _ int) value.Value {
			if title == proc.AggregateColumn {
				return key[rg.lo]
			}
			return res.Automata[title].Aggregate(rg.lo, rg.hi)
		})
		out[title] = vals
	}

	return &Result{Process: proc, Columns: out, Order: res.Order, Automata: res.Automata}, nil
}
