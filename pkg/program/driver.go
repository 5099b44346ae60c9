// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package program

import (
	"github.com/bitjungle/sanitise/pkg/column"
	"github.com/bitjungle/sanitise/pkg/value"
)

// Cell is one raw, already-parsed input for one column of one row. Null
// is set when the raw CSV field was empty or matched a null surrogate;
// V is meaningless in that case.
type Cell struct {
	V    value.Value
	Null bool
}

// RunProcess feeds a parsed row-oriented buffer through every column
// automaton of one Process, in declared order, implementing the row
// driver of spec §4.D.
//
// Line numbers in returned errors are row-relative: 1 for the first row
// of this buffer, len(rows) for the finish() pass. They are not
// translated into absolute file line numbers: sanitisecsv.Run returns
// them as RunProcess produced them.
func RunProcess(proc *Process, rows [][]Cell) (*Result, error) {
	automata := make(map[string]*column.Automaton, len(proc.Columns))
	var order []string
	for _, c := range proc.Columns {
		if c.Ignore {
			continue
		}
		automata[c.Title] = column.New(c)
		order = append(order, c.Title)
	}

	for rowIdx, row := range rows {
		lineNo := rowIdx + 1

		bindings := make(map[string]value.Value, len(proc.Columns))
		for i, c := range proc.Columns {
			if !row[i].Null {
				bindings["value_"+c.Title] = row[i].V
			}
		}

		var dispatched []string
		for i, c := range proc.Columns {
			if c.Ignore {
				continue
			}
			a := automata[c.Title]

			var (
				res column.Result
				err error
			)
			if row[i].Null {
				res, err = a.Null()
			} else {
				res, err = a.Push(row[i].V, bindings)
			}
			if err != nil {
				// An abort-policy rejection already arrives as a SanitiseError
				// built by value.NewValidationError; it only needs its line
				// number filled in. Anything else (an output-expression
				// failure, an unrecognised policy) is wrapped generically.
				if ve, ok := err.(*value.SanitiseError); ok {
					ve.Line = lineNo
					return nil, ve
				}
				return nil, &value.SanitiseError{Type: value.ErrValidation, Message: err.Error(), Line: lineNo}
			}
			if res == column.Delete {
				for j := len(dispatched) - 1; j >= 0; j-- {
					automata[dispatched[j]].Undo()
				}
				dispatched = nil
				break
			}
			dispatched = append(dispatched, c.Title)
		}
	}

	total := len(rows)
	for _, c := range proc.Columns {
		if c.Ignore {
			continue
		}
		if err := automata[c.Title].Finish(); err != nil {
			return nil, value.NewAverageFinaliseError(total, c.Title)
		}
	}

	out := make(map[string][]value.Value, len(order))
	for _, t := range order {
		out[t] = automata[t].Output()
	}
	return &Result{Process: proc, Columns: out, Order: order, Automata: automata}, nil
}
