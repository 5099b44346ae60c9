// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

// Package sanitisecsv implements the external CSV interface of spec §6:
// a deliberately minimal text format (no quoting, no escaping, no
// embedded commas or newlines) split into one or more header-delimited
// sections per a Program's on-title mode, and fed row-oriented into
// pkg/program.
package sanitisecsv

import (
	"fmt"
	"strings"

	"github.com/bitjungle/sanitise/pkg/program"
	"github.com/bitjungle/sanitise/pkg/value"
)

// Section is one header-delimited run of data lines, parsed against the
// column types of the Process it belongs to.
type Section struct {
	Rows [][]program.Cell
}

// splitLines implements §6's line discipline: split on "\n", strip a
// trailing "\r" from every line, drop a single trailing empty line (the
// usual "file ends with a newline" case).
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// splitFields implements §6's field discipline: split on "," verbatim,
// no quoting or escaping.
func splitFields(line string) []string {
	return strings.Split(line, ",")
}

// headerTitles returns the declared column titles of a Process, in
// declaration order, for matching against a candidate header line.
func headerTitles(proc *program.Process) []string {
	titles := make([]string, len(proc.Columns))
	for i, c := range proc.Columns {
		titles[i] = c.Title
	}
	return titles
}

// isHeaderLine reports whether line is exactly the comma-joined title
// list of proc's columns.
func isHeaderLine(line string, proc *program.Process) bool {
	return line == strings.Join(headerTitles(proc), ",")
}

// ParseSections splits raw CSV text into header-delimited sections per
// prog.OnTitle (spec §6) and parses each section's data lines into
// []program.Cell rows typed against firstProc (the Process that consumes
// raw input, always P₁).
//
// Returned line numbers in errors are 1-based against the *whole* input
// text, matching §6's "line 1 denotes the header" convention: every
// physical line is counted, including the repeated header lines that
// on-title: combine skips.
func ParseSections(text string, prog *program.Program) ([]Section, error) {
	firstProc := prog.Processes[0]
	lines := splitLines(text)

	switch prog.OnTitle {
	case program.Combine:
		return parseCombine(lines, firstProc)
	case program.Split:
		return parseSplit(lines, firstProc)
	default:
		return parseOnce(lines, firstProc)
	}
}

func parseOnce(lines []string, proc *program.Process) ([]Section, error) {
	if len(lines) == 0 {
		return nil, value.NewCSVStructureError(1, "expected a header line, found empty input")
	}
	if !isHeaderLine(lines[0], proc) {
		return nil, value.NewCSVStructureError(1, "header line does not match the declared column titles")
	}
	for i, l := range lines[1:] {
		if isHeaderLine(l, proc) {
			return nil, value.NewCSVStructureError(i+2, "on-title: once forbids a second header line")
		}
	}
	rows, err := parseDataLines(lines[1:], proc, 2)
	if err != nil {
		return nil, err
	}
	return []Section{{Rows: rows}}, nil
}

func parseCombine(lines []string, proc *program.Process) ([]Section, error) {
	if len(lines) == 0 {
		return nil, value.NewCSVStructureError(1, "expected a header line, found empty input")
	}
	if !isHeaderLine(lines[0], proc) {
		return nil, value.NewCSVStructureError(1, "header line does not match the declared column titles")
	}
	var rows [][]program.Cell
	for i, l := range lines[1:] {
		lineNo := i + 2
		if isHeaderLine(l, proc) {
			continue
		}
		row, err := parseDataLine(l, proc, lineNo)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return []Section{{Rows: rows}}, nil
}

func parseSplit(lines []string, proc *program.Process) ([]Section, error) {
	var sections []Section
	var cur [][]program.Cell
	inSection := false

	for i, l := range lines {
		lineNo := i + 1
		if isHeaderLine(l, proc) {
			if inSection {
				sections = append(sections, Section{Rows: cur})
			}
			cur = nil
			inSection = true
			continue
		}
		if !inSection {
			return nil, value.NewCSVStructureError(lineNo, "expected a header line before any data")
		}
		row, err := parseDataLine(l, proc, lineNo)
		if err != nil {
			return nil, err
		}
		cur = append(cur, row)
	}
	if inSection {
		sections = append(sections, Section{Rows: cur})
	}
	return sections, nil
}

func parseDataLines(lines []string, proc *program.Process, startLine int) ([][]program.Cell, error) {
	rows := make([][]program.Cell, 0, len(lines))
	for i, l := range lines {
		row, err := parseDataLine(l, proc, startLine+i)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDataLine(line string, proc *program.Process, lineNo int) ([]program.Cell, error) {
	fields := splitFields(line)
	if len(fields) != len(proc.Columns) {
		return nil, value.NewCSVStructureError(lineNo, fmt.Sprintf(
			"wrong number of fields: expected %d, got %d", len(proc.Columns), len(fields)))
	}
	row := make([]program.Cell, len(fields))
	for i, f := range fields {
		c := proc.Columns[i]
		if c.Ignore {
			// Per spec, an ignored column's raw text is carried along only
			// for row-length validation; it is never type-checked.
			row[i] = program.Cell{}
			continue
		}
		if f == "" {
			row[i] = program.Cell{Null: true}
			continue
		}
		v, err := value.Parse(c.InputType, f)
		if err != nil {
			return nil, value.NewCSVStructureError(lineNo, err.Error())
		}
		// Per spec §9, the null-surrogate check happens before min/max and
		// whitelist/blacklist predicates; those are enforced downstream by
		// the column automaton, so here it is enough to turn a surrogate
		// match into a null event.
		if c.IsNullSurrogate(v) {
			row[i] = program.Cell{Null: true}
			continue
		}
		row[i] = program.Cell{V: v}
	}
	return row, nil
}
