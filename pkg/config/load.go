// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package config

import (
	"fmt"
	"io"
	"os"

	"github.com/bitjungle/sanitise/pkg/column"
	"github.com/bitjungle/sanitise/pkg/expr"
	"github.com/bitjungle/sanitise/pkg/policy"
	"github.com/bitjungle/sanitise/pkg/program"
	"github.com/bitjungle/sanitise/pkg/value"
	"gopkg.in/yaml.v3"
)

// LoadFile loads and compiles a configuration document from disk,
// mirroring pkg/csv.Reader.ReadFile's file-then-delegate shape.
func LoadFile(path string) (*program.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, value.NewConfigError("", fmt.Sprintf("cannot open configuration: %v", err))
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// Load parses and compiles a configuration document (spec §4.A) into a
// Program. Structural errors (unknown keys, missing required keys, wrong
// value types) and expression type errors are all reported as
// *value.SanitiseError with Line == 1, localised by path where possible.
func Load(r io.Reader) (*program.Program, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var raw rawProgram
	if err := dec.Decode(&raw); err != nil {
		return nil, value.NewConfigError("", fmt.Sprintf("malformed configuration: %v", err))
	}

	if len(raw.Processes) == 0 {
		return nil, value.NewConfigError("", "processes: at least one process is required")
	}

	onTitle, err := parseOnTitle(raw.OnTitle)
	if err != nil {
		return nil, value.NewConfigError("", err.Error())
	}

	prog := &program.Program{OnTitle: onTitle, StringInput: true}
	for _, rp := range raw.Processes {
		proc, err := loadProcess(rp)
		if err != nil {
			return nil, err
		}
		prog.Processes = append(prog.Processes, proc)
	}
	return prog, nil
}

func parseOnTitle(s string) (program.OnTitle, error) {
	switch s {
	case "", "once":
		return program.Once, nil
	case "combine":
		return program.Combine, nil
	case "split":
		return program.Split, nil
	default:
		return program.Once, fmt.Errorf("on-title: unknown mode %q", s)
	}
}

func loadProcess(rp rawProcess) (*program.Process, error) {
	if rp.Name == "" {
		return nil, value.NewConfigError("", "process: 'name' is required")
	}
	if len(rp.Columns) == 0 {
		return nil, pathError(rp.Name, "", "columns: at least one column is required")
	}

	// First pass: declare every column's title/input_type/output_type so
	// sibling environments can be built before any expression is compiled.
	cols := make([]*column.Column, len(rp.Columns))
	titleSeen := make(map[string]bool, len(rp.Columns))
	for i, rc := range rp.Columns {
		if rc.Title == "" {
			return nil, pathError(rp.Name, "", "column %d: 'title' is required", i)
		}
		if titleSeen[rc.Title] {
			return nil, pathError(rp.Name, rc.Title, "duplicate column title")
		}
		titleSeen[rc.Title] = true

		c, err := declareColumn(rp.Name, rc)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	// Second pass: compile each non-ignored column's output expression
	// against an environment of {value: own input_type} ∪ {value_<sibling>:
	// sibling input_type | sibling != self}, per spec §4.B.
	for i, rc := range rp.Columns {
		c := cols[i]
		if c.Ignore {
			continue
		}
		env := expr.Env{"value": c.InputType}
		for j, sib := range cols {
			if j == i {
				continue
			}
			env["value_"+sib.Title] = sib.InputType
		}
		compiled, err := expr.Compile(rc.Output, env, c.OutputType, c.Title)
		if err != nil {
			return nil, pathError(rp.Name, c.Title, "%s", err)
		}
		c.Output = compiled
	}

	if rp.AggregateColumn != "" {
		found := false
		for _, c := range cols {
			if c.Title == rp.AggregateColumn {
				found = true
				break
			}
		}
		if !found {
			return nil, pathError(rp.Name, "", "aggregate-column %q is not a column of this process", rp.AggregateColumn)
		}
	}

	return &program.Process{Name: rp.Name, Columns: cols, AggregateColumn: rp.AggregateColumn}, nil
}

// declareColumn builds everything about a Column except its compiled
// Output expression (handled in a second pass once all sibling types in
// the Process are known).
func declareColumn(procName string, rc rawColumn) (*column.Column, error) {
	if rc.Ignore {
		if rc.ColumnType != "" || rc.OutputType != "" || len(rc.NullSurrogates) > 0 ||
			len(rc.ValidValues) > 0 || len(rc.InvalidValues) > 0 || rc.Min != nil || rc.Max != nil ||
			rc.OnInvalid != "" || rc.OnNull != "" || rc.InvalidSentinel != nil || rc.NullSentinel != nil ||
			rc.ValidStreak != nil || rc.Aggregate != "" || rc.Output != "" {
			return nil, pathError(procName, rc.Title, "ignore: true columns must carry no other keys")
		}
		return &column.Column{Title: rc.Title, Ignore: true}, nil
	}

	if rc.ColumnType == "" {
		return nil, pathError(procName, rc.Title, "column-type is required")
	}
	inputType, err := value.ParseType(rc.ColumnType)
	if err != nil {
		return nil, pathError(procName, rc.Title, "%s", err)
	}

	outputType := inputType
	if rc.OutputType != "" {
		outputType, err = value.ParseType(rc.OutputType)
		if err != nil {
			return nil, pathError(procName, rc.Title, "%s", err)
		}
	}

	c := &column.Column{Title: rc.Title, InputType: inputType, OutputType: outputType}

	for _, n := range rc.NullSurrogates {
		v, err := valueFromNode(&n, inputType)
		if err != nil {
			return nil, pathError(procName, rc.Title, "null-surrogates: %s", err)
		}
		c.NullSurrogates = append(c.NullSurrogates, v)
	}
	for _, n := range rc.ValidValues {
		v, err := valueFromNode(&n, inputType)
		if err != nil {
			return nil, pathError(procName, rc.Title, "valid-values: %s", err)
		}
		c.ValidValues = append(c.ValidValues, v)
	}
	for _, n := range rc.InvalidValues {
		v, err := valueFromNode(&n, inputType)
		if err != nil {
			return nil, pathError(procName, rc.Title, "invalid-values: %s", err)
		}
		c.InvalidValues = append(c.InvalidValues, v)
	}
	if rc.Min != nil {
		if !inputType.IsOrdered() {
			return nil, pathError(procName, rc.Title, "min: column-type %s is not ordered", inputType)
		}
		v, err := valueFromNode(rc.Min, inputType)
		if err != nil {
			return nil, pathError(procName, rc.Title, "min: %s", err)
		}
		c.Min = &v
	}
	if rc.Max != nil {
		if !inputType.IsOrdered() {
			return nil, pathError(procName, rc.Title, "max: column-type %s is not ordered", inputType)
		}
		v, err := valueFromNode(rc.Max, inputType)
		if err != nil {
			return nil, pathError(procName, rc.Title, "max: %s", err)
		}
		c.Max = &v
	}

	onInvalid, err := loadPolicy(procName, rc.Title, "on-invalid", rc.OnInvalid, rc.ValidStreak, rc.InvalidSentinel, outputType)
	if err != nil {
		return nil, err
	}
	c.OnInvalid = onInvalid

	onNull, err := loadPolicy(procName, rc.Title, "on-null", rc.OnNull, rc.ValidStreak, rc.NullSentinel, outputType)
	if err != nil {
		return nil, err
	}
	if err := onNull.CompatibleWithInvalid(onInvalid); err != nil {
		return nil, pathError(procName, rc.Title, "%s", err)
	}
	c.OnNull = onNull

	if (onInvalid.Kind == policy.Average || onNull.Kind == policy.Average) && !outputType.IsNumeric() {
		return nil, pathError(procName, rc.Title, "on-invalid/on-null: average requires a numeric output-type")
	}

	switch rc.Aggregate {
	case "":
		c.Aggregate = column.NoAggregate
	case "first":
		c.Aggregate = column.First
	case "last":
		c.Aggregate = column.Last
	case "average":
		if !outputType.IsNumeric() {
			return nil, pathError(procName, rc.Title, "aggregate: average requires a numeric output-type")
		}
		c.Aggregate = column.AverageAgg
	default:
		return nil, pathError(procName, rc.Title, "aggregate: unknown strategy %q", rc.Aggregate)
	}

	if rc.Output == "" {
		return nil, pathError(procName, rc.Title, "output: is required")
	}

	return c, nil
}

func loadPolicy(procName, colTitle, key, kind string, streak *int, sentinel *yaml.Node, outputType value.Type) (policy.Policy, error) {
	if kind == "" {
		kind = "abort"
	}
	switch kind {
	case "abort":
		return policy.Policy{Kind: policy.Abort}, nil
	case "delete":
		return policy.Policy{Kind: policy.Delete}, nil
	case "average":
		if streak == nil || *streak <= 0 {
			return policy.Policy{}, pathError(procName, colTitle, "%s: average requires a positive valid-streak", key)
		}
		return policy.Policy{Kind: policy.Average, Streak: *streak}, nil
	case "previous", "sentinel":
		if sentinel == nil {
			field := "invalid-sentinel"
			if key == "on-null" {
				field = "null-sentinel"
			}
			return policy.Policy{}, pathError(procName, colTitle, "%s: %s requires %s", key, kind, field)
		}
		v, err := valueFromNode(sentinel, outputType)
		if err != nil {
			return policy.Policy{}, pathError(procName, colTitle, "%s: sentinel: %s", key, err)
		}
		k := policy.Previous
		if kind == "sentinel" {
			k = policy.Sentinel
		}
		return policy.Policy{Kind: k, Sentinel: v}, nil
	default:
		return policy.Policy{}, pathError(procName, colTitle, "%s: unknown policy %q", key, kind)
	}
}

// valueFromNode decodes a YAML scalar node into a value.Value of type t.
func valueFromNode(n *yaml.Node, t value.Type) (value.Value, error) {
	switch t {
	case value.Boolean:
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Value{}, fmt.Errorf("expected a boolean")
		}
		return value.Bool(b), nil
	case value.Integer:
		var i int64
		if err := n.Decode(&i); err != nil {
			return value.Value{}, fmt.Errorf("expected an integer")
		}
		return value.Int(i), nil
	case value.Real:
		var f float64
		if err := n.Decode(&f); err != nil {
			return value.Value{}, fmt.Errorf("expected a real number")
		}
		return value.Flt(f), nil
	case value.String:
		var s string
		if err := n.Decode(&s); err != nil {
			return value.Value{}, fmt.Errorf("expected a string")
		}
		return value.Str(s), nil
	default:
		return value.Value{}, fmt.Errorf("unknown column-type")
	}
}
