// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package config

import (
	"strings"
	"testing"

	"github.com/bitjungle/sanitise/pkg/policy"
	"github.com/bitjungle/sanitise/pkg/value"
)

// canonicalYAML is the S1 scenario from the spec's concrete test cases.
const canonicalYAML = `
processes:
  - name: validate
    columns:
      - title: time
        column-type: integer
        output: value
      - title: pulse
        column-type: integer
        min: 40
        max: 100
        on-invalid: average
        valid-streak: 3
        output: value
      - title: movement
        column-type: integer
        valid-values: [0, 1]
        output-type: boolean
        output: "value == 1"
`

func TestLoadCanonicalConfig(t *testing.T) {
	prog, err := Load(strings.NewReader(canonicalYAML))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(prog.Processes) != 1 {
		t.Fatalf("expected 1 process, got %d", len(prog.Processes))
	}
	proc := prog.Processes[0]
	if proc.Name != "validate" {
		t.Errorf("process name = %q, want %q", proc.Name, "validate")
	}
	if len(proc.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(proc.Columns))
	}

	pulse := proc.Columns[1]
	if pulse.OnInvalid.Kind != policy.Average || pulse.OnInvalid.Streak != 3 {
		t.Errorf("pulse.OnInvalid = %+v, want average(3)", pulse.OnInvalid)
	}
	if pulse.Min == nil || !pulse.Min.Equal(value.Int(40)) {
		t.Errorf("pulse.Min = %v, want 40", pulse.Min)
	}

	movement := proc.Columns[2]
	if movement.OutputType != value.Boolean {
		t.Errorf("movement.OutputType = %s, want boolean", movement.OutputType)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	doc := `
processes:
  - name: p
    columns:
      - title: x
        column-type: integer
        output: value
        bogus-key: 1
`
	_, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected an error for an unknown key")
	}
}

func TestLoadRejectsAverageWithoutStreak(t *testing.T) {
	doc := `
processes:
  - name: p
    columns:
      - title: x
        column-type: integer
        on-invalid: average
        output: value
`
	_, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected an error: average requires valid-streak")
	}
}

func TestLoadAcceptsAverageOnBothInvalidAndNull(t *testing.T) {
	// valid-streak is a single per-column field, so an on-null: average
	// declared alongside on-invalid: average always shares its streak;
	// the mismatch path in policy.CompatibleWithInvalid is exercised
	// directly in pkg/policy's own tests.
	doc := `
processes:
  - name: p
    columns:
      - title: x
        column-type: integer
        on-invalid: average
        on-null: average
        valid-streak: 3
        output: value
`
	prog, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	x := prog.Processes[0].Columns[0]
	if x.OnInvalid.Streak != 3 || x.OnNull.Streak != 3 {
		t.Errorf("expected both policies to share streak 3, got onInvalid=%d onNull=%d", x.OnInvalid.Streak, x.OnNull.Streak)
	}
}

func TestLoadRejectsIgnoredColumnWithExtraKeys(t *testing.T) {
	doc := `
processes:
  - name: p
    columns:
      - title: x
        ignore: true
        column-type: integer
`
	_, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected an error: ignore: true forbids other keys")
	}
}

func TestLoadRejectsUndeclaredAggregateColumn(t *testing.T) {
	doc := `
processes:
  - name: p
    aggregate-column: missing
    columns:
      - title: x
        column-type: integer
        output: value
`
	_, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected an error: aggregate-column must name a declared column")
	}
}

func TestLoadSiblingEnvironmentExcludesSelf(t *testing.T) {
	doc := `
processes:
  - name: p
    columns:
      - title: a
        column-type: integer
        output: value
      - title: b
        column-type: integer
        output: value + value_a
`
	prog, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if prog.Processes[0].Columns[1].Output == nil {
		t.Fatal("expected column b's output expression to compile")
	}
}
