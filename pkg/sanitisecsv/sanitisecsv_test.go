// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package sanitisecsv

import (
	"strings"
	"testing"

	"github.com/bitjungle/sanitise/pkg/config"
	"github.com/bitjungle/sanitise/pkg/value"
)

const s1Config = `
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

func TestRunS1Scenario(t *testing.T) {
	prog, err := config.Load(strings.NewReader(s1Config))
	if err != nil {
		t.Fatalf("config.Load() unexpected error: %v", err)
	}

	input := "time,pulse,movement\n0,67,0\n15,45,1\n126,132,1\n"
	results, err := Run(input, prog)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 section, got %d", len(results))
	}
	final := results[0].Results[0]

	wantTime := []string{"0", "15", "126"}
	gotTime := stringsOf(final.Columns["time"])
	if !equalStrings(gotTime, wantTime) {
		t.Errorf("time = %v, want %v", gotTime, wantTime)
	}

	wantPulse := []string{"67", "45", "45"}
	gotPulse := stringsOf(final.Columns["pulse"])
	if !equalStrings(gotPulse, wantPulse) {
		t.Errorf("pulse = %v, want %v", gotPulse, wantPulse)
	}

	wantMovement := []string{"false", "true", "true"}
	gotMovement := stringsOf(final.Columns["movement"])
	if !equalStrings(gotMovement, wantMovement) {
		t.Errorf("movement = %v, want %v", gotMovement, wantMovement)
	}
}

func TestFormatRoundTripsHeaderAndRows(t *testing.T) {
	prog, err := config.Load(strings.NewReader(s1Config))
	if err != nil {
		t.Fatalf("config.Load() unexpected error: %v", err)
	}
	input := "time,pulse,movement\n0,67,0\n15,45,1\n126,132,1\n"
	results, err := Run(input, prog)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	text := Format(results[0].Results[0])
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if lines[0] != "time,pulse,movement" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("expected 1 header + 3 rows, got %d lines", len(lines))
	}
}

const ignoredColumnConfig = `
processes:
  - name: validate
    columns:
      - title: id
        ignore: true
      - title: amount
        column-type: real
        output: value
`

// TestIgnoredColumnRawTextNeverTypeChecked confirms that an ignore: true
// column's raw field is carried along purely for row-length validation
// and never run through value.Parse, even when its text is not a valid
// literal of any declared type.
func TestIgnoredColumnRawTextNeverTypeChecked(t *testing.T) {
	prog, err := config.Load(strings.NewReader(ignoredColumnConfig))
	if err != nil {
		t.Fatalf("config.Load() unexpected error: %v", err)
	}

	input := "id,amount\nfree-text-not-a-number,1.5\n,2.5\n"
	results, err := Run(input, prog)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	final := results[0].Results[0]

	if _, ok := final.Columns["id"]; ok {
		t.Error("ignored column should not appear in the output")
	}
	wantAmount := []string{"1.5", "2.5"}
	gotAmount := stringsOf(final.Columns["amount"])
	if !equalStrings(gotAmount, wantAmount) {
		t.Errorf("amount = %v, want %v", gotAmount, wantAmount)
	}
}

func TestParseSectionsRejectsWrongArity(t *testing.T) {
	prog, err := config.Load(strings.NewReader(s1Config))
	if err != nil {
		t.Fatalf("config.Load() unexpected error: %v", err)
	}
	_, err = ParseSections("time,pulse,movement\n1,2\n", prog)
	if err == nil {
		t.Fatal("expected a structural error for wrong field count")
	}
}

func stringsOf(vs []value.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
