// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package expr

import (
	"testing"

	"github.com/bitjungle/sanitise/pkg/value"
)

func compileOrFatal(t *testing.T, src string, env Env, want value.Type) *Program {
	t.Helper()
	p, err := Compile(src, env, want, "col")
	if err != nil {
		t.Fatalf("Compile(%q) unexpected error: %v", src, err)
	}
	return p
}

func TestCompileAndEvalArithmetic(t *testing.T) {
	env := Env{"value": value.Integer}
	p := compileOrFatal(t, "value + 1", env, value.Integer)
	got, err := p.Eval(map[string]value.Value{"value": value.Int(41)})
	if err != nil {
		t.Fatalf("Eval unexpected error: %v", err)
	}
	if !got.Equal(value.Int(42)) {
		t.Errorf("got %v, want 42", got)
	}
}

func TestIntegerDivisionTruncatesTowardZero(t *testing.T) {
	env := Env{"value": value.Integer}
	p := compileOrFatal(t, "value / 2", env, value.Integer)
	got, err := p.Eval(map[string]value.Value{"value": value.Int(-7)})
	if err != nil {
		t.Fatalf("Eval unexpected error: %v", err)
	}
	if !got.Equal(value.Int(-3)) {
		t.Errorf("-7 / 2 = %v, want -3 (truncation toward zero)", got)
	}
}

func TestModuloTakesDividendSign(t *testing.T) {
	env := Env{"value": value.Integer}
	p := compileOrFatal(t, "value % 3", env, value.Integer)
	got, err := p.Eval(map[string]value.Value{"value": value.Int(-7)})
	if err != nil {
		t.Fatalf("Eval unexpected error: %v", err)
	}
	if !got.Equal(value.Int(-1)) {
		t.Errorf("-7 %% 3 = %v, want -1", got)
	}
}

func TestComparisonAndBooleanOutput(t *testing.T) {
	env := Env{"value": value.Integer}
	p := compileOrFatal(t, "value == 1", env, value.Boolean)
	got, err := p.Eval(map[string]value.Value{"value": value.Int(1)})
	if err != nil {
		t.Fatalf("Eval unexpected error: %v", err)
	}
	if !got.Equal(value.Bool(true)) {
		t.Errorf("got %v, want true", got)
	}
}

func TestBuiltinFunctions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		env  Env
		want value.Type
		bind map[string]value.Value
		out  value.Value
	}{
		{"ceiling", "ceiling(value)", Env{"value": value.Real}, value.Real, map[string]value.Value{"value": value.Flt(1.2)}, value.Flt(2)},
		{"floor", "floor(value)", Env{"value": value.Real}, value.Real, map[string]value.Value{"value": value.Flt(1.8)}, value.Flt(1)},
		{"round", "round(value)", Env{"value": value.Real}, value.Real, map[string]value.Value{"value": value.Flt(1.5)}, value.Flt(2)},
		{"concat", `concat(value, "b")`, Env{"value": value.String}, value.String, map[string]value.Value{"value": value.Str("a")}, value.Str("ab")},
		{"integer conversion", "integer(value)", Env{"value": value.Real}, value.Integer, map[string]value.Value{"value": value.Flt(3.9)}, value.Int(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compileOrFatal(t, tt.src, tt.env, tt.want)
			got, err := p.Eval(tt.bind)
			if err != nil {
				t.Fatalf("Eval unexpected error: %v", err)
			}
			if !got.Equal(tt.out) {
				t.Errorf("got %v, want %v", got, tt.out)
			}
		})
	}
}

func TestSiblingBinding(t *testing.T) {
	env := Env{"value": value.Integer, "value_other": value.Integer}
	p := compileOrFatal(t, "value + value_other", env, value.Integer)
	got, err := p.Eval(map[string]value.Value{"value": value.Int(1), "value_other": value.Int(2)})
	if err != nil {
		t.Fatalf("Eval unexpected error: %v", err)
	}
	if !got.Equal(value.Int(3)) {
		t.Errorf("got %v, want 3", got)
	}
}

func TestCompileRejectsUndeclaredIdentifier(t *testing.T) {
	_, err := Compile("missing", Env{"value": value.Integer}, value.Integer, "col")
	if err == nil {
		t.Fatal("expected an error for an undeclared identifier")
	}
}

func TestCompileRejectsTypeMismatch(t *testing.T) {
	_, err := Compile("value", Env{"value": value.Integer}, value.Boolean, "col")
	if err == nil {
		t.Fatal("expected an error when the expression's type does not match output_type")
	}
}

func TestCompileRejectsWrongArity(t *testing.T) {
	_, err := Compile("concat(value)", Env{"value": value.String}, value.String, "col")
	if err == nil {
		t.Fatal("expected an arity error for concat with one argument")
	}
}

func TestCompileRejectsCeilingOnInteger(t *testing.T) {
	_, err := Compile("ceiling(value)", Env{"value": value.Integer}, value.Real, "col")
	if err == nil {
		t.Fatal("ceiling() should be rejected for a non-real argument")
	}
}

func TestUnparseableStringConversionFailsAtRuntimeNotCompile(t *testing.T) {
	p := compileOrFatal(t, "integer(value)", Env{"value": value.String}, value.Integer)
	if _, err := p.Eval(map[string]value.Value{"value": value.Str("not a number")}); err == nil {
		t.Fatal("expected a runtime conversion error")
	}
}
