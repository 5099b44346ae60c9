// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package value

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		raw     string
		want    Value
		wantErr bool
	}{
		{"integer", Integer, "42", Int(42), false},
		{"negative integer", Integer, "-7", Int(-7), false},
		{"real", Real, "3.5", Flt(3.5), false},
		{"boolean true", Boolean, "true", Bool(true), false},
		{"boolean false", Boolean, "false", Bool(false), false},
		{"string verbatim", String, "hello", Str("hello"), false},
		{"string preserves whitespace", String, " hi ", Str(" hi "), false},
		{"bad integer", Integer, " 1", Value{}, true},
		{"bad boolean", Boolean, "yes", Value{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.typ, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !got.Equal(tt.want) {
				t.Errorf("Parse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	if !Int(5).Equal(Int(5)) {
		t.Error("Int(5) should equal Int(5)")
	}
	if Int(5).Equal(Flt(5)) {
		t.Error("values of different tags should never be equal")
	}
	if Str("a").Equal(Str("b")) {
		t.Error("different strings should not be equal")
	}
}

func TestValueLess(t *testing.T) {
	if !Int(1).Less(Int(2)) {
		t.Error("1 < 2")
	}
	if Int(2).Less(Int(1)) {
		t.Error("2 is not < 1")
	}
	if !Str("a").Less(Str("b")) {
		t.Error("\"a\" < \"b\"")
	}
}

func TestTypeParse(t *testing.T) {
	for _, s := range []string{"boolean", "integer", "real", "string"} {
		typ, err := ParseType(s)
		if err != nil {
			t.Fatalf("ParseType(%q) unexpected error: %v", s, err)
		}
		if typ.String() != s {
			t.Errorf("ParseType(%q).String() = %q", s, typ.String())
		}
	}
	if _, err := ParseType("float"); err == nil {
		t.Error("expected an error for an unknown column-type")
	}
}

func TestTypeOrderedAndNumeric(t *testing.T) {
	if Boolean.IsOrdered() {
		t.Error("boolean is not ordered")
	}
	if !Integer.IsNumeric() || !Real.IsNumeric() {
		t.Error("integer and real are numeric")
	}
	if String.IsNumeric() {
		t.Error("string is not numeric")
	}
}
