// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

// Package config parses the YAML configuration document of spec §4.A
// into a typed, validated program.Program.
package config

import "gopkg.in/yaml.v3"

// rawProgram mirrors the root mapping: {processes, on-title}. Decoding it
// with a KnownFields(true) decoder (see Load) makes any unrecognized key,
// at any nesting depth, a structural error — spec §4.A: "Unknown keys at
// any level are errors."
type rawProgram struct {
	Processes []rawProcess `yaml:"processes"`
	OnTitle   string       `yaml:"on-title"`
}

type rawProcess struct {
	Name            string      `yaml:"name"`
	Columns         []rawColumn `yaml:"columns"`
	AggregateColumn string      `yaml:"aggregate-column"`
}

// rawColumn mirrors the per-column keys of spec §4.A. Constant-bearing
// fields (bounds, sentinels, whitelist/blacklist, null surrogates) are
// kept as yaml.Node so they can be decoded once the column's types are
// known (see valueFromNode in load.go): bounds, whitelist/blacklist and
// null surrogates against column-type, sentinels against output-type.
type rawColumn struct {
	Title           string      `yaml:"title"`
	ColumnType      string      `yaml:"column-type"`
	OutputType      string      `yaml:"output-type"`
	NullSurrogates  []yaml.Node `yaml:"null-surrogates"`
	ValidValues     []yaml.Node `yaml:"valid-values"`
	InvalidValues   []yaml.Node `yaml:"invalid-values"`
	Min             *yaml.Node  `yaml:"min"`
	Max             *yaml.Node  `yaml:"max"`
	OnInvalid       string      `yaml:"on-invalid"`
	OnNull          string      `yaml:"on-null"`
	InvalidSentinel *yaml.Node  `yaml:"invalid-sentinel"`
	NullSentinel    *yaml.Node  `yaml:"null-sentinel"`
	ValidStreak     *int        `yaml:"valid-streak"`
	Aggregate       string      `yaml:"aggregate"`
	Ignore          bool        `yaml:"ignore"`
	Output          string      `yaml:"output"`
}
