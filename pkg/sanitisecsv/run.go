// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package sanitisecsv

import "github.com/bitjungle/sanitise/pkg/program"

// Run executes prog against raw CSV text end to end (spec §6): split
// into sections per on-title, run the process chain over each section,
// and return one ChainResult per section. Under on-title: once and
// on-title: combine this is always a single-element slice; under
// on-title: split it has one element per header-delimited section.
func Run(text string, prog *program.Program) ([]*program.ChainResult, error) {
	sections, err := ParseSections(text, prog)
	if err != nil {
		return nil, err
	}
	results := make([]*program.ChainResult, len(sections))
	for i, sec := range sections {
		res, err := program.RunProgram(prog, sec.Rows)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}
