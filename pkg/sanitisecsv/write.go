// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package sanitisecsv

import (
	"strings"

	"github.com/bitjungle/sanitise/pkg/program"
)

// Format renders one Result back into the §6 text format: header line of
// non-ignored column titles, one data line per row, "\n" separated, with
// a trailing newline.
func Format(res *program.Result) string {
	var b strings.Builder
	b.WriteString(strings.Join(res.Order, ","))
	b.WriteByte('\n')

	n := 0
	if len(res.Order) > 0 {
		n = len(res.Columns[res.Order[0]])
	}
	for r := 0; r < n; r++ {
		for i, title := range res.Order {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(res.Columns[title][r].String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
