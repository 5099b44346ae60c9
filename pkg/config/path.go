// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

package config

import (
	"fmt"

	"github.com/bitjungle/sanitise/pkg/value"
)

// pathError builds a *value.SanitiseError whose message is localised to
// the offending process/column, e.g. "process 'validate', column
// 'pulse': ...", mirroring the accumulate-and-wrap pattern of the
// teacher's schema validator.
func pathError(process, column, format string, args ...interface{}) *value.SanitiseError {
	msg := fmt.Sprintf(format, args...)
	switch {
	case process != "" && column != "":
		msg = fmt.Sprintf("process %q, column %q: %s", process, column, msg)
	case process != "":
		msg = fmt.Sprintf("process %q: %s", process, msg)
	}
	return value.NewConfigError("", msg)
}
