// Copyright 2025 bitjungle - Rune Mathisen. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE file.
// The author respectfully requests that it not be used for
// military, warfare, or surveillance applications.

// Package policy defines the repair policies a Column declares for
// invalid and null cells.
package policy

import (
	"fmt"

	"github.com/bitjungle/sanitise/pkg/value"
)

// Kind enumerates the repair strategies a Column can declare for
// on-invalid / on-null.
type Kind int

const (
	// Abort fails the whole pipeline with a line-tagged error.
	Abort Kind = iota
	// Average enters invalid mode until a streak of valid values closes it.
	Average
	// Delete signals "drop this entire row".
	Delete
	// Previous emits the last previously-emitted output, or a sentinel.
	Previous
	// Sentinel emits a fixed value.
	Sentinel
)

// String names the policy the way configuration documents spell it.
func (k Kind) String() string {
	switch k {
	case Abort:
		return "abort"
	case Average:
		return "average"
	case Delete:
		return "delete"
	case Previous:
		return "previous"
	case Sentinel:
		return "sentinel"
	default:
		return "unknown"
	}
}

// Policy is one concrete on-invalid or on-null declaration.
type Policy struct {
	Kind     Kind
	Streak   int         // Average: positive streak length k.
	Sentinel value.Value // Previous / Sentinel: the fallback/emit value.
}

// Validate checks the policy's own internal constraints (streak positivity,
// sentinel presence) independent of the owning column's type.
func (p Policy) Validate() error {
	switch p.Kind {
	case Average:
		if p.Streak <= 0 {
			return fmt.Errorf("valid-streak must be a positive integer")
		}
	case Previous, Sentinel:
		// Sentinel value presence is enforced by the config loader, which
		// rejects a previous/sentinel policy that has no sentinel key.
	}
	return nil
}

// CompatibleWithInvalid reports whether this OnNull policy is allowed to
// accompany the given OnInvalid policy, per spec §3: average OnNull is
// only permitted when OnInvalid is also average, with the same streak.
func (p Policy) CompatibleWithInvalid(onInvalid Policy) error {
	if p.Kind == Average {
		if onInvalid.Kind != Average {
			return fmt.Errorf("on-null: average requires on-invalid: average")
		}
		if p.Streak != onInvalid.Streak {
			return fmt.Errorf("on-null average streak (%d) must match on-invalid average streak (%d)", p.Streak, onInvalid.Streak)
		}
	}
	return nil
}
