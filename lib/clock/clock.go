// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts wall-clock reads so that time-dependent
// logic (request signing, event spacing) is deterministic under test.
package clock

import "time"

// Clock provides the current time. Production code injects Real();
// tests inject a Fake with explicit time control.
//
// Every function that would call time.Now should accept a Clock (or
// be a method on a struct with a Clock field) instead of calling the
// time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
