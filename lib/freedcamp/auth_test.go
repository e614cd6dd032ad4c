// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package freedcamp

import (
	"testing"
	"time"
)

func TestSignDeterministic(t *testing.T) {
	t.Parallel()

	now := time.Unix(1714000000, 0)

	first, err := Sign("secret", "key", now)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	second, err := Sign("secret", "key", now)
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if first != second {
		t.Errorf("Sign() not deterministic: %+v vs %+v", first, second)
	}
	if first.APIKey != "key" {
		t.Errorf("APIKey = %q, want key", first.APIKey)
	}
	if first.Timestamp != "1714000000" {
		t.Errorf("Timestamp = %q, want 1714000000", first.Timestamp)
	}
	if len(first.Hash) != 40 {
		t.Errorf("Hash length = %d, want 40 hex chars (SHA-1)", len(first.Hash))
	}
}

func TestSignDiffersByTimestamp(t *testing.T) {
	t.Parallel()

	first, err := Sign("secret", "key", time.Unix(1714000000, 0))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	second, err := Sign("secret", "key", time.Unix(1714000001, 0))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}

	if first.Hash == second.Hash {
		t.Error("signatures at different timestamps are equal")
	}
}

func TestSignMissingCredentials(t *testing.T) {
	t.Parallel()

	if _, err := Sign("", "key", time.Now()); err == nil {
		t.Error("Sign() with empty secret = nil, want error")
	}
	if _, err := Sign("secret", "", time.Now()); err == nil {
		t.Error("Sign() with empty key = nil, want error")
	}
}
