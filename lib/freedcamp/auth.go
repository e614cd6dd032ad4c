// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package freedcamp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/url"
	"strconv"
	"time"
)

// AuthParams is the per-request authentication triple the API expects
// in the query string. Values are ephemeral: computed fresh for each
// outbound call and never stored or reused.
type AuthParams struct {
	// APIKey is the public key identifying the caller.
	APIKey string

	// Timestamp is the current Unix time as a decimal string.
	Timestamp string

	// Hash is the hex HMAC-SHA1 of APIKey||Timestamp keyed by the
	// API secret.
	Hash string
}

// Sign computes the authentication parameters for one request.
// Deterministic for a fixed (secret, key, now) triple, which keeps it
// unit-testable without network access. Returns an error when the key
// or secret is missing, a configuration problem that must surface
// before any network call is attempted.
func Sign(secret, key string, now time.Time) (AuthParams, error) {
	if key == "" || secret == "" {
		return AuthParams{}, errors.New("freedcamp: API key or secret is not configured")
	}

	timestamp := strconv.FormatInt(now.Unix(), 10)

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(key + timestamp))

	return AuthParams{
		APIKey:    key,
		Timestamp: timestamp,
		Hash:      hex.EncodeToString(mac.Sum(nil)),
	}, nil
}

// apply adds the authentication triple to a query string.
func (params AuthParams) apply(query url.Values) {
	query.Set("api_key", params.APIKey)
	query.Set("timestamp", params.Timestamp)
	query.Set("hash", params.Hash)
}
