// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package freedcamp is a client for the Freedcamp public API v1,
// covering the three operations the bridge needs: creating a task,
// listing users, and listing task groups. Every request is
// authenticated with time-boxed HMAC parameters computed by [Sign].
//
// Task creation normalizes the several response envelope shapes the
// API has been observed to return into a single [CreationResult];
// callers never see the raw nesting differences.
package freedcamp
