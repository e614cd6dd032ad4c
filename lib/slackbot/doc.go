// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package slackbot is the bridge's face toward the messaging platform:
// the Events API webhook intake (signature verification, the URL
// verification handshake, message filtering, deduplicated dispatch),
// the outbound message sender, and the formatter that renders pipeline
// outcomes as mrkdwn.
package slackbot
