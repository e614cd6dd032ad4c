// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Taskbridge bridges chat into a ticket tracker. It listens for Slack
// Events API callbacks, extracts a structured task from each direct
// message with a language-model call, files the task in Freedcamp, and
// reports the result back to the sender. Filed tasks are optionally
// appended to a Google Sheets audit log.
//
// Non-secret settings come from a YAML file named by --config or
// TASKBRIDGE_CONFIG. Secrets come from the environment (a local .env
// file is loaded when present):
//   - SLACK_BOT_TOKEN, SLACK_SIGNING_SECRET
//   - OPENAI_API_KEY
//   - FREEDCAMP_API_KEY, FREEDCAMP_API_SECRET
//   - SHEETS_ACCESS_TOKEN (optional, enables the audit log)
package main
