// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the canonical work-item record extracted from a
// Slack message and the validation rules that gate everything the
// language model emits before it reaches a downstream API.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency of a task. Only the three enumerated values
// are representable; Validate rejects anything else.
type Priority string

const (
	// PriorityUrgent (P0) is for drop-everything work.
	PriorityUrgent Priority = "P0"
	// PriorityHigh (P1) is for important but schedulable work.
	PriorityHigh Priority = "P1"
	// PriorityNormal (P2) is the default.
	PriorityNormal Priority = "P2"
)

// Valid reports whether the priority is one of the enumerated values.
func (priority Priority) Valid() bool {
	switch priority {
	case PriorityUrgent, PriorityHigh, PriorityNormal:
		return true
	}
	return false
}

// dueDateLayout is the wire format for due dates (ISO-8601 date).
const dueDateLayout = "2006-01-02"

// Task is a structured work item. It is constructed once by the
// extractor, validated, and immutable thereafter; the Freedcamp client
// and the response formatter only read it. Nothing in this process
// persists it.
type Task struct {
	// Title is a short, non-empty summary.
	Title string `json:"title"`

	// Description carries all extracted detail. May be empty.
	Description string `json:"description"`

	// Assignee is the handle or email as the messaging platform knows
	// it (e.g. "@ana"). Resolution to a Freedcamp user id happens at
	// creation time.
	Assignee string `json:"assignee"`

	// DueDate is an ISO YYYY-MM-DD date, or empty for "not specified".
	DueDate string `json:"due_date,omitempty"`

	// Priority is one of P0, P1, P2.
	Priority Priority `json:"priority"`

	// SourceChannel is the originating conversation id, carried
	// through for traceability.
	SourceChannel string `json:"source_channel"`
}

// Validate checks the structural invariants: non-empty title, priority
// in the enumerated set, due date absent or a real YYYY-MM-DD date.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task: title is empty")
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("task: priority %q is not one of P0, P1, P2", t.Priority)
	}
	if t.DueDate != "" {
		if _, err := time.Parse(dueDateLayout, t.DueDate); err != nil {
			return fmt.Errorf("task: due date %q is not a YYYY-MM-DD date", t.DueDate)
		}
	}
	return nil
}
