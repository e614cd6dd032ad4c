// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package slackbot

import (
	"fmt"
	"strings"

	"github.com/taskbridge/taskbridge/lib/extract"
	"github.com/taskbridge/taskbridge/lib/freedcamp"
	"github.com/taskbridge/taskbridge/lib/task"
)

// FormatOutcome renders the detailed user-facing message for one
// processed request. Pure function of its inputs.
//
// Three renderings:
//   - extraction failed: just the error, nothing to show;
//   - task extracted and ticket filed: the task fields plus the
//     ticket id and link;
//   - task extracted but filing failed: the task fields plus the
//     failure reason; "task understood" must read distinctly from
//     "ticket filed".
func FormatOutcome(outcome extract.Outcome, creation freedcamp.CreationResult) string {
	if !outcome.OK() {
		return ":warning: " + outcome.Err
	}

	var builder strings.Builder
	emoji := ":clipboard:"
	if !creation.Success {
		emoji = ":warning:"
	}
	fmt.Fprintf(&builder, "%s *Task Details*\n\n", emoji)
	writeTaskFields(&builder, outcome.Task)

	if creation.Success {
		fmt.Fprintf(&builder, "\n\n*Freedcamp Information*\n*Task ID:* %s\n*Task URL:* <%s|Open in Freedcamp>",
			creation.TaskID, creation.TaskURL)
	} else {
		fmt.Fprintf(&builder, "\n\n:warning: The task was understood but could not be filed: %s", creation.Error)
	}
	return builder.String()
}

// FormatConfirmation renders the short follow-up line. Empty when
// extraction failed (the detail message already carries the error).
func FormatConfirmation(outcome extract.Outcome, creation freedcamp.CreationResult) string {
	if !outcome.OK() {
		return ""
	}
	if creation.Success {
		return fmt.Sprintf(":white_check_mark: Task '%s' created successfully in Freedcamp!", outcome.Task.Title)
	}
	return fmt.Sprintf(":warning: Task created but Freedcamp integration failed: %s", creation.Error)
}

func writeTaskFields(builder *strings.Builder, item *task.Task) {
	dueDate := item.DueDate
	if dueDate == "" {
		dueDate = "Not specified"
	}
	fmt.Fprintf(builder, "*Title:* %s\n*Description:* %s\n*Assignee:* %s\n*Priority:* %s\n*Due Date:* %s",
		item.Title, item.Description, item.Assignee, item.Priority, dueDate)
}
