// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs one message through the full
// extract → resolve → file → report sequence. The webhook layer hands
// each admitted direct message to [Pipeline.HandleMessage]; everything
// after the intake acknowledgment happens here.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskbridge/taskbridge/lib/extract"
	"github.com/taskbridge/taskbridge/lib/freedcamp"
	"github.com/taskbridge/taskbridge/lib/sheet"
	"github.com/taskbridge/taskbridge/lib/slackbot"
	"github.com/taskbridge/taskbridge/lib/task"
)

// acknowledgment is posted before any slow work starts, so the sender
// knows the message was picked up.
const acknowledgment = "Processing your request... :hourglass_flowing_sand:"

// defaultRunTimeout bounds one complete message run.
const defaultRunTimeout = 60 * time.Second

// TicketFiler files one task and reports the normalized outcome.
// Implemented by [freedcamp.Client].
type TicketFiler interface {
	CreateTask(ctx context.Context, item task.Task, assigneeID int) freedcamp.CreationResult
}

// AssigneeResolver maps an extracted assignee handle to a ticketing
// user id. Implemented by [freedcamp.Directory].
type AssigneeResolver interface {
	Resolve(handleOrName string) int
}

// Config configures a Pipeline.
type Config struct {
	// Extractor turns message text into a task. Required.
	Extractor *extract.Extractor

	// Filer creates the ticket. Required.
	Filer TicketFiler

	// Resolver maps assignee handles to user ids. Required.
	Resolver AssigneeResolver

	// Sender posts responses back to the originating channel. Required.
	Sender slackbot.Sender

	// Appender records filed tasks in the audit spreadsheet. Optional;
	// nil disables the audit trail.
	Appender sheet.Appender

	// RunTimeout bounds one complete run. Defaults to 60 seconds.
	RunTimeout time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Pipeline processes admitted messages end to end.
type Pipeline struct {
	extractor  *extract.Extractor
	filer      TicketFiler
	resolver   AssigneeResolver
	sender     slackbot.Sender
	appender   sheet.Appender
	runTimeout time.Duration
	logger     *slog.Logger
}

// New creates a Pipeline.
func New(config Config) *Pipeline {
	if config.Extractor == nil {
		panic("pipeline.Pipeline: Extractor is required")
	}
	if config.Filer == nil {
		panic("pipeline.Pipeline: Filer is required")
	}
	if config.Resolver == nil {
		panic("pipeline.Pipeline: Resolver is required")
	}
	if config.Sender == nil {
		panic("pipeline.Pipeline: Sender is required")
	}
	if config.Logger == nil {
		panic("pipeline.Pipeline: Logger is required")
	}
	runTimeout := config.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}
	return &Pipeline{
		extractor:  config.Extractor,
		filer:      config.Filer,
		resolver:   config.Resolver,
		sender:     config.Sender,
		appender:   config.Appender,
		runTimeout: runTimeout,
		logger:     config.Logger,
	}
}

// HandleMessage runs one admitted direct message through the pipeline.
// Every failure along the way is reported back to the sender as a
// formatted message; nothing here returns an error because by the time
// the pipeline runs, the webhook has already been acknowledged and the
// user's channel is the only place left to report to.
func (pipeline *Pipeline) HandleMessage(ctx context.Context, event slackbot.MessageEvent) {
	ctx, cancel := context.WithTimeout(ctx, pipeline.runTimeout)
	defer cancel()

	logger := pipeline.logger.With(
		"run_id", uuid.NewString(),
		"event_id", event.EventID,
		"channel", event.Channel,
	)
	logger.Info("processing message", "user", event.User)

	if err := pipeline.sender.SendMessage(ctx, event.Channel, acknowledgment); err != nil {
		// The channel may still accept the final message, so keep going.
		logger.Warn("posting acknowledgment failed", "error", err)
	}

	outcome := pipeline.extractor.Extract(ctx, event.Text, event.Channel)

	var creation freedcamp.CreationResult
	if outcome.OK() {
		assigneeID := pipeline.resolver.Resolve(outcome.Task.Assignee)
		if assigneeID == freedcamp.UnassignedID {
			logger.Info("assignee not found, filing unassigned",
				"assignee", outcome.Task.Assignee)
		}
		creation = pipeline.filer.CreateTask(ctx, *outcome.Task, assigneeID)
		if creation.Success {
			logger.Info("ticket filed", "task_id", creation.TaskID)
			pipeline.appendAuditRow(ctx, logger, *outcome.Task)
		} else {
			logger.Warn("ticket creation failed", "error", creation.Error)
		}
	} else {
		logger.Info("extraction failed", "error", outcome.Err)
	}

	pipeline.post(ctx, logger, event.Channel, slackbot.FormatOutcome(outcome, creation))
	pipeline.post(ctx, logger, event.Channel, slackbot.FormatConfirmation(outcome, creation))
}

// appendAuditRow is best effort: the ticket already exists, so an audit
// failure is logged and otherwise ignored.
func (pipeline *Pipeline) appendAuditRow(ctx context.Context, logger *slog.Logger, item task.Task) {
	if pipeline.appender == nil {
		return
	}
	row, err := pipeline.appender.Append(ctx, item)
	if err != nil {
		logger.Warn("audit append failed", "error", err)
		return
	}
	logger.Info("audit row appended", "row", row)
}

func (pipeline *Pipeline) post(ctx context.Context, logger *slog.Logger, channel, text string) {
	if text == "" {
		return
	}
	if err := pipeline.sender.SendMessage(ctx, channel, text); err != nil {
		logger.Error("posting response failed", "error", err)
	}
}
