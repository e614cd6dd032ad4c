// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/taskbridge/taskbridge/lib/extract"
	"github.com/taskbridge/taskbridge/lib/freedcamp"
	"github.com/taskbridge/taskbridge/lib/llm"
	"github.com/taskbridge/taskbridge/lib/slackbot"
	"github.com/taskbridge/taskbridge/lib/task"
)

// scriptedProvider returns a fixed completion text.
type scriptedProvider struct {
	text string
	err  error
}

func (provider *scriptedProvider) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	if provider.err != nil {
		return nil, provider.err
	}
	return &llm.Response{Text: provider.text}, nil
}

// recordingSender collects every posted message.
type recordingSender struct {
	mu       sync.Mutex
	messages []string
	channels []string
}

func (sender *recordingSender) SendMessage(ctx context.Context, channelID, text string) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.channels = append(sender.channels, channelID)
	sender.messages = append(sender.messages, text)
	return nil
}

func (sender *recordingSender) sent() []string {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return append([]string(nil), sender.messages...)
}

// scriptedFiler returns a fixed creation result and records its input.
type scriptedFiler struct {
	result    freedcamp.CreationResult
	gotTask   task.Task
	gotUserID int
	callCount int
}

func (filer *scriptedFiler) CreateTask(ctx context.Context, item task.Task, assigneeID int) freedcamp.CreationResult {
	filer.callCount++
	filer.gotTask = item
	filer.gotUserID = assigneeID
	return filer.result
}

// mapResolver resolves from a fixed table.
type mapResolver map[string]int

func (resolver mapResolver) Resolve(handleOrName string) int {
	return resolver[strings.ToLower(strings.TrimPrefix(handleOrName, "@"))]
}

// recordingAppender records appended tasks.
type recordingAppender struct {
	tasks []task.Task
	err   error
}

func (appender *recordingAppender) Append(ctx context.Context, item task.Task) (int, error) {
	appender.tasks = append(appender.tasks, item)
	if appender.err != nil {
		return 0, appender.err
	}
	return len(appender.tasks) + 1, nil
}

const successDraft = `{
  "status": "success",
  "message": "extracted",
  "task": {
    "title": "Fix login flow",
    "description": "Users on SSO cannot sign in",
    "assignee": "@alice",
    "priority": "P1"
  }
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, provider llm.Provider, filer TicketFiler, sender slackbot.Sender, appender *recordingAppender) *Pipeline {
	t.Helper()
	extractor := extract.New(extract.Config{
		Provider: provider,
		Model:    "gpt-4o",
		Logger:   testLogger(),
	})
	config := Config{
		Extractor: extractor,
		Filer:     filer,
		Resolver:  mapResolver{"alice": 42},
		Sender:    sender,
		Logger:    testLogger(),
	}
	if appender != nil {
		config.Appender = appender
	}
	return New(config)
}

func TestHandleMessageSuccess(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	filer := &scriptedFiler{result: freedcamp.CreationResult{
		Success: true,
		TaskID:  "9001",
		TaskURL: "https://freedcamp.com/view/123/tasks/9001",
	}}
	appender := &recordingAppender{}
	pipeline := newPipeline(t, &scriptedProvider{text: successDraft}, filer, sender, appender)

	pipeline.HandleMessage(context.Background(), slackbot.MessageEvent{
		EventID: "Ev001",
		Channel: "D123",
		User:    "U777",
		Text:    "please fix the login flow, alice, it is high priority",
	})

	if filer.callCount != 1 {
		t.Fatalf("CreateTask called %d times, want 1", filer.callCount)
	}
	if filer.gotUserID != 42 {
		t.Errorf("assignee id = %d, want 42", filer.gotUserID)
	}
	if filer.gotTask.SourceChannel != "D123" {
		t.Errorf("SourceChannel = %q, want D123", filer.gotTask.SourceChannel)
	}

	messages := sender.sent()
	if len(messages) != 3 {
		t.Fatalf("sent %d messages, want 3 (ack, detail, confirmation): %q", len(messages), messages)
	}
	if messages[0] != acknowledgment {
		t.Errorf("first message = %q, want acknowledgment", messages[0])
	}
	if !strings.Contains(messages[1], "Task ID:* 9001") {
		t.Errorf("detail message missing task id: %q", messages[1])
	}
	if !strings.Contains(messages[2], ":white_check_mark:") {
		t.Errorf("confirmation message = %q, want white_check_mark line", messages[2])
	}

	if len(appender.tasks) != 1 {
		t.Fatalf("appended %d audit rows, want 1", len(appender.tasks))
	}
}

func TestHandleMessageUnknownAssigneeFilesUnassigned(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	filer := &scriptedFiler{result: freedcamp.CreationResult{Success: true, TaskID: "1"}}
	draft := strings.Replace(successDraft, "@alice", "@nobody", 1)
	pipeline := newPipeline(t, &scriptedProvider{text: draft}, filer, sender, nil)

	pipeline.HandleMessage(context.Background(), slackbot.MessageEvent{
		EventID: "Ev002", Channel: "D123", Text: "task for nobody",
	})

	if filer.gotUserID != freedcamp.UnassignedID {
		t.Errorf("assignee id = %d, want UnassignedID", filer.gotUserID)
	}
}

func TestHandleMessageExtractionFailure(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	filer := &scriptedFiler{}
	pipeline := newPipeline(t, &scriptedProvider{err: errors.New("boom")}, filer, sender, nil)

	pipeline.HandleMessage(context.Background(), slackbot.MessageEvent{
		EventID: "Ev003", Channel: "D123", Text: "garbled",
	})

	if filer.callCount != 0 {
		t.Errorf("CreateTask called %d times, want 0 after extraction failure", filer.callCount)
	}
	messages := sender.sent()
	// Ack plus the error detail; the confirmation line is suppressed.
	if len(messages) != 2 {
		t.Fatalf("sent %d messages, want 2: %q", len(messages), messages)
	}
	if !strings.HasPrefix(messages[1], ":warning:") {
		t.Errorf("detail message = %q, want :warning: prefix", messages[1])
	}
}

func TestHandleMessageFilingFailure(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	filer := &scriptedFiler{result: freedcamp.CreationResult{Error: "HTTP 500 from Freedcamp: down"}}
	appender := &recordingAppender{}
	pipeline := newPipeline(t, &scriptedProvider{text: successDraft}, filer, sender, appender)

	pipeline.HandleMessage(context.Background(), slackbot.MessageEvent{
		EventID: "Ev004", Channel: "D123", Text: "please fix it",
	})

	messages := sender.sent()
	if len(messages) != 3 {
		t.Fatalf("sent %d messages, want 3: %q", len(messages), messages)
	}
	if !strings.Contains(messages[1], "could not be filed") {
		t.Errorf("detail message = %q, want filing-failure text", messages[1])
	}
	if len(appender.tasks) != 0 {
		t.Errorf("appended %d audit rows after filing failure, want 0", len(appender.tasks))
	}
}

func TestHandleMessageAuditFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	filer := &scriptedFiler{result: freedcamp.CreationResult{Success: true, TaskID: "7"}}
	appender := &recordingAppender{err: errors.New("quota exceeded")}
	pipeline := newPipeline(t, &scriptedProvider{text: successDraft}, filer, sender, appender)

	pipeline.HandleMessage(context.Background(), slackbot.MessageEvent{
		EventID: "Ev005", Channel: "D123", Text: "please fix it",
	})

	messages := sender.sent()
	if len(messages) != 3 {
		t.Fatalf("sent %d messages, want 3", len(messages))
	}
	if !strings.Contains(messages[2], ":white_check_mark:") {
		t.Errorf("confirmation = %q, want success line despite audit failure", messages[2])
	}
}
