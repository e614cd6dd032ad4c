// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract turns free-form message text into a validated
// [task.Task] via a single completion call. The model's output is
// untrusted text from an untrusted transformer; the entire value of
// this package is the validation boundary between whatever the model
// emits and a structurally guaranteed task record. Nothing past this
// boundary ever sees a parse failure.
package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/taskbridge/taskbridge/lib/llm"
	"github.com/taskbridge/taskbridge/lib/task"
)

// systemPrompt is the fixed instruction for the extraction call. The
// model must answer with exactly one JSON envelope; anything else is
// rejected by the decode step below.
const systemPrompt = `You are an expert project manager that creates structured tasks from chat messages.
You can handle input in any language and extract the relevant task information.

Respond with a single JSON object and nothing else, in this form:
{
  "status": "success" or "error",
  "message": "a clear description of what happened",
  "task": { ... } or null
}

The task object, required when status is "success":
- "title": a clear, concise task title (the main topic)
- "description": detailed task description carrying all relevant details
- "assignee": the person responsible, as an @-handle (add the @ if missing)
- "priority": "P0" (urgent), "P1" (high), or "P2" (normal), inferred from urgency words and context
- "due_date": ISO date "YYYY-MM-DD", or omit when no date is given

Rules:
1. Extract information even from complex, unstructured, multilingual text.
2. Look for mentioned names as assignees.
3. Resolve relative dates ("Friday", "tomorrow") against the current date given in the message.
4. If several independent tasks are described, pick the single most important one.
5. If required information is missing (for example no identifiable assignee), respond with status "error" and a message explaining what is missing. Never invent people or dates.`

// Outcome is the tagged result of one extraction: exactly one of Task
// or Err is populated.
type Outcome struct {
	// Task is the validated record, nil on failure.
	Task *task.Task

	// Err is the human-readable failure message, empty on success.
	Err string
}

// OK reports whether the extraction produced a task.
func (outcome Outcome) OK() bool { return outcome.Task != nil }

// errorOutcome builds a failed Outcome.
func errorOutcome(message string) Outcome { return Outcome{Err: message} }

// Config configures an Extractor.
type Config struct {
	// Provider performs the completion call. Required.
	Provider llm.Provider

	// Model is the completion model identifier. Required.
	Model string

	// MaxTokens caps the response. Defaults to 1024.
	MaxTokens int

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Extractor converts raw user text into a validated task.
type Extractor struct {
	provider  llm.Provider
	model     string
	maxTokens int
	logger    *slog.Logger
}

// New creates an Extractor.
func New(config Config) *Extractor {
	if config.Provider == nil {
		panic("extract.Extractor: Provider is required")
	}
	if config.Model == "" {
		panic("extract.Extractor: Model is required")
	}
	if config.Logger == nil {
		panic("extract.Extractor: Logger is required")
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Extractor{
		provider:  config.Provider,
		model:     config.Model,
		maxTokens: maxTokens,
		logger:    config.Logger,
	}
}

// draftEnvelope is the JSON envelope the model is instructed to emit.
type draftEnvelope struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	Task    *task.Task `json:"task"`
}

// Extract runs one completion call and validates the result. It never
// returns a partially-filled task: every failure path (blank input,
// transport errors, unparseable output, a model-reported error, schema
// violations) collapses into an error outcome with a message fit for
// the end user.
//
// The call is a single request/response; there is no correction loop.
func (extractor *Extractor) Extract(ctx context.Context, rawText, sourceChannel string) Outcome {
	if strings.TrimSpace(rawText) == "" {
		// No point paying for a completion that can only be ambiguous.
		return errorOutcome("the message is empty, nothing to extract")
	}

	response, err := extractor.provider.Complete(ctx, llm.Request{
		Model:     extractor.model,
		MaxTokens: extractor.maxTokens,
		System:    systemPrompt,
		User:      rawText,
	})
	if err != nil {
		extractor.logger.Error("completion call failed", "error", err)
		return errorOutcome("could not reach the language model, please try again")
	}

	var draft draftEnvelope
	if err := json.Unmarshal([]byte(stripCodeFence(response.Text)), &draft); err != nil {
		extractor.logger.Warn("model output is not valid JSON",
			"error", err,
			"output", truncate(response.Text, 500),
		)
		return errorOutcome("the model answered in an unexpected format, please try rephrasing")
	}

	if draft.Status != "success" {
		message := draft.Message
		if message == "" {
			message = "the model could not extract a task from the message"
		}
		return errorOutcome(message)
	}
	if draft.Task == nil {
		return errorOutcome("the model reported success but returned no task")
	}

	// The channel comes from the webhook event, never from the model.
	draft.Task.SourceChannel = sourceChannel

	if err := draft.Task.Validate(); err != nil {
		extractor.logger.Warn("model output failed validation", "error", err)
		return errorOutcome("the extracted task is invalid: " + err.Error())
	}

	return Outcome{Task: draft.Task}
}

// stripCodeFence removes a Markdown code fence around the model
// output. Models wrap JSON in ```json fences often enough that
// tolerating it is cheaper than prompting against it.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		// Drop the language tag line ("json").
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
