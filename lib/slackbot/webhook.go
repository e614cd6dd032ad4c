// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package slackbot

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/taskbridge/taskbridge/lib/clock"
	"github.com/taskbridge/taskbridge/lib/dedup"
)

// maxWebhookBodySize is the maximum event payload accepted. Events
// API bodies are small (a message plus envelope); 1 MB is generous.
const maxWebhookBodySize = 1 << 20

// WebhookHandler processes the Events API callbacks. It verifies the
// platform's request signature, answers the URL verification
// handshake, filters to plain direct messages, deduplicates
// deliveries, and hands admitted events to the onMessage callback on a
// background goroutine.
//
// Every request terminates in a written response: the platform
// redelivers unacknowledged events, so no path may leave the response
// pending. Dropped events are acknowledged with 200 exactly like
// processed ones.
type WebhookHandler struct {
	signingSecret string
	deduplicator  *dedup.Deduplicator
	clock         clock.Clock
	logger        *slog.Logger

	// onMessage receives each admitted direct message. Called on its
	// own goroutine so slow downstream work never delays the ack.
	onMessage func(MessageEvent)
}

// WebhookHandlerConfig configures a WebhookHandler.
type WebhookHandlerConfig struct {
	// SigningSecret verifies inbound request signatures. Required.
	SigningSecret string

	// Deduplicator is the shared admission window. Required.
	Deduplicator *dedup.Deduplicator

	// Clock supplies admission timestamps. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger

	// OnMessage receives admitted events. Required; a nil callback
	// would silently discard messages.
	OnMessage func(MessageEvent)
}

// NewWebhookHandler creates the handler.
func NewWebhookHandler(config WebhookHandlerConfig) *WebhookHandler {
	if config.SigningSecret == "" {
		panic("slackbot.WebhookHandler: SigningSecret is required")
	}
	if config.Deduplicator == nil {
		panic("slackbot.WebhookHandler: Deduplicator is required")
	}
	if config.Logger == nil {
		panic("slackbot.WebhookHandler: Logger is required")
	}
	if config.OnMessage == nil {
		panic("slackbot.WebhookHandler: OnMessage callback is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &WebhookHandler{
		signingSecret: config.SigningSecret,
		deduplicator:  config.Deduplicator,
		clock:         clk,
		logger:        config.Logger,
		onMessage:     config.OnMessage,
	}
}

// ServeHTTP handles a single Events API request.
func (handler *WebhookHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}

	// Read the body first; signature verification needs the raw bytes.
	body, err := io.ReadAll(io.LimitReader(request.Body, maxWebhookBodySize))
	if err != nil {
		handler.logger.Error("webhook: failed to read body", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}

	if err := handler.verifySignature(request.Header, body); err != nil {
		handler.logger.Warn("webhook: signature verification failed",
			"error", err,
			"remote_addr", request.RemoteAddr,
		)
		// 401 with no information disclosure.
		http.Error(writer, "", http.StatusUnauthorized)
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		handler.logger.Warn("webhook: malformed envelope", "error", err)
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	// URL verification handshake: echo the challenge as plain text.
	if envelope.Type == "url_verification" {
		writer.Header().Set("Content-Type", "text/plain")
		io.WriteString(writer, envelope.Challenge)
		return
	}

	if envelope.Type != "event_callback" {
		writer.WriteHeader(http.StatusOK)
		return
	}

	event := envelope.Event

	// Only plain direct messages from humans. Edits and other
	// subtypes, bot messages (including this bot's own replies), and
	// non-DM channels are acknowledged and dropped.
	if event.Type != "message" || event.ChannelType != "im" || event.Subtype != "" || event.BotID != "" {
		writer.WriteHeader(http.StatusOK)
		return
	}

	if !handler.deduplicator.Admit(envelope.EventID, handler.clock.Now()) {
		handler.logger.Debug("webhook: duplicate or too-frequent event, ignoring",
			"event_id", envelope.EventID,
		)
		writer.WriteHeader(http.StatusOK)
		return
	}

	handler.logger.Info("message event admitted",
		"event_id", envelope.EventID,
		"channel", event.Channel,
		"user", event.User,
	)

	// Dispatch in the background; the platform only needs the ack.
	go handler.onMessage(MessageEvent{
		EventID: envelope.EventID,
		Channel: event.Channel,
		User:    event.User,
		Text:    event.Text,
	})

	writer.WriteHeader(http.StatusOK)
}

// verifySignature checks the timestamp + HMAC-SHA256 signature headers
// the platform sends with every request.
func (handler *WebhookHandler) verifySignature(header http.Header, body []byte) error {
	verifier, err := slack.NewSecretsVerifier(header, handler.signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}
