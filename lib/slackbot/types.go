// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package slackbot

// MessageEvent is a direct message admitted by the webhook handler,
// reduced to the fields the pipeline needs.
type MessageEvent struct {
	// EventID is the platform's delivery identifier, used for
	// deduplication and tracing.
	EventID string

	// Channel is the conversation (DM channel) id.
	Channel string

	// User is the sender's user id.
	User string

	// Text is the raw message text.
	Text string
}

// --- Inbound wire types ---
//
// The Events API envelope, reduced to what the bridge reads. Defined
// here rather than taken from a library so the handler is explicit
// about which fields it trusts.

type eventEnvelope struct {
	// Type is "url_verification" or "event_callback".
	Type string `json:"type"`

	// Challenge is echoed back during the URL verification handshake.
	Challenge string `json:"challenge"`

	// EventID identifies the delivery; retries reuse it.
	EventID string `json:"event_id"`

	Event innerEvent `json:"event"`
}

type innerEvent struct {
	// Type is the event kind; only "message" is handled.
	Type string `json:"type"`

	// ChannelType is "im" for direct messages.
	ChannelType string `json:"channel_type"`

	// Subtype is set for edits, joins, and other non-plain messages;
	// any subtype is ignored.
	Subtype string `json:"subtype"`

	// BotID is set when a bot (including this one) sent the message.
	BotID string `json:"bot_id"`

	Channel string `json:"channel"`
	User    string `json:"user"`
	Text    string `json:"text"`
}
