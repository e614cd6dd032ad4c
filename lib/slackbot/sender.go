// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package slackbot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// Sender posts messages back to the messaging platform. The pipeline
// depends on this interface; tests substitute a recorder.
type Sender interface {
	// SendMessage posts mrkdwn-capable text to a channel.
	SendMessage(ctx context.Context, channelID, text string) error
}

// APISender is the production Sender on the platform's web API.
type APISender struct {
	client *slack.Client
	logger *slog.Logger
}

// NewAPISender creates a sender using the bot token.
func NewAPISender(botToken string, logger *slog.Logger) *APISender {
	if botToken == "" {
		panic("slackbot.APISender: bot token is required")
	}
	if logger == nil {
		panic("slackbot.APISender: logger is required")
	}
	return &APISender{
		client: slack.New(botToken),
		logger: logger,
	}
}

// SendMessage posts the text to the channel.
func (sender *APISender) SendMessage(ctx context.Context, channelID, text string) error {
	_, timestamp, err := sender.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("slackbot: posting message to %s: %w", channelID, err)
	}
	sender.logger.Debug("message posted", "channel", channelID, "ts", timestamp)
	return nil
}
