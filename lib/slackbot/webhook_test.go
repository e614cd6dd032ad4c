// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package slackbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/taskbridge/taskbridge/lib/clock"
	"github.com/taskbridge/taskbridge/lib/dedup"
	"github.com/taskbridge/taskbridge/lib/testutil"
)

const testSigningSecret = "8f742231b10e8888abcd99yyyzzz85a5"

// signedRequest builds a POST with valid signature headers for body.
func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)

	request := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	request.Header.Set("X-Slack-Request-Timestamp", timestamp)
	request.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return request
}

// newTestHandler wires a handler whose admitted events arrive on the
// returned channel.
func newTestHandler(t *testing.T) (*WebhookHandler, chan MessageEvent) {
	t.Helper()

	events := make(chan MessageEvent, 16)
	handler := NewWebhookHandler(WebhookHandlerConfig{
		SigningSecret: testSigningSecret,
		Deduplicator:  dedup.New(100, 0),
		Clock:         clock.Fake(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)),
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnMessage:     func(event MessageEvent) { events <- event },
	})
	return handler, events
}

func messageBody(eventID, text string) string {
	return fmt.Sprintf(`{
		"type": "event_callback",
		"event_id": %q,
		"event": {
			"type": "message",
			"channel_type": "im",
			"channel": "D08R4VD5D3L",
			"user": "U123",
			"text": %q
		}
	}`, eventID, text)
}

func TestWebhookDispatchesDirectMessage(t *testing.T) {
	t.Parallel()

	handler, events := newTestHandler(t)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, signedRequest(t, messageBody("Ev1", "fix the login bug")))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	event := testutil.RequireReceive(t, events, 5*time.Second, "waiting for dispatch")
	if event.EventID != "Ev1" || event.Channel != "D08R4VD5D3L" || event.Text != "fix the login bug" {
		t.Errorf("event = %+v", event)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	t.Parallel()

	handler, events := newTestHandler(t)

	request := signedRequest(t, messageBody("Ev1", "hello"))
	request.Header.Set("X-Slack-Signature", "v0="+strings.Repeat("0", 64))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	select {
	case event := <-events:
		t.Fatalf("event dispatched despite bad signature: %+v", event)
	default:
	}
}

func TestWebhookURLVerification(t *testing.T) {
	t.Parallel()

	handler, _ := newTestHandler(t)
	body := `{"type": "url_verification", "challenge": "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"}`

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, signedRequest(t, body))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := recorder.Body.String(); got != "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P" {
		t.Errorf("body = %q, want the challenge echoed", got)
	}
}

func TestWebhookFilters(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{
		"channel message": `{"type": "event_callback", "event_id": "EvA", "event": {"type": "message", "channel_type": "channel", "channel": "C1", "user": "U1", "text": "hi"}}`,
		"edited subtype":  `{"type": "event_callback", "event_id": "EvB", "event": {"type": "message", "channel_type": "im", "subtype": "message_changed", "channel": "D1", "user": "U1", "text": "hi"}}`,
		"bot message":     `{"type": "event_callback", "event_id": "EvC", "event": {"type": "message", "channel_type": "im", "bot_id": "B1", "channel": "D1", "text": "hi"}}`,
		"reaction event":  `{"type": "event_callback", "event_id": "EvD", "event": {"type": "reaction_added", "channel_type": "im", "channel": "D1", "user": "U1"}}`,
		"other type":      `{"type": "app_rate_limited"}`,
	}

	for name, body := range bodies {
		handler, events := newTestHandler(t)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, signedRequest(t, body))

		if recorder.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200 (acknowledged drop)", name, recorder.Code)
		}
		select {
		case event := <-events:
			t.Errorf("%s: dispatched %+v, want drop", name, event)
		default:
		}
	}
}

func TestWebhookDeduplicatesRetries(t *testing.T) {
	t.Parallel()

	handler, events := newTestHandler(t)

	for i := 0; i < 3; i++ {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, signedRequest(t, messageBody("Ev1", "hello")))
		if recorder.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i, recorder.Code)
		}
	}

	testutil.RequireReceive(t, events, 5*time.Second, "waiting for the single dispatch")
	select {
	case event := <-events:
		t.Fatalf("retry dispatched a second event: %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler, _ := newTestHandler(t)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/slack/events", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
}
