// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Provider is the interface for completion API backends.
// Implementations translate between the common types in this package
// and the vendor's wire format.
type Provider interface {
	// Complete sends a request and blocks until the full response is
	// available. The context bounds the call; callers set a deadline
	// so that a slow upstream surfaces as an error, never a hang.
	Complete(ctx context.Context, request Request) (*Response, error)
}

// Request is a single-turn completion request: one system instruction
// and one user message.
type Request struct {
	// Model is the provider model identifier (e.g., "gpt-4o").
	Model string

	// MaxTokens caps the response length. Required by some providers.
	MaxTokens int

	// System is the fixed instruction prepended to the conversation.
	System string

	// User is the raw user text.
	User string

	// Temperature, when non-nil, overrides the provider default.
	Temperature *float64
}

// Response is the provider's completion.
type Response struct {
	// Text is the assistant's message content.
	Text string

	// Model is the model that actually served the request.
	Model string

	// FinishReason is the provider's stop reason (e.g., "stop",
	// "length"). Passed through untranslated.
	FinishReason string

	// Usage reports token accounting when the provider supplies it.
	Usage Usage
}

// Usage is token accounting for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// ProviderError is returned when the completion API responds with a
// non-200 status.
type ProviderError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Type is the provider-specific error type string
	// (e.g., "invalid_request_error", "rate_limit_error").
	Type string

	// Message is the human-readable error description.
	Message string
}

func (err *ProviderError) Error() string {
	if err.Type != "" {
		return fmt.Sprintf("llm: HTTP %d: %s: %s", err.StatusCode, err.Type, err.Message)
	}
	return fmt.Sprintf("llm: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsRateLimited returns true if the error is a rate limit response (HTTP 429).
func (err *ProviderError) IsRateLimited() bool {
	return err.StatusCode == 429
}

// doProviderRequest marshals wireRequest as JSON, POSTs it to endpoint
// via httpClient with the given extra headers, and returns the HTTP
// response. Returns a ProviderError for non-200 status codes.
//
// On success the caller is responsible for closing the response body.
// On error the body is already closed.
func doProviderRequest(ctx context.Context, httpClient *http.Client, endpoint string, headers http.Header, wireRequest any, prefix string) (*http.Response, error) {
	body, err := json.Marshal(wireRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", prefix, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", prefix, err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	for name, values := range headers {
		for _, value := range values {
			httpRequest.Header.Add(name, value)
		}
	}

	httpResponse, err := httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: sending request: %w", prefix, err)
	}

	if httpResponse.StatusCode != http.StatusOK {
		defer httpResponse.Body.Close()
		return nil, readProviderError(httpResponse)
	}

	return httpResponse, nil
}

// readProviderError parses an error response body in the common
// provider error format: {"error":{"type":"...","message":"..."}}.
// Extra fields in the error object (OpenAI's "code" and "param") are
// silently ignored.
func readProviderError(httpResponse *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResponse.Body, 4096))

	var wireError struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		return &ProviderError{
			StatusCode: httpResponse.StatusCode,
			Type:       wireError.Error.Type,
			Message:    wireError.Error.Message,
		}
	}

	return &ProviderError{
		StatusCode: httpResponse.StatusCode,
		Message:    string(body),
	}
}
