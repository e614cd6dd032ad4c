// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// defaultOpenAIBaseURL is the hosted OpenAI API. Overridable for
// compatible gateways and for tests.
const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAI implements [Provider] for the OpenAI Chat Completions API
// and any compatible server.
type OpenAI struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewOpenAI creates an OpenAI-compatible provider. The httpClient
// should carry the caller's timeout policy. baseURL may be empty for
// the hosted OpenAI API; a non-empty value points the client at a
// compatible gateway.
func NewOpenAI(httpClient *http.Client, baseURL, apiKey string) *OpenAI {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAI{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Complete sends a non-streaming request and returns the full response.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	wireRequest := provider.buildRequest(request)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+provider.apiKey)

	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.baseURL+"/v1/chat/completions", headers, wireRequest, "llm/openai")
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	var wireResponse openaiResponse
	if err := json.NewDecoder(httpResponse.Body).Decode(&wireResponse); err != nil {
		return nil, fmt.Errorf("llm/openai: decoding response: %w", err)
	}

	return wireResponse.toResponse()
}

// buildRequest converts our types to the OpenAI wire format. The
// system prompt becomes the first message with role "system".
func (provider *OpenAI) buildRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
	}
	if request.Temperature != nil {
		wireRequest.Temperature = request.Temperature
	}
	if request.System != "" {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    "system",
			Content: request.System,
		})
	}
	wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
		Role:    "user",
		Content: request.User,
	})
	return wireRequest
}

// --- OpenAI wire types ---
//
// These map directly to the chat completions JSON format. They are
// separate from the public types because the wire format uses
// snake_case and nests the assistant message inside a choices array.

type openaiRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Messages    []openaiMessage `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

func (wireResponse *openaiResponse) toResponse() (*Response, error) {
	if len(wireResponse.Choices) == 0 {
		return nil, fmt.Errorf("llm/openai: response has no choices")
	}
	choice := wireResponse.Choices[0]
	return &Response{
		Text:         choice.Message.Content,
		Model:        wireResponse.Model,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.PromptTokens,
			OutputTokens: wireResponse.Usage.CompletionTokens,
		},
	}, nil
}
