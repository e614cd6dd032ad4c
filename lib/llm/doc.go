// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm is a minimal client for chat-completion APIs. It defines
// a common Request/Response vocabulary and a [Provider] interface with
// one implementation, [OpenAI], which speaks the OpenAI chat
// completions wire format (also served by Azure OpenAI, OpenRouter,
// vLLM, Ollama, and similar gateways).
//
// The extractor makes exactly one non-streaming completion call per
// inbound message, so this package deliberately has no streaming
// support, no tool-use plumbing, and no conversation state.
package llm
