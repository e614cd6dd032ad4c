// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package freedcamp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskbridge/taskbridge/lib/clock"
	"github.com/taskbridge/taskbridge/lib/task"
)

// DefaultBaseURL is the hosted Freedcamp API.
const DefaultBaseURL = "https://freedcamp.com/api/v1"

// priorityMap translates the task priority enum into Freedcamp's
// numeric urgency scale (higher = more urgent).
var priorityMap = map[task.Priority]int{
	task.PriorityUrgent: 3,
	task.PriorityHigh:   2,
	task.PriorityNormal: 1,
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// APIKey and APISecret authenticate every request. Required.
	APIKey    string
	APISecret string

	// ProjectID and TaskGroupID locate where tasks are filed. Required
	// for CreateTask.
	ProjectID   string
	TaskGroupID string

	// BaseURL overrides the hosted API endpoint. Defaults to
	// [DefaultBaseURL]. Used by tests and self-hosted deployments.
	BaseURL string

	// HTTPClient carries the transport timeout policy. Defaults to a
	// client with a 15-second timeout.
	HTTPClient *http.Client

	// Clock supplies the signing timestamp. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Client talks to the Freedcamp API.
type Client struct {
	apiKey      string
	apiSecret   string
	projectID   string
	taskGroupID string
	baseURL     string
	viewHost    string
	httpClient  *http.Client
	clock       clock.Clock
	logger      *slog.Logger
}

// NewClient creates a Client. Credential validation is deferred to the
// individual operations so that a misconfigured deployment degrades to
// structured per-request failures instead of refusing to start.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		panic("freedcamp.Client: Logger is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	return &Client{
		apiKey:      config.APIKey,
		apiSecret:   config.APISecret,
		projectID:   config.ProjectID,
		taskGroupID: config.TaskGroupID,
		baseURL:     baseURL,
		viewHost:    viewHost(baseURL),
		httpClient:  httpClient,
		clock:       clk,
		logger:      config.Logger,
	}
}

// viewHost derives the scheme://host prefix used for ticket view URLs
// from the API base URL.
func viewHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return "https://freedcamp.com"
	}
	return parsed.Scheme + "://" + parsed.Host
}

// CreationResult is the normalized outcome of one task-creation
// attempt. Success is true iff TaskID is non-empty; Error is non-empty
// iff Success is false. Raw retains the response payload for operator
// diagnostics when the envelope shape was unexpected.
type CreationResult struct {
	Success bool
	TaskID  string
	TaskURL string
	Error   string
	Raw     json.RawMessage
}

// failure builds a failed CreationResult.
func failure(format string, args ...any) CreationResult {
	return CreationResult{Error: fmt.Sprintf(format, args...)}
}

// CreateTask files a task in the configured project and task group.
// The request is sent exactly once; retry policy belongs to the
// caller. Every failure mode (missing configuration, transport errors,
// non-2xx statuses, malformed bodies, recognized bodies with no task
// id) is reported through the result, never as an error return or a
// panic.
func (client *Client) CreateTask(ctx context.Context, item task.Task, assigneeID int) CreationResult {
	if client.apiKey == "" || client.apiSecret == "" || client.projectID == "" || client.taskGroupID == "" {
		return failure("missing API credentials or project/task-group ids")
	}

	priority, ok := priorityMap[item.Priority]
	if !ok {
		priority = priorityMap[task.PriorityHigh]
	}

	payload := map[string]any{
		"project_id":     client.projectID,
		"task_group_id":  client.taskGroupID,
		"title":          item.Title,
		"description":    item.Description,
		"assigned_to_id": assigneeID,
		"priority":       priority,
	}
	if item.DueDate != "" {
		payload["due_date"] = item.DueDate
	}

	httpResponse, err := client.postForm(ctx, "/tasks", payload)
	if err != nil {
		return failure("sending create request: %v", err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return failure("reading response: %v", err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		detail := errorDetail(body)
		client.logger.Warn("freedcamp create failed",
			"status", httpResponse.StatusCode,
			"detail", detail,
		)
		return failure("HTTP %d from Freedcamp: %s", httpResponse.StatusCode, detail)
	}

	if !json.Valid(body) {
		return failure("invalid JSON in API response")
	}

	created, ok := extractTaskItem(body)
	if !ok {
		// HTTP success with a shape we don't recognize. Keep the whole
		// body; the operator needs it to diagnose the new shape.
		result := failure("unexpected Freedcamp response format")
		result.Raw = json.RawMessage(body)
		return result
	}

	id := created.id()
	if id == "" {
		result := failure("no task id in response")
		result.Raw = json.RawMessage(body)
		return result
	}

	client.logger.Info("freedcamp task created", "task_id", id)
	return CreationResult{
		Success: true,
		TaskID:  id,
		TaskURL: client.taskURL(id, created.URL),
		Raw:     json.RawMessage(body),
	}
}

// taskURL normalizes the ticket link: absolute URLs pass through,
// relative ones get the service host prefixed, and when the response
// carried no URL at all a canonical view URL is synthesized from the
// project and task ids.
func (client *Client) taskURL(id, rawURL string) string {
	switch {
	case rawURL == "":
		return fmt.Sprintf("%s/view/%s/tasks/%s", client.viewHost, client.projectID, id)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return rawURL
	case strings.HasPrefix(rawURL, "/"):
		return client.viewHost + rawURL
	default:
		return client.viewHost + "/" + rawURL
	}
}

// postForm sends a signed multipart form POST with the JSON payload in
// a "data" field, which is the wire format the tasks endpoint expects.
func (client *Client) postForm(ctx context.Context, path string, payload any) (*http.Response, error) {
	auth, err := Sign(client.apiSecret, client.apiKey, client.clock.Now())
	if err != nil {
		return nil, err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	if err := writer.WriteField("data", string(payloadJSON)); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}

	query := url.Values{}
	auth.apply(query)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost,
		client.baseURL+path+"?"+query.Encode(), &form)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", writer.FormDataContentType())

	return client.httpClient.Do(httpRequest)
}

// get sends a signed GET with extra query parameters.
func (client *Client) get(ctx context.Context, path string, extra url.Values) (*http.Response, error) {
	auth, err := Sign(client.apiSecret, client.apiKey, client.clock.Now())
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for name, values := range extra {
		query[name] = values
	}
	auth.apply(query)

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet,
		client.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return client.httpClient.Do(httpRequest)
}

// errorDetail pulls a human-readable message out of an error body when
// one is recognizable, falling back to a truncated raw excerpt.
func errorDetail(body []byte) string {
	var wireError struct {
		Msg   string `json:"msg"`
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil {
		if wireError.Msg != "" {
			return wireError.Msg
		}
		if wireError.Error != "" {
			return wireError.Error
		}
	}
	excerpt := string(body)
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	return excerpt
}
