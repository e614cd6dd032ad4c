// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package sheet appends filed tasks to a spreadsheet as a lightweight
// audit trail. The pipeline treats the appender as best effort: a
// failed append is logged, never surfaced to the user and never a
// reason to fail the ticket.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskbridge/taskbridge/lib/task"
)

// Appender records one task per row. Implementations must be safe for
// concurrent use.
type Appender interface {
	// Append writes the task and returns the 1-based row number when
	// the backend reports it, or 0 when it does not.
	Append(ctx context.Context, item task.Task) (int, error)
}

// defaultSheetsBaseURL is the hosted Google Sheets API.
const defaultSheetsBaseURL = "https://sheets.googleapis.com"

// GoogleSheets is an Appender on the Sheets values.append endpoint.
type GoogleSheets struct {
	httpClient    *http.Client
	baseURL       string
	accessToken   string
	spreadsheetID string
	valueRange    string
}

// GoogleSheetsConfig configures a GoogleSheets appender.
type GoogleSheetsConfig struct {
	// SpreadsheetID identifies the target spreadsheet. Required.
	SpreadsheetID string

	// ValueRange is the A1-notation append target (e.g., "Sheet1").
	// Defaults to "Sheet1".
	ValueRange string

	// AccessToken is the OAuth bearer token. Required.
	AccessToken string

	// BaseURL overrides the hosted endpoint; used by tests.
	BaseURL string

	// HTTPClient carries the timeout policy. Defaults to a client
	// with a 15-second timeout.
	HTTPClient *http.Client
}

// NewGoogleSheets creates the appender.
func NewGoogleSheets(config GoogleSheetsConfig) *GoogleSheets {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultSheetsBaseURL
	}
	valueRange := config.ValueRange
	if valueRange == "" {
		valueRange = "Sheet1"
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &GoogleSheets{
		httpClient:    httpClient,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		accessToken:   config.AccessToken,
		spreadsheetID: config.SpreadsheetID,
		valueRange:    valueRange,
	}
}

// Append posts one row in the fixed column order: title, description,
// assignee, due date, priority, source channel.
func (sheets *GoogleSheets) Append(ctx context.Context, item task.Task) (int, error) {
	if sheets.spreadsheetID == "" || sheets.accessToken == "" {
		return 0, fmt.Errorf("sheet: spreadsheet id or access token is not configured")
	}

	payload := map[string]any{
		"values": [][]string{{
			item.Title,
			item.Description,
			item.Assignee,
			item.DueDate,
			string(item.Priority),
			item.SourceChannel,
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("sheet: marshaling row: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		sheets.baseURL, url.PathEscape(sheets.spreadsheetID), url.PathEscape(sheets.valueRange))

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("sheet: creating request: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Authorization", "Bearer "+sheets.accessToken)

	httpResponse, err := sheets.httpClient.Do(httpRequest)
	if err != nil {
		return 0, fmt.Errorf("sheet: appending row: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sheet: appending row: HTTP %d", httpResponse.StatusCode)
	}

	var wireResponse struct {
		Updates struct {
			UpdatedRange string `json:"updatedRange"`
		} `json:"updates"`
	}
	if err := json.NewDecoder(httpResponse.Body).Decode(&wireResponse); err != nil {
		return 0, fmt.Errorf("sheet: decoding response: %w", err)
	}
	return rowFromRange(wireResponse.Updates.UpdatedRange), nil
}

// rowFromRange extracts the starting row number from an A1-notation
// range like "Sheet1!A7:F7". Returns 0 when the range is absent or in
// an unexpected form.
func rowFromRange(updatedRange string) int {
	_, cells, found := strings.Cut(updatedRange, "!")
	if !found {
		return 0
	}
	start, _, _ := strings.Cut(cells, ":")
	index := 0
	for index < len(start) && (start[index] < '0' || start[index] > '9') {
		index++
	}
	row := 0
	for ; index < len(start) && start[index] >= '0' && start[index] <= '9'; index++ {
		row = row*10 + int(start[index]-'0')
	}
	return row
}
