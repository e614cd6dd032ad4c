// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taskbridge/taskbridge/lib/task"
)

func TestAppend(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if request.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			t.Errorf("valueInputOption = %q", request.URL.Query().Get("valueInputOption"))
		}

		var payload struct {
			Values [][]string `json:"values"`
		}
		if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		if len(payload.Values) != 1 || len(payload.Values[0]) != 6 {
			t.Fatalf("values shape = %v, want one row of six columns", payload.Values)
		}
		if payload.Values[0][0] != "Fix the login bug" || payload.Values[0][4] != "P0" {
			t.Errorf("row = %v", payload.Values[0])
		}

		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"updates": {"updatedRange": "Sheet1!A7:F7"}}`))
	}))
	t.Cleanup(server.Close)

	appender := NewGoogleSheets(GoogleSheetsConfig{
		SpreadsheetID: "sheet-id",
		AccessToken:   "tok",
		BaseURL:       server.URL,
		HTTPClient:    server.Client(),
	})

	row, err := appender.Append(context.Background(), task.Task{
		Title:         "Fix the login bug",
		Description:   "SSO logins fail.",
		Assignee:      "@ana",
		Priority:      task.PriorityUrgent,
		SourceChannel: "D123",
	})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if row != 7 {
		t.Errorf("row = %d, want 7", row)
	}
}

func TestAppendUnconfigured(t *testing.T) {
	t.Parallel()

	appender := NewGoogleSheets(GoogleSheetsConfig{})
	if _, err := appender.Append(context.Background(), task.Task{Title: "x"}); err == nil {
		t.Fatal("Append() = nil error without configuration")
	}
}

func TestRowFromRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"Sheet1!A7:F7", 7},
		{"Log!AA123:AF123", 123},
		{"", 0},
		{"garbage", 0},
	}
	for _, test := range tests {
		if got := rowFromRange(test.in); got != test.want {
			t.Errorf("rowFromRange(%q) = %d, want %d", test.in, got, test.want)
		}
	}
}
