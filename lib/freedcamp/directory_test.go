// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package freedcamp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// directoryServer serves paginated /users and /lists/2 listings.
func directoryServer(t *testing.T, userCount int) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users", func(writer http.ResponseWriter, request *http.Request) {
		limit, _ := strconv.Atoi(request.URL.Query().Get("limit"))
		offset, _ := strconv.Atoi(request.URL.Query().Get("offset"))

		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprint(writer, `{"data": {"users": [`)
		first := true
		for i := offset; i < userCount && i < offset+limit; i++ {
			if !first {
				fmt.Fprint(writer, ",")
			}
			first = false
			fmt.Fprintf(writer, `{"user_id": "%d", "full_name": "User %d", "email": "user%d@example.com"}`, i+1, i+1, i+1)
		}
		fmt.Fprint(writer, `]}}`)
	})
	mux.HandleFunc("GET /lists/2", func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Query().Get("project_id") != "3590973" {
			writer.WriteHeader(http.StatusBadRequest)
			return
		}
		offset, _ := strconv.Atoi(request.URL.Query().Get("offset"))
		writer.Header().Set("Content-Type", "application/json")
		if offset > 0 {
			fmt.Fprint(writer, `{"data": {"lists": []}}`)
			return
		}
		fmt.Fprint(writer, `{"data": {"lists": [{"id": "272", "title": "Back-end"}, {"id": "273", "title": "Front-end"}]}}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		APIKey:      "key",
		APISecret:   "secret",
		ProjectID:   "3590973",
		TaskGroupID: "272",
		BaseURL:     server.URL,
		HTTPClient:  server.Client(),
		Logger:      testLogger(),
	})
}

func TestLoadDirectoryAndResolve(t *testing.T) {
	t.Parallel()

	client := directoryServer(t, 3)
	directory, err := LoadDirectory(context.Background(), client)
	if err != nil {
		t.Fatalf("LoadDirectory() error: %v", err)
	}

	tests := []struct {
		handle string
		want   int
	}{
		{"User 2", 2},
		{"user 2", 2},       // case-insensitive
		{"@User 2", 2},      // handle marker stripped
		{"USER2@EXAMPLE.COM", 2},
		{"nobody", UnassignedID},
		{"", UnassignedID},
		{"@", UnassignedID},
	}
	for _, test := range tests {
		if got := directory.Resolve(test.handle); got != test.want {
			t.Errorf("Resolve(%q) = %d, want %d", test.handle, got, test.want)
		}
	}

	if got := directory.TaskGroupID("back-end"); got != "272" {
		t.Errorf("TaskGroupID(back-end) = %q, want 272", got)
	}
	if got := directory.TaskGroupID("unknown"); got != "" {
		t.Errorf("TaskGroupID(unknown) = %q, want empty", got)
	}
}

func TestListUsersPaginates(t *testing.T) {
	t.Parallel()

	// 350 users forces two pages at the 200-entry page size.
	client := directoryServer(t, 350)
	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error: %v", err)
	}
	if len(users) != 350 {
		t.Errorf("len(users) = %d, want 350", len(users))
	}
}
