// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package freedcamp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// tasksApplicationID selects the Tasks application on the lists
// endpoint.
const tasksApplicationID = 2

// directoryPageSize is the page size for directory listings.
const directoryPageSize = 200

// UnassignedID is the sentinel assignee id meaning "nobody".
const UnassignedID = 0

// User is one entry from the users listing.
type User struct {
	UserID   json.Number `json:"user_id"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
}

// TaskGroup is one entry from the task-groups (lists) listing.
type TaskGroup struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
}

// ListUsers returns every user the API key can see, following
// limit/offset pagination until a short page arrives.
func (client *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	for offset := 0; ; offset += directoryPageSize {
		page, err := client.listUsersPage(ctx, directoryPageSize, offset)
		if err != nil {
			return nil, err
		}
		users = append(users, page...)
		if len(page) < directoryPageSize {
			return users, nil
		}
	}
}

func (client *Client) listUsersPage(ctx context.Context, limit, offset int) ([]User, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	httpResponse, err := client.get(ctx, "/users", query)
	if err != nil {
		return nil, fmt.Errorf("freedcamp: listing users: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freedcamp: listing users: HTTP %d", httpResponse.StatusCode)
	}

	var envelope struct {
		Data struct {
			Users []User `json:"users"`
		} `json:"data"`
	}
	if err := json.NewDecoder(httpResponse.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("freedcamp: decoding users response: %w", err)
	}
	return envelope.Data.Users, nil
}

// ListTaskGroups returns the task groups (task lists) of the
// configured project.
func (client *Client) ListTaskGroups(ctx context.Context) ([]TaskGroup, error) {
	var groups []TaskGroup
	for offset := 0; ; offset += directoryPageSize {
		page, err := client.listTaskGroupsPage(ctx, directoryPageSize, offset)
		if err != nil {
			return nil, err
		}
		groups = append(groups, page...)
		if len(page) < directoryPageSize {
			return groups, nil
		}
	}
}

func (client *Client) listTaskGroupsPage(ctx context.Context, limit, offset int) ([]TaskGroup, error) {
	query := url.Values{}
	query.Set("project_id", client.projectID)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	path := fmt.Sprintf("/lists/%d", tasksApplicationID)
	httpResponse, err := client.get(ctx, path, query)
	if err != nil {
		return nil, fmt.Errorf("freedcamp: listing task groups: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freedcamp: listing task groups: HTTP %d", httpResponse.StatusCode)
	}

	var envelope struct {
		Data struct {
			Lists []TaskGroup `json:"lists"`
		} `json:"data"`
	}
	if err := json.NewDecoder(httpResponse.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("freedcamp: decoding task groups response: %w", err)
	}
	return envelope.Data.Lists, nil
}

// Directory is a snapshot of the user and task-group listings, keyed
// for case-insensitive lookup. Resolution is a pure in-memory read; to
// pick up staff changes the caller rebuilds the snapshot with
// [LoadDirectory] on its own cadence.
type Directory struct {
	usersByName  map[string]int
	groupByTitle map[string]string
}

// LoadDirectory fetches both listings and builds the lookup tables.
// Display names and emails are lower-cased so resolution is
// case-insensitive.
func LoadDirectory(ctx context.Context, client *Client) (*Directory, error) {
	users, err := client.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := client.ListTaskGroups(ctx)
	if err != nil {
		return nil, err
	}

	directory := &Directory{
		usersByName:  make(map[string]int, len(users)*2),
		groupByTitle: make(map[string]string, len(groups)),
	}
	for _, user := range users {
		id, err := strconv.Atoi(user.UserID.String())
		if err != nil {
			continue
		}
		if user.FullName != "" {
			directory.usersByName[strings.ToLower(user.FullName)] = id
		}
		if user.Email != "" {
			directory.usersByName[strings.ToLower(user.Email)] = id
		}
	}
	for _, group := range groups {
		if group.Title != "" {
			directory.groupByTitle[strings.ToLower(group.Title)] = group.ID.String()
		}
	}
	return directory, nil
}

// Resolve maps a handle, full name, or email to the Freedcamp user id.
// A leading "@" is stripped and matching is case-insensitive. Unknown
// or empty handles degrade to [UnassignedID] rather than failing; a
// task is still worth filing when its assignee cannot be mapped.
func (directory *Directory) Resolve(handleOrName string) int {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handleOrName), "@")))
	if key == "" {
		return UnassignedID
	}
	if id, ok := directory.usersByName[key]; ok {
		return id
	}
	return UnassignedID
}

// TaskGroupID maps a task-group title to its id, or "" when unknown.
func (directory *Directory) TaskGroupID(title string) string {
	return directory.groupByTitle[strings.ToLower(title)]
}
