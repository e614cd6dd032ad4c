// Copyright 2026 The Taskbridge Authors
// SPDX-License-Identifier: Apache-2.0

package freedcamp

import "encoding/json"

// The tasks endpoint has been observed to return the created task
// under three different envelope shapes:
//
//  1. a single object directly under "data"
//  2. a list under "data"."tasks"
//  3. a list under a top-level "tasks"
//
// Each shape gets its own matcher, a pure function from the response
// body to a task item, and extractTaskItem applies them in that fixed
// priority order. Keeping the matchers free of HTTP concerns makes the
// normalization testable in isolation.

// wireTask is the subset of a task object the bridge reads. The id
// arrives as either "id" or "task_id", and as either a JSON string or
// a number depending on the endpoint's mood.
type wireTask struct {
	ID     flexibleID `json:"id"`
	TaskID flexibleID `json:"task_id"`
	URL    string     `json:"url"`
}

// id returns whichever id field is populated.
func (item wireTask) id() string {
	if item.ID != "" {
		return string(item.ID)
	}
	return string(item.TaskID)
}

// shapeMatcher attempts to extract a task item from a response body.
type shapeMatcher func(body []byte) (wireTask, bool)

// shapeMatchers in priority order.
var shapeMatchers = []shapeMatcher{
	matchDataObject,
	matchDataTaskList,
	matchTaskList,
}

// extractTaskItem applies the shape matchers in order and returns the
// first match.
func extractTaskItem(body []byte) (wireTask, bool) {
	for _, match := range shapeMatchers {
		if item, ok := match(body); ok {
			return item, true
		}
	}
	return wireTask{}, false
}

// matchDataObject handles {"data": { ...task... }}. The object only
// counts as a task when it carries an id; otherwise the body may be
// shape 2 and the next matcher gets its turn.
func matchDataObject(body []byte) (wireTask, bool) {
	var envelope struct {
		Data wireTask `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return wireTask{}, false
	}
	if envelope.Data.id() == "" {
		return wireTask{}, false
	}
	return envelope.Data, true
}

// matchDataTaskList handles {"data": {"tasks": [ ...task... ]}}.
func matchDataTaskList(body []byte) (wireTask, bool) {
	var envelope struct {
		Data struct {
			Tasks []wireTask `json:"tasks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return wireTask{}, false
	}
	if len(envelope.Data.Tasks) == 0 {
		return wireTask{}, false
	}
	return envelope.Data.Tasks[0], true
}

// matchTaskList handles {"tasks": [ ...task... ]}.
func matchTaskList(body []byte) (wireTask, bool) {
	var envelope struct {
		Tasks []wireTask `json:"tasks"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return wireTask{}, false
	}
	if len(envelope.Tasks) == 0 {
		return wireTask{}, false
	}
	return envelope.Tasks[0], true
}

// flexibleID unmarshals from a JSON string or number; anything else
// (null, object) yields an empty id rather than an error, so one odd
// field never discards an otherwise recognizable task item.
type flexibleID string

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = flexibleID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*id = flexibleID(asNumber.String())
		return nil
	}
	*id = ""
	return nil
}
