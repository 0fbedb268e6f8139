// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package task defines the Task entity, its status state machine, and the
// composite key format shared by the task store and task manager.
package task

import (
	"fmt"
	"strings"
	"time"
)

// Status is a closed sum type over the five pipeline states a task can be in.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusBuilding Status = "BUILDING"
	StatusPushing  Status = "PUSHING"
	StatusDone     Status = "DONE"
	StatusFailed   Status = "FAILED"
)

// legacyStatusSynonyms maps status values written by an adjacent service to
// their canonical form. The table is fixed and versioned: writers always
// emit the canonical form, readers absorb the synonyms.
var legacyStatusSynonyms = map[string]Status{
	"COMPLETED":   StatusDone,
	"SUCCESS":     StatusDone,
	"RUNNING":     StatusBuilding,
	"IN_PROGRESS": StatusBuilding,
}

// NormalizeStatus maps a raw stored status string to its canonical Status,
// applying the legacy synonym table. Unknown values are returned unchanged.
func NormalizeStatus(raw string) Status {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if s, ok := legacyStatusSynonyms[upper]; ok {
		return s
	}
	return Status(upper)
}

// IsTerminal reports whether status is one of the two absorbing states.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// allowedTransitions enumerates the edges of the task status state machine.
// PENDING -> BUILDING -> (DONE|FAILED)
// PENDING -> BUILDING -> PUSHING -> (DONE|FAILED)
// PENDING -> PUSHING -> (DONE|FAILED)
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusBuilding: true,
		StatusPushing:  true,
	},
	StatusBuilding: {
		StatusPushing: true,
		StatusDone:    true,
		StatusFailed:  true,
	},
	StatusPushing: {
		StatusDone:   true,
		StatusFailed: true,
	},
}

// CanTransition reports whether moving from "from" to "to" is a legal edge.
// A terminal "from" never permits a transition, matching the terminal
// absorbing property.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() {
		return false
	}
	edges, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return edges[to]
}

// Task is the durable record for one pipeline invocation.
type Task struct {
	ID             string
	WorkspaceID    string
	AppName        string
	Status         Status
	SourceCodePath string
	WasmPath       string
	ImageURL       string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// keyPrefix and its uppercase legacy variant, per the composite storage key
// invariant in spec.md 3: PK = "ws#"+workspace, SK = "build#"+task.
const (
	workspacePrefixLower = "ws#"
	workspacePrefixUpper = "WS#"
	taskPrefixLower      = "build#"
	taskPrefixUpper      = "BUILD#"
)

// PartitionKey returns the canonical (lowercase) PK for a workspace.
func PartitionKey(workspaceID string) string {
	return workspacePrefixLower + workspaceID
}

// SortKey returns the canonical (lowercase) SK for a task id.
func SortKey(taskID string) string {
	return taskPrefixLower + taskID
}

// LegacyPartitionKey returns the uppercase legacy-compatible PK.
func LegacyPartitionKey(workspaceID string) string {
	return workspacePrefixUpper + workspaceID
}

// LegacySortKey returns the uppercase legacy-compatible SK.
func LegacySortKey(taskID string) string {
	return taskPrefixUpper + taskID
}

// ParsePartitionKey strips either the canonical or legacy workspace prefix,
// reporting whether pk carried a recognised prefix at all.
func ParsePartitionKey(pk string) (workspaceID string, ok bool) {
	switch {
	case strings.HasPrefix(pk, workspacePrefixLower):
		return strings.TrimPrefix(pk, workspacePrefixLower), true
	case strings.HasPrefix(pk, workspacePrefixUpper):
		return strings.TrimPrefix(pk, workspacePrefixUpper), true
	default:
		return "", false
	}
}

// ParseSortKey strips either the canonical or legacy task prefix.
func ParseSortKey(sk string) (taskID string, ok bool) {
	switch {
	case strings.HasPrefix(sk, taskPrefixLower):
		return strings.TrimPrefix(sk, taskPrefixLower), true
	case strings.HasPrefix(sk, taskPrefixUpper):
		return strings.TrimPrefix(sk, taskPrefixUpper), true
	default:
		return "", false
	}
}

// Validate checks the record-level invariants from spec.md 3 that must hold
// before a task is considered well-formed: DONE implies an artifact or image
// reference is set, FAILED implies a non-empty error message, and
// updated_at never precedes created_at.
func (t *Task) Validate() error {
	if t.Status == StatusDone && t.WasmPath == "" && t.ImageURL == "" {
		return fmt.Errorf("task %s: status DONE requires wasm_path or image_url to be set", t.ID)
	}
	if t.Status == StatusFailed && t.ErrorMessage == "" {
		return fmt.Errorf("task %s: status FAILED requires a non-empty error message", t.ID)
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("task %s: updated_at %s precedes created_at %s", t.ID, t.UpdatedAt, t.CreatedAt)
	}
	return nil
}
