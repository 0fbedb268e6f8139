// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package taskstore provides authoritative persistence for build tasks in a
// key-value store keyed by (workspace, task), grounded on the DynamoDB item
// shape of the original build-orchestration service.
package taskstore

import (
	"context"

	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
)

// StatusUpdate carries the optional fields a status transition may set.
// Only non-nil fields are written; omitted fields retain their stored value,
// matching the field-additive update semantics spec.md 4.6 requires.
type StatusUpdate struct {
	Status       task.Status
	WasmPath     *string
	ImageURL     *string
	ErrorMessage *string
}

// Store is the authoritative persistence contract for build tasks.
type Store interface {
	// Create performs an unconditional put of all required attributes.
	Create(ctx context.Context, t *task.Task) error

	// UpdateStatus applies a partial update, always refreshing UpdatedAt.
	UpdateStatus(ctx context.Context, workspaceID, taskID string, upd StatusUpdate) error

	// Get tries the canonical key format first, then the uppercase legacy
	// variant, returning the first hit. Returns ErrNotFound if neither
	// format has a record.
	Get(ctx context.Context, workspaceID, taskID string) (*task.Task, error)

	// ListByWorkspace prefix-scans under PK for both canonical and legacy
	// key formats and concatenates the results; duplicates are possible by
	// design (the scanner is defensive about cross-service writes).
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*task.Task, error)
}
