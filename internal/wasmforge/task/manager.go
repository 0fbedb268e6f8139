// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
)

// Manager owns the per-process cache mapping task id to full task record,
// plus a secondary map from task id to workspace id, and delegates
// persistence to a taskstore.Store. It is the single API the orchestrator
// uses to read and mutate task state; the orchestrator is its sole writer
// per spec.md 5's single-writer discipline.
type Manager struct {
	mu        sync.RWMutex
	cache     map[string]*Task
	workspace map[string]string // task id -> workspace id, for store fallback

	store  taskstore.Store
	logger *slog.Logger
}

// NewManager constructs a Manager backed by the given store.
func NewManager(store taskstore.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cache:     make(map[string]*Task),
		workspace: make(map[string]string),
		store:     store,
		logger:    logger.With("component", "taskmanager"),
	}
}

// CreateTask creates a new task with PENDING status, always caching it
// in-memory, and persisting to the store when a workspace id is known. Pure
// in-memory operation is retained for callers that omit a workspace id, for
// API compatibility with the original service's behavior.
func (m *Manager) CreateTask(ctx context.Context, workspaceID, appName, sourceCodePath string) (*Task, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	t := &Task{
		ID:             id,
		WorkspaceID:    workspaceID,
		AppName:        appName,
		Status:         StatusPending,
		SourceCodePath: sourceCodePath,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	m.mu.Lock()
	m.cache[id] = t
	if workspaceID != "" {
		m.workspace[id] = workspaceID
	}
	m.mu.Unlock()

	if workspaceID != "" {
		if err := m.store.Create(ctx, t); err != nil {
			return nil, fmt.Errorf("taskmanager: create task %s: %w", id, err)
		}
	}

	cp := *t
	return &cp, nil
}

// UpdateStatus applies a status transition, rejecting illegal transitions
// per the task status state machine (terminal absorbing, totally ordered
// within a pipeline). The update is field-additive: fields left nil in upd
// are not cleared.
func (m *Manager) UpdateStatus(ctx context.Context, taskID string, upd taskstore.StatusUpdate) error {
	m.mu.Lock()
	cached, ok := m.cache[taskID]
	workspaceID := m.workspace[taskID]
	if ok {
		if !CanTransition(cached.Status, upd.Status) {
			m.mu.Unlock()
			return fmt.Errorf("taskmanager: illegal transition %s -> %s for task %s", cached.Status, upd.Status, taskID)
		}
		cached.Status = upd.Status
		cached.UpdatedAt = time.Now().UTC()
		if upd.WasmPath != nil {
			cached.WasmPath = *upd.WasmPath
		}
		if upd.ImageURL != nil {
			cached.ImageURL = *upd.ImageURL
		}
		if upd.ErrorMessage != nil {
			cached.ErrorMessage = *upd.ErrorMessage
		}
	}
	m.mu.Unlock()

	if workspaceID == "" {
		if !ok {
			return fmt.Errorf("taskmanager: unknown task %s", taskID)
		}
		return nil
	}

	if err := m.store.UpdateStatus(ctx, workspaceID, taskID, upd); err != nil {
		m.logger.Error("store update_status failed", "task_id", taskID, "workspace_id", workspaceID, "error", err)
		return fmt.Errorf("taskmanager: update status task %s: %w", taskID, err)
	}
	return nil
}

// GetTask reads from the cache first; on a miss with a known workspace, it
// falls through to the store and backfills the cache.
func (m *Manager) GetTask(ctx context.Context, taskID, workspaceID string) (*Task, error) {
	m.mu.RLock()
	cached, ok := m.cache[taskID]
	if ok {
		cp := *cached
		m.mu.RUnlock()
		return &cp, nil
	}
	ws := workspaceID
	if ws == "" {
		ws = m.workspace[taskID]
	}
	m.mu.RUnlock()

	if ws == "" {
		return nil, taskstore.ErrNotFound
	}

	t, err := m.store.Get(ctx, ws, taskID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[taskID] = t
	m.workspace[taskID] = ws
	m.mu.Unlock()

	cp := *t
	return &cp, nil
}

// ListByWorkspace queries the store for every task under a workspace and
// backfills the cache for each record returned.
func (m *Manager) ListByWorkspace(ctx context.Context, workspaceID string) ([]*Task, error) {
	tasks, err := m.store.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	for _, t := range tasks {
		m.cache[t.ID] = t
		m.workspace[t.ID] = workspaceID
	}
	m.mu.Unlock()

	return tasks, nil
}
