// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
)

func newTestTask(workspace, id string) *task.Task {
	now := time.Now().UTC()
	return &task.Task{
		ID:             id,
		WorkspaceID:    workspace,
		AppName:        "myapp",
		Status:         task.StatusPending,
		SourceCodePath: "s3://bucket/build-sources/" + workspace + "/" + id + "/",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tk := newTestTask("ws-1", "task-1")

	require.NoError(t, s.Create(ctx, tk))

	got, err := s.Get(ctx, "ws-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, task.StatusPending, got.Status)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "ws-1", "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateStatusIsFieldAdditive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	tk := newTestTask("ws-1", "task-1")
	require.NoError(t, s.Create(ctx, tk))

	wasmPath := "s3://bucket/build-artifacts/task-1/app.wasm"
	require.NoError(t, s.UpdateStatus(ctx, "ws-1", "task-1", StatusUpdate{
		Status:   task.StatusBuilding,
		WasmPath: &wasmPath,
	}))

	errMsg := "push failed: registry timeout"
	require.NoError(t, s.UpdateStatus(ctx, "ws-1", "task-1", StatusUpdate{
		Status:       task.StatusFailed,
		ErrorMessage: &errMsg,
	}))

	got, err := s.Get(ctx, "ws-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, got.Status)
	assert.Equal(t, wasmPath, got.WasmPath, "wasm_path written earlier must be retained")
	assert.Equal(t, errMsg, got.ErrorMessage)
	assert.True(t, got.UpdatedAt.After(tk.UpdatedAt) || got.UpdatedAt.Equal(tk.UpdatedAt))
}

func TestMemoryStore_ListByWorkspace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, newTestTask("ws-1", "a")))
	require.NoError(t, s.Create(ctx, newTestTask("ws-1", "b")))
	require.NoError(t, s.Create(ctx, newTestTask("ws-2", "c")))

	tasks, err := s.ListByWorkspace(ctx, "ws-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestKeyFormat_Deterministic(t *testing.T) {
	assert.Equal(t, "ws#acme", task.PartitionKey("acme"))
	assert.Equal(t, "build#t-123", task.SortKey("t-123"))
	assert.Equal(t, "WS#acme", task.LegacyPartitionKey("acme"))
	assert.Equal(t, "BUILD#t-123", task.LegacySortKey("t-123"))
}

func TestParsePartitionKey_AcceptsBothCases(t *testing.T) {
	ws, ok := task.ParsePartitionKey("ws#acme")
	require.True(t, ok)
	assert.Equal(t, "acme", ws)

	ws, ok = task.ParsePartitionKey("WS#acme")
	require.True(t, ok)
	assert.Equal(t, "acme", ws)

	_, ok = task.ParsePartitionKey("garbage")
	assert.False(t, ok)
}

func TestNormalizeStatus_LegacySynonyms(t *testing.T) {
	assert.Equal(t, task.StatusDone, task.NormalizeStatus("COMPLETED"))
	assert.Equal(t, task.StatusDone, task.NormalizeStatus("SUCCESS"))
	assert.Equal(t, task.StatusBuilding, task.NormalizeStatus("RUNNING"))
	assert.Equal(t, task.StatusBuilding, task.NormalizeStatus("IN_PROGRESS"))
	assert.Equal(t, task.StatusPending, task.NormalizeStatus("pending"))
}

func TestCanTransition_TerminalAbsorbing(t *testing.T) {
	assert.True(t, task.CanTransition(task.StatusPending, task.StatusBuilding))
	assert.True(t, task.CanTransition(task.StatusBuilding, task.StatusDone))
	assert.False(t, task.CanTransition(task.StatusDone, task.StatusBuilding))
	assert.False(t, task.CanTransition(task.StatusFailed, task.StatusPushing))
}
