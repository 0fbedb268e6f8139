// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchoreo/wasmforge/internal/wasmforge/compileservice"
	"github.com/openchoreo/wasmforge/internal/wasmforge/ingest"
	"github.com/openchoreo/wasmforge/internal/wasmforge/localbuild"
	"github.com/openchoreo/wasmforge/internal/wasmforge/objectstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/typecheck"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func newTestOrchestrator() (*Orchestrator, *task.Manager, *taskstore.MemoryStore) {
	logger := discardLogger()
	store := taskstore.NewMemoryStore()
	manager := task.NewManager(store, logger)
	o := New(Config{
		Tasks:    manager,
		Objects:  objectstore.NewMemoryStore("test-bucket", "", ""),
		Compile:  compileservice.NewMockClient("test-bucket"),
		Builder:  localbuild.New("/nonexistent-template", logger),
		Ingestor: ingest.New(logger),
		TypeGate: typecheck.New(),
		PoolSize: 2,
		Logger:   logger,
	})
	return o, manager, store
}

func TestRunBuild_DelegatesToCompileServiceAndCompletes(t *testing.T) {
	o, manager, _ := newTestOrchestrator()
	ctx := context.Background()

	tk, err := manager.CreateTask(ctx, "ws1", "myapp", "")
	require.NoError(t, err)

	data := buildZip(t, map[string]string{
		"spin.toml": "spin_manifest_version = 2",
		"app.py":    "print(1)",
	})

	o.RunBuild(ctx, BuildRequest{
		WorkspaceID: "ws1",
		TaskID:      tk.ID,
		AppName:     "myapp",
		FileContent: data,
		Filename:    "app.zip",
	})

	got, err := manager.GetTask(ctx, tk.ID, "ws1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.NotEmpty(t, got.WasmPath)
	assert.Empty(t, got.ErrorMessage)
}

func TestRunBuild_UnsupportedFileTypeFails(t *testing.T) {
	o, manager, _ := newTestOrchestrator()
	ctx := context.Background()

	tk, err := manager.CreateTask(ctx, "ws1", "myapp", "")
	require.NoError(t, err)

	o.RunBuild(ctx, BuildRequest{
		WorkspaceID: "ws1",
		TaskID:      tk.ID,
		FileContent: []byte("not code"),
		Filename:    "app.txt",
	})

	got, err := manager.GetTask(ctx, tk.ID, "ws1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "unsupported file type")
}

func TestRunPush_DelegatesToCompileServiceUsingKnownSourceURI(t *testing.T) {
	o, manager, _ := newTestOrchestrator()
	ctx := context.Background()

	tk, err := manager.CreateTask(ctx, "ws1", "myapp", "")
	require.NoError(t, err)

	o.RunPush(ctx, PushRequest{
		WorkspaceID: "ws1",
		TaskID:      tk.ID,
		SourceURI:   "s3://test-bucket/build-sources/ws1/" + tk.ID + "/",
		RegistryURL: "123.dkr.ecr.amazonaws.com/spin-myapp",
	})

	got, err := manager.GetTask(ctx, tk.ID, "ws1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.NotEmpty(t, got.ImageURL)
}

func TestRunBuildAndPush_BuildFailureLeavesWasmPathUnsetAndRecordsError(t *testing.T) {
	o, manager, _ := newTestOrchestrator()
	ctx := context.Background()

	tk, err := manager.CreateTask(ctx, "ws1", "myapp", "")
	require.NoError(t, err)

	o.RunBuildAndPush(ctx, BuildAndPushRequest{
		WorkspaceID: "ws1",
		TaskID:      tk.ID,
		FileContent: []byte("whatever"),
		Filename:    "app.unknown",
		RegistryURL: "123.dkr.ecr.amazonaws.com/spin-myapp",
	})

	got, err := manager.GetTask(ctx, tk.ID, "ws1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusFailed, got.Status)
	assert.Empty(t, got.WasmPath)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestRunBuildAndPush_SequencesThroughBuildingPushingDone(t *testing.T) {
	o, manager, _ := newTestOrchestrator()
	ctx := context.Background()

	tk, err := manager.CreateTask(ctx, "ws1", "myapp", "")
	require.NoError(t, err)

	data := buildZip(t, map[string]string{
		"spin.toml": "spin_manifest_version = 2",
		"app.py":    "print(1)",
	})

	o.RunBuildAndPush(ctx, BuildAndPushRequest{
		WorkspaceID: "ws1",
		TaskID:      tk.ID,
		AppName:     "myapp",
		FileContent: data,
		Filename:    "app.zip",
		RegistryURL: "123.dkr.ecr.amazonaws.com/spin-myapp",
	})

	got, err := manager.GetTask(ctx, tk.ID, "ws1")
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, got.Status)
	assert.NotEmpty(t, got.WasmPath)
	assert.NotEmpty(t, got.ImageURL)
}
