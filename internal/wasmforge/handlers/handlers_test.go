// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
	"github.com/openchoreo/wasmforge/internal/wasmforge/compileservice"
	"github.com/openchoreo/wasmforge/internal/wasmforge/deploy"
	"github.com/openchoreo/wasmforge/internal/wasmforge/ingest"
	"github.com/openchoreo/wasmforge/internal/wasmforge/localbuild"
	"github.com/openchoreo/wasmforge/internal/wasmforge/objectstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/orchestrator"
	"github.com/openchoreo/wasmforge/internal/wasmforge/scaffold"
	"github.com/openchoreo/wasmforge/internal/wasmforge/services"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/typecheck"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandler() *Handler {
	logger := discardLogger()
	store := taskstore.NewMemoryStore()
	manager := task.NewManager(store, logger)
	objects := objectstore.NewMemoryStore("test-bucket", "", "")

	orch := orchestrator.New(orchestrator.Config{
		Tasks:    manager,
		Objects:  objects,
		Compile:  compileservice.NewMockClient("test-bucket"),
		Builder:  localbuild.New("/nonexistent-template", logger),
		Ingestor: ingest.New(logger),
		TypeGate: typecheck.New(),
		PoolSize: 2,
		Logger:   logger,
	})

	svc := services.New(manager, objects, orch, scaffold.New(), deploy.New())
	return New(svc, logger)
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

func multipartBuildRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/build", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp apimodels.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestBuild_MissingWorkspaceIDReturns422(t *testing.T) {
	h := newTestHandler()
	req := multipartBuildRequest(t, map[string]string{}, "app.py", []byte("print(1)"))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp apimodels.ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "workspace_id", resp.Errors[0].Field)
}

func TestBuild_AcceptsAndReturnsPendingTask(t *testing.T) {
	h := newTestHandler()
	data := buildZip(t, map[string]string{
		"spin.toml": "spin_manifest_version = 2",
		"app.py":    "print(1)",
	})
	req := multipartBuildRequest(t, map[string]string{
		"workspace_id": "ws1",
		"app_name":     "myapp",
	}, "app.zip", data)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var resp apimodels.BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TaskID)
	assert.Equal(t, string(task.StatusPending), resp.Status)
	assert.Contains(t, resp.SourceS3Path, "ws1")
}

func TestGetTaskStatus_NotFoundReturns404(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/tasks/does-not-exist?workspace_id=ws1", nil)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskStatus_ReturnsCreatedTask(t *testing.T) {
	h := newTestHandler()
	buildReq := multipartBuildRequest(t, map[string]string{"workspace_id": "ws1"}, "app.py", []byte("print(1)"))
	buildRec := httptest.NewRecorder()
	h.Routes().ServeHTTP(buildRec, buildReq)

	var buildResp apimodels.BuildResponse
	require.NoError(t, json.Unmarshal(buildRec.Body.Bytes(), &buildResp))

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+buildResp.TaskID+"?workspace_id=ws1", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp apimodels.TaskStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, buildResp.TaskID, resp.TaskID)
}

func TestListWorkspaceTasks_CountsCreatedTasks(t *testing.T) {
	h := newTestHandler()
	for i := 0; i < 3; i++ {
		req := multipartBuildRequest(t, map[string]string{"workspace_id": "ws-many"}, "app.py", []byte("print(1)"))
		h.Routes().ServeHTTP(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest(http.MethodGet, "/workspaces/ws-many/tasks", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp apimodels.WorkspaceTasksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ws-many", resp.WorkspaceID)
	assert.Equal(t, 3, resp.Count)
}

func TestPush_MissingRequiredFieldsReturns422(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestScaffold_MissingImageRefReturns422(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/scaffold", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeploy_AutoscalingAndReplicasConflictReturns400(t *testing.T) {
	h := newTestHandler()
	body := `{"namespace":"default","image_ref":"r/x:1","enable_autoscaling":true,"replicas":3}`
	req := httptest.NewRequest(http.MethodPost, "/deploy", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apimodels.DetailErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "mutually exclusive")
}

func TestDeploy_MissingRequiredFieldsReturns422(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/deploy", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
