// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package compileservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_Build(t *testing.T) {
	c := NewMockClient("mybucket")
	assert.True(t, c.IsConfigured())

	res := c.Build(context.Background(), "ws1", "task1", "s3://mybucket/build-sources/ws1/task1/", "myapp")
	assert.True(t, res.Success)
	assert.Equal(t, OperationBuild, res.Operation)
	assert.Equal(t, "s3://mybucket/build-artifacts/task1/app.wasm", res.WasmPath)
}

func TestMockClient_Push_DefaultsTagFromTaskID(t *testing.T) {
	c := NewMockClient("")
	res := c.Push(context.Background(), "ws1", "task1234567890", "s3://...", "123.dkr.ecr.amazonaws.com/spin-myapp", "")
	assert.True(t, res.Success)
	assert.Equal(t, "123.dkr.ecr.amazonaws.com/spin-myapp:mock-task12345678", res.ImageURL)
}

func TestMockClient_Push_UsesExplicitTag(t *testing.T) {
	c := NewMockClient("")
	res := c.Push(context.Background(), "ws1", "task1", "s3://...", "registry/app", "v1.2.3")
	assert.Equal(t, "registry/app:v1.2.3", res.ImageURL)
}

func TestRemoteClient_Build_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/build", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ws1", body["workspace_id"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"wasm_path": "s3://bucket/build-artifacts/task1/app.wasm"})
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, 5*time.Second)
	assert.True(t, c.IsConfigured())

	res := c.Build(context.Background(), "ws1", "task1", "s3://bucket/src/", "")
	assert.True(t, res.Success)
	assert.Equal(t, "s3://bucket/build-artifacts/task1/app.wasm", res.WasmPath)
}

func TestRemoteClient_Push_ErrorExtractedFromDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "registry unreachable"})
	}))
	defer srv.Close()

	c := NewRemoteClient(srv.URL, 5*time.Second)
	res := c.Push(context.Background(), "ws1", "task1", "s3://bucket/src/", "registry/app", "")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "registry unreachable")
}

func TestRemoteClient_NotConfigured(t *testing.T) {
	c := NewRemoteClient("", 0)
	assert.False(t, c.IsConfigured())
	res := c.Build(context.Background(), "ws1", "task1", "s3://bucket/src/", "")
	assert.False(t, res.Success)
	assert.Equal(t, "Core Service endpoint not configured", res.Error)
}
