// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package compileservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// EnvEndpoint is the environment variable naming the Core Service base URL.
	EnvEndpoint = "CORE_SERVICE_ENDPOINT"
	// EnvTimeout is the environment variable overriding the request timeout,
	// in whole seconds.
	EnvTimeout = "CORE_SERVICE_TIMEOUT"

	// DefaultTimeout is applied when EnvTimeout is unset.
	DefaultTimeout = 300 * time.Second

	buildPath = "/api/v1/build"
	pushPath  = "/api/v1/push"
)

// RemoteClient calls an external compile-service HTTP API for build and
// push operations.
type RemoteClient struct {
	Endpoint   string
	httpClient *http.Client
}

// NewRemoteClient constructs a RemoteClient bound to endpoint with the given
// request timeout. A zero timeout falls back to DefaultTimeout.
func NewRemoteClient(endpoint string, timeout time.Duration) *RemoteClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RemoteClient{
		Endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RemoteClient) IsConfigured() bool {
	return c.Endpoint != ""
}

func (c *RemoteClient) Build(ctx context.Context, workspaceID, taskID, s3SourcePath, appName string) Result {
	if !c.IsConfigured() {
		return Result{Success: false, Operation: OperationBuild, Error: "Core Service endpoint not configured"}
	}

	payload := map[string]any{
		"workspace_id":   workspaceID,
		"task_id":        taskID,
		"s3_source_path": s3SourcePath,
	}
	if appName != "" {
		payload["app_name"] = appName
	}

	var data struct {
		WasmPath string `json:"wasm_path"`
	}
	if err := c.post(ctx, buildPath, payload, &data); err != nil {
		return Result{Success: false, Operation: OperationBuild, Error: fmt.Sprintf("Core Service build failed: %v", err)}
	}
	return Result{Success: true, Operation: OperationBuild, WasmPath: data.WasmPath}
}

func (c *RemoteClient) Push(ctx context.Context, workspaceID, taskID, s3SourcePath, registryURL, tag string) Result {
	if !c.IsConfigured() {
		return Result{Success: false, Operation: OperationPush, Error: "Core Service endpoint not configured"}
	}

	payload := map[string]any{
		"workspace_id":   workspaceID,
		"task_id":        taskID,
		"s3_source_path": s3SourcePath,
		"registry_url":   registryURL,
	}
	if tag != "" {
		payload["tag"] = tag
	}

	var data struct {
		ImageURL string `json:"image_url"`
	}
	if err := c.post(ctx, pushPath, payload, &data); err != nil {
		return Result{Success: false, Operation: OperationPush, Error: fmt.Sprintf("Core Service push failed: %v", err)}
	}
	return Result{Success: true, Operation: OperationPush, ImageURL: data.ImageURL}
}

// post sends a JSON POST request and decodes a JSON response into out. On
// any status other than 200 or 202 it extracts a human-readable error from
// the body following the detail/error/message/raw-body fallback chain.
func (c *RemoteClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s", c.httpClient.Timeout)
		}
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		if len(respBody) == 0 {
			return nil
		}
		return json.Unmarshal(respBody, out)
	}

	return errors.New(extractError(resp.StatusCode, respBody))
}

func extractError(statusCode int, body []byte) string {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if v, ok := data[key]; ok {
				return fmt.Sprintf("%v", v)
			}
		}
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, string(body))
}
