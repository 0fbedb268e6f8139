// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package compileservice

import (
	"context"
	"fmt"

	"github.com/openchoreo/wasmforge/internal/wasmforge/objectstore"
)

// MockClient simulates successful build and push operations. It is used
// when no remote compile service endpoint is configured, and is always
// considered configured as a fallback.
type MockClient struct {
	bucket string
}

// NewMockClient constructs a MockClient that synthesizes artifact paths
// under the given bucket, defaulting to objectstore.DefaultBucketName.
func NewMockClient(bucket string) *MockClient {
	if bucket == "" {
		bucket = objectstore.DefaultBucketName
	}
	return &MockClient{bucket: bucket}
}

func (c *MockClient) Build(_ context.Context, _, taskID, _, _ string) Result {
	return Result{
		Success:   true,
		Operation: OperationBuild,
		WasmPath:  fmt.Sprintf("s3://%s/build-artifacts/%s/app.wasm", c.bucket, taskID),
	}
}

func (c *MockClient) Push(_ context.Context, _, taskID, _, registryURL, tag string) Result {
	imageTag := tag
	if imageTag == "" {
		imageTag = "mock-" + shortID(taskID)
	}
	return Result{
		Success:   true,
		Operation: OperationPush,
		ImageURL:  fmt.Sprintf("%s:%s", registryURL, imageTag),
	}
}

func (c *MockClient) IsConfigured() bool { return true }

func shortID(taskID string) string {
	if len(taskID) <= 12 {
		return taskID
	}
	return taskID[:12]
}
