// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package compileservice

import (
	"os"
	"strconv"
	"time"
)

// NewFromEnv returns a RemoteClient when CORE_SERVICE_ENDPOINT is set,
// otherwise a MockClient backed by bucket, matching get_core_service_client.
func NewFromEnv(bucket string) Client {
	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		return NewMockClient(bucket)
	}

	timeout := DefaultTimeout
	if raw := os.Getenv(EnvTimeout); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	client := NewRemoteClient(endpoint, timeout)
	if client.IsConfigured() {
		return client
	}
	return NewMockClient(bucket)
}
