// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package objectstore uploads source trees and compiled artifacts under a
// deterministic key layout, and downloads source trees back to a local
// directory, grounded on original_source/src/services/s3_storage.py.
package objectstore

import (
	"context"
	"fmt"
	"strings"
)

// Default bucket name, region, and key prefixes, mirroring
// S3StorageService's class constants in the original source.
const (
	DefaultBucketName  = "sfbank-blue-functions-code-bucket"
	DefaultRegion      = "ap-northeast-2"
	DefaultSourcePfx   = "build-sources"
	DefaultArtifactPfx = "build-artifacts"
)

// Store uploads/downloads the source trees and artifacts that flow through
// the build pipeline. Keys are deterministic and idempotent: the same path
// always overwrites.
type Store interface {
	// SourcePath returns the scheme-qualified URI for a single source file.
	SourcePath(workspaceID, taskID, filename string) string
	// SourcePrefix returns the scheme-qualified URI for a source directory.
	SourcePrefix(workspaceID, taskID string) string
	// ArtifactPath returns the scheme-qualified URI for a single artifact file.
	ArtifactPath(taskID, filename string) string
	// ArtifactPrefix returns the scheme-qualified URI for an artifact directory.
	ArtifactPrefix(taskID string) string

	// UploadSourceDirectory walks localDir, preserving relative paths, and
	// fails fast on the first upload error.
	UploadSourceDirectory(ctx context.Context, workspaceID, taskID, localDir string) (string, error)
	// UploadArtifact uploads a single artifact file (e.g. app.wasm).
	UploadArtifact(ctx context.Context, taskID, localFilePath string) (string, error)
	// DownloadSourceDirectory parses a scheme-qualified URI, lists objects
	// under the prefix, and reconstructs the tree under localDir.
	DownloadSourceDirectory(ctx context.Context, sourceURI, localDir string) error
}

// ParseURI splits a scheme-qualified "s3://bucket/key" URI into its bucket
// and key components.
func ParseURI(uri string) (bucket, key string, err error) {
	const scheme = "s3://"
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("objectstore: invalid URI %q: must start with %q", uri, scheme)
	}
	rest := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, strings.TrimRight(key, "/"), nil
}
