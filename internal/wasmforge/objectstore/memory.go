// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store implementation backed by an in-memory
// byte map, used in tests and local development without AWS credentials.
type MemoryStore struct {
	mu          sync.RWMutex
	objects     map[string][]byte // key: bucket/key
	bucket      string
	sourcePfx   string
	artifactPfx string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(bucket, sourcePfx, artifactPfx string) *MemoryStore {
	if sourcePfx == "" {
		sourcePfx = DefaultSourcePfx
	}
	if artifactPfx == "" {
		artifactPfx = DefaultArtifactPfx
	}
	return &MemoryStore{
		objects:     make(map[string][]byte),
		bucket:      bucket,
		sourcePfx:   sourcePfx,
		artifactPfx: artifactPfx,
	}
}

func (s *MemoryStore) uri(key string) string { return fmt.Sprintf("s3://%s/%s", s.bucket, key) }

func (s *MemoryStore) SourcePath(workspaceID, taskID, filename string) string {
	return s.uri(fmt.Sprintf("%s/%s/%s/%s", s.sourcePfx, workspaceID, taskID, filename))
}

func (s *MemoryStore) SourcePrefix(workspaceID, taskID string) string {
	return s.uri(fmt.Sprintf("%s/%s/%s/", s.sourcePfx, workspaceID, taskID))
}

func (s *MemoryStore) ArtifactPath(taskID, filename string) string {
	return s.uri(fmt.Sprintf("%s/%s/%s", s.artifactPfx, taskID, filename))
}

func (s *MemoryStore) ArtifactPrefix(taskID string) string {
	return s.uri(fmt.Sprintf("%s/%s/", s.artifactPfx, taskID))
}

func (s *MemoryStore) UploadSourceDirectory(_ context.Context, workspaceID, taskID, localDir string) (string, error) {
	info, err := os.Stat(localDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("objectstore: path is not a directory: %s", localDir)
	}

	err = filepath.WalkDir(localDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%s/%s/%s/%s", s.sourcePfx, workspaceID, taskID, filepath.ToSlash(rel))
		s.mu.Lock()
		s.objects[key] = data
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.SourcePrefix(workspaceID, taskID), nil
}

func (s *MemoryStore) UploadArtifact(_ context.Context, taskID, localFilePath string) (string, error) {
	data, err := os.ReadFile(localFilePath)
	if err != nil {
		return "", fmt.Errorf("objectstore: file not found: %s: %w", localFilePath, err)
	}
	filename := filepath.Base(localFilePath)
	key := fmt.Sprintf("%s/%s/%s", s.artifactPfx, taskID, filename)
	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()
	return s.ArtifactPath(taskID, filename), nil
}

func (s *MemoryStore) DownloadSourceDirectory(_ context.Context, sourceURI, localDir string) error {
	bucket, prefix, err := ParseURI(sourceURI)
	if err != nil {
		return err
	}
	if bucket != s.bucket {
		return fmt.Errorf("objectstore: unknown bucket %q", bucket)
	}
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	downloaded := 0
	for key, data := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
		if rel == "" {
			continue
		}
		localPath := filepath.Join(localDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			return err
		}
		downloaded++
	}
	if downloaded == 0 {
		return fmt.Errorf("objectstore: no files found at s3 path: %s", sourceURI)
	}
	return nil
}
