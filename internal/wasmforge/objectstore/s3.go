// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store is the Store implementation backed by AWS S3.
type S3Store struct {
	client      *s3.Client
	bucket      string
	sourcePfx   string
	artifactPfx string
	logger      *slog.Logger
}

// NewS3Store constructs an S3Store. sourcePfx/artifactPfx default to
// DefaultSourcePfx/DefaultArtifactPfx when empty.
func NewS3Store(client *s3.Client, bucket, sourcePfx, artifactPfx string, logger *slog.Logger) *S3Store {
	if sourcePfx == "" {
		sourcePfx = DefaultSourcePfx
	}
	if artifactPfx == "" {
		artifactPfx = DefaultArtifactPfx
	}
	return &S3Store{
		client:      client,
		bucket:      bucket,
		sourcePfx:   sourcePfx,
		artifactPfx: artifactPfx,
		logger:      logger.With("component", "objectstore"),
	}
}

func (s *S3Store) uri(key string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

func (s *S3Store) SourcePath(workspaceID, taskID, filename string) string {
	return s.uri(fmt.Sprintf("%s/%s/%s/%s", s.sourcePfx, workspaceID, taskID, filename))
}

func (s *S3Store) SourcePrefix(workspaceID, taskID string) string {
	return s.uri(fmt.Sprintf("%s/%s/%s/", s.sourcePfx, workspaceID, taskID))
}

func (s *S3Store) ArtifactPath(taskID, filename string) string {
	return s.uri(fmt.Sprintf("%s/%s/%s", s.artifactPfx, taskID, filename))
}

func (s *S3Store) ArtifactPrefix(taskID string) string {
	return s.uri(fmt.Sprintf("%s/%s/", s.artifactPfx, taskID))
}

func (s *S3Store) uploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("objectstore: file not found: %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("objectstore: upload %s to s3://%s/%s: %w", localPath, s.bucket, key, err)
	}
	return nil
}

// UploadSourceDirectory walks localDir, preserving relative paths, and fails
// fast on the first upload error, matching upload_source_directory's
// rglob-and-fail-fast behavior.
func (s *S3Store) UploadSourceDirectory(ctx context.Context, workspaceID, taskID, localDir string) (string, error) {
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
		key := fmt.Sprintf("%s/%s/%s/%s", s.sourcePfx, workspaceID, taskID, filepath.ToSlash(rel))
		return s.uploadFile(ctx, path, key)
	})
	if err != nil {
		return "", err
	}

	return s.SourcePrefix(workspaceID, taskID), nil
}

// UploadArtifact uploads a single artifact file (e.g. app.wasm).
func (s *S3Store) UploadArtifact(ctx context.Context, taskID, localFilePath string) (string, error) {
	filename := filepath.Base(localFilePath)
	key := fmt.Sprintf("%s/%s/%s", s.artifactPfx, taskID, filename)
	if err := s.uploadFile(ctx, localFilePath, key); err != nil {
		return "", err
	}
	return s.ArtifactPath(taskID, filename), nil
}

// DownloadSourceDirectory parses a scheme-qualified URI, lists objects under
// the prefix, and reconstructs the tree locally, creating intermediate
// directories.
func (s *S3Store) DownloadSourceDirectory(ctx context.Context, sourceURI, localDir string) error {
	bucket, prefix, err := ParseURI(sourceURI)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return fmt.Errorf("objectstore: create local dir %s: %w", localDir, err)
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	downloaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("objectstore: list objects under s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
			if rel == "" {
				continue
			}
			localPath := filepath.Join(localDir, filepath.FromSlash(rel))
			if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
				return fmt.Errorf("objectstore: create dir for %s: %w", localPath, err)
			}
			if err := s.downloadFile(ctx, bucket, key, localPath); err != nil {
				return err
			}
			downloaded++
		}
	}

	if downloaded == 0 {
		return fmt.Errorf("objectstore: no files found at s3 path: %s", sourceURI)
	}
	return nil
}

func (s *S3Store) downloadFile(ctx context.Context, bucket, key, localPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("objectstore: download s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out.Body); err != nil {
		return fmt.Errorf("objectstore: read body s3://%s/%s: %w", bucket, key, err)
	}
	if err := os.WriteFile(localPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("objectstore: write local file %s: %w", localPath, err)
	}
	return nil
}
