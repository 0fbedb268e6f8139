// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package localbuild

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	loginTimeout = 30 * time.Second
	pushTimeout  = 120 * time.Second

	// ecrHostSuffix, together with a ".dkr.ecr." label, matches AWS ECR
	// registry hosts, the one ambient cloud-identity form the deployed
	// environment concretely supports.
	ecrHostSuffix = ".amazonaws.com"
)

// PushResult is the outcome of a registry push.
type PushResult struct {
	Success  bool
	ImageURI string
	Error    string
}

// GenerateTag computes a deterministic 12-char lowercase hex tag from the
// SHA-256 digest of the concatenation of every regular file's contents
// under appDir, sorted by relative path. Pure and stable across calls.
func GenerateTag(appDir string) (string, error) {
	var relPaths []string
	contents := make(map[string][]byte)

	err := filepath.WalkDir(appDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(appDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		relPaths = append(relPaths, rel)
		contents[rel] = data
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read source tree for tag generation: %w", err)
	}

	sort.Strings(relPaths)

	h := sha256.New()
	for _, rel := range relPaths {
		h.Write(contents[rel])
	}
	digest := hex.EncodeToString(h.Sum(nil))
	return digest[:12], nil
}

// registryLogin performs "docker login" against the registry host using
// explicit credentials when given, or falls back to the ambient cloud
// identity when the registry looks like an ECR host and no credentials
// were supplied.
func registryLogin(ctx context.Context, registryURL, username, password string) error {
	host := registryURL
	if idx := strings.IndexByte(host, '/'); idx >= 0 {
		host = host[:idx]
	}

	if username == "" && password == "" {
		if strings.Contains(host, ".dkr.ecr.") && strings.HasSuffix(host, ecrHostSuffix) {
			return nil // ambient workload identity handles ECR auth at push time.
		}
		return errors.New("registry credentials not supplied and registry is not a workload-identity-capable host")
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "docker", "login", host, "--username", username, "--password-stdin")
	cmd.Stdin = strings.NewReader(password)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return errors.New("registry login timed out")
	}
	if err != nil {
		return fmt.Errorf("registry login failed: %s", string(out))
	}
	return nil
}

// Push tags and pushes the artifact at appDir to registryURL:tag (generating
// the tag from content when tag is empty), after logging in.
func Push(ctx context.Context, appDir, registryURL, username, password, tag string) PushResult {
	if tag == "" {
		generated, err := GenerateTag(appDir)
		if err != nil {
			return PushResult{Success: false, Error: err.Error()}
		}
		tag = generated
	}

	if err := registryLogin(ctx, registryURL, username, password); err != nil {
		return PushResult{Success: false, Error: err.Error()}
	}

	imageURI := fmt.Sprintf("%s:%s", registryURL, tag)

	loginCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	cmd := exec.CommandContext(loginCtx, "docker", "push", imageURI)
	cmd.Dir = appDir
	out, err := cmd.CombinedOutput()
	if loginCtx.Err() == context.DeadlineExceeded {
		return PushResult{Success: false, Error: "docker push timed out"}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return PushResult{Success: false, Error: "docker CLI not found. Please ensure docker is installed and in PATH"}
	}
	if err != nil {
		return PushResult{Success: false, Error: string(out)}
	}

	return PushResult{Success: true, ImageURI: imageURI}
}

// FullPush runs registry login then push, mirroring PushService.full_push.
func FullPush(ctx context.Context, appDir, registryURL, username, password, tag string) PushResult {
	return Push(ctx, appDir, registryURL, username, password, tag)
}
