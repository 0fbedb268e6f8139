// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"os"

	"github.com/openchoreo/wasmforge/internal/wasmforge/errs"
	"github.com/openchoreo/wasmforge/internal/wasmforge/localbuild"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
)

// PushRequest carries everything RunPush needs to push an already-built
// application to a registry.
type PushRequest struct {
	WorkspaceID string
	TaskID      string
	SourceURI   string // known source URI, e.g. carried forward from a build stage; may be empty
	AppDir      string // local source directory, used when SourceURI is empty or the compile service is unavailable
	RegistryURL string
	Username    string
	Password    string
	Tag         string
}

// SubmitPush runs RunPush on the pool, fire-and-forget.
func (o *Orchestrator) SubmitPush(req PushRequest) {
	o.pool.Go(func() {
		o.RunPush(context.Background(), req)
	})
}

// RunPush executes spec.md 4.7's push pipeline: delegate to the compile
// service when configured and a source URI is known, else ensure a local
// source directory (downloading from the object store if one was not
// already supplied) and push locally.
func (o *Orchestrator) RunPush(ctx context.Context, req PushRequest) {
	o.transition(ctx, req.TaskID, taskstore.StatusUpdate{Status: task.StatusPushing})

	imageURL, err := o.push(ctx, req)
	if err != nil {
		o.fail(ctx, req.TaskID, err)
		return
	}

	o.transition(ctx, req.TaskID, taskstore.StatusUpdate{
		Status:   task.StatusDone,
		ImageURL: strPtr(imageURL),
	})
}

// push contains the branching logic shared by RunPush and the push half of
// RunBuildAndPush.
func (o *Orchestrator) push(ctx context.Context, req PushRequest) (string, error) {
	if o.Compile.IsConfigured() && req.SourceURI != "" {
		result := o.Compile.Push(ctx, req.WorkspaceID, req.TaskID, req.SourceURI, req.RegistryURL, req.Tag)
		if !result.Success {
			return "", errs.RemoteService(nil, "%s", result.Error)
		}
		return result.ImageURL, nil
	}

	appDir := req.AppDir
	if appDir == "" {
		if req.SourceURI == "" {
			return "", errs.InputRejected("no local source directory or source URI available for push")
		}
		tmpDir, err := os.MkdirTemp("", "wasmforge-push-")
		if err != nil {
			return "", errs.Internal(err, "create temporary download directory")
		}
		defer os.RemoveAll(tmpDir)

		if err := o.Objects.DownloadSourceDirectory(ctx, req.SourceURI, tmpDir); err != nil {
			return "", errs.ExternalStore(err, "download source directory")
		}
		appDir = tmpDir
	}

	result := localbuild.FullPush(ctx, appDir, req.RegistryURL, req.Username, req.Password, req.Tag)
	if !result.Success {
		return "", errs.Tooling(nil, "push failed: %s", result.Error)
	}
	return result.ImageURI, nil
}
