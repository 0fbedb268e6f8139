// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"os"

	"github.com/openchoreo/wasmforge/internal/wasmforge/errs"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
)

// BuildAndPushRequest carries everything RunBuildAndPush needs, combining
// BuildRequest's ingestion fields with PushRequest's registry fields.
type BuildAndPushRequest struct {
	WorkspaceID string
	TaskID      string
	AppName     string
	FileContent []byte
	Filename    string
	RegistryURL string
	Username    string
	Password    string
	Tag         string
}

// SubmitBuildAndPush runs RunBuildAndPush on the pool, fire-and-forget.
func (o *Orchestrator) SubmitBuildAndPush(req BuildAndPushRequest) {
	o.pool.Go(func() {
		o.RunBuildAndPush(context.Background(), req)
	})
}

// RunBuildAndPush sequentially composes the build and push pipelines over
// one task: BUILDING -> PUSHING -> DONE|FAILED. The artifact URI produced
// by the build stage is recorded on the PUSHING transition and carried
// forward so that, on success, both WasmPath and ImageURL are recorded on
// the terminal DONE transition (field-additive: a push failure leaves the
// WasmPath written at the build stage in place).
func (o *Orchestrator) RunBuildAndPush(ctx context.Context, req BuildAndPushRequest) {
	o.transition(ctx, req.TaskID, taskstore.StatusUpdate{Status: task.StatusBuilding})

	workDir, err := o.Ingestor.CreateTempWorkDir()
	if err != nil {
		o.fail(ctx, req.TaskID, errs.Internal(err, "create work directory"))
		return
	}
	defer os.RemoveAll(workDir)

	appDir, err := o.ingestSource(req.FileContent, req.Filename, workDir)
	if err != nil {
		o.fail(ctx, req.TaskID, err)
		return
	}

	sourceURI, err := o.Objects.UploadSourceDirectory(ctx, req.WorkspaceID, req.TaskID, appDir)
	if err != nil {
		o.fail(ctx, req.TaskID, errs.ExternalStore(err, "upload source directory"))
		return
	}

	wasmPath, err := o.build(ctx, req.WorkspaceID, req.TaskID, req.AppName, appDir, sourceURI)
	if err != nil {
		o.fail(ctx, req.TaskID, err)
		return
	}
	// Record the build's success immediately: a later push failure must
	// still leave WasmPath set on the terminal FAILED transition.
	o.transition(ctx, req.TaskID, taskstore.StatusUpdate{
		Status:   task.StatusPushing,
		WasmPath: strPtr(wasmPath),
	})

	imageURL, err := o.push(ctx, PushRequest{
		WorkspaceID: req.WorkspaceID,
		TaskID:      req.TaskID,
		SourceURI:   sourceURI,
		AppDir:      appDir,
		RegistryURL: req.RegistryURL,
		Username:    req.Username,
		Password:    req.Password,
		Tag:         req.Tag,
	})
	if err != nil {
		o.fail(ctx, req.TaskID, err)
		return
	}

	o.transition(ctx, req.TaskID, taskstore.StatusUpdate{
		Status:   task.StatusDone,
		WasmPath: strPtr(wasmPath),
		ImageURL: strPtr(imageURL),
	})
}
