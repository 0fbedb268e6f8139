// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator runs the build, push, and build-and-push pipelines
// as fire-and-forget background work, sequencing the other components and
// driving every transition of a task through the Task Manager, grounded on
// original_source/src/api/routes.py's run_build_task, run_push_task, and
// run_build_and_push_task background functions.
package orchestrator

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/openchoreo/wasmforge/internal/wasmforge/compileservice"
	"github.com/openchoreo/wasmforge/internal/wasmforge/errs"
	"github.com/openchoreo/wasmforge/internal/wasmforge/ingest"
	"github.com/openchoreo/wasmforge/internal/wasmforge/localbuild"
	"github.com/openchoreo/wasmforge/internal/wasmforge/objectstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/typecheck"
)

// Orchestrator owns every dependency a pipeline needs and is the sole
// writer of task status, matching spec.md 5's single-writer discipline.
type Orchestrator struct {
	Tasks    *task.Manager
	Objects  objectstore.Store
	Compile  compileservice.Client
	Builder  *localbuild.Executor
	Ingestor *ingest.Handler
	TypeGate *typecheck.Gate

	pool   *Pool
	logger *slog.Logger
}

// Config bundles the Orchestrator's dependencies plus the concurrency
// bound for New.
type Config struct {
	Tasks        *task.Manager
	Objects      objectstore.Store
	Compile      compileservice.Client
	Builder      *localbuild.Executor
	Ingestor     *ingest.Handler
	TypeGate     *typecheck.Gate
	PoolSize     int
	Logger       *slog.Logger
}

// New constructs an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		Tasks:    cfg.Tasks,
		Objects:  cfg.Objects,
		Compile:  cfg.Compile,
		Builder:  cfg.Builder,
		Ingestor: cfg.Ingestor,
		TypeGate: cfg.TypeGate,
		pool:     NewPool(cfg.PoolSize),
		logger:   cfg.Logger.With("component", "orchestrator"),
	}
}

func strPtr(s string) *string { return &s }

// transition applies a status update, logging but not panicking on an
// illegal-transition error: the caller's pipeline still returns, since the
// underlying task state is what it is regardless of whether this specific
// write lands.
func (o *Orchestrator) transition(ctx context.Context, taskID string, upd taskstore.StatusUpdate) {
	if err := o.Tasks.UpdateStatus(ctx, taskID, upd); err != nil {
		o.logger.Error("status transition failed", "task_id", taskID, "to", upd.Status, "error", err)
	}
}

func (o *Orchestrator) fail(ctx context.Context, taskID string, err error) {
	o.logger.Error("pipeline failed", "task_id", taskID, "error", err)
	o.transition(ctx, taskID, taskstore.StatusUpdate{
		Status:       task.StatusFailed,
		ErrorMessage: strPtr(err.Error()),
	})
}

// BuildRequest carries everything RunBuild needs about the uploaded source.
type BuildRequest struct {
	WorkspaceID string
	TaskID      string
	AppName     string
	FileContent []byte
	Filename    string
}

// SubmitBuild runs RunBuild on the pool, fire-and-forget, matching spec.md
// 4.7's "each pipeline runs as a fire-and-forget background task".
func (o *Orchestrator) SubmitBuild(req BuildRequest) {
	o.pool.Go(func() {
		o.RunBuild(context.Background(), req)
	})
}

// RunBuild executes stages 1-5 of spec.md 4.7's build pipeline.
func (o *Orchestrator) RunBuild(ctx context.Context, req BuildRequest) {
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

	o.transition(ctx, req.TaskID, taskstore.StatusUpdate{
		Status:   task.StatusDone,
		WasmPath: strPtr(wasmPath),
	})
}

// ingestSource dispatches on file extension, matching run_build_task's
// zip-vs-single-.py branch and its unsupported-type rejection.
func (o *Orchestrator) ingestSource(fileContent []byte, filename, workDir string) (string, error) {
	var result ingest.Result
	switch {
	case strings.HasSuffix(filename, ".zip"):
		result = o.Ingestor.HandleZip(fileContent, workDir)
	case strings.HasSuffix(filename, ".py"):
		result = o.Ingestor.HandleSinglePy(fileContent, filename, workDir)
	default:
		return "", errs.InputRejected("unsupported file type: %s. Only .py and .zip files are supported", filename)
	}
	if !result.Success {
		return "", errs.InputRejected("%s", result.Error)
	}
	return result.AppDir, nil
}

// build runs stage 4 of the build pipeline: delegate to the compile
// service when configured, else type-check and build locally, then upload
// the artifact.
func (o *Orchestrator) build(ctx context.Context, workspaceID, taskID, appName, appDir, sourceURI string) (string, error) {
	if o.Compile.IsConfigured() {
		result := o.Compile.Build(ctx, workspaceID, taskID, sourceURI, appName)
		if !result.Success {
			return "", errs.RemoteService(nil, "%s", result.Error)
		}
		return result.WasmPath, nil
	}

	typeResult := o.TypeGate.ValidatePython(ctx, appDir)
	if !typeResult.Success {
		return "", errs.InputRejected("type-check failed:\n%s", typeResult.Output)
	}

	buildResult := o.Builder.FullBuild(ctx, appDir)
	if !buildResult.Success {
		return "", errs.Tooling(nil, "build failed: %s", buildResult.Error)
	}

	artifactURI, err := o.Objects.UploadArtifact(ctx, taskID, buildResult.WasmPath)
	if err != nil {
		return "", errs.ExternalStore(err, "upload artifact")
	}
	return artifactURI, nil
}

