// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package services constructs and holds the one set of domain dependencies
// the HTTP handlers need, grounded on the teacher's
// internal/openchoreo-api/services.Services aggregator: a single struct of
// already-wired components built once at process startup and passed down
// as an explicit dependency, per spec.md §9's "pass them as explicit
// dependencies into the orchestrator; construct one set per process at
// startup" design note.
package services

import (
	"github.com/openchoreo/wasmforge/internal/wasmforge/deploy"
	"github.com/openchoreo/wasmforge/internal/wasmforge/objectstore"
	"github.com/openchoreo/wasmforge/internal/wasmforge/orchestrator"
	"github.com/openchoreo/wasmforge/internal/wasmforge/scaffold"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
)

// Services bundles every component the HTTP handlers call into directly.
type Services struct {
	Tasks        *task.Manager
	Objects      objectstore.Store
	Orchestrator *orchestrator.Orchestrator
	Scaffold     *scaffold.Invoker
	Deployer     *deploy.Deployer
}

// New bundles the given, already-constructed components. Construction
// (which needs config and AWS clients) happens in cmd/wasmforge-api/main.go.
func New(tasks *task.Manager, objects objectstore.Store, orch *orchestrator.Orchestrator, scaffoldInvoker *scaffold.Invoker, deployer *deploy.Deployer) *Services {
	return &Services{
		Tasks:        tasks,
		Objects:      objects,
		Orchestrator: orch,
		Scaffold:     scaffoldInvoker,
		Deployer:     deployer,
	}
}
