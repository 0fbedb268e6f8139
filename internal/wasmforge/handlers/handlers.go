// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package handlers wires the eight HTTP routes spec.md §6 describes onto
// the Services aggregator, grounded on the teacher's
// internal/openchoreo-api/handlers/handlers.go (Handler struct, Routes()
// method, RouteBuilder-based registration) — this module has no
// authentication/authorization surface to wire in (an explicit spec.md
// Non-goal), so Routes registers every handler directly under the logger
// middleware with no JWT/audit groups.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/openchoreo/wasmforge/internal/server/middleware/logger"
	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
	"github.com/openchoreo/wasmforge/internal/wasmforge/services"
	"github.com/openchoreo/wasmforge/pkg/middleware"
)

// Handler holds the services a request needs and exposes one method per
// route.
type Handler struct {
	services *services.Services
	logger   *slog.Logger
}

// New creates a new Handler instance.
func New(svc *services.Services, log *slog.Logger) *Handler {
	return &Handler{services: svc, logger: log}
}

// Routes sets up all HTTP routes and returns the configured handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	routes := middleware.NewRouteBuilder(mux).With(logger.Middleware(h.logger))

	routes.HandleFunc("GET /health", h.Health)
	routes.HandleFunc("POST /build", h.Build)
	routes.HandleFunc("POST /push", h.Push)
	routes.HandleFunc("POST /build-and-push", h.BuildAndPush)
	routes.HandleFunc("POST /scaffold", h.Scaffold)
	routes.HandleFunc("POST /deploy", h.Deploy)
	routes.HandleFunc("GET /tasks/{taskId}", h.GetTaskStatus)
	routes.HandleFunc("GET /workspaces/{workspaceId}/tasks", h.ListWorkspaceTasks)

	return mux
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apimodels.HealthResponse{Status: "healthy"})
}
