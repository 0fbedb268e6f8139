// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
	"github.com/openchoreo/wasmforge/internal/wasmforge/orchestrator"
)

// Push handles POST /push: accepts a JSON body describing an already-built
// local source directory (or a known S3 source path) and starts a
// background push pipeline, grounded on
// original_source/src/api/routes.py's push route.
func (h *Handler) Push(w http.ResponseWriter, r *http.Request) {
	var req apimodels.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if descriptors := apimodels.ValidateStruct(req); descriptors != nil {
		writeValidationErrors(w, descriptors)
		return
	}

	tk, err := h.services.Tasks.CreateTask(r.Context(), req.WorkspaceID, "", req.AppDir)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.services.Orchestrator.SubmitPush(orchestrator.PushRequest{
		WorkspaceID: req.WorkspaceID,
		TaskID:      tk.ID,
		SourceURI:   req.S3SourcePath,
		AppDir:      req.AppDir,
		RegistryURL: req.RegistryURL,
		Username:    req.Username,
		Password:    req.Password,
		Tag:         req.Tag,
	})

	writeJSON(w, http.StatusAccepted, apimodels.BuildResponse{
		TaskID:  tk.ID,
		Status:  string(tk.Status),
		Message: "Push task created",
	})
}
