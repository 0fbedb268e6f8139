// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
)

// Scaffold handles POST /scaffold: synchronously runs "spin kube scaffold"
// and returns its result, grounded on
// original_source/src/api/routes.py's scaffold route.
func (h *Handler) Scaffold(w http.ResponseWriter, r *http.Request) {
	var req apimodels.ScaffoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if descriptors := apimodels.ValidateStruct(req); descriptors != nil {
		writeValidationErrors(w, descriptors)
		return
	}

	result := h.services.Scaffold.Scaffold(r.Context(), req.ImageRef, req.Component, req.Replicas, req.OutputPath)

	writeJSON(w, http.StatusOK, apimodels.ScaffoldResponse{
		Success:     result.Success,
		YAMLContent: result.YAMLContent,
		FilePath:    result.FilePath,
		Error:       result.Error,
	})
}
