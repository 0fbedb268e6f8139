// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
)

// writeJSON writes data as the JSON response body with statusCode,
// grounded on the teacher's writeSuccessResponse/writeErrorResponse
// helpers in internal/openchoreo-api/handlers/helpers.go, adapted to this
// module's flat (non-enveloped) response shapes.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data) // ignore encoding errors for response
}

// writeDetail writes the FastAPI HTTPException-shaped {detail} error body.
func writeDetail(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, apimodels.DetailErrorResponse{Detail: detail})
}

// writeValidationErrors writes the 422 body for struct validation failures.
func writeValidationErrors(w http.ResponseWriter, descriptors []apimodels.ErrorDescriptor) {
	writeJSON(w, http.StatusUnprocessableEntity, apimodels.ValidationErrorResponse{Errors: descriptors})
}
