// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"io"
	"net/http"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
	"github.com/openchoreo/wasmforge/internal/wasmforge/orchestrator"
)

// maxUploadMemory bounds the amount of a multipart request buffered in
// memory before the remainder spills to temp files, matching the ~10 MiB a
// single Python source file or small zip archive needs.
const maxUploadMemory = 10 << 20

// Build handles POST /build: accepts a multipart file upload and starts a
// background build pipeline, grounded on
// original_source/src/api/routes.py's build route.
func (h *Handler) Build(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	workspaceID := r.FormValue("workspace_id")
	if workspaceID == "" {
		writeValidationErrors(w, []apimodels.ErrorDescriptor{{Field: "workspace_id", Message: "is required"}})
		return
	}
	appName := r.FormValue("app_name")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationErrors(w, []apimodels.ErrorDescriptor{{Field: "file", Message: "is required"}})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
		return
	}
	filename := header.Filename
	if filename == "" {
		filename = "app.py"
	}

	tk, err := h.services.Tasks.CreateTask(r.Context(), workspaceID, appName, "")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.services.Orchestrator.SubmitBuild(orchestrator.BuildRequest{
		WorkspaceID: workspaceID,
		TaskID:      tk.ID,
		AppName:     appName,
		FileContent: content,
		Filename:    filename,
	})

	writeJSON(w, http.StatusAccepted, apimodels.BuildResponse{
		TaskID:       tk.ID,
		Status:       string(tk.Status),
		Message:      "Build task created",
		SourceS3Path: h.services.Objects.SourcePrefix(workspaceID, tk.ID),
	})
}

// BuildAndPush handles POST /build-and-push: accepts a multipart file
// upload plus registry credentials and runs the combined pipeline.
func (h *Handler) BuildAndPush(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	workspaceID := r.FormValue("workspace_id")
	registryURL := r.FormValue("registry_url")
	var missing []apimodels.ErrorDescriptor
	if workspaceID == "" {
		missing = append(missing, apimodels.ErrorDescriptor{Field: "workspace_id", Message: "is required"})
	}
	if registryURL == "" {
		missing = append(missing, apimodels.ErrorDescriptor{Field: "registry_url", Message: "is required"})
	}
	if len(missing) > 0 {
		writeValidationErrors(w, missing)
		return
	}

	appName := r.FormValue("app_name")
	username := r.FormValue("username")
	password := r.FormValue("password")
	tag := r.FormValue("tag")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeValidationErrors(w, []apimodels.ErrorDescriptor{{Field: "file", Message: "is required"}})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "failed to read uploaded file: "+err.Error())
		return
	}
	filename := header.Filename
	if filename == "" {
		filename = "app.py"
	}

	tk, err := h.services.Tasks.CreateTask(r.Context(), workspaceID, appName, "")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.services.Orchestrator.SubmitBuildAndPush(orchestrator.BuildAndPushRequest{
		WorkspaceID: workspaceID,
		TaskID:      tk.ID,
		AppName:     appName,
		FileContent: content,
		Filename:    filename,
		RegistryURL: registryURL,
		Username:    username,
		Password:    password,
		Tag:         tag,
	})

	writeJSON(w, http.StatusAccepted, apimodels.BuildResponse{
		TaskID:       tk.ID,
		Status:       string(tk.Status),
		Message:      "Build and push task created",
		SourceS3Path: h.services.Objects.SourcePrefix(workspaceID, tk.ID),
	})
}
