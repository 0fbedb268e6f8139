// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
	"github.com/openchoreo/wasmforge/internal/wasmforge/task"
	"github.com/openchoreo/wasmforge/internal/wasmforge/taskstore"
)

// GetTaskStatus handles GET /tasks/{taskId}?workspace_id=…, grounded on
// original_source/src/api/routes.py's get_task_status route.
func (h *Handler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("taskId")
	workspaceID := r.URL.Query().Get("workspace_id")

	tk, err := h.services.Tasks.GetTask(r.Context(), taskID, workspaceID)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			writeDetail(w, http.StatusNotFound, "Task not found: "+taskID)
			return
		}
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(tk))
}

// ListWorkspaceTasks handles GET /workspaces/{workspaceId}/tasks.
func (h *Handler) ListWorkspaceTasks(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.PathValue("workspaceId")

	tasks, err := h.services.Tasks.ListByWorkspace(r.Context(), workspaceID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := apimodels.WorkspaceTasksResponse{
		WorkspaceID: workspaceID,
		Tasks:       make([]apimodels.TaskStatusResponse, 0, len(tasks)),
		Count:       len(tasks),
	}
	for _, tk := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(tk))
	}

	writeJSON(w, http.StatusOK, resp)
}

// taskToResponse maps a task.Task onto the GET /tasks response shape,
// folding WasmPath/ImageURL into a result map only once the task has
// produced one, matching the original's `result: {...} | null` semantics.
func taskToResponse(tk *task.Task) apimodels.TaskStatusResponse {
	resp := apimodels.TaskStatusResponse{
		TaskID: tk.ID,
		Status: string(tk.Status),
		Error:  tk.ErrorMessage,
	}
	if tk.WasmPath != "" || tk.ImageURL != "" {
		result := make(map[string]any, 2)
		if tk.WasmPath != "" {
			result["wasm_path"] = tk.WasmPath
		}
		if tk.ImageURL != "" {
			result["image_uri"] = tk.ImageURL
		}
		resp.Result = result
	}
	return resp
}
