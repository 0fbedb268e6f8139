// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/openchoreo/wasmforge/internal/wasmforge/apimodels"
	"github.com/openchoreo/wasmforge/internal/wasmforge/deploy"
	"github.com/openchoreo/wasmforge/internal/wasmforge/manifest"
)

// Deploy handles POST /deploy: builds a SpinApp manifest from the request,
// writes it to a scratch file, and applies it to the cluster, grounded on
// original_source/src/api/routes.py's deploy route.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	var req apimodels.DeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if descriptors := apimodels.ValidateStruct(req); descriptors != nil {
		writeValidationErrors(w, descriptors)
		return
	}

	autoscaling := req.AutoscalingOrDefault()
	useSpot := req.UseSpotOrDefault()

	if autoscaling && req.Replicas != nil {
		writeDetail(w, http.StatusBadRequest,
			"enableAutoscaling and replicas are mutually exclusive. When enableAutoscaling is true, replicas must not be specified")
		return
	}

	appName := req.AppName
	if appName == "" {
		appName = deploy.NewNameGenerator().Generate()
	}

	opts := []manifest.Option{
		manifest.WithNamespace(req.Namespace),
		manifest.WithServiceAccount(req.ServiceAccount),
		manifest.WithResources(manifest.ResourceLimits{
			CPULimit:      req.CPULimit,
			MemoryLimit:   req.MemoryLimit,
			CPURequest:    req.CPURequest,
			MemoryRequest: req.MemoryRequest,
		}),
		manifest.WithEnableAutoscaling(autoscaling),
		manifest.WithUseSpot(useSpot),
		manifest.WithTolerations(toManifestTolerations(req.CustomTolerations)),
	}
	if !autoscaling && req.Replicas != nil {
		opts = append(opts, manifest.WithReplicas(*req.Replicas))
	}

	m, err := manifest.New(appName, req.ImageRef, opts...)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	yamlContent, err := manifest.ToYAML(m)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	manifestFile, err := os.CreateTemp("", "wasmforge-manifest-*.yaml")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "failed to create manifest file: "+err.Error())
		return
	}
	manifestPath := manifestFile.Name()
	defer os.Remove(manifestPath)

	if _, err := manifestFile.WriteString(yamlContent); err != nil {
		manifestFile.Close()
		writeDetail(w, http.StatusInternalServerError, "failed to write manifest file: "+err.Error())
		return
	}
	manifestFile.Close()

	result := h.services.Deployer.Deploy(r.Context(), manifestPath, req.Namespace, appName, autoscaling, useSpot)
	if !result.Success {
		status := http.StatusInternalServerError
		if strings.Contains(strings.ToLower(result.Error), "not found") {
			status = http.StatusBadRequest
		}
		writeDetail(w, status, firstNonEmpty(result.Error, "Deployment failed"))
		return
	}

	writeJSON(w, http.StatusOK, apimodels.DeployResponse{
		AppName:           firstNonEmpty(result.AppName, appName),
		Namespace:         firstNonEmpty(result.Namespace, req.Namespace),
		ServiceName:       result.ServiceName,
		ServiceStatus:     string(result.ServiceStatus),
		Endpoint:          result.Endpoint,
		EnableAutoscaling: result.EnableAutoscaling,
		UseSpot:           result.UseSpot,
		Error:             result.Error,
	})
}

// toManifestTolerations converts the caller-supplied toleration maps,
// defaulting operator to "Exists" and effect to "NoSchedule" when omitted
// (matching original_source/src/api/routes.py's deploy route).
func toManifestTolerations(in []apimodels.TolerationInput) []manifest.Toleration {
	if len(in) == 0 {
		return nil
	}
	out := make([]manifest.Toleration, 0, len(in))
	for _, t := range in {
		operator := t.Operator
		if operator == "" {
			operator = "Exists"
		}
		effect := t.Effect
		if effect == "" {
			effect = "NoSchedule"
		}
		out = append(out, manifest.Toleration{Key: t.Key, Operator: operator, Effect: effect, Value: t.Value})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
