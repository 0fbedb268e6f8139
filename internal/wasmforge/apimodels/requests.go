// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package apimodels defines the wire shapes for wasmforge's eight HTTP
// routes (spec.md §6): request structs carrying go-playground/validator
// tags, and response structs whose JSON field names are bit-exact with the
// specification (unlike the teacher's generic APIResponse[T] envelope,
// these are flat shapes, since spec.md enumerates each response's literal
// keys and that shape must be preserved unchanged in meaning).
package apimodels

// PushRequest is the JSON body of POST /push.
type PushRequest struct {
	RegistryURL  string `json:"registry_url" validate:"required"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Tag          string `json:"tag,omitempty"`
	AppDir       string `json:"app_dir"`
	WorkspaceID  string `json:"workspace_id" validate:"required"`
	S3SourcePath string `json:"s3_source_path,omitempty"`
}

// ScaffoldRequest is the JSON body of POST /scaffold.
type ScaffoldRequest struct {
	ImageRef   string `json:"image_ref" validate:"required"`
	Component  string `json:"component,omitempty"`
	Replicas   int    `json:"replicas,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

// TolerationInput mirrors the caller-supplied toleration maps accepted by
// POST /deploy's custom_tolerations field.
type TolerationInput struct {
	Key      string `json:"key"`
	Operator string `json:"operator,omitempty"`
	Effect   string `json:"effect,omitempty"`
	Value    string `json:"value,omitempty"`
}

// DeployRequest is the JSON body of POST /deploy. EnableAutoscaling and
// UseSpot are pointers so an absent field can default to true (spec.md
// §4.8) while an explicit false is distinguishable from "not sent".
//
// ServiceType, Port, and TargetPort are accepted and silently ignored:
// spec.md §9's resolved Open Question treats them as deprecated fields
// carried over from an earlier request model.
//
// CustomAffinity is decoded but not passed on to the manifest: a deploy
// with use_spot false emits no affinity block.
type DeployRequest struct {
	AppName           string            `json:"app_name,omitempty"`
	Namespace         string            `json:"namespace" validate:"required"`
	ServiceAccount    string            `json:"service_account,omitempty"`
	CPULimit          string            `json:"cpu_limit,omitempty"`
	MemoryLimit       string            `json:"memory_limit,omitempty"`
	CPURequest        string            `json:"cpu_request,omitempty"`
	MemoryRequest     string            `json:"memory_request,omitempty"`
	ImageRef          string            `json:"image_ref" validate:"required"`
	EnableAutoscaling *bool             `json:"enable_autoscaling,omitempty"`
	Replicas          *int              `json:"replicas,omitempty"`
	UseSpot           *bool             `json:"use_spot,omitempty"`
	CustomTolerations []TolerationInput `json:"custom_tolerations,omitempty"`
	CustomAffinity    map[string]any    `json:"custom_affinity,omitempty"`

	ServiceType string `json:"service_type,omitempty"`
	Port        *int   `json:"port,omitempty"`
	TargetPort  *int   `json:"target_port,omitempty"`
}

// AutoscalingOrDefault returns EnableAutoscaling, defaulting to true.
func (r DeployRequest) AutoscalingOrDefault() bool {
	if r.EnableAutoscaling == nil {
		return true
	}
	return *r.EnableAutoscaling
}

// UseSpotOrDefault returns UseSpot, defaulting to true.
func (r DeployRequest) UseSpotOrDefault() bool {
	if r.UseSpot == nil {
		return true
	}
	return *r.UseSpot
}
