// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest constructs SpinApp Kubernetes custom resources from a
// typed configuration, enforces the mutual-exclusion and resource-format
// rules, and serialises/deserialises them as deterministic YAML. Grounded
// on original_source/src/models/manifest.py and src/services/manifest.py.
package manifest

import (
	"fmt"
	"regexp"

	"k8s.io/apimachinery/pkg/api/resource"
)

// resourceFormatPattern matches Kubernetes-style CPU/memory quantities:
// integers, millicores, and binary/decimal unit suffixes.
var resourceFormatPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(m|Ki|Mi|Gi|Ti|Pi|Ei|k|M|G|T|P|E)?$`)

// DefaultAPIVersion is the apiVersion this builder emits by default,
// matching the dataclass default actually exercised by the manifest
// construction call path (models/manifest.py), not config.py's constant.
const DefaultAPIVersion = "core.spinkube.dev/v1alpha1"

// ResourceLimits carries CPU/memory limits and requests. All non-empty
// values must conform to the Kubernetes resource-quantity format.
type ResourceLimits struct {
	CPULimit      string
	MemoryLimit   string
	CPURequest    string
	MemoryRequest string
}

func (r ResourceLimits) HasLimits() bool   { return r.CPULimit != "" || r.MemoryLimit != "" }
func (r ResourceLimits) HasRequests() bool { return r.CPURequest != "" || r.MemoryRequest != "" }
func (r ResourceLimits) HasAny() bool      { return r.HasLimits() || r.HasRequests() }

func (r ResourceLimits) validate() error {
	for field, value := range map[string]string{
		"cpu_limit": r.CPULimit, "memory_limit": r.MemoryLimit,
		"cpu_request": r.CPURequest, "memory_request": r.MemoryRequest,
	} {
		if value == "" {
			continue
		}
		if !resourceFormatPattern.MatchString(value) {
			return fmt.Errorf("invalid resource format for %s: %q. Expected format like '100m', '128Mi', '1Gi', etc.", field, value)
		}
		if _, err := resource.ParseQuantity(value); err != nil {
			return fmt.Errorf("invalid resource format for %s: %q: %w", field, value, err)
		}
	}
	return nil
}

// Toleration mirrors a Kubernetes pod toleration.
type Toleration struct {
	Key      string
	Operator string
	Effect   string
	Value    string
}

func defaultSpotToleration() Toleration {
	return Toleration{Key: "spot", Operator: "Exists", Effect: "NoSchedule"}
}

func (t Toleration) isDefaultSpot() bool {
	return t.Key == "spot" && t.Operator == "Exists" && t.Effect == "NoSchedule" && t.Value == ""
}

// NodeSelectorRequirement is a single node-affinity match expression.
type NodeSelectorRequirement struct {
	Key      string
	Operator string
	Values   []string
}

// PreferredSchedulingTerm is one weighted preference in a node affinity.
type PreferredSchedulingTerm struct {
	Weight           int
	MatchExpressions []NodeSelectorRequirement
}

// NodeAffinity holds preferred (soft) node scheduling rules.
type NodeAffinity struct {
	PreferredDuringScheduling []PreferredSchedulingTerm
}

func defaultSpotAffinity() NodeAffinity {
	return NodeAffinity{
		PreferredDuringScheduling: []PreferredSchedulingTerm{
			{
				Weight: 100,
				MatchExpressions: []NodeSelectorRequirement{
					{Key: "spot", Operator: "In", Values: []string{"true"}},
				},
			},
		},
	}
}

// Manifest is the typed configuration for a SpinApp custom resource.
type Manifest struct {
	Name              string
	Image             string
	Namespace         string
	Replicas          *int
	ServiceAccount    string
	Resources         ResourceLimits
	APIVersion        string
	Kind              string
	EnableAutoscaling bool
	UseSpot           bool
	Tolerations       []Toleration
	NodeAffinity      *NodeAffinity
	Labels            map[string]string
	PodLabels         map[string]string
}

// Option configures a Manifest at construction time, applied over the
// defaults matching SpinAppManifest's dataclass field defaults.
type Option func(*Manifest)

func WithNamespace(ns string) Option            { return func(m *Manifest) { m.Namespace = ns } }
func WithReplicas(n int) Option                 { return func(m *Manifest) { m.Replicas = &n } }
func WithServiceAccount(sa string) Option       { return func(m *Manifest) { m.ServiceAccount = sa } }
func WithResources(r ResourceLimits) Option     { return func(m *Manifest) { m.Resources = r } }
func WithAPIVersion(v string) Option            { return func(m *Manifest) { m.APIVersion = v } }
func WithEnableAutoscaling(b bool) Option       { return func(m *Manifest) { m.EnableAutoscaling = b } }
func WithUseSpot(b bool) Option                 { return func(m *Manifest) { m.UseSpot = b } }
func WithTolerations(t []Toleration) Option     { return func(m *Manifest) { m.Tolerations = t } }
func WithNodeAffinity(a *NodeAffinity) Option   { return func(m *Manifest) { m.NodeAffinity = a } }
func WithLabels(l map[string]string) Option     { return func(m *Manifest) { m.Labels = l } }
func WithPodLabels(l map[string]string) Option  { return func(m *Manifest) { m.PodLabels = l } }

// New constructs and validates a Manifest, applying the dataclass-style
// defaults (namespace "default", apiVersion core.spinkube.dev/v1alpha1,
// enableAutoscaling true, useSpot true, standard labels/pod-labels) before
// options are applied.
func New(name, image string, opts ...Option) (*Manifest, error) {
	m := &Manifest{
		Name:              name,
		Image:             image,
		Namespace:         "default",
		APIVersion:        DefaultAPIVersion,
		Kind:              "SpinApp",
		EnableAutoscaling: true,
		UseSpot:           true,
		Labels:            map[string]string{"app.kubernetes.io/managed-by": "blue-faas"},
		PodLabels:         map[string]string{"faas": "true"},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate enforces name/image non-empty, the autoscaling/replicas mutual
// exclusion, replicas >= 1, and resource-quantity format.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("SpinApp name cannot be empty")
	}
	if m.Image == "" {
		return fmt.Errorf("SpinApp image cannot be empty")
	}
	if !m.EnableAutoscaling && m.Replicas != nil && *m.Replicas < 1 {
		return fmt.Errorf("replicas must be at least 1")
	}
	if m.EnableAutoscaling && m.Replicas != nil {
		return fmt.Errorf("enableAutoscaling and replicas are mutually exclusive. When enableAutoscaling is true, replicas must not be specified")
	}
	if err := m.Resources.validate(); err != nil {
		return err
	}
	return nil
}
