// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

var yamlErrorLine = regexp.MustCompile(`line (\d+)`)

// lineFromYAMLError extracts a 1-indexed line number from a gopkg.in/yaml.v3
// error message when one is present (it reports 0-indexed lines internally
// but surfaces 1-indexed numbers in its formatted message).
func lineFromYAMLError(err error) int {
	m := yamlErrorLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	n, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return n
}

// ParseError carries a 1-indexed line number when the underlying YAML
// parser reports one.
type ParseError struct {
	Message string
	Line    int // 0 when unknown
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func parseErrf(line int, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Line: line}
}

// --- wire-shape types, field order is significant: yaml.v3 encodes struct
// fields in declaration order, giving bit-exact key ordering. ---

type tolerationYAML struct {
	Key      string `yaml:"key"`
	Operator string `yaml:"operator"`
	Effect   string `yaml:"effect"`
	Value    string `yaml:"value,omitempty"`
}

type nodeSelectorRequirementYAML struct {
	Key      string   `yaml:"key"`
	Operator string   `yaml:"operator"`
	Values   []string `yaml:"values"`
}

type preferenceYAML struct {
	MatchExpressions []nodeSelectorRequirementYAML `yaml:"matchExpressions"`
}

type preferredTermYAML struct {
	Weight     int            `yaml:"weight"`
	Preference preferenceYAML `yaml:"preference"`
}

type nodeAffinityBodyYAML struct {
	PreferredDuringSchedulingIgnoredDuringExecution []preferredTermYAML `yaml:"preferredDuringSchedulingIgnoredDuringExecution"`
}

type affinityYAML struct {
	NodeAffinity nodeAffinityBodyYAML `yaml:"nodeAffinity"`
}

type resourceQuantitiesYAML struct {
	CPU    string `yaml:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

type resourcesYAML struct {
	Limits   *resourceQuantitiesYAML `yaml:"limits,omitempty"`
	Requests *resourceQuantitiesYAML `yaml:"requests,omitempty"`
}

type metadataYAML struct {
	Name      string            `yaml:"name"`
	Namespace string            `yaml:"namespace"`
	Labels    map[string]string `yaml:"labels,omitempty"`
}

type specYAML struct {
	Image              string            `yaml:"image"`
	EnableAutoscaling  bool              `yaml:"enableAutoscaling"`
	PodLabels          map[string]string `yaml:"podLabels,omitempty"`
	Replicas           *int              `yaml:"replicas,omitempty"`
	ServiceAccountName string            `yaml:"serviceAccountName,omitempty"`
	Resources          *resourcesYAML    `yaml:"resources,omitempty"`
	Tolerations        []tolerationYAML  `yaml:"tolerations,omitempty"`
	Affinity           *affinityYAML     `yaml:"affinity,omitempty"`
}

type documentYAML struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   metadataYAML `yaml:"metadata"`
	Spec       specYAML     `yaml:"spec"`
}

func tolerationToYAML(t Toleration) tolerationYAML {
	return tolerationYAML{Key: t.Key, Operator: t.Operator, Effect: t.Effect, Value: t.Value}
}

func nodeAffinityToYAML(a NodeAffinity) affinityYAML {
	terms := make([]preferredTermYAML, 0, len(a.PreferredDuringScheduling))
	for _, term := range a.PreferredDuringScheduling {
		exprs := make([]nodeSelectorRequirementYAML, 0, len(term.MatchExpressions))
		for _, e := range term.MatchExpressions {
			exprs = append(exprs, nodeSelectorRequirementYAML{Key: e.Key, Operator: e.Operator, Values: e.Values})
		}
		terms = append(terms, preferredTermYAML{
			Weight:     term.Weight,
			Preference: preferenceYAML{MatchExpressions: exprs},
		})
	}
	return affinityYAML{NodeAffinity: nodeAffinityBodyYAML{PreferredDuringSchedulingIgnoredDuringExecution: terms}}
}

// ToYAML serialises the manifest to its bit-exact YAML representation.
func ToYAML(m *Manifest) (string, error) {
	doc := documentYAML{
		APIVersion: m.APIVersion,
		Kind:       m.Kind,
		Metadata: metadataYAML{
			Name:      m.Name,
			Namespace: m.Namespace,
			Labels:    m.Labels,
		},
		Spec: specYAML{
			Image:             m.Image,
			EnableAutoscaling: m.EnableAutoscaling,
			PodLabels:         m.PodLabels,
		},
	}

	if !m.EnableAutoscaling && m.Replicas != nil {
		doc.Spec.Replicas = m.Replicas
	}
	if m.ServiceAccount != "" {
		doc.Spec.ServiceAccountName = m.ServiceAccount
	}

	if m.Resources.HasAny() {
		res := &resourcesYAML{}
		if m.Resources.HasLimits() {
			res.Limits = &resourceQuantitiesYAML{CPU: m.Resources.CPULimit, Memory: m.Resources.MemoryLimit}
		}
		if m.Resources.HasRequests() {
			res.Requests = &resourceQuantitiesYAML{CPU: m.Resources.CPURequest, Memory: m.Resources.MemoryRequest}
		}
		doc.Spec.Resources = res
	}

	switch {
	case m.UseSpot:
		tolerations := []tolerationYAML{tolerationToYAML(defaultSpotToleration())}
		for _, t := range m.Tolerations {
			tolerations = append(tolerations, tolerationToYAML(t))
		}
		doc.Spec.Tolerations = tolerations
		affinity := nodeAffinityToYAML(defaultSpotAffinity())
		doc.Spec.Affinity = &affinity
	case len(m.Tolerations) > 0:
		tolerations := make([]tolerationYAML, 0, len(m.Tolerations))
		for _, t := range m.Tolerations {
			tolerations = append(tolerations, tolerationToYAML(t))
		}
		doc.Spec.Tolerations = tolerations
	}

	if !m.UseSpot && m.NodeAffinity != nil {
		affinity := nodeAffinityToYAML(*m.NodeAffinity)
		doc.Spec.Affinity = &affinity
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FromYAML parses a YAML document into an equivalent Manifest. Recognises
// the default Spot toleration to set UseSpot and strips it from the
// returned custom-toleration list.
func FromYAML(content string) (*Manifest, error) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, parseErrf(lineFromYAMLError(err), "Invalid YAML syntax: %v", err)
	}
	if raw == nil {
		return nil, parseErrf(0, "Empty YAML content")
	}

	metadataRaw, ok := raw["metadata"]
	if !ok {
		return nil, parseErrf(0, "Missing required field: metadata")
	}
	metadata, ok := metadataRaw.(map[string]any)
	if !ok {
		return nil, parseErrf(0, "metadata must be a mapping")
	}
	nameRaw, present := metadata["name"]
	if !present {
		return nil, parseErrf(0, "Missing required field: metadata.name")
	}
	name, _ := nameRaw.(string)

	specRaw, ok := raw["spec"]
	if !ok {
		return nil, parseErrf(0, "Missing required field: spec")
	}
	spec, ok := specRaw.(map[string]any)
	if !ok {
		return nil, parseErrf(0, "spec must be a mapping")
	}
	image, ok := spec["image"].(string)
	if !ok {
		return nil, parseErrf(0, "Missing required field: spec.image")
	}

	resources := ResourceLimits{}
	if resRaw, present := spec["resources"]; present {
		resMap, ok := resRaw.(map[string]any)
		if !ok {
			return nil, parseErrf(0, "spec.resources must be a mapping")
		}
		if limits, ok := resMap["limits"].(map[string]any); ok {
			resources.CPULimit, _ = limits["cpu"].(string)
			resources.MemoryLimit, _ = limits["memory"].(string)
		}
		if requests, ok := resMap["requests"].(map[string]any); ok {
			resources.CPURequest, _ = requests["cpu"].(string)
			resources.MemoryRequest, _ = requests["memory"].(string)
		}
		if err := resources.validate(); err != nil {
			return nil, parseErrf(0, "Invalid resource value: %v", err)
		}
	}

	enableAutoscaling := true
	if v, present := spec["enableAutoscaling"]; present {
		if b, ok := v.(bool); ok {
			enableAutoscaling = b
		}
	}

	var replicas *int
	if v, present := spec["replicas"]; present {
		if n, ok := toInt(v); ok {
			replicas = &n
		}
	}

	var tolerations []Toleration
	if tolRaw, present := spec["tolerations"]; present {
		list, ok := tolRaw.([]any)
		if !ok {
			return nil, parseErrf(0, "spec.tolerations must be a list")
		}
		for _, item := range list {
			tm, ok := item.(map[string]any)
			if !ok {
				return nil, parseErrf(0, "Each toleration must be a mapping")
			}
			t := Toleration{
				Key:      stringOr(tm["key"], ""),
				Operator: stringOr(tm["operator"], "Exists"),
				Effect:   stringOr(tm["effect"], "NoSchedule"),
				Value:    stringOr(tm["value"], ""),
			}
			tolerations = append(tolerations, t)
		}
	}

	var nodeAffinity *NodeAffinity
	if affRaw, present := spec["affinity"]; present {
		if affMap, ok := affRaw.(map[string]any); ok {
			if naRaw, ok := affMap["nodeAffinity"].(map[string]any); ok {
				var terms []PreferredSchedulingTerm
				if predRaw, ok := naRaw["preferredDuringSchedulingIgnoredDuringExecution"].([]any); ok {
					for _, termRaw := range predRaw {
						termMap, ok := termRaw.(map[string]any)
						if !ok {
							continue
						}
						var exprs []NodeSelectorRequirement
						if prefRaw, ok := termMap["preference"].(map[string]any); ok {
							if exprList, ok := prefRaw["matchExpressions"].([]any); ok {
								for _, exprRaw := range exprList {
									exprMap, ok := exprRaw.(map[string]any)
									if !ok {
										continue
									}
									var values []string
									if vs, ok := exprMap["values"].([]any); ok {
										for _, v := range vs {
											if s, ok := v.(string); ok {
												values = append(values, s)
											}
										}
									}
									exprs = append(exprs, NodeSelectorRequirement{
										Key:      stringOr(exprMap["key"], ""),
										Operator: stringOr(exprMap["operator"], "In"),
										Values:   values,
									})
								}
							}
						}
						weight := 1
						if w, ok := toInt(termMap["weight"]); ok {
							weight = w
						}
						terms = append(terms, PreferredSchedulingTerm{Weight: weight, MatchExpressions: exprs})
					}
				}
				if len(terms) > 0 {
					nodeAffinity = &NodeAffinity{PreferredDuringScheduling: terms}
				}
			}
		}
	}

	useSpot := false
	var customTolerations []Toleration
	for _, t := range tolerations {
		if t.isDefaultSpot() {
			useSpot = true
			continue
		}
		customTolerations = append(customTolerations, t)
	}

	labels := map[string]string{"app.kubernetes.io/managed-by": "blue-faas"}
	if l, ok := metadata["labels"].(map[string]any); ok {
		labels = stringMap(l)
	}
	podLabels := map[string]string{"faas": "true"}
	if l, ok := spec["podLabels"].(map[string]any); ok {
		podLabels = stringMap(l)
	}

	apiVersion := DefaultAPIVersion
	if v, ok := raw["apiVersion"].(string); ok {
		apiVersion = v
	}
	kind := "SpinApp"
	if v, ok := raw["kind"].(string); ok {
		kind = v
	}
	serviceAccount, _ := spec["serviceAccountName"].(string)

	m := &Manifest{
		Name:              name,
		Image:             image,
		Namespace:         stringOr(metadata["namespace"], "default"),
		Replicas:          replicas,
		ServiceAccount:    serviceAccount,
		Resources:         resources,
		APIVersion:        apiVersion,
		Kind:              kind,
		EnableAutoscaling: enableAutoscaling,
		UseSpot:           useSpot,
		Tolerations:       customTolerations,
		Labels:            labels,
		PodLabels:         podLabels,
	}
	if !useSpot {
		m.NodeAffinity = nodeAffinity
	}

	if err := m.Validate(); err != nil {
		return nil, parseErrf(0, "Invalid manifest data: %v", err)
	}
	return m, nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func stringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
