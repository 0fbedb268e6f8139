// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEmptyNameOrImage(t *testing.T) {
	_, err := New("", "repo/img:tag")
	assert.Error(t, err)

	_, err = New("app", "")
	assert.Error(t, err)
}

func TestNew_RejectsAutoscalingAndReplicasTogether(t *testing.T) {
	_, err := New("app", "repo/img:tag", WithReplicas(3))
	assert.Error(t, err)
}

func TestNew_AllowsReplicasWhenAutoscalingDisabled(t *testing.T) {
	m, err := New("app", "repo/img:tag", WithEnableAutoscaling(false), WithReplicas(3))
	require.NoError(t, err)
	require.NotNil(t, m.Replicas)
	assert.Equal(t, 3, *m.Replicas)
}

func TestNew_RejectsInvalidResourceFormat(t *testing.T) {
	_, err := New("app", "repo/img:tag", WithResources(ResourceLimits{CPULimit: "not-a-quantity"}))
	assert.Error(t, err)
}

func TestToYAML_KeyOrderAndSpotDefaults(t *testing.T) {
	m, err := New("n", "r/x:1")
	require.NoError(t, err)

	out, err := ToYAML(m)
	require.NoError(t, err)

	assert.Regexp(t, `(?s)^apiVersion:.*\nkind:.*\nmetadata:.*\nspec:`, out)
	assert.Contains(t, out, "key: spot")
	assert.Contains(t, out, "nodeAffinity:")
}

func TestToYAML_OmitsReplicasWhenAutoscalingEnabled(t *testing.T) {
	m, err := New("n", "r/x:1")
	require.NoError(t, err)
	out, err := ToYAML(m)
	require.NoError(t, err)
	assert.NotContains(t, out, "replicas:")
}

func TestToYAML_IncludesReplicasWhenAutoscalingDisabled(t *testing.T) {
	m, err := New("n", "r/x:1", WithEnableAutoscaling(false), WithReplicas(5))
	require.NoError(t, err)
	out, err := ToYAML(m)
	require.NoError(t, err)
	assert.Contains(t, out, "replicas: 5")
}

func TestManifestRoundTrip_DefaultSpotConfig(t *testing.T) {
	m, err := New("n", "r/x:1")
	require.NoError(t, err)

	out, err := ToYAML(m)
	require.NoError(t, err)

	parsed, err := FromYAML(out)
	require.NoError(t, err)

	assert.Equal(t, m.Name, parsed.Name)
	assert.Equal(t, m.Namespace, parsed.Namespace)
	assert.Equal(t, m.Image, parsed.Image)
	assert.Nil(t, parsed.Replicas)
	assert.Equal(t, m.ServiceAccount, parsed.ServiceAccount)
	assert.Equal(t, m.Resources, parsed.Resources)
	assert.Equal(t, m.APIVersion, parsed.APIVersion)
	assert.Equal(t, m.Kind, parsed.Kind)
	assert.Equal(t, m.EnableAutoscaling, parsed.EnableAutoscaling)
	assert.True(t, parsed.UseSpot)
	assert.Empty(t, parsed.Tolerations)
}

func TestManifestRoundTrip_CustomTolerationsWithSpotDisabled(t *testing.T) {
	custom := []Toleration{{Key: "dedicated", Operator: "Equal", Effect: "NoSchedule", Value: "batch"}}
	m, err := New("n", "r/x:1", WithUseSpot(false), WithTolerations(custom))
	require.NoError(t, err)

	out, err := ToYAML(m)
	require.NoError(t, err)
	assert.NotContains(t, out, "key: spot")

	parsed, err := FromYAML(out)
	require.NoError(t, err)
	assert.False(t, parsed.UseSpot)
	assert.Equal(t, custom, parsed.Tolerations)
}

func TestFromYAML_MissingRequiredFields(t *testing.T) {
	_, err := FromYAML("kind: SpinApp\n")
	assert.Error(t, err)

	_, err = FromYAML("metadata:\n  name: x\nspec:\n  foo: bar\n")
	assert.Error(t, err)
}

func TestFromYAML_InvalidSyntaxReportsLine(t *testing.T) {
	_, err := FromYAML("metadata: [unterminated\n")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Greater(t, pe.Line, 0)
}
