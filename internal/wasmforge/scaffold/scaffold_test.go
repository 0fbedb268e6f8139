// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package scaffold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommand_MinimalArgs(t *testing.T) {
	cmd := BuildCommand("123.dkr.ecr.us-east-1.amazonaws.com/app:tag", "", 0, "")
	assert.Equal(t, []string{"spin", "kube", "scaffold", "--from", "123.dkr.ecr.us-east-1.amazonaws.com/app:tag", "--replicas", "0"}, cmd)
}

func TestBuildCommand_AllArgs(t *testing.T) {
	cmd := BuildCommand("registry/app:tag", "mycomponent", 3, "/tmp/out.yaml")
	assert.Equal(t, []string{
		"spin", "kube", "scaffold", "--from", "registry/app:tag",
		"--component", "mycomponent",
		"--replicas", "3",
		"--out", "/tmp/out.yaml",
	}, cmd)
}
