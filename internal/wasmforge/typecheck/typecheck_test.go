// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package typecheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePython_ToolNotFound(t *testing.T) {
	g := New()
	res := g.ValidatePython(context.Background(), "/nonexistent/app.py")
	assert.False(t, res.Success)
	assert.Empty(t, res.Errors)
}
