// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var nameFormat = regexp.MustCompile(`^spin-[a-z]+-[a-z]+-\d{4}$`)

func TestNameGenerator_FormatAndUniqueness(t *testing.T) {
	g := NewNameGenerator()
	seen := make(map[string]bool)
	const n = 1000
	for i := 0; i < n; i++ {
		name := g.Generate()
		assert.Regexp(t, nameFormat, name)
		seen[name] = true
	}
	assert.GreaterOrEqual(t, len(seen), n*999/1000)
}
