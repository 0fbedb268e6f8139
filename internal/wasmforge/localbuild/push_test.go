// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package localbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestGenerateTag_SameContentSameTag(t *testing.T) {
	files := map[string]string{
		"app.py":     "print('hi')",
		"spin.toml":  "name=\"app\"",
		"nested/m.py": "pass",
	}
	dir1, dir2 := t.TempDir(), t.TempDir()
	writeTree(t, dir1, files)
	writeTree(t, dir2, files)

	tag1, err := GenerateTag(dir1)
	require.NoError(t, err)
	tag2, err := GenerateTag(dir2)
	require.NoError(t, err)
	assert.Equal(t, tag1, tag2)
}

func TestGenerateTag_DifferentContentDifferentTag(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	writeTree(t, dir1, map[string]string{"app.py": "print('hi')"})
	writeTree(t, dir2, map[string]string{"app.py": "print('bye')"})

	tag1, err := GenerateTag(dir1)
	require.NoError(t, err)
	tag2, err := GenerateTag(dir2)
	require.NoError(t, err)
	assert.NotEqual(t, tag1, tag2)
}

func TestGenerateTag_FormatIsTwelveLowercaseHex(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"app.py": "x"})
	tag, err := GenerateTag(dir)
	require.NoError(t, err)
	assert.Len(t, tag, 12)
	for _, c := range tag {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'), "unexpected char %q in tag %q", c, tag)
	}
}

func TestGenerateTag_IsDeterministicAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"app.py": "x", "b.txt": "y"})
	tag1, err := GenerateTag(dir)
	require.NoError(t, err)
	tag2, err := GenerateTag(dir)
	require.NoError(t, err)
	assert.Equal(t, tag1, tag2)
}
