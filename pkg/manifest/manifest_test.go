// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/depindex/pkg/manifest"
	"github.com/datawire/depindex/pkg/testutil"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()
	m, err := manifest.DecodeJSON(strings.NewReader(`{
		"name": "a",
		"version": "1.0.0",
		"dependencies": {"b": "^1.2.0"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "a", m.Name)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, map[string]string{"b": "^1.2.0"}, m.Dependencies)
}

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	m, err := manifest.DecodeYAML(strings.NewReader("name: a\nversion: 1.0.0\ndependencies:\n  b: ^1.2.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "a", m.Name)
	assert.Equal(t, map[string]string{"b": "^1.2.0"}, m.Dependencies)
}

func TestDecodeBundle(t *testing.T) {
	t.Parallel()
	m, err := manifest.DecodeBundle(strings.NewReader("name: a\nversion: 1.0.0\ndevDependencies:\n  c: ~2.0.0\n"))
	require.NoError(t, err)
	assert.Equal(t, "a", m.Name)
	assert.Equal(t, map[string]string{"c": "~2.0.0"}, m.DevDependencies)
}

func TestLoadDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{"name":"a","version":"1.0.0"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: b\nversion: 2.0.0\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bundle.yaml"), []byte("name: c\nversion: 3.0.0\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not a manifest"), 0644))

	var got []*manifest.Manifest
	err := manifest.LoadDir(context.Background(), dir, func(_ context.Context, m *manifest.Manifest) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)

	want := []*manifest.Manifest{
		{Name: "a", Version: "1.0.0"},
		{Name: "b", Version: "2.0.0"},
		{Name: "c", Version: "3.0.0"},
	}
	testutil.AssertEqualManifestSets(t, want, got)
}
