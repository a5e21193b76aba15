// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// StoreFunc is the callback LoadDir feeds each decoded manifest to;
// depindex.DB.Store satisfies this signature.
type StoreFunc func(ctx context.Context, m *Manifest) error

// LoadDir walks a directory tree and feeds every recognized manifest file
// (by extension: .json, .yaml, .yml, .bundle.yaml, .bundle.yml) to store,
// one at a time, in the order filepath.WalkDir visits them.
func LoadDir(ctx context.Context, dirname string, store StoreFunc) error {
	return filepath.WalkDir(dirname, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		m, err := decodeByExtension(path)
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		if err := store(ctx, m); err != nil {
			return fmt.Errorf("manifest.LoadDir: %s: %w", path, err)
		}
		return nil
	})
}

// decodeByExtension decodes path according to its file extension, or
// returns (nil, nil) for extensions LoadDir doesn't recognize as manifest
// files. Kubernetes-style manifest bundles are named "*.bundle.yaml" (or
// ".yml") and decoded strictly via DecodeBundle; plain ".yaml"/".yml" files
// go through the more permissive DecodeYAML.
func decodeByExtension(path string) (*Manifest, error) {
	lower := strings.ToLower(path)
	var decode func(r io.Reader) (*Manifest, error)
	switch {
	case strings.HasSuffix(lower, ".bundle.yaml"), strings.HasSuffix(lower, ".bundle.yml"):
		decode = DecodeBundle
	case strings.HasSuffix(lower, ".json"):
		decode = DecodeJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		decode = DecodeYAML
	default:
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest.LoadDir: %w", err)
	}
	defer f.Close()
	m, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("manifest.LoadDir: %s: %w", path, err)
	}
	return m, nil
}
