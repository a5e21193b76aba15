// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	goyaml "gopkg.in/yaml.v2"
	k8syaml "sigs.k8s.io/yaml"
)

// DecodeJSON decodes a single manifest document from its native JSON form
// (the shape most real package corpora ship in, e.g. a package.json or an
// index.json record).
func DecodeJSON(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("manifest.DecodeJSON: %w", err)
	}
	return &m, nil
}

// DecodeYAML decodes a single manifest document from YAML, for corpora
// that author their manifests by hand rather than generating them.
func DecodeYAML(r io.Reader) (*Manifest, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("manifest.DecodeYAML: %w", err)
	}
	var m Manifest
	if err := goyaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("manifest.DecodeYAML: %w", err)
	}
	return &m, nil
}

// DecodeBundle decodes a single manifest document from a Kubernetes-style
// "manifest bundle" YAML document: it round-trips the YAML through JSON
// (sigs.k8s.io/yaml) rather than decoding YAML directly, so the strict
// JSON-compatible field mapping applies and unknown fields are rejected.
func DecodeBundle(r io.Reader) (*Manifest, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("manifest.DecodeBundle: %w", err)
	}
	var m Manifest
	if err := k8syaml.UnmarshalStrict(b, &m); err != nil {
		return nil, fmt.Errorf("manifest.DecodeBundle: %w", err)
	}
	return &m, nil
}
