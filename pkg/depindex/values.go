// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import (
	"encoding/json"
	"fmt"

	"github.com/datawire/depindex/pkg/rangeexpr"
)

// latestIndexValue is the value stored under a !index-latest! key: the
// dependent's current latest version, paired with the encoded range it
// declares at that version.
type latestIndexValue struct {
	Version string               `json:"version"`
	Sets    rangeexpr.EncodedRange `json:"sets"`
}

func encodeIndexValue(enc rangeexpr.EncodedRange) ([]byte, error) {
	b, err := json.Marshal(enc)
	if err != nil {
		return nil, fmt.Errorf("depindex: encoding index value: %w", err)
	}
	return b, nil
}

func decodeIndexValue(b []byte) (rangeexpr.EncodedRange, error) {
	var enc rangeexpr.EncodedRange
	if err := json.Unmarshal(b, &enc); err != nil {
		return rangeexpr.EncodedRange{}, fmt.Errorf("depindex: decoding index value: %w", err)
	}
	return enc, nil
}

func encodeIndexLatestValue(v latestIndexValue) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("depindex: encoding latest index value: %w", err)
	}
	return b, nil
}

func decodeIndexLatestValue(b []byte) (latestIndexValue, error) {
	var v latestIndexValue
	if err := json.Unmarshal(b, &v); err != nil {
		return latestIndexValue{}, fmt.Errorf("depindex: decoding latest index value: %w", err)
	}
	return v, nil
}

func encodeManifest(m *Manifest) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("depindex: encoding manifest: %w", err)
	}
	return b, nil
}

func decodeManifest(b []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("depindex: decoding manifest: %w", err)
	}
	return &m, nil
}
