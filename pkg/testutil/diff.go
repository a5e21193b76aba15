// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/datawire/depindex/pkg/manifest"
)

var spewConfig = spew.ConfigState{ //nolint:exhaustivestruct
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// DumpManifestListing renders a one-line-per-manifest summary, sorted by
// name then version, so that two manifest sets that differ only in
// ingestion order still compare equal.
func DumpManifestListing(manifests []*manifest.Manifest) string {
	sorted := make([]*manifest.Manifest, len(manifests))
	copy(sorted, manifests)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Version < sorted[j].Version
	})

	lines := make([]string, 0, len(sorted))
	for _, m := range sorted {
		lines = append(lines, fmt.Sprintf("%s@%s (%d deps, %d devDeps)",
			m.Name, m.Version, len(m.Dependencies), len(m.DevDependencies)))
	}
	return strings.Join(lines, "\n")
}

// DumpManifestFull renders the full contents of a manifest set, sorted the
// same way as DumpManifestListing.
func DumpManifestFull(manifests []*manifest.Manifest) string {
	sorted := make([]*manifest.Manifest, len(manifests))
	copy(sorted, manifests)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Version < sorted[j].Version
	})
	return spewConfig.Sdump(sorted)
}

// AssertEqualManifestSets compares two manifest sets, first by a terse
// per-manifest listing (to "fail fast" with readable output), then with a
// full field-by-field dump in case something beneath the listing diverged.
func AssertEqualManifestSets(t *testing.T, exp, act []*manifest.Manifest) bool {
	t.Helper()

	expStr := DumpManifestListing(exp)
	actStr := DumpManifestListing(act)
	if expStr != actStr {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{ //nolint:exhaustivestruct
			A:        difflib.SplitLines(expStr),
			B:        difflib.SplitLines(actStr),
			FromFile: "Expected",
			ToFile:   "Actual",
			Context:  1,
		})
		t.Errorf("Listing diff:\n%s", diff)
		return false
	}

	expStr = DumpManifestFull(exp)
	actStr = DumpManifestFull(act)
	if expStr != actStr {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{ //nolint:exhaustivestruct
			A:        difflib.SplitLines(expStr),
			B:        difflib.SplitLines(actStr),
			FromFile: "Expected",
			ToFile:   "Actual",
			Context:  10,
		})
		t.Errorf("Full diff:\n%s", diff)
		return false
	}

	return true
}
