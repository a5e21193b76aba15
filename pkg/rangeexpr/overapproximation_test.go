// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package rangeexpr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datawire/depindex/pkg/rangeexpr"
)

// TestSafeOverApproximation is property 2: a stored range and a query range
// that genuinely overlap at the semantic-version level must also overlap
// once packed and normalized, even across the write side's inclusive/
// exclusive conflation of '>' and '<='.
func TestSafeOverApproximation(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		name    string
		stored  string
		query   string
		overlap bool
	}{
		{"exact match", "1.2.3", "1.2.3", true},
		{"caret contains exact", "^1.2.3", "1.2.3", true},
		{"caret excludes next major", "^1.2.3", "2.0.0", false},
		{"gt conflated inclusive", ">1.0.0", "1.0.0", true}, // safe false positive: '>' widened to '>='
		{"le interior hit", "<=2.0.0", "1.9.0", true},
		{"disjoint ranges", ">=3.0.0", "<2.0.0", false},
		{"hyphen range hit", "1.0.0 - 2.0.0", "1.5.0", true},
		{"hyphen range miss", "1.0.0 - 2.0.0", "2.5.0", false},
	}
	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			stored, err := rangeexpr.ParseRange(tc.stored)
			require.NoError(t, err)
			enc, err := rangeexpr.Encode(stored)
			require.NoError(t, err)

			query, err := rangeexpr.ParseRange(tc.query)
			require.NoError(t, err)
			bounds, err := rangeexpr.NormalizeQuery(query)
			require.NoError(t, err)

			assert.Equal(t, tc.overlap, rangeexpr.Overlap(enc, bounds))
		})
	}
}
