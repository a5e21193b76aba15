// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package rangeexpr_test

import (
	"bytes"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"

	"github.com/datawire/depindex/pkg/rangeexpr"
	"github.com/datawire/depindex/pkg/testutil"
)

// TestPackMonotonic is property 1 from the "Testable Properties" of the
// range-overlap index: pack(v1) < pack(v2) bytewise iff v1 < v2 numerically.
func TestPackMonotonic(t *testing.T) {
	t.Parallel()
	prop := func(a, b [3]uint16) bool {
		pa := rangeexpr.Pack(int(a[0]), int(a[1]), int(a[2]))
		pb := rangeexpr.Pack(int(b[0]), int(b[1]), int(b[2]))
		cmpBytes := bytes.Compare(pa, pb)
		cmpNum := compareTriple(a, b)
		return sign(cmpBytes) == sign(cmpNum)
	}
	testutil.QuickCheck(t, prop, quick.Config{MaxCount: 2000})
}

// TestPackMonotonicEdgeCases checks specific pairs that a plain string
// comparison of the dotted decimal versions orders wrongly (9 vs 10), and one
// (15 vs 16, hex "f" vs "10") where the hex digits alone, without the length
// prefix, would sort the wrong way.
func TestPackMonotonicEdgeCases(t *testing.T) {
	t.Parallel()
	testcases := []struct {
		A, B [3]int
	}{
		{[3]int{1, 9, 0}, [3]int{1, 10, 0}},
		{[3]int{9, 0, 0}, [3]int{10, 0, 0}},
		{[3]int{0, 0, 15}, [3]int{0, 0, 16}},
	}
	for _, tc := range testcases {
		pa := rangeexpr.Pack(tc.A[0], tc.A[1], tc.A[2])
		pb := rangeexpr.Pack(tc.B[0], tc.B[1], tc.B[2])
		assert.Truef(t, bytes.Compare(pa, pb) < 0, "Pack(%v) should sort before Pack(%v)", tc.A, tc.B)
	}
}

func compareTriple(a, b [3]uint16) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func TestSentinelsNeverCollideWithPacked(t *testing.T) {
	t.Parallel()
	for _, triple := range [][3]int{{0, 0, 0}, {1, 2, 3}, {9, 9, 9}, {255, 255, 255}} {
		packed := rangeexpr.Pack(triple[0], triple[1], triple[2])
		assert.NotEqual(t, rangeexpr.SentinelLow, packed)
		assert.NotEqual(t, rangeexpr.SentinelHigh, packed)
		assert.True(t, bytes.Compare(rangeexpr.SentinelLow, packed) < 0)
		assert.True(t, bytes.Compare(rangeexpr.SentinelHigh, packed) > 0)
	}
}
