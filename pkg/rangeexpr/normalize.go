// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package rangeexpr

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/datawire/depindex/pkg/pkgver"
)

// ErrInvalidQueryRange is returned by NormalizeQuery when the query range
// does not fit the shape a query is allowed to take: more than one
// disjunction group, more than two comparators in the single group, or a
// two-comparator group whose first comparator isn't a lower bound and second
// an upper bound. It is never retried by the caller (spec §7).
var ErrInvalidQueryRange = errors.New("rangeexpr: invalid query range")

// Group is the write-side encoding of one conjunction: the set of lower
// bounds that must all be below the query's upper bound, and the set of
// upper bounds that must all be above the query's lower bound (§3 "Encoded
// range value").
type Group struct {
	Lowers [][]byte
	Uppers [][]byte
}

// EncodedRange is the write-side encoding of a full Disjunction: one Group
// per conjunction, ORed together.
type EncodedRange struct {
	Groups []Group
}

// Encode builds the write-side EncodedRange for a parsed Disjunction.
// An unparseable or unsupported comparator fails the whole range (spec
// §4.2, "any other operator: the whole range fails"); callers at the Writer
// layer treat that as UnparseableStoredRange and drop just that one
// dependency, leaving the manifest itself stored.
func Encode(d Disjunction) (EncodedRange, error) {
	enc := EncodedRange{Groups: make([]Group, 0, len(d))}
	for _, conj := range d {
		group, err := encodeConjunction(conj)
		if err != nil {
			return EncodedRange{}, err
		}
		enc.Groups = append(enc.Groups, group)
	}
	return enc, nil
}

func encodeConjunction(conj Conjunction) (Group, error) {
	var group Group
	for _, c := range conj {
		switch c.Op {
		case OpUnset:
			group.Lowers = append(group.Lowers, Pack(0, 0, 0))
		case OpEQ:
			lo, err := PackVersion(c.Version)
			if err != nil {
				return Group{}, fmt.Errorf("rangeexpr.Encode: %w", err)
			}
			hi, err := packIncPatchVersion(c.Version)
			if err != nil {
				return Group{}, fmt.Errorf("rangeexpr.Encode: %w", err)
			}
			group.Lowers = append(group.Lowers, lo)
			group.Uppers = append(group.Uppers, hi)
		case OpGT, OpGE:
			// '>' is treated as '>=' of the same packed version: a lossy
			// but safe over-approximation (never a false negative; the
			// Reader re-validates against the manifest).
			lo, err := PackVersion(c.Version)
			if err != nil {
				return Group{}, fmt.Errorf("rangeexpr.Encode: %w", err)
			}
			group.Lowers = append(group.Lowers, lo)
		case OpLT, OpLE:
			// '<=' is treated as '<' of the same packed version, for the
			// same reason.
			hi, err := PackVersion(c.Version)
			if err != nil {
				return Group{}, fmt.Errorf("rangeexpr.Encode: %w", err)
			}
			group.Uppers = append(group.Uppers, hi)
		default:
			return Group{}, fmt.Errorf("rangeexpr.Encode: unsupported comparator operator %q", c.Op)
		}
	}
	return group, nil
}

// packIncPatchVersion packs v with its patch component incremented by one,
// turning an inclusive bound at v into the exclusive bound the index stores.
func packIncPatchVersion(v pkgver.Version) ([]byte, error) {
	major, minor, patch, ok := triple(v)
	if !ok {
		return nil, fmt.Errorf("rangeexpr: %s has a wildcard release component", v.String())
	}
	major, minor, patch = IncPatch(major, minor, patch)
	return Pack(major, minor, patch), nil
}

// Bounds is the read-side normalization of a query range: a half-open
// interval [Lower, Upper) over packed versions, or Wildcard if the query
// imposes no constraint at all (so the overlap test should be skipped
// entirely, per §4.5 "A fully wildcard range ... is flagged to bypass
// overlap filtering").
type Bounds struct {
	Lower, Upper []byte
	Wildcard     bool
}

// NormalizeQuery normalizes a query range (§4.2 "Read-side normalization").
// It fails with ErrInvalidQueryRange if the range is a disjunction, or if
// its single conjunction doesn't fit the 0/1/2-comparator shapes a query is
// allowed to take.
func NormalizeQuery(d Disjunction) (Bounds, error) {
	if len(d) != 1 {
		return Bounds{}, fmt.Errorf("%w: expected a single range, got a disjunction of %d", ErrInvalidQueryRange, len(d))
	}
	conj := d[0]
	switch len(conj) {
	case 0:
		return Bounds{Lower: SentinelLow, Upper: SentinelHigh, Wildcard: true}, nil
	case 1:
		return normalizeSingleComparator(conj[0])
	case 2:
		return normalizeComparatorPair(conj[0], conj[1])
	default:
		return Bounds{}, fmt.Errorf("%w: expected at most 2 comparators, got %d", ErrInvalidQueryRange, len(conj))
	}
}

func normalizeSingleComparator(c Comparator) (Bounds, error) {
	if c.Op == OpUnset {
		return Bounds{Lower: SentinelLow, Upper: SentinelHigh, Wildcard: true}, nil
	}
	if c.Op == OpEQ {
		lo, err := PackVersion(c.Version)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %v", ErrInvalidQueryRange, err)
		}
		hi, err := packIncPatchVersion(c.Version)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %v", ErrInvalidQueryRange, err)
		}
		return Bounds{Lower: lo, Upper: hi}, nil
	}
	if c.isLower() {
		lo, err := lowerBound(c)
		if err != nil {
			return Bounds{}, err
		}
		return Bounds{Lower: lo, Upper: SentinelHigh}, nil
	}
	if c.isUpper() {
		hi, err := upperBound(c)
		if err != nil {
			return Bounds{}, err
		}
		return Bounds{Lower: SentinelLow, Upper: hi}, nil
	}
	return Bounds{}, fmt.Errorf("%w: unsupported single comparator %q", ErrInvalidQueryRange, c)
}

func normalizeComparatorPair(first, second Comparator) (Bounds, error) {
	if !first.isLower() || first.Op == OpUnset || !second.isUpper() {
		return Bounds{}, fmt.Errorf("%w: two-comparator range must be (>,>=) followed by (<,<=), got (%s, %s)",
			ErrInvalidQueryRange, first.Op, second.Op)
	}
	lo, err := lowerBound(first)
	if err != nil {
		return Bounds{}, err
	}
	hi, err := upperBound(second)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Lower: lo, Upper: hi}, nil
}

// lowerBound converts a '>' or '>=' comparator to a packed lower bound,
// applying inc_patch to '>' so that the resulting half-open interval
// excludes the comparator's own version.
func lowerBound(c Comparator) ([]byte, error) {
	if c.Op == OpGT {
		return packIncPatchVersion(c.Version)
	}
	return PackVersion(c.Version)
}

// upperBound converts a '<' or '<=' comparator to a packed upper bound,
// applying inc_patch to '<=' so that the resulting half-open interval
// includes the comparator's own version.
func upperBound(c Comparator) ([]byte, error) {
	if c.Op == OpLE {
		return packIncPatchVersion(c.Version)
	}
	return PackVersion(c.Version)
}

// Overlap implements the overlap test of §4.5: the query interval (given as
// Bounds) overlaps the stored disjunction if any one of its groups overlaps.
func Overlap(enc EncodedRange, b Bounds) bool {
	if b.Wildcard {
		return true
	}
	for _, group := range enc.Groups {
		if groupOverlaps(group, b) {
			return true
		}
	}
	return false
}

func groupOverlaps(g Group, b Bounds) bool {
	if len(g.Uppers) == 0 && bytes.Compare(b.Lower, SentinelHigh) >= 0 {
		return false
	}
	if len(g.Lowers) == 0 && bytes.Compare(b.Upper, SentinelLow) <= 0 {
		return false
	}
	for _, l := range g.Lowers {
		if bytes.Compare(b.Upper, l) <= 0 {
			return false
		}
	}
	for _, u := range g.Uppers {
		if bytes.Compare(b.Lower, u) >= 0 {
			return false
		}
	}
	return true
}
