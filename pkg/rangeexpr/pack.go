// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package rangeexpr implements the Version Codec and Range Normalizer: it
// packs (major, minor, patch) triples into lexicographically-ordered byte
// strings, parses npm-shaped range expressions (comparators, "^"/"~"
// shorthand, x-ranges, hyphen ranges, and "||" disjunction), and provides
// the write-side encoding and read-side overlap test that back the
// range-overlap index in pkg/depindex.
package rangeexpr

import (
	"fmt"
	"strconv"

	"github.com/datawire/depindex/pkg/pkgver"
)

// SentinelLow and SentinelHigh bound the packed key space: SentinelLow
// compares less than the packed form of any finite version, SentinelHigh
// compares greater. Both are single bytes, while every packed version is at
// least two bytes (a length-prefix byte followed by at least one hex digit),
// so no finite packed version can collide with either sentinel under
// bytewise comparison.
var (
	SentinelLow  = []byte{0x00}
	SentinelHigh = []byte{0xff}
)

const componentSep = '!'

// packComponent hex-encodes a single non-negative release component with a
// one-byte length prefix, so that bytewise comparison of two packComponent
// outputs agrees with numeric comparison of the inputs regardless of how
// many hex digits each requires: same-length encodings compare correctly
// because hex digits ('0'-'9' before 'a'-'f') sort in numeric order, and
// differing lengths are resolved by the prefix byte before any digit is
// compared.
func packComponent(n int) []byte {
	hex := strconv.FormatInt(int64(n), 16)
	out := make([]byte, 0, len(hex)+1)
	out = append(out, byte(len(hex)))
	out = append(out, hex...)
	return out
}

// Pack packs a (major, minor, patch) triple into its lexicographically
// ordered byte form. pack(v1) < pack(v2) bytewise iff v1 < v2 numerically by
// the usual tuple ordering on (major, minor, patch); prerelease and build
// metadata play no part, by design.
func Pack(major, minor, patch int) []byte {
	out := packComponent(major)
	out = append(out, componentSep)
	out = append(out, packComponent(minor)...)
	out = append(out, componentSep)
	out = append(out, packComponent(patch)...)
	return out
}

// PackVersion packs a concrete (non-wildcard) Version. It returns an error
// if v has any wildcard release component ("x"-range components must be
// resolved to a concrete bound by the caller before packing; see
// desugarXRange).
func PackVersion(v pkgver.Version) ([]byte, error) {
	major, minor, patch, ok := triple(v)
	if !ok {
		return nil, fmt.Errorf("rangeexpr.PackVersion: %s has a wildcard release component", v.String())
	}
	return Pack(major, minor, patch), nil
}

// IncPatch returns v with its patch component incremented by one, used to
// turn an inclusive upper bound into the exclusive upper bound the index
// stores.
func IncPatch(major, minor, patch int) (int, int, int) {
	return major, minor, patch + 1
}

// triple extracts the (major, minor, patch) integers from a Version, failing
// if any component is a wildcard.
func triple(v pkgver.Version) (major, minor, patch int, ok bool) {
	for i, p := range [...]*int{&major, &minor, &patch} {
		if v.IsWildcard(i) {
			return 0, 0, 0, false
		}
		*p = v.Int(i)
	}
	return major, minor, patch, true
}
