// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

// Package pkgver parses and compares semantic-version-shaped release
// identifiers: the "major.minor.patch" triples that corpus manifests declare
// for themselves and for their dependencies.
//
// This package is deliberately narrower than full SemVer 2.0.0: prerelease
// tags and build metadata are recognized by the parser (so that a version
// string carrying them is not rejected outright) but are ignored by
// Compare and by everything downstream in pkg/rangeexpr, exactly as
// specified in "Version Codec" (pack/inc_patch ignore prerelease and build
// components "by design").
package pkgver

import (
	"fmt"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/util/intstr"
)

// Version scheme
// ==============
//
// A Version is a release segment of up to three non-negative integer
// components (major, minor, patch), optionally followed by a prerelease tag
// introduced by '-' and/or build metadata introduced by '+'. Missing trailing
// components default to zero: "1" means "1.0.0", "1.2" means "1.2.0".
//
// A release component may also be the wildcard marker 'x', 'X', or '*' (used
// by x-range expressions such as "1.2.x"); Release represents each component
// as an intstr.IntOrString the same way PEP 440 represents mixed
// numeric/alphanumeric local-version segments, so that a wildcard component
// doesn't need a sentinel integer value.
type Version struct {
	Release    [3]intstr.IntOrString
	Prerelease string
	Build      string
}

// Parse parses a version string of the form "N(.N)*(-PRERELEASE)?(+BUILD)?",
// where each N is either a non-negative integer or a wildcard marker.
func Parse(str string) (Version, error) {
	orig := str

	base, rest := splitRelease(str)

	var ver Version
	parts := strings.Split(base, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return Version{}, fmt.Errorf("pkgver.Parse: invalid version %q: expected 1 to 3 release components", orig)
	}
	sawWildcard := false
	for i := 0; i < 3; i++ {
		if i >= len(parts) {
			// A component past the end of the dotted string: a plain short
			// version ("1.2" meaning "1.2.0") fills with zero, but a
			// component following a wildcard ("1.x" meaning "1.x.x")
			// widens to a wildcard too.
			if sawWildcard {
				ver.Release[i] = intstr.FromString("x")
			} else {
				ver.Release[i] = intstr.FromInt(0)
			}
			continue
		}
		seg, err := parseSegment(parts[i])
		if err != nil {
			return Version{}, fmt.Errorf("pkgver.Parse: invalid version %q: %w", orig, err)
		}
		if seg.Type == intstr.String {
			sawWildcard = true
		}
		ver.Release[i] = seg
	}
	ver.Prerelease, ver.Build = rest.pre, rest.build

	return ver, nil
}

// tail holds the prerelease/build suffix split off of a version string.
type tail struct {
	pre   string
	build string
}

// splitRelease separates the dotted release segment from any
// "-prerelease"/"+build" suffix.
func splitRelease(s string) (string, tail) {
	var build string
	if i := strings.IndexByte(s, '+'); i >= 0 {
		build = s[i+1:]
		s = s[:i]
	}
	var pre string
	if i := strings.IndexByte(s, '-'); i >= 0 {
		pre = s[i+1:]
		s = s[:i]
	}
	return s, tail{pre: pre, build: build}
}

func parseSegment(s string) (intstr.IntOrString, error) {
	switch s {
	case "x", "X", "*", "":
		return intstr.FromString("x"), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return intstr.IntOrString{}, fmt.Errorf("invalid release component %q", s)
	}
	return intstr.FromInt(n), nil
}

// FromInts builds a concrete Version (no wildcards, no prerelease/build) from
// its three integer release components. Used by pkg/rangeexpr when
// desugaring shorthand range forms (caret, tilde, x-range, hyphen) into
// concrete comparator bounds.
func FromInts(major, minor, patch int) Version {
	return Version{Release: [3]intstr.IntOrString{
		intstr.FromInt(major),
		intstr.FromInt(minor),
		intstr.FromInt(patch),
	}}
}

// IsWildcard reports whether release component i ("x" in an x-range) was left
// unspecified.
func (v Version) IsWildcard(i int) bool {
	return v.Release[i].Type == intstr.String
}

// Int returns release component i as an integer. It panics if the component
// is a wildcard; callers must check IsWildcard first.
func (v Version) Int(i int) int {
	if v.IsWildcard(i) {
		panic("pkgver: Int called on a wildcard release component")
	}
	return v.Release[i].IntValue()
}

// String renders the version back to its canonical dotted form. Wildcard
// components render as "x"; Prerelease/Build are appended if present.
func (v Version) String() string {
	parts := make([]string, 3)
	for i := range parts {
		if v.IsWildcard(i) {
			parts[i] = "x"
		} else {
			parts[i] = strconv.Itoa(v.Int(i))
		}
	}
	s := strings.Join(parts, ".")
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Compare returns -1, 0, or +1 as v1 is numerically less than, equal to, or
// greater than v2, comparing (major, minor, patch) as a tuple and ignoring
// prerelease/build. Wildcard components compare as equal to anything (they
// only ever appear in comparator operands supplied to pkg/rangeexpr, never in
// a manifest's own declared version, but Compare tolerates them defensively).
//
// This is the bignum-safe comparison required by the Writer's latest-version
// monotonicity check (spec §4.4 step 2); it is independent of, and must not
// be confused with, the lexicographic ordering over packed bytes used for
// index keys (see pkg/rangeexpr.Pack).
func Compare(v1, v2 Version) int {
	for i := 0; i < 3; i++ {
		if v1.IsWildcard(i) || v2.IsWildcard(i) {
			return 0
		}
		a, b := v1.Int(i), v2.Int(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}
