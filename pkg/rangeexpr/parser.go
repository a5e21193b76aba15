// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package rangeexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/datawire/depindex/pkg/pkgver"
)

// ParseRange parses a range expression into a Disjunction of Conjunctions of
// Comparators (§4.2). It accepts the shorthand forms a real manifest corpus
// uses in addition to bare comparators:
//
//   - caret ranges:   ^1.2.3
//   - tilde ranges:   ~1.2.3
//   - x-ranges:       1.2.x, 1.*, *, "" (a missing or wildcard component
//     widens the match up to the next-higher component)
//   - hyphen ranges:  1.2.3 - 2.3.4
//   - disjunction:    1.0.0 || 2.0.0
//
// A bare, fully-specified version with no operator and no wildcard
// component (e.g. "1.2.3") means exact equality, matching the '=' operator.
func ParseRange(s string) (Disjunction, error) {
	groups := strings.Split(s, "||")
	disj := make(Disjunction, 0, len(groups))
	for _, group := range groups {
		conj, err := parseConjunction(strings.TrimSpace(group))
		if err != nil {
			return nil, fmt.Errorf("rangeexpr.ParseRange: %q: %w", s, err)
		}
		disj = append(disj, conj)
	}
	return disj, nil
}

func parseConjunction(group string) (Conjunction, error) {
	if group == "" {
		return Conjunction{{Op: OpUnset}}, nil
	}

	if lo, hi, ok := splitHyphenRange(group); ok {
		lowV, err := pkgver.Parse(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid hyphen range lower bound %q: %w", lo, err)
		}
		highV, err := pkgver.Parse(hi)
		if err != nil {
			return nil, fmt.Errorf("invalid hyphen range upper bound %q: %w", hi, err)
		}
		return Conjunction{
			{Op: OpGE, Version: lowV},
			{Op: OpLE, Version: highV},
		}, nil
	}

	var conj Conjunction
	for _, tok := range strings.Fields(group) {
		comps, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		conj = append(conj, comps...)
	}
	return conj, nil
}

// splitHyphenRange recognizes the "LOW - HIGH" hyphen-range shorthand. The
// hyphen must be surrounded by spaces, which is also what disambiguates it
// from a prerelease tag such as "1.2.3-rc1" (no surrounding spaces there).
func splitHyphenRange(group string) (lo, hi string, ok bool) {
	const sep = " - "
	i := strings.Index(group, sep)
	if i < 0 {
		return "", "", false
	}
	lo = strings.TrimSpace(group[:i])
	hi = strings.TrimSpace(group[i+len(sep):])
	if lo == "" || hi == "" || strings.Contains(hi, sep) {
		return "", "", false
	}
	return lo, hi, true
}

func parseToken(tok string) (Conjunction, error) {
	switch {
	case tok == "":
		return Conjunction{{Op: OpUnset}}, nil
	case strings.HasPrefix(tok, "^"):
		return desugarCaret(tok[1:])
	case strings.HasPrefix(tok, "~"):
		return desugarTilde(tok[1:])
	case strings.HasPrefix(tok, ">="):
		return parseExplicit(OpGE, tok[2:])
	case strings.HasPrefix(tok, "<="):
		return parseExplicit(OpLE, tok[2:])
	case strings.HasPrefix(tok, ">"):
		return parseExplicit(OpGT, tok[1:])
	case strings.HasPrefix(tok, "<"):
		return parseExplicit(OpLT, tok[1:])
	case strings.HasPrefix(tok, "="):
		return parseExplicit(OpEQ, tok[1:])
	default:
		return desugarXRange(tok)
	}
}

func parseExplicit(op Operator, rest string) (Conjunction, error) {
	v, err := pkgver.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid operand for %q: %w", op.String()+rest, err)
	}
	if hasWildcard(v) {
		return nil, fmt.Errorf("wildcard release component not supported after explicit operator %q", op.String())
	}
	return Conjunction{{Op: op, Version: v}}, nil
}

// desugarCaret expands "^V" to ">=V <UPPER" per the first-nonzero-component
// rule: the upper bound bumps the most significant component of V that is
// nonzero (or the patch component, if V is entirely zero).
func desugarCaret(rest string) (Conjunction, error) {
	v, err := pkgver.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid caret range operand %q: %w", rest, err)
	}
	if hasWildcard(v) {
		return nil, fmt.Errorf("wildcard release component not supported in caret range %q", "^"+rest)
	}
	major, minor, patch := v.Int(0), v.Int(1), v.Int(2)
	var upper pkgver.Version
	switch {
	case major > 0:
		upper = pkgver.FromInts(major+1, 0, 0)
	case minor > 0:
		upper = pkgver.FromInts(0, minor+1, 0)
	default:
		upper = pkgver.FromInts(0, 0, patch+1)
	}
	return Conjunction{
		{Op: OpGE, Version: v},
		{Op: OpLT, Version: upper},
	}, nil
}

// desugarTilde expands "~V" to ">=V <UPPER": the upper bound bumps the minor
// component if V specifies a minor (or patch), and the major component if V
// specifies only a major.
func desugarTilde(rest string) (Conjunction, error) {
	v, err := pkgver.Parse(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid tilde range operand %q: %w", rest, err)
	}
	if hasWildcard(v) {
		return nil, fmt.Errorf("wildcard release component not supported in tilde range %q", "~"+rest)
	}
	core := stripTail(rest)
	var upper pkgver.Version
	if strings.Count(core, ".") == 0 {
		upper = pkgver.FromInts(v.Int(0)+1, 0, 0)
	} else {
		upper = pkgver.FromInts(v.Int(0), v.Int(1)+1, 0)
	}
	return Conjunction{
		{Op: OpGE, Version: v},
		{Op: OpLT, Version: upper},
	}, nil
}

// desugarXRange expands a bare (possibly partial or wildcarded) version
// token, e.g. "1.2.x", "1", "*", into its equivalent comparator form: an
// exact match if fully specified, an unset/wildcard comparator if entirely
// wildcarded, or a ">=LOW <HIGH" pair otherwise.
func desugarXRange(tok string) (Conjunction, error) {
	core := stripTail(tok)
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		return nil, fmt.Errorf("invalid version %q: too many release components", tok)
	}

	prefixLen := len(parts)
	for i, p := range parts {
		if isWildcardToken(p) {
			prefixLen = i
			break
		}
	}

	if prefixLen == 0 {
		return Conjunction{{Op: OpUnset}}, nil
	}

	var comps [3]int
	for i := 0; i < prefixLen; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid version %q: invalid release component %q", tok, parts[i])
		}
		comps[i] = n
	}

	if prefixLen == 3 {
		v, err := pkgver.Parse(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", tok, err)
		}
		return Conjunction{{Op: OpEQ, Version: v}}, nil
	}

	lower := pkgver.FromInts(comps[0], comps[1], comps[2])
	comps[prefixLen-1]++
	upper := pkgver.FromInts(comps[0], comps[1], comps[2])
	return Conjunction{
		{Op: OpGE, Version: lower},
		{Op: OpLT, Version: upper},
	}, nil
}

func isWildcardToken(s string) bool {
	switch s {
	case "x", "X", "*", "":
		return true
	default:
		return false
	}
}

// stripTail removes a "-prerelease"/"+build" suffix, mirroring pkgver's own
// split but kept local so callers here can reason about the raw dotted
// release string (e.g. to count components) before parsing it.
func stripTail(s string) string {
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	return s
}

func hasWildcard(v pkgver.Version) bool {
	return v.IsWildcard(0) || v.IsWildcard(1) || v.IsWildcard(2)
}
