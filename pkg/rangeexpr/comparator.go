// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package rangeexpr

import (
	"fmt"

	"github.com/datawire/depindex/pkg/pkgver"
)

// Operator is a comparator's relation to its operand version.
type Operator int

const (
	// OpUnset is the "no constraint" comparator: it matches every version.
	OpUnset Operator = iota
	OpEQ
	OpLT
	OpLE
	OpGT
	OpGE
)

func (op Operator) String() string {
	switch op {
	case OpUnset:
		return ""
	case OpEQ:
		return "="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// Comparator is a single (operator, version) constraint.
type Comparator struct {
	Op      Operator
	Version pkgver.Version
}

func (c Comparator) String() string {
	if c.Op == OpUnset {
		return "*"
	}
	return c.Op.String() + c.Version.String()
}

// isLower reports whether this comparator constrains the lower edge of the
// matched interval ('>' / '>=' / the unset/wildcard comparator).
func (c Comparator) isLower() bool {
	return c.Op == OpGT || c.Op == OpGE || c.Op == OpUnset
}

// isUpper reports whether this comparator constrains the upper edge.
func (c Comparator) isUpper() bool {
	return c.Op == OpLT || c.Op == OpLE
}

// Conjunction is a set of comparators that must all hold (logical AND).
type Conjunction []Comparator

// Disjunction is a set of Conjunctions, any one of which may hold (logical
// OR, i.e. the "||" operator in a range expression).
type Disjunction []Conjunction
