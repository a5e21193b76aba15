// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import "github.com/spf13/pflag"

// QueryOptions controls a Query call (§4.5).
type QueryOptions struct {
	// All, if set, scans the per-version index (every version of every
	// dependent ever stored); otherwise scans the latest-only index.
	All bool
	// Dev, if set, queries the devDependencies index family instead of
	// dependencies.
	Dev bool
	// GT resumes a scan strictly after the index key for this dependent
	// name. In the latest-only index that skips the dependent itself; in
	// the per-version index (All) the dependent's own "name@version" keys
	// sort after the bare name and are still included.
	GT string
	// Limit bounds the number of raw scan emissions considered, before
	// overlap filtering.
	Limit int
}

func (o QueryOptions) kind() Kind {
	if o.Dev {
		return KindDev
	}
	return KindDep
}

// AddFlagsTo registers one flag per field of o onto flagset, so a caller can
// bind a QueryOptions directly to a command's flags instead of declaring
// each flag by hand.
func (o *QueryOptions) AddFlagsTo(flagset *pflag.FlagSet) {
	flagset.BoolVar(&o.All, "all", false, "Scan every stored version, not just each dependent's latest")
	flagset.BoolVar(&o.Dev, "dev", false, "Query devDependencies instead of dependencies")
	flagset.StringVar(&o.GT, "gt", "", "Resume a scan after this dependent name (with --all, its own versions are still included)")
	flagset.IntVar(&o.Limit, "limit", 0, "Upper bound on raw scan emissions before filtering (0 = unbounded)")
}
