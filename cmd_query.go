// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/datawire/depindex/pkg/cliutil"
	"github.com/datawire/depindex/pkg/depindex"
	"github.com/datawire/depindex/pkg/kvstore/boltstore"
)

func init() {
	var dbPath string
	var opts depindex.QueryOptions
	cmd := &cobra.Command{
		Use:   "query [flags] NAME RANGE",
		Short: "Find every manifest declaring a dependency on NAME overlapping RANGE",
		Long: cliutil.Wrap(cliutil.GetTerminalWidth(), "Prints one JSON-encoded manifest per line, "+
			"for every package that declares a dependency on NAME whose range overlaps RANGE."),
		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, rangeStr := args[0], args[1]

			store, err := boltstore.Open(dbPath)
			if err != nil {
				return err
			}
			db := depindex.Open(store)
			defer db.Close()

			stream, err := db.Query(ctx, name, rangeStr, opts)
			if err != nil {
				return err
			}
			defer stream.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			for {
				m, ok, err := stream.Next(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := enc.Encode(m); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "depindex.bolt", "Path to the bbolt database file")
	opts.AddFlagsTo(cmd.Flags())
	argparser.AddCommand(cmd)
}
