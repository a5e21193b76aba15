// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/depindex/pkg/cliutil"
	"github.com/datawire/depindex/pkg/depindex"
	"github.com/datawire/depindex/pkg/kvstore/boltstore"
	"github.com/datawire/depindex/pkg/manifest"
)

func init() {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "store [flags] FILE-OR-DIR",
		Short: "Ingest one manifest file or a directory tree of them",
		Args:  cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := boltstore.Open(dbPath)
			if err != nil {
				return err
			}
			db := depindex.Open(store)
			defer db.Close()

			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			if info.IsDir() {
				n := 0
				err := manifest.LoadDir(ctx, args[0], func(ctx context.Context, m *manifest.Manifest) error {
					n++
					return db.Store(ctx, m)
				})
				if err != nil {
					return err
				}
				dlog.Infof(ctx, "stored %d manifests from %s", n, args[0])
				return nil
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			m, err := manifest.DecodeJSON(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return db.Store(ctx, m)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "depindex.bolt", "Path to the bbolt database file")
	argparser.AddCommand(cmd)
}
