// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"

	"github.com/datawire/depindex/pkg/cliutil"
	"github.com/datawire/depindex/pkg/depindex"
	"github.com/datawire/depindex/pkg/kvstore/boltstore"
	"github.com/datawire/depindex/pkg/manifest"
)

// serve is a convenience REPL over a bbolt-backed DB, not a network
// service: the core deliberately has no wire protocol in scope (§6), so
// this just saves a caller from writing their own cmd_*.go for ad hoc use.
func init() {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run an interactive store/query loop over a database",
		Long: cliutil.Wrap(cliutil.GetTerminalWidth(), "Reads commands from stdin, one per line: "+
			`"store JSON-MANIFEST" to ingest a manifest document, or `+
			`"query NAME RANGE [all] [dev]" to run a query and print matching manifests as JSON.`),
		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := boltstore.Open(dbPath)
			if err != nil {
				return err
			}
			db := depindex.Open(store)
			defer db.Close()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			out := json.NewEncoder(cmd.OutOrStdout())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if err := serveLine(ctx, db, out, line); err != nil {
					dlog.Warnf(ctx, "%v", err)
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "depindex.bolt", "Path to the bbolt database file")
	argparser.AddCommand(cmd)
}

func serveLine(ctx context.Context, db *depindex.DB, out *json.Encoder, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "store":
		if len(fields) < 2 {
			return fmt.Errorf("serve: store: missing JSON manifest argument")
		}
		m, err := manifest.DecodeJSON(strings.NewReader(strings.Join(fields[1:], " ")))
		if err != nil {
			return fmt.Errorf("serve: store: %w", err)
		}
		return db.Store(ctx, m)

	case "query":
		if len(fields) < 3 {
			return fmt.Errorf("serve: query: usage: query NAME RANGE [all] [dev]")
		}
		var opts depindex.QueryOptions
		for _, flag := range fields[3:] {
			switch flag {
			case "all":
				opts.All = true
			case "dev":
				opts.Dev = true
			default:
				return fmt.Errorf("serve: query: unrecognized flag %q", flag)
			}
		}
		stream, err := db.Query(ctx, fields[1], fields[2], opts)
		if err != nil {
			return fmt.Errorf("serve: query: %w", err)
		}
		defer stream.Close()
		for {
			m, ok, err := stream.Next(ctx)
			if err != nil {
				return fmt.Errorf("serve: query: %w", err)
			}
			if !ok {
				break
			}
			if err := out.Encode(m); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("serve: unrecognized command %q (expected %q)", fields[0], []string{"store", "query"})
	}
}
