/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/export"
	"github.com/channelforge/lineup/internal/store"
)

var (
	exportSpecPath string
	exportOutPath  string
	exportDBPath   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a channel config from the ErsatzTV database",
	Long: `Export reads a small path-first spec (pool path prefixes and filters)
and queries the database for the exact paths, durations and types it
already knows, emitting a channel config ready for solve.

Example:
  lineup export -s toons-spec.yaml --db ersatztv.sqlite3 -o toons.yaml`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportSpecPath, "spec", "s", "", "Export spec (required)")
	exportCmd.Flags().StringVarP(&exportOutPath, "out", "o", "", "Channel config output path (required)")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "ErsatzTV SQLite database path (default $LINEUP_DB_PATH)")
	exportCmd.MarkFlagRequired("spec")
	exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	spec, err := export.LoadSpec(exportSpecPath)
	if err != nil {
		return err
	}

	dbPath := exportDBPath
	if dbPath == "" {
		dbPath = config.ReadEnv().DBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no database path: pass --db or set LINEUP_DB_PATH")
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}

	data, err := export.Build(s, spec)
	if err != nil {
		return err
	}

	// Emitted configs must round-trip through the solver's loader.
	if _, err := config.Parse(data); err != nil {
		return fmt.Errorf("exported config failed validation: %w", err)
	}

	if err := os.WriteFile(exportOutPath, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	logger.Info().Str("path", exportOutPath).Msg("channel config written")
	return nil
}
