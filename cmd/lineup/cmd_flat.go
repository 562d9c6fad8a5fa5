/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/channelforge/lineup/internal/lineup"
	"github.com/channelforge/lineup/internal/probe"
)

var (
	flatInputPath    string
	flatOutPath      string
	flatApply        bool
	flatDBPath       string
	flatMode         string
	flatDryRun       bool
	flatScriptPath   string
	flatAllowMissing int
	flatBaseURL      string
	flatNoReset      bool
)

var flatCmd = &cobra.Command{
	Use:   "flat",
	Short: "Build a lineup document from a hand-ordered item list",
	Long: `Flat mode skips the solver: you supply the exact playlist order and
only loop expansion runs. Items shorter than loop_short_under_sec repeat
until loop_short_to_sec; only the first row of a looped run stays in the
guide. Items without a duration are probed with ffprobe.

Examples:
  lineup flat -f shorts.yaml -o shorts-lineup.yaml
  lineup flat -f shorts.yaml --apply --db ersatztv.sqlite3 --dry-run`,
	RunE: runFlat,
}

func init() {
	flatCmd.Flags().StringVarP(&flatInputPath, "flat", "f", "", "Flat playlist config (required)")
	flatCmd.Flags().StringVarP(&flatOutPath, "out", "o", "", "Lineup document output path")
	flatCmd.Flags().BoolVar(&flatApply, "apply", false, "Apply the expanded lineup to the database")
	flatCmd.Flags().StringVar(&flatDBPath, "db", "", "ErsatzTV SQLite database path (default $LINEUP_DB_PATH)")
	flatCmd.Flags().StringVar(&flatMode, "mode", "auto", "Mutation mode: auto, create, replace, append")
	flatCmd.Flags().BoolVar(&flatDryRun, "dry-run", false, "Print the SQL plan without executing it")
	flatCmd.Flags().StringVar(&flatScriptPath, "script", "", "Also write the SQL plan to this file")
	flatCmd.Flags().IntVar(&flatAllowMissing, "allow-missing", 0, "Tolerate up to N unresolved paths")
	flatCmd.Flags().StringVar(&flatBaseURL, "base-url", "", "ErsatzTV base URL for the playout reset (default $LINEUP_BASE_URL)")
	flatCmd.Flags().BoolVar(&flatNoReset, "no-reset", false, "Skip the playout reset after apply")
	flatCmd.MarkFlagRequired("flat")
	rootCmd.AddCommand(flatCmd)
}

func runFlat(cmd *cobra.Command, args []string) error {
	if flatOutPath == "" && !flatApply {
		return fmt.Errorf("nothing to do: pass --out, --apply, or both")
	}

	fc, err := lineup.LoadFlat(flatInputPath)
	if err != nil {
		return err
	}

	if err := probeMissingDurations(cmd.Context(), fc); err != nil {
		return err
	}

	doc, err := lineup.ExpandFlat(fc)
	if err != nil {
		return err
	}
	logger.Info().Int("items", len(fc.Items)).Int("rows", len(doc.Rows)).Msg("flat lineup expanded")

	if flatOutPath != "" {
		if err := doc.Save(flatOutPath); err != nil {
			return err
		}
		logger.Info().Str("path", flatOutPath).Msg("lineup document written")
	}
	if !flatApply {
		return nil
	}
	return applyDocument(doc, applyOptions{
		dbPath:       flatDBPath,
		mode:         flatMode,
		dryRun:       flatDryRun,
		scriptPath:   flatScriptPath,
		allowMissing: flatAllowMissing,
		baseURL:      flatBaseURL,
		noReset:      flatNoReset,
	})
}

func probeMissingDurations(ctx context.Context, fc *lineup.FlatConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var prober probe.Prober = &probe.FFprobe{}
	for i := range fc.Items {
		if fc.Items[i].DurationSec > 0 {
			continue
		}
		d, err := prober.Duration(ctx, fc.Items[i].Path)
		if err != nil {
			return err
		}
		fc.Items[i].DurationSec = int(math.Ceil(d.Seconds()))
		logger.Debug().Str("path", fc.Items[i].Path).Int("duration_sec", fc.Items[i].DurationSec).Msg("probed duration")
	}
	return nil
}
