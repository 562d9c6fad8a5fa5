/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/lineup"
	"github.com/channelforge/lineup/internal/notify"
	"github.com/channelforge/lineup/internal/store"
	"github.com/channelforge/lineup/internal/verify"
)

var (
	applyConfigPath   string
	applyDocumentPath string
	applyDBPath       string
	applyMode         string
	applyDryRun       bool
	applyScriptPath   string
	applyAllowMissing int
	applyForce        bool
	applyBaseURL      string
	applyNoReset      bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a lineup document to the ErsatzTV database",
	Long: `Apply resolves every lineup path against the database, builds a
transactional mutation plan, and executes it. A dry run prints the exact
SQL that apply would execute.

Modes:
  auto     create the playlist when missing, otherwise replace (default)
  create   bootstrap playlist, schedule, channel and playout
  replace  delete the playlist's items and insert the new lineup
  append   insert the new lineup after the existing items

When --config is given, the document is verified first and violations
block the apply unless --force. After a successful apply the channel's
playout is reset over HTTP unless --no-reset.

Examples:
  lineup apply -d toons-lineup.yaml --db /var/lib/ersatztv/ersatztv.sqlite3 --dry-run
  lineup apply -c toons.yaml -d toons-lineup.yaml --db ersatztv.sqlite3 --mode replace`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyConfigPath, "config", "c", "", "Channel config, enables pre-apply verification")
	applyCmd.Flags().StringVarP(&applyDocumentPath, "document", "d", "", "Lineup document (required)")
	applyCmd.Flags().StringVar(&applyDBPath, "db", "", "ErsatzTV SQLite database path (default $LINEUP_DB_PATH)")
	applyCmd.Flags().StringVar(&applyMode, "mode", "auto", "Mutation mode: auto, create, replace, append")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Print the SQL plan without executing it")
	applyCmd.Flags().StringVar(&applyScriptPath, "script", "", "Also write the SQL plan to this file")
	applyCmd.Flags().IntVar(&applyAllowMissing, "allow-missing", 0, "Tolerate up to N unresolved paths (dropped from the plan)")
	applyCmd.Flags().BoolVar(&applyForce, "force", false, "Apply even when verification reports violations")
	applyCmd.Flags().StringVar(&applyBaseURL, "base-url", "", "ErsatzTV base URL for the playout reset (default $LINEUP_BASE_URL)")
	applyCmd.Flags().BoolVar(&applyNoReset, "no-reset", false, "Skip the playout reset after apply")
	applyCmd.MarkFlagRequired("document")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	doc, err := lineup.Load(applyDocumentPath)
	if err != nil {
		return err
	}

	if applyConfigPath != "" {
		cfg, err := config.Load(applyConfigPath)
		if err != nil {
			return err
		}
		if violations := verify.Lineup(cfg, doc); len(violations) > 0 {
			if !applyForce {
				return violationsError(violations)
			}
			logger.Warn().Int("violations", len(violations)).Msg("applying despite verification failures (--force)")
		}
	}

	return applyDocument(doc, applyOptions{
		dbPath:       applyDBPath,
		mode:         applyMode,
		dryRun:       applyDryRun,
		scriptPath:   applyScriptPath,
		allowMissing: applyAllowMissing,
		baseURL:      applyBaseURL,
		noReset:      applyNoReset,
	})
}

type applyOptions struct {
	dbPath       string
	mode         string
	dryRun       bool
	scriptPath   string
	allowMissing int
	baseURL      string
	noReset      bool
}

// applyDocument runs the resolve, plan, execute, notify pipeline shared
// by the apply and flat commands.
func applyDocument(doc *lineup.Document, opts applyOptions) error {
	env := config.ReadEnv()
	dbPath := opts.dbPath
	if dbPath == "" {
		dbPath = env.DBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no database path: pass --db or set LINEUP_DB_PATH")
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		paths = append(paths, row.Path)
	}
	resolved, err := s.ResolveAll(paths, opts.allowMissing)
	if err != nil {
		return err
	}
	logger.Info().Int("rows", len(doc.Rows)).Int("resolved", len(resolved)).Msg("paths resolved")

	existing, err := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	if err != nil {
		return err
	}

	mode := store.Mode(opts.mode)
	if opts.mode == "auto" {
		if existing.PlaylistID == nil {
			mode = store.ModeCreate
		} else {
			mode = store.ModeReplace
		}
	}

	plan, err := store.BuildPlan(doc, resolved, existing, mode)
	if err != nil {
		return err
	}

	script, err := plan.Script()
	if err != nil {
		return err
	}
	if opts.scriptPath != "" {
		if err := os.WriteFile(opts.scriptPath, []byte(script), 0o644); err != nil {
			return fmt.Errorf("write script: %w", err)
		}
		logger.Info().Str("path", opts.scriptPath).Msg("SQL plan written")
	}
	if opts.dryRun {
		fmt.Print(script)
		logger.Info().Str("mode", string(mode)).Int("items", len(plan.Rows)).Msg("dry run, nothing executed")
		return nil
	}

	if err := plan.Execute(s); err != nil {
		return err
	}
	logger.Info().Str("mode", string(mode)).Int("items", len(plan.Rows)).Msg("apply committed")

	if opts.noReset || !env.ResetAfterApply {
		return nil
	}
	baseURL := opts.baseURL
	if baseURL == "" {
		baseURL = env.BaseURL
	}
	if baseURL == "" {
		logger.Warn().Msg("no base URL for playout reset: pass --base-url or set LINEUP_BASE_URL")
		return nil
	}
	if err := notify.ResetPlayout(context.Background(), nil, baseURL, doc.Channel.Number); err != nil {
		// The mutation is committed; a reset failure is reported but
		// does not fail the apply.
		logger.Error().Err(err).Msg("playout reset failed, restart or reset the channel manually")
		return nil
	}
	logger.Info().Str("channel", doc.Channel.Number).Msg("playout reset requested")
	return nil
}
