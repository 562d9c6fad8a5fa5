/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/channelforge/lineup/internal/bumper"
	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/lineup"
	"github.com/channelforge/lineup/internal/solver"
	"github.com/channelforge/lineup/internal/verify"
)

var (
	solveConfigPath string
	solveOutPath    string
	solveReportPath string
	solveSkipVerify bool
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a channel config into a lineup document",
	Long: `Solve packs the configured content into timed blocks, inserts bounded
filler repeats, interleaves bumpers, and writes the lineup document.
The document is verified before it is written unless --no-verify is set.

Examples:
  lineup solve -c toons.yaml -o toons-lineup.yaml
  lineup solve -c toons.yaml -o toons-lineup.yaml --report solve-report.json`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveConfigPath, "config", "c", "", "Channel config (required)")
	solveCmd.Flags().StringVarP(&solveOutPath, "out", "o", "", "Lineup document output path (required)")
	solveCmd.Flags().StringVar(&solveReportPath, "report", "", "Optional JSON solve report path")
	solveCmd.Flags().BoolVar(&solveSkipVerify, "no-verify", false, "Skip verification of the solved lineup")
	solveCmd.MarkFlagRequired("config")
	solveCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(solveConfigPath)
	if err != nil {
		return err
	}

	var res *solver.Result
	if cfg.Solver.Seed == 0 {
		base, err := autoSeed()
		if err != nil {
			return err
		}
		logger.Info().Int64("base_seed", base).Msg("auto seed, exploring a seed portfolio")
		res, err = solver.SolvePortfolio(cfg, base, logger)
		if err != nil {
			return err
		}
	} else {
		res, err = solver.Solve(cfg, logger)
		if err != nil {
			return err
		}
	}

	for _, w := range res.Warnings {
		logger.Warn().Msg(w)
	}
	logger.Info().
		Int64("seed", res.Seed).
		Int("blocks", len(res.Blocks)).
		Int("repeats", res.RepeatsUsed).
		Int("waste_sec", res.TotalWasteSec).
		Msg("solve complete")

	sel := bumper.NewSelector(cfg.Bumpers, res.Seed)
	doc := lineup.Assemble(cfg, res, sel)

	if !solveSkipVerify {
		if violations := verify.Lineup(cfg, doc); len(violations) > 0 {
			return violationsError(violations)
		}
		logger.Info().Msg("lineup verified clean")
	}

	if err := doc.Save(solveOutPath); err != nil {
		return err
	}
	logger.Info().Str("path", solveOutPath).Int("rows", len(doc.Rows)).Msg("lineup document written")

	if solveReportPath != "" {
		if err := writeSolveReport(solveReportPath, res, doc); err != nil {
			return err
		}
	}
	return nil
}

// autoSeed draws a 31-bit seed, matching the range of hashed string
// seeds so any auto run can be pinned later.
func autoSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("draw seed: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) & 0x7FFFFFFF)
	if seed == 0 {
		seed = 1
	}
	return seed, nil
}

func violationsError(violations []verify.Violation) error {
	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		lines = append(lines, "  "+v.String())
	}
	return fmt.Errorf("lineup verification failed with %d violations:\n%s",
		len(violations), strings.Join(lines, "\n"))
}

type solveReport struct {
	Seed          int64    `json:"seed"`
	Blocks        int      `json:"blocks"`
	Rows          int      `json:"rows"`
	RepeatsUsed   int      `json:"repeats_used"`
	TotalWasteSec int      `json:"total_waste_sec"`
	FillerCostSec int      `json:"filler_cost_sec"`
	Fallback      bool     `json:"filler_fallback"`
	TargetSec     int      `json:"block_target_sec"`
	CeilingSec    int      `json:"block_ceiling_sec"`
	Warnings      []string `json:"warnings,omitempty"`
}

func writeSolveReport(path string, res *solver.Result, doc *lineup.Document) error {
	report := solveReport{
		Seed:          res.Seed,
		Blocks:        len(res.Blocks),
		Rows:          len(doc.Rows),
		RepeatsUsed:   res.RepeatsUsed,
		TotalWasteSec: res.TotalWasteSec,
		FillerCostSec: res.FillerCostSec,
		Fallback:      res.FillerFallback,
		TargetSec:     res.TargetSec,
		CeilingSec:    res.CeilingSec,
		Warnings:      res.Warnings,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode solve report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write solve report: %w", err)
	}
	logger.Info().Str("path", path).Msg("solve report written")
	return nil
}
