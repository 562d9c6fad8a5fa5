/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/logging"
	"github.com/channelforge/lineup/internal/version"
)

var (
	logger  zerolog.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "lineup",
	Short:   "Deterministic looping playlist lineups for ErsatzTV channels",
	Long:    "lineup packs channel content into timed blocks, interleaves bumpers,\nverifies the result, and applies it to an ErsatzTV database.",
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.Setup(verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor distinguishes config mistakes (2) from solve, verify and
// apply failures (1).
func exitCodeFor(err error) int {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return 2
	}
	return 1
}
