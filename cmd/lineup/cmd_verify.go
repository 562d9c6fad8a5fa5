/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"github.com/spf13/cobra"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/lineup"
	"github.com/channelforge/lineup/internal/verify"
)

var (
	verifyConfigPath   string
	verifyDocumentPath string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a lineup document against its channel config",
	Long: `Verify re-checks an existing lineup document: alternation and loop
safety, item coverage, repeat limits, bumper exhaustion, block duration
bounds, and sequential ordering. Exit code 1 means violations were found.

Example:
  lineup verify -c toons.yaml -d toons-lineup.yaml`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyConfigPath, "config", "c", "", "Channel config (required)")
	verifyCmd.Flags().StringVarP(&verifyDocumentPath, "document", "d", "", "Lineup document (required)")
	verifyCmd.MarkFlagRequired("config")
	verifyCmd.MarkFlagRequired("document")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(verifyConfigPath)
	if err != nil {
		return err
	}
	doc, err := lineup.Load(verifyDocumentPath)
	if err != nil {
		return err
	}

	if violations := verify.Lineup(cfg, doc); len(violations) > 0 {
		return violationsError(violations)
	}
	logger.Info().Int("rows", len(doc.Rows)).Msg("lineup verified clean")
	return nil
}
