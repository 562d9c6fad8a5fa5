/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package lineup

import (
	"github.com/channelforge/lineup/internal/bumper"
	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/solver"
)

// Assemble interleaves bumper runs with the solved blocks. The default
// shape is run, block, run, block; content_first drops the leading run.
// The lineup always ends with a content block so the loop seam never
// places two bumper runs back to back.
func Assemble(cfg *config.Config, res *solver.Result, sel *bumper.Selector) *Document {
	doc := &Document{
		Channel: ChannelHeader{
			Name:   cfg.Channel.Name,
			Number: cfg.Channel.Number,
			Group:  cfg.Channel.Group,
		},
		Schedule: ScheduleHeader{
			Name:      cfg.Schedule.Name,
			GuideMode: cfg.Schedule.GuideMode,
			Shuffle:   cfg.Schedule.Shuffle,
		},
		Playlist: playlistName(cfg),
		Seed:     res.Seed,
	}

	// Bumpers never show in the programming guide.
	noGuide := false
	for i, block := range res.Blocks {
		if sel != nil && !(i == 0 && cfg.Schedule.ContentFirst) {
			for _, b := range sel.Break() {
				doc.Rows = append(doc.Rows, Row{
					Path:           b.Path,
					Type:           b.MediaType,
					IncludeInGuide: &noGuide,
				})
			}
		}
		for _, use := range block.Items {
			doc.Rows = append(doc.Rows, Row{
				Path: use.Item.Path,
				Type: use.Item.MediaType,
			})
		}
	}
	return doc
}

func playlistName(cfg *config.Config) string {
	if cfg.Schedule.Name != "" {
		return cfg.Schedule.Name
	}
	return cfg.Channel.Name
}
