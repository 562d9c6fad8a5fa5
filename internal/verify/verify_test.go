/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package verify

import (
	"testing"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/lineup"
	"github.com/channelforge/lineup/internal/tvid"
)

func verifyTestConfig() *config.Config {
	return &config.Config{
		Channel: config.Channel{Name: "Toons", Number: "7"},
		Solver: config.Solver{
			BlockSec:              1800,
			LongformConsumesBlock: true,
		},
		Bumpers: config.Bumpers{
			SlotsPerBreak: 1,
			Strategy:      config.MixRoundRobin,
			Pools: map[string]config.BumperPool{
				"ids": {Name: "ids", Weight: 1, Items: []config.BumperItem{
					{Path: "/b/id1.mkv", DurationSec: 10, MediaType: config.TypeOtherVideo},
					{Path: "/b/id2.mkv", DurationSec: 10, MediaType: config.TypeOtherVideo},
				}},
			},
		},
		Pools: map[string]config.Pool{"misc": {Name: "misc"}},
		Items: []config.Item{
			{Path: "/m/ten.mkv", DurationSec: 600, Pool: "misc", MediaType: config.TypeOtherVideo},
			{Path: "/m/twelve.mkv", DurationSec: 720, Pool: "misc", MediaType: config.TypeOtherVideo},
			{Path: "/m/eight.mkv", DurationSec: 480, Pool: "misc", MediaType: config.TypeOtherVideo},
		},
	}
}

func row(path string, t config.MediaType) lineup.Row {
	return lineup.Row{Path: path, Type: t}
}

func cleanDocument() *lineup.Document {
	return &lineup.Document{
		Channel: lineup.ChannelHeader{Name: "Toons", Number: "7"},
		Rows: []lineup.Row{
			row("/b/id1.mkv", config.TypeOtherVideo),
			row("/m/ten.mkv", config.TypeOtherVideo),
			row("/m/twelve.mkv", config.TypeOtherVideo),
			row("/m/eight.mkv", config.TypeOtherVideo),
		},
	}
}

func checksOf(violations []Violation) map[Check]int {
	out := map[Check]int{}
	for _, v := range violations {
		out[v.Check]++
	}
	return out
}

func TestLineup_CleanDocumentHasNoViolations(t *testing.T) {
	got := Lineup(verifyTestConfig(), cleanDocument())
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}

func TestLineup_TrailingBumperIsALoopSeam(t *testing.T) {
	doc := cleanDocument()
	doc.Rows = append(doc.Rows, row("/b/id2.mkv", config.TypeOtherVideo))
	checks := checksOf(Lineup(verifyTestConfig(), doc))
	if checks[CheckLoopSeam] == 0 {
		t.Fatalf("expected loop_seam violation, got %v", checks)
	}
}

func TestLineup_MissingItemFailsCoverage(t *testing.T) {
	doc := cleanDocument()
	doc.Rows = doc.Rows[:len(doc.Rows)-1] // drop /m/eight.mkv
	checks := checksOf(Lineup(verifyTestConfig(), doc))
	if checks[CheckCoverage] == 0 {
		t.Fatalf("expected coverage violation, got %v", checks)
	}
	// The shortened block also breaks duration bounds.
	if checks[CheckBlockBounds] == 0 {
		t.Fatalf("expected block_bounds violation, got %v", checks)
	}
}

func TestLineup_NonRepeatableItemCannotRepeat(t *testing.T) {
	cfg := verifyTestConfig()
	doc := cleanDocument()
	// Two full copies of the block keep bounds and alternation intact.
	doc.Rows = append(doc.Rows,
		row("/b/id2.mkv", config.TypeOtherVideo),
		row("/m/ten.mkv", config.TypeOtherVideo),
		row("/m/twelve.mkv", config.TypeOtherVideo),
		row("/m/eight.mkv", config.TypeOtherVideo),
	)
	checks := checksOf(Lineup(cfg, doc))
	if checks[CheckRepeatPolicy] != 3 {
		t.Fatalf("expected 3 repeat_policy violations, got %v", checks)
	}
}

func TestLineup_BumperRepeatBeforeExhaustion(t *testing.T) {
	doc := cleanDocument()
	doc.Rows = append(doc.Rows,
		row("/b/id1.mkv", config.TypeOtherVideo), // id2 never played
		row("/m/ten.mkv", config.TypeOtherVideo),
		row("/m/twelve.mkv", config.TypeOtherVideo),
		row("/m/eight.mkv", config.TypeOtherVideo),
	)
	cfg := verifyTestConfig()
	for i := range cfg.Items {
		cfg.Items[i].Repeatable = true
		cfg.Items[i].MaxExtraUses = 5
	}
	checks := checksOf(Lineup(cfg, doc))
	if checks[CheckBumperExhaustion] == 0 {
		t.Fatalf("expected bumper_exhaustion violation, got %v", checks)
	}
}

func TestLineup_WrongSlotCountFailsAlternation(t *testing.T) {
	cfg := verifyTestConfig()
	cfg.Bumpers.SlotsPerBreak = 2
	checks := checksOf(Lineup(cfg, cleanDocument()))
	if checks[CheckAlternation] == 0 {
		t.Fatalf("expected alternation violation, got %v", checks)
	}
}

func TestLineup_UnknownPathIsReported(t *testing.T) {
	doc := cleanDocument()
	doc.Rows[1].Path = "/m/stranger.mkv"
	checks := checksOf(Lineup(verifyTestConfig(), doc))
	if checks[CheckUnknownPath] == 0 {
		t.Fatalf("expected unknown_path violation, got %v", checks)
	}
	if checks[CheckCoverage] == 0 {
		t.Fatalf("replaced item should also fail coverage, got %v", checks)
	}
}

func TestLineup_SequentialRegressionIsReported(t *testing.T) {
	key := func(s, e int) *tvid.EpisodeKey { return &tvid.EpisodeKey{Season: s, Episode: e} }
	cfg := &config.Config{
		Channel: config.Channel{Name: "Toons", Number: "7"},
		Solver:  config.Solver{BlockSec: 1800, LongformConsumesBlock: true},
		Pools:   map[string]config.Pool{"show": {Name: "show", Sequential: true}},
		Items: []config.Item{
			{Path: "/tv/s01e01.mkv", DurationSec: 900, Pool: "show", MediaType: config.TypeEpisode, Key: key(1, 1)},
			{Path: "/tv/s01e02.mkv", DurationSec: 900, Pool: "show", MediaType: config.TypeEpisode, Key: key(1, 2)},
		},
	}
	doc := &lineup.Document{
		Channel: lineup.ChannelHeader{Name: "Toons", Number: "7"},
		Rows: []lineup.Row{
			row("/tv/s01e02.mkv", config.TypeEpisode),
			row("/tv/s01e01.mkv", config.TypeEpisode),
		},
	}
	checks := checksOf(Lineup(cfg, doc))
	if checks[CheckSequentialOrder] == 0 {
		t.Fatalf("expected sequential_order violation, got %v", checks)
	}
}

func TestLineup_SoloLongformExemptFromBounds(t *testing.T) {
	cfg := verifyTestConfig()
	cfg.Items = append(cfg.Items, config.Item{
		Path: "/m/movie.mkv", DurationSec: 5400, Pool: "misc", MediaType: config.TypeMovie,
	})
	doc := cleanDocument()
	doc.Rows = append(doc.Rows,
		row("/b/id2.mkv", config.TypeOtherVideo),
		row("/m/movie.mkv", config.TypeMovie),
	)
	got := Lineup(cfg, doc)
	if len(got) != 0 {
		t.Fatalf("expected no violations, got %v", got)
	}
}
