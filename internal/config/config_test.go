/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"errors"
	"testing"
	"time"
)

const sampleConfig = `
channel:
  name: Retro TV
  number: 42
schedule:
  guide_mode: movies_and_episodes
  content_first: true
solver:
  block_minutes: 30
  allow_short_overflow_minutes: 2
  time_limit_sec: 15
  seed: 1234
bumpers:
  slots_per_break: 2
  mixing_strategy: weighted
  pools:
    idents:
      weight: 2.0
      items:
        - {path: /bumpers/ident1.mkv, duration_min: 0.25}
        - {path: /bumpers/ident2.mkv, duration_min: 0.25}
pools:
  cartoons:
    default_type: episode
    sequential: true
    repeat:
      default_repeatable: true
      default_repeat_cost_min: 10
      default_max_extra_uses: 2
    items:
      - {path: /tv/Show S01E01.mkv, duration_min: 22}
      - {path: /tv/Show S01E02.mkv, duration_min: 22, repeatable: false}
  movies:
    default_type: movie
    items:
      - {path: /movies/Heat.mkv, duration_min: 170}
`

func TestParse_NormalizesMinutesAndDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Channel.Number != "42" {
		t.Fatalf("channel number = %q want %q", cfg.Channel.Number, "42")
	}
	if cfg.Channel.Group != "Retro TV" {
		t.Fatalf("group should default to the channel name, got %q", cfg.Channel.Group)
	}
	if cfg.Schedule.Name != "Retro TV Schedule" {
		t.Fatalf("schedule name = %q", cfg.Schedule.Name)
	}
	if cfg.Solver.BlockSec != 1800 || cfg.Solver.AllowOverflowSec != 120 {
		t.Fatalf("block/overflow = %d/%d", cfg.Solver.BlockSec, cfg.Solver.AllowOverflowSec)
	}
	if cfg.Solver.CeilingSec() != 1920 {
		t.Fatalf("ceiling = %d want 1920", cfg.Solver.CeilingSec())
	}
	if cfg.Solver.TimeLimit != 15*time.Second {
		t.Fatalf("time limit = %v", cfg.Solver.TimeLimit)
	}
	if cfg.Solver.Seed != 1234 {
		t.Fatalf("seed = %d", cfg.Solver.Seed)
	}
	if !cfg.Solver.LongformConsumesBlock {
		t.Fatalf("longform_consumes_block should default to true")
	}
	if cfg.Solver.FillerPolicy != FillerDegrade {
		t.Fatalf("filler policy should default to degrade")
	}
	if cfg.Bumpers.SlotsPerBreak != 2 || cfg.Bumpers.Strategy != MixWeighted {
		t.Fatalf("bumpers = %+v", cfg.Bumpers)
	}
	if len(cfg.Items) != 3 {
		t.Fatalf("items = %d want 3", len(cfg.Items))
	}
}

func TestParse_ItemInheritsAndOverridesPoolDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e1, ok := cfg.ItemByPath("/tv/Show S01E01.mkv")
	if !ok {
		t.Fatalf("missing item")
	}
	if !e1.Repeatable || e1.RepeatCostSec != 600 || e1.MaxExtraUses != 2 {
		t.Fatalf("pool repeat defaults not applied: %+v", e1)
	}
	if e1.Key == nil || e1.Key.Season != 1 || e1.Key.Episode != 1 {
		t.Fatalf("sequential pool items need an episode key: %+v", e1.Key)
	}
	e2, _ := cfg.ItemByPath("/tv/Show S01E02.mkv")
	if e2.Repeatable {
		t.Fatalf("item-level repeatable override lost")
	}
	m, _ := cfg.ItemByPath("/movies/Heat.mkv")
	if m.MediaType != TypeMovie || m.Key != nil {
		t.Fatalf("movie item = %+v", m)
	}
}

func TestParse_SequentialPoolRequiresMarker(t *testing.T) {
	doc := `
channel: {name: C, number: 1}
bumpers:
  pools:
    b: {items: [{path: /b/x.mkv, duration_min: 0.5}]}
pools:
  shows:
    default_type: episode
    sequential: true
    items:
      - {path: /tv/NoMarker.mkv, duration_min: 22}
`
	_, err := Parse([]byte(doc))
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("want *config.Error, got %v", err)
	}
}

func TestParse_DuplicatePathAcrossPools(t *testing.T) {
	doc := `
channel: {name: C, number: 1}
bumpers:
  pools:
    b: {items: [{path: /b/x.mkv, duration_min: 0.5}]}
pools:
  a:
    default_type: movie
    items: [{path: /m/same.mkv, duration_min: 90}]
  z:
    default_type: movie
    items: [{path: /m/same.mkv, duration_min: 90}]
`
	if _, err := Parse([]byte(doc)); err == nil {
		t.Fatalf("duplicate base paths must be rejected")
	}
}

func TestParse_MissingRequiredSections(t *testing.T) {
	cases := map[string]string{
		"channel name":  `{pools: {a: {default_type: movie, items: [{path: /m.mkv, duration_min: 5}]}}, bumpers: {pools: {b: {items: [{path: /b.mkv, duration_min: 1}]}}}}`,
		"bumper pools":  `{channel: {name: C, number: 1}, pools: {a: {default_type: movie, items: [{path: /m.mkv, duration_min: 5}]}}}`,
		"content pools": `{channel: {name: C, number: 1}, bumpers: {pools: {b: {items: [{path: /b.mkv, duration_min: 1}]}}}}`,
	}
	for name, doc := range cases {
		var cerr *Error
		if _, err := Parse([]byte(doc)); !errors.As(err, &cerr) {
			t.Fatalf("%s: want *config.Error, got %v", name, err)
		}
	}
}

func TestParseSeed(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{nil, 0},
		{7, 7},
		{"", 0},
		{"99", 99},
		{"0x10", 16},
	}
	for _, tc := range cases {
		got, err := ParseSeed(tc.in, "solver.seed")
		if err != nil {
			t.Fatalf("ParseSeed(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSeed(%v) = %d want %d", tc.in, got, tc.want)
		}
	}

	a, err := ParseSeed("friday cartoons", "solver.seed")
	if err != nil {
		t.Fatalf("ParseSeed(string): %v", err)
	}
	b, _ := ParseSeed("friday cartoons", "solver.seed")
	if a != b || a <= 0 {
		t.Fatalf("string seeds must hash to a stable positive value, got %d and %d", a, b)
	}

	if _, err := ParseSeed(1.5, "solver.seed"); err == nil {
		t.Fatalf("fractional seeds must be rejected")
	}
}

func TestReadEnv_Defaults(t *testing.T) {
	t.Setenv("LINEUP_DB_PATH", "/tmp/ersatztv.sqlite3")
	t.Setenv("LINEUP_RESET_AFTER_APPLY", "no")
	env := ReadEnv()
	if env.DBPath != "/tmp/ersatztv.sqlite3" {
		t.Fatalf("db path = %q", env.DBPath)
	}
	if env.ResetAfterApply {
		t.Fatalf("reset_after_apply should honor a no value")
	}
	if env.BaseURL != "" {
		t.Fatalf("base url should default empty, got %q", env.BaseURL)
	}
}
