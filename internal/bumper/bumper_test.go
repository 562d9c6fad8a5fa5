/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package bumper

import (
	"testing"

	"github.com/channelforge/lineup/internal/config"
)

func twoItemPool() config.Bumpers {
	return config.Bumpers{
		SlotsPerBreak: 1,
		Strategy:      config.MixRoundRobin,
		Pools: map[string]config.BumperPool{
			"ids": {
				Name:   "ids",
				Weight: 1,
				Items: []config.BumperItem{
					{Path: "/b/id1.mkv", DurationSec: 10, MediaType: config.TypeOtherVideo},
					{Path: "/b/id2.mkv", DurationSec: 10, MediaType: config.TypeOtherVideo},
				},
			},
		},
	}
}

func TestSelector_TwoItemPoolAlternates(t *testing.T) {
	s := NewSelector(twoItemPool(), 1234)
	var seq []string
	for i := 0; i < 10; i++ {
		for _, b := range s.Break() {
			seq = append(seq, b.Path)
		}
	}
	for i := 1; i < len(seq); i++ {
		if seq[i] == seq[i-1] {
			t.Fatalf("bumper repeated back to back at %d: %v", i, seq)
		}
	}
}

func TestSelector_ExhaustsBeforeRepeating(t *testing.T) {
	cfg := config.Bumpers{
		SlotsPerBreak: 1,
		Strategy:      config.MixRoundRobin,
		Pools: map[string]config.BumperPool{
			"ads": {
				Name:   "ads",
				Weight: 1,
				Items: []config.BumperItem{
					{Path: "/b/a.mkv", DurationSec: 15},
					{Path: "/b/b.mkv", DurationSec: 15},
					{Path: "/b/c.mkv", DurationSec: 15},
					{Path: "/b/d.mkv", DurationSec: 15},
				},
			},
		},
	}
	s := NewSelector(cfg, 77)
	var seq []string
	for i := 0; i < 12; i++ {
		seq = append(seq, s.Break()[0].Path)
	}
	for start := 0; start+4 <= len(seq); start += 4 {
		seen := map[string]bool{}
		for _, p := range seq[start : start+4] {
			if seen[p] {
				t.Fatalf("item %q repeated inside one pass: %v", p, seq[start:start+4])
			}
			seen[p] = true
		}
	}
}

func TestSelector_RoundRobinVisitsPoolsInNameOrder(t *testing.T) {
	cfg := config.Bumpers{
		SlotsPerBreak: 2,
		Strategy:      config.MixRoundRobin,
		Pools: map[string]config.BumperPool{
			"zeta": {Name: "zeta", Weight: 1, Items: []config.BumperItem{{Path: "/b/z.mkv", DurationSec: 5}}},
			"alfa": {Name: "alfa", Weight: 1, Items: []config.BumperItem{{Path: "/b/a.mkv", DurationSec: 5}}},
		},
	}
	s := NewSelector(cfg, 9)
	run := s.Break()
	if run[0].Path != "/b/a.mkv" || run[1].Path != "/b/z.mkv" {
		t.Fatalf("round robin order: got %v want alfa then zeta", run)
	}
	// The cursor carries across breaks.
	run = s.Break()
	if run[0].Path != "/b/a.mkv" {
		t.Fatalf("second break should resume at alfa, got %v", run)
	}
}

func TestSelector_SameSeedSameSequence(t *testing.T) {
	cfg := config.Bumpers{
		SlotsPerBreak: 2,
		Strategy:      config.MixWeighted,
		Pools: map[string]config.BumperPool{
			"ads": {Name: "ads", Weight: 3, Items: []config.BumperItem{
				{Path: "/b/a1.mkv", DurationSec: 15}, {Path: "/b/a2.mkv", DurationSec: 15},
			}},
			"ids": {Name: "ids", Weight: 1, Items: []config.BumperItem{
				{Path: "/b/i1.mkv", DurationSec: 5}, {Path: "/b/i2.mkv", DurationSec: 5},
			}},
		},
	}
	a := NewSelector(cfg, 555)
	b := NewSelector(cfg, 555)
	for i := 0; i < 8; i++ {
		ra, rb := a.Break(), b.Break()
		for j := range ra {
			if ra[j].Path != rb[j].Path {
				t.Fatalf("break %d slot %d diverged: %s vs %s", i, j, ra[j].Path, rb[j].Path)
			}
		}
	}
}
