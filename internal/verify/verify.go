/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package verify re-checks a lineup document against its config. It is
// a pure function over the two inputs so a document can be verified
// long after the solve that produced it, or after hand edits.
package verify

import (
	"fmt"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/lineup"
)

// Check discriminates violation kinds.
type Check string

const (
	CheckAlternation      Check = "alternation"
	CheckCoverage         Check = "coverage"
	CheckRepeatPolicy     Check = "repeat_policy"
	CheckBumperExhaustion Check = "bumper_exhaustion"
	CheckBlockBounds      Check = "block_bounds"
	CheckSequentialOrder  Check = "sequential_order"
	CheckUnknownPath      Check = "unknown_path"
	CheckLoopSeam         Check = "loop_seam"
)

// Violation is one independently reportable defect. Row is the first
// offending row index, or -1 for whole-document checks.
type Violation struct {
	Check Check
	Row   int
	Msg   string
}

func (v Violation) String() string {
	if v.Row < 0 {
		return fmt.Sprintf("%s: %s", v.Check, v.Msg)
	}
	return fmt.Sprintf("%s: row %d: %s", v.Check, v.Row, v.Msg)
}

func violationf(check Check, row int, format string, args ...any) Violation {
	return Violation{Check: check, Row: row, Msg: fmt.Sprintf(format, args...)}
}

// segment is a maximal run of same-kind rows.
type segment struct {
	bumper   bool
	startRow int
	rows     []lineup.Row
}

// Lineup checks the document against the config and returns every
// violation found. An empty result means the document is safe to apply.
func Lineup(cfg *config.Config, doc *lineup.Document) []Violation {
	var out []Violation

	contentByPath := make(map[string]config.Item, len(cfg.Items))
	for _, it := range cfg.Items {
		contentByPath[it.Path] = it
	}
	bumperPoolByPath := map[string]string{}
	for name, pool := range cfg.Bumpers.Pools {
		for _, it := range pool.Items {
			bumperPoolByPath[it.Path] = name
		}
	}

	// Classify rows and report strays.
	var segments []segment
	for i, row := range doc.Rows {
		_, isBumper := bumperPoolByPath[row.Path]
		if !isBumper {
			if _, known := contentByPath[row.Path]; !known {
				out = append(out, violationf(CheckUnknownPath, i, "path %s is not in any configured pool", row.Path))
				continue
			}
		}
		if len(segments) == 0 || segments[len(segments)-1].bumper != isBumper {
			segments = append(segments, segment{bumper: isBumper, startRow: i})
		}
		seg := &segments[len(segments)-1]
		seg.rows = append(seg.rows, row)
	}
	if len(segments) == 0 {
		return append(out, violationf(CheckAlternation, -1, "document contains no recognizable rows"))
	}

	out = append(out, checkAlternation(cfg, segments)...)
	out = append(out, checkCoverageAndRepeats(cfg, doc)...)
	out = append(out, checkBumperExhaustion(cfg, doc, bumperPoolByPath)...)
	out = append(out, checkBlockBounds(cfg, segments, contentByPath)...)
	out = append(out, checkSequentialOrder(cfg, doc, contentByPath)...)
	return out
}

func checkAlternation(cfg *config.Config, segments []segment) []Violation {
	var out []Violation
	last := segments[len(segments)-1]
	if last.bumper {
		out = append(out, violationf(CheckLoopSeam, last.startRow,
			"lineup ends with a bumper run, which doubles up at the loop seam"))
	}
	if len(cfg.Bumpers.Pools) > 0 {
		if first := segments[0]; first.bumper == cfg.Schedule.ContentFirst {
			want := "a bumper run"
			if cfg.Schedule.ContentFirst {
				want = "content"
			}
			out = append(out, violationf(CheckAlternation, 0, "lineup must open with %s", want))
		}
	}
	for _, seg := range segments {
		if !seg.bumper {
			continue
		}
		if got, want := len(seg.rows), cfg.Bumpers.SlotsPerBreak; got != want {
			out = append(out, violationf(CheckAlternation, seg.startRow,
				"bumper run has %d slots, want %d", got, want))
		}
	}
	return out
}

func checkCoverageAndRepeats(cfg *config.Config, doc *lineup.Document) []Violation {
	var out []Violation
	uses := map[string]int{}
	firstRow := map[string]int{}
	for i, row := range doc.Rows {
		if uses[row.Path] == 0 {
			firstRow[row.Path] = i
		}
		uses[row.Path]++
	}
	for _, it := range cfg.Items {
		n := uses[it.Path]
		if n == 0 {
			out = append(out, violationf(CheckCoverage, -1, "item %s never appears", it.Path))
			continue
		}
		maxUses := 1
		if it.Repeatable {
			maxUses = 1 + it.MaxExtraUses
		}
		if n > maxUses {
			out = append(out, violationf(CheckRepeatPolicy, firstRow[it.Path],
				"item %s appears %d times, limit %d", it.Path, n, maxUses))
		}
	}
	return out
}

// checkBumperExhaustion verifies each pool's emitted order against an
// exhaust-before-repeat discipline: within one cycle, no item may
// reappear until the whole pool has played.
func checkBumperExhaustion(cfg *config.Config, doc *lineup.Document, poolByPath map[string]string) []Violation {
	var out []Violation
	cycle := map[string]map[string]bool{}
	for i, row := range doc.Rows {
		poolName, ok := poolByPath[row.Path]
		if !ok {
			continue
		}
		seen := cycle[poolName]
		if seen == nil {
			seen = map[string]bool{}
			cycle[poolName] = seen
		}
		if seen[row.Path] {
			out = append(out, violationf(CheckBumperExhaustion, i,
				"bumper %s repeats before pool %s is exhausted", row.Path, poolName))
			continue
		}
		seen[row.Path] = true
		if len(seen) == len(cfg.Bumpers.Pools[poolName].Items) {
			cycle[poolName] = nil
		}
	}
	return out
}

func checkBlockBounds(cfg *config.Config, segments []segment, items map[string]config.Item) []Violation {
	var out []Violation
	floor := cfg.Solver.BlockSec
	ceiling := cfg.Solver.CeilingSec()
	for _, seg := range segments {
		if seg.bumper {
			continue
		}
		total := 0
		for _, row := range seg.rows {
			total += items[row.Path].DurationSec
		}
		solo := len(seg.rows) == 1 &&
			cfg.Solver.LongformConsumesBlock &&
			items[seg.rows[0].Path].DurationSec >= cfg.Solver.BlockSec
		if solo {
			continue
		}
		if total < floor || total > ceiling {
			out = append(out, violationf(CheckBlockBounds, seg.startRow,
				"block runs %ds, outside [%d, %d]", total, floor, ceiling))
		}
	}
	return out
}

func checkSequentialOrder(cfg *config.Config, doc *lineup.Document, items map[string]config.Item) []Violation {
	var out []Violation
	lastKey := map[string]*config.Item{}
	for i, row := range doc.Rows {
		it, ok := items[row.Path]
		if !ok || !cfg.Pools[it.Pool].Sequential || it.Key == nil {
			continue
		}
		if prev := lastKey[it.Pool]; prev != nil && it.Key.Less(*prev.Key) {
			out = append(out, violationf(CheckSequentialOrder, i,
				"pool %s: %s (%s) airs after %s (%s)", it.Pool, row.Path, it.Key, prev.Path, prev.Key))
		}
		itCopy := it
		lastKey[it.Pool] = &itCopy
	}
	return out
}
