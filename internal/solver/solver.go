/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package solver assigns content items into time-bounded blocks and
// inserts bounded filler repeats under a diversity objective. Phase 1 is
// a hard feasibility solve, Phase 2 a soft optimization that can always
// fall back to the Phase 1 result.
package solver

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/channelforge/lineup/internal/config"
)

// UseKind distinguishes an item's single base use from filler repeats.
type UseKind string

const (
	UseBase   UseKind = "base"
	UseRepeat UseKind = "repeat"
)

// ItemUse is one placement of an item inside a block.
type ItemUse struct {
	Item config.Item
	Kind UseKind
}

// Block is an ordered run of content item uses.
type Block struct {
	Index      int
	Items      []ItemUse
	ContentSec int
	Solo       bool // longform solo block, exempt from duration bounds
}

// WasteSec is the unused capacity of a non-solo block against the ceiling.
func (b Block) WasteSec(ceilingSec int) int {
	if b.Solo {
		return 0
	}
	return ceilingSec - b.ContentSec
}

// poolSeconds returns per-pool content time in the block, repeats included.
func (b Block) poolSeconds() map[string]int {
	out := make(map[string]int)
	for _, use := range b.Items {
		out[use.Item.Pool] += use.Item.DurationSec
	}
	return out
}

// Result is the completed two-phase solve.
type Result struct {
	TargetSec     int
	CeilingSec    int
	Blocks        []Block
	RepeatsUsed   int
	TotalWasteSec int
	Seed          int64
	FillerCostSec int

	// FillerFallback is set when Phase 2 degraded to the Phase 1
	// assignment with zero repeats.
	FillerFallback bool
	Warnings       []string
}

// InfeasibleError reports that no base packing exists within the
// configured constraints and time budget.
type InfeasibleError struct {
	Items            int
	Pools            int
	TotalDurationSec int
	BlockSec         int
	CeilingSec       int
	Reason           string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf(
		"no feasible base packing: %s (items=%d pools=%d total_min=%.1f block_min=%.1f ceiling_min=%.1f)",
		e.Reason, e.Items, e.Pools,
		float64(e.TotalDurationSec)/60, float64(e.BlockSec)/60, float64(e.CeilingSec)/60,
	)
}

// ErrFillerUnresolved indicates Phase 2 could not produce a filler
// arrangement; callers with a degrade policy fall back to Phase 1.
var ErrFillerUnresolved = errors.New("filler optimizer could not improve base packing")

// Solve runs both phases. The config seed must already be concrete
// (non-zero); auto-seed expansion is the caller's responsibility so the
// chosen seed can be reported.
func Solve(cfg *config.Config, logger zerolog.Logger) (*Result, error) {
	seed := cfg.Solver.Seed
	if seed == 0 {
		return nil, fmt.Errorf("solver seed is 0 (auto) but was not replaced with a concrete seed")
	}
	return solveSeeded(cfg, seed, logger)
}

// SolvePortfolio explores several derived seeds in parallel and keeps
// the best solution. Only used for auto-seed runs, where result identity
// is free to vary; fixed-seed runs stay single-threaded so the winning
// solution never depends on goroutine scheduling.
func SolvePortfolio(cfg *config.Config, baseSeed int64, logger zerolog.Logger) (*Result, error) {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*Result, workers)
	errs := make([]error, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			seed := baseSeed + int64(w)*0x9E3779B9
			if seed == 0 {
				seed = 1
			}
			res, err := solveSeeded(cfg, seed, logger)
			results[w] = res
			errs[w] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *Result
	var firstErr error
	for w := 0; w < workers; w++ {
		if errs[w] != nil {
			if firstErr == nil {
				firstErr = errs[w]
			}
			continue
		}
		if best == nil || betterResult(results[w], best) {
			best = results[w]
		}
	}
	if best == nil {
		return nil, firstErr
	}
	return best, nil
}

func betterResult(a, b *Result) bool {
	ac := a.TotalWasteSec + a.FillerCostSec
	bc := b.TotalWasteSec + b.FillerCostSec
	if ac != bc {
		return ac < bc
	}
	return signature(a.Blocks) < signature(b.Blocks)
}

func signature(blocks []Block) string {
	var sb []byte
	for _, b := range blocks {
		for _, use := range b.Items {
			sb = append(sb, use.Item.Path...)
			sb = append(sb, '|')
		}
		sb = append(sb, ';')
	}
	return string(sb)
}

func solveSeeded(cfg *config.Config, seed int64, logger zerolog.Logger) (*Result, error) {
	log := logger.With().Str("component", "solver").Int64("seed", seed).Logger()

	packed, err := packBase(cfg, seed, time.Now().Add(cfg.Solver.TimeLimit))
	if err != nil {
		return nil, err
	}
	log.Debug().Int("blocks", len(packed)).Msg("base packing complete")

	blocks, repeats, fillerCost, fellBack, err := optimizeFiller(cfg, packed, seed, time.Now().Add(cfg.Solver.TimeLimit))
	if err != nil {
		if cfg.Solver.FillerPolicy == config.FillerStrict {
			return nil, err
		}
		log.Warn().Err(err).Msg("filler optimization degraded to base packing")
		blocks, repeats, fillerCost, fellBack = packed, 0, 0, true
	}

	result := &Result{
		TargetSec:      cfg.Solver.BlockSec,
		CeilingSec:     cfg.Solver.CeilingSec(),
		Blocks:         renumber(blocks),
		RepeatsUsed:    repeats,
		Seed:           seed,
		FillerCostSec:  fillerCost,
		FillerFallback: fellBack,
	}
	for _, b := range result.Blocks {
		result.TotalWasteSec += b.WasteSec(result.CeilingSec)
	}
	if fellBack {
		result.Warnings = append(result.Warnings, "filler optimization fell back to base packing with zero repeats")
	}
	return result, nil
}

func renumber(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	for i := range out {
		out[i].Index = i
	}
	return out
}

// sequentialPoolsIn lists the sequential pools with items in the block.
func sequentialPoolsIn(b Block, pools map[string]config.Pool) []string {
	seen := map[string]bool{}
	var out []string
	for _, use := range b.Items {
		p := use.Item.Pool
		if pools[p].Sequential && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
