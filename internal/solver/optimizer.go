/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"math/rand"
	"sort"
	"time"

	"github.com/channelforge/lineup/internal/config"
)

// optimizeFiller is Phase 2: starting from a feasible base packing it
// greedily applies cost-reducing moves until a local minimum or the
// deadline. Moves are bounded repeat insertions, repeat removals and
// adjacent block swaps. The base assignment with zero repeats is always
// a valid outcome, so this phase can only fail by running out of time
// before evaluating a single move.
//
// Cost is block waste plus the repeat cost of every extra use plus a
// penalty for adjacent blocks dominated by the same pool.
func optimizeFiller(cfg *config.Config, base []Block, seed int64, deadline time.Time) ([]Block, int, int, bool, error) {
	if time.Now().After(deadline) {
		return nil, 0, 0, false, ErrFillerUnresolved
	}

	blocks := cloneBlocks(base)
	ceiling := cfg.Solver.CeilingSec()

	// Repeats only draw from non-sequential pools; an extra use of a
	// sequential item would break its pool's ordering.
	var candidates []config.Item
	for _, it := range cfg.Items {
		if it.Repeatable && !cfg.Pools[it.Pool].Sequential {
			candidates = append(candidates, it)
		}
	}
	rng := rand.New(rand.NewSource(seed ^ 0x5DEECE66D))
	jitter := make(map[string]int64, len(candidates))
	for _, it := range candidates {
		jitter[it.Path] = rng.Int63()
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DurationSec != b.DurationSec {
			return a.DurationSec > b.DurationSec
		}
		if jitter[a.Path] != jitter[b.Path] {
			return jitter[a.Path] < jitter[b.Path]
		}
		return a.Path < b.Path
	})

	extraUses := make(map[string]int)

	const maxRounds = 10000
	for round := 0; round < maxRounds; round++ {
		if time.Now().After(deadline) {
			break
		}
		move := bestMove(cfg, blocks, candidates, extraUses, ceiling)
		if move == nil {
			break
		}
		move.apply(blocks, extraUses)
	}

	repeats := 0
	for _, b := range blocks {
		for _, use := range b.Items {
			if use.Kind == UseRepeat {
				repeats++
			}
		}
	}
	return blocks, repeats, fillerCost(cfg, blocks), false, nil
}

func cloneBlocks(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		out[i].Items = append([]ItemUse(nil), b.Items...)
	}
	return out
}

// fillerCost is the Phase 2 cost component excluding waste: repeat
// costs plus same-pool adjacency penalties.
func fillerCost(cfg *config.Config, blocks []Block) int {
	cost := 0
	for _, b := range blocks {
		for _, use := range b.Items {
			if use.Kind == UseRepeat {
				cost += use.Item.RepeatCostSec
			}
		}
	}
	cost += adjacencyPenalty(cfg, blocks)
	return cost
}

// adjacencyPenalty charges every consecutive block pair dominated by
// the same pool on both sides.
func adjacencyPenalty(cfg *config.Config, blocks []Block) int {
	penalty := 0
	for i := 0; i+1 < len(blocks); i++ {
		a := blocks[i].poolSeconds()
		b := blocks[i+1].poolSeconds()
		for name, sec := range a {
			pool := cfg.Pools[name]
			if pool.DominantThresholdSec <= 0 {
				continue
			}
			if sec >= pool.DominantThresholdSec && b[name] >= pool.DominantThresholdSec {
				penalty += pool.DominantPenaltySec
			}
		}
	}
	return penalty
}

func totalCost(cfg *config.Config, blocks []Block) int {
	ceiling := cfg.Solver.CeilingSec()
	cost := fillerCost(cfg, blocks)
	for _, b := range blocks {
		cost += b.WasteSec(ceiling)
	}
	return cost
}

// fillerMove is one applied change to the working arrangement.
type fillerMove struct {
	kind    string // "insert", "remove", "swap"
	block   int
	itemIdx int // remove: index of the repeat use within the block
	item    config.Item
}

func (m *fillerMove) apply(blocks []Block, extraUses map[string]int) {
	switch m.kind {
	case "insert":
		b := &blocks[m.block]
		b.Items = append(b.Items, ItemUse{Item: m.item, Kind: UseRepeat})
		b.ContentSec += m.item.DurationSec
		extraUses[m.item.Path]++
	case "remove":
		b := &blocks[m.block]
		it := b.Items[m.itemIdx].Item
		b.Items = append(b.Items[:m.itemIdx], b.Items[m.itemIdx+1:]...)
		b.ContentSec -= it.DurationSec
		extraUses[it.Path]--
	case "swap":
		blocks[m.block], blocks[m.block+1] = blocks[m.block+1], blocks[m.block]
	}
}

// bestMove scans all legal moves and returns the one with the largest
// cost reduction, or nil at a local minimum. Scan order is fixed, so
// ties resolve deterministically.
func bestMove(cfg *config.Config, blocks []Block, candidates []config.Item, extraUses map[string]int, ceiling int) *fillerMove {
	baseCost := totalCost(cfg, blocks)
	var best *fillerMove
	bestCost := baseCost

	tryMove := func(m fillerMove) {
		m.apply(blocks, extraUses)
		cost := totalCost(cfg, blocks)
		undo(m, blocks, extraUses)
		if cost < bestCost {
			bestCost = cost
			mv := m
			best = &mv
		}
	}

	for bi := range blocks {
		if blocks[bi].Solo {
			continue
		}
		for _, it := range candidates {
			if extraUses[it.Path] >= it.MaxExtraUses {
				continue
			}
			if blocks[bi].ContentSec+it.DurationSec > ceiling {
				continue
			}
			tryMove(fillerMove{kind: "insert", block: bi, item: it})
		}
		for ui, use := range blocks[bi].Items {
			if use.Kind != UseRepeat {
				continue
			}
			tryMove(fillerMove{kind: "remove", block: bi, itemIdx: ui, item: use.Item})
		}
	}

	for bi := 0; bi+1 < len(blocks); bi++ {
		if !swapAllowed(cfg, blocks[bi], blocks[bi+1]) {
			continue
		}
		tryMove(fillerMove{kind: "swap", block: bi})
	}

	return best
}

func undo(m fillerMove, blocks []Block, extraUses map[string]int) {
	switch m.kind {
	case "insert":
		b := &blocks[m.block]
		b.Items = b.Items[:len(b.Items)-1]
		b.ContentSec -= m.item.DurationSec
		extraUses[m.item.Path]--
	case "remove":
		// Re-insert the removed use at its original index.
		b := &blocks[m.block]
		it := m.item
		b.Items = append(b.Items, ItemUse{})
		copy(b.Items[m.itemIdx+1:], b.Items[m.itemIdx:])
		b.Items[m.itemIdx] = ItemUse{Item: it, Kind: UseRepeat}
		b.ContentSec += it.DurationSec
		extraUses[it.Path]++
	case "swap":
		blocks[m.block], blocks[m.block+1] = blocks[m.block+1], blocks[m.block]
	}
}

// swapAllowed rejects swaps that would reverse a sequential pool's
// order. Any sequential pool with items in both blocks pins them.
func swapAllowed(cfg *config.Config, a, b Block) bool {
	inA := map[string]bool{}
	for _, name := range sequentialPoolsIn(a, cfg.Pools) {
		inA[name] = true
	}
	for _, name := range sequentialPoolsIn(b, cfg.Pools) {
		if inA[name] {
			return false
		}
	}
	return true
}
