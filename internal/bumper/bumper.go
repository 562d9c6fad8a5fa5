/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package bumper fills break slots between content blocks. Each pool
// hands out its items exhaust-before-repeat: every item plays once
// before any plays twice, and a reshuffle never puts the item that just
// played first, so no bumper airs back to back across the boundary.
package bumper

import (
	"hash/fnv"
	"math/rand"

	"github.com/channelforge/lineup/internal/config"
)

// Selector produces the bumper run for each break. All randomness is
// derived from the run seed, so a fixed seed yields a fixed sequence.
type Selector struct {
	cfg     config.Bumpers
	names   []string
	cyclers map[string]*cycler
	mixRng  *rand.Rand
	cursor  int // round-robin position
}

func NewSelector(cfg config.Bumpers, seed int64) *Selector {
	names := cfg.PoolNames()
	cyclers := make(map[string]*cycler, len(names))
	for _, name := range names {
		cyclers[name] = newCycler(cfg.Pools[name].Items, poolSeed(seed, name))
	}
	return &Selector{
		cfg:     cfg,
		names:   names,
		cyclers: cyclers,
		mixRng:  rand.New(rand.NewSource(seed ^ 0x6D69786572)),
	}
}

// poolSeed derives a stable per-pool seed from the run seed and the
// pool name, so adding a pool does not reshuffle its siblings.
func poolSeed(seed int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}

// Break returns the next break's bumpers, one per slot.
func (s *Selector) Break() []config.BumperItem {
	out := make([]config.BumperItem, 0, s.cfg.SlotsPerBreak)
	for slot := 0; slot < s.cfg.SlotsPerBreak; slot++ {
		out = append(out, s.cyclers[s.pickPool()].next())
	}
	return out
}

func (s *Selector) pickPool() string {
	if len(s.names) == 1 {
		return s.names[0]
	}
	if s.cfg.Strategy == config.MixWeighted {
		total := 0.0
		for _, name := range s.names {
			total += s.cfg.Pools[name].Weight
		}
		// All-zero weights degenerate to round robin.
		if total > 0 {
			r := s.mixRng.Float64() * total
			for _, name := range s.names {
				r -= s.cfg.Pools[name].Weight
				if r < 0 {
					return name
				}
			}
			return s.names[len(s.names)-1]
		}
	}
	name := s.names[s.cursor%len(s.names)]
	s.cursor++
	return name
}

// cycler deals one pool's items as repeated shuffled permutations.
type cycler struct {
	items []config.BumperItem
	order []int
	pos   int
	rng   *rand.Rand
	last  int // index of the most recently dealt item, -1 initially
}

func newCycler(items []config.BumperItem, seed int64) *cycler {
	c := &cycler{
		items: items,
		order: make([]int, len(items)),
		rng:   rand.New(rand.NewSource(seed)),
		last:  -1,
	}
	for i := range c.order {
		c.order[i] = i
	}
	c.reshuffle()
	return c
}

func (c *cycler) reshuffle() {
	c.rng.Shuffle(len(c.order), func(i, j int) {
		c.order[i], c.order[j] = c.order[j], c.order[i]
	})
	// A pool with more than one item never repeats across the
	// permutation boundary.
	if len(c.order) > 1 && c.order[0] == c.last {
		swap := 1 + c.rng.Intn(len(c.order)-1)
		c.order[0], c.order[swap] = c.order[swap], c.order[0]
	}
	c.pos = 0
}

func (c *cycler) next() config.BumperItem {
	if c.pos == len(c.order) {
		c.reshuffle()
	}
	idx := c.order[c.pos]
	c.pos++
	c.last = idx
	return c.items[idx]
}
