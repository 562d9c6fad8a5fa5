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

// packBase is Phase 1: every base item is assigned to exactly one block,
// non-solo block durations land in [block, block+overflow], and every
// sequential pool's keys are non-decreasing across the final block
// ordering. The search minimizes total wasted capacity and fails hard
// when no complete assignment is found within the deadline.
func packBase(cfg *config.Config, seed int64, deadline time.Time) ([]Block, error) {
	if len(cfg.Items) == 0 {
		return nil, infeasible(cfg, "no content items in config")
	}

	floor := cfg.Solver.BlockSec
	ceiling := cfg.Solver.CeilingSec()

	isLong := func(it config.Item) bool {
		return cfg.Solver.LongformConsumesBlock && it.DurationSec >= cfg.Solver.BlockSec
	}

	// Sequential pools become queues; the packer may only consume a
	// prefix of each queue, which makes the global ordering invariant
	// hold by construction.
	seqNames := make([]string, 0)
	seqQueues := make(map[string][]config.Item)
	var freeShort, freeLong []config.Item
	for _, it := range cfg.Items {
		if cfg.Pools[it.Pool].Sequential {
			seqQueues[it.Pool] = append(seqQueues[it.Pool], it)
			continue
		}
		if isLong(it) {
			freeLong = append(freeLong, it)
		} else {
			freeShort = append(freeShort, it)
		}
	}
	for name, queue := range seqQueues {
		seqNames = append(seqNames, name)
		sort.Slice(queue, func(i, j int) bool {
			if queue[i].Key.Less(*queue[j].Key) {
				return true
			}
			if queue[j].Key.Less(*queue[i].Key) {
				return false
			}
			return queue[i].Path < queue[j].Path
		})
		seqQueues[name] = queue
	}
	sort.Strings(seqNames)

	// Items too long for any block and ineligible for solo blocks can
	// never be placed.
	for _, it := range cfg.Items {
		if !isLong(it) && it.DurationSec > ceiling {
			return nil, infeasible(cfg, "item longer than block ceiling: "+it.Path)
		}
	}

	// Candidate order drives the DFS toward first-fit-decreasing; the
	// seed perturbs ties reproducibly.
	rng := rand.New(rand.NewSource(seed))
	jitter := make(map[string]int64, len(freeShort))
	for _, it := range freeShort {
		jitter[it.Path] = rng.Int63()
	}
	sort.Slice(freeShort, func(i, j int) bool {
		a, b := freeShort[i], freeShort[j]
		if a.DurationSec != b.DurationSec {
			return a.DurationSec > b.DurationSec
		}
		if jitter[a.Path] != jitter[b.Path] {
			return jitter[a.Path] < jitter[b.Path]
		}
		return a.Path < b.Path
	})
	sort.Slice(freeLong, func(i, j int) bool { return freeLong[i].Path < freeLong[j].Path })

	st := &packSearch{
		floor:     floor,
		ceiling:   ceiling,
		isLong:    isLong,
		deadline:  deadline,
		seqNames:  seqNames,
		seqQueues: seqQueues,
		seqPos:    make(map[string]int, len(seqNames)),
		freeShort: freeShort,
		usedShort: make([]bool, len(freeShort)),
		freeLong:  freeLong,
		bestWaste: -1,
	}
	for _, it := range freeShort {
		st.remainingShortSec += it.DurationSec
		st.remainingShort++
	}
	for _, queue := range seqQueues {
		for _, it := range queue {
			if isLong(it) {
				continue
			}
			st.remainingShortSec += it.DurationSec
			st.remainingShort++
		}
	}

	st.nextBlock()

	if st.best == nil {
		reason := "duration and ordering constraints admit no complete assignment"
		if st.timedOut {
			reason = "no feasible base packing found within time budget"
		}
		return nil, infeasible(cfg, reason)
	}
	return st.best, nil
}

func infeasible(cfg *config.Config, reason string) error {
	total := 0
	for _, it := range cfg.Items {
		total += it.DurationSec
	}
	return &InfeasibleError{
		Items:            len(cfg.Items),
		Pools:            len(cfg.Pools),
		TotalDurationSec: total,
		BlockSec:         cfg.Solver.BlockSec,
		CeilingSec:       cfg.Solver.CeilingSec(),
		Reason:           reason,
	}
}

type packSearch struct {
	floor, ceiling int
	isLong         func(config.Item) bool
	deadline       time.Time

	seqNames  []string
	seqQueues map[string][]config.Item
	seqPos    map[string]int

	freeShort []config.Item
	usedShort []bool
	freeLong  []config.Item

	remainingShort    int
	remainingShortSec int

	blocks     []Block
	wasteSoFar int

	best      []Block
	bestWaste int // -1 until a solution is found
	nodes     int
	timedOut  bool
}

func (st *packSearch) expired() bool {
	st.nodes++
	if st.timedOut {
		return true
	}
	if st.nodes%1024 == 0 && time.Now().After(st.deadline) {
		st.timedOut = true
	}
	return st.timedOut
}

// nextBlock emits pending sequential solo blocks, then either finishes
// the assignment or builds one more short block.
func (st *packSearch) nextBlock() {
	if st.expired() || st.pruned() {
		return
	}

	// A sequential pool whose next item is longform blocks the rest of
	// its queue. Emitting the solo block immediately is never worse: it
	// consumes no shared capacity and only unlocks items.
	var emitted []string
	for _, name := range st.seqNames {
		for {
			pos := st.seqPos[name]
			queue := st.seqQueues[name]
			if pos >= len(queue) || !st.isLong(queue[pos]) {
				break
			}
			st.blocks = append(st.blocks, soloBlock(queue[pos]))
			st.seqPos[name] = pos + 1
			emitted = append(emitted, name)
		}
	}
	defer func() {
		for i := len(emitted) - 1; i >= 0; i-- {
			st.seqPos[emitted[i]]--
			st.blocks = st.blocks[:len(st.blocks)-1]
		}
	}()

	if st.remainingShort == 0 {
		st.finish()
		return
	}

	st.buildShortBlock(nil, 0, 0)
}

// finish closes the assignment: any unfreed non-sequential longform
// items have no ordering constraints, so they are appended as trailing
// solo blocks (Phase 2 may move them).
func (st *packSearch) finish() {
	// Sequential queues must be fully consumed; a remaining short next
	// item means a dead end was reached elsewhere.
	for _, name := range st.seqNames {
		if st.seqPos[name] != len(st.seqQueues[name]) {
			return
		}
	}

	solution := make([]Block, 0, len(st.blocks)+len(st.freeLong))
	solution = append(solution, st.blocks...)
	for _, it := range st.freeLong {
		solution = append(solution, soloBlock(it))
	}

	if st.bestWaste < 0 || st.wasteSoFar < st.bestWaste {
		st.best = solution
		st.bestWaste = st.wasteSoFar
	}
}

// pruned applies the waste lower bound against the best known solution.
func (st *packSearch) pruned() bool {
	if st.bestWaste < 0 {
		return false
	}
	return st.wasteSoFar+st.lowerBoundRemaining() >= st.bestWaste
}

// lowerBoundRemaining is the least waste the unplaced short items can
// incur: they need at least ceil(total/ceiling) more blocks.
func (st *packSearch) lowerBoundRemaining() int {
	if st.remainingShortSec == 0 {
		return 0
	}
	blocks := (st.remainingShortSec + st.ceiling - 1) / st.ceiling
	return blocks*st.ceiling - st.remainingShortSec
}

// buildShortBlock grows the current block by one candidate at a time.
// Candidates are the unused non-sequential short items plus, per
// sequential pool, the next short item of its queue. Enumeration is in
// non-decreasing candidate index so each item multiset is visited once.
func (st *packSearch) buildShortBlock(block []ItemUse, sumSec, minIdx int) {
	if st.expired() {
		return
	}

	if sumSec >= st.floor && sumSec <= st.ceiling {
		closed := Block{Items: append([]ItemUse(nil), block...), ContentSec: sumSec}
		st.blocks = append(st.blocks, closed)
		st.wasteSoFar += st.ceiling - sumSec
		if !st.pruned() {
			st.nextBlock()
		}
		st.wasteSoFar -= st.ceiling - sumSec
		st.blocks = st.blocks[:len(st.blocks)-1]
		if st.timedOut {
			return
		}
	}

	candidates := len(st.freeShort) + len(st.seqNames)
	for idx := minIdx; idx < candidates; idx++ {
		var it config.Item
		if idx < len(st.freeShort) {
			if st.usedShort[idx] {
				continue
			}
			it = st.freeShort[idx]
		} else {
			name := st.seqNames[idx-len(st.freeShort)]
			pos := st.seqPos[name]
			queue := st.seqQueues[name]
			if pos >= len(queue) || st.isLong(queue[pos]) {
				continue
			}
			it = queue[pos]
		}
		if sumSec+it.DurationSec > st.ceiling {
			continue
		}

		if idx < len(st.freeShort) {
			st.usedShort[idx] = true
		} else {
			st.seqPos[st.seqNames[idx-len(st.freeShort)]]++
		}
		st.remainingShort--
		st.remainingShortSec -= it.DurationSec

		st.buildShortBlock(append(block, ItemUse{Item: it, Kind: UseBase}), sumSec+it.DurationSec, idx)

		st.remainingShort++
		st.remainingShortSec += it.DurationSec
		if idx < len(st.freeShort) {
			st.usedShort[idx] = false
		} else {
			st.seqPos[st.seqNames[idx-len(st.freeShort)]]--
		}

		if st.timedOut {
			return
		}
	}
}

func soloBlock(it config.Item) Block {
	return Block{
		Items:      []ItemUse{{Item: it, Kind: UseBase}},
		ContentSec: it.DurationSec,
		Solo:       true,
	}
}
