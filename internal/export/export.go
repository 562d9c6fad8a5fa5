/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package export builds a ready-to-solve channel config from a small
// path-first spec: the spec names pool path prefixes and filters, the
// ErsatzTV database supplies the exact paths, durations and types it
// already knows.
package export

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/channelforge/lineup/internal/config"
	"github.com/channelforge/lineup/internal/store"
	"github.com/channelforge/lineup/internal/tvid"
)

// PoolSpec selects media for one pool by path prefix and substring
// filters. Repeat, Diversity and Weight pass through to the emitted
// config untouched.
type PoolSpec struct {
	DefaultType string   `yaml:"default_type,omitempty"`
	Sequential  bool     `yaml:"sequential,omitempty"`
	Weight      *float64 `yaml:"weight,omitempty"`

	IncludePathPrefixes []string `yaml:"include_path_prefixes"`
	IncludeContains     []string `yaml:"include_contains,omitempty"`
	ExcludeContains     []string `yaml:"exclude_contains,omitempty"`
	OnlyTypes           []string `yaml:"only_types,omitempty"`

	Repeat    yaml.Node      `yaml:"repeat,omitempty"`
	Diversity yaml.Node      `yaml:"diversity,omitempty"`
	Overrides []ItemOverride `yaml:"overrides,omitempty"`
}

// ItemOverride adjusts one exported item by exact path.
type ItemOverride struct {
	Path          string   `yaml:"path"`
	Type          string   `yaml:"type,omitempty"`
	Repeatable    *bool    `yaml:"repeatable,omitempty"`
	RepeatCostMin *float64 `yaml:"repeat_cost_min,omitempty"`
	MaxExtraUses  *int     `yaml:"max_extra_uses,omitempty"`
}

// Spec is the export input document.
type Spec struct {
	Channel struct {
		Name   string `yaml:"name"`
		Number string `yaml:"number"`
		Group  string `yaml:"group,omitempty"`
	} `yaml:"channel"`
	Schedule yaml.Node `yaml:"schedule,omitempty"`
	Solver   yaml.Node `yaml:"solver,omitempty"`
	Bumpers  struct {
		SlotsPerBreak  int                 `yaml:"slots_per_break,omitempty"`
		MixingStrategy string              `yaml:"mixing_strategy,omitempty"`
		Pools          map[string]PoolSpec `yaml:"pools"`
	} `yaml:"bumpers"`
	Pools map[string]PoolSpec `yaml:"pools"`
}

// LoadSpec reads and validates an export spec.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export spec: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse export spec: %w", err)
	}
	if spec.Channel.Name == "" || spec.Channel.Number == "" {
		return nil, &config.Error{Field: "channel", Msg: "name and number are required"}
	}
	if len(spec.Pools) == 0 {
		return nil, &config.Error{Field: "pools", Msg: "at least one content pool required"}
	}
	if len(spec.Bumpers.Pools) == 0 {
		return nil, &config.Error{Field: "bumpers.pools", Msg: "at least one bumper pool required"}
	}
	for name, pool := range spec.Pools {
		if !config.ValidMediaType(config.MediaType(pool.DefaultType)) {
			return nil, &config.Error{Field: "pools." + name + ".default_type", Msg: "unknown media type"}
		}
		if err := validatePrefixes(name, pool); err != nil {
			return nil, err
		}
	}
	for name, pool := range spec.Bumpers.Pools {
		if err := validatePrefixes("bumpers.pools."+name, pool); err != nil {
			return nil, err
		}
	}
	return &spec, nil
}

func validatePrefixes(pool string, spec PoolSpec) error {
	if len(spec.IncludePathPrefixes) == 0 {
		return &config.Error{Field: pool + ".include_path_prefixes", Msg: "required"}
	}
	for _, p := range spec.IncludePathPrefixes {
		if !strings.HasPrefix(p, "/") {
			return &config.Error{Field: pool + ".include_path_prefixes", Msg: fmt.Sprintf("%q is not an absolute path", p)}
		}
	}
	return nil
}

// exported config shape, minutes at the surface.
type outItem struct {
	Path          string   `yaml:"path"`
	DurationMin   float64  `yaml:"duration_min"`
	Type          string   `yaml:"type"`
	Repeatable    *bool    `yaml:"repeatable,omitempty"`
	RepeatCostMin *float64 `yaml:"repeat_cost_min,omitempty"`
	MaxExtraUses  *int     `yaml:"max_extra_uses,omitempty"`
}

type outPool struct {
	DefaultType string     `yaml:"default_type"`
	Sequential  bool       `yaml:"sequential"`
	Repeat      *yaml.Node `yaml:"repeat,omitempty"`
	Diversity   *yaml.Node `yaml:"diversity,omitempty"`
	Items       []outItem  `yaml:"items"`
}

type outBumperPool struct {
	Weight float64   `yaml:"weight"`
	Items  []outItem `yaml:"items"`
}

type outConfig struct {
	Channel  any        `yaml:"channel"`
	Schedule *yaml.Node `yaml:"schedule,omitempty"`
	Solver   *yaml.Node `yaml:"solver,omitempty"`
	Bumpers  struct {
		SlotsPerBreak  int                      `yaml:"slots_per_break"`
		MixingStrategy string                   `yaml:"mixing_strategy"`
		Pools          map[string]outBumperPool `yaml:"pools"`
	} `yaml:"bumpers"`
	Pools map[string]outPool `yaml:"pools"`
}

// Build queries the store for every pool in the spec and renders the
// channel config.
func Build(s *store.Store, spec *Spec) ([]byte, error) {
	out := outConfig{
		Channel: spec.Channel,
		Pools:   make(map[string]outPool, len(spec.Pools)),
	}
	if !spec.Schedule.IsZero() {
		out.Schedule = &spec.Schedule
	}
	if !spec.Solver.IsZero() {
		out.Solver = &spec.Solver
	}

	out.Bumpers.SlotsPerBreak = spec.Bumpers.SlotsPerBreak
	if out.Bumpers.SlotsPerBreak == 0 {
		out.Bumpers.SlotsPerBreak = 1
	}
	out.Bumpers.MixingStrategy = spec.Bumpers.MixingStrategy
	if out.Bumpers.MixingStrategy == "" {
		out.Bumpers.MixingStrategy = string(config.MixRoundRobin)
	}
	out.Bumpers.Pools = make(map[string]outBumperPool, len(spec.Bumpers.Pools))

	for name, pool := range spec.Bumpers.Pools {
		items, err := poolItems(s, name, pool)
		if err != nil {
			return nil, err
		}
		weight := 1.0
		if pool.Weight != nil {
			weight = *pool.Weight
		}
		out.Bumpers.Pools[name] = outBumperPool{Weight: weight, Items: items}
	}

	for name, pool := range spec.Pools {
		items, err := poolItems(s, name, pool)
		if err != nil {
			return nil, err
		}
		applyOverrides(items, pool.Overrides)
		op := outPool{
			DefaultType: pool.DefaultType,
			Sequential:  pool.Sequential,
			Items:       items,
		}
		if !pool.Repeat.IsZero() {
			node := pool.Repeat
			op.Repeat = &node
		}
		if !pool.Diversity.IsZero() {
			node := pool.Diversity
			op.Diversity = &node
		}
		out.Pools[name] = op
	}

	return yaml.Marshal(out)
}

func poolItems(s *store.Store, pool string, spec PoolSpec) ([]outItem, error) {
	rows, err := s.PathsUnderPrefixes(spec.IncludePathPrefixes)
	if err != nil {
		return nil, err
	}

	var items []outItem
	for _, r := range rows {
		if !keepRow(r, spec) {
			continue
		}
		sec, err := tvid.ParseStoredDuration(r.Duration)
		if err != nil {
			return nil, fmt.Errorf("pool %s: invalid duration for %s: %w", pool, r.Path, err)
		}
		if sec <= 0 {
			return nil, fmt.Errorf("pool %s: duration is zero for %s, it may not have been probed yet", pool, r.Path)
		}
		items = append(items, outItem{
			Path:        r.Path,
			DurationMin: float64(sec) / 60,
			Type:        r.MediaType,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items, nil
}

func keepRow(r store.MediaRow, spec PoolSpec) bool {
	if !config.ValidMediaType(config.MediaType(r.MediaType)) {
		return false
	}
	if len(spec.OnlyTypes) > 0 {
		ok := false
		for _, t := range spec.OnlyTypes {
			if r.MediaType == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, s := range spec.ExcludeContains {
		if strings.Contains(r.Path, s) {
			return false
		}
	}
	if len(spec.IncludeContains) > 0 {
		for _, s := range spec.IncludeContains {
			if strings.Contains(r.Path, s) {
				return true
			}
		}
		return false
	}
	return true
}

func applyOverrides(items []outItem, overrides []ItemOverride) {
	if len(overrides) == 0 {
		return
	}
	byPath := make(map[string]ItemOverride, len(overrides))
	for _, o := range overrides {
		if o.Path != "" {
			byPath[o.Path] = o
		}
	}
	for i := range items {
		o, ok := byPath[items[i].Path]
		if !ok {
			continue
		}
		if o.Type != "" {
			items[i].Type = o.Type
		}
		items[i].Repeatable = o.Repeatable
		items[i].RepeatCostMin = o.RepeatCostMin
		items[i].MaxExtraUses = o.MaxExtraUses
	}
}
