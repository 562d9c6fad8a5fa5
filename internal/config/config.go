/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/channelforge/lineup/internal/tvid"
)

// MediaType mirrors the datastore's collection taxonomy.
type MediaType string

const (
	TypeEpisode    MediaType = "episode"
	TypeMovie      MediaType = "movie"
	TypeMusicVideo MediaType = "music_video"
	TypeOtherVideo MediaType = "other_video"
)

// ValidMediaType reports whether t is one of the supported media types.
func ValidMediaType(t MediaType) bool {
	switch t {
	case TypeEpisode, TypeMovie, TypeMusicVideo, TypeOtherVideo:
		return true
	}
	return false
}

// MixingStrategy selects which bumper pool supplies each break slot.
type MixingStrategy string

const (
	MixRoundRobin MixingStrategy = "round_robin"
	MixWeighted   MixingStrategy = "weighted"
)

// FillerPolicy controls how a filler/diversity optimization failure is
// surfaced: degrade falls back to the base packing with a warning,
// strict treats it as a hard error.
type FillerPolicy string

const (
	FillerDegrade FillerPolicy = "degrade"
	FillerStrict  FillerPolicy = "strict"
)

// Error is a configuration error naming the offending field.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func errf(field, format string, args ...any) error {
	return &Error{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Item is one content item, fully resolved against its pool defaults.
// Identity is the exact datastore path; items are immutable once loaded.
type Item struct {
	Path        string
	DurationSec int
	Pool        string
	MediaType   MediaType

	Repeatable    bool
	RepeatCostSec int
	MaxExtraUses  int

	// Sequential ordering key, set only for items of sequential pools.
	Key *tvid.EpisodeKey
}

// Pool is a named content pool with repeat and diversity defaults.
type Pool struct {
	Name        string
	DefaultType MediaType
	Sequential  bool

	DefaultRepeatable    bool
	DefaultRepeatCostSec int
	DefaultMaxExtraUses  int

	DominantThresholdSec int
	DominantPenaltySec   int
}

// BumperItem is an interstitial item played between content blocks.
type BumperItem struct {
	Path        string
	DurationSec int
	MediaType   MediaType
}

// BumperPool is a weighted pool of bumpers consumed exhaust-before-repeat.
type BumperPool struct {
	Name   string
	Weight float64
	Items  []BumperItem
}

// Bumpers configures break structure and pool mixing.
type Bumpers struct {
	SlotsPerBreak int
	Strategy      MixingStrategy
	Pools         map[string]BumperPool
}

// PoolNames returns bumper pool names in sorted order, the canonical
// visiting order for round-robin mixing.
func (b Bumpers) PoolNames() []string {
	names := make([]string, 0, len(b.Pools))
	for name := range b.Pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Solver holds packing parameters. Durations are integer seconds.
type Solver struct {
	BlockSec              int
	LongformConsumesBlock bool
	AllowOverflowSec      int
	TimeLimit             time.Duration // per phase
	Seed                  int64         // 0 means auto
	FillerPolicy          FillerPolicy
}

// CeilingSec is the inclusive upper duration bound for non-solo blocks.
func (s Solver) CeilingSec() int { return s.BlockSec + s.AllowOverflowSec }

// Channel identifies the target channel.
type Channel struct {
	Name   string
	Number string
	Group  string
}

// Schedule carries schedule-level playlist defaults.
type Schedule struct {
	Name         string
	Shuffle      bool
	GuideMode    string // include_all | movies_and_episodes
	ContentFirst bool
}

// Config is the validated, normalized solver input. Constructed once per
// solve invocation and immutable thereafter.
type Config struct {
	Channel  Channel
	Schedule Schedule
	Solver   Solver
	Bumpers  Bumpers
	Pools    map[string]Pool
	Items    []Item
}

// PoolItems returns the items of one pool in config order.
func (c *Config) PoolItems(pool string) []Item {
	var out []Item
	for _, it := range c.Items {
		if it.Pool == pool {
			out = append(out, it)
		}
	}
	return out
}

// ItemByPath returns the content item with the given path.
func (c *Config) ItemByPath(path string) (Item, bool) {
	for _, it := range c.Items {
		if it.Path == path {
			return it, true
		}
	}
	return Item{}, false
}

// BumperByPath returns the bumper item and owning pool name for a path.
func (c *Config) BumperByPath(path string) (BumperItem, string, bool) {
	for name, pool := range c.Bumpers.Pools {
		for _, it := range pool.Items {
			if it.Path == path {
				return it, name, true
			}
		}
	}
	return BumperItem{}, "", false
}

// ParseSeed accepts an integer, an integer string (decimal or 0x hex), or
// an arbitrary string hashed to a stable 31-bit value. Zero means auto.
func ParseSeed(value any, field string) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, errf(field, "seed must be an integer or string, got %v", v)
		}
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			if n, err := strconv.ParseInt(s[2:], 16, 64); err == nil {
				return n, nil
			}
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		return int64(crc32.ChecksumIEEE([]byte(s)) & 0x7FFFFFFF), nil
	default:
		return 0, errf(field, "seed must be an integer or string, got %T", value)
	}
}

// raw document shapes; minutes at the surface, seconds internally.

type rawConfig struct {
	Channel  *rawChannel        `yaml:"channel"`
	Schedule *rawSchedule       `yaml:"schedule"`
	Solver   *rawSolver         `yaml:"solver"`
	Bumpers  *rawBumpers        `yaml:"bumpers"`
	Pools    map[string]rawPool `yaml:"pools"`
}

type rawChannel struct {
	Name   string `yaml:"name"`
	Number any    `yaml:"number"` // number or string
	Group  string `yaml:"group"`
}

func channelNumberString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(n)
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

type rawSchedule struct {
	Name         string `yaml:"name"`
	Shuffle      bool   `yaml:"shuffle"`
	GuideMode    string `yaml:"guide_mode"`
	ContentFirst bool   `yaml:"content_first"`
}

type rawSolver struct {
	BlockMinutes         *float64 `yaml:"block_minutes"`
	LongformConsumes     *bool    `yaml:"longform_consumes_block"`
	AllowOverflowMinutes *float64 `yaml:"allow_short_overflow_minutes"`
	TimeLimitSec         *int     `yaml:"time_limit_sec"`
	Seed                 any      `yaml:"seed"`
	RandomSeed           any      `yaml:"random_seed"`
	FillerPolicy         string   `yaml:"filler_policy"`
}

type rawBumpers struct {
	SlotsPerBreak  *int                     `yaml:"slots_per_break"`
	MixingStrategy string                   `yaml:"mixing_strategy"`
	Pools          map[string]rawBumperPool `yaml:"pools"`
}

type rawBumperPool struct {
	Weight *float64  `yaml:"weight"`
	Items  []rawItem `yaml:"items"`
}

type rawPool struct {
	DefaultType string        `yaml:"default_type"`
	Sequential  bool          `yaml:"sequential"`
	Repeat      *rawRepeat    `yaml:"repeat"`
	Diversity   *rawDiversity `yaml:"diversity"`
	Items       []rawItem     `yaml:"items"`
}

type rawRepeat struct {
	DefaultRepeatable    *bool    `yaml:"default_repeatable"`
	DefaultRepeatCostMin *float64 `yaml:"default_repeat_cost_min"`
	DefaultMaxExtraUses  *int     `yaml:"default_max_extra_uses"`
}

type rawDiversity struct {
	DominantThresholdMin *float64 `yaml:"dominant_block_threshold_min"`
	DominantPenaltyMin   *float64 `yaml:"dominant_block_penalty_min"`
}

type rawItem struct {
	Path          string   `yaml:"path"`
	DurationMin   *float64 `yaml:"duration_min"`
	Type          string   `yaml:"type"`
	Repeatable    *bool    `yaml:"repeatable"`
	RepeatCostMin *float64 `yaml:"repeat_cost_min"`
	MaxExtraUses  *int     `yaml:"max_extra_uses"`
}

func minutesToSeconds(minutes float64, field string) (int, error) {
	if minutes < 0 {
		return 0, errf(field, "duration must be non-negative")
	}
	return int(math.Round(minutes * 60.0)), nil
}

// Load reads and validates a channel config document. YAML and JSON are
// both accepted (JSON parses as YAML).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse validates and normalizes a channel config document.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{}

	if raw.Channel == nil || raw.Channel.Name == "" {
		return nil, errf("channel.name", "missing required field")
	}
	number := channelNumberString(raw.Channel.Number)
	if number == "" {
		return nil, errf("channel.number", "missing required field")
	}
	cfg.Channel = Channel{
		Name:   raw.Channel.Name,
		Number: number,
		Group:  raw.Channel.Group,
	}
	if cfg.Channel.Group == "" {
		cfg.Channel.Group = cfg.Channel.Name
	}

	cfg.Schedule = Schedule{
		Name:      cfg.Channel.Name + " Schedule",
		GuideMode: "include_all",
	}
	if raw.Schedule != nil {
		if raw.Schedule.Name != "" {
			cfg.Schedule.Name = raw.Schedule.Name
		}
		cfg.Schedule.Shuffle = raw.Schedule.Shuffle
		if raw.Schedule.GuideMode != "" {
			cfg.Schedule.GuideMode = raw.Schedule.GuideMode
		}
		cfg.Schedule.ContentFirst = raw.Schedule.ContentFirst
	}

	solver, err := parseSolver(raw.Solver)
	if err != nil {
		return nil, err
	}
	cfg.Solver = solver

	bumpers, err := parseBumpers(raw.Bumpers)
	if err != nil {
		return nil, err
	}
	cfg.Bumpers = bumpers

	if len(raw.Pools) == 0 {
		return nil, errf("pools", "must be a non-empty mapping of pool names to pool configs")
	}

	cfg.Pools = make(map[string]Pool, len(raw.Pools))
	poolNames := make([]string, 0, len(raw.Pools))
	for name := range raw.Pools {
		if name == "" {
			return nil, errf("pools", "pool names must be non-empty strings")
		}
		poolNames = append(poolNames, name)
	}
	sort.Strings(poolNames)

	for _, name := range poolNames {
		pool, items, err := parsePool(name, raw.Pools[name])
		if err != nil {
			return nil, err
		}
		cfg.Pools[name] = pool
		cfg.Items = append(cfg.Items, items...)
	}

	// Base items are identity: the same path in two pools is a config
	// error, repeats come from the solver instead.
	seen := make(map[string]string, len(cfg.Items))
	for _, it := range cfg.Items {
		if prev, ok := seen[it.Path]; ok {
			return nil, errf("pools", "duplicate item path %q in pools %q and %q (base items must be unique)", it.Path, prev, it.Pool)
		}
		seen[it.Path] = it.Pool
	}

	return cfg, nil
}

func parseSolver(raw *rawSolver) (Solver, error) {
	s := Solver{
		BlockSec:              30 * 60,
		LongformConsumesBlock: true,
		TimeLimit:             60 * time.Second,
		FillerPolicy:          FillerDegrade,
	}
	if raw == nil {
		return s, nil
	}
	var err error
	if raw.BlockMinutes != nil {
		if s.BlockSec, err = minutesToSeconds(*raw.BlockMinutes, "solver.block_minutes"); err != nil {
			return s, err
		}
	}
	if s.BlockSec <= 0 {
		return s, errf("solver.block_minutes", "must be positive")
	}
	if raw.LongformConsumes != nil {
		s.LongformConsumesBlock = *raw.LongformConsumes
	}
	if raw.AllowOverflowMinutes != nil {
		if s.AllowOverflowSec, err = minutesToSeconds(*raw.AllowOverflowMinutes, "solver.allow_short_overflow_minutes"); err != nil {
			return s, err
		}
	}
	if raw.TimeLimitSec != nil {
		if *raw.TimeLimitSec <= 0 {
			return s, errf("solver.time_limit_sec", "must be positive")
		}
		s.TimeLimit = time.Duration(*raw.TimeLimitSec) * time.Second
	}
	seedVal := raw.Seed
	if seedVal == nil {
		seedVal = raw.RandomSeed
	}
	if s.Seed, err = ParseSeed(seedVal, "solver.seed"); err != nil {
		return s, err
	}
	switch FillerPolicy(raw.FillerPolicy) {
	case "":
	case FillerDegrade, FillerStrict:
		s.FillerPolicy = FillerPolicy(raw.FillerPolicy)
	default:
		return s, errf("solver.filler_policy", "must be one of: degrade, strict")
	}
	return s, nil
}

func parseBumpers(raw *rawBumpers) (Bumpers, error) {
	if raw == nil {
		return Bumpers{}, errf("bumpers", "missing required section")
	}
	b := Bumpers{SlotsPerBreak: 1, Strategy: MixRoundRobin}
	if raw.SlotsPerBreak != nil {
		b.SlotsPerBreak = *raw.SlotsPerBreak
	}
	if b.SlotsPerBreak < 1 {
		return b, errf("bumpers.slots_per_break", "must be >= 1")
	}
	if raw.MixingStrategy != "" {
		b.Strategy = MixingStrategy(raw.MixingStrategy)
	}
	if b.Strategy != MixRoundRobin && b.Strategy != MixWeighted {
		return b, errf("bumpers.mixing_strategy", "must be one of: round_robin, weighted")
	}
	if len(raw.Pools) == 0 {
		return b, errf("bumpers.pools", "must be a non-empty mapping of pool names to pool configs")
	}
	b.Pools = make(map[string]BumperPool, len(raw.Pools))
	for name, rp := range raw.Pools {
		if name == "" {
			return b, errf("bumpers.pools", "pool names must be non-empty strings")
		}
		field := "bumpers.pools." + name
		weight := 1.0
		if rp.Weight != nil {
			weight = *rp.Weight
		}
		if weight < 0 {
			return b, errf(field+".weight", "must be non-negative")
		}
		if len(rp.Items) == 0 {
			return b, errf(field+".items", "must be a non-empty list")
		}
		pool := BumperPool{Name: name, Weight: weight}
		for idx, ri := range rp.Items {
			where := fmt.Sprintf("%s.items[%d]", field, idx)
			if ri.Path == "" {
				return b, errf(where+".path", "must be a non-empty string")
			}
			if ri.DurationMin == nil {
				return b, errf(where+".duration_min", "missing required field")
			}
			dur, err := minutesToSeconds(*ri.DurationMin, where+".duration_min")
			if err != nil {
				return b, err
			}
			mt := TypeOtherVideo
			if ri.Type != "" {
				mt = MediaType(ri.Type)
			}
			if !ValidMediaType(mt) {
				return b, errf(where+".type", "unknown media type %q", ri.Type)
			}
			pool.Items = append(pool.Items, BumperItem{Path: ri.Path, DurationSec: dur, MediaType: mt})
		}
		b.Pools[name] = pool
	}
	return b, nil
}

func parsePool(name string, raw rawPool) (Pool, []Item, error) {
	field := "pools." + name
	if raw.DefaultType == "" {
		return Pool{}, nil, errf(field+".default_type", "missing required field")
	}
	pool := Pool{
		Name:        name,
		DefaultType: MediaType(raw.DefaultType),
		Sequential:  raw.Sequential,

		DefaultRepeatCostSec: 30 * 60,
		DefaultMaxExtraUses:  999,
		DominantThresholdSec: 24 * 60,
	}
	if !ValidMediaType(pool.DefaultType) {
		return pool, nil, errf(field+".default_type", "unknown media type %q", raw.DefaultType)
	}

	var err error
	if raw.Repeat != nil {
		if raw.Repeat.DefaultRepeatable != nil {
			pool.DefaultRepeatable = *raw.Repeat.DefaultRepeatable
		}
		if raw.Repeat.DefaultRepeatCostMin != nil {
			if pool.DefaultRepeatCostSec, err = minutesToSeconds(*raw.Repeat.DefaultRepeatCostMin, field+".repeat.default_repeat_cost_min"); err != nil {
				return pool, nil, err
			}
		}
		if raw.Repeat.DefaultMaxExtraUses != nil {
			pool.DefaultMaxExtraUses = *raw.Repeat.DefaultMaxExtraUses
		}
	}
	if raw.Diversity != nil {
		if raw.Diversity.DominantThresholdMin != nil {
			if pool.DominantThresholdSec, err = minutesToSeconds(*raw.Diversity.DominantThresholdMin, field+".diversity.dominant_block_threshold_min"); err != nil {
				return pool, nil, err
			}
		}
		if raw.Diversity.DominantPenaltyMin != nil {
			if pool.DominantPenaltySec, err = minutesToSeconds(*raw.Diversity.DominantPenaltyMin, field+".diversity.dominant_block_penalty_min"); err != nil {
				return pool, nil, err
			}
		}
	}

	if len(raw.Items) == 0 {
		return pool, nil, errf(field+".items", "must be a non-empty list")
	}

	items := make([]Item, 0, len(raw.Items))
	for idx, ri := range raw.Items {
		where := fmt.Sprintf("%s.items[%d]", field, idx)
		if ri.Path == "" {
			return pool, nil, errf(where+".path", "must be a non-empty string")
		}
		if ri.DurationMin == nil {
			return pool, nil, errf(where+".duration_min", "missing required field")
		}
		dur, err := minutesToSeconds(*ri.DurationMin, where+".duration_min")
		if err != nil {
			return pool, nil, err
		}
		if dur <= 0 {
			return pool, nil, errf(where+".duration_min", "must be positive")
		}

		it := Item{
			Path:          ri.Path,
			DurationSec:   dur,
			Pool:          name,
			MediaType:     pool.DefaultType,
			Repeatable:    pool.DefaultRepeatable,
			RepeatCostSec: pool.DefaultRepeatCostSec,
			MaxExtraUses:  pool.DefaultMaxExtraUses,
		}
		if ri.Type != "" {
			it.MediaType = MediaType(ri.Type)
			if !ValidMediaType(it.MediaType) {
				return pool, nil, errf(where+".type", "unknown media type %q", ri.Type)
			}
		}
		if ri.Repeatable != nil {
			it.Repeatable = *ri.Repeatable
		}
		if ri.RepeatCostMin != nil {
			if it.RepeatCostSec, err = minutesToSeconds(*ri.RepeatCostMin, where+".repeat_cost_min"); err != nil {
				return pool, nil, err
			}
		}
		if ri.MaxExtraUses != nil {
			it.MaxExtraUses = *ri.MaxExtraUses
		}

		if pool.Sequential {
			key, ok := tvid.ParseEpisodeKey(ri.Path)
			if !ok {
				return pool, nil, errf(where, "item is in a sequential pool but has no SxxExx marker: %s", ri.Path)
			}
			it.Key = &key
		}

		items = append(items, it)
	}

	return pool, items, nil
}

// Env holds operational defaults read from the process environment.
// These are defaults only; flags always win.
type Env struct {
	DBPath          string
	BaseURL         string
	ResetAfterApply bool
}

// ReadEnv reads LINEUP_* keys from the environment.
func ReadEnv() Env {
	return Env{
		DBPath:          getEnvAny([]string{"LINEUP_DB_PATH"}, ""),
		BaseURL:         getEnvAny([]string{"LINEUP_BASE_URL"}, ""),
		ResetAfterApply: getEnvBoolAny([]string{"LINEUP_RESET_AFTER_APPLY"}, true),
	}
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}
