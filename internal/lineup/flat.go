/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package lineup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/channelforge/lineup/internal/config"
)

// FlatItem is one pre-ordered entry of a flat playlist. DurationSec may
// be zero on load; the caller probes it before expansion.
type FlatItem struct {
	Path        string `yaml:"path"`
	Type        string `yaml:"type"`
	DurationSec int    `yaml:"duration_sec,omitempty"`

	// AutoLoop nil means "loop short items by default"; an explicit
	// false opts one item out.
	AutoLoop  *bool `yaml:"auto_loop,omitempty"`
	LoopToSec int   `yaml:"loop_to_sec,omitempty"`
}

// FlatConfig describes a hand-ordered playlist with loop expansion
// thresholds instead of a solved lineup.
type FlatConfig struct {
	Channel  ChannelHeader  `yaml:"channel"`
	Schedule ScheduleHeader `yaml:"schedule"`
	Playlist string         `yaml:"playlist,omitempty"`

	LoopShortUnderSec int `yaml:"loop_short_under_sec"`
	LoopShortToSec    int `yaml:"loop_short_to_sec"`

	Items []FlatItem `yaml:"items"`
}

// LoadFlat reads and validates a flat playlist config.
func LoadFlat(path string) (*FlatConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flat config: %w", err)
	}
	return ParseFlat(data)
}

func ParseFlat(data []byte) (*FlatConfig, error) {
	var fc FlatConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse flat config: %w", err)
	}
	if fc.Channel.Name == "" {
		return nil, &config.Error{Field: "channel.name", Msg: "required"}
	}
	if len(fc.Items) == 0 {
		return nil, &config.Error{Field: "items", Msg: "at least one item required"}
	}
	if fc.LoopShortUnderSec > 0 && fc.LoopShortToSec < fc.LoopShortUnderSec {
		return nil, &config.Error{Field: "loop_short_to_sec", Msg: "must be >= loop_short_under_sec"}
	}
	for i, it := range fc.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Path == "" {
			return nil, &config.Error{Field: field + ".path", Msg: "required"}
		}
		if _, err := MediaTypeFor(it.Type); err != nil {
			return nil, &config.Error{Field: field + ".type", Msg: err.Error()}
		}
		if it.DurationSec < 0 {
			return nil, &config.Error{Field: field + ".duration_sec", Msg: "must not be negative"}
		}
		if it.LoopToSec < 0 {
			return nil, &config.Error{Field: field + ".loop_to_sec", Msg: "must not be negative"}
		}
	}
	return &fc, nil
}

// MediaTypeFor maps flat-mode type shorthands onto media types.
func MediaTypeFor(t string) (config.MediaType, error) {
	switch t {
	case "feature", "movie":
		return config.TypeMovie, nil
	case "bumper", "interstitial", "other", "other_video":
		return config.TypeOtherVideo, nil
	case "episode":
		return config.TypeEpisode, nil
	case "music_video":
		return config.TypeMusicVideo, nil
	}
	return "", fmt.Errorf("unknown item type %q", t)
}

// ExpandFlat turns the ordered item list into playlist rows. A short
// item loops to the configured target: the item repeats
// ceil(target/duration) times, and only the first row of a generated
// run stays guide-visible. Every item must carry a positive duration by
// the time this runs.
func ExpandFlat(fc *FlatConfig) (*Document, error) {
	doc := &Document{
		Channel:  fc.Channel,
		Schedule: fc.Schedule,
		Playlist: fc.Playlist,
	}
	if doc.Playlist == "" {
		doc.Playlist = fc.Channel.Name
	}

	visible, hidden := true, false
	for i, it := range fc.Items {
		if it.DurationSec <= 0 {
			return nil, fmt.Errorf("items[%d] %s: duration unknown, probe it first", i, it.Path)
		}
		mt, err := MediaTypeFor(it.Type)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}

		copies := loopCopies(fc, it)
		if copies == 1 {
			doc.Rows = append(doc.Rows, Row{Path: it.Path, Type: mt})
			continue
		}
		for c := 0; c < copies; c++ {
			guide := &hidden
			if c == 0 {
				guide = &visible
			}
			doc.Rows = append(doc.Rows, Row{Path: it.Path, Type: mt, IncludeInGuide: guide})
		}
	}
	return doc, nil
}

// loopCopies computes how many consecutive rows an item expands to.
// An explicit loop_to overrides the auto-loop target.
func loopCopies(fc *FlatConfig, it FlatItem) int {
	target := 0
	switch {
	case it.LoopToSec > 0:
		target = it.LoopToSec
	case it.AutoLoop != nil && !*it.AutoLoop:
		return 1
	case fc.LoopShortUnderSec > 0 && it.DurationSec < fc.LoopShortUnderSec:
		target = fc.LoopShortToSec
	}
	if target <= it.DurationSec {
		return 1
	}
	return (target + it.DurationSec - 1) / it.DurationSec
}
