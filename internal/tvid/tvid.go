/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tvid

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sxxexxRe = regexp.MustCompile(`(?i)\bS(\d{1,2})E(\d{1,2})\b`)

// EpisodeKey is the ordering key for sequential pools, derived from an
// SxxExx marker embedded in the item path.
type EpisodeKey struct {
	Season  int
	Episode int
}

// Less orders keys by (season, episode).
func (k EpisodeKey) Less(other EpisodeKey) bool {
	if k.Season != other.Season {
		return k.Season < other.Season
	}
	return k.Episode < other.Episode
}

func (k EpisodeKey) String() string {
	return fmt.Sprintf("S%02dE%02d", k.Season, k.Episode)
}

// ParseEpisodeKey extracts the first SxxExx marker from a path.
// More exotic naming schemes are intentionally not guessed at.
func ParseEpisodeKey(path string) (EpisodeKey, bool) {
	m := sxxexxRe.FindStringSubmatch(path)
	if m == nil {
		return EpisodeKey{}, false
	}
	season, _ := strconv.Atoi(m[1])
	episode, _ := strconv.Atoi(m[2])
	return EpisodeKey{Season: season, Episode: episode}, true
}

// ParseStoredDuration parses the datastore's duration column format
// ("HH:MM:SS", possibly with fractional seconds) into whole seconds,
// flooring any fractional part.
func ParseStoredDuration(value string) (int, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration must look like HH:MM:SS, got %q", value)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("duration has non-integer hours: %q", value)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("duration has non-integer minutes: %q", value)
	}
	ssf, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("duration has non-numeric seconds: %q", value)
	}
	ss := int(math.Floor(ssf))
	if hh < 0 || mm < 0 || ss < 0 || mm >= 60 || ss >= 60 {
		return 0, fmt.Errorf("duration out of range: %q", value)
	}
	return hh*3600 + mm*60 + ss, nil
}
