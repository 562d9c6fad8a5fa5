/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tvid

import "testing"

func TestParseEpisodeKey_FindsMarkerInPath(t *testing.T) {
	key, ok := ParseEpisodeKey("/library/Show/Season 02/Show - S02E07 - Title.mkv")
	if !ok {
		t.Fatalf("expected a key")
	}
	if key.Season != 2 || key.Episode != 7 {
		t.Fatalf("got %v want S02E07", key)
	}
}

func TestParseEpisodeKey_CaseInsensitiveAndFirstWins(t *testing.T) {
	key, ok := ParseEpisodeKey("/tv/s1e2 then S03E04.mkv")
	if !ok {
		t.Fatalf("expected a key")
	}
	if key.Season != 1 || key.Episode != 2 {
		t.Fatalf("got %v want the first marker S01E02", key)
	}
}

func TestParseEpisodeKey_NoMarker(t *testing.T) {
	if _, ok := ParseEpisodeKey("/movies/Heat (1995).mkv"); ok {
		t.Fatalf("movie paths must not parse as episodes")
	}
}

func TestEpisodeKey_Ordering(t *testing.T) {
	a := EpisodeKey{Season: 1, Episode: 10}
	b := EpisodeKey{Season: 2, Episode: 1}
	c := EpisodeKey{Season: 2, Episode: 2}
	if !a.Less(b) || !b.Less(c) || c.Less(a) {
		t.Fatalf("keys must order by season then episode")
	}
}

func TestParseStoredDuration(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:22:30", 1350},
		{"01:30:00.456", 5400},
		{"0:00:05", 5},
	}
	for _, tc := range cases {
		got, err := ParseStoredDuration(tc.in)
		if err != nil {
			t.Fatalf("ParseStoredDuration(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseStoredDuration(%q) = %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseStoredDuration_Rejects(t *testing.T) {
	for _, in := range []string{"", "90:00", "00:61:00", "00:00:xx"} {
		if _, err := ParseStoredDuration(in); err == nil {
			t.Fatalf("ParseStoredDuration(%q) should fail", in)
		}
	}
}
