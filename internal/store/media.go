/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import "fmt"

// MediaRow is one known media file with the duration and type ErsatzTV
// recorded for it. Duration stays in the stored HH:MM:SS(.fff) form.
type MediaRow struct {
	Path      string
	Duration  string
	MediaType string
}

// PathsUnderPrefixes lists every media file whose path starts with one
// of the prefixes.
func (s *Store) PathsUnderPrefixes(prefixes []string) ([]MediaRow, error) {
	if len(prefixes) == 0 {
		return nil, nil
	}
	var rows []MediaRow
	for _, prefix := range prefixes {
		var chunk []MediaRow
		err := s.db.Raw(`
SELECT DISTINCT
  mf.Path AS path,
  v.Duration AS duration,
  CASE
    WHEN v.EpisodeId IS NOT NULL THEN 'episode'
    WHEN v.MovieId IS NOT NULL THEN 'movie'
    WHEN v.MusicVideoId IS NOT NULL THEN 'music_video'
    WHEN v.OtherVideoId IS NOT NULL THEN 'other_video'
    ELSE ''
  END AS media_type
FROM MediaFile mf
JOIN MediaVersion v ON v.Id = mf.MediaVersionId
WHERE mf.Path LIKE ? || '%'`, prefix).Scan(&chunk).Error
		if err != nil {
			return nil, fmt.Errorf("query paths under %s: %w", prefix, err)
		}
		rows = append(rows, chunk...)
	}

	// Overlapping prefixes may return the same file twice.
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r)
	}
	return out, nil
}
