/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"fmt"
	"sort"
	"strings"
)

// Resolved is the storage identity of one lineup path.
type Resolved struct {
	MediaItemID    int
	CollectionType int
}

// ErrUnresolved reports every path that has no media item, so one run
// surfaces the full damage instead of the first miss.
type ErrUnresolved struct {
	Paths []string
}

func (e *ErrUnresolved) Error() string {
	return fmt.Sprintf("%d unresolved paths:\n  %s", len(e.Paths), strings.Join(e.Paths, "\n  "))
}

// sqlite caps bound parameters per statement.
const resolveChunk = 500

// ResolvePaths maps exact file paths to media item ids and collection
// types. Paths with no match are simply absent from the result.
func (s *Store) ResolvePaths(paths []string) (map[string]Resolved, error) {
	unique := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}

	out := make(map[string]Resolved, len(unique))
	for start := 0; start < len(unique); start += resolveChunk {
		end := start + resolveChunk
		if end > len(unique) {
			end = len(unique)
		}
		var rows []struct {
			Path           string
			MediaItemID    *int
			CollectionType *int
		}
		err := s.db.Raw(`
SELECT mf.Path AS path,
  COALESCE(e.Id, m.Id, mv2.Id, ov.Id) AS media_item_id,
  CASE
    WHEN e.Id IS NOT NULL THEN 20
    WHEN m.Id IS NOT NULL THEN 10
    WHEN mv2.Id IS NOT NULL THEN 30
    WHEN ov.Id IS NOT NULL THEN 40
  END AS collection_type
FROM MediaFile mf
JOIN MediaVersion v ON v.Id = mf.MediaVersionId
LEFT JOIN Episode e ON e.Id = v.EpisodeId
LEFT JOIN Movie m ON m.Id = v.MovieId
LEFT JOIN MusicVideo mv2 ON mv2.Id = v.MusicVideoId
LEFT JOIN OtherVideo ov ON ov.Id = v.OtherVideoId
WHERE mf.Path IN ?`, unique[start:end]).Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("resolve paths: %w", err)
		}
		for _, r := range rows {
			if r.MediaItemID == nil || r.CollectionType == nil {
				continue
			}
			out[r.Path] = Resolved{MediaItemID: *r.MediaItemID, CollectionType: *r.CollectionType}
		}
	}
	return out, nil
}

// ResolveAll applies the all-or-nothing policy: every path must
// resolve, minus an explicit allowance of missing paths.
func (s *Store) ResolveAll(paths []string, allowMissing int) (map[string]Resolved, error) {
	resolved, err := s.ResolvePaths(paths)
	if err != nil {
		return nil, err
	}
	var missing []string
	seen := map[string]bool{}
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		if _, ok := resolved[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > allowMissing {
		sort.Strings(missing)
		return nil, &ErrUnresolved{Paths: missing}
	}
	return resolved, nil
}
