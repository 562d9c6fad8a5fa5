/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"database/sql"
	"fmt"
)

// Existing is the current database state for one channel/playlist pair.
// Nil ids mean the row does not exist yet.
type Existing struct {
	ChannelID  *int
	PlaylistID *int
	ScheduleID *int
	PlayoutID  *int

	PlaylistItemCount int
	PlaylistMaxIndex  int // -1 when the playlist is empty or missing
}

// CheckExisting probes channel, playlist, schedule and playout state in
// one pass before planning a mutation.
func (s *Store) CheckExisting(channelName, playlistName, scheduleName string) (*Existing, error) {
	ex := &Existing{PlaylistMaxIndex: -1}

	var channels []Channel
	if err := s.db.Where("Name = ?", channelName).Limit(1).Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("probe channel: %w", err)
	}
	if len(channels) > 0 {
		ex.ChannelID = &channels[0].ID

		var playouts []Playout
		if err := s.db.Where("ChannelId = ?", channels[0].ID).Limit(1).Find(&playouts).Error; err != nil {
			return nil, fmt.Errorf("probe playout: %w", err)
		}
		if len(playouts) > 0 {
			ex.PlayoutID = &playouts[0].ID
		}
	}

	var playlists []Playlist
	if err := s.db.Where("Name = ?", playlistName).Limit(1).Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("probe playlist: %w", err)
	}
	if len(playlists) > 0 {
		ex.PlaylistID = &playlists[0].ID

		var count int64
		if err := s.db.Model(&PlaylistItem{}).Where("PlaylistId = ?", playlists[0].ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("probe playlist items: %w", err)
		}
		ex.PlaylistItemCount = int(count)

		var maxIndex sql.NullInt64
		row := s.db.Model(&PlaylistItem{}).
			Where("PlaylistId = ?", playlists[0].ID).
			Select(`MAX("Index")`).
			Row()
		if err := row.Scan(&maxIndex); err != nil {
			return nil, fmt.Errorf("probe playlist max index: %w", err)
		}
		if maxIndex.Valid {
			ex.PlaylistMaxIndex = int(maxIndex.Int64)
		}
	}

	var schedules []ProgramSchedule
	if err := s.db.Where("Name = ?", scheduleName).Limit(1).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("probe schedule: %w", err)
	}
	if len(schedules) > 0 {
		ex.ScheduleID = &schedules[0].ID
	}

	return ex, nil
}
