/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/channelforge/lineup/internal/lineup"
)

// Mode selects how the plan touches an existing playlist.
type Mode string

const (
	ModeReplace Mode = "replace"
	ModeAppend  Mode = "append"
	ModeCreate  Mode = "create"
)

// playoutSeed matches the seed ErsatzTV assigns to hand-created
// playouts; the value itself is arbitrary but stable.
const playoutSeed = 184984510

// PlanRow is one PlaylistItem insert.
type PlanRow struct {
	Index          int
	MediaItemID    int
	CollectionType int
	Guide          int
}

// Plan is a fully resolved, inspectable playlist mutation. Script
// renders it as literal SQL for dry runs; Execute runs the identical
// statements inside one transaction.
type Plan struct {
	Mode Mode

	ChannelName   string
	ChannelNumber string
	ChannelGroup  string
	PlaylistName  string
	PlaylistGroup string
	ScheduleName  string
	GuideMode     string
	Shuffle       bool

	// Replace/append state from the probe.
	PlaylistID    int
	ReplacedCount int
	StartIndex    int

	// Create-mode identity.
	ChannelUUID string

	Rows []PlanRow
}

// BuildPlan turns a verified document plus resolved ids into a mutation
// plan. Mode create requires the playlist to be absent; replace and
// append require it to exist.
func BuildPlan(doc *lineup.Document, resolved map[string]Resolved, existing *Existing, mode Mode) (*Plan, error) {
	p := &Plan{
		Mode:          mode,
		ChannelName:   doc.Channel.Name,
		ChannelNumber: doc.Channel.Number,
		ChannelGroup:  doc.Channel.Group,
		PlaylistName:  doc.Playlist,
		PlaylistGroup: doc.Channel.Name,
		ScheduleName:  doc.Schedule.Name,
		GuideMode:     doc.Schedule.GuideMode,
		Shuffle:       doc.Schedule.Shuffle,
	}
	if p.ChannelGroup == "" {
		p.ChannelGroup = p.ChannelName
	}
	if p.ScheduleName == "" {
		p.ScheduleName = p.ChannelName + " Schedule"
	}
	if p.GuideMode == "" {
		p.GuideMode = "include_all"
	}

	switch mode {
	case ModeCreate:
		if existing.PlaylistID != nil {
			return nil, fmt.Errorf("playlist %q already exists (id %d), use replace or append", p.PlaylistName, *existing.PlaylistID)
		}
		p.ChannelUUID = strings.ToUpper(uuid.NewString())
	case ModeReplace, ModeAppend:
		if existing.PlaylistID == nil {
			return nil, fmt.Errorf("playlist %q does not exist, use create", p.PlaylistName)
		}
		p.PlaylistID = *existing.PlaylistID
		p.ReplacedCount = existing.PlaylistItemCount
		if mode == ModeAppend {
			p.StartIndex = existing.PlaylistMaxIndex + 1
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	start := p.StartIndex
	for _, row := range doc.Rows {
		res, ok := resolved[row.Path]
		if !ok {
			// Tolerated by --allow-missing upstream; the row is dropped.
			continue
		}
		guide := 0
		if row.IncludeInGuide != nil {
			if *row.IncludeInGuide {
				guide = 1
			}
		} else if p.GuideMode == "include_all" ||
			res.CollectionType == CollectionMovie || res.CollectionType == CollectionEpisode {
			guide = 1
		}
		p.Rows = append(p.Rows, PlanRow{
			Index:          start + len(p.Rows),
			MediaItemID:    res.MediaItemID,
			CollectionType: res.CollectionType,
			Guide:          guide,
		})
	}
	if len(p.Rows) == 0 {
		return nil, fmt.Errorf("plan has no resolvable rows")
	}
	return p, nil
}

// statements renders the plan as ordered SQL, one statement per entry,
// with no transaction framing.
func (p *Plan) statements() ([]string, error) {
	var out []string
	esc := func(s string) (string, error) {
		if strings.ContainsRune(s, 0) {
			return "", fmt.Errorf("value contains a NUL byte")
		}
		return strings.ReplaceAll(s, "'", "''"), nil
	}

	insertItem := func(row PlanRow, playlistRef string) {
		out = append(out, fmt.Sprintf(
			`INSERT INTO PlaylistItem ("Index", PlaylistId, CollectionType, CollectionId, MediaItemId, `+
				`MultiCollectionId, SmartCollectionId, IncludeInProgramGuide, PlaybackOrder, PlayAll, Count) `+
				`VALUES (%d, %s, %d, NULL, %d, NULL, NULL, %d, 0, 0, NULL);`,
			row.Index, playlistRef, row.CollectionType, row.MediaItemID, row.Guide))
	}

	switch p.Mode {
	case ModeReplace, ModeAppend:
		if p.Mode == ModeReplace {
			out = append(out, fmt.Sprintf("DELETE FROM PlaylistItem WHERE PlaylistId = %d;", p.PlaylistID))
		}
		for _, row := range p.Rows {
			insertItem(row, strconv.Itoa(p.PlaylistID))
		}
		return out, nil

	case ModeCreate:
		playlistGroup, err := esc(p.PlaylistGroup)
		if err != nil {
			return nil, fmt.Errorf("playlist group: %w", err)
		}
		playlistName, err := esc(p.PlaylistName)
		if err != nil {
			return nil, fmt.Errorf("playlist name: %w", err)
		}
		scheduleName, err := esc(p.ScheduleName)
		if err != nil {
			return nil, fmt.Errorf("schedule name: %w", err)
		}
		channelName, err := esc(p.ChannelName)
		if err != nil {
			return nil, fmt.Errorf("channel name: %w", err)
		}
		channelNumber, err := esc(p.ChannelNumber)
		if err != nil {
			return nil, fmt.Errorf("channel number: %w", err)
		}
		channelGroup, err := esc(p.ChannelGroup)
		if err != nil {
			return nil, fmt.Errorf("channel group: %w", err)
		}
		shuffle := 0
		if p.Shuffle {
			shuffle = 1
		}
		sortNumber, err := strconv.ParseFloat(p.ChannelNumber, 64)
		if err != nil {
			sortNumber = 0
		}

		out = append(out, fmt.Sprintf("INSERT INTO PlaylistGroup (Name) VALUES ('%s');", playlistGroup))
		out = append(out, fmt.Sprintf(
			"INSERT INTO Playlist (IsSystem, Name, PlaylistGroupId) "+
				"VALUES (0, '%s', (SELECT MAX(Id) FROM PlaylistGroup));", playlistName))
		for _, row := range p.Rows {
			insertItem(row, "(SELECT MAX(Id) FROM Playlist)")
		}
		out = append(out, fmt.Sprintf(
			"INSERT INTO ProgramSchedule (FixedStartTimeBehavior, KeepMultiPartEpisodesTogether, "+
				"Name, RandomStartPoint, ShuffleScheduleItems, TreatCollectionsAsShows) "+
				"VALUES (0, 0, '%s', 0, %d, 0);", scheduleName, shuffle))
		out = append(out, fmt.Sprintf(
			`INSERT INTO ProgramScheduleItem (CollectionType, PlaybackOrder, "Index", ProgramScheduleId, PlaylistId, `+
				"FillWithGroupMode, GuideMode, MarathonGroupBy, MarathonShuffleGroups, MarathonShuffleItems) "+
				"VALUES (6, 1, 0, (SELECT MAX(Id) FROM ProgramSchedule), "+
				"(SELECT Id FROM Playlist WHERE Name = '%s'), 0, 0, 0, 0, 0);", playlistName))
		// The flood leaf row drives ErsatzTV's table-per-type loading;
		// without it the schedule item never materializes.
		out = append(out, "INSERT INTO ProgramScheduleFloodItem (Id) VALUES ((SELECT MAX(Id) FROM ProgramScheduleItem));")
		out = append(out, fmt.Sprintf(
			`INSERT INTO Channel (Number, Name, UniqueId, FFmpegProfileId, `+
				`StreamingMode, "Group", SortNumber, SubtitleMode, MusicVideoCreditsMode, `+
				"IsEnabled, ShowInEpg, IdleBehavior, PlayoutMode, PlayoutSource, "+
				"SongVideoMode, StreamSelectorMode, TranscodeMode) "+
				"VALUES ('%s', '%s', '%s', 1, 5, '%s', %g, 3, 0, 1, 1, 0, 0, 0, 0, 0, 0);",
			channelNumber, channelName, p.ChannelUUID, channelGroup, sortNumber))
		out = append(out, fmt.Sprintf(
			"INSERT INTO Playout (ChannelId, ProgramScheduleId, ScheduleKind, Seed) "+
				"VALUES ((SELECT Id FROM Channel WHERE Name = '%s'), "+
				"(SELECT Id FROM ProgramSchedule WHERE Name = '%s'), 1, %d);",
			channelName, scheduleName, playoutSeed))
		return out, nil
	}
	return nil, fmt.Errorf("unknown mode %q", p.Mode)
}

// Script renders the literal SQL audit artifact a dry run prints. The
// executed transaction runs exactly these statements.
func (p *Plan) Script() (string, error) {
	stmts, err := p.statements()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	switch p.Mode {
	case ModeCreate:
		fmt.Fprintf(&sb, "-- lineup: CREATE %s\n", p.ChannelName)
		fmt.Fprintf(&sb, "-- %d playlist items\n", len(p.Rows))
	case ModeReplace:
		fmt.Fprintf(&sb, "-- lineup: UPDATE %s\n-- Mode: replace\n", p.ChannelName)
		fmt.Fprintf(&sb, "-- Replacing %d playlist items with %d new items\n", p.ReplacedCount, len(p.Rows))
		fmt.Fprintf(&sb, "-- Playlist ID: %d\n", p.PlaylistID)
	case ModeAppend:
		fmt.Fprintf(&sb, "-- lineup: UPDATE %s\n-- Mode: append\n", p.ChannelName)
		fmt.Fprintf(&sb, "-- Appending %d playlist items after existing %d\n", len(p.Rows), p.ReplacedCount)
		fmt.Fprintf(&sb, "-- Playlist ID: %d\n-- Start index: %d\n", p.PlaylistID, p.StartIndex)
	}
	sb.WriteString("\nBEGIN TRANSACTION;\n\n")
	for _, stmt := range stmts {
		sb.WriteString(stmt)
		sb.WriteString("\n")
	}
	sb.WriteString("\nCOMMIT;\n")
	return sb.String(), nil
}

// Execute applies the plan atomically.
func (p *Plan) Execute(s *Store) error {
	stmts, err := p.statements()
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("apply plan: %w", err)
			}
		}
		return nil
	})
}
