/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

// Minimal mirrors of the ErsatzTV tables this tool reads and writes.
// Column names follow the upstream schema, which uses PascalCase and a
// quoted "Index" column.

// CollectionType values used by PlaylistItem rows.
const (
	CollectionMovie      = 10
	CollectionEpisode    = 20
	CollectionMusicVideo = 30
	CollectionOtherVideo = 40
)

type MediaFile struct {
	ID             int    `gorm:"column:Id;primaryKey"`
	Path           string `gorm:"column:Path"`
	MediaVersionID int    `gorm:"column:MediaVersionId"`
}

func (MediaFile) TableName() string { return "MediaFile" }

type MediaVersion struct {
	ID           int    `gorm:"column:Id;primaryKey"`
	Duration     string `gorm:"column:Duration"` // HH:MM:SS(.fff)
	EpisodeID    *int   `gorm:"column:EpisodeId"`
	MovieID      *int   `gorm:"column:MovieId"`
	MusicVideoID *int   `gorm:"column:MusicVideoId"`
	OtherVideoID *int   `gorm:"column:OtherVideoId"`
}

func (MediaVersion) TableName() string { return "MediaVersion" }

type Episode struct {
	ID int `gorm:"column:Id;primaryKey"`
}

func (Episode) TableName() string { return "Episode" }

type Movie struct {
	ID int `gorm:"column:Id;primaryKey"`
}

func (Movie) TableName() string { return "Movie" }

type MusicVideo struct {
	ID int `gorm:"column:Id;primaryKey"`
}

func (MusicVideo) TableName() string { return "MusicVideo" }

type OtherVideo struct {
	ID int `gorm:"column:Id;primaryKey"`
}

func (OtherVideo) TableName() string { return "OtherVideo" }

type PlaylistGroup struct {
	ID   int    `gorm:"column:Id;primaryKey"`
	Name string `gorm:"column:Name"`
}

func (PlaylistGroup) TableName() string { return "PlaylistGroup" }

type Playlist struct {
	ID              int    `gorm:"column:Id;primaryKey"`
	IsSystem        int    `gorm:"column:IsSystem"`
	Name            string `gorm:"column:Name"`
	PlaylistGroupID int    `gorm:"column:PlaylistGroupId"`
}

func (Playlist) TableName() string { return "Playlist" }

type PlaylistItem struct {
	ID                    int  `gorm:"column:Id;primaryKey"`
	Index                 int  `gorm:"column:Index"`
	PlaylistID            int  `gorm:"column:PlaylistId"`
	CollectionType        int  `gorm:"column:CollectionType"`
	CollectionID          *int `gorm:"column:CollectionId"`
	MediaItemID           int  `gorm:"column:MediaItemId"`
	MultiCollectionID     *int `gorm:"column:MultiCollectionId"`
	SmartCollectionID     *int `gorm:"column:SmartCollectionId"`
	IncludeInProgramGuide int  `gorm:"column:IncludeInProgramGuide"`
	PlaybackOrder         int  `gorm:"column:PlaybackOrder"`
	PlayAll               int  `gorm:"column:PlayAll"`
	Count                 *int `gorm:"column:Count"`
}

func (PlaylistItem) TableName() string { return "PlaylistItem" }

type ProgramSchedule struct {
	ID                            int    `gorm:"column:Id;primaryKey"`
	FixedStartTimeBehavior        int    `gorm:"column:FixedStartTimeBehavior"`
	KeepMultiPartEpisodesTogether int    `gorm:"column:KeepMultiPartEpisodesTogether"`
	Name                          string `gorm:"column:Name"`
	RandomStartPoint              int    `gorm:"column:RandomStartPoint"`
	ShuffleScheduleItems          int    `gorm:"column:ShuffleScheduleItems"`
	TreatCollectionsAsShows       int    `gorm:"column:TreatCollectionsAsShows"`
}

func (ProgramSchedule) TableName() string { return "ProgramSchedule" }

type ProgramScheduleItem struct {
	ID                    int `gorm:"column:Id;primaryKey"`
	CollectionType        int `gorm:"column:CollectionType"`
	PlaybackOrder         int `gorm:"column:PlaybackOrder"`
	Index                 int `gorm:"column:Index"`
	ProgramScheduleID     int `gorm:"column:ProgramScheduleId"`
	PlaylistID            int `gorm:"column:PlaylistId"`
	FillWithGroupMode     int `gorm:"column:FillWithGroupMode"`
	GuideMode             int `gorm:"column:GuideMode"`
	MarathonGroupBy       int `gorm:"column:MarathonGroupBy"`
	MarathonShuffleGroups int `gorm:"column:MarathonShuffleGroups"`
	MarathonShuffleItems  int `gorm:"column:MarathonShuffleItems"`
}

func (ProgramScheduleItem) TableName() string { return "ProgramScheduleItem" }

// ProgramScheduleFloodItem is the table-per-type leaf row ErsatzTV needs
// next to a flood ProgramScheduleItem.
type ProgramScheduleFloodItem struct {
	ID int `gorm:"column:Id;primaryKey"`
}

func (ProgramScheduleFloodItem) TableName() string { return "ProgramScheduleFloodItem" }

type Channel struct {
	ID                    int     `gorm:"column:Id;primaryKey"`
	Number                string  `gorm:"column:Number"`
	Name                  string  `gorm:"column:Name"`
	UniqueID              string  `gorm:"column:UniqueId"`
	FFmpegProfileID       int     `gorm:"column:FFmpegProfileId"`
	StreamingMode         int     `gorm:"column:StreamingMode"`
	Group                 string  `gorm:"column:Group"`
	SortNumber            float64 `gorm:"column:SortNumber"`
	SubtitleMode          int     `gorm:"column:SubtitleMode"`
	MusicVideoCreditsMode int     `gorm:"column:MusicVideoCreditsMode"`
	IsEnabled             int     `gorm:"column:IsEnabled"`
	ShowInEpg             int     `gorm:"column:ShowInEpg"`
	IdleBehavior          int     `gorm:"column:IdleBehavior"`
	PlayoutMode           int     `gorm:"column:PlayoutMode"`
	PlayoutSource         int     `gorm:"column:PlayoutSource"`
	SongVideoMode         int     `gorm:"column:SongVideoMode"`
	StreamSelectorMode    int     `gorm:"column:StreamSelectorMode"`
	TranscodeMode         int     `gorm:"column:TranscodeMode"`
}

func (Channel) TableName() string { return "Channel" }

type Playout struct {
	ID                int   `gorm:"column:Id;primaryKey"`
	ChannelID         int   `gorm:"column:ChannelId"`
	ProgramScheduleID int   `gorm:"column:ProgramScheduleId"`
	ScheduleKind      int   `gorm:"column:ScheduleKind"`
	Seed              int64 `gorm:"column:Seed"`
}

func (Playout) TableName() string { return "Playout" }
