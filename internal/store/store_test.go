/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/channelforge/lineup/internal/lineup"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&MediaFile{}, &MediaVersion{}, &Episode{}, &Movie{}, &MusicVideo{}, &OtherVideo{},
		&PlaylistGroup{}, &Playlist{}, &PlaylistItem{},
		&ProgramSchedule{}, &ProgramScheduleItem{}, &ProgramScheduleFloodItem{},
		&Channel{}, &Playout{},
	)
	if err != nil {
		t.Fatalf("migrate test schema: %v", err)
	}
	return NewWithDB(db)
}

// seedMedia inserts one media item of the given collection type and
// returns its id.
func seedMedia(t *testing.T, s *Store, path string, collectionType int, duration string) int {
	t.Helper()
	version := MediaVersion{Duration: duration}
	var id int
	switch collectionType {
	case CollectionEpisode:
		e := Episode{}
		if err := s.db.Create(&e).Error; err != nil {
			t.Fatalf("seed episode: %v", err)
		}
		id, version.EpisodeID = e.ID, &e.ID
	case CollectionMovie:
		m := Movie{}
		if err := s.db.Create(&m).Error; err != nil {
			t.Fatalf("seed movie: %v", err)
		}
		id, version.MovieID = m.ID, &m.ID
	case CollectionMusicVideo:
		m := MusicVideo{}
		if err := s.db.Create(&m).Error; err != nil {
			t.Fatalf("seed music video: %v", err)
		}
		id, version.MusicVideoID = m.ID, &m.ID
	case CollectionOtherVideo:
		o := OtherVideo{}
		if err := s.db.Create(&o).Error; err != nil {
			t.Fatalf("seed other video: %v", err)
		}
		id, version.OtherVideoID = o.ID, &o.ID
	}
	if err := s.db.Create(&version).Error; err != nil {
		t.Fatalf("seed media version: %v", err)
	}
	if err := s.db.Create(&MediaFile{Path: path, MediaVersionID: version.ID}).Error; err != nil {
		t.Fatalf("seed media file: %v", err)
	}
	return id
}

func TestResolvePaths_MapsEveryCollectionType(t *testing.T) {
	s := testStore(t)
	epID := seedMedia(t, s, "/tv/s01e01.mkv", CollectionEpisode, "00:22:00")
	seedMedia(t, s, "/movies/film.mkv", CollectionMovie, "01:30:00")
	seedMedia(t, s, "/mv/video.mkv", CollectionMusicVideo, "00:03:30")
	seedMedia(t, s, "/other/bumper.mkv", CollectionOtherVideo, "00:00:15")

	got, err := s.ResolvePaths([]string{
		"/tv/s01e01.mkv", "/movies/film.mkv", "/mv/video.mkv", "/other/bumper.mkv",
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("resolved count: got %d want 4", len(got))
	}
	ep := got["/tv/s01e01.mkv"]
	if ep.CollectionType != CollectionEpisode || ep.MediaItemID != epID {
		t.Fatalf("episode resolution: got %+v", ep)
	}
	if got["/movies/film.mkv"].CollectionType != CollectionMovie {
		t.Fatalf("movie type: got %d", got["/movies/film.mkv"].CollectionType)
	}
}

func TestResolveAll_AbortsWithFullMissingList(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/other/known.mkv", CollectionOtherVideo, "00:00:15")

	_, err := s.ResolveAll([]string{"/other/known.mkv", "/gone/a.mkv", "/gone/b.mkv"}, 0)
	var unresolved *ErrUnresolved
	if !errors.As(err, &unresolved) {
		t.Fatalf("error type: got %v want *ErrUnresolved", err)
	}
	if len(unresolved.Paths) != 2 {
		t.Fatalf("missing paths: got %v want both gone paths", unresolved.Paths)
	}

	// An explicit allowance tolerates the misses.
	got, err := s.ResolveAll([]string{"/other/known.mkv", "/gone/a.mkv", "/gone/b.mkv"}, 2)
	if err != nil {
		t.Fatalf("allow-missing resolve failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("resolved count: got %d want 1", len(got))
	}
}

func guidePtr(v bool) *bool { return &v }

func testDocument(paths ...string) *lineup.Document {
	doc := &lineup.Document{
		Channel:  lineup.ChannelHeader{Name: "Toons", Number: "42"},
		Schedule: lineup.ScheduleHeader{Name: "Toons Schedule", GuideMode: "include_all"},
		Playlist: "Toons Lineup",
	}
	for _, p := range paths {
		doc.Rows = append(doc.Rows, lineup.Row{Path: p, Type: "other_video"})
	}
	return doc
}

func TestPlan_CreateBootstrapsChannelAndPlayout(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/m/a.mkv", CollectionOtherVideo, "00:10:00")
	seedMedia(t, s, "/m/b.mkv", CollectionOtherVideo, "00:10:00")

	doc := testDocument("/m/a.mkv", "/m/b.mkv")
	resolved, err := s.ResolveAll([]string{"/m/a.mkv", "/m/b.mkv"}, 0)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	existing, err := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}

	plan, err := BuildPlan(doc, resolved, existing, ModeCreate)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if err := plan.Execute(s); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	after, err := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	if err != nil {
		t.Fatalf("re-probe failed: %v", err)
	}
	if after.ChannelID == nil || after.PlaylistID == nil || after.ScheduleID == nil || after.PlayoutID == nil {
		t.Fatalf("bootstrap incomplete: %+v", after)
	}
	if after.PlaylistItemCount != 2 || after.PlaylistMaxIndex != 1 {
		t.Fatalf("playlist items: got count=%d max=%d want 2/1", after.PlaylistItemCount, after.PlaylistMaxIndex)
	}
	var flood int64
	if err := s.db.Model(&ProgramScheduleFloodItem{}).Count(&flood).Error; err != nil || flood != 1 {
		t.Fatalf("flood item rows: got %d (%v) want 1", flood, err)
	}
}

func TestPlan_ReplaceIsIdempotent(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/m/a.mkv", CollectionOtherVideo, "00:10:00")
	seedMedia(t, s, "/m/b.mkv", CollectionOtherVideo, "00:10:00")

	doc := testDocument("/m/a.mkv", "/m/b.mkv")
	resolved, _ := s.ResolveAll([]string{"/m/a.mkv", "/m/b.mkv"}, 0)

	existing, _ := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	create, err := BuildPlan(doc, resolved, existing, ModeCreate)
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	if err := create.Execute(s); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	applyReplace := func() {
		existing, err := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
		if err != nil {
			t.Fatalf("probe failed: %v", err)
		}
		plan, err := BuildPlan(doc, resolved, existing, ModeReplace)
		if err != nil {
			t.Fatalf("replace plan failed: %v", err)
		}
		if err := plan.Execute(s); err != nil {
			t.Fatalf("replace failed: %v", err)
		}
	}
	applyReplace()
	applyReplace()

	after, _ := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	if after.PlaylistItemCount != 2 || after.PlaylistMaxIndex != 1 {
		t.Fatalf("double replace diverged: count=%d max=%d", after.PlaylistItemCount, after.PlaylistMaxIndex)
	}
}

func TestPlan_AppendNeverTouchesExistingRows(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/m/a.mkv", CollectionOtherVideo, "00:10:00")
	bID := seedMedia(t, s, "/m/b.mkv", CollectionOtherVideo, "00:10:00")

	base := testDocument("/m/a.mkv")
	resolvedA, _ := s.ResolveAll([]string{"/m/a.mkv"}, 0)
	existing, _ := s.CheckExisting(base.Channel.Name, base.Playlist, base.Schedule.Name)
	create, err := BuildPlan(base, resolvedA, existing, ModeCreate)
	if err != nil {
		t.Fatalf("create plan failed: %v", err)
	}
	if err := create.Execute(s); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var before []PlaylistItem
	if err := s.db.Order(`"Index"`).Find(&before).Error; err != nil {
		t.Fatalf("read items: %v", err)
	}

	appendDoc := testDocument("/m/b.mkv")
	resolvedB, _ := s.ResolveAll([]string{"/m/b.mkv"}, 0)
	existing, _ = s.CheckExisting(appendDoc.Channel.Name, appendDoc.Playlist, appendDoc.Schedule.Name)
	plan, err := BuildPlan(appendDoc, resolvedB, existing, ModeAppend)
	if err != nil {
		t.Fatalf("append plan failed: %v", err)
	}
	if err := plan.Execute(s); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	var after []PlaylistItem
	if err := s.db.Order(`"Index"`).Find(&after).Error; err != nil {
		t.Fatalf("read items: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("append row count: got %d want %d", len(after), len(before)+1)
	}
	for i, item := range before {
		if after[i] != item {
			t.Fatalf("append mutated existing row %d: %+v -> %+v", i, item, after[i])
		}
	}
	last := after[len(after)-1]
	if last.Index != before[len(before)-1].Index+1 || last.MediaItemID != bID {
		t.Fatalf("appended row wrong: %+v", last)
	}
}

func TestPlan_GuideFlagDerivation(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/movies/film.mkv", CollectionMovie, "01:30:00")
	seedMedia(t, s, "/other/bumper.mkv", CollectionOtherVideo, "00:00:15")

	doc := &lineup.Document{
		Channel:  lineup.ChannelHeader{Name: "Mixed", Number: "5"},
		Schedule: lineup.ScheduleHeader{Name: "Mixed Schedule", GuideMode: "movies_and_episodes"},
		Playlist: "Mixed Lineup",
		Rows: []lineup.Row{
			{Path: "/movies/film.mkv", Type: "movie"},
			{Path: "/other/bumper.mkv", Type: "other_video"},
			{Path: "/other/bumper.mkv", Type: "other_video", IncludeInGuide: guidePtr(true)},
		},
	}
	resolved, err := s.ResolveAll([]string{"/movies/film.mkv", "/other/bumper.mkv"}, 0)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	existing, _ := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	plan, err := BuildPlan(doc, resolved, existing, ModeCreate)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	want := []int{1, 0, 1} // movie derived, bumper derived, bumper overridden
	for i, row := range plan.Rows {
		if row.Guide != want[i] {
			t.Fatalf("row %d guide flag: got %d want %d", i, row.Guide, want[i])
		}
	}
}

func TestPlan_ScriptIsInspectableSQL(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/m/a.mkv", CollectionOtherVideo, "00:10:00")

	doc := testDocument("/m/a.mkv")
	resolved, _ := s.ResolveAll([]string{"/m/a.mkv"}, 0)
	existing, _ := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	create, err := BuildPlan(doc, resolved, existing, ModeCreate)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	script, err := create.Script()
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	for _, want := range []string{"BEGIN TRANSACTION;", "COMMIT;", "INSERT INTO Playlist ", "INSERT INTO Channel "} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}

	if err := create.Execute(s); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	existing, _ = s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	replace, err := BuildPlan(doc, resolved, existing, ModeReplace)
	if err != nil {
		t.Fatalf("replace plan failed: %v", err)
	}
	script, err = replace.Script()
	if err != nil {
		t.Fatalf("script failed: %v", err)
	}
	if !strings.Contains(script, "DELETE FROM PlaylistItem WHERE PlaylistId =") {
		t.Fatalf("replace script missing delete:\n%s", script)
	}
}

func TestBuildPlan_ModePreconditions(t *testing.T) {
	s := testStore(t)
	seedMedia(t, s, "/m/a.mkv", CollectionOtherVideo, "00:10:00")
	doc := testDocument("/m/a.mkv")
	resolved, _ := s.ResolveAll([]string{"/m/a.mkv"}, 0)
	existing, _ := s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)

	if _, err := BuildPlan(doc, resolved, existing, ModeReplace); err == nil {
		t.Fatalf("replace without a playlist should fail")
	}

	create, _ := BuildPlan(doc, resolved, existing, ModeCreate)
	if err := create.Execute(s); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	existing, _ = s.CheckExisting(doc.Channel.Name, doc.Playlist, doc.Schedule.Name)
	if _, err := BuildPlan(doc, resolved, existing, ModeCreate); err == nil {
		t.Fatalf("create over an existing playlist should fail")
	}
}
