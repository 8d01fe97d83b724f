package migration

import (
	"reflect"
	"strings"
	"testing"

	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/slots"
)

func slotConfig(id int64, number int, name string, profile *quality.Profile) slots.SlotWithProfile {
	profileID := id
	return slots.SlotWithProfile{
		Slot: &slots.Slot{
			ID:               id,
			SlotNumber:       number,
			Name:             name,
			Enabled:          true,
			QualityProfileID: &profileID,
		},
		Profile: profile,
	}
}

func twoSlotPlanner() *Planner {
	a := quality.DefaultProfile()
	b := quality.DefaultProfile()
	return NewPlanner([]slots.SlotWithProfile{
		slotConfig(1, 1, "Version 1", &a),
		slotConfig(2, 2, "Version 2", &b),
	})
}

func movieLibrary(files ...MediaFile) *LibrarySnapshot {
	return &LibrarySnapshot{
		Movies: []Movie{{ID: 10, Title: "Movie", Year: 2020, Files: files}},
	}
}

func findResolved(t *testing.T, resolved []ResolvedFile, fileID int64) *ResolvedFile {
	t.Helper()
	for i := range resolved {
		if resolved[i].FileID == fileID {
			return &resolved[i]
		}
	}
	t.Fatalf("file %d not in resolved set", fileID)
	return nil
}

func TestNewPlannerSkipsDisabledAndUnbound(t *testing.T) {
	profile := quality.DefaultProfile()
	disabled := slotConfig(1, 1, "Disabled", &profile)
	disabled.Slot.Enabled = false
	unbound := slotConfig(2, 2, "Unbound", nil)
	usable := slotConfig(3, 3, "Usable", &profile)

	p := NewPlanner([]slots.SlotWithProfile{disabled, unbound, usable})
	if p.SlotCount() != 1 {
		t.Errorf("SlotCount() = %d, want 1", p.SlotCount())
	}
}

func TestResolveSiblingContention(t *testing.T) {
	p := twoSlotPlanner()
	lib := movieLibrary(
		MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.WEB-DL.mkv"},
		MediaFile{ID: 2, Path: "/movies/Movie (2020)/Movie.2020.1080p.Remux.mkv"},
	)

	resolved := p.Resolve(lib, nil)
	if len(resolved) != 2 {
		t.Fatalf("resolved %d files, want 2", len(resolved))
	}

	// the remux outscores the web-dl, takes the first slot, and pushes the
	// web-dl to its next-ranked slot
	remux := findResolved(t, resolved, 2)
	if remux.AssignedSlotID == nil || *remux.AssignedSlotID != 1 {
		t.Errorf("remux slot = %v, want 1", remux.AssignedSlotID)
	}
	webdl := findResolved(t, resolved, 1)
	if webdl.AssignedSlotID == nil || *webdl.AssignedSlotID != 2 {
		t.Errorf("web-dl slot = %v, want 2", webdl.AssignedSlotID)
	}
	for _, r := range resolved {
		if r.Conflict != "" {
			t.Errorf("file %d: unexpected conflict %q", r.FileID, r.Conflict)
		}
	}
}

func TestResolveTiedSlotsNeedReview(t *testing.T) {
	// two slots with identical profiles: every accepted file ties across
	// them, so the proposal is a suggestion that a human must confirm
	p := twoSlotPlanner()
	lib := movieLibrary(MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.BluRay.mkv"})

	resolved := p.Resolve(lib, nil)
	r := findResolved(t, resolved, 1)
	if !r.RequiresSelection {
		t.Error("expected RequiresSelection for a file tied across identical slots")
	}
	if r.AssignedSlotID == nil || *r.AssignedSlotID != 1 {
		t.Errorf("proposed slot = %v, want 1", r.AssignedSlotID)
	}
	if !r.NeedsReview() {
		t.Error("a tied proposal must need review")
	}
	if r.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0 on a tie", r.Confidence)
	}

	preview := p.Preview(lib, nil)
	file := preview.Movies[0].Files[0]
	if !file.NeedsReview {
		t.Error("preview must flag the tied file for review")
	}
	if file.ProposedSlotID == nil {
		t.Error("the tied file still carries a proposed slot")
	}
	if preview.Summary.FilesNeedingReview != 1 {
		t.Errorf("Summary.FilesNeedingReview = %d, want 1", preview.Summary.FilesNeedingReview)
	}
}

func TestPreviewScoreFollowsAssignedSlot(t *testing.T) {
	plain := quality.DefaultProfile()
	boosted := quality.DefaultProfile()
	boosted.VideoCodecRules.SetMode("x264", quality.ModePreferred)
	p := NewPlanner([]slots.SlotWithProfile{
		slotConfig(1, 1, "Boosted", &boosted),
		slotConfig(2, 2, "Plain", &plain),
	})
	lib := movieLibrary(
		MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.WEB-DL.x264.mkv"},
		MediaFile{ID: 2, Path: "/movies/Movie (2020)/Movie.2020.1080p.Remux.x264.mkv"},
	)

	// the remux claims the boosted slot; the web-dl falls to the plain slot,
	// and its reported score must belong to that slot, not the one it lost
	resolved := p.Resolve(lib, nil)
	webdl := findResolved(t, resolved, 1)
	if webdl.AssignedSlotID == nil || *webdl.AssignedSlotID != 2 {
		t.Fatalf("web-dl slot = %v, want 2", webdl.AssignedSlotID)
	}
	if webdl.MatchScore != 1000 {
		t.Errorf("web-dl MatchScore = %v, want 1000 (plain slot score)", webdl.MatchScore)
	}

	preview := p.Preview(lib, nil)
	files := preview.Movies[0].Files
	if files[0].MatchScore != 1000 {
		t.Errorf("preview web-dl MatchScore = %v, want 1000", files[0].MatchScore)
	}
	if files[1].MatchScore != 1301 {
		t.Errorf("preview remux MatchScore = %v, want 1301 (boosted slot score)", files[1].MatchScore)
	}
}

func TestResolveMoreFilesThanSlots(t *testing.T) {
	profile := quality.DefaultProfile()
	p := NewPlanner([]slots.SlotWithProfile{slotConfig(1, 1, "Version 1", &profile)})
	lib := movieLibrary(
		MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.WEB-DL.mkv"},
		MediaFile{ID: 2, Path: "/movies/Movie (2020)/Movie.2020.1080p.Remux.mkv"},
	)

	resolved := p.Resolve(lib, nil)

	winner := findResolved(t, resolved, 2)
	if winner.AssignedSlotID == nil {
		t.Error("higher-scored file should hold the slot")
	}
	loser := findResolved(t, resolved, 1)
	if loser.AssignedSlotID != nil {
		t.Errorf("loser slot = %d, want none", *loser.AssignedSlotID)
	}
	if !strings.Contains(loser.Conflict, "taken by a higher-scored file") {
		t.Errorf("loser conflict = %q", loser.Conflict)
	}

	preview := p.Preview(lib, nil)
	if len(preview.Movies) != 1 || !preview.Movies[0].HasConflict {
		t.Fatal("expected a movie-level conflict")
	}
	if preview.Summary.Conflicts != 1 {
		t.Errorf("Summary.Conflicts = %d, want 1", preview.Summary.Conflicts)
	}
	if preview.Summary.FilesWithSlots != 1 {
		t.Errorf("Summary.FilesWithSlots = %d, want 1", preview.Summary.FilesWithSlots)
	}
	if preview.Summary.FilesNeedingReview != 1 {
		t.Errorf("Summary.FilesNeedingReview = %d, want 1", preview.Summary.FilesNeedingReview)
	}
}

func TestResolveOverrides(t *testing.T) {
	p := twoSlotPlanner()
	lib := movieLibrary(
		MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.Remux.mkv"},
		MediaFile{ID: 2, Path: "/movies/Movie (2020)/Movie.2020.1080p.WEB-DL.mkv"},
		MediaFile{ID: 3, Path: "/movies/Movie (2020)/Movie.2020.720p.HDTV.mkv"},
	)
	slotTwo := int64(2)
	overrides := []FileOverride{
		{FileID: 1, Type: OverrideIgnore},
		{FileID: 2, Type: OverrideAssign, SlotID: &slotTwo},
		{FileID: 3, Type: OverrideUnassign},
	}

	resolved := p.Resolve(lib, overrides)
	if len(resolved) != 2 {
		t.Fatalf("resolved %d files, want 2 (ignored file dropped)", len(resolved))
	}

	forced := findResolved(t, resolved, 2)
	if !forced.Forced {
		t.Error("assign override should mark the file forced")
	}
	if forced.AssignedSlotID == nil || *forced.AssignedSlotID != 2 {
		t.Errorf("forced slot = %v, want 2", forced.AssignedSlotID)
	}
	if forced.Confidence != 1.0 {
		t.Errorf("forced confidence = %v, want 1.0", forced.Confidence)
	}

	review := findResolved(t, resolved, 3)
	if review.AssignedSlotID != nil {
		t.Error("unassign override must leave the file without a slot")
	}
	if review.Conflict != "Manually marked for review" {
		t.Errorf("conflict = %q", review.Conflict)
	}
}

func TestResolveOverrideUnknownSlot(t *testing.T) {
	p := twoSlotPlanner()
	lib := movieLibrary(MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.WEB-DL.mkv"})
	missing := int64(99)

	resolved := p.Resolve(lib, []FileOverride{{FileID: 1, Type: OverrideAssign, SlotID: &missing}})

	r := findResolved(t, resolved, 1)
	if r.AssignedSlotID != nil {
		t.Error("override to an unknown slot must not assign")
	}
	if !strings.Contains(r.Conflict, "unknown slot") {
		t.Errorf("conflict = %q", r.Conflict)
	}
}

func TestResolveNoSlotAccepts(t *testing.T) {
	hd := quality.HD1080pProfile()
	p := NewPlanner([]slots.SlotWithProfile{slotConfig(1, 1, "HD", &hd)})
	lib := movieLibrary(MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.2160p.Remux.mkv"})

	resolved := p.Resolve(lib, nil)
	r := findResolved(t, resolved, 1)
	if r.AssignedSlotID != nil {
		t.Error("expected no assignment")
	}
	if r.Conflict != "No slot accepts this file" {
		t.Errorf("conflict = %q", r.Conflict)
	}
	if len(r.Rejections) != 1 {
		t.Errorf("rejections = %d, want 1", len(r.Rejections))
	}
}

func TestResolveStoredQualityFallback(t *testing.T) {
	p := twoSlotPlanner()
	bluray, ok := quality.ByName("Bluray-1080p")
	if !ok {
		t.Fatal("catalog missing Bluray-1080p")
	}
	// renamed file: the path carries no quality tokens
	lib := movieLibrary(MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.mkv", QualityID: &bluray.ID})

	resolved := p.Resolve(lib, nil)
	r := findResolved(t, resolved, 1)
	if r.Quality != "Bluray-1080p" {
		t.Errorf("Quality = %q, want Bluray-1080p", r.Quality)
	}
	if r.AssignedSlotID == nil {
		t.Error("stored quality should let the file match")
	}
}

func TestPreviewIsIdempotent(t *testing.T) {
	p := twoSlotPlanner()
	lib := movieLibrary(
		MediaFile{ID: 1, Path: "/movies/Movie (2020)/Movie.2020.1080p.WEB-DL.mkv"},
		MediaFile{ID: 2, Path: "/movies/Movie (2020)/Movie.2020.1080p.Remux.mkv"},
	)

	first := p.Preview(lib, nil)
	second := p.Preview(lib, nil)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated previews of the same snapshot differ")
	}
	if !reflect.DeepEqual(p.Resolve(lib, nil), p.Resolve(lib, nil)) {
		t.Error("repeated resolutions of the same snapshot differ")
	}
}

func TestPreviewSeries(t *testing.T) {
	p := twoSlotPlanner()
	lib := &LibrarySnapshot{
		Series: []Series{{
			ID:    5,
			Title: "Show",
			Episodes: []Episode{
				{ID: 21, SeasonNumber: 2, EpisodeNumber: 1, Files: []MediaFile{
					{ID: 201, Path: "/tv/Show/Season 2/Show.S02E01.1080p.WEB-DL.mkv"},
				}},
				{ID: 11, SeasonNumber: 1, EpisodeNumber: 1, Files: []MediaFile{
					{ID: 101, Path: "/tv/Show/Season 1/Show.S01E01.1080p.WEB-DL.mkv"},
				}},
			},
		}},
	}

	preview := p.Preview(lib, nil)

	if preview.Summary.TotalSeries != 1 {
		t.Errorf("TotalSeries = %d, want 1", preview.Summary.TotalSeries)
	}
	if preview.Summary.TotalFiles != 2 {
		t.Errorf("TotalFiles = %d, want 2", preview.Summary.TotalFiles)
	}
	if preview.Summary.FilesWithSlots != 2 {
		t.Errorf("FilesWithSlots = %d, want 2", preview.Summary.FilesWithSlots)
	}

	seasons := preview.Series[0].Seasons
	if len(seasons) != 2 {
		t.Fatalf("seasons = %d, want 2", len(seasons))
	}
	if seasons[0].SeasonNumber != 1 || seasons[1].SeasonNumber != 2 {
		t.Errorf("season order = [%d %d], want [1 2]",
			seasons[0].SeasonNumber, seasons[1].SeasonNumber)
	}
}
