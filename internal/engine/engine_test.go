package engine

import (
	"strings"
	"testing"

	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/release"
	"github.com/versionarr/versionarr/internal/slots"
)

func testSlot(id int64, number int, name string) slots.Slot {
	profileID := id
	return slots.Slot{
		ID:               id,
		SlotNumber:       number,
		Name:             name,
		Enabled:          true,
		QualityProfileID: &profileID,
	}
}

func mustQuality(t *testing.T, name string) quality.Quality {
	t.Helper()
	q, ok := quality.ByName(name)
	if !ok {
		t.Fatalf("unknown quality %q", name)
	}
	return q
}

func blurayRelease(resolution int) *release.Release {
	return &release.Release{
		Title:      "Movie",
		Year:       2020,
		Resolution: resolution,
		Source:     quality.SourceBluray,
		VideoCodec: "x264",
	}
}

func TestEvaluateIdenticalSlotsTie(t *testing.T) {
	anyA := quality.DefaultProfile()
	anyB := quality.DefaultProfile()
	candidates := []CandidateSlot{
		{Slot: testSlot(2, 2, "Version 2"), Profile: &anyB},
		{Slot: testSlot(1, 1, "Version 1"), Profile: &anyA},
	}

	eval := Evaluate(blurayRelease(1080), candidates)

	if eval.MatchingCount != 2 {
		t.Fatalf("MatchingCount = %d, want 2", eval.MatchingCount)
	}
	if !eval.RequiresSelection {
		t.Error("expected RequiresSelection for tied slots")
	}
	// equal score and both empty: lower slot number ranks first
	if eval.Assignments[0].SlotNumber != 1 {
		t.Errorf("top slot number = %d, want 1", eval.Assignments[0].SlotNumber)
	}
	if eval.RecommendedSlotID != 1 {
		t.Errorf("RecommendedSlotID = %d, want 1", eval.RecommendedSlotID)
	}
	for _, a := range eval.Assignments {
		if a.Confidence != 0 {
			t.Errorf("slot %d confidence = %v, want 0 on a tie", a.SlotNumber, a.Confidence)
		}
	}
}

func TestEvaluateSingleSlot(t *testing.T) {
	profile := quality.DefaultProfile()
	candidates := []CandidateSlot{
		{Slot: testSlot(1, 1, "Version 1"), Profile: &profile},
	}

	eval := Evaluate(blurayRelease(1080), candidates)

	if eval.MatchingCount != 1 {
		t.Fatalf("MatchingCount = %d, want 1", eval.MatchingCount)
	}
	a := eval.Assignments[0]
	if a.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", a.Confidence)
	}
	if eval.RequiresSelection {
		t.Error("single empty-slot match should not require selection")
	}
	want := float64(mustQuality(t, "Bluray-1080p").Weight) * qualityScoreFactor
	if a.MatchScore != want {
		t.Errorf("MatchScore = %v, want %v", a.MatchScore, want)
	}
	if !a.IsNewFill {
		t.Error("expected IsNewFill for an empty slot")
	}
	if a.NeedsUpgrade {
		t.Error("Bluray-1080p meets the default cutoff, NeedsUpgrade should be false")
	}
}

func TestEvaluatePreferredBonusBreaksTie(t *testing.T) {
	plain := quality.DefaultProfile()
	boosted := quality.DefaultProfile()
	boosted.VideoCodecRules.SetMode("x264", quality.ModePreferred)

	candidates := []CandidateSlot{
		{Slot: testSlot(1, 1, "Plain"), Profile: &plain},
		{Slot: testSlot(2, 2, "Boosted"), Profile: &boosted},
	}

	eval := Evaluate(blurayRelease(1080), candidates)

	if eval.MatchingCount != 2 {
		t.Fatalf("MatchingCount = %d, want 2", eval.MatchingCount)
	}
	if eval.Assignments[0].SlotID != 2 {
		t.Errorf("top slot = %d, want the boosted slot", eval.Assignments[0].SlotID)
	}
	if eval.RequiresSelection {
		t.Error("distinct scores should not require selection")
	}
	if eval.Assignments[0].Confidence <= 0 {
		t.Errorf("top confidence = %v, want > 0", eval.Assignments[0].Confidence)
	}
	if eval.Assignments[0].MatchScore-eval.Assignments[1].MatchScore != 1.0 {
		t.Errorf("score gap = %v, want 1.0",
			eval.Assignments[0].MatchScore-eval.Assignments[1].MatchScore)
	}
}

func TestEvaluateQualityRejection(t *testing.T) {
	any := quality.DefaultProfile()
	hd := quality.HD1080pProfile()
	candidates := []CandidateSlot{
		{Slot: testSlot(1, 1, "Any"), Profile: &any},
		{Slot: testSlot(2, 2, "HD"), Profile: &hd},
	}

	rel := &release.Release{Title: "Movie", Resolution: 2160, Source: quality.SourceRemux}
	eval := Evaluate(rel, candidates)

	if eval.MatchingCount != 1 {
		t.Fatalf("MatchingCount = %d, want 1", eval.MatchingCount)
	}
	if len(eval.Rejections) != 1 {
		t.Fatalf("Rejections = %d, want 1", len(eval.Rejections))
	}
	rej := eval.Rejections[0]
	if rej.SlotID != 2 {
		t.Errorf("rejected slot = %d, want 2", rej.SlotID)
	}
	if len(rej.Reasons) == 0 || !strings.HasPrefix(rej.Reasons[0], "Quality:") {
		t.Errorf("reasons = %v, want a Quality: reason", rej.Reasons)
	}
}

func TestEvaluateAttributeRejection(t *testing.T) {
	profile := quality.DefaultProfile()
	profile.HDRRules.SetMode("DV", quality.ModeRequired)

	candidates := []CandidateSlot{
		{Slot: testSlot(1, 1, "DV only"), Profile: &profile},
	}

	// SDR release against a DV-required slot
	eval := Evaluate(blurayRelease(1080), candidates)

	if !eval.Empty() {
		t.Fatal("expected no assignments")
	}
	if len(eval.Rejections) != 1 {
		t.Fatalf("Rejections = %d, want 1", len(eval.Rejections))
	}
	if !strings.HasPrefix(eval.Rejections[0].Reasons[0], "HDR:") {
		t.Errorf("reasons = %v, want an HDR: reason", eval.Rejections[0].Reasons)
	}
	if eval.RequiresSelection {
		t.Error("an empty evaluation must not require selection")
	}
}

func TestEvaluateUpgradeFlags(t *testing.T) {
	profile := quality.DefaultProfile()
	current := mustQuality(t, "WEBDL-1080p")
	candidates := []CandidateSlot{
		{
			Slot:        testSlot(1, 1, "Version 1"),
			Profile:     &profile,
			CurrentFile: &CurrentFile{FileID: 42, Quality: current},
		},
	}

	eval := Evaluate(blurayRelease(1080), candidates)

	if eval.MatchingCount != 1 {
		t.Fatalf("MatchingCount = %d, want 1", eval.MatchingCount)
	}
	a := eval.Assignments[0]
	if a.IsNewFill {
		t.Error("occupied slot must not report IsNewFill")
	}
	if !a.IsUpgrade {
		t.Error("Bluray-1080p over WEBDL-1080p should be an upgrade under balanced strategy")
	}
	if a.CurrentFileID == nil || *a.CurrentFileID != 42 {
		t.Errorf("CurrentFileID = %v, want 42", a.CurrentFileID)
	}
	if a.CurrentQuality != "WEBDL-1080p" {
		t.Errorf("CurrentQuality = %q, want WEBDL-1080p", a.CurrentQuality)
	}
	if eval.RequiresSelection {
		t.Error("a clean upgrade should not require selection")
	}
}

func TestEvaluateNoActionableSlot(t *testing.T) {
	profile := quality.DefaultProfile()
	atCutoff := mustQuality(t, "Bluray-1080p")
	candidates := []CandidateSlot{
		{
			Slot:        testSlot(1, 1, "Version 1"),
			Profile:     &profile,
			CurrentFile: &CurrentFile{FileID: 7, Quality: atCutoff},
		},
	}

	// the slot accepts the release but already holds an equal quality
	eval := Evaluate(blurayRelease(1080), candidates)

	if eval.MatchingCount != 1 {
		t.Fatalf("MatchingCount = %d, want 1", eval.MatchingCount)
	}
	a := eval.Assignments[0]
	if a.IsUpgrade || a.IsNewFill {
		t.Errorf("IsUpgrade = %v, IsNewFill = %v, want both false", a.IsUpgrade, a.IsNewFill)
	}
	if !eval.RequiresSelection {
		t.Error("expected RequiresSelection when no slot is empty or upgradeable")
	}
}

func TestEvaluateSkipsDisabledAndUnbound(t *testing.T) {
	profile := quality.DefaultProfile()
	disabled := testSlot(1, 1, "Disabled")
	disabled.Enabled = false
	unbound := testSlot(2, 2, "Unbound")
	unbound.QualityProfileID = nil

	candidates := []CandidateSlot{
		{Slot: disabled, Profile: &profile},
		{Slot: unbound, Profile: nil},
	}

	eval := Evaluate(blurayRelease(1080), candidates)

	if !eval.Empty() {
		t.Fatalf("expected empty evaluation, got %d assignments", len(eval.Assignments))
	}
	if len(eval.Rejections) != 0 {
		t.Errorf("Rejections = %d, want 0", len(eval.Rejections))
	}
	if eval.RequiresSelection {
		t.Error("RequiresSelection must stay false so callers can fall back")
	}
	if eval.RecommendedSlotID != 0 {
		t.Errorf("RecommendedSlotID = %d, want 0", eval.RecommendedSlotID)
	}
}
