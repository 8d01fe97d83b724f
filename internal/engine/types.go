package engine

import (
	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/slots"
)

// CurrentFile describes the file a slot currently holds for a media item.
type CurrentFile struct {
	FileID  int64
	Quality quality.Quality
}

// CandidateSlot is one slot in the immutable snapshot an evaluation runs
// against: the slot, its bound profile, and the file it currently holds (nil
// when empty).
type CandidateSlot struct {
	Slot        slots.Slot
	Profile     *quality.Profile
	CurrentFile *CurrentFile
}

// Assignment is a potential slot assignment for a release.
type Assignment struct {
	SlotID       int64   `json:"slotId"`
	SlotNumber   int     `json:"slotNumber"`
	SlotName     string  `json:"slotName"`
	MatchScore   float64 `json:"matchScore"`
	IsUpgrade    bool    `json:"isUpgrade"`
	IsNewFill    bool    `json:"isNewFill"`
	NeedsUpgrade bool    `json:"needsUpgrade"` // Accepted but below the profile cutoff
	Confidence   float64 `json:"confidence"`   // [0,1], margin over the runner-up

	MatchedQuality quality.Quality `json:"matchedQuality"`

	CurrentFileID  *int64 `json:"currentFileId,omitempty"`
	CurrentQuality string `json:"currentQuality,omitempty"`
}

// Rejection explains why a release did not fit a specific slot.
type Rejection struct {
	SlotID   int64    `json:"slotId"`
	SlotName string   `json:"slotName"`
	Reasons  []string `json:"reasons"`
}

// Evaluation is the result of scoring a release against every candidate slot.
// Assignments are sorted by MatchScore descending.
type Evaluation struct {
	Assignments       []Assignment `json:"assignments"`
	Rejections        []Rejection  `json:"rejections,omitempty"`
	RecommendedSlotID int64        `json:"recommendedSlotId,omitempty"`
	RequiresSelection bool         `json:"requiresSelection"`
	MatchingCount     int          `json:"matchingCount"`
}

// Empty reports whether no slot accepted the release.
func (e *Evaluation) Empty() bool {
	return len(e.Assignments) == 0
}
