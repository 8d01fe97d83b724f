package migration

import (
	"time"

	"github.com/versionarr/versionarr/internal/engine"
	"github.com/versionarr/versionarr/internal/slots"
)

// Preview is the complete dry-run of a library migration: what every file
// would be assigned, organized by media type, with nothing written.
type Preview struct {
	Movies  []MoviePreview  `json:"movies"`
	Series  []SeriesPreview `json:"series"`
	Summary Summary         `json:"summary"`
}

// MoviePreview shows the proposed assignments for a single movie.
type MoviePreview struct {
	MovieID     int64         `json:"movieId"`
	Title       string        `json:"title"`
	Year        int           `json:"year,omitempty"`
	Files       []FilePreview `json:"files"`
	HasConflict bool          `json:"hasConflict"`
	Conflicts   []string      `json:"conflicts,omitempty"`
}

// SeriesPreview shows the proposed assignments for a series, broken down per
// season and episode.
type SeriesPreview struct {
	SeriesID    int64           `json:"seriesId"`
	Title       string          `json:"title"`
	Seasons     []SeasonPreview `json:"seasons"`
	TotalFiles  int             `json:"totalFiles"`
	HasConflict bool            `json:"hasConflict"`
}

// SeasonPreview groups episode previews for one season.
type SeasonPreview struct {
	SeasonNumber int              `json:"seasonNumber"`
	Episodes     []EpisodePreview `json:"episodes"`
	TotalFiles   int              `json:"totalFiles"`
	HasConflict  bool             `json:"hasConflict"`
}

// EpisodePreview shows the proposed assignments for one episode.
type EpisodePreview struct {
	EpisodeID     int64         `json:"episodeId"`
	EpisodeNumber int           `json:"episodeNumber"`
	Title         string        `json:"title,omitempty"`
	Files         []FilePreview `json:"files"`
	HasConflict   bool          `json:"hasConflict"`
}

// FilePreview is the proposed assignment for a single file.
type FilePreview struct {
	FileID           int64              `json:"fileId"`
	Path             string             `json:"path"`
	Quality          string             `json:"quality,omitempty"`
	Size             int64              `json:"size"`
	ProposedSlotID   *int64             `json:"proposedSlotId"`
	ProposedSlotName string             `json:"proposedSlotName,omitempty"`
	MatchScore       float64            `json:"matchScore"`
	Confidence       float64            `json:"confidence"`
	NeedsReview      bool               `json:"needsReview"`
	Conflict         string             `json:"conflict,omitempty"`
	Rejections       []engine.Rejection `json:"rejections,omitempty"`
}

// Summary totals a preview.
type Summary struct {
	TotalMovies        int `json:"totalMovies"`
	TotalSeries        int `json:"totalSeries"`
	TotalFiles         int `json:"totalFiles"`
	FilesWithSlots     int `json:"filesWithSlots"`
	FilesNeedingReview int `json:"filesNeedingReview"`
	Conflicts          int `json:"conflicts"`
}

// Override types.
const (
	OverrideIgnore   = "ignore"
	OverrideAssign   = "assign"
	OverrideUnassign = "unassign"
)

// FileOverride replaces the planner's decision for one file: exclude it,
// force a slot, or force it into review.
type FileOverride struct {
	FileID int64  `json:"fileId"`
	Type   string `json:"type"`
	SlotID *int64 `json:"slotId,omitempty"` // required for "assign"
}

// ExecuteInput carries the optional per-file overrides for an execution.
type ExecuteInput struct {
	Overrides []FileOverride `json:"overrides,omitempty"`
}

// Result reports an executed migration run. A run can partially succeed:
// every error leaves its file unassigned and in review, already-written
// assignments stand.
type Result struct {
	RunID         string    `json:"runId"`
	Success       bool      `json:"success"`
	FilesAssigned int       `json:"filesAssigned"`
	FilesQueued   int       `json:"filesQueued"`
	Errors        []string  `json:"errors,omitempty"`
	CompletedAt   time.Time `json:"completedAt"`
}

// FileEvaluation is one file scored against every slot, before slot
// contention between sibling files is resolved.
type FileEvaluation struct {
	FileID    int64
	MediaType slots.MediaType
	MediaID   int64
	Path      string
	Quality   string
	Size      int64

	Assignments       []engine.Assignment // ranked, best first
	Rejections        []engine.Rejection
	RequiresSelection bool   // top slots tied, a human must pick
	Forced            bool   // set by an "assign" override
	Reason            string // why the file cannot match, when it cannot
}

// CanMatch reports whether at least one slot accepted the file.
func (e *FileEvaluation) CanMatch() bool {
	return len(e.Assignments) > 0
}

// ResolvedFile is a file evaluation plus the final assignment decision after
// sibling files competed for slots.
type ResolvedFile struct {
	FileEvaluation
	AssignedSlotID   *int64
	AssignedSlotName string
	MatchScore       float64
	Confidence       float64
	Conflict         string
}

// NeedsReview reports whether a human must look at this file before the
// assignment is acted on: no slot was assigned, or the top slots tied and the
// proposal is only a suggestion.
func (r *ResolvedFile) NeedsReview() bool {
	return r.AssignedSlotID == nil || (r.RequiresSelection && !r.Forced)
}

func (r *ResolvedFile) toPreview() FilePreview {
	preview := FilePreview{
		FileID:           r.FileID,
		Path:             r.Path,
		Quality:          r.Quality,
		Size:             r.Size,
		ProposedSlotID:   r.AssignedSlotID,
		ProposedSlotName: r.AssignedSlotName,
		MatchScore:       r.MatchScore,
		Confidence:       r.Confidence,
		NeedsReview:      r.NeedsReview(),
		Conflict:         r.Conflict,
		Rejections:       r.Rejections,
	}
	if r.AssignedSlotID == nil && len(r.Assignments) > 0 {
		preview.MatchScore = r.Assignments[0].MatchScore
	}
	return preview
}
