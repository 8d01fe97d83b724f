package migration

import (
	"fmt"
	"sort"

	"github.com/versionarr/versionarr/internal/engine"
	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/release"
	"github.com/versionarr/versionarr/internal/slots"
)

// Planner computes migration plans. It is pure: the same snapshot, slot
// configuration and overrides always produce the same plan, and planning
// never writes anything, so previews can be regenerated freely.
type Planner struct {
	slots      []slots.SlotWithProfile
	candidates []engine.CandidateSlot
	slotNames  map[int64]string
}

// NewPlanner creates a planner for the given slot configuration. Only
// enabled slots with a bound profile participate.
func NewPlanner(slotConfigs []slots.SlotWithProfile) *Planner {
	p := &Planner{
		slots:     slotConfigs,
		slotNames: make(map[int64]string),
	}
	for _, entry := range slotConfigs {
		if !entry.Slot.Enabled || entry.Profile == nil {
			continue
		}
		// Migration targets empty slots: candidates carry no current file.
		p.candidates = append(p.candidates, engine.CandidateSlot{
			Slot:    *entry.Slot,
			Profile: entry.Profile,
		})
		p.slotNames[entry.Slot.ID] = entry.Slot.Name
	}
	return p
}

// SlotCount returns the number of usable slots.
func (p *Planner) SlotCount() int {
	return len(p.candidates)
}

// Preview computes the full dry-run plan for a snapshot.
func (p *Planner) Preview(lib *LibrarySnapshot, overrides []FileOverride) *Preview {
	overrideMap := indexOverrides(overrides)
	preview := &Preview{
		Movies: []MoviePreview{},
		Series: []SeriesPreview{},
	}

	for _, movie := range lib.Movies {
		moviePreview := p.previewMovie(movie, overrideMap)
		if len(moviePreview.Files) == 0 {
			continue
		}
		preview.Summary.TotalFiles += len(moviePreview.Files)
		preview.Movies = append(preview.Movies, moviePreview)
		preview.Summary.TotalMovies++
	}

	for _, series := range lib.Series {
		seriesPreview := p.previewSeries(series, overrideMap)
		if seriesPreview.TotalFiles == 0 {
			continue
		}
		preview.Summary.TotalFiles += seriesPreview.TotalFiles
		preview.Series = append(preview.Series, seriesPreview)
		preview.Summary.TotalSeries++
	}

	tallySummary(preview)
	return preview
}

// Resolve computes the flat list of assignment decisions for a snapshot.
// This is the single authority both preview and execution draw from.
func (p *Planner) Resolve(lib *LibrarySnapshot, overrides []FileOverride) []ResolvedFile {
	overrideMap := indexOverrides(overrides)

	var resolved []ResolvedFile
	for _, movie := range lib.Movies {
		evals := p.evaluateFiles(slots.MediaTypeMovie, movie.ID, movie.Files, overrideMap)
		resolved = append(resolved, p.resolveItem(evals)...)
	}
	for _, series := range lib.Series {
		for _, episode := range series.Episodes {
			evals := p.evaluateFiles(slots.MediaTypeEpisode, episode.ID, episode.Files, overrideMap)
			resolved = append(resolved, p.resolveItem(evals)...)
		}
	}
	return resolved
}

func indexOverrides(overrides []FileOverride) map[int64]FileOverride {
	m := make(map[int64]FileOverride, len(overrides))
	for _, o := range overrides {
		m[o.FileID] = o
	}
	return m
}

// evaluateFiles scores every file of one media item, honoring overrides.
// Ignored files are dropped entirely.
func (p *Planner) evaluateFiles(mediaType slots.MediaType, mediaID int64, files []MediaFile, overrides map[int64]FileOverride) []FileEvaluation {
	evals := make([]FileEvaluation, 0, len(files))
	for _, file := range files {
		if override, ok := overrides[file.ID]; ok {
			if forced := p.applyOverride(override, mediaType, mediaID, file); forced != nil {
				evals = append(evals, *forced)
			}
			continue
		}
		evals = append(evals, p.evaluateFile(mediaType, mediaID, file))
	}
	return evals
}

// evaluateFile parses a file path and runs it through the engine against
// every usable slot.
func (p *Planner) evaluateFile(mediaType slots.MediaType, mediaID int64, file MediaFile) FileEvaluation {
	eval := FileEvaluation{
		FileID:    file.ID,
		MediaType: mediaType,
		MediaID:   mediaID,
		Path:      file.Path,
		Size:      file.Size,
	}

	rel := release.ParsePath(file.Path)
	if stored := file.StoredQuality(); stored != nil {
		eval.Quality = stored.Name
		// The stored quality wins over whatever the filename suggests; the
		// path may have been renamed since import.
		if rel.Resolution == 0 {
			rel.Resolution = stored.Resolution
		}
		if rel.Source == "" {
			rel.Source = stored.Source
		}
	} else if q, ok := quality.ByResolutionSource(rel.Resolution, rel.Source); ok {
		eval.Quality = q.Name
	}

	result := engine.Evaluate(rel, p.candidates)
	eval.Assignments = result.Assignments
	eval.Rejections = result.Rejections
	eval.RequiresSelection = result.RequiresSelection
	if !eval.CanMatch() {
		eval.Reason = "No slot accepts this file"
	}
	return eval
}

func (p *Planner) applyOverride(override FileOverride, mediaType slots.MediaType, mediaID int64, file MediaFile) *FileEvaluation {
	base := FileEvaluation{
		FileID:    file.ID,
		MediaType: mediaType,
		MediaID:   mediaID,
		Path:      file.Path,
		Size:      file.Size,
	}
	if stored := file.StoredQuality(); stored != nil {
		base.Quality = stored.Name
	}

	switch override.Type {
	case OverrideIgnore:
		return nil
	case OverrideAssign:
		if override.SlotID == nil {
			base.Reason = "Override names no slot"
			return &base
		}
		name, ok := p.slotNames[*override.SlotID]
		if !ok {
			base.Reason = fmt.Sprintf("Override names unknown slot %d", *override.SlotID)
			return &base
		}
		base.Forced = true
		base.Assignments = []engine.Assignment{{
			SlotID:     *override.SlotID,
			SlotName:   name,
			Confidence: 1.0,
		}}
		return &base
	case OverrideUnassign:
		base.Reason = "Manually marked for review"
		return &base
	default:
		base.Reason = fmt.Sprintf("Unknown override type %q", override.Type)
		return &base
	}
}

// resolveItem resolves slot contention between the files of one media item:
// each slot takes at most one file, best score first. Forced files claim
// their slot before anything else.
func (p *Planner) resolveItem(evals []FileEvaluation) []ResolvedFile {
	sort.SliceStable(evals, func(i, j int) bool {
		if evals[i].Forced != evals[j].Forced {
			return evals[i].Forced
		}
		return topScore(&evals[i]) > topScore(&evals[j])
	})

	filled := make(map[int64]int64)
	resolved := make([]ResolvedFile, 0, len(evals))
	for i := range evals {
		resolved = append(resolved, p.resolveOne(&evals[i], filled))
	}

	sort.Slice(resolved, func(i, j int) bool {
		return resolved[i].FileID < resolved[j].FileID
	})
	return resolved
}

func (p *Planner) resolveOne(eval *FileEvaluation, filled map[int64]int64) ResolvedFile {
	result := ResolvedFile{FileEvaluation: *eval}

	if !eval.CanMatch() {
		result.Conflict = eval.Reason
		return result
	}

	// Walk the file's own ranking: if the best slot is taken by a sibling,
	// take the next slot that accepted it.
	for i := range eval.Assignments {
		assignment := &eval.Assignments[i]
		if _, taken := filled[assignment.SlotID]; taken {
			continue
		}
		filled[assignment.SlotID] = eval.FileID
		result.AssignedSlotID = &assignment.SlotID
		result.AssignedSlotName = assignment.SlotName
		result.MatchScore = assignment.MatchScore
		result.Confidence = assignment.Confidence
		return result
	}

	result.Conflict = fmt.Sprintf("%s taken by a higher-scored file", eval.Assignments[0].SlotName)
	return result
}

func topScore(eval *FileEvaluation) float64 {
	if len(eval.Assignments) == 0 {
		return -1
	}
	return eval.Assignments[0].MatchScore
}

func (p *Planner) previewMovie(movie Movie, overrides map[int64]FileOverride) MoviePreview {
	evals := p.evaluateFiles(slots.MediaTypeMovie, movie.ID, movie.Files, overrides)
	files, hasConflict := p.previewFiles(evals)

	preview := MoviePreview{
		MovieID:     movie.ID,
		Title:       movie.Title,
		Year:        movie.Year,
		Files:       files,
		HasConflict: hasConflict,
	}
	if len(evals) > len(p.candidates) {
		preview.HasConflict = true
		preview.Conflicts = append(preview.Conflicts,
			fmt.Sprintf("%d files but only %d slots enabled", len(evals), len(p.candidates)))
	}
	return preview
}

func (p *Planner) previewSeries(series Series, overrides map[int64]FileOverride) SeriesPreview {
	preview := SeriesPreview{
		SeriesID: series.ID,
		Title:    series.Title,
	}

	seasons := make(map[int]*SeasonPreview)
	for _, episode := range series.Episodes {
		evals := p.evaluateFiles(slots.MediaTypeEpisode, episode.ID, episode.Files, overrides)
		if len(evals) == 0 {
			continue
		}
		files, hasConflict := p.previewFiles(evals)
		episodePreview := EpisodePreview{
			EpisodeID:     episode.ID,
			EpisodeNumber: episode.EpisodeNumber,
			Title:         episode.Title,
			Files:         files,
			HasConflict:   hasConflict || len(evals) > len(p.candidates),
		}

		season, ok := seasons[episode.SeasonNumber]
		if !ok {
			season = &SeasonPreview{SeasonNumber: episode.SeasonNumber}
			seasons[episode.SeasonNumber] = season
		}
		season.Episodes = append(season.Episodes, episodePreview)
		season.TotalFiles += len(files)
		if episodePreview.HasConflict {
			season.HasConflict = true
		}
	}

	for _, season := range seasons {
		preview.Seasons = append(preview.Seasons, *season)
		preview.TotalFiles += season.TotalFiles
		if season.HasConflict {
			preview.HasConflict = true
		}
	}
	sort.Slice(preview.Seasons, func(i, j int) bool {
		return preview.Seasons[i].SeasonNumber < preview.Seasons[j].SeasonNumber
	})
	return preview
}

func (p *Planner) previewFiles(evals []FileEvaluation) ([]FilePreview, bool) {
	resolved := p.resolveItem(evals)
	files := make([]FilePreview, 0, len(resolved))
	hasConflict := false
	for i := range resolved {
		files = append(files, resolved[i].toPreview())
		if resolved[i].Conflict != "" {
			hasConflict = true
		}
	}
	return files, hasConflict
}

func tallyFile(file *FilePreview, summary *Summary) {
	if file.ProposedSlotID != nil && file.Conflict == "" {
		summary.FilesWithSlots++
	}
	if file.NeedsReview {
		summary.FilesNeedingReview++
	}
	if file.Conflict != "" {
		summary.Conflicts++
	}
}

func tallySummary(preview *Preview) {
	for i := range preview.Movies {
		for j := range preview.Movies[i].Files {
			tallyFile(&preview.Movies[i].Files[j], &preview.Summary)
		}
	}
	for i := range preview.Series {
		for j := range preview.Series[i].Seasons {
			for k := range preview.Series[i].Seasons[j].Episodes {
				for l := range preview.Series[i].Seasons[j].Episodes[k].Files {
					tallyFile(&preview.Series[i].Seasons[j].Episodes[k].Files[l], &preview.Summary)
				}
			}
		}
	}
}
