package engine

import (
	"context"

	"github.com/versionarr/versionarr/internal/quality"
	"github.com/versionarr/versionarr/internal/slots"
)

// SlotSource loads the slot configuration and current files an evaluation
// snapshot is built from.
type SlotSource interface {
	ListEnabledWithProfiles(ctx context.Context) ([]slots.SlotWithProfile, error)
	SlotFiles(ctx context.Context, mediaType slots.MediaType, mediaID int64) (map[int64]slots.SlotFile, error)
}

// BuildCandidates assembles the immutable slot snapshot for one media item.
// The returned slice reflects a single point in time; concurrent assignment
// changes do not affect an evaluation already running against it.
func BuildCandidates(ctx context.Context, source SlotSource, mediaType slots.MediaType, mediaID int64) ([]CandidateSlot, error) {
	withProfiles, err := source.ListEnabledWithProfiles(ctx)
	if err != nil {
		return nil, err
	}
	files, err := source.SlotFiles(ctx, mediaType, mediaID)
	if err != nil {
		return nil, err
	}

	candidates := make([]CandidateSlot, 0, len(withProfiles))
	for _, entry := range withProfiles {
		candidate := CandidateSlot{
			Slot:    *entry.Slot,
			Profile: entry.Profile,
		}
		if file, ok := files[entry.Slot.ID]; ok {
			current := &CurrentFile{FileID: file.FileID}
			if file.Quality != nil {
				current.Quality = *file.Quality
			} else {
				current.Quality = quality.Unknown
			}
			candidate.CurrentFile = current
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
