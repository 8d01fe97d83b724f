package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/versionarr/versionarr/internal/quality"
)

// Slot fill states.
const (
	StateEmpty      = "empty"
	StateFilled     = "filled"
	StateUpgradable = "upgradable"
)

// SlotFileStatus describes one enabled slot's state for a media item.
type SlotFileStatus struct {
	SlotID     int64  `json:"slotId"`
	SlotNumber int    `json:"slotNumber"`
	SlotName   string `json:"slotName"`
	State      string `json:"state"`
	FileID     *int64 `json:"fileId,omitempty"`
	Quality    string `json:"quality,omitempty"`
	AtCutoff   bool   `json:"atCutoff"`
}

// MediaSlotStatus aggregates a media item's slot states.
type MediaSlotStatus struct {
	MediaType       MediaType        `json:"mediaType"`
	MediaID         int64            `json:"mediaId"`
	Slots           []SlotFileStatus `json:"slots"`
	FilledCount     int              `json:"filledCount"`
	UpgradableCount int              `json:"upgradableCount"`
}

// GetMediaSlotStatus reports the fill state of every enabled slot for one
// media item. Disabled and unbound slots are omitted.
func (s *Service) GetMediaSlotStatus(ctx context.Context, mediaType MediaType, mediaID int64) (*MediaSlotStatus, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("invalid media type %q", mediaType)
	}

	withProfiles, err := s.ListEnabledWithProfiles(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.GetAssignments(ctx, mediaType, mediaID)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[int64]*FileSlotAssignment, len(assignments))
	for _, a := range assignments {
		bySlot[a.SlotID] = a
	}

	status := &MediaSlotStatus{
		MediaType: mediaType,
		MediaID:   mediaID,
		Slots:     []SlotFileStatus{},
	}

	for _, entry := range withProfiles {
		if entry.Profile == nil {
			continue
		}

		slotStatus := SlotFileStatus{
			SlotID:     entry.Slot.ID,
			SlotNumber: entry.Slot.SlotNumber,
			SlotName:   entry.Slot.Name,
			State:      StateEmpty,
		}

		if a, ok := bySlot[entry.Slot.ID]; ok {
			slotStatus.FileID = &a.FileID
			status.FilledCount++

			q, err := s.fileQuality(ctx, mediaType, a.FileID)
			if err != nil {
				return nil, err
			}
			if q != nil {
				slotStatus.Quality = q.Name
				slotStatus.AtCutoff = entry.Profile.AtCutoff(*q)
			}

			if !slotStatus.AtCutoff && entry.Profile.UpgradesEnabled {
				slotStatus.State = StateUpgradable
				status.UpgradableCount++
			} else {
				slotStatus.State = StateFilled
			}
		}

		status.Slots = append(status.Slots, slotStatus)
	}

	return status, nil
}

// SlotUsage summarizes one slot's library-wide fill counts.
type SlotUsage struct {
	SlotID        int64  `json:"slotId"`
	SlotNumber    int    `json:"slotNumber"`
	SlotName      string `json:"slotName"`
	AssignedFiles int    `json:"assignedFiles"`
	Upgradable    int    `json:"upgradable"`
}

// GetSlotUsage reports per-slot assignment counts across the whole library.
func (s *Service) GetSlotUsage(ctx context.Context) ([]SlotUsage, error) {
	withProfiles, err := s.ListEnabledWithProfiles(ctx)
	if err != nil {
		return nil, err
	}

	usage := make([]SlotUsage, 0, len(withProfiles))
	for _, entry := range withProfiles {
		slotUsage := SlotUsage{
			SlotID:     entry.Slot.ID,
			SlotNumber: entry.Slot.SlotNumber,
			SlotName:   entry.Slot.Name,
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT media_type, file_id FROM file_slot_assignments WHERE slot_id = ?`,
			entry.Slot.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query slot usage: %w", err)
		}

		type assignedFile struct {
			mediaType MediaType
			fileID    int64
		}
		var files []assignedFile
		for rows.Next() {
			var f assignedFile
			var mediaType string
			if err := rows.Scan(&mediaType, &f.fileID); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan slot usage: %w", err)
			}
			f.mediaType = MediaType(mediaType)
			files = append(files, f)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}

		slotUsage.AssignedFiles = len(files)
		if entry.Profile != nil && entry.Profile.UpgradesEnabled {
			for _, f := range files {
				q, err := s.fileQuality(ctx, f.mediaType, f.fileID)
				if err != nil {
					return nil, err
				}
				if q != nil && !entry.Profile.AtCutoff(*q) {
					slotUsage.Upgradable++
				}
			}
		}

		usage = append(usage, slotUsage)
	}
	return usage, nil
}

// SlotFile is the file a slot currently holds, with its resolved quality.
type SlotFile struct {
	FileID  int64
	Quality *quality.Quality
}

// SlotFiles returns the files a media item's slots currently hold, keyed by
// slot ID.
func (s *Service) SlotFiles(ctx context.Context, mediaType MediaType, mediaID int64) (map[int64]SlotFile, error) {
	assignments, err := s.GetAssignments(ctx, mediaType, mediaID)
	if err != nil {
		return nil, err
	}

	files := make(map[int64]SlotFile, len(assignments))
	for _, a := range assignments {
		q, err := s.fileQuality(ctx, mediaType, a.FileID)
		if err != nil {
			return nil, err
		}
		files[a.SlotID] = SlotFile{FileID: a.FileID, Quality: q}
	}
	return files, nil
}

// fileQuality resolves the stored quality of a media file. Returns nil when
// the file row is gone or carries no recognized quality.
func (s *Service) fileQuality(ctx context.Context, mediaType MediaType, fileID int64) (*quality.Quality, error) {
	table := "movie_files"
	if mediaType == MediaTypeEpisode {
		table = "episode_files"
	}

	var qualityID *int
	err := s.db.QueryRowContext(ctx,
		`SELECT quality_id FROM `+table+` WHERE id = ?`, fileID).Scan(&qualityID)
	if errors.Is(err, sql.ErrNoRows) {
		// Assignment may outlive the file row briefly during deletes.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file quality: %w", err)
	}
	if qualityID == nil {
		return nil, nil
	}

	q, ok := quality.ByID(*qualityID)
	if !ok {
		return nil, nil
	}
	return &q, nil
}
