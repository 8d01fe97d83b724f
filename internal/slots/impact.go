package slots

import (
	"context"
	"fmt"
)

// FileImpact is one assigned file checked against a prospective profile.
type FileImpact struct {
	FileID     int64     `json:"fileId"`
	MediaType  MediaType `json:"mediaType"`
	MediaID    int64     `json:"mediaId"`
	Quality    string    `json:"quality,omitempty"`
	Compatible bool      `json:"compatible"`
	Reason     string    `json:"reason,omitempty"`
}

// ProfileImpact summarizes what binding a different profile would mean for
// the files a slot currently holds.
type ProfileImpact struct {
	SlotID        int64        `json:"slotId"`
	ProfileID     int64        `json:"profileId"`
	ProfileName   string       `json:"profileName"`
	AffectedFiles int          `json:"affectedFiles"`
	Incompatible  int          `json:"incompatible"`
	Files         []FileImpact `json:"files"`
}

// ProfileChangeImpact reports how a slot's assigned files would fare under a
// different quality profile. Advisory only: the caller decides whether to
// keep the files, reevaluate them, or cancel the change.
func (s *Service) ProfileChangeImpact(ctx context.Context, slotID, profileID int64) (*ProfileImpact, error) {
	if _, err := s.Get(ctx, slotID); err != nil {
		return nil, err
	}
	profile, err := s.quality.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT media_type, media_id, file_id FROM file_slot_assignments WHERE slot_id = ?`,
		slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query slot assignments: %w", err)
	}
	defer rows.Close()

	impact := &ProfileImpact{
		SlotID:      slotID,
		ProfileID:   profileID,
		ProfileName: profile.Name,
		Files:       []FileImpact{},
	}

	for rows.Next() {
		var mediaType string
		file := FileImpact{}
		if err := rows.Scan(&mediaType, &file.MediaID, &file.FileID); err != nil {
			return nil, fmt.Errorf("failed to scan slot assignment: %w", err)
		}
		file.MediaType = MediaType(mediaType)

		q, err := s.fileQuality(ctx, file.MediaType, file.FileID)
		if err != nil {
			return nil, err
		}
		switch {
		case q == nil:
			file.Reason = "file has no recognized quality"
		case profile.IsAllowed(q.ID):
			file.Quality = q.Name
			file.Compatible = true
		default:
			file.Quality = q.Name
			file.Reason = fmt.Sprintf("%s is not allowed by profile %q", q.Name, profile.Name)
		}

		impact.AffectedFiles++
		if !file.Compatible {
			impact.Incompatible++
		}
		impact.Files = append(impact.Files, file)
	}
	return impact, rows.Err()
}
