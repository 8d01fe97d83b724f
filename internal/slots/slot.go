package slots

import "time"

// MediaType distinguishes the two kinds of library items a slot can hold a
// file for.
type MediaType string

const (
	MediaTypeMovie   MediaType = "movie"
	MediaTypeEpisode MediaType = "episode"
)

// Valid reports whether the media type is known.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeEpisode
}

// Slot represents a named version bucket a media item can independently hold
// a file for. Slots are globally defined and shared between movies and TV.
type Slot struct {
	ID               int64     `json:"id"`
	SlotNumber       int       `json:"slotNumber"`
	Name             string    `json:"name"`
	Enabled          bool      `json:"enabled"`
	QualityProfileID *int64    `json:"qualityProfileId"`
	DisplayOrder     int       `json:"displayOrder"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	// Dedicated root folder per media type, used by the organizer.
	MovieRootFolderID *int64 `json:"movieRootFolderId"`
	TVRootFolderID    *int64 `json:"tvRootFolderId"`
}

// RootFolderFor returns the slot's root folder for a media type.
func (s *Slot) RootFolderFor(mediaType MediaType) *int64 {
	if mediaType == MediaTypeMovie {
		return s.MovieRootFolderID
	}
	return s.TVRootFolderID
}

// UpdateSlotInput is the input for updating a slot.
type UpdateSlotInput struct {
	Name              string `json:"name"`
	Enabled           bool   `json:"enabled"`
	QualityProfileID  *int64 `json:"qualityProfileId"`
	DisplayOrder      int    `json:"displayOrder"`
	MovieRootFolderID *int64 `json:"movieRootFolderId"`
	TVRootFolderID    *int64 `json:"tvRootFolderId"`
}

// FileSlotAssignment is the durable record linking a file to a slot. It is
// the only artifact a matching decision leaves behind.
type FileSlotAssignment struct {
	ID        int64     `json:"id"`
	MediaType MediaType `json:"mediaType"`
	MediaID   int64     `json:"mediaId"`
	SlotID    int64     `json:"slotId"`
	FileID    int64     `json:"fileId"`
	CreatedAt time.Time `json:"createdAt"`
}
