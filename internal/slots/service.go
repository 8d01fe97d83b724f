package slots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/versionarr/versionarr/internal/quality"
)

var (
	ErrSlotNotFound       = errors.New("version slot not found")
	ErrSlotOccupied       = errors.New("slot already holds a file for this item")
	ErrFileAssigned       = errors.New("file is already assigned to a slot")
	ErrAssignmentNotFound = errors.New("slot assignment not found")
)

// Service provides version slot and slot assignment operations.
type Service struct {
	db      *sql.DB
	quality *quality.Service
	logger  zerolog.Logger
}

// NewService creates a new slot service.
func NewService(db *sql.DB, qualityService *quality.Service, logger zerolog.Logger) *Service {
	return &Service{
		db:      db,
		quality: qualityService,
		logger:  logger.With().Str("component", "slots").Logger(),
	}
}

const slotColumns = `id, slot_number, name, enabled, quality_profile_id, display_order,
	movie_root_folder_id, tv_root_folder_id, created_at, updated_at`

// Get retrieves a slot by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM version_slots WHERE id = ?`, id)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, nil
}

// GetByNumber retrieves a slot by its slot number.
func (s *Service) GetByNumber(ctx context.Context, number int) (*Slot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM version_slots WHERE slot_number = ?`, number)
	slot, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, nil
}

// List returns all slots ordered by display order.
func (s *Service) List(ctx context.Context) ([]*Slot, error) {
	return s.list(ctx, `SELECT `+slotColumns+` FROM version_slots ORDER BY display_order, slot_number`)
}

// ListEnabled returns the enabled slots ordered by display order.
func (s *Service) ListEnabled(ctx context.Context) ([]*Slot, error) {
	return s.list(ctx, `SELECT `+slotColumns+` FROM version_slots WHERE enabled = 1 ORDER BY display_order, slot_number`)
}

func (s *Service) list(ctx context.Context, query string) ([]*Slot, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	var result []*Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		result = append(result, slot)
	}
	return result, rows.Err()
}

// Update updates a slot's configuration. A slot cannot be disabled while it
// still has file assignments.
func (s *Service) Update(ctx context.Context, id int64, input UpdateSlotInput) (*Slot, error) {
	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.QualityProfileID != nil {
		if _, err := s.quality.Get(ctx, *input.QualityProfileID); err != nil {
			return nil, err
		}
	}

	if slot.Enabled && !input.Enabled {
		var assigned int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM file_slot_assignments WHERE slot_id = ?`, id).Scan(&assigned)
		if err != nil {
			return nil, fmt.Errorf("failed to check slot assignments: %w", err)
		}
		if assigned > 0 {
			return nil, fmt.Errorf("%w: %d files are still assigned", ErrSlotOccupied, assigned)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE version_slots SET
			name = ?, enabled = ?, quality_profile_id = ?, display_order = ?,
			movie_root_folder_id = ?, tv_root_folder_id = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		input.Name, boolToInt(input.Enabled), input.QualityProfileID, input.DisplayOrder,
		input.MovieRootFolderID, input.TVRootFolderID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}

	s.logger.Info().Int64("id", id).Str("name", input.Name).
		Bool("enabled", input.Enabled).Msg("Updated version slot")
	return s.Get(ctx, id)
}

// SlotWithProfile pairs a slot with its resolved quality profile.
type SlotWithProfile struct {
	Slot    *Slot
	Profile *quality.Profile
}

// ListEnabledWithProfiles returns the enabled slots with their bound profiles
// resolved. Slots without a profile are included with a nil profile.
func (s *Service) ListEnabledWithProfiles(ctx context.Context) ([]SlotWithProfile, error) {
	enabled, err := s.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]SlotWithProfile, 0, len(enabled))
	for _, slot := range enabled {
		entry := SlotWithProfile{Slot: slot}
		if slot.QualityProfileID != nil {
			profile, err := s.quality.Get(ctx, *slot.QualityProfileID)
			if err != nil && !errors.Is(err, quality.ErrProfileNotFound) {
				return nil, err
			}
			entry.Profile = profile
		}
		result = append(result, entry)
	}
	return result, nil
}

// CheckExclusivity checks every pair of enabled, profile-bound slots for
// overlapping profiles. The warnings are advisory.
func (s *Service) CheckExclusivity(ctx context.Context) ([]quality.SlotOverlapWarning, error) {
	withProfiles, err := s.ListEnabledWithProfiles(ctx)
	if err != nil {
		return nil, err
	}

	configs := make([]quality.SlotConfig, 0, len(withProfiles))
	for _, entry := range withProfiles {
		configs = append(configs, quality.SlotConfig{
			SlotNumber: entry.Slot.SlotNumber,
			SlotName:   entry.Slot.Name,
			Enabled:    entry.Slot.Enabled,
			Profile:    entry.Profile,
		})
	}
	return quality.CheckSlotExclusivity(configs), nil
}

// AssignFile records a file as occupying a slot for a media item. The
// uniqueness constraints reject double-filling a slot and assigning one file
// to two slots.
func (s *Service) AssignFile(ctx context.Context, mediaType MediaType, mediaID, slotID, fileID int64) (*FileSlotAssignment, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("invalid media type %q", mediaType)
	}
	if _, err := s.Get(ctx, slotID); err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO file_slot_assignments (media_type, media_id, slot_id, file_id)
		VALUES (?, ?, ?, ?)`,
		string(mediaType), mediaID, slotID, fileID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, s.classifyConflict(ctx, mediaType, mediaID, slotID, fileID)
		}
		return nil, fmt.Errorf("failed to assign file to slot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment id: %w", err)
	}

	s.logger.Info().Str("mediaType", string(mediaType)).Int64("mediaId", mediaID).
		Int64("slotId", slotID).Int64("fileId", fileID).Msg("Assigned file to slot")

	return s.getAssignment(ctx, id)
}

func (s *Service) classifyConflict(ctx context.Context, mediaType MediaType, mediaID, slotID, fileID int64) error {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM file_slot_assignments
		WHERE media_type = ? AND media_id = ? AND slot_id = ?`,
		string(mediaType), mediaID, slotID).Scan(&n)
	if err == nil && n > 0 {
		return ErrSlotOccupied
	}
	return ErrFileAssigned
}

// ReassignFile replaces whatever file a slot holds for a media item. Used
// when an upgrade lands: the old assignment is dropped in the same
// transaction the new one is written.
func (s *Service) ReassignFile(ctx context.Context, mediaType MediaType, mediaID, slotID, fileID int64) (*FileSlotAssignment, error) {
	if !mediaType.Valid() {
		return nil, fmt.Errorf("invalid media type %q", mediaType)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM file_slot_assignments
		WHERE media_type = ? AND media_id = ? AND slot_id = ?`,
		string(mediaType), mediaID, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to clear slot assignment: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO file_slot_assignments (media_type, media_id, slot_id, file_id)
		VALUES (?, ?, ?, ?)`,
		string(mediaType), mediaID, slotID, fileID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrFileAssigned
		}
		return nil, fmt.Errorf("failed to assign file to slot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reassignment: %w", err)
	}

	s.logger.Info().Str("mediaType", string(mediaType)).Int64("mediaId", mediaID).
		Int64("slotId", slotID).Int64("fileId", fileID).Msg("Reassigned slot file")

	return s.getAssignment(ctx, id)
}

// UnassignFile removes a file's slot assignment. Returns ErrAssignmentNotFound
// if the file was not assigned.
func (s *Service) UnassignFile(ctx context.Context, mediaType MediaType, fileID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM file_slot_assignments WHERE media_type = ? AND file_id = ?`,
		string(mediaType), fileID)
	if err != nil {
		return fmt.Errorf("failed to unassign file: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssignmentNotFound
	}

	s.logger.Info().Str("mediaType", string(mediaType)).Int64("fileId", fileID).
		Msg("Unassigned file from slot")
	return nil
}

// GetAssignments returns a media item's slot assignments.
func (s *Service) GetAssignments(ctx context.Context, mediaType MediaType, mediaID int64) ([]*FileSlotAssignment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, media_type, media_id, slot_id, file_id, created_at
		FROM file_slot_assignments
		WHERE media_type = ? AND media_id = ?
		ORDER BY slot_id`,
		string(mediaType), mediaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var result []*FileSlotAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// GetFileAssignment returns the assignment for a specific file, or
// ErrAssignmentNotFound.
func (s *Service) GetFileAssignment(ctx context.Context, mediaType MediaType, fileID int64) (*FileSlotAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, media_type, media_id, slot_id, file_id, created_at
		FROM file_slot_assignments
		WHERE media_type = ? AND file_id = ?`,
		string(mediaType), fileID)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (s *Service) getAssignment(ctx context.Context, id int64) (*FileSlotAssignment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, media_type, media_id, slot_id, file_id, created_at
		FROM file_slot_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*Slot, error) {
	var slot Slot
	var enabled int64
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&slot.ID, &slot.SlotNumber, &slot.Name, &enabled,
		&slot.QualityProfileID, &slot.DisplayOrder,
		&slot.MovieRootFolderID, &slot.TVRootFolderID,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	slot.Enabled = enabled == 1
	if createdAt.Valid {
		slot.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		slot.UpdatedAt = updatedAt.Time
	}
	return &slot, nil
}

func scanAssignment(row rowScanner) (*FileSlotAssignment, error) {
	var a FileSlotAssignment
	var mediaType string
	var createdAt sql.NullTime

	err := row.Scan(&a.ID, &mediaType, &a.MediaID, &a.SlotID, &a.FileID, &createdAt)
	if err != nil {
		return nil, err
	}

	a.MediaType = MediaType(mediaType)
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return &a, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint failed")
}
