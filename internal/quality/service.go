package quality

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	ErrProfileNotFound = errors.New("quality profile not found")
	ErrProfileInUse    = errors.New("quality profile is in use")
	ErrInvalidProfile  = errors.New("invalid quality profile")
)

// Service provides quality profile operations.
type Service struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewService creates a new quality profile service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "quality").Logger(),
	}
}

// ProfileInput carries the user-editable profile fields.
type ProfileInput struct {
	Name                    string          `json:"name"`
	Cutoff                  int             `json:"cutoff"`
	Items                   []QualityItem   `json:"items"`
	UpgradesEnabled         bool            `json:"upgradesEnabled"`
	UpgradeStrategy         UpgradeStrategy `json:"upgradeStrategy"`
	CutoffOverridesStrategy bool            `json:"cutoffOverridesStrategy"`
	AllowAutoApprove        bool            `json:"allowAutoApprove"`
	HDRRules                RuleSet         `json:"hdrRules"`
	VideoCodecRules         RuleSet         `json:"videoCodecRules"`
	AudioCodecRules         RuleSet         `json:"audioCodecRules"`
	AudioChannelRules       RuleSet         `json:"audioChannelRules"`
}

func (in *ProfileInput) toProfile() Profile {
	p := Profile{
		Name:                    in.Name,
		Cutoff:                  in.Cutoff,
		Items:                   in.Items,
		UpgradesEnabled:         in.UpgradesEnabled,
		UpgradeStrategy:         in.UpgradeStrategy,
		CutoffOverridesStrategy: in.CutoffOverridesStrategy,
		AllowAutoApprove:        in.AllowAutoApprove,
		HDRRules:                in.HDRRules,
		VideoCodecRules:         in.VideoCodecRules,
		AudioCodecRules:         in.AudioCodecRules,
		AudioChannelRules:       in.AudioChannelRules,
	}
	if p.UpgradeStrategy == "" {
		p.UpgradeStrategy = StrategyBalanced
	}
	p.HDRRules.Kind = KindHDR
	p.VideoCodecRules.Kind = KindVideoCodec
	p.AudioCodecRules.Kind = KindAudioCodec
	p.AudioChannelRules.Kind = KindAudioChannels
	return p
}

const profileColumns = `id, name, cutoff, items, upgrades_enabled, upgrade_strategy,
	cutoff_overrides_strategy, allow_auto_approve,
	hdr_rules, video_codec_rules, audio_codec_rules, audio_channel_rules,
	created_at, updated_at`

// Get retrieves a quality profile by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM quality_profiles WHERE id = ?`, id)
	p, err := s.scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get quality profile: %w", err)
	}
	return p, nil
}

// GetByName retrieves a quality profile by name.
func (s *Service) GetByName(ctx context.Context, name string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM quality_profiles WHERE name = ?`, name)
	p, err := s.scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get quality profile: %w", err)
	}
	return p, nil
}

// List returns all quality profiles ordered by name.
func (s *Service) List(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM quality_profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := s.scanProfile(rows)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to parse quality profile")
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Create creates a new quality profile after validating it.
func (s *Service) Create(ctx context.Context, input ProfileInput) (*Profile, error) {
	p := input.toProfile()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, err)
	}

	cols, err := serializeProfile(&p)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quality_profiles
			(name, cutoff, items, upgrades_enabled, upgrade_strategy,
			 cutoff_overrides_strategy, allow_auto_approve,
			 hdr_rules, video_codec_rules, audio_codec_rules, audio_channel_rules)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Cutoff, cols.items, boolToInt(p.UpgradesEnabled), string(p.UpgradeStrategy),
		boolToInt(p.CutoffOverridesStrategy), boolToInt(p.AllowAutoApprove),
		cols.hdr, cols.videoCodec, cols.audioCodec, cols.audioChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to create quality profile: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read profile id: %w", err)
	}

	s.logger.Info().Int64("id", id).Str("name", p.Name).Msg("Created quality profile")
	return s.Get(ctx, id)
}

// Update updates an existing quality profile.
func (s *Service) Update(ctx context.Context, id int64, input ProfileInput) (*Profile, error) {
	p := input.toProfile()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, err)
	}

	cols, err := serializeProfile(&p)
	if err != nil {
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE quality_profiles SET
			name = ?, cutoff = ?, items = ?, upgrades_enabled = ?, upgrade_strategy = ?,
			cutoff_overrides_strategy = ?, allow_auto_approve = ?,
			hdr_rules = ?, video_codec_rules = ?, audio_codec_rules = ?, audio_channel_rules = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Name, p.Cutoff, cols.items, boolToInt(p.UpgradesEnabled), string(p.UpgradeStrategy),
		boolToInt(p.CutoffOverridesStrategy), boolToInt(p.AllowAutoApprove),
		cols.hdr, cols.videoCodec, cols.audioCodec, cols.audioChannels, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update quality profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrProfileNotFound
	}

	s.logger.Info().Int64("id", id).Str("name", p.Name).Msg("Updated quality profile")
	return s.Get(ctx, id)
}

// Delete deletes a quality profile unless a slot or media item references it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	var inUse int
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM version_slots WHERE quality_profile_id = ?) +
			(SELECT COUNT(*) FROM movies WHERE quality_profile_id = ?) +
			(SELECT COUNT(*) FROM series WHERE quality_profile_id = ?)`,
		id, id, id).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("failed to check profile usage: %w", err)
	}
	if inUse > 0 {
		return ErrProfileInUse
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM quality_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete quality profile: %w", err)
	}

	s.logger.Info().Int64("id", id).Msg("Deleted quality profile")
	return nil
}

// EnsureDefaults creates the seed profiles when none exist.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	profiles, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(profiles) > 0 {
		return nil
	}

	for _, p := range []Profile{DefaultProfile(), HD1080pProfile(), Ultra4KProfile()} {
		_, err := s.Create(ctx, ProfileInput{
			Name:              p.Name,
			Cutoff:            p.Cutoff,
			Items:             p.Items,
			UpgradesEnabled:   p.UpgradesEnabled,
			UpgradeStrategy:   p.UpgradeStrategy,
			HDRRules:          p.HDRRules,
			VideoCodecRules:   p.VideoCodecRules,
			AudioCodecRules:   p.AudioCodecRules,
			AudioChannelRules: p.AudioChannelRules,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("name", p.Name).Msg("Failed to create default profile")
		}
	}

	s.logger.Info().Msg("Created default quality profiles")
	return nil
}

type serializedColumns struct {
	items, hdr, videoCodec, audioCodec, audioChannels string
}

func serializeProfile(p *Profile) (serializedColumns, error) {
	var cols serializedColumns
	var err error

	if cols.items, err = SerializeItems(p.Items); err != nil {
		return cols, fmt.Errorf("failed to serialize items: %w", err)
	}
	if cols.hdr, err = SerializeRuleSet(p.HDRRules); err != nil {
		return cols, fmt.Errorf("failed to serialize HDR rules: %w", err)
	}
	if cols.videoCodec, err = SerializeRuleSet(p.VideoCodecRules); err != nil {
		return cols, fmt.Errorf("failed to serialize video codec rules: %w", err)
	}
	if cols.audioCodec, err = SerializeRuleSet(p.AudioCodecRules); err != nil {
		return cols, fmt.Errorf("failed to serialize audio codec rules: %w", err)
	}
	if cols.audioChannels, err = SerializeRuleSet(p.AudioChannelRules); err != nil {
		return cols, fmt.Errorf("failed to serialize audio channel rules: %w", err)
	}
	return cols, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Service) scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var items, hdr, videoCodec, audioCodec, audioChannels string
	var upgradesEnabled, cutoffOverrides, allowAuto int64
	var strategy string
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &p.Cutoff, &items, &upgradesEnabled, &strategy,
		&cutoffOverrides, &allowAuto,
		&hdr, &videoCodec, &audioCodec, &audioChannels,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if p.Items, err = DeserializeItems(items); err != nil {
		return nil, fmt.Errorf("failed to deserialize items: %w", err)
	}

	p.UpgradesEnabled = upgradesEnabled == 1
	p.CutoffOverridesStrategy = cutoffOverrides == 1
	p.AllowAutoApprove = allowAuto == 1
	p.UpgradeStrategy = UpgradeStrategy(strategy)
	if !p.UpgradeStrategy.Valid() {
		p.UpgradeStrategy = StrategyBalanced
	}

	p.HDRRules = s.deserializeRules(p.ID, KindHDR, hdr)
	p.VideoCodecRules = s.deserializeRules(p.ID, KindVideoCodec, videoCodec)
	p.AudioCodecRules = s.deserializeRules(p.ID, KindAudioCodec, audioCodec)
	p.AudioChannelRules = s.deserializeRules(p.ID, KindAudioChannels, audioChannels)

	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}

func (s *Service) deserializeRules(profileID int64, kind Kind, data string) RuleSet {
	rs, err := DeserializeRuleSet(kind, data)
	if err != nil {
		s.logger.Warn().Err(err).Int64("id", profileID).Str("kind", string(kind)).
			Msg("Failed to deserialize attribute rules, using defaults")
		return NewRuleSet(kind)
	}
	return rs
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
