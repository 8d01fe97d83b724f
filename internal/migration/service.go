package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/versionarr/versionarr/internal/slots"
)

var ErrNoSlotsEnabled = errors.New("no enabled slots with a quality profile")

// Service orchestrates migration previews and executions.
type Service struct {
	store     *Store
	slots     *slots.Service
	logger    zerolog.Logger
	itemLocks keyedLocks

	mu      sync.Mutex
	running bool
}

// NewService creates a migration service.
func NewService(store *Store, slotService *slots.Service, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		slots:  slotService,
		logger: logger.With().Str("component", "migration").Logger(),
	}
}

// GeneratePreview computes a dry-run plan against the current library. The
// preview writes nothing and can be regenerated any number of times; with an
// unchanged library and slot configuration it returns the same plan.
func (s *Service) GeneratePreview(ctx context.Context, overrides []FileOverride) (*Preview, error) {
	planner, err := s.buildPlanner(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	return planner.Preview(snapshot, overrides), nil
}

// Execute runs the migration, writing slot assignments. One execution at a
// time; a run can partially succeed, with failed files left in review.
func (s *Service) Execute(ctx context.Context, input ExecuteInput) (*Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New("a migration is already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	planner, err := s.buildPlanner(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.store.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	s.logger.Info().Str("runId", result.RunID).Int("files", snapshot.FileCount()).
		Msg("Starting migration")

	for _, resolved := range planner.Resolve(snapshot, input.Overrides) {
		s.executeOne(ctx, &resolved, result)
	}

	result.Success = len(result.Errors) == 0
	result.CompletedAt = time.Now().UTC()

	if err := s.store.RecordRun(ctx, result); err != nil {
		s.logger.Warn().Err(err).Str("runId", result.RunID).Msg("Failed to record migration run")
	}

	s.logger.Info().Str("runId", result.RunID).
		Int("assigned", result.FilesAssigned).
		Int("queued", result.FilesQueued).
		Int("errors", len(result.Errors)).
		Msg("Migration completed")
	return result, nil
}

// executeOne writes a single resolved assignment. The per-item lock keeps a
// concurrent import from racing the migration on the same media item.
func (s *Service) executeOne(ctx context.Context, resolved *ResolvedFile, result *Result) {
	// Ambiguous matches stay queued: a tie between slots is a proposal for a
	// human, not a decision.
	if resolved.NeedsReview() {
		result.FilesQueued++
		return
	}

	key := fmt.Sprintf("%s:%d", resolved.MediaType, resolved.MediaID)
	unlock := s.itemLocks.lock(key)
	defer unlock()

	_, err := s.slots.AssignFile(ctx, resolved.MediaType, resolved.MediaID, *resolved.AssignedSlotID, resolved.FileID)
	if err != nil {
		result.FilesQueued++
		result.Errors = append(result.Errors,
			fmt.Sprintf("file %d: %v", resolved.FileID, err))
		s.logger.Warn().Err(err).Int64("fileId", resolved.FileID).
			Int64("slotId", *resolved.AssignedSlotID).Msg("Failed to assign file during migration")
		return
	}
	result.FilesAssigned++
}

// ListRuns returns past migration runs.
func (s *Service) ListRuns(ctx context.Context) ([]RunRecord, error) {
	return s.store.ListRuns(ctx)
}

func (s *Service) buildPlanner(ctx context.Context) (*Planner, error) {
	slotConfigs, err := s.slots.ListEnabledWithProfiles(ctx)
	if err != nil {
		return nil, err
	}

	planner := NewPlanner(slotConfigs)
	if planner.SlotCount() == 0 {
		return nil, ErrNoSlotsEnabled
	}
	return planner, nil
}

// keyedLocks is a mutex per media item key.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
