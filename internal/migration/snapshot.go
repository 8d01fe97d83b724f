package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/versionarr/versionarr/internal/quality"
)

// Movie is a library movie with its unassigned files.
type Movie struct {
	ID    int64
	Title string
	Year  int
	Files []MediaFile
}

// Episode is a library episode with its unassigned files.
type Episode struct {
	ID            int64
	SeasonNumber  int
	EpisodeNumber int
	Title         string
	Files         []MediaFile
}

// Series is a library series with its episodes.
type Series struct {
	ID       int64
	Title    string
	Episodes []Episode
}

// MediaFile is one on-disk file awaiting a slot.
type MediaFile struct {
	ID        int64
	Path      string
	Size      int64
	QualityID *int
}

// StoredQuality resolves the file's recorded quality against the catalog.
func (f *MediaFile) StoredQuality() *quality.Quality {
	if f.QualityID == nil {
		return nil
	}
	q, ok := quality.ByID(*f.QualityID)
	if !ok {
		return nil
	}
	return &q
}

// LibrarySnapshot is the point-in-time library state a migration plan is
// computed from. Only files without an existing slot assignment are included.
type LibrarySnapshot struct {
	Movies []Movie
	Series []Series
}

// FileCount returns the number of files in the snapshot.
func (s *LibrarySnapshot) FileCount() int {
	n := 0
	for _, m := range s.Movies {
		n += len(m.Files)
	}
	for _, sr := range s.Series {
		for _, ep := range sr.Episodes {
			n += len(ep.Files)
		}
	}
	return n
}

// Store loads library snapshots for migration planning.
type Store struct {
	db *sql.DB
}

// NewStore creates a snapshot store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadSnapshot reads every movie and episode file that has no slot
// assignment yet, grouped by media item.
func (s *Store) LoadSnapshot(ctx context.Context) (*LibrarySnapshot, error) {
	snapshot := &LibrarySnapshot{}

	movies, err := s.loadMovies(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Movies = movies

	series, err := s.loadSeries(ctx)
	if err != nil {
		return nil, err
	}
	snapshot.Series = series

	return snapshot, nil
}

func (s *Store) loadMovies(ctx context.Context) ([]Movie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.title, COALESCE(m.year, 0), f.id, f.path, f.size, f.quality_id
		FROM movies m
		JOIN movie_files f ON f.movie_id = m.id
		LEFT JOIN file_slot_assignments a
			ON a.media_type = 'movie' AND a.file_id = f.id
		WHERE a.id IS NULL
		ORDER BY m.title, f.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load movie files: %w", err)
	}
	defer rows.Close()

	var movies []Movie
	index := make(map[int64]int)
	for rows.Next() {
		var movieID int64
		var title string
		var year int
		var file MediaFile
		if err := rows.Scan(&movieID, &title, &year, &file.ID, &file.Path, &file.Size, &file.QualityID); err != nil {
			return nil, fmt.Errorf("failed to scan movie file: %w", err)
		}

		i, ok := index[movieID]
		if !ok {
			movies = append(movies, Movie{ID: movieID, Title: title, Year: year})
			i = len(movies) - 1
			index[movieID] = i
		}
		movies[i].Files = append(movies[i].Files, file)
	}
	return movies, rows.Err()
}

func (s *Store) loadSeries(ctx context.Context) ([]Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sr.id, sr.title, e.id, e.season_number, e.episode_number, COALESCE(e.title, ''),
			f.id, f.path, f.size, f.quality_id
		FROM series sr
		JOIN episodes e ON e.series_id = sr.id
		JOIN episode_files f ON f.episode_id = e.id
		LEFT JOIN file_slot_assignments a
			ON a.media_type = 'episode' AND a.file_id = f.id
		WHERE a.id IS NULL
		ORDER BY sr.title, e.season_number, e.episode_number, f.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load episode files: %w", err)
	}
	defer rows.Close()

	var series []Series
	seriesIndex := make(map[int64]int)
	episodeIndex := make(map[int64]int)
	for rows.Next() {
		var seriesID, episodeID int64
		var seriesTitle, episodeTitle string
		var season, episodeNum int
		var file MediaFile
		err := rows.Scan(&seriesID, &seriesTitle, &episodeID, &season, &episodeNum, &episodeTitle,
			&file.ID, &file.Path, &file.Size, &file.QualityID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode file: %w", err)
		}

		si, ok := seriesIndex[seriesID]
		if !ok {
			series = append(series, Series{ID: seriesID, Title: seriesTitle})
			si = len(series) - 1
			seriesIndex[seriesID] = si
		}

		ei, ok := episodeIndex[episodeID]
		if !ok {
			series[si].Episodes = append(series[si].Episodes, Episode{
				ID:            episodeID,
				SeasonNumber:  season,
				EpisodeNumber: episodeNum,
				Title:         episodeTitle,
			})
			ei = len(series[si].Episodes) - 1
			episodeIndex[episodeID] = ei
		}
		series[si].Episodes[ei].Files = append(series[si].Episodes[ei].Files, file)
	}
	return series, rows.Err()
}

// RecordRun persists a completed migration run.
func (s *Store) RecordRun(ctx context.Context, result *Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO migration_runs (id, files_assigned, files_queued, error_count, completed_at)
		VALUES (?, ?, ?, ?, ?)`,
		result.RunID, result.FilesAssigned, result.FilesQueued, len(result.Errors), result.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to record migration run: %w", err)
	}
	return nil
}

// RunRecord is a persisted migration run.
type RunRecord struct {
	ID            string    `json:"id"`
	FilesAssigned int       `json:"filesAssigned"`
	FilesQueued   int       `json:"filesQueued"`
	ErrorCount    int       `json:"errorCount"`
	CompletedAt   time.Time `json:"completedAt"`
}

// ListRuns returns past migration runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, files_assigned, files_queued, error_count, completed_at
		FROM migration_runs ORDER BY completed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list migration runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.FilesAssigned, &r.FilesQueued, &r.ErrorCount, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
