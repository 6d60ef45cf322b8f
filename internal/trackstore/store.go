// Package trackstore persists generated tracks in SQLite so a layout can be
// replayed by id. Race results are not stored.
package trackstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/circuit/internal/timeutil"
	"github.com/banshee-data/circuit/internal/track"
)

// ErrNotFound is returned when no track has the requested id.
var ErrNotFound = errors.New("track not found")

// Store is a track database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Record is a stored track with its provenance.
type Record struct {
	ID        string
	Seed      uint64
	Attempts  int
	CreatedAt time.Time
	Track     *track.Track
}

// Summary is a stored track without its samples.
type Summary struct {
	ID        string
	Seed      uint64
	Attempts  int
	Samples   int
	Length    float64
	CreatedAt time.Time
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema. Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an injected clock for creation timestamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open track store: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, clock: clock}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores t and returns its new id.
func (s *Store) Save(ctx context.Context, t *track.Track, seed uint64, attempts int) (string, error) {
	if t.Len() == 0 {
		return "", fmt.Errorf("save track: empty path")
	}
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tracks (track_id, seed, attempts, step, half_width, border_width,
			initial_angle, length, sample_count, created_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, int64(seed), attempts, t.Step, t.HalfWidth, t.BorderWidth,
		t.InitialAngle, t.Length(), t.Len(), s.clock.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert track: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO track_samples (track_id, idx, x, y, heading, border)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare samples: %w", err)
	}
	defer stmt.Close()

	for i, p := range t.Path {
		heading := 0.0
		if i < len(t.Headings) {
			heading = t.Headings[i]
		}
		border := 0
		if i < len(t.Borders) && t.Borders[i] {
			border = 1
		}
		if _, err := stmt.ExecContext(ctx, id, i, p.X, p.Y, heading, border); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit track: %w", err)
	}
	return id, nil
}

// Load returns the stored track with the given id.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	var (
		rec              Record
		seed             int64
		step, half, bw   float64
		initialAngle     float64
		createdUnixNanos int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT track_id, seed, attempts, step, half_width, border_width, initial_angle, created_unix_nanos
		FROM tracks WHERE track_id = ?`, id).
		Scan(&rec.ID, &seed, &rec.Attempts, &step, &half, &bw, &initialAngle, &createdUnixNanos)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query track %s: %w", id, err)
	}
	rec.Seed = uint64(seed)
	rec.CreatedAt = time.Unix(0, createdUnixNanos).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, heading, border FROM track_samples
		WHERE track_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query samples %s: %w", id, err)
	}
	defer rows.Close()

	var (
		path     []r2.Vec
		headings []float64
		borders  []bool
	)
	for rows.Next() {
		var x, y, heading float64
		var border int
		if err := rows.Scan(&x, &y, &heading, &border); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		path = append(path, r2.Vec{X: x, Y: y})
		headings = append(headings, heading)
		borders = append(borders, border != 0)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	cfg := track.DefaultConfig()
	cfg.DetailStep = step
	cfg.HalfWidth = half
	cfg.Border = bw
	rec.Track = track.FromPath(path, headings, borders, cfg)
	rec.Track.InitialAngle = initialAngle
	return &rec, nil
}

// List returns every stored track, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, seed, attempts, sample_count, length, created_unix_nanos
		FROM tracks ORDER BY created_unix_nanos DESC, track_id`)
	if err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var seed, created int64
		if err := rows.Scan(&sum.ID, &seed, &sum.Attempts, &sum.Samples, &sum.Length, &created); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		sum.Seed = uint64(seed)
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a track and its samples.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE track_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete track %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
