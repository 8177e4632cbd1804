// Package store persists gaze schedules, timewarps and bakes in a SQLite
// database.
//
// Records are grouped by scene name. Saving a group replaces it, so the
// database always holds the last saved state of each scene. Bakes are
// append-only and identified by a random UUID.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phanxgames/leap"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a bake ID is unknown.
var ErrNotFound = errors.New("store: not found")

const (
	groupGaze      = "gaze"
	groupTimewarps = "timewarps"
)

// Store manages the leap edit database.
type Store struct {
	db     *sql.DB
	dbPath string
	log    *zap.Logger
}

// Open creates or opens the database at path. The special path ":memory:"
// opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path, log: zap.NewNop()}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// SetLogger sets the logger used for save and load summaries.
func (s *Store) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scene TEXT NOT NULL,
		grp TEXT NOT NULL,
		position INTEGER NOT NULL,
		layer TEXT NOT NULL,
		subject TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		start_frame INTEGER NOT NULL,
		frame_length INTEGER NOT NULL,
		track TEXT NOT NULL DEFAULT '',
		params_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_records_scene ON records(scene, grp, position);

	CREATE TABLE IF NOT EXISTS bakes (
		id TEXT PRIMARY KEY,
		scene TEXT NOT NULL,
		name TEXT NOT NULL,
		frame_rate REAL NOT NULL,
		start_frame INTEGER NOT NULL,
		frame_length INTEGER NOT NULL,
		subjects_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bakes_scene ON bakes(scene, created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// --- Records ---

// SaveGaze replaces the stored gaze records of a scene.
func (s *Store) SaveGaze(ctx context.Context, scene string, records []leap.Record) error {
	return s.saveRecords(ctx, scene, groupGaze, records)
}

// LoadGaze returns the stored gaze records of a scene in saved order.
func (s *Store) LoadGaze(ctx context.Context, scene string) ([]leap.Record, error) {
	return s.loadRecords(ctx, scene, groupGaze)
}

// SaveTimewarps replaces the stored timewarp records of a scene.
func (s *Store) SaveTimewarps(ctx context.Context, scene string, records []leap.Record) error {
	return s.saveRecords(ctx, scene, groupTimewarps, records)
}

// LoadTimewarps returns the stored timewarp records of a scene in saved
// order.
func (s *Store) LoadTimewarps(ctx context.Context, scene string) ([]leap.Record, error) {
	return s.loadRecords(ctx, scene, groupTimewarps)
}

func (s *Store) saveRecords(ctx context.Context, scene, group string, records []leap.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE scene = ? AND grp = ?`, scene, group); err != nil {
		return fmt.Errorf("failed to clear %s records: %w", group, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (scene, grp, position, layer, subject, name, kind, target, start_frame, frame_length, track, params_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var params sql.NullString
		if len(r.Params) > 0 {
			data, err := json.Marshal(r.Params)
			if err != nil {
				return fmt.Errorf("failed to encode params of %q: %w", r.Name, err)
			}
			params = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, scene, group, i, r.Layer, r.Subject, r.Name, r.Kind,
			r.Target, r.StartFrame, r.FrameLength, r.Track, params); err != nil {
			return fmt.Errorf("failed to insert %s record %d: %w", group, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s records: %w", group, err)
	}
	s.log.Debug("saved records",
		zap.String("scene", scene),
		zap.String("group", group),
		zap.Int("count", len(records)))
	return nil
}

func (s *Store) loadRecords(ctx context.Context, scene, group string) ([]leap.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT layer, subject, name, kind, target, start_frame, frame_length, track, params_json
		FROM records WHERE scene = ? AND grp = ? ORDER BY position`, scene, group)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s records: %w", group, err)
	}
	defer rows.Close()

	var records []leap.Record
	for rows.Next() {
		var r leap.Record
		var params sql.NullString
		if err := rows.Scan(&r.Layer, &r.Subject, &r.Name, &r.Kind, &r.Target,
			&r.StartFrame, &r.FrameLength, &r.Track, &params); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", group, err)
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &r.Params); err != nil {
				return nil, fmt.Errorf("failed to decode params of %q: %w", r.Name, err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.log.Debug("loaded records",
		zap.String("scene", scene),
		zap.String("group", group),
		zap.Int("count", len(records)))
	return records, nil
}

// --- Bakes ---

// BakeInfo describes a stored bake without its curves.
type BakeInfo struct {
	ID          string
	Scene       string
	Name        string
	FrameRate   float64
	StartFrame  int
	FrameLength int
	CreatedAt   time.Time
}

// SaveBake stores a bake container and returns its new ID.
func (s *Store) SaveBake(ctx context.Context, scene string, b *leap.BakeContainer) (string, error) {
	data, err := json.Marshal(b.Subjects)
	if err != nil {
		return "", fmt.Errorf("failed to encode bake %q: %w", b.Name, err)
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO bakes (id, scene, name, frame_rate, start_frame, frame_length, subjects_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, scene, b.Name, b.FrameRate, b.StartFrame, b.FrameLength, string(data), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert bake %q: %w", b.Name, err)
	}
	s.log.Info("saved bake",
		zap.String("id", id),
		zap.String("scene", scene),
		zap.String("name", b.Name),
		zap.Int("frames", b.FrameLength))
	return id, nil
}

// LoadBake returns a stored bake container. It returns ErrNotFound for an
// unknown ID.
func (s *Store) LoadBake(ctx context.Context, id string) (*leap.BakeContainer, error) {
	var b leap.BakeContainer
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, frame_rate, start_frame, frame_length, subjects_json
		FROM bakes WHERE id = ?`, id).Scan(&b.Name, &b.FrameRate, &b.StartFrame, &b.FrameLength, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bake %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bake %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(data), &b.Subjects); err != nil {
		return nil, fmt.Errorf("failed to decode bake %s: %w", id, err)
	}
	return &b, nil
}

// ListBakes returns the bakes of a scene, oldest first.
func (s *Store) ListBakes(ctx context.Context, scene string) ([]BakeInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scene, name, frame_rate, start_frame, frame_length, created_at
		FROM bakes WHERE scene = ? ORDER BY created_at, rowid`, scene)
	if err != nil {
		return nil, fmt.Errorf("failed to query bakes: %w", err)
	}
	defer rows.Close()

	var out []BakeInfo
	for rows.Next() {
		var bi BakeInfo
		if err := rows.Scan(&bi.ID, &bi.Scene, &bi.Name, &bi.FrameRate, &bi.StartFrame, &bi.FrameLength, &bi.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bake: %w", err)
		}
		out = append(out, bi)
	}
	return out, rows.Err()
}

// DeleteBake removes a stored bake. It returns ErrNotFound for an unknown ID.
func (s *Store) DeleteBake(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bakes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bake %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("bake %s: %w", id, ErrNotFound)
	}
	return nil
}
