package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"
)

// coordScale rounds keys to 5 decimal places, about 1.1 m at the equator.
const coordScale = 1e5

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS elevations (
			lat_key INTEGER NOT NULL,
			lon_key INTEGER NOT NULL,
			elevation REAL NOT NULL,
			source TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (lat_key, lon_key)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) GetElevation(ctx context.Context, lat, lon float64) (float64, bool, error) {
	latKey, lonKey := key(lat, lon)

	var elevation float64
	err := s.db.QueryRowContext(ctx,
		`SELECT elevation FROM elevations WHERE lat_key = ? AND lon_key = ?`,
		latKey, lonKey,
	).Scan(&elevation)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("error querying elevation: %w", err)
	}

	return elevation, true, nil
}

func (s *SQLiteDB) PutElevation(ctx context.Context, lat, lon, elevation float64, source string) error {
	latKey, lonKey := key(lat, lon)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO elevations (lat_key, lon_key, elevation, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		latKey, lonKey, elevation, source, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("error storing elevation: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM elevations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting elevations: %w", err)
	}
	return n, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

func key(lat, lon float64) (int64, int64) {
	return int64(math.Round(lat * coordScale)), int64(math.Round(lon * coordScale))
}
