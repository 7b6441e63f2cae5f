// Package store persists solved runs to SQLite.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"gridplan/internal/solution"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	scenario   TEXT NOT NULL,
	status     TEXT NOT NULL,
	objective  REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS run_values (
	run_id TEXT NOT NULL REFERENCES runs(id),
	series TEXT NOT NULL,
	coords TEXT NOT NULL,
	value  REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_values_run ON run_values(run_id, series);
`

// Run is one persisted solve.
type Run struct {
	ID        string    `db:"id"`
	Scenario  string    `db:"scenario"`
	Status    string    `db:"status"`
	Objective float64   `db:"objective"`
	CreatedAt time.Time `db:"created_at"`
}

// Store wraps the results database.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the results database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.WithMessage(err, "open results db")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "create results schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveRun writes the run header and every present cell of every series.
// Absent cells are skipped, not stored as zero.
func (s *Store) SaveRun(ctx context.Context, scenario string, set *solution.Set) (string, error) {
	id := uuid.NewString()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", errors.WithMessage(err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, status, objective, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, scenario, set.Status, set.Objective, time.Now().UTC())
	if err != nil {
		return "", errors.WithMessage(err, "insert run")
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO run_values (run_id, series, coords, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", errors.WithMessage(err, "prepare values insert")
	}
	defer stmt.Close()

	for _, name := range set.Names() {
		a := set.Values[name]
		space := a.Space()
		for i := 0; i < space.Size(); i++ {
			v, ok := a.At(i)
			if !ok {
				continue
			}
			if _, err := stmt.ExecContext(ctx, id, name, space.CoordString(i), v); err != nil {
				return "", errors.WithMessagef(err, "insert %s", name)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", errors.WithMessage(err, "commit run")
	}
	return id, nil
}

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, scenario, status, objective, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.WithMessage(err, "list runs")
	}
	return runs, nil
}

// SeriesValue is one stored cell of a run series.
type SeriesValue struct {
	Coords string  `db:"coords" json:"coords"`
	Value  float64 `db:"value" json:"value"`
}

// RunSeries returns the stored cells of one series of one run.
func (s *Store) RunSeries(ctx context.Context, runID, series string) ([]SeriesValue, error) {
	var vals []SeriesValue
	err := s.db.SelectContext(ctx, &vals,
		`SELECT coords, value FROM run_values WHERE run_id = ? AND series = ? ORDER BY coords`,
		runID, series)
	if err != nil {
		return nil, errors.WithMessagef(err, "load series %s", series)
	}
	return vals, nil
}
