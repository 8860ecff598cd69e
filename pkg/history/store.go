// Package history persists simulation runs to SQLite so runs can be
// compared after the fact.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roamsim/roamsim/pkg"
	"github.com/roamsim/roamsim/pkg/telem"
)

// Store wraps a SQLite database holding past runs.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	station    TEXT NOT NULL,
	strategy   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	ts          TIMESTAMP NOT NULL,
	pos_x       REAL NOT NULL,
	pos_y       REAL NOT NULL,
	ap          TEXT NOT NULL,
	rssi_dbm    REAL NOT NULL,
	delay_ms    REAL NOT NULL,
	load        REAL NOT NULL,
	connected   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS events (
	run_id           INTEGER NOT NULL REFERENCES runs(id),
	ts               TIMESTAMP NOT NULL,
	pos_x            REAL NOT NULL,
	pos_y            REAL NOT NULL,
	from_ap          TEXT NOT NULL,
	to_ap            TEXT NOT NULL,
	reason           TEXT NOT NULL,
	decision_latency_us INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records a new run and returns its id.
func (s *Store) BeginRun(station, strategy string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (started_at, station, strategy) VALUES (?, ?, ?)`,
		time.Now().UTC(), station, strategy)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// SaveSample stores one telemetry sample, one row per candidate AP.
func (s *Store) SaveSample(runID int64, sample telem.Sample) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO samples (run_id, ts, pos_x, pos_y, ap, rssi_dbm, delay_ms, load, connected)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, row := range sample.Rows {
		connected := 0
		if row.AP == sample.ConnectedAP {
			connected = 1
		}
		if _, err := stmt.Exec(runID, sample.Timestamp.UTC(),
			sample.Position.X, sample.Position.Y,
			row.AP, row.RSSIdBm, row.DelayMs, row.Load, connected); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to store sample row: %w", err)
		}
	}
	return tx.Commit()
}

// SaveEvent stores one handover event.
func (s *Store) SaveEvent(runID int64, event pkg.HandoverEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO events (run_id, ts, pos_x, pos_y, from_ap, to_ap, reason, decision_latency_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, event.Timestamp.UTC(),
		event.Position.X, event.Position.Y,
		event.From, event.To, event.Reason,
		event.DecisionLatency.Microseconds())
	if err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}
	return nil
}

// RunSummary describes one stored run.
type RunSummary struct {
	ID        int64
	StartedAt time.Time
	Station   string
	Strategy  string
	Handovers int
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT r.id, r.started_at, r.station, r.strategy, COUNT(e.run_id)
		 FROM runs r LEFT JOIN events e ON e.run_id = r.id
		 GROUP BY r.id ORDER BY r.id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Station, &r.Strategy, &r.Handovers); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Events returns the handover events of one run in order.
func (s *Store) Events(runID int64) ([]pkg.HandoverEvent, error) {
	rows, err := s.db.Query(
		`SELECT e.ts, e.pos_x, e.pos_y, e.from_ap, e.to_ap, e.reason, e.decision_latency_us, r.station
		 FROM events e JOIN runs r ON r.id = e.run_id
		 WHERE e.run_id = ? ORDER BY e.ts`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pkg.HandoverEvent
	for rows.Next() {
		var e pkg.HandoverEvent
		var latencyUS int64
		if err := rows.Scan(&e.Timestamp, &e.Position.X, &e.Position.Y,
			&e.From, &e.To, &e.Reason, &latencyUS, &e.Station); err != nil {
			return nil, err
		}
		e.DecisionLatency = time.Duration(latencyUS) * time.Microsecond
		out = append(out, e)
	}
	return out, rows.Err()
}
