package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/set-night/firelinx/internal/domain"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fire_alerts (
    id                TEXT PRIMARY KEY,
    chat_id           INTEGER NOT NULL,
    reporter_id       INTEGER NOT NULL,
    reporter_name     TEXT    NOT NULL,
    reporter_short_id TEXT    NOT NULL,
    fire_type         TEXT    NOT NULL,
    intensity         INTEGER NOT NULL,
    latitude          REAL    NOT NULL,
    longitude         REAL    NOT NULL,
    source            TEXT    NOT NULL,
    payload           TEXT    NOT NULL,
    delivered         INTEGER NOT NULL,
    failure_reason    TEXT,
    captured_at       TEXT    NOT NULL,
    recorded_at       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS fire_alerts_captured_at_idx ON fire_alerts (captured_at);`

// fixed width so that text order matches time order
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteJournal is the single-file alert journal for small deployments.
type SQLiteJournal struct {
	db *sql.DB
}

// OpenSQLite opens or creates the journal at path. ":memory:" is accepted.
func OpenSQLite(path string) (*SQLiteJournal, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single writer keeps an in-memory database alive and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) Record(ctx context.Context, e domain.JournalEntry) error {
	rep := e.Report
	var reason sql.NullString
	if e.Reason != "" {
		reason = sql.NullString{String: e.Reason, Valid: true}
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO fire_alerts (
			id, chat_id, reporter_id, reporter_name, reporter_short_id,
			fire_type, intensity, latitude, longitude, source,
			payload, delivered, failure_reason, captured_at, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, rep.ChatID, rep.Reporter.ID, rep.Reporter.Name, rep.Reporter.ShortID,
		string(rep.Classification), int(rep.Severity), rep.Coordinate.Lat, rep.Coordinate.Lng, string(rep.Source),
		string(e.Payload), e.Delivered, reason,
		rep.CapturedAt.UTC().Format(sqliteTimeLayout), e.RecordedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Stats(ctx context.Context) (domain.JournalStats, error) {
	var (
		s         domain.JournalStats
		delivered sql.NullInt64
		last      sql.NullString
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT count(*), sum(delivered), max(captured_at) FROM fire_alerts`).
		Scan(&s.Total, &delivered, &last)
	if err != nil {
		return domain.JournalStats{}, fmt.Errorf("alert stats: %w", err)
	}
	s.Delivered = delivered.Int64
	s.Failed = s.Total - s.Delivered

	if last.Valid {
		t, err := time.Parse(sqliteTimeLayout, last.String)
		if err != nil {
			return domain.JournalStats{}, fmt.Errorf("parse captured_at: %w", err)
		}
		s.LastCaptured = &t
	}
	return s, nil
}

// Recent returns the newest entries first, for diagnostics and tests.
func (j *SQLiteJournal) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, chat_id, reporter_id, reporter_name, reporter_short_id,
		       fire_type, intensity, latitude, longitude, source,
		       payload, delivered, failure_reason, captured_at, recorded_at
		FROM fire_alerts
		ORDER BY recorded_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var (
			e                  domain.JournalEntry
			fireType, source   string
			payload            string
			intensity          int
			reason             sql.NullString
			captured, recorded string
		)
		if err := rows.Scan(&e.ID, &e.Report.ChatID, &e.Report.Reporter.ID, &e.Report.Reporter.Name, &e.Report.Reporter.ShortID,
			&fireType, &intensity, &e.Report.Coordinate.Lat, &e.Report.Coordinate.Lng, &source,
			&payload, &e.Delivered, &reason, &captured, &recorded); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		e.Report.Classification = domain.Classification(fireType)
		e.Report.Severity = domain.Severity(intensity)
		e.Report.Source = domain.Source(source)
		e.Payload = []byte(payload)
		e.Reason = reason.String
		e.Report.CapturedAt, _ = time.Parse(sqliteTimeLayout, captured)
		e.RecordedAt, _ = time.Parse(sqliteTimeLayout, recorded)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
