package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/firelinx/internal/domain"
)

// AlertRepository is the PostgreSQL alert journal.
type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{db: db}
}

const insertAlert = `
INSERT INTO fire_alerts (
    id, chat_id, reporter_id, reporter_name, reporter_short_id,
    fire_type, intensity, latitude, longitude, source,
    payload, delivered, failure_reason, captured_at, recorded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func (r *AlertRepository) Record(ctx context.Context, e domain.JournalEntry) error {
	rep := e.Report
	_, err := r.db.Exec(ctx, insertAlert,
		stringToPgUUID(e.ID),
		rep.ChatID,
		rep.Reporter.ID,
		rep.Reporter.Name,
		rep.Reporter.ShortID,
		string(rep.Classification),
		int16(rep.Severity),
		rep.Coordinate.Lat,
		rep.Coordinate.Lng,
		string(rep.Source),
		string(e.Payload),
		e.Delivered,
		stringToPgText(e.Reason),
		timeToPgTimestamptz(rep.CapturedAt),
		timeToPgTimestamptz(e.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

const alertStats = `
SELECT count(*),
       count(*) FILTER (WHERE delivered),
       count(*) FILTER (WHERE NOT delivered),
       max(captured_at)
FROM fire_alerts`

func (r *AlertRepository) Stats(ctx context.Context) (domain.JournalStats, error) {
	var (
		s    domain.JournalStats
		last pgtype.Timestamptz
	)
	if err := r.db.QueryRow(ctx, alertStats).Scan(&s.Total, &s.Delivered, &s.Failed, &last); err != nil {
		return domain.JournalStats{}, fmt.Errorf("alert stats: %w", err)
	}
	s.LastCaptured = pgTimestamptzToTimePtr(last)
	return s, nil
}

func (r *AlertRepository) Close() error {
	r.db.Close()
	return nil
}
