package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/observability"
)

// Broker delivers one encoded alert. Implementations make a single attempt.
type Broker interface {
	Send(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Journal records every publish attempt.
type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
	Stats(ctx context.Context) (domain.JournalStats, error)
	Close() error
}

const journalTimeout = 5 * time.Second

// AlertPublisher turns finalized reports into the canonical payload and sends
// it once.
type AlertPublisher struct {
	broker  Broker
	journal Journal
	metrics *observability.Metrics
	timeout time.Duration
	loc     *time.Location
}

func NewAlertPublisher(broker Broker, journal Journal, metrics *observability.Metrics, timeout time.Duration, loc *time.Location) *AlertPublisher {
	return &AlertPublisher{
		broker:  broker,
		journal: journal,
		metrics: metrics,
		timeout: timeout,
		loc:     loc,
	}
}

// Publish makes exactly one send attempt bounded by the configured timeout.
// The outcome is journaled; journal errors never change it.
func (p *AlertPublisher) Publish(ctx context.Context, report domain.FireReport) domain.PublishOutcome {
	id := uuid.NewString()

	payload, err := domain.NewAlert(report, p.loc).Encode()
	if err != nil {
		outcome := domain.Failed(id, err.Error())
		p.finish(report, payload, outcome)
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	clock := domain.Clock()
	start := clock.Now()
	err = p.broker.Send(sendCtx, id, payload)
	p.metrics.PublishDuration.Observe(clock.Since(start).Seconds())

	outcome := domain.Delivered(id)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: no broker acknowledgement within %s", domain.ErrPublishFailed, p.timeout)
		} else {
			err = fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
		}
		outcome = domain.Failed(id, err.Error())
		slog.Error("alert publish failed", "alert_id", id, "chat_id", report.ChatID, "error", err)
	} else {
		slog.Info("alert published", "alert_id", id, "chat_id", report.ChatID,
			"fire_type", report.Classification, "intensity", report.Severity.String())
	}

	p.finish(report, payload, outcome)
	return outcome
}

// Stats reads journal totals for operators.
func (p *AlertPublisher) Stats(ctx context.Context) (domain.JournalStats, error) {
	return p.journal.Stats(ctx)
}

func (p *AlertPublisher) finish(report domain.FireReport, payload []byte, outcome domain.PublishOutcome) {
	label := "delivered"
	if !outcome.Delivered {
		label = "failed"
	}
	p.metrics.AlertsPublished.WithLabelValues(label).Inc()

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	entry := domain.JournalEntry{
		ID:         outcome.AlertID,
		Report:     report,
		Payload:    payload,
		Delivered:  outcome.Delivered,
		Reason:     outcome.Reason,
		RecordedAt: domain.Clock().Now(),
	}
	if err := p.journal.Record(ctx, entry); err != nil {
		slog.Warn("failed to journal alert", "alert_id", outcome.AlertID, "error", err)
	}
}
