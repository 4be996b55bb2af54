package handler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/observability"
	"github.com/set-night/firelinx/internal/service"
	"github.com/set-night/firelinx/internal/telegram"
)

// SOSTrigger raises an SOS on every configured channel.
type SOSTrigger interface {
	Trigger(ctx context.Context, req domain.SOSRequest) domain.SOSResult
}

// StatsSource summarizes the alert journal.
type StatsSource interface {
	Stats(ctx context.Context) (domain.JournalStats, error)
}

// OpsLogger mirrors notable events to the operator chat.
type OpsLogger interface {
	LogError(err error, context string)
	LogAlert(r domain.FireReport, out domain.PublishOutcome)
	LogSOS(req domain.SOSRequest, res domain.SOSResult)
}

// Handler holds all dependencies needed by command and message handlers.
type Handler struct {
	sender   telegram.MessageSender
	cfg      *config.Config
	intake   *service.IntakeService
	sos      SOSTrigger
	stats    StatsSource
	metrics  *observability.Metrics
	tgLogger OpsLogger

	// in-flight SOS dispatches
	wg sync.WaitGroup
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Sender   telegram.MessageSender
	Cfg      *config.Config
	Intake   *service.IntakeService
	SOS      SOSTrigger
	Stats    StatsSource
	Metrics  *observability.Metrics
	TgLogger OpsLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		sender:   deps.Sender,
		cfg:      deps.Cfg,
		intake:   deps.Intake,
		sos:      deps.SOS,
		stats:    deps.Stats,
		metrics:  deps.Metrics,
		tgLogger: deps.TgLogger,
	}
}

// Wait blocks until background SOS dispatches have finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) reply(ctx context.Context, chatID int64, p domain.Prompt) {
	if err := telegram.SendPrompt(ctx, h.sender, chatID, p); err != nil {
		slog.Warn("reply failed", "chat_id", chatID, "error", err)
	}
}
