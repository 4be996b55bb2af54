package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/middleware"
	"github.com/set-night/firelinx/internal/observability"
)

func (h *Handler) handleStat(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil || !middleware.IsAdmin(ctx) {
		return
	}

	chatID := update.Message.Chat.ID

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		slog.Error("journal stats", "error", err)
		h.reply(ctx, chatID, domain.Prompt{Text: "❌ Failed to load statistics."})
		return
	}

	h.reply(ctx, chatID, statPrompt(stats, runtimeStats{
		ActiveSessions: observability.Value(h.metrics.ActiveSessions),
		Delivered:      observability.Value(h.metrics.AlertsPublished.WithLabelValues("delivered")),
		Failed:         observability.Value(h.metrics.AlertsPublished.WithLabelValues("failed")),
		SOS:            observability.Value(h.metrics.SOSDispatch),
	}))
}

type runtimeStats struct {
	ActiveSessions float64
	Delivered      float64
	Failed         float64
	SOS            float64
}

func statPrompt(j domain.JournalStats, r runtimeStats) domain.Prompt {
	var b strings.Builder
	b.WriteString("📊 *Statistics*\n\n")
	b.WriteString("*Journal*\n")
	fmt.Fprintf(&b, "Alerts: %d (delivered %d, failed %d)\n", j.Total, j.Delivered, j.Failed)
	if j.LastCaptured != nil {
		fmt.Fprintf(&b, "Last report: %s\n", j.LastCaptured.Format(time.DateTime))
	} else {
		b.WriteString("Last report: never\n")
	}
	b.WriteString("\n*Since start*\n")
	fmt.Fprintf(&b, "Active sessions: %.0f\n", r.ActiveSessions)
	fmt.Fprintf(&b, "Alerts: delivered %.0f, failed %.0f\n", r.Delivered, r.Failed)
	fmt.Fprintf(&b, "SOS notifications: %.0f", r.SOS)
	return domain.Prompt{Text: b.String(), Markdown: true}
}
