package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/middleware"
)

// HandleMessage feeds every non-command message into the intake flow.
func (h *Handler) HandleMessage(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	// Extraction and publish run to completion even when the bot is stopping.
	ctx = context.WithoutCancel(ctx)

	msg := update.Message
	reporter, ok := middleware.GetReporter(ctx)
	if !ok {
		reporter = domain.NewReporter(msg.Chat.ID, "", "")
	}

	out := h.intake.Handle(ctx, inboundFromMessage(msg, reporter))

	switch {
	case out.Publish != nil:
		h.tgLogger.LogAlert(*out.Report, *out.Publish)
	case errors.Is(out.Err, domain.ErrResolutionFailed):
		slog.Warn("location resolution failed", "chat_id", msg.Chat.ID, "error", out.Err)
	}

	h.reply(ctx, msg.Chat.ID, out.Prompt)
}

func inboundFromMessage(msg *models.Message, reporter domain.Reporter) domain.Inbound {
	in := domain.Inbound{
		ChatID:   msg.Chat.ID,
		Reporter: reporter,
		Text:     msg.Text,
	}
	if in.Text == "" {
		in.Text = msg.Caption
	}

	if photo := largestPhoto(msg.Photo); photo != nil {
		in.Image = &domain.ImageRef{FileID: photo.FileID, MimeType: "image/jpeg"}
	} else if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		in.Image = &domain.ImageRef{FileID: doc.FileID, MimeType: doc.MimeType}
	}

	return in
}

func largestPhoto(sizes []models.PhotoSize) *models.PhotoSize {
	var best *models.PhotoSize
	for i := range sizes {
		if best == nil || sizes[i].Width*sizes[i].Height > best.Width*best.Height {
			best = &sizes[i]
		}
	}
	return best
}
