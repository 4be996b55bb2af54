package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

// handleSOS raises an SOS in the background and posts the channel results
// back to the chat. Free text after the command is sent as the location.
func (h *Handler) handleSOS(ctx context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	req := sosRequest(update.Message.Text, h.intake.Pending(chatID))

	h.reply(ctx, chatID, domain.Prompt{Text: "🆘 Sending SOS..."})

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		sosCtx, cancel := context.WithTimeout(context.Background(), config.SOSTimeout)
		defer cancel()

		res := h.sos.Trigger(sosCtx, req)
		slog.Info("sos dispatched",
			"chat_id", chatID,
			"sms", res.SMS.Status,
			"email", res.Email.Status,
		)
		h.tgLogger.LogSOS(req, res)
		h.reply(sosCtx, chatID, sosResultPrompt(res))
	}()
}

func sosRequest(text string, pending *domain.Session) domain.SOSRequest {
	req := domain.SOSRequest{Source: "telegram"}

	if fields := strings.Fields(text); len(fields) > 1 {
		req.ManualLocation = strings.Join(fields[1:], " ")
	}
	if pending != nil {
		if pending.Coordinate != nil {
			coord := *pending.Coordinate
			req.Coordinate = &coord
		}
		if pending.Classification != nil {
			req.Cause = pending.Classification.Description()
		}
	}
	return req
}

func sosResultPrompt(res domain.SOSResult) domain.Prompt {
	return domain.Prompt{Text: fmt.Sprintf("%s %s\n%s %s",
		statusIcon(res.SMS), res.SMS.Message,
		statusIcon(res.Email), res.Email.Message)}
}

func statusIcon(r domain.ChannelResult) string {
	if r.OK() {
		return "✅"
	}
	return "❌"
}
