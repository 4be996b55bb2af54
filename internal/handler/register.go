package handler

import (
	"github.com/go-telegram/bot"
)

// Register registers all command handlers on the bot instance. Everything
// else reaches HandleMessage through the bot's default handler.
func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleHelp)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypePrefix, h.handleCancel)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/sos", bot.MatchTypePrefix, h.handleSOS)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/stat", bot.MatchTypePrefix, h.handleStat)
}
