package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

// MessageSender is the subset of *bot.Bot used to reply.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// SenderFunc adapts a function to MessageSender.
type SenderFunc func(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)

func (f SenderFunc) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	return f(ctx, params)
}

// SendPrompt sends a prompt with its quick replies.
// Falls back to plain text if Markdown parsing fails.
func SendPrompt(ctx context.Context, s MessageSender, chatID int64, p domain.Prompt) error {
	params := promptParams(chatID, p)

	_, err := s.SendMessage(ctx, params)
	if err != nil && params.ParseMode != "" {
		slog.Warn("markdown send failed, falling back to plain text", "error", err)
		params.ParseMode = ""
		_, err = s.SendMessage(ctx, params)
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendText sends a plain message without a keyboard.
func SendText(ctx context.Context, s MessageSender, chatID int64, text string) error {
	return SendPrompt(ctx, s, chatID, domain.Prompt{Text: text})
}

func promptParams(chatID int64, p domain.Prompt) *bot.SendMessageParams {
	text := p.Text
	if len([]rune(text)) > config.MaxTelegramMessageLen {
		text = string([]rune(text)[:config.MaxTelegramMessageLen-3]) + "..."
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if p.Markdown {
		params.ParseMode = models.ParseModeMarkdownV1
	}
	if len(p.Buttons) > 0 {
		params.ReplyMarkup = ReplyKeyboard(p.Buttons)
	} else {
		params.ReplyMarkup = RemoveKeyboard()
	}
	return params
}
