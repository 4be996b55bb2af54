package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
)

// TelegramLogger mirrors notable events into topics of an operator chat.
type TelegramLogger struct {
	sender MessageSender
	cfg    *config.Config
}

func NewTelegramLogger(s MessageSender, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{sender: s, cfg: cfg}
}

type LogType string

const (
	LogTypeError LogType = "error"
	LogTypeAlert LogType = "alert"
	LogTypeSOS   LogType = "sos"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	// Truncate if too long
	if len([]rune(message)) > config.MaxTelegramMessageLen {
		message = string([]rune(message)[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       "Markdown",
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	l.Log(LogTypeError, errorMessage(err, context, time.Now()))
}

func (l *TelegramLogger) LogAlert(r domain.FireReport, out domain.PublishOutcome) {
	l.Log(LogTypeAlert, alertMessage(r, out))
}

func (l *TelegramLogger) LogSOS(req domain.SOSRequest, res domain.SOSResult) {
	l.Log(LogTypeSOS, sosMessage(req, res))
}

func errorMessage(err error, context string, at time.Time) string {
	return fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		context, err.Error(), at.Format("2006-01-02 15:04:05"))
}

func alertMessage(r domain.FireReport, out domain.PublishOutcome) string {
	status := "✅ delivered"
	if !out.Delivered {
		status = "⚠️ failed: " + out.Reason
	}
	return fmt.Sprintf("🔥 *Fire Alert*\n\n*ID:* `%s`\n*Reporter:* %s (`%d`)\n*Type:* %s\n*Intensity:* %s\n*Location:* %s\n*Source:* %s\n*Status:* %s",
		out.AlertID, r.Reporter.Name, r.Reporter.ID, r.Classification, r.Severity,
		r.Coordinate, r.Source, status)
}

func sosMessage(req domain.SOSRequest, res domain.SOSResult) string {
	location := req.ManualLocation
	if req.Coordinate != nil {
		location = req.Coordinate.String()
	}
	if location == "" {
		location = "unknown"
	}
	return fmt.Sprintf("🆘 *SOS*\n\n*Source:* %s\n*Location:* %s\n*SMS:* %s\n*Email:* %s",
		req.Source, location, res.SMS.Message, res.Email.Message)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeAlert:
		return l.cfg.LogTopicAlert
	case LogTypeSOS:
		return l.cfg.LogTopicSOS
	default:
		return 0
	}
}
