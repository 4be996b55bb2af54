package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"
)

// FixedWindow counts messages per chat in one-minute windows.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clock   clockwork.Clock
	windows map[int64]*window
}

type window struct {
	start time.Time
	count int
}

func NewFixedWindow(limit int, clock clockwork.Clock) *FixedWindow {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FixedWindow{
		limit:   limit,
		window:  time.Minute,
		clock:   clock,
		windows: make(map[int64]*window),
	}
}

// Allow records one message and reports whether it is within the limit.
func (f *FixedWindow) Allow(chatID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	w, ok := f.windows[chatID]
	if !ok || now.Sub(w.start) >= f.window {
		w = &window{start: now}
		f.windows[chatID] = w
	}
	w.count++
	return w.count <= f.limit
}

// Cleanup forgets windows that have ended.
func (f *FixedWindow) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	for id, w := range f.windows {
		if now.Sub(w.start) >= f.window {
			delete(f.windows, id)
		}
	}
}

// RateLimit returns middleware that enforces per-minute rate limits.
func RateLimit(limiter *FixedWindow) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiter.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID, "limit", limiter.limit)
				if b != nil {
					b.SendMessage(ctx, &bot.SendMessageParams{
						ChatID: chatID,
						Text:   "⏳ Too many messages. Please wait a minute.",
					})
				}
				return
			}

			next(ctx, b, update)
		}
	}
}
