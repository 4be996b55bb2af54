package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/firelinx/internal/domain"
)

type ctxKey string

const (
	ReporterKey ctxKey = "reporter"
	AdminKey    ctxKey = "admin"
)

// GetReporter extracts the reporter from context.
func GetReporter(ctx context.Context) (domain.Reporter, bool) {
	r, ok := ctx.Value(ReporterKey).(domain.Reporter)
	return r, ok
}

// IsAdmin reports whether the sender is a configured operator.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(AdminKey).(bool)
	return v
}

// ReporterLoader returns middleware that derives the reporter identity from
// the sender of the message.
func ReporterLoader(cfg interface{ IsAdmin(int64) bool }) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				next(ctx, b, update)
				return
			}

			from := update.Message.From
			ctx = context.WithValue(ctx, ReporterKey, domain.NewReporter(from.ID, from.Username, from.FirstName))
			ctx = context.WithValue(ctx, AdminKey, cfg.IsAdmin(from.ID))

			next(ctx, b, update)
		}
	}
}
