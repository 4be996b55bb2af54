package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jonboulle/clockwork"
	"github.com/set-night/firelinx/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageUpdate(chatID, userID int64, username, firstName string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			Chat: models.Chat{ID: chatID},
			From: &models.User{ID: userID, Username: username, FirstName: firstName},
			Text: "hello",
		},
	}
}

func TestFixedWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fw := NewFixedWindow(2, clock)

	assert.True(t, fw.Allow(1))
	assert.True(t, fw.Allow(1))
	assert.False(t, fw.Allow(1))
	assert.True(t, fw.Allow(2), "chats have separate windows")

	clock.Advance(time.Minute)
	assert.True(t, fw.Allow(1))

	clock.Advance(time.Minute)
	fw.Cleanup()
	assert.Empty(t, fw.windows)
}

func TestRateLimitMiddleware(t *testing.T) {
	calls := 0
	h := RateLimit(NewFixedWindow(1, clockwork.NewFakeClock()))(func(context.Context, *bot.Bot, *models.Update) {
		calls++
	})

	h(context.Background(), nil, messageUpdate(1, 1, "", ""))
	h(context.Background(), nil, messageUpdate(1, 1, "", ""))
	h(context.Background(), nil, &models.Update{})

	assert.Equal(t, 2, calls)
}

type adminList []int64

func (a adminList) IsAdmin(id int64) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

func TestReporterLoader(t *testing.T) {
	var (
		got     domain.Reporter
		ok      bool
		isAdmin bool
	)
	h := ReporterLoader(adminList{5012345678})(func(ctx context.Context, _ *bot.Bot, _ *models.Update) {
		got, ok = GetReporter(ctx)
		isAdmin = IsAdmin(ctx)
	})

	h(context.Background(), nil, messageUpdate(10, 5012345678, "", "Asha"))
	require.True(t, ok)
	assert.Equal(t, domain.Reporter{ID: 5012345678, Name: "Asha", ShortID: "45678"}, got)
	assert.True(t, isAdmin)

	h(context.Background(), nil, messageUpdate(10, 42, "", ""))
	assert.Equal(t, "Unknown", got.Name)
	assert.False(t, isAdmin)
}

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) LogError(err error, _ string) {
	r.errs = append(r.errs, err)
}

func TestRecover(t *testing.T) {
	rep := &recordingReporter{}
	h := Recover(rep)(func(context.Context, *bot.Bot, *models.Update) {
		panic("boom")
	})

	assert.NotPanics(t, func() { h(context.Background(), nil, &models.Update{}) })
	require.Len(t, rep.errs, 1)
	assert.Contains(t, rep.errs[0].Error(), "boom")

	assert.NotPanics(t, func() {
		Recover(nil)(func(context.Context, *bot.Bot, *models.Update) {
			panic(errors.New("no reporter"))
		})(context.Background(), nil, &models.Update{})
	})
}

func TestLogging(t *testing.T) {
	called := false
	Logging()(func(context.Context, *bot.Bot, *models.Update) { called = true })(
		context.Background(), nil, messageUpdate(1, 2, "u", ""))
	assert.True(t, called)
}
