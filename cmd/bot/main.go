package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/firelinx"
	"github.com/set-night/firelinx/internal/broker"
	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/handler"
	"github.com/set-night/firelinx/internal/middleware"
	"github.com/set-night/firelinx/internal/observability"
	"github.com/set-night/firelinx/internal/repository"
	"github.com/set-night/firelinx/internal/server"
	"github.com/set-night/firelinx/internal/service"
	"github.com/set-night/firelinx/internal/telegram"
)

// maxImageBytes bounds photo downloads passed to OCR.
const maxImageBytes = 20 << 20

type readiness struct {
	ready atomic.Bool
}

func (r *readiness) CheckReadiness(context.Context) error {
	if !r.ready.Load() {
		return errors.New("bot identity not fetched")
	}
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	slog.SetDefault(observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	// Alert journal
	migrationsFS, err := fs.Sub(firelinx.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	journal, err := repository.OpenJournal(ctx, cfg.JournalDSN, migrationsFS)
	if err != nil {
		slog.Error("failed to open alert journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	// Broker
	brk, err := broker.New(cfg)
	if err != nil {
		slog.Error("failed to create broker", "error", err)
		os.Exit(1)
	}
	defer brk.Close()

	var b *bot.Bot
	tgLogger := telegram.NewTelegramLogger(telegram.SenderFunc(func(ctx context.Context, p *bot.SendMessageParams) (*models.Message, error) {
		return b.SendMessage(ctx, p)
	}), cfg)

	// Initialize services
	sessions := service.NewSessionStore(cfg.SessionTTL, nil)
	publisher := service.NewAlertPublisher(brk, journal, metrics, cfg.PublishTimeout, cfg.Location())

	var sms service.SMSSender
	if cfg.SMSEnabled() {
		sms = service.NewTwilioSMS(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.RecipientPhoneNumber)
	}
	var email service.EmailSender
	if cfg.EmailEnabled() {
		email = service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailSender, cfg.EmailPassword, cfg.EmailRecipients)
	}
	notifier := service.NewNotifier(sms, email, service.NewIPGeolocator(cfg.GeoIPURL), metrics, cfg.Location())

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	limiter := middleware.NewFixedWindow(cfg.RateLimitPerMinute, nil)

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(tgLogger),
			middleware.Logging(),
			middleware.RateLimit(limiter),
			middleware.ReporterLoader(cfg),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleMessage(ctx, b, update)
		}),
	}
	if cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}

	b, err = bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	intakeDeps := service.IntakeDeps{
		Sessions:  sessions,
		Locator:   service.NewCoordinateExtractor(cfg.ResolveTimeout),
		Publisher: publisher,
		Metrics:   metrics,
	}
	if ocr := service.NewOCRService(cfg.OpenRouterKey, cfg.OCRModel); ocr.Enabled() {
		intakeDeps.Recognizer = ocr
		intakeDeps.Images = telegram.NewFileLoader(b, maxImageBytes)
	} else {
		slog.Warn("OPENROUTER_API_KEY not set, photo reports disabled")
	}
	intake := service.NewIntakeService(intakeDeps)

	h = handler.New(handler.Deps{
		Sender:   b,
		Cfg:      cfg,
		Intake:   intake,
		SOS:      notifier,
		Stats:    publisher,
		Metrics:  metrics,
		TgLogger: tgLogger,
	})
	h.Register(b)

	// HTTP server
	ready := &readiness{}
	var webhook http.Handler
	if cfg.WebhookURL != "" {
		webhook = b.WebhookHandler()
	}
	srv := server.New(server.Options{
		Addr:    cfg.HTTPAddr,
		Ready:   ready,
		SOS:     notifier,
		Webhook: webhook,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	ready.ready.Store(true)
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	// Evict idle sessions and finished rate limit windows
	go func() {
		ticker := time.NewTicker(config.SessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					slog.Debug("expired sessions evicted", "count", n)
				}
				metrics.ActiveSessions.Set(float64(sessions.Len()))
				limiter.Cleanup()
			}
		}
	}()

	// Start bot
	if cfg.WebhookURL != "" {
		if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         cfg.WebhookURL,
			SecretToken: cfg.WebhookSecret,
		}); err != nil {
			slog.Error("failed to set webhook", "error", err)
			os.Exit(1)
		}
		slog.Info("starting bot in webhook mode", "username", me.Username, "url", cfg.WebhookURL)
		b.StartWebhook(ctx)
	} else {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
			slog.Warn("failed to delete webhook", "error", err)
		}
		slog.Info("starting bot in polling mode", "username", me.Username, "id", me.ID)
		b.Start(ctx)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "error", err)
	}
	h.Wait()

	slog.Info("bot stopped gracefully")
}
