package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Core
	BotToken      string `env:"BOT_TOKEN,required,notEmpty"`
	WebhookURL    string `env:"WEBHOOK_URL"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// Server
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":5001"`

	// Broker
	Broker         string        `env:"BROKER" envDefault:"mqtt"`
	AlertTopic     string        `env:"ALERT_TOPIC" envDefault:"staferb/web_alerts"`
	PublishTimeout time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"8s"`

	// Broker: MQTT over TLS
	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTPort     int    `env:"MQTT_PORT" envDefault:"8883"`
	MQTTUsername string `env:"MQTT_USERNAME"`
	MQTTPassword string `env:"MQTT_PASSWORD"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"firelinx-bot"`

	// Broker: Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTLS     bool     `env:"KAFKA_TLS" envDefault:"false"`

	// Intake
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"10s"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	AlertTimezone  string        `env:"ALERT_TIMEZONE" envDefault:"Local"`

	// OCR via OpenRouter vision models
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	OCRModel      string `env:"OCR_MODEL" envDefault:"google/gemini-2.0-flash-001"`

	// Alert journal: postgres://..., sqlite:<path>, or empty
	JournalDSN string `env:"JOURNAL_DSN"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Rate limit (messages per chat per minute)
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Telegram logging
	LogTelegramChatID int64 `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError     int   `env:"LOG_TOPIC_ERROR"`
	LogTopicAlert     int   `env:"LOG_TOPIC_ALERT"`
	LogTopicSOS       int   `env:"LOG_TOPIC_SOS"`

	// SOS: SMS via Twilio
	TwilioAccountSID     string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken      string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber    string `env:"TWILIO_PHONE_NUMBER"`
	RecipientPhoneNumber string `env:"RECIPIENT_PHONE_NUMBER"`

	// SOS: email via SMTP
	EmailSender     string   `env:"EMAIL_SENDER"`
	EmailPassword   string   `env:"EMAIL_PASSWORD"`
	EmailRecipients []string `env:"EMAIL_RECIPIENTS" envSeparator:","`
	SMTPHost        string   `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort        int      `env:"SMTP_PORT" envDefault:"587"`

	// SOS: best-effort IP geolocation
	GeoIPURL string `env:"GEOIP_URL" envDefault:"https://ipinfo.io/json"`

	location *time.Location
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Broker = strings.ToLower(strings.TrimSpace(c.Broker))
	switch c.Broker {
	case BrokerMQTT:
		if c.MQTTBroker == "" {
			return errors.New("MQTT_BROKER is required when BROKER=mqtt")
		}
		if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
			return fmt.Errorf("invalid MQTT_PORT %d", c.MQTTPort)
		}
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required when BROKER=kafka")
		}
	default:
		return fmt.Errorf("invalid BROKER %q (want mqtt or kafka)", c.Broker)
	}
	if c.AlertTopic == "" {
		return errors.New("ALERT_TOPIC is required")
	}
	if c.PublishTimeout <= 0 {
		return errors.New("invalid PUBLISH_TIMEOUT")
	}
	if c.ResolveTimeout <= 0 {
		return errors.New("invalid RESOLVE_TIMEOUT")
	}
	if c.SessionTTL <= 0 {
		return errors.New("invalid SESSION_TTL")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("invalid RATE_LIMIT_PER_MINUTE")
	}
	loc, err := time.LoadLocation(c.AlertTimezone)
	if err != nil {
		return fmt.Errorf("invalid ALERT_TIMEZONE: %w", err)
	}
	c.location = loc
	return nil
}

// Location is the time zone used for the alert date and time fields.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// SMSEnabled reports whether all Twilio settings are present.
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" &&
		c.TwilioPhoneNumber != "" && c.RecipientPhoneNumber != ""
}

// EmailEnabled reports whether SMTP credentials and recipients are present.
func (c *Config) EmailEnabled() bool {
	return c.EmailSender != "" && c.EmailPassword != "" && len(c.EmailRecipients) > 0
}

// MQTTBrokerURL is the TLS broker address understood by the MQTT client.
func (c *Config) MQTTBrokerURL() string {
	return fmt.Sprintf("ssl://%s:%d", c.MQTTBroker, c.MQTTPort)
}
