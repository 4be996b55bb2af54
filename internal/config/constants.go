package config

import "time"

const (
	BrokerMQTT  = "mqtt"
	BrokerKafka = "kafka"

	// Session eviction sweep interval
	SessionCleanupInterval = 1 * time.Minute

	// Timeout for a chat-triggered SOS dispatch
	SOSTimeout = 30 * time.Second

	// Timeout for OCR of one image
	OCRTimeout = 45 * time.Second

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Largest page body scanned for coordinates after a redirect
	MaxResolvedPageBytes = 1 << 20

	// Graceful shutdown budget for the HTTP server
	ShutdownTimeout = 10 * time.Second

	// Example shown in usage and format error prompts
	FireCommandExample = "/fire B 3 22.5726 88.3639"
)

// MapLinkDomains are the substrings that mark a message as a shared map link.
var MapLinkDomains = []string{
	"maps.app.goo.gl",
	"goo.gl/maps",
	"google.com/maps",
	"maps.google.com",
}
