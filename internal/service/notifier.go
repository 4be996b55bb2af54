package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/observability"
)

// SMSSender delivers one text message to the configured recipient.
type SMSSender interface {
	SendSMS(ctx context.Context, body string) error
}

// EmailSender delivers one message to all configured recipients and returns
// how many there were.
type EmailSender interface {
	SendEmail(ctx context.Context, subject, body string) (int, error)
}

// Geolocator estimates the position of this host.
type Geolocator interface {
	Locate(ctx context.Context) (domain.Coordinate, error)
}

// Notifier raises emergency SMS and email notifications. The two channels run
// concurrently and report independently.
type Notifier struct {
	sms     SMSSender
	email   EmailSender
	geo     Geolocator
	metrics *observability.Metrics
	loc     *time.Location
}

// NewNotifier builds a notifier. Nil senders are reported as not configured.
func NewNotifier(sms SMSSender, email EmailSender, geo Geolocator, metrics *observability.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{sms: sms, email: email, geo: geo, metrics: metrics, loc: loc}
}

// Trigger sends both notifications and waits for them.
func (n *Notifier) Trigger(ctx context.Context, req domain.SOSRequest) domain.SOSResult {
	if req.Coordinate == nil && strings.TrimSpace(req.ManualLocation) == "" && n.geo != nil {
		if c, err := n.geo.Locate(ctx); err != nil {
			slog.Warn("ip geolocation failed", "error", err)
		} else {
			req.Coordinate = &c
		}
	}

	now := domain.Clock().Now().In(n.loc)
	body := SOSMessage(req, now)
	subject := "FIRE Alert - " + now.Format(time.DateTime)

	var (
		result domain.SOSResult
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.SMS = n.sendSMS(ctx, body)
	}()
	go func() {
		defer wg.Done()
		result.Email = n.sendEmail(ctx, subject, body)
	}()
	wg.Wait()

	slog.Info("sos dispatched", "source", req.Source,
		"sms_status", result.SMS.Status, "email_status", result.Email.Status)
	return result
}

func (n *Notifier) sendSMS(ctx context.Context, body string) domain.ChannelResult {
	if n.sms == nil {
		return n.record("sms", errorResult("Failed to send SMS alert", domain.ErrChannelNotConfigured))
	}
	if err := n.sms.SendSMS(ctx, body); err != nil {
		return n.record("sms", errorResult("Failed to send SMS alert", err))
	}
	return n.record("sms", domain.ChannelResult{Status: "success", Message: "SMS alert sent successfully!"})
}

func (n *Notifier) sendEmail(ctx context.Context, subject, body string) domain.ChannelResult {
	if n.email == nil {
		return n.record("email", errorResult("Failed to send email alerts", domain.ErrChannelNotConfigured))
	}
	count, err := n.email.SendEmail(ctx, subject, body)
	if err != nil {
		return n.record("email", errorResult("Failed to send email alerts", err))
	}
	return n.record("email", domain.ChannelResult{
		Status:  "success",
		Message: fmt.Sprintf("Email alert sent to %d recipients", count),
	})
}

func (n *Notifier) record(channel string, r domain.ChannelResult) domain.ChannelResult {
	n.metrics.SOSDispatch.WithLabelValues(channel, r.Status).Inc()
	return r
}

func errorResult(prefix string, err error) domain.ChannelResult {
	return domain.ChannelResult{Status: "error", Message: prefix + ": " + err.Error()}
}

// SOSMessage renders the notification body shared by both channels.
func SOSMessage(req domain.SOSRequest, at time.Time) string {
	var b strings.Builder
	b.WriteString("Fire Alert!\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", at.Format(time.DateTime))
	fmt.Fprintf(&b, "Fire Intensity: %s\n", orUnknown(req.Intensity))
	fmt.Fprintf(&b, "Fire Cause: %s\n", orUnknown(req.Cause))

	switch {
	case req.Coordinate != nil:
		lat := strconv.FormatFloat(req.Coordinate.Lat, 'f', -1, 64)
		lng := strconv.FormatFloat(req.Coordinate.Lng, 'f', -1, 64)
		fmt.Fprintf(&b, "Fire location: Latitude: %s, Longitude: %s\n", lat, lng)
		fmt.Fprintf(&b, "Google Maps: %s", req.Coordinate.MapsLink())
	case strings.TrimSpace(req.ManualLocation) != "":
		fmt.Fprintf(&b, "Fire location: %s", strings.TrimSpace(req.ManualLocation))
	default:
		b.WriteString("Fire location: Location not available")
	}
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return strings.TrimSpace(s)
}

// IPGeolocator reads the "loc" field of an ipinfo-style endpoint.
type IPGeolocator struct {
	url        string
	httpClient *http.Client
}

func NewIPGeolocator(url string) *IPGeolocator {
	return &IPGeolocator{
		url:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (g *IPGeolocator) Locate(ctx context.Context) (domain.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("fetch location: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinate{}, fmt.Errorf("geolocation returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Loc string `json:"loc"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.Coordinate{}, fmt.Errorf("parse response: %w", err)
	}

	lat, lng, ok := strings.Cut(result.Loc, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("unexpected loc %q", result.Loc)
	}
	return domain.ParseCoordinate(lat, lng)
}
