package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/set-night/firelinx/internal/config"
	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/observability"
)

// LocationSource extracts coordinates from links and recognized text.
type LocationSource interface {
	FromURL(ctx context.Context, rawURL string) (domain.Coordinate, error)
	FromText(text string) (domain.Coordinate, error)
}

// TextRecognizer transcribes the text visible in an image.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

// ImageLoader fetches the bytes of an attached image.
type ImageLoader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// AlertSender publishes a finalized report.
type AlertSender interface {
	Publish(ctx context.Context, report domain.FireReport) domain.PublishOutcome
}

// Outcome is the result of handling one inbound message.
type Outcome struct {
	Kind    string
	Prompt  domain.Prompt
	Report  *domain.FireReport
	Publish *domain.PublishOutcome
	Err     error
}

// IntakeService drives the per-chat report flow.
type IntakeService struct {
	sessions   *SessionStore
	locator    LocationSource
	recognizer TextRecognizer
	images     ImageLoader
	publisher  AlertSender
	metrics    *observability.Metrics
}

// IntakeDeps contains the collaborators of IntakeService. Recognizer and Images
// may be nil, which disables photo reports.
type IntakeDeps struct {
	Sessions   *SessionStore
	Locator    LocationSource
	Recognizer TextRecognizer
	Images     ImageLoader
	Publisher  AlertSender
	Metrics    *observability.Metrics
}

func NewIntakeService(deps IntakeDeps) *IntakeService {
	return &IntakeService{
		sessions:   deps.Sessions,
		locator:    deps.Locator,
		recognizer: deps.Recognizer,
		images:     deps.Images,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
	}
}

// Handle processes one message. The session transition, including link
// resolution and OCR, runs under the chat's lock; the broker send happens after
// the session was cleared.
func (s *IntakeService) Handle(ctx context.Context, in domain.Inbound) Outcome {
	var out Outcome
	s.sessions.Update(in.ChatID, func(cur *domain.Session) *domain.Session {
		var next *domain.Session
		next, out = s.step(ctx, in, cur)
		return next
	})

	s.metrics.MessagesHandled.WithLabelValues(out.Kind).Inc()
	s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))

	if out.Report != nil {
		published := s.publisher.Publish(ctx, *out.Report)
		out.Publish = &published
		out.Prompt = publishedPrompt(*out.Report, published)
		if !published.Delivered {
			out.Err = fmt.Errorf("%w: %s", domain.ErrPublishFailed, published.Reason)
		}
	}
	return out
}

// Cancel drops the chat's report in progress.
func (s *IntakeService) Cancel(chatID int64) domain.Prompt {
	had := s.sessions.Delete(chatID)
	s.metrics.ActiveSessions.Set(float64(s.sessions.Len()))
	return cancelPrompt(had)
}

// Pending returns a copy of the chat's report in progress, or nil.
func (s *IntakeService) Pending(chatID int64) *domain.Session {
	return s.sessions.Get(chatID)
}

// step computes the transition for one message. Returning cur unchanged keeps
// the stored session as it was; nil clears it.
func (s *IntakeService) step(ctx context.Context, in domain.Inbound, cur *domain.Session) (*domain.Session, Outcome) {
	text := strings.TrimSpace(in.Text)

	if isFireCommand(text) {
		report, err := parseFireCommand(in, text)
		if err != nil {
			return cur, Outcome{Kind: "command", Prompt: formatErrorPrompt(), Err: err}
		}
		return nil, Outcome{Kind: "command", Report: &report}
	}

	if link, ok := FindMapLink(text); ok {
		coord, err := s.locator.FromURL(ctx, link)
		s.countExtraction(domain.SourceLink, err)
		if err != nil {
			slog.Warn("link extraction failed", "chat_id", in.ChatID, "error", err)
			return cur, Outcome{Kind: "link", Prompt: linkErrorPrompt(errors.Is(err, domain.ErrResolutionFailed)), Err: err}
		}
		return domain.NewLocatedSession(in.ChatID, coord, domain.SourceLink), Outcome{Kind: "link", Prompt: locatedPrompt()}
	}

	if in.Image != nil {
		if s.recognizer == nil || s.images == nil {
			return cur, Outcome{Kind: "image", Prompt: ocrDisabledPrompt(), Err: fmt.Errorf("%w: photo recognition disabled", domain.ErrResolutionFailed)}
		}
		coord, err := s.fromImage(ctx, in.Image)
		s.countExtraction(domain.SourceImage, err)
		if err != nil {
			slog.Warn("image extraction failed", "chat_id", in.ChatID, "error", err)
			return cur, Outcome{Kind: "image", Prompt: imageErrorPrompt(errors.Is(err, domain.ErrResolutionFailed)), Err: err}
		}
		return domain.NewLocatedSession(in.ChatID, coord, domain.SourceImage), Outcome{Kind: "image", Prompt: locatedPrompt()}
	}

	if cur != nil {
		switch cur.Stage {
		case domain.StageAwaitingClassification:
			if c, err := domain.ParseClassification(text); err == nil {
				return cur.Classify(c), Outcome{Kind: "reply", Prompt: severityPrompt()}
			}
		case domain.StageAwaitingSeverity:
			if sev, err := domain.ParseSeverity(text); err == nil {
				report, err := domain.NewFireReport(in.ChatID, *cur.Classification, sev, *cur.Coordinate, in.Reporter, cur.Source)
				if err != nil {
					return cur, Outcome{Kind: "reply", Prompt: guidancePrompt(cur), Err: err}
				}
				return nil, Outcome{Kind: "reply", Report: &report}
			}
		}
	}

	return cur, Outcome{Kind: "other", Prompt: guidancePrompt(cur)}
}

func (s *IntakeService) fromImage(ctx context.Context, img *domain.ImageRef) (domain.Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, config.OCRTimeout)
	defer cancel()

	data, err := s.images.Download(ctx, img.FileID)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: download image: %v", domain.ErrResolutionFailed, err)
	}
	text, err := s.recognizer.Recognize(ctx, data, img.MimeType)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: recognize image: %v", domain.ErrResolutionFailed, err)
	}
	return s.locator.FromText(text)
}

func (s *IntakeService) countExtraction(source domain.Source, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, domain.ErrResolutionFailed):
		outcome = "failed"
	case err != nil:
		outcome = "unresolvable"
	}
	s.metrics.Extractions.WithLabelValues(string(source), outcome).Inc()
}

// isFireCommand matches "/fire" and "/fire@botname" as the first token.
func isFireCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	return fields[0] == "/fire" || strings.HasPrefix(fields[0], "/fire@")
}

func parseFireCommand(in domain.Inbound, text string) (domain.FireReport, error) {
	tokens := strings.Fields(text)
	if len(tokens) != 5 {
		return domain.FireReport{}, fmt.Errorf("%w: expected 5 tokens, got %d", domain.ErrFormat, len(tokens))
	}
	class, err := domain.ParseClassification(tokens[1])
	if err != nil {
		return domain.FireReport{}, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	sev, err := domain.ParseSeverity(tokens[2])
	if err != nil {
		return domain.FireReport{}, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	coord, err := domain.ParseCoordinate(tokens[3], tokens[4])
	if err != nil {
		return domain.FireReport{}, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	report, err := domain.NewFireReport(in.ChatID, class, sev, coord, in.Reporter, domain.SourceCommand)
	if err != nil {
		return domain.FireReport{}, fmt.Errorf("%w: %v", domain.ErrFormat, err)
	}
	return report, nil
}
