package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Classification is one of the four fire categories.
type Classification string

const (
	ClassA Classification = "A"
	ClassB Classification = "B"
	ClassC Classification = "C"
	ClassD Classification = "D"
)

// Classifications lists the valid categories in keyboard order.
var Classifications = []Classification{ClassA, ClassB, ClassC, ClassD}

// ParseClassification accepts a single letter, case-insensitive.
func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case ClassA, ClassB, ClassC, ClassD:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidClassification, s)
}

// Description is the human label shown to reporters.
func (c Classification) Description() string {
	switch c {
	case ClassA:
		return "🟢 Type A - Ordinary Combustibles"
	case ClassB:
		return "🟡 Type B - Flammable Liquids"
	case ClassC:
		return "🔴 Type C - Electrical Fires"
	case ClassD:
		return "🟠 Type D - Metal Fires"
	}
	return string(c)
}

// Severity is the fire intensity from 1 (low) to 4 (severe).
type Severity int

// Severities lists the valid intensities in keyboard order.
var Severities = []Severity{1, 2, 3, 4}

// ParseSeverity accepts exactly one of the digits 1-4.
func ParseSeverity(s string) (Severity, error) {
	switch strings.TrimSpace(s) {
	case "1", "2", "3", "4":
		n, _ := strconv.Atoi(strings.TrimSpace(s))
		return Severity(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
}

func (s Severity) String() string {
	return strconv.Itoa(int(s))
}

// Reporter identifies who sent the report.
type Reporter struct {
	ID      int64
	Name    string
	ShortID string
}

// NewReporter picks the display name and derives the short id from the numeric id.
func NewReporter(id int64, username, firstName string) Reporter {
	name := username
	if name == "" {
		name = firstName
	}
	if name == "" {
		name = "Unknown"
	}
	return Reporter{ID: id, Name: name, ShortID: ShortID(id)}
}

// ShortID returns the last five characters of the decimal id.
func ShortID(id int64) string {
	s := strconv.FormatInt(id, 10)
	if len(s) > 5 {
		return s[len(s)-5:]
	}
	return s
}

// Source records which input modality produced the coordinate.
type Source string

const (
	SourceCommand Source = "command"
	SourceLink    Source = "link"
	SourceImage   Source = "image"
)

// FireReport is a finalized report. It is built once and never mutated.
type FireReport struct {
	ChatID         int64
	Classification Classification
	Severity       Severity
	Coordinate     Coordinate
	Reporter       Reporter
	Source         Source
	CapturedAt     time.Time
}

// NewFireReport validates every field and stamps the capture time.
func NewFireReport(chatID int64, class Classification, sev Severity, coord Coordinate, reporter Reporter, source Source) (FireReport, error) {
	if _, err := ParseClassification(string(class)); err != nil {
		return FireReport{}, err
	}
	if sev < 1 || sev > 4 {
		return FireReport{}, fmt.Errorf("%w: %d", ErrInvalidSeverity, sev)
	}
	if _, err := NewCoordinate(coord.Lat, coord.Lng); err != nil {
		return FireReport{}, err
	}
	return FireReport{
		ChatID:         chatID,
		Classification: class,
		Severity:       sev,
		Coordinate:     coord,
		Reporter:       reporter,
		Source:         source,
		CapturedAt:     clock.Now(),
	}, nil
}

// PublishOutcome is the result of the single broker send.
type PublishOutcome struct {
	AlertID   string
	Delivered bool
	Reason    string
}

// Delivered builds a successful outcome.
func Delivered(alertID string) PublishOutcome {
	return PublishOutcome{AlertID: alertID, Delivered: true}
}

// Failed builds a failed outcome carrying the reason shown to the reporter.
func Failed(alertID, reason string) PublishOutcome {
	return PublishOutcome{AlertID: alertID, Reason: reason}
}
