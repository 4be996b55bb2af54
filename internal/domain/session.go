package domain

import "time"

// Stage is the position of a conversation in the intake flow.
type Stage int

const (
	StageAwaitingLocation Stage = iota
	StageAwaitingClassification
	StageAwaitingSeverity
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingLocation:
		return "awaiting_location"
	case StageAwaitingClassification:
		return "awaiting_classification"
	case StageAwaitingSeverity:
		return "awaiting_severity"
	case StageComplete:
		return "complete"
	}
	return "unknown"
}

// Session is the in-progress report of one conversation.
//
// AwaitingClassification implies Coordinate != nil; AwaitingSeverity implies
// both Coordinate and Classification are set.
type Session struct {
	ChatID         int64
	Stage          Stage
	Coordinate     *Coordinate
	Classification *Classification
	Source         Source
	UpdatedAt      time.Time
}

// NewLocatedSession starts a session from an extracted coordinate.
func NewLocatedSession(chatID int64, coord Coordinate, source Source) *Session {
	return &Session{
		ChatID:     chatID,
		Stage:      StageAwaitingClassification,
		Coordinate: &coord,
		Source:     source,
		UpdatedAt:  clock.Now(),
	}
}

// Classify records the classification and advances to severity.
func (s *Session) Classify(c Classification) *Session {
	next := s.Clone()
	next.Classification = &c
	next.Stage = StageAwaitingSeverity
	next.UpdatedAt = clock.Now()
	return next
}

// Valid reports whether the stage invariants hold.
func (s *Session) Valid() bool {
	switch s.Stage {
	case StageAwaitingClassification:
		return s.Coordinate != nil
	case StageAwaitingSeverity:
		return s.Coordinate != nil && s.Classification != nil
	}
	return false
}

// Clone returns a deep copy; sessions never share coordinate pointers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Coordinate != nil {
		c := *s.Coordinate
		out.Coordinate = &c
	}
	if s.Classification != nil {
		c := *s.Classification
		out.Classification = &c
	}
	return &out
}
