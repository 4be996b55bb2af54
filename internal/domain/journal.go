package domain

import "time"

// JournalEntry is one publish attempt as stored in the alert journal.
type JournalEntry struct {
	ID         string
	Report     FireReport
	Payload    []byte
	Delivered  bool
	Reason     string
	RecordedAt time.Time
}

// JournalStats summarizes the journal for operators.
type JournalStats struct {
	Total        int64
	Delivered    int64
	Failed       int64
	LastCaptured *time.Time
}
