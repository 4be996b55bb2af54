package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	AlertCommand = "fire_alert"
	StationID    = "TG"
)

// Alert is the wire payload consumed by the field devices. Field names and
// string formats are a compatibility contract and must not change.
type Alert struct {
	Command string    `json:"command"`
	Payload AlertBody `json:"payload"`
}

// AlertBody carries the report fields, all rendered as strings except Verified.
type AlertBody struct {
	FireType      string `json:"fireType"`
	FireIntensity string `json:"fireIntensity"`
	Verified      bool   `json:"verified"`
	User          string `json:"user"`
	UserID        string `json:"userID"`
	StnID         string `json:"stnID"`
	Latitude      string `json:"latitude"`
	Longitude     string `json:"longitude"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

// NewAlert renders a report into the canonical payload, formatting the capture
// time in loc.
func NewAlert(r FireReport, loc *time.Location) Alert {
	if loc == nil {
		loc = time.Local
	}
	at := r.CapturedAt.In(loc)
	return Alert{
		Command: AlertCommand,
		Payload: AlertBody{
			FireType:      string(r.Classification),
			FireIntensity: r.Severity.String(),
			Verified:      true,
			User:          r.Reporter.Name,
			UserID:        r.Reporter.ShortID,
			StnID:         StationID,
			Latitude:      FormatDDM(r.Coordinate.Lat, true),
			Longitude:     FormatDDM(r.Coordinate.Lng, false),
			Date:          at.Format("02/01"),
			Time:          at.Format("15:04:05"),
		},
	}
}

// Encode serializes the alert as UTF-8 JSON without HTML escaping, so the
// degree sign and apostrophe reach the devices literally.
func (a Alert) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("encode alert: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
