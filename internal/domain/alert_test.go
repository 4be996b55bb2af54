package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAlert_Encode(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 4, 9, 5, 7, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	r, err := NewFireReport(99, ClassB, 3, Coordinate{Lat: 22.5726, Lng: 88.3639},
		NewReporter(5012345678, "Tom&Jerry<3>", ""), SourceCommand)
	require.NoError(t, err)

	data, err := NewAlert(r, time.UTC).Encode()
	require.NoError(t, err)

	want := `{"command":"fire_alert","payload":{"fireType":"B","fireIntensity":"3","verified":true,` +
		`"user":"Tom&Jerry<3>","userID":"45678","stnID":"TG","latitude":"22°34.3560'N",` +
		`"longitude":"88°21.8340'E","date":"04/03","time":"09:05:07"}}`
	assert.Equal(t, want, string(data))
}

func TestNewAlert_Timezone(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	r, err := NewFireReport(1, ClassA, 1, Coordinate{}, NewReporter(1, "a", ""), SourceLink)
	require.NoError(t, err)

	kolkata := time.FixedZone("IST", 5*3600+1800)
	a := NewAlert(r, kolkata)
	assert.Equal(t, "01/01", a.Payload.Date)
	assert.Equal(t, "01:30:00", a.Payload.Time)
}
