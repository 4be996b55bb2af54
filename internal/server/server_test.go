package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/set-night/firelinx/internal/domain"
	"github.com/set-night/firelinx/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockSOS struct {
	got []domain.SOSRequest
}

func (m *mockSOS) Trigger(_ context.Context, req domain.SOSRequest) domain.SOSResult {
	m.got = append(m.got, req)
	return domain.SOSResult{
		SMS:   domain.ChannelResult{Status: "success", Message: "SMS alert sent successfully!"},
		Email: domain.ChannelResult{Status: "error", Message: "Failed to send email alerts: channel not configured"},
	}
}

func newTestServer(readyErr error, sos *mockSOS, webhook http.Handler) *server.Server {
	return server.New(server.Options{
		Addr:    ":0",
		Ready:   &mockReadiness{err: readyErr},
		SOS:     sos,
		Webhook: webhook,
	})
}

func serve(srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	rec := serve(newTestServer(nil, &mockSOS{}, nil), http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pong!", rec.Body.String())
}

func TestHealthAndReadiness(t *testing.T) {
	rec := serve(newTestServer(nil, &mockSOS{}, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestServer(nil, &mockSOS{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestServer(fmt.Errorf("bot identity not fetched"), &mockSOS{}, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "bot identity not fetched", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, &mockSOS{}, nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSOSWithCoordinate(t *testing.T) {
	sos := &mockSOS{}
	rec := serve(newTestServer(nil, sos, nil), http.MethodPost, "/api/sos",
		`{"latitude": 22.5726, "longitude": 88.3639, "intensity": "High", "cause": "Electrical"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sos.got, 1)
	require.NotNil(t, sos.got[0].Coordinate)
	assert.InDelta(t, 22.5726, sos.got[0].Coordinate.Lat, 1e-9)
	assert.Equal(t, "High", sos.got[0].Intensity)
	assert.Equal(t, "web", sos.got[0].Source)

	var res domain.SOSResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "success", res.SMS.Status)
	assert.Equal(t, "error", res.Email.Status)
}

func TestSOSManualLocation(t *testing.T) {
	sos := &mockSOS{}
	rec := serve(newTestServer(nil, sos, nil), http.MethodPost, "/api/sos", `{"location": "  Block C, 3rd floor "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sos.got, 1)
	assert.Nil(t, sos.got[0].Coordinate)
	assert.Equal(t, "Block C, 3rd floor", sos.got[0].ManualLocation)
}

func TestSOSRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `latitude=1`},
		{"latitude only", `{"latitude": 10}`},
		{"out of range", `{"latitude": 95, "longitude": 10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sos := &mockSOS{}
			rec := serve(newTestServer(nil, sos, nil), http.MethodPost, "/api/sos", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, sos.got)
		})
	}
}

func TestSOSMethodNotAllowed(t *testing.T) {
	rec := serve(newTestServer(nil, &mockSOS{}, nil), http.MethodGet, "/api/sos", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookMountedOnlyWhenConfigured(t *testing.T) {
	rec := serve(newTestServer(nil, &mockSOS{}, nil), http.MethodPost, "/webhook", "{}")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	called := false
	hook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec = serve(newTestServer(nil, &mockSOS{}, hook), http.MethodPost, "/webhook", "{}")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}
