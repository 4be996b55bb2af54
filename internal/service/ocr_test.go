package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOCR(t *testing.T, handler http.HandlerFunc) *OCRService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewOCRService("test-key", "google/gemini-2.0-flash-001")
	s.baseURL = srv.URL
	return s
}

func TestOCRService_Recognize(t *testing.T) {
	var got map[string]any
	s := newTestOCR(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  Lat 22.5726 Long 88.3639\n"}}]}`))
	})

	text, err := s.Recognize(context.Background(), []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "Lat 22.5726 Long 88.3639", text)

	assert.Equal(t, "google/gemini-2.0-flash-001", got["model"])
	_, hasTemp := got["temperature"]
	assert.False(t, hasTemp, "gemini requests carry no temperature")

	messages := got["messages"].([]any)
	parts := messages[0].(map[string]any)["content"].([]any)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,/9j/", image["url"])
}

func TestOCRService_Errors(t *testing.T) {
	s := newTestOCR(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := s.Recognize(context.Background(), []byte("img"), "image/png")
	assert.ErrorContains(t, err, "429")

	s = newTestOCR(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})
	_, err = s.Recognize(context.Background(), []byte("img"), "")
	assert.ErrorContains(t, err, "no choices")

	_, err = NewOCRService("", "m").Recognize(context.Background(), []byte("img"), "")
	assert.Error(t, err)
}
