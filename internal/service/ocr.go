package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/set-night/firelinx/internal/config"
)

const ocrPrompt = "Transcribe every piece of text visible in this photo exactly as written, " +
	"including any GPS overlay with latitude and longitude. Output only the text."

// OCRService transcribes photos through an OpenRouter vision model.
type OCRService struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOCRService(apiKey, model string) *OCRService {
	return &OCRService{
		apiKey:     apiKey,
		baseURL:    "https://openrouter.ai/api/v1",
		model:      model,
		httpClient: &http.Client{Timeout: config.OCRTimeout},
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Enabled reports whether an API key is configured.
func (s *OCRService) Enabled() bool {
	return s.apiKey != ""
}

// Recognize returns the text found in the image. The image travels inline as a
// data URL so no bot file link leaves the process.
func (s *OCRService) Recognize(ctx context.Context, image []byte, mimeType string) (string, error) {
	if !s.Enabled() {
		return "", errors.New("ocr is not configured")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	zero := 0.0
	resp, err := s.chat(ctx, []ChatMessage{{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: ocrPrompt},
			{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
		},
	}}, &zero)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ocr response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (s *OCRService) chat(ctx context.Context, messages []ChatMessage, temperature *float64) (*ChatResponse, error) {
	// Skip temperature for Gemini models
	if strings.Contains(strings.ToLower(s.model), "gemini") {
		temperature = nil
	}

	payload, err := json.Marshal(ChatRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("rate limited by OpenRouter (429)")
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("OpenRouter service unavailable (503)")
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("OpenRouter returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("OpenRouter error: %s", chatResp.Error.Message)
	}
	return &chatResp, nil
}
