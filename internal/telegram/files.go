package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// FileAPI is the subset of *bot.Bot used to fetch attachments.
type FileAPI interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// FileLoader downloads photos and documents sent to the bot.
type FileLoader struct {
	api        FileAPI
	httpClient *http.Client
	maxBytes   int64
}

func NewFileLoader(api FileAPI, maxBytes int64) *FileLoader {
	return &FileLoader{
		api:        api,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxBytes:   maxBytes,
	}
}

// Download downloads a file from Telegram by file ID.
func (l *FileLoader) Download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := l.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.api.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file data: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", l.maxBytes)
	}

	return data, nil
}
