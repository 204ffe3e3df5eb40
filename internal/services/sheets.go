package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultSheetsURL  = "https://docs.google.com/spreadsheets/d"
	defaultRateLimit  = 2.0
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Second
)

// SheetService downloads spreadsheet tabs as TSV exports.
//
// Every attempt waits on a shared rate limiter. Transport errors and 5xx/429
// responses are retried with exponential backoff; other 4xx responses are not.
type SheetService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *log.Logger
	newBackOff func() backoff.BackOff
}

// NewSheetService creates a downloader from the sheets configuration.
func NewSheetService(cfg shared.SheetsConfig, client *http.Client, logger *log.Logger) *SheetService {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSheetsURL
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = defaultMaxRetries
	}
	if client == nil {
		timeout := defaultTimeout
		if cfg.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SheetService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		maxRetries: retries,
		logger:     logger,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// ExportURL returns the TSV export URL of a spreadsheet tab.
func (s *SheetService) ExportURL(sheetID, gid string) string {
	q := url.Values{}
	q.Set("format", "tsv")
	q.Set("gid", gid)
	return fmt.Sprintf("%s/%s/export?%s", s.baseURL, url.PathEscape(sheetID), q.Encode())
}

// Download implements [SheetSource].
func (s *SheetService) Download(ctx context.Context, sheetID, gid string) (string, error) {
	if strings.TrimSpace(sheetID) == "" {
		return "", fmt.Errorf("%w: sheet id", shared.ErrMissingArgument)
	}
	if gid == "" {
		gid = "0"
	}

	target := s.ExportURL(sheetID, gid)
	var body string
	attempt := 0
	op := func() error {
		attempt++
		if err := s.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		text, err := s.fetch(ctx, target)
		if err != nil {
			s.logger.Warn("sheet download failed", "sheet_id", sheetID, "gid", gid, "attempt", attempt, "error", err)
			return err
		}
		body = text
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", fmt.Errorf("%w: %s (gid %s): %v", shared.ErrDownload, sheetID, gid, err)
	}
	s.logger.Debug("downloaded sheet", "sheet_id", sheetID, "gid", gid, "bytes", len(body))
	return body, nil
}

func (s *SheetService) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return string(data), nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	default:
		return "", backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}
