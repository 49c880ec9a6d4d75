// Package api uploads exported rounds to a stats web service.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cwstats/recorder/pkg/core"
)

const (
	// UploadPath is where round exports are posted.
	UploadPath = "/api/v1/rounds/add"
	// HealthPath answers 200 while the service accepts uploads.
	HealthPath = "/healthcheck"

	uploadAttempts = 3
)

// StatusError is returned when the service answers with a non-200 status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to the stats web service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryWait  time.Duration
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryWait:  2 * time.Second,
	}
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// Healthcheck checks if the web service is reachable.
func (c *Client) Healthcheck() error {
	resp, err := c.httpClient.Get(c.baseURL + HealthPath)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("healthcheck", resp)
	}
	return nil
}

// uploadForm builds the multipart body: the round metadata as plain fields,
// then the export file itself.
func (c *Client) uploadForm(filePath string, meta core.UploadMetadata) (*bytes.Buffer, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	name := filepath.Base(filePath)

	fields := [][2]string{
		{"secret", c.apiKey},
		{"filename", name},
		{"world", strconv.Itoa(meta.World)},
		{"team", meta.Team},
		{"teamSize", strconv.Itoa(meta.TeamSize)},
		{"outcome", string(meta.Outcome)},
		{"durationTicks", strconv.Itoa(meta.DurationTicks)},
		{"tag", meta.Tag},
	}
	for _, f := range fields {
		if err := form.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f[0], err)
		}
	}

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return &body, form.FormDataContentType(), nil
}

// Upload sends an exported round file to the web service. Network errors and
// 5xx answers are retried; anything else fails at once.
func (c *Client) Upload(filePath string, meta core.UploadMetadata) error {
	body, contentType, err := c.uploadForm(filePath, meta)
	if err != nil {
		return err
	}
	payload := body.Bytes()

	var lastErr error
	for attempt := 1; attempt <= uploadAttempts; attempt++ {
		if attempt > 1 {
			time.Sleep(c.retryWait * time.Duration(attempt-1))
		}
		lastErr = c.post(payload, contentType)
		var se *StatusError
		if lastErr == nil || (errors.As(lastErr, &se) && se.Status < http.StatusInternalServerError) {
			return lastErr
		}
	}
	return fmt.Errorf("upload failed after %d attempts: %w", uploadAttempts, lastErr)
}

func (c *Client) post(payload []byte, contentType string) error {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+UploadPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError("upload", resp)
	}
	return nil
}
