package admissions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/noah-isme/campus-sis-api/pkg/config"
)

// ErrNotConfigured is returned when no base URL is set.
var ErrNotConfigured = errors.New("admissions client not configured")

// StatusError reports a non-2xx answer from the admissions API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("admissions api returned %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether a later attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Client calls the external admissions system.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg config.AdmissionsConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, http: &http.Client{Timeout: timeout}}
}

type semesterAssignment struct {
	SemesterID string `json:"semester_id"`
}

// NotifySemesterAssignment tells admissions which semester an applicant was enrolled into.
func (c *Client) NotifySemesterAssignment(ctx context.Context, externalID, semesterID string) error {
	if c == nil || c.baseURL == "" {
		return ErrNotConfigured
	}
	payload, err := json.Marshal(semesterAssignment{SemesterID: semesterID})
	if err != nil {
		return fmt.Errorf("encode semester assignment: %w", err)
	}

	endpoint := fmt.Sprintf("%s/applicants/%s/semester", c.baseURL, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build admissions request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call admissions api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
