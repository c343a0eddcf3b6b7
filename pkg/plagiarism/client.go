package plagiarism

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Document is one submission's extracted text attributed to its author.
type Document struct {
	Email string `json:"email"`
	Text  string `json:"text"`
}

// Match is one pairwise similarity verdict from the service.
type Match struct {
	Email      string  `json:"email"`
	With       string  `json:"with"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// Client talks to the external similarity service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client with the provided base URL and round-trip
// timeout; zero means a 1 minute default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Check posts all documents for pairwise comparison and returns the matches.
// Fewer than two documents short-circuits to an empty result.
func (c *Client) Check(ctx context.Context, docs []Document) ([]Match, error) {
	if len(docs) < 2 {
		return nil, nil
	}

	payload, err := json.Marshal(map[string]interface{}{"files": docs})
	if err != nil {
		return nil, fmt.Errorf("marshal similarity payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check-plagiarism", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build similarity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call similarity service: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read similarity response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("similarity service returned status %d", resp.StatusCode)
	}

	var matches []Match
	if err := json.Unmarshal(raw, &matches); err != nil {
		return nil, errors.New("similarity service returned a malformed response")
	}
	return matches, nil
}
