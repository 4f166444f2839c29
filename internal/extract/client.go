// Package extract defines the contract with the external keyword-extraction
// service and a cached decorator around it. The service turns a free-text
// user message into an ordered list of search keywords; extraction itself is
// outside this process.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/woodway-ua/photoindex/pkg/config"
	"github.com/woodway-ua/photoindex/pkg/logger"
)

// Extractor produces an ordered keyword list for a user message. An empty
// list means "no actionable keyword" and is not an error.
type Extractor interface {
	Extract(ctx context.Context, message string) ([]string, error)
}

// HTTPClient calls the extraction service over HTTP.
type HTTPClient struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates a client for the configured extraction endpoint.
func NewHTTPClient(cfg config.ExtractionConfig) *HTTPClient {
	return &HTTPClient{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.WithComponent("extraction-client"),
	}
}

type extractRequest struct {
	Message string `json:"message"`
}

type extractResponse struct {
	Keywords []string `json:"keywords"`
}

// Extract posts the message and returns the service's keyword list in the
// producer-defined (priority) order.
func (c *HTTPClient) Extract(ctx context.Context, message string) ([]string, error) {
	body, err := json.Marshal(extractRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshaling extraction request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %s", resp.Status)
	}
	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding extraction response: %w", err)
	}
	c.logger.Debug("keywords extracted", "count", len(out.Keywords))
	return out.Keywords, nil
}
