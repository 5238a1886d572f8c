// Package cortex implements the SearchIndex port against the Cortex
// text-index HTTP API. Partitions map to Cortex tables, each holding a
// single CONTENT column; Cortex ranks query matches server-side.
package cortex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SearchIndex = (*SearchIndex)(nil)

// SearchIndex implements driven.SearchIndex using Cortex
type SearchIndex struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds Cortex connection configuration
type Config struct {
	// BaseURL is the Cortex endpoint (e.g., http://localhost:8200)
	BaseURL string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
	}
}

// NewSearchIndex creates a new Cortex-backed SearchIndex
func NewSearchIndex(cfg Config) *SearchIndex {
	return &SearchIndex{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type cortexRow struct {
	Content string `json:"content"`
}

type cortexQueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type cortexQueryResponse struct {
	Rows []cortexRow `json:"rows"`
}

// WriteRow persists one text row. The partition's table is created on
// first write; Cortex treats row creation as idempotent per request, not
// per content, so duplicate submissions produce duplicate rows.
func (s *SearchIndex) WriteRow(ctx context.Context, partition, content string) error {
	body, err := json.Marshal(cortexRow{Content: content})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/tables/%s/rows", s.baseURL, partition)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexWrite, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: %s - %s", domain.ErrIndexWrite, resp.Status, string(respBody))
	}
	return nil
}

// Query returns the top-K matching rows of a partition, best first. A
// partition that has never been written to yields no rows, not an error.
func (s *SearchIndex) Query(ctx context.Context, partition, query string, topK int) ([]string, error) {
	body, err := json.Marshal(cortexQueryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/tables/%s/query", s.baseURL, partition)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexQuery, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unwritten partition
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s - %s", domain.ErrIndexQuery, resp.Status, string(respBody))
	}

	var queryResp cortexQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrIndexQuery, err)
	}

	contents := make([]string, 0, len(queryResp.Rows))
	for _, row := range queryResp.Rows {
		contents = append(contents, row.Content)
	}
	return contents, nil
}

// HealthCheck verifies the Cortex service is reachable
func (s *SearchIndex) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cortex unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cortex unhealthy: %s", resp.Status)
	}
	return nil
}
