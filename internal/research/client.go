// Package research wraps the external market research collaborator.
package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/draftforge/proposal-agent/internal/errors"
	"github.com/draftforge/proposal-agent/internal/retry"
)

// HTTPClient abstracts HTTP calls for testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the structured output of a market research run.
type Result struct {
	Summary      string   `json:"summary"`
	MarketSize   string   `json:"marketSize"`
	Competitors  []string `json:"competitors"`
	Trends       []string `json:"trends"`
	Risks        []string `json:"risks"`
	Opportunities []string `json:"opportunities"`
}

// Client calls the market research collaborator API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	retryCfg   retry.Config
	logger     zerolog.Logger
}

// NewClient creates a new research API client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.With().Str("component", "research").Logger(),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

type conductRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	ProjectID   string `json:"projectId"`
}

// Conduct runs market research for a project. Transient failures are
// retried with backoff; a non-retryable failure returns immediately.
func (c *Client) Conduct(ctx context.Context, researchType, description, projectID string) (*Result, error) {
	payload, err := json.Marshal(conductRequest{
		Type:        researchType,
		Description: description,
		ProjectID:   projectID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var result *Result
	err = retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		r, callErr := c.conduct(ctx, payload)
		if callErr != nil {
			return callErr
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("project_id", projectID).
		Str("type", researchType).
		Msg("market research completed")
	return result, nil
}

func (c *Client) conduct(ctx context.Context, payload []byte) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/research", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, perrors.NewAPIError("research", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}
