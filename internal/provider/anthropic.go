package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	agenterrors "github.com/draftforge/proposal-agent/internal/errors"
)

const (
	anthropicAPIBase    = "https://api.anthropic.com/v1"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// AnthropicOption configures the provider.
type AnthropicOption func(*AnthropicProvider)

func WithAnthropicBaseURL(u string) AnthropicOption {
	return func(p *AnthropicProvider) { p.baseURL = u }
}

func WithAnthropicHTTPClient(c *http.Client) AnthropicOption {
	return func(p *AnthropicProvider) { p.client = c }
}

// NewAnthropicProvider constructs an Anthropic provider, failing fast when
// the API key is absent.
func NewAnthropicProvider(apiKey, model string, logger zerolog.Logger, opts ...AnthropicOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", agenterrors.ErrProviderNotInitialized)
	}
	p := &AnthropicProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: anthropicAPIBase,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger.With().Str("component", "provider.anthropic").Logger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *AnthropicProvider) Name() string            { return "anthropic" }
func (p *AnthropicProvider) Model() string           { return p.model }
func (p *AnthropicProvider) SupportsStreaming() bool { return true }

// ---- Anthropic wire types ----

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) doRequest(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: defaultMaxOutput,
		Messages:  []anthropicMessage{{Role: "user", Content: req.Prompt}},
		Stream:    stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic http: %w", err)
	}
	return resp, nil
}

// Generate performs one buffered messages call.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := p.doRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var ar anthropicResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if ar.Error != nil {
		return nil, agenterrors.NewAPIError("anthropic", resp.StatusCode,
			fmt.Sprintf("%s: %s", ar.Error.Type, ar.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, agenterrors.NewAPIError("anthropic", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	out := &Result{
		InputTokens:  ar.Usage.InputTokens,
		OutputTokens: ar.Usage.OutputTokens,
	}
	for _, block := range ar.Content {
		if block.Type == "text" {
			out.Text += block.Text
		}
	}

	p.logger.Debug().
		Str("request_id", req.RequestID).
		Str("operation", string(req.Operation)).
		Str("stop_reason", ar.StopReason).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("anthropic generate")
	return out, nil
}

// Stream performs one streaming messages call, relaying text deltas.
func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	resp, err := p.doRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, agenterrors.NewAPIError("anthropic", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	out := make(chan Chunk, 8)
	go func() {
		defer resp.Body.Close()
		defer close(out)

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var ev struct {
				Type  string `json:"type"`
				Delta struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"delta"`
				Error *struct {
					Type    string `json:"type"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				continue
			}

			switch ev.Type {
			case "content_block_delta":
				if ev.Delta.Text != "" {
					select {
					case out <- Chunk{Content: ev.Delta.Text, Stage: req.Stage}:
					case <-ctx.Done():
						out <- Chunk{Stage: req.Stage, Final: true, Err: ctx.Err()}
						return
					}
				}
			case "error":
				msg := "stream error"
				if ev.Error != nil {
					msg = fmt.Sprintf("%s: %s", ev.Error.Type, ev.Error.Message)
				}
				out <- Chunk{Stage: req.Stage, Final: true, Err: agenterrors.NewAPIError("anthropic", 0, msg)}
				return
			case "message_stop":
				out <- Chunk{Stage: req.Stage, Final: true}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			out <- Chunk{Stage: req.Stage, Final: true, Err: err}
			return
		}
		out <- Chunk{Stage: req.Stage, Final: true}
	}()
	return out, nil
}
