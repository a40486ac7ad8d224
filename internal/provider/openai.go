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
	openAIAPIBase    = "https://api.openai.com/v1"
	defaultMaxOutput = 4096
)

// OpenAIProvider implements Provider using the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// OpenAIOption configures the provider.
type OpenAIOption func(*OpenAIProvider)

func WithOpenAIBaseURL(u string) OpenAIOption {
	return func(p *OpenAIProvider) { p.baseURL = u }
}

func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) { p.client = c }
}

// NewOpenAIProvider constructs an OpenAI provider. It fails fast when the
// API key is absent — there is no unconfigured half-state.
func NewOpenAIProvider(apiKey, model string, logger zerolog.Logger, opts ...OpenAIOption) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", agenterrors.ErrProviderNotInitialized)
	}
	p := &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAIAPIBase,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger.With().Str("component", "provider.openai").Logger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *OpenAIProvider) Name() string            { return "openai" }
func (p *OpenAIProvider) Model() string           { return p.model }
func (p *OpenAIProvider) SupportsStreaming() bool { return true }

// ---- OpenAI wire types ----

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_completion_tokens,omitempty"`
	Stream    bool            `json:"stream,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type openAIStreamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *OpenAIProvider) doRequest(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	body, err := json.Marshal(openAIRequest{
		Model:     p.model,
		Messages:  []openAIMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: defaultMaxOutput,
		Stream:    stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai http: %w", err)
	}
	return resp, nil
}

// Generate performs one buffered chat completion.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := p.doRequest(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var or openAIResponse
	if err := json.Unmarshal(raw, &or); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if or.Error != nil {
		return nil, agenterrors.NewAPIError("openai", resp.StatusCode,
			fmt.Sprintf("%s %s: %s", or.Error.Type, or.Error.Code, or.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, agenterrors.NewAPIError("openai", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	out := &Result{
		Text:         or.Choices[0].Message.Content,
		InputTokens:  or.Usage.PromptTokens,
		OutputTokens: or.Usage.CompletionTokens,
	}
	p.logger.Debug().
		Str("request_id", req.RequestID).
		Str("operation", string(req.Operation)).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("openai generate")
	return out, nil
}

// Stream performs one streaming chat completion, relaying deltas as chunks.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	resp, err := p.doRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, agenterrors.NewAPIError("openai", resp.StatusCode, strings.TrimSpace(string(raw)))
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
			if data == "[DONE]" {
				out <- Chunk{Stage: req.Stage, Final: true}
				return
			}

			var ev openAIStreamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				continue
			}
			if len(ev.Choices) == 0 {
				continue
			}
			if text := ev.Choices[0].Delta.Content; text != "" {
				select {
				case out <- Chunk{Content: text, Stage: req.Stage}:
				case <-ctx.Done():
					out <- Chunk{Stage: req.Stage, Final: true, Err: ctx.Err()}
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			out <- Chunk{Stage: req.Stage, Final: true, Err: err}
			return
		}
		// Stream ended without a [DONE] sentinel; still honor the shape.
		out <- Chunk{Stage: req.Stage, Final: true}
	}()
	return out, nil
}
