package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	agenterrors "github.com/draftforge/proposal-agent/internal/errors"
)

// OllamaProvider implements Provider against a local or remote Ollama server.
type OllamaProvider struct {
	client *api.Client
	model  string
	logger zerolog.Logger
}

// NewOllamaProvider constructs an Ollama provider, failing fast when no host
// is configured.
func NewOllamaProvider(host, model string, logger zerolog.Logger) (*OllamaProvider, error) {
	if host == "" {
		return nil, fmt.Errorf("ollama: %w", agenterrors.ErrProviderNotInitialized)
	}
	baseURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	httpClient := &http.Client{Timeout: 300 * time.Second}
	return &OllamaProvider{
		client: api.NewClient(baseURL, httpClient),
		model:  model,
		logger: logger.With().Str("component", "provider.ollama").Logger(),
	}, nil
}

func (p *OllamaProvider) Name() string            { return "ollama" }
func (p *OllamaProvider) Model() string           { return p.model }
func (p *OllamaProvider) SupportsStreaming() bool { return true }

func (p *OllamaProvider) chatRequest(req Request, stream bool) *api.ChatRequest {
	return &api.ChatRequest{
		Model:    p.model,
		Messages: []api.Message{{Role: "user", Content: req.Prompt}},
		Stream:   &stream,
	}
}

// Generate performs one buffered chat call.
func (p *OllamaProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	out := &Result{}
	err := p.client.Chat(ctx, p.chatRequest(req, false), func(resp api.ChatResponse) error {
		out.Text += resp.Message.Content
		if resp.Done {
			out.InputTokens = resp.PromptEvalCount
			out.OutputTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}

	p.logger.Debug().
		Str("request_id", req.RequestID).
		Str("operation", string(req.Operation)).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("ollama generate")
	return out, nil
}

// Stream performs one streaming chat call.
func (p *OllamaProvider) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	out := make(chan Chunk, 8)
	go func() {
		defer close(out)
		err := p.client.Chat(ctx, p.chatRequest(req, true), func(resp api.ChatResponse) error {
			if resp.Message.Content != "" {
				select {
				case out <- Chunk{Content: resp.Message.Content, Stage: req.Stage}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			out <- Chunk{Stage: req.Stage, Final: true, Err: fmt.Errorf("ollama stream: %w", err)}
			return
		}
		out <- Chunk{Stage: req.Stage, Final: true}
	}()
	return out, nil
}
