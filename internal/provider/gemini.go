package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	agenterrors "github.com/draftforge/proposal-agent/internal/errors"
)

// GeminiProvider implements Provider using the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// NewGeminiProvider constructs a Gemini provider, failing fast when the API
// key is absent.
func NewGeminiProvider(ctx context.Context, apiKey, model string, logger zerolog.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", agenterrors.ErrProviderNotInitialized)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "provider.gemini").Logger(),
	}, nil
}

func (p *GeminiProvider) Name() string            { return "gemini" }
func (p *GeminiProvider) Model() string           { return p.model }
func (p *GeminiProvider) SupportsStreaming() bool { return true }

func (p *GeminiProvider) contents(req Request) []*genai.Content {
	return []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			text += part.Text
		}
	}
	return text
}

// Generate performs one buffered generation call.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, p.contents(req), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := &Result{Text: extractText(resp)}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	p.logger.Debug().
		Str("request_id", req.RequestID).
		Str("operation", string(req.Operation)).
		Int("in_tokens", out.InputTokens).
		Int("out_tokens", out.OutputTokens).
		Msg("gemini generate")
	return out, nil
}

// Stream performs one streaming generation call.
func (p *GeminiProvider) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	iter := p.client.Models.GenerateContentStream(ctx, p.model, p.contents(req), nil)

	out := make(chan Chunk, 8)
	go func() {
		defer close(out)
		for resp, err := range iter {
			if err != nil {
				out <- Chunk{Stage: req.Stage, Final: true, Err: fmt.Errorf("gemini stream: %w", err)}
				return
			}
			if text := extractText(resp); text != "" {
				select {
				case out <- Chunk{Content: text, Stage: req.Stage}:
				case <-ctx.Done():
					out <- Chunk{Stage: req.Stage, Final: true, Err: ctx.Err()}
					return
				}
			}
		}
		out <- Chunk{Stage: req.Stage, Final: true}
	}()
	return out, nil
}
