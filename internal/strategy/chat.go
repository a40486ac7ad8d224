package strategy

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/diagnose"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/prompt"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/requestid"
)

// Chat answers free-form user messages about a project. Failures never
// surface as errors: the diagnostic text is returned as ordinary
// assistant content and the project is left untouched.
type Chat struct {
	orch   Orchestrator
	logger zerolog.Logger
}

// NewChat creates the chat strategy.
func NewChat(orch Orchestrator, logger zerolog.Logger) *Chat {
	return &Chat{orch: orch, logger: logger.With().Str("component", "strategy.chat").Logger()}
}

func (c *Chat) buildRequest(ctx context.Context, p *project.Project, message, history string) (provider.Request, error) {
	text, err := prompt.Build(prompt.KeyChat, prompt.Context{
		"projectName":  p.Name,
		"currentStage": p.CurrentStage,
		"parsedData":   p.ParsedData,
		"history":      history,
		"message":      message,
	})
	if err != nil {
		return provider.Request{}, err
	}
	return provider.Request{
		RequestID: requestid.FromContext(ctx),
		Prompt:    text,
		Operation: provider.OpChat,
		Stage:     p.CurrentStage,
	}, nil
}

func (c *Chat) diagnostic(err error, p *project.Project) string {
	fix := diagnose.Analyze(err, "chat response for project "+p.ID)
	c.logger.Warn().Err(err).Str("project_id", p.ID).Msg("chat generation failed")
	return diagnose.FormatSystemMessage(fix)
}

// Respond generates a buffered chat reply. On any failure the formatted
// diagnostic is returned as the reply.
func (c *Chat) Respond(ctx context.Context, p *project.Project, message, history string) string {
	prov, err := c.orch.ProviderFor(provider.OpChat)
	if err != nil {
		return c.diagnostic(err, p)
	}

	req, err := c.buildRequest(ctx, p, message, history)
	if err != nil {
		return c.diagnostic(err, p)
	}

	callCtx, cancel := c.orch.WithDeadline(ctx)
	defer cancel()

	res, err := prov.Generate(callCtx, req)
	if err != nil {
		return c.diagnostic(err, p)
	}
	return res.Text
}

// StreamResponse generates a streamed chat reply. Chunks are relayed in
// receipt order. On mid-stream failure exactly one final diagnostic chunk
// is emitted; content already delivered is never retracted.
func (c *Chat) StreamResponse(ctx context.Context, p *project.Project, message, history string) <-chan provider.Chunk {
	out := make(chan provider.Chunk)

	fail := func(err error) {
		out <- provider.Chunk{Content: c.diagnostic(err, p), Stage: p.CurrentStage, Final: true}
		close(out)
	}

	prov, err := c.orch.ProviderFor(provider.OpChat)
	if err != nil {
		go fail(err)
		return out
	}

	req, reqErr := c.buildRequest(ctx, p, message, history)
	if reqErr != nil {
		go fail(reqErr)
		return out
	}

	go func() {
		callCtx, cancel := c.orch.WithDeadline(ctx)
		defer cancel()

		upstream, err := prov.Stream(callCtx, req)
		if err != nil {
			fail(err)
			return
		}

		for chunk := range upstream {
			if chunk.Err != nil {
				out <- provider.Chunk{Content: c.diagnostic(chunk.Err, p), Stage: p.CurrentStage, Final: true}
				break
			}
			out <- chunk
			if chunk.Final {
				break
			}
		}
		close(out)
	}()
	return out
}
