package strategy

import (
	"context"
	"errors"
	"time"

	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/research"
)

// fakeProvider is a scriptable provider adapter for strategy tests.
type fakeProvider struct {
	lastPrompt string
	result     *provider.Result
	err        error
	chunks     []provider.Chunk
	streamErr  error
}

func (f *fakeProvider) Name() string            { return "fake" }
func (f *fakeProvider) Model() string           { return "fake-model" }
func (f *fakeProvider) SupportsStreaming() bool { return true }

func (f *fakeProvider) Generate(ctx context.Context, req provider.Request) (*provider.Result, error) {
	f.lastPrompt = req.Prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req provider.Request) (<-chan provider.Chunk, error) {
	f.lastPrompt = req.Prompt
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan provider.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

// fakeOrch wires one provider for every operation with a short deadline.
type fakeOrch struct {
	prov       provider.Provider
	provErr    error
	researchMD string
}

func (f *fakeOrch) ProviderFor(op provider.Operation) (provider.Provider, error) {
	if f.provErr != nil {
		return nil, f.provErr
	}
	return f.prov, nil
}

func (f *fakeOrch) WithDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Second)
}

func (f *fakeOrch) EnsureResearch(ctx context.Context, p *project.Project) string {
	if f.researchMD == "" {
		return research.Placeholder
	}
	return f.researchMD
}

type fakeKnowledge struct {
	entries []*project.KnowledgeEntry
	err     error
}

func (f *fakeKnowledge) GetKnowledgeEntries(category string) ([]*project.KnowledgeEntry, error) {
	return f.entries, f.err
}

func testProject() *project.Project {
	return &project.Project{
		ID:           "proj-1",
		Name:         "CRM automation",
		CurrentStage: 1,
		Status:       project.StatusDraft,
		ParsedData:   map[string]any{"description": "automate intake"},
	}
}

func collect(ch <-chan provider.Chunk) []provider.Chunk {
	var out []provider.Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

var errBoom = errors.New("connection reset")
