package provider

import (
	"context"
	"encoding/json"
	"net/http"
)

func decodeJSONBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// fakeProvider is a scriptable in-memory Provider used across the package
// tests.
type fakeProvider struct {
	name      string
	model     string
	streaming bool
	text      string
	inTokens  int
	outTokens int
	genErr    error
	chunks    []Chunk
}

func (f *fakeProvider) Name() string            { return f.name }
func (f *fakeProvider) Model() string           { return f.model }
func (f *fakeProvider) SupportsStreaming() bool { return f.streaming }

func (f *fakeProvider) Generate(ctx context.Context, req Request) (*Result, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return &Result{Text: f.text, InputTokens: f.inTokens, OutputTokens: f.outTokens}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	out := make(chan Chunk, len(f.chunks))
	for _, c := range f.chunks {
		c.Stage = req.Stage
		out <- c
	}
	close(out)
	return out, nil
}
