package provider

import (
	"context"
)

// SynthStream wraps a non-streaming provider so it still satisfies the
// stream contract: one buffered call, one content chunk, one final sentinel
// chunk. The wrapper is generic — concrete adapters never special-case
// synthesis themselves.
type SynthStream struct {
	Provider
}

// SynthesizeStream returns p unchanged when it streams natively, otherwise
// wraps it.
func SynthesizeStream(p Provider) Provider {
	if p.SupportsStreaming() {
		return p
	}
	return &SynthStream{Provider: p}
}

func (s *SynthStream) SupportsStreaming() bool { return false }

// Stream performs one buffered generation and emits its text as a single
// content chunk followed by the final sentinel.
func (s *SynthStream) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	result, err := s.Provider.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan Chunk, 2)
	out <- Chunk{Content: result.Text, Stage: req.Stage}
	out <- Chunk{Stage: req.Stage, Final: true}
	close(out)
	return out, nil
}
