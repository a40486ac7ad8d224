// Package provider wraps the interchangeable AI backends behind one
// generate/stream contract. Providers are swappable — OpenAI and Anthropic
// fill the default routing slots, Gemini and Ollama are selectable.
package provider

import (
	"context"
)

// Operation is the logical generation-request category. Each operation is
// bound to exactly one provider by the orchestrator's routing table.
type Operation string

const (
	OpChat      Operation = "chat"
	OpEstimate  Operation = "estimate"
	OpExecution Operation = "execution"
	OpPM        Operation = "pm"
)

// Request is one generation call.
type Request struct {
	RequestID string
	Prompt    string
	Operation Operation
	Stage     int
}

// Result is a buffered generation result. Token counts are zero when the
// backend does not report usage.
type Result struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Chunk is the atomic unit of a stream. Within one stream exactly one chunk
// has Final=true and it is always the last chunk emitted. Err is an
// in-process signal only and never crosses the wire.
type Chunk struct {
	Content string `json:"content"`
	Stage   int    `json:"stage"`
	Final   bool   `json:"isFinal"`
	Err     error  `json:"-"`
}

// Provider is the uniform adapter contract for one AI backend.
//
// Generate and Stream never retry internally and never swallow errors;
// retry policy is a caller concern. Stream is finite and not restartable —
// each call is one external request.
type Provider interface {
	// Name identifies the backend ("openai", "anthropic", ...).
	Name() string

	// Model returns the configured model identifier.
	Model() string

	// SupportsStreaming reports whether the backend emits incremental
	// output natively. Non-streaming backends are wrapped by
	// SynthesizeStream to satisfy the stream contract.
	SupportsStreaming() bool

	// Generate performs one buffered completion.
	Generate(ctx context.Context, req Request) (*Result, error)

	// Stream performs one streaming completion. The returned channel is
	// closed after the final chunk. The caller must drain it.
	Stream(ctx context.Context, req Request) (<-chan Chunk, error)
}

// EstimateTokens approximates a token count as ceil(len(text)/4), used when
// a backend reports no usage.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}
