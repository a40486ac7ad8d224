package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agenterrors "github.com/draftforge/proposal-agent/internal/errors"
)

func TestNewAnthropicProvider_FailsFastWithoutKey(t *testing.T) {
	_, err := NewAnthropicProvider("", "claude-sonnet-4-5", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, agenterrors.ErrProviderNotInitialized))
}

func TestAnthropic_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		fmt.Fprint(w, `{
			"content": [{"type": "text", "text": "hello "}, {"type": "text", "text": "world"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 20, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider("sk-ant-test", "claude-sonnet-4-5", zerolog.Nop(), WithAnthropicBaseURL(srv.URL))
	require.NoError(t, err)

	result, err := p.Generate(context.Background(), Request{Prompt: "hi", Operation: OpExecution})
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, 20, result.InputTokens)
	assert.Equal(t, 5, result.OutputTokens)
}

func TestAnthropic_GenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"type": "rate_limit_error", "message": "throttled"}}`)
	}))
	defer srv.Close()

	p, _ := NewAnthropicProvider("sk-ant-test", "claude-sonnet-4-5", zerolog.Nop(), WithAnthropicBaseURL(srv.URL))
	_, err := p.Generate(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var apiErr *agenterrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "rate_limit_error")
}

func TestAnthropic_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"message_start\"}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"str\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"eam\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()

	p, _ := NewAnthropicProvider("sk-ant-test", "claude-sonnet-4-5", zerolog.Nop(), WithAnthropicBaseURL(srv.URL))
	ch, err := p.Stream(context.Background(), Request{Prompt: "hi", Stage: 4})
	require.NoError(t, err)

	var text string
	finals := 0
	for c := range ch {
		require.NoError(t, c.Err)
		assert.Equal(t, 4, c.Stage)
		if c.Final {
			finals++
		} else {
			text += c.Content
		}
	}
	assert.Equal(t, "stream", text)
	assert.Equal(t, 1, finals)
}

func TestAnthropic_StreamErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"overloaded\"}}\n\n")
	}))
	defer srv.Close()

	p, _ := NewAnthropicProvider("sk-ant-test", "claude-sonnet-4-5", zerolog.Nop(), WithAnthropicBaseURL(srv.URL))
	ch, err := p.Stream(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	var chunks []Chunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 2)
	assert.Equal(t, "partial", chunks[0].Content)
	require.True(t, chunks[1].Final)
	require.Error(t, chunks[1].Err)
	assert.Contains(t, chunks[1].Err.Error(), "overloaded")
}
