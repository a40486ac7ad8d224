package strategy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/proposal-agent/internal/provider"
)

func TestChatRespond_Success(t *testing.T) {
	prov := &fakeProvider{result: &provider.Result{Text: "Scope looks reasonable."}}
	c := NewChat(&fakeOrch{prov: prov}, zerolog.Nop())

	reply := c.Respond(context.Background(), testProject(), "Is the scope ok?", "")

	assert.Equal(t, "Scope looks reasonable.", reply)
	assert.Contains(t, prov.lastPrompt, "CRM automation")
	assert.Contains(t, prov.lastPrompt, "Is the scope ok?")
}

func TestChatRespond_ProviderFailureReturnsDiagnostic(t *testing.T) {
	prov := &fakeProvider{err: errBoom}
	c := NewChat(&fakeOrch{prov: prov}, zerolog.Nop())

	reply := c.Respond(context.Background(), testProject(), "hi", "")

	assert.Contains(t, reply, "ISSUE:")
	assert.Contains(t, reply, "connection reset")
}

func TestChatRespond_NoProviderReturnsDiagnostic(t *testing.T) {
	c := NewChat(&fakeOrch{provErr: errBoom}, zerolog.Nop())
	reply := c.Respond(context.Background(), testProject(), "hi", "")
	assert.Contains(t, reply, "ISSUE:")
}

func TestChatStream_RelaysInOrder(t *testing.T) {
	prov := &fakeProvider{chunks: []provider.Chunk{
		{Content: "part one ", Stage: 1},
		{Content: "part two", Stage: 1},
		{Final: true, Stage: 1},
	}}
	c := NewChat(&fakeOrch{prov: prov}, zerolog.Nop())

	chunks := collect(c.StreamResponse(context.Background(), testProject(), "hi", ""))

	require.Len(t, chunks, 3)
	assert.Equal(t, "part one ", chunks[0].Content)
	assert.Equal(t, "part two", chunks[1].Content)
	assert.True(t, chunks[2].Final)

	finals := 0
	for _, ch := range chunks {
		if ch.Final {
			finals++
		}
	}
	assert.Equal(t, 1, finals)
}

func TestChatStream_MidStreamFailure(t *testing.T) {
	prov := &fakeProvider{chunks: []provider.Chunk{
		{Content: "partial ", Stage: 1},
		{Err: errBoom, Final: true, Stage: 1},
	}}
	c := NewChat(&fakeOrch{prov: prov}, zerolog.Nop())

	chunks := collect(c.StreamResponse(context.Background(), testProject(), "hi", ""))

	require.Len(t, chunks, 2)
	assert.Equal(t, "partial ", chunks[0].Content, "delivered content is never retracted")
	assert.True(t, chunks[1].Final)
	assert.Contains(t, chunks[1].Content, "ISSUE:")
	assert.NoError(t, chunks[1].Err)
}

func TestChatStream_StartFailure(t *testing.T) {
	prov := &fakeProvider{streamErr: errBoom}
	c := NewChat(&fakeOrch{prov: prov}, zerolog.Nop())

	chunks := collect(c.StreamResponse(context.Background(), testProject(), "hi", ""))

	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].Final)
	assert.Contains(t, chunks[0].Content, "ISSUE:")
}
