package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestSynthesizeStream_PassThroughForNativeStreaming(t *testing.T) {
	f := &fakeProvider{name: "fake", streaming: true}
	assert.Same(t, Provider(f), SynthesizeStream(f))
}

func TestSynthesizeStream_WrapsBufferedProvider(t *testing.T) {
	f := &fakeProvider{name: "fake", model: "m", text: "hello world"}
	wrapped := SynthesizeStream(f)
	assert.False(t, wrapped.SupportsStreaming())

	ch, err := wrapped.Stream(context.Background(), Request{Stage: 2})
	require.NoError(t, err)

	var chunks []Chunk
	for c := range ch {
		chunks = append(chunks, c)
	}

	require.Len(t, chunks, 2)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.False(t, chunks[0].Final)
	assert.Equal(t, 2, chunks[0].Stage)
	assert.True(t, chunks[1].Final)
	assert.Empty(t, chunks[1].Content)
}

func TestSynthesizeStream_GenerateErrorSurfaces(t *testing.T) {
	f := &fakeProvider{name: "fake", genErr: errors.New("boom")}
	wrapped := SynthesizeStream(f)

	_, err := wrapped.Stream(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestStreamShape_ExactlyOneFinalChunkLast(t *testing.T) {
	f := &fakeProvider{
		name:      "fake",
		streaming: true,
		chunks: []Chunk{
			{Content: "a"}, {Content: "b"}, {Final: true},
		},
	}

	ch, err := f.Stream(context.Background(), Request{Stage: 1})
	require.NoError(t, err)

	finals := 0
	var last Chunk
	var text string
	for c := range ch {
		last = c
		if c.Final {
			finals++
		} else {
			text += c.Content
		}
	}
	assert.Equal(t, 1, finals)
	assert.True(t, last.Final)
	assert.Equal(t, "ab", text)
}
