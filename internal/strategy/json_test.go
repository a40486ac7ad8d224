package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/draftforge/proposal-agent/internal/errors"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"surrounded by prose", "Here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"nested objects", `{"a":{"b":{"c":3}}}`, `{"a":{"b":{"c":3}}}`},
		{"brace inside string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote inside string", `{"a":"say \"}\" loudly"}`, `{"a":"say \"}\" loudly"}`},
		{"first of two objects", `{"a":1} and {"b":2}`, `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	for _, in := range []string{"", "no json here", `"just a string"`, "{unclosed"} {
		_, err := ExtractJSON(in)
		require.ErrorIs(t, err, perrors.ErrParseFailure, in)
	}
}

func TestDecodeEmbedded_Malformed(t *testing.T) {
	var out EstimateResult
	err := decodeEmbedded(`prefix {"estimateContent": 42} suffix`, &out)
	require.ErrorIs(t, err, perrors.ErrParseFailure)
}
