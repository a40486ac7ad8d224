package strategy

import (
	"encoding/json"
	"fmt"

	perrors "github.com/draftforge/proposal-agent/internal/errors"
)

// ExtractJSON returns the first balanced top-level {...} substring of
// text. Braces inside JSON strings are ignored, including escaped quotes.
func ExtractJSON(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}
	return "", fmt.Errorf("no balanced JSON object in response: %w", perrors.ErrParseFailure)
}

// decodeEmbedded extracts and decodes the first JSON object in text into v.
func decodeEmbedded(text string, v any) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding embedded JSON: %v: %w", err, perrors.ErrParseFailure)
	}
	return nil
}
