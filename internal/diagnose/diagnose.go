// Package diagnose classifies raw provider errors into structured,
// user-facing fixes. Classification is a pure ordered pattern match over the
// stringified error: rules are evaluated top to bottom and the first match
// wins, so priority lives in the declaration order below.
package diagnose

import (
	"fmt"
	"strings"
)

// Fix is the structured classification of one failure. It is computed at
// failure time and never persisted.
type Fix struct {
	Issue   string `json:"issue"`
	Cause   string `json:"cause"`
	Fix     string `json:"fix"`
	Context string `json:"context,omitempty"`
}

type rule struct {
	match func(msg string) bool
	issue string
	cause string
	fix   string
}

func anyOf(patterns ...string) func(string) bool {
	return func(msg string) bool {
		for _, p := range patterns {
			if strings.Contains(msg, p) {
				return true
			}
		}
		return false
	}
}

// rules in priority order; first match wins.
var rules = []rule{
	{
		match: anyOf("401", "invalid_api_key"),
		issue: "Authentication failure",
		cause: "The provider rejected the configured API key.",
		fix:   "Verify the API key environment variable and restart the service.",
	},
	{
		match: anyOf("429", "rate_limit"),
		issue: "Rate limited",
		cause: "The provider is throttling requests for this account.",
		fix:   "Wait a minute before retrying, or raise the account's rate limit.",
	},
	{
		match: anyOf("maximum context length"),
		issue: "Token limit exceeded",
		cause: "The prompt plus expected output exceeds the model's context window.",
		fix:   "Shorten the project details or switch to a model with a larger context window.",
	},
}

// Analyze classifies an error. The fallback class preserves the raw error
// text as the cause. The context string is carried through verbatim.
func Analyze(err error, context string) Fix {
	msg := strings.ToLower(err.Error())
	for _, r := range rules {
		if r.match(msg) {
			return Fix{Issue: r.issue, Cause: r.cause, Fix: r.fix, Context: context}
		}
	}
	return Fix{
		Issue:   "Unexpected failure",
		Cause:   err.Error(),
		Fix:     "Retry the operation; if it persists, check the service logs for this request ID.",
		Context: context,
	}
}

// FormatSystemMessage renders the fixed four-line template. The shape is
// load-bearing: log scrapers and the UI both key off these labels.
func FormatSystemMessage(f Fix) string {
	return fmt.Sprintf("ISSUE: %s\nCAUSE: %s\nSUGGESTED FIX: %s\nCONTEXT: %s", f.Issue, f.Cause, f.Fix, f.Context)
}
