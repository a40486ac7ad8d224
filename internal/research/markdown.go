package research

import "strings"

// Placeholder is returned in place of research markdown when the
// collaborator is unavailable or fails. Estimate generation proceeds
// without research rather than blocking on it.
const Placeholder = "Market research unavailable."

// FormatMarkdown renders a research result as markdown for prompt
// embedding. A nil result renders as the placeholder.
func FormatMarkdown(r *Result) string {
	if r == nil {
		return Placeholder
	}

	var b strings.Builder
	b.WriteString("## Market Research\n\n")
	if r.Summary != "" {
		b.WriteString(r.Summary)
		b.WriteString("\n\n")
	}
	if r.MarketSize != "" {
		b.WriteString("**Market size:** ")
		b.WriteString(r.MarketSize)
		b.WriteString("\n\n")
	}
	writeList(&b, "Competitors", r.Competitors)
	writeList(&b, "Trends", r.Trends)
	writeList(&b, "Risks", r.Risks)
	writeList(&b, "Opportunities", r.Opportunities)
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("### ")
	b.WriteString(heading)
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
