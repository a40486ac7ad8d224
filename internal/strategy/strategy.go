// Package strategy implements the per-operation generation flows: chat,
// estimate, execution guides and PM breakdown. Every strategy follows the
// same sequence (provider lookup, prompt build, call, parse, diagnostic
// routing); they differ in how failure reaches the caller.
package strategy

import (
	"context"

	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/provider"
)

// Orchestrator resolves providers, injects deadlines and supplies
// research enrichment.
type Orchestrator interface {
	ProviderFor(op provider.Operation) (provider.Provider, error)
	WithDeadline(ctx context.Context) (context.Context, context.CancelFunc)
	EnsureResearch(ctx context.Context, p *project.Project) string
}

// KnowledgeSource supplies approved learning entries for prompt
// enrichment.
type KnowledgeSource interface {
	GetKnowledgeEntries(category string) ([]*project.KnowledgeEntry, error)
}
