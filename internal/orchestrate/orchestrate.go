// Package orchestrate maps logical operations onto provider slots and
// owns idempotent research enrichment of project context.
package orchestrate

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/research"
)

// researchKey is the parsedData field holding cached research markdown.
const researchKey = "marketResearch"

// ProviderSource resolves provider names to adapters.
type ProviderSource interface {
	Get(name string) (provider.Provider, error)
}

// ProjectStore is the subset of the project store the orchestrator needs
// for research write-back.
type ProjectStore interface {
	UpdateProject(id string, upd project.Update) (*project.Project, error)
}

// Researcher invokes the external market research collaborator.
type Researcher interface {
	Conduct(ctx context.Context, researchType, description, projectID string) (*research.Result, error)
}

// Orchestrator routes operations to provider slots and enriches projects
// with market research. Routing is static and health-blind.
type Orchestrator struct {
	providers ProviderSource
	projects  ProjectStore
	research  Researcher

	slotA   string
	slotB   string
	timeout time.Duration

	flight singleflight.Group
	logger zerolog.Logger
}

// New creates an orchestrator. researcher may be nil when the collaborator
// is not configured; enrichment then yields the placeholder.
func New(providers ProviderSource, projects ProjectStore, researcher Researcher, slotA, slotB string, timeout time.Duration, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		projects:  projects,
		research:  researcher,
		slotA:     slotA,
		slotB:     slotB,
		timeout:   timeout,
		logger:    logger.With().Str("component", "orchestrate").Logger(),
	}
}

// ProviderFor resolves the provider for an operation against the fixed
// routing table: chat and estimate run on slot A, execution and pm on
// slot B, anything else falls back to slot A.
func (o *Orchestrator) ProviderFor(op provider.Operation) (provider.Provider, error) {
	switch op {
	case provider.OpChat, provider.OpEstimate:
		return o.providers.Get(o.slotA)
	case provider.OpExecution, provider.OpPM:
		return o.providers.Get(o.slotB)
	default:
		return o.providers.Get(o.slotA)
	}
}

// WithDeadline wraps ctx with the uniform per-call provider timeout.
func (o *Orchestrator) WithDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.timeout)
}

// EnsureResearch returns research markdown for the project, running the
// collaborator at most once per project under concurrent triggers. The
// result is written back into parsedData so subsequent calls are cache
// hits. Collaborator failure yields a fixed placeholder, never an error.
func (o *Orchestrator) EnsureResearch(ctx context.Context, p *project.Project) string {
	if cached, ok := p.ParsedData[researchKey].(string); ok && cached != "" {
		return cached
	}
	if o.research == nil {
		return research.Placeholder
	}

	md, _, _ := o.flight.Do(p.ID, func() (interface{}, error) {
		return o.conductAndCache(ctx, p), nil
	})
	return md.(string)
}

func (o *Orchestrator) conductAndCache(ctx context.Context, p *project.Project) string {
	researchType, _ := p.ParsedData["projectType"].(string)
	description, _ := p.ParsedData["description"].(string)
	if description == "" {
		description = p.Name
	}

	result, err := o.research.Conduct(ctx, researchType, description, p.ID)
	if err != nil {
		o.logger.Warn().Err(err).Str("project_id", p.ID).Msg("market research failed, using placeholder")
		return research.Placeholder
	}

	md := research.FormatMarkdown(result)

	merged := make(map[string]any, len(p.ParsedData)+1)
	for k, v := range p.ParsedData {
		merged[k] = v
	}
	merged[researchKey] = md

	if _, err := o.projects.UpdateProject(p.ID, project.Update{ParsedData: project.Ptr(merged)}); err != nil {
		o.logger.Warn().Err(err).Str("project_id", p.ID).Msg("failed to cache research result")
	} else {
		p.ParsedData = merged
	}
	return md
}
