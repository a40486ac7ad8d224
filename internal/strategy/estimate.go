package strategy

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/diagnose"
	perrors "github.com/draftforge/proposal-agent/internal/errors"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/prompt"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/requestid"
)

// learningCap bounds how many approved knowledge entries enrich an
// estimate prompt.
const learningCap = 5

// knowledgeCategory is the category estimates learn from.
const knowledgeCategory = "estimate"

// EstimateResult is the parsed output of one estimate generation.
type EstimateResult struct {
	EstimateContent string `json:"estimateContent"`
	ScenarioA       string `json:"scenarioA"`
	ScenarioB       string `json:"scenarioB"`
	ROIAnalysis     string `json:"roiAnalysis"`
}

// Estimate produces the stage-2 estimate document with scenarios and ROI
// analysis. Any failure is a hard failure: the caller receives a
// GenerationError carrying the diagnostic and must not advance the stage.
type Estimate struct {
	orch      Orchestrator
	knowledge KnowledgeSource
	logger    zerolog.Logger
}

// NewEstimate creates the estimate strategy.
func NewEstimate(orch Orchestrator, knowledge KnowledgeSource, logger zerolog.Logger) *Estimate {
	return &Estimate{
		orch:      orch,
		knowledge: knowledge,
		logger:    logger.With().Str("component", "strategy.estimate").Logger(),
	}
}

func (e *Estimate) fail(err error, p *project.Project) error {
	fix := diagnose.Analyze(err, "estimate generation for project "+p.ID)
	e.logger.Error().Err(err).Str("project_id", p.ID).Msg("estimate generation failed")
	return &perrors.GenerationError{
		Operation:  string(provider.OpEstimate),
		Diagnostic: diagnose.FormatSystemMessage(fix),
		Err:        err,
	}
}

// learningContext assembles the five most recently approved estimate
// entries into a markdown list. Lookup failure degrades to an empty
// context rather than blocking the estimate.
func (e *Estimate) learningContext() string {
	entries, err := e.knowledge.GetKnowledgeEntries(knowledgeCategory)
	if err != nil {
		e.logger.Warn().Err(err).Msg("knowledge lookup failed, continuing without learning context")
		return "No prior approved estimates."
	}
	if len(entries) > learningCap {
		entries = entries[:learningCap]
	}
	if len(entries) == 0 {
		return "No prior approved estimates."
	}

	var b strings.Builder
	for _, entry := range entries {
		b.WriteString("- ")
		b.WriteString(entry.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Generate runs the full estimate flow: research enrichment, learning
// context, provider call and embedded-JSON parse.
func (e *Estimate) Generate(ctx context.Context, p *project.Project) (*EstimateResult, error) {
	prov, err := e.orch.ProviderFor(provider.OpEstimate)
	if err != nil {
		return nil, e.fail(err, p)
	}

	research := e.orch.EnsureResearch(ctx, p)

	text, err := prompt.Build(prompt.KeyEstimate, prompt.Context{
		"projectName":     p.Name,
		"parsedData":      p.ParsedData,
		"research":        research,
		"learningContext": e.learningContext(),
	})
	if err != nil {
		return nil, e.fail(err, p)
	}

	callCtx, cancel := e.orch.WithDeadline(ctx)
	defer cancel()

	res, err := prov.Generate(callCtx, provider.Request{
		RequestID: requestid.FromContext(ctx),
		Prompt:    text,
		Operation: provider.OpEstimate,
		Stage:     p.CurrentStage,
	})
	if err != nil {
		return nil, e.fail(err, p)
	}

	var result EstimateResult
	if err := decodeEmbedded(res.Text, &result); err != nil {
		return nil, e.fail(err, p)
	}
	return &result, nil
}
