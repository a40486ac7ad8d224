package strategy

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/diagnose"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/prompt"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/requestid"
)

// degradedPlaceholder fills the secondary field of a degraded result so
// downstream rendering never sees an empty document.
const degradedPlaceholder = "Not generated: the primary document contains the failure details."

// ExecutionResult is the parsed output of one execution-guide generation.
type ExecutionResult struct {
	GuideA string `json:"guideA"`
	GuideB string `json:"guideB"`
}

// PMResult is the parsed output of one PM-breakdown generation.
type PMResult struct {
	PMBreakdown string `json:"pmBreakdown"`
}

// Execution produces stage-4 execution guides and the stage-5 PM
// breakdown. Failures never surface as errors: the caller receives a
// degraded but well-typed result with the diagnostic in the primary
// field.
type Execution struct {
	orch   Orchestrator
	logger zerolog.Logger
}

// NewExecution creates the execution/PM strategy.
func NewExecution(orch Orchestrator, logger zerolog.Logger) *Execution {
	return &Execution{orch: orch, logger: logger.With().Str("component", "strategy.execution").Logger()}
}

func (e *Execution) diagnostic(err error, op provider.Operation, p *project.Project) string {
	fix := diagnose.Analyze(err, string(op)+" generation for project "+p.ID)
	e.logger.Error().Err(err).Str("project_id", p.ID).Str("operation", string(op)).Msg("generation failed")
	return diagnose.FormatSystemMessage(fix)
}

func (e *Execution) generate(ctx context.Context, op provider.Operation, key string, promptCtx prompt.Context, p *project.Project, out any) error {
	prov, err := e.orch.ProviderFor(op)
	if err != nil {
		return err
	}

	text, err := prompt.Build(key, promptCtx)
	if err != nil {
		return err
	}

	callCtx, cancel := e.orch.WithDeadline(ctx)
	defer cancel()

	res, err := prov.Generate(callCtx, provider.Request{
		RequestID: requestid.FromContext(ctx),
		Prompt:    text,
		Operation: op,
		Stage:     p.CurrentStage,
	})
	if err != nil {
		return err
	}
	return decodeEmbedded(res.Text, out)
}

// GenerateGuides produces both execution guides. On failure the returned
// result carries the diagnostic as guide A and a placeholder as guide B.
func (e *Execution) GenerateGuides(ctx context.Context, p *project.Project) *ExecutionResult {
	var result ExecutionResult
	err := e.generate(ctx, provider.OpExecution, prompt.KeyExecution, prompt.Context{
		"projectName":      p.Name,
		"selectedScenario": p.SelectedScenario,
		"estimateContent":  p.EstimateContent,
	}, p, &result)
	if err != nil {
		return &ExecutionResult{
			GuideA: e.diagnostic(err, provider.OpExecution, p),
			GuideB: degradedPlaceholder,
		}
	}
	return &result
}

// GenerateBreakdown produces the PM work breakdown. On failure the
// returned result carries the diagnostic as the breakdown.
func (e *Execution) GenerateBreakdown(ctx context.Context, p *project.Project) *PMResult {
	var result PMResult
	err := e.generate(ctx, provider.OpPM, prompt.KeyPM, prompt.Context{
		"projectName":      p.Name,
		"selectedScenario": p.SelectedScenario,
		"executionGuideA":  p.ExecutionGuideA,
	}, p, &result)
	if err != nil {
		return &PMResult{PMBreakdown: e.diagnostic(err, provider.OpPM, p)}
	}
	return &result
}
