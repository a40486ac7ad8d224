// Package workflow implements the five-stage project state machine.
// Stages advance one step at a time; the only way backwards is an
// explicit reset.
package workflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	perrors "github.com/draftforge/proposal-agent/internal/errors"
	"github.com/draftforge/proposal-agent/internal/metrics"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/strategy"
)

// ProjectStore is the subset of the project store the state machine
// mutates through.
type ProjectStore interface {
	GetProject(id string) (*project.Project, error)
	UpdateProject(id string, upd project.Update) (*project.Project, error)
}

// EstimateGenerator runs the estimate strategy during draft approval.
type EstimateGenerator interface {
	Generate(ctx context.Context, p *project.Project) (*strategy.EstimateResult, error)
}

// Workflow owns stage transitions. It assumes a single logical writer
// per project; concurrent transitions against one project race and the
// last persisted write wins.
type Workflow struct {
	projects ProjectStore
	estimate EstimateGenerator
	mx       *metrics.Metrics
	logger   zerolog.Logger
}

// New creates the workflow state machine. mx may be nil in tests.
func New(projects ProjectStore, estimate EstimateGenerator, mx *metrics.Metrics, logger zerolog.Logger) *Workflow {
	return &Workflow{
		projects: projects,
		estimate: estimate,
		mx:       mx,
		logger:   logger.With().Str("component", "workflow").Logger(),
	}
}

func (w *Workflow) recordTransition(target int, result string) {
	if w.mx != nil {
		w.mx.RecordTransition(strconv.Itoa(target), result)
	}
}

// AdvanceStage moves a project to target. Target equal to the current
// stage is an idempotent re-entry that only refreshes the status; target
// one past the current stage advances; anything else is a skip and is
// rejected without touching the project.
func (w *Workflow) AdvanceStage(id string, target int, status string) (*project.Project, error) {
	if target < project.StageMin || target > project.StageMax {
		return nil, fmt.Errorf("stage %d out of range [%d,%d]", target, project.StageMin, project.StageMax)
	}
	if !project.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	p, err := w.projects.GetProject(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}

	if target != p.CurrentStage && target != p.CurrentStage+1 {
		w.recordTransition(target, "skipped")
		return nil, &perrors.StageSkipError{Current: p.CurrentStage, Target: target}
	}

	updated, err := w.projects.UpdateProject(id, project.Update{
		CurrentStage: project.Ptr(target),
		Status:       project.Ptr(status),
	})
	if err != nil {
		w.recordTransition(target, "error")
		return nil, err
	}

	w.recordTransition(target, "ok")
	w.logger.Info().
		Str("project_id", id).
		Int("from_stage", p.CurrentStage).
		Int("to_stage", target).
		Str("status", status).
		Msg("stage transition")
	return updated, nil
}

// ApproveDraft moves a draft into stage 2. If the estimate is missing it
// is generated synchronously first; generation failure leaves the
// project at (1, draft).
func (w *Workflow) ApproveDraft(ctx context.Context, id string) (*project.Project, error) {
	p, err := w.projects.GetProject(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}
	if p.CurrentStage >= 2 {
		// already approved; stage never moves backwards outside reset
		return p, nil
	}

	upd := project.Update{
		CurrentStage: project.Ptr(2),
		Status:       project.Ptr(project.StatusEstimateGenerated),
	}

	if p.EstimateContent == "" {
		res, err := w.estimate.Generate(ctx, p)
		if err != nil {
			w.recordTransition(2, "error")
			return nil, fmt.Errorf("approve draft: %w", err)
		}
		upd.EstimateContent = project.Ptr(res.EstimateContent)
		upd.ScenarioA = project.Ptr(res.ScenarioA)
		upd.ScenarioB = project.Ptr(res.ScenarioB)
		upd.ROIAnalysis = project.Ptr(res.ROIAnalysis)
	}

	updated, err := w.projects.UpdateProject(id, upd)
	if err != nil {
		w.recordTransition(2, "error")
		return nil, err
	}

	w.recordTransition(2, "ok")
	w.logger.Info().Str("project_id", id).Msg("draft approved")
	return updated, nil
}

// ResetProject rewrites a project back to (1, draft) and clears every
// generated artifact. This is the single sanctioned way backwards.
func (w *Workflow) ResetProject(id string) (*project.Project, error) {
	empty := project.Ptr("")
	updated, err := w.projects.UpdateProject(id, project.Update{
		CurrentStage:     project.Ptr(project.StageMin),
		Status:           project.Ptr(project.StatusDraft),
		EstimateContent:  empty,
		ScenarioA:        empty,
		ScenarioB:        empty,
		ROIAnalysis:      empty,
		ExecutionGuideA:  empty,
		ExecutionGuideB:  empty,
		PMBreakdown:      empty,
		SelectedScenario: empty,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("project %s: %w", id, perrors.ErrNotFound)
	}

	w.recordTransition(project.StageMin, "reset")
	w.logger.Info().Str("project_id", id).Msg("project reset")
	return updated, nil
}
