package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/draftforge/proposal-agent/internal/errors"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/store"
	"github.com/draftforge/proposal-agent/internal/strategy"
)

type fakeEstimate struct {
	calls  int
	result *strategy.EstimateResult
	err    error
}

func (f *fakeEstimate) Generate(ctx context.Context, p *project.Project) (*strategy.EstimateResult, error) {
	f.calls++
	return f.result, f.err
}

func setupWorkflow(t *testing.T, est EstimateGenerator) (*Workflow, *project.Store) {
	t.Helper()
	logger := zerolog.Nop()
	ds, err := store.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	projects := project.NewStore(ds, logger)
	return New(projects, est, nil, logger), projects
}

func createDraft(t *testing.T, projects *project.Store) *project.Project {
	t.Helper()
	p, err := projects.CreateProject(project.CreateProjectInput{
		Name:       "CRM automation",
		ParsedData: map[string]any{"description": "automate intake"},
	})
	require.NoError(t, err)
	return p
}

func TestAdvanceStage_OneStep(t *testing.T) {
	w, projects := setupWorkflow(t, &fakeEstimate{})
	p := createDraft(t, projects)

	got, err := w.AdvanceStage(p.ID, 2, project.StatusEstimateGenerated)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStage)
	assert.Equal(t, project.StatusEstimateGenerated, got.Status)
}

func TestAdvanceStage_IdempotentReentry(t *testing.T) {
	w, projects := setupWorkflow(t, &fakeEstimate{})
	p := createDraft(t, projects)

	got, err := w.AdvanceStage(p.ID, 1, project.StatusDraft)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStage)
}

func TestAdvanceStage_SkipRejected(t *testing.T) {
	w, projects := setupWorkflow(t, &fakeEstimate{})
	p := createDraft(t, projects)

	_, err := w.AdvanceStage(p.ID, 4, project.StatusEmailSent)
	require.Error(t, err)

	var skip *perrors.StageSkipError
	require.ErrorAs(t, err, &skip)
	assert.Equal(t, 1, skip.Current)
	assert.Equal(t, 4, skip.Target)
	assert.Equal(t, "complete stage 1 first", skip.Remediation())

	// rejected transition leaves the project untouched
	got, err := projects.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStage)
	assert.Equal(t, project.StatusDraft, got.Status)
}

func TestAdvanceStage_BackwardsRejected(t *testing.T) {
	w, projects := setupWorkflow(t, &fakeEstimate{})
	p := createDraft(t, projects)

	_, err := w.AdvanceStage(p.ID, 2, project.StatusEstimateGenerated)
	require.NoError(t, err)
	_, err = w.AdvanceStage(p.ID, 3, project.StatusAssetsReady)
	require.NoError(t, err)

	_, err = w.AdvanceStage(p.ID, 2, project.StatusEstimateGenerated)
	var skip *perrors.StageSkipError
	require.ErrorAs(t, err, &skip)
}

func TestAdvanceStage_Validation(t *testing.T) {
	w, projects := setupWorkflow(t, &fakeEstimate{})
	p := createDraft(t, projects)

	_, err := w.AdvanceStage(p.ID, 6, project.StatusComplete)
	require.Error(t, err)
	_, err = w.AdvanceStage(p.ID, 2, "bogus")
	require.Error(t, err)
	_, err = w.AdvanceStage("missing", 2, project.StatusEstimateGenerated)
	require.ErrorIs(t, err, perrors.ErrNotFound)
}

func TestApproveDraft_GeneratesEstimate(t *testing.T) {
	est := &fakeEstimate{result: &strategy.EstimateResult{
		EstimateContent: "# Estimate",
		ScenarioA:       "## A",
		ScenarioB:       "## B",
		ROIAnalysis:     "## ROI",
	}}
	w, projects := setupWorkflow(t, est)
	p := createDraft(t, projects)

	got, err := w.ApproveDraft(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStage)
	assert.Equal(t, project.StatusEstimateGenerated, got.Status)
	assert.Equal(t, "# Estimate", got.EstimateContent)
	assert.Equal(t, "## A", got.ScenarioA)
	assert.Equal(t, "## B", got.ScenarioB)
	assert.Equal(t, "## ROI", got.ROIAnalysis)
	assert.Equal(t, 1, est.calls)
}

func TestApproveDraft_ExistingEstimateSkipsGeneration(t *testing.T) {
	est := &fakeEstimate{}
	w, projects := setupWorkflow(t, est)
	p := createDraft(t, projects)

	_, err := projects.UpdateProject(p.ID, project.Update{
		EstimateContent: project.Ptr("# Existing"),
	})
	require.NoError(t, err)

	got, err := w.ApproveDraft(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentStage)
	assert.Equal(t, "# Existing", got.EstimateContent)
	assert.Equal(t, 0, est.calls)
}

func TestApproveDraft_FailureKeepsDraft(t *testing.T) {
	est := &fakeEstimate{err: &perrors.GenerationError{
		Operation:  "estimate",
		Diagnostic: "ISSUE: Rate limited",
		Err:        errors.New("429"),
	}}
	w, projects := setupWorkflow(t, est)
	p := createDraft(t, projects)

	_, err := w.ApproveDraft(context.Background(), p.ID)
	require.Error(t, err)

	var genErr *perrors.GenerationError
	assert.ErrorAs(t, err, &genErr)

	got, err := projects.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStage)
	assert.Equal(t, project.StatusDraft, got.Status)
	assert.Empty(t, got.EstimateContent)
}

func TestApproveDraft_AlreadyApprovedIsNoop(t *testing.T) {
	est := &fakeEstimate{}
	w, projects := setupWorkflow(t, est)
	p := createDraft(t, projects)

	_, err := w.AdvanceStage(p.ID, 2, project.StatusEstimateGenerated)
	require.NoError(t, err)
	_, err = w.AdvanceStage(p.ID, 3, project.StatusAssetsReady)
	require.NoError(t, err)

	got, err := w.ApproveDraft(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStage, "approval never moves a project backwards")
	assert.Equal(t, 0, est.calls)
}

func TestResetProject(t *testing.T) {
	w, projects := setupWorkflow(t, &fakeEstimate{})
	p := createDraft(t, projects)

	_, err := projects.UpdateProject(p.ID, project.Update{
		CurrentStage:     project.Ptr(4),
		Status:           project.Ptr(project.StatusAccepted),
		EstimateContent:  project.Ptr("# Estimate"),
		ExecutionGuideA:  project.Ptr("# Guide"),
		PMBreakdown:      project.Ptr("## Plan"),
		SelectedScenario: project.Ptr("A"),
	})
	require.NoError(t, err)

	got, err := w.ResetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStage)
	assert.Equal(t, project.StatusDraft, got.Status)
	assert.Empty(t, got.EstimateContent)
	assert.Empty(t, got.ExecutionGuideA)
	assert.Empty(t, got.PMBreakdown)
	assert.Empty(t, got.SelectedScenario)
}

func TestResetProject_Missing(t *testing.T) {
	w, _ := setupWorkflow(t, &fakeEstimate{})
	_, err := w.ResetProject("missing")
	require.ErrorIs(t, err, perrors.ErrNotFound)
}
