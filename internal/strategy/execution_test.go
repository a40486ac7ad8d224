package strategy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/proposal-agent/internal/provider"
)

func TestGenerateGuides_Success(t *testing.T) {
	prov := &fakeProvider{result: &provider.Result{
		Text: `{"guideA": "# Client guide", "guideB": "# Delivery guide"}`,
	}}
	e := NewExecution(&fakeOrch{prov: prov}, zerolog.Nop())

	p := testProject()
	p.SelectedScenario = "A"
	p.EstimateContent = "# Estimate"

	res := e.GenerateGuides(context.Background(), p)
	require.NotNil(t, res)
	assert.Equal(t, "# Client guide", res.GuideA)
	assert.Equal(t, "# Delivery guide", res.GuideB)
	assert.Contains(t, prov.lastPrompt, "# Estimate")
	assert.Contains(t, prov.lastPrompt, "Selected scenario: A")
}

func TestGenerateGuides_FailureDegrades(t *testing.T) {
	e := NewExecution(&fakeOrch{prov: &fakeProvider{err: errBoom}}, zerolog.Nop())

	res := e.GenerateGuides(context.Background(), testProject())
	require.NotNil(t, res)
	assert.Contains(t, res.GuideA, "ISSUE:")
	assert.Equal(t, degradedPlaceholder, res.GuideB)
}

func TestGenerateGuides_ParseFailureDegrades(t *testing.T) {
	prov := &fakeProvider{result: &provider.Result{Text: "not json"}}
	e := NewExecution(&fakeOrch{prov: prov}, zerolog.Nop())

	res := e.GenerateGuides(context.Background(), testProject())
	assert.Contains(t, res.GuideA, "ISSUE:")
	assert.Equal(t, degradedPlaceholder, res.GuideB)
}

func TestGenerateBreakdown_Success(t *testing.T) {
	prov := &fakeProvider{result: &provider.Result{
		Text: `Plan below.
{"pmBreakdown": "## Phase 1\n- kickoff"}`,
	}}
	e := NewExecution(&fakeOrch{prov: prov}, zerolog.Nop())

	p := testProject()
	p.ExecutionGuideA = "# Client guide"

	res := e.GenerateBreakdown(context.Background(), p)
	require.NotNil(t, res)
	assert.Equal(t, "## Phase 1\n- kickoff", res.PMBreakdown)
	assert.Contains(t, prov.lastPrompt, "# Client guide")
}

func TestGenerateBreakdown_FailureDegrades(t *testing.T) {
	e := NewExecution(&fakeOrch{provErr: errBoom}, zerolog.Nop())

	res := e.GenerateBreakdown(context.Background(), testProject())
	require.NotNil(t, res)
	assert.Contains(t, res.PMBreakdown, "ISSUE:")
}
