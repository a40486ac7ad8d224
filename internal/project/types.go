// Package project defines the document-pipeline project model and its
// SQLite-backed store.
package project

// Stage bounds for the five-step document pipeline.
const (
	StageMin = 1
	StageMax = 5
)

// Status vocabulary. Statuses correlate to stages: draft (1),
// estimate_generated (2), assets_ready (3), email_sent/accepted (4),
// in_progress/complete (5).
const (
	StatusDraft             = "draft"
	StatusEstimateGenerated = "estimate_generated"
	StatusAssetsReady       = "assets_ready"
	StatusEmailSent         = "email_sent"
	StatusAccepted          = "accepted"
	StatusInProgress        = "in_progress"
	StatusComplete          = "complete"
)

// ValidStatus reports whether s is part of the fixed status vocabulary.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusEstimateGenerated, StatusAssetsReady,
		StatusEmailSent, StatusAccepted, StatusInProgress, StatusComplete:
		return true
	}
	return false
}

// Project is one document-generation pipeline run.
type Project struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	CurrentStage int            `json:"currentStage"`
	Status       string         `json:"status"`
	ParsedData   map[string]any `json:"parsedData"`

	// Per-stage generated artifacts
	EstimateContent string `json:"estimateContent"`
	ScenarioA       string `json:"scenarioA"`
	ScenarioB       string `json:"scenarioB"`
	ROIAnalysis     string `json:"roiAnalysis"`
	ExecutionGuideA string `json:"executionGuideA"`
	ExecutionGuideB string `json:"executionGuideB"`
	PMBreakdown     string `json:"pmBreakdown"`

	SelectedScenario string `json:"selectedScenario"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}

// CreateProjectInput holds the fields required to create a project.
type CreateProjectInput struct {
	Name       string
	ParsedData map[string]any
}

// Update is a partial project update. Nil fields are left untouched.
type Update struct {
	CurrentStage     *int
	Status           *string
	ParsedData       *map[string]any
	EstimateContent  *string
	ScenarioA        *string
	ScenarioB        *string
	ROIAnalysis      *string
	ExecutionGuideA  *string
	ExecutionGuideB  *string
	PMBreakdown      *string
	SelectedScenario *string
}

// KnowledgeEntry is one approved-learning record used to enrich estimate
// prompts.
type KnowledgeEntry struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Content   string `json:"content"`
	Approved  bool   `json:"approved"`
	CreatedAt int64  `json:"createdAt"`
}

// Ptr returns a pointer to v; convenience for building Updates.
func Ptr[T any](v T) *T { return &v }
