package web

import (
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/telemetry"
)

// ProblemDetail is an RFC 7807 Problem Detail error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// CreateProjectRequest is the body of POST /api/projects.
type CreateProjectRequest struct {
	Name       string         `json:"name"`
	ParsedData map[string]any `json:"parsedData"`
}

// ProjectResponse wraps a single project.
type ProjectResponse struct {
	Project *project.Project `json:"project"`
}

// ProjectListResponse wraps the project listing.
type ProjectListResponse struct {
	Projects []*project.Project `json:"projects"`
	Total    int                `json:"total"`
}

// ChatRequest is the body of POST /api/projects/:id/chat.
type ChatRequest struct {
	Message string `json:"message"`
	History string `json:"history"`
}

// ChatResponse carries a buffered chat reply.
type ChatResponse struct {
	Reply string `json:"reply"`
	Stage int    `json:"stage"`
}

// AdvanceRequest is the body of POST /api/projects/:id/advance.
type AdvanceRequest struct {
	TargetStage int    `json:"targetStage"`
	Status      string `json:"status"`
}

// SelectScenarioRequest is the body of POST /api/projects/:id/scenario.
type SelectScenarioRequest struct {
	Scenario string `json:"scenario"`
}

// CreateKnowledgeRequest is the body of POST /api/knowledge.
type CreateKnowledgeRequest struct {
	Category string `json:"category"`
	Content  string `json:"content"`
	Approved bool   `json:"approved"`
}

// ServiceHealthResponse wraps the per-service health rows.
type ServiceHealthResponse struct {
	Services []*telemetry.HealthRecord `json:"services"`
}

// UsageResponse wraps the usage ledger tail plus the running total.
type UsageResponse struct {
	Records   []*telemetry.UsageRecord `json:"records"`
	TotalCost float64                  `json:"totalCostUsd"`
}
