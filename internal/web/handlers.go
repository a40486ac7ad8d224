package web

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	perrors "github.com/draftforge/proposal-agent/internal/errors"
	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/requestid"
	"github.com/draftforge/proposal-agent/internal/strategy"
	"github.com/draftforge/proposal-agent/internal/telemetry"
)

// ProjectStore is the project persistence surface the handlers consume.
type ProjectStore interface {
	CreateProject(input project.CreateProjectInput) (*project.Project, error)
	GetProject(id string) (*project.Project, error)
	ListProjects() ([]*project.Project, error)
	UpdateProject(id string, upd project.Update) (*project.Project, error)
	CreateKnowledgeEntry(entry *project.KnowledgeEntry) error
}

// ChatStrategy is the chat entry point.
type ChatStrategy interface {
	Respond(ctx context.Context, p *project.Project, message, history string) string
	StreamResponse(ctx context.Context, p *project.Project, message, history string) <-chan provider.Chunk
}

// ExecutionStrategy produces execution guides and PM breakdowns.
type ExecutionStrategy interface {
	GenerateGuides(ctx context.Context, p *project.Project) *strategy.ExecutionResult
	GenerateBreakdown(ctx context.Context, p *project.Project) *strategy.PMResult
}

// WorkflowEngine drives stage transitions.
type WorkflowEngine interface {
	AdvanceStage(id string, target int, status string) (*project.Project, error)
	ApproveDraft(ctx context.Context, id string) (*project.Project, error)
	ResetProject(id string) (*project.Project, error)
}

// HealthReader reads per-service health rows.
type HealthReader interface {
	List() ([]*telemetry.HealthRecord, error)
}

// UsageReader reads the usage ledger.
type UsageReader interface {
	List(limit int) ([]*telemetry.UsageRecord, error)
	TotalCost() (float64, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	projects  ProjectStore
	chat      ChatStrategy
	execution ExecutionStrategy
	workflow  WorkflowEngine
	healthRec HealthReader
	usage     UsageReader
	logger    zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(projects ProjectStore, chat ChatStrategy, execution ExecutionStrategy, wf WorkflowEngine, healthRec HealthReader, usage UsageReader, logger zerolog.Logger) *Handlers {
	return &Handlers{
		projects:  projects,
		chat:      chat,
		execution: execution,
		workflow:  wf,
		healthRec: healthRec,
		usage:     usage,
		logger:    logger.With().Str("component", "handlers").Logger(),
	}
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}

// reqCtx returns the request context carrying the request ID assigned by
// the middleware.
func reqCtx(c *fiber.Ctx) context.Context {
	if id, ok := c.Locals("request_id").(string); ok {
		return requestid.WithRequestID(c.Context(), id)
	}
	return c.Context()
}

// loadProject fetches a project or writes a 404.
func (h *Handlers) loadProject(c *fiber.Ctx) (*project.Project, error) {
	id := c.Params("id")
	p, err := h.projects.GetProject(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"Project not found: "+id)
	}
	return p, nil
}

// CreateProject handles POST /api/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request",
			"Project name is required")
	}

	p, err := h.projects.CreateProject(project.CreateProjectInput{
		Name:       req.Name,
		ParsedData: req.ParsedData,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(ProjectResponse{Project: p})
}

// ListProjects handles GET /api/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.projects.ListProjects()
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []*project.Project{}
	}
	return c.JSON(ProjectListResponse{Projects: projects, Total: len(projects)})
}

// GetProject handles GET /api/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p, err := h.loadProject(c)
	if err != nil || p == nil {
		return err
	}
	return c.JSON(ProjectResponse{Project: p})
}

// Chat handles POST /api/projects/:id/chat.
func (h *Handlers) Chat(c *fiber.Ctx) error {
	p, err := h.loadProject(c)
	if err != nil || p == nil {
		return err
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Message == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_message", "Bad Request",
			"Message is required")
	}

	reply := h.chat.Respond(reqCtx(c), p, req.Message, req.History)
	return c.JSON(ChatResponse{Reply: reply, Stage: p.CurrentStage})
}

// AdvanceStage handles POST /api/projects/:id/advance.
func (h *Handlers) AdvanceStage(c *fiber.Ctx) error {
	var req AdvanceRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	p, err := h.workflow.AdvanceStage(c.Params("id"), req.TargetStage, req.Status)
	if err != nil {
		return h.workflowError(c, err)
	}
	return c.JSON(ProjectResponse{Project: p})
}

// ApproveDraft handles POST /api/projects/:id/approve.
func (h *Handlers) ApproveDraft(c *fiber.Ctx) error {
	p, err := h.workflow.ApproveDraft(reqCtx(c), c.Params("id"))
	if err != nil {
		return h.workflowError(c, err)
	}
	return c.JSON(ProjectResponse{Project: p})
}

// ResetProject handles POST /api/projects/:id/reset.
func (h *Handlers) ResetProject(c *fiber.Ctx) error {
	p, err := h.workflow.ResetProject(c.Params("id"))
	if err != nil {
		return h.workflowError(c, err)
	}
	return c.JSON(ProjectResponse{Project: p})
}

// SelectScenario handles POST /api/projects/:id/scenario.
func (h *Handlers) SelectScenario(c *fiber.Ctx) error {
	var req SelectScenarioRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Scenario != "A" && req.Scenario != "B" {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_scenario", "Bad Request",
			"Scenario must be A or B")
	}

	p, err := h.projects.UpdateProject(c.Params("id"), project.Update{
		SelectedScenario: project.Ptr(req.Scenario),
	})
	if err != nil {
		return err
	}
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"Project not found: "+c.Params("id"))
	}
	return c.JSON(ProjectResponse{Project: p})
}

// GenerateExecution handles POST /api/projects/:id/execution. The result
// is persisted even when degraded; the diagnostic lands in guide A.
func (h *Handlers) GenerateExecution(c *fiber.Ctx) error {
	p, err := h.loadProject(c)
	if err != nil || p == nil {
		return err
	}

	res := h.execution.GenerateGuides(reqCtx(c), p)
	updated, err := h.projects.UpdateProject(p.ID, project.Update{
		ExecutionGuideA: project.Ptr(res.GuideA),
		ExecutionGuideB: project.Ptr(res.GuideB),
	})
	if err != nil {
		return err
	}
	return c.JSON(ProjectResponse{Project: updated})
}

// GeneratePM handles POST /api/projects/:id/pm.
func (h *Handlers) GeneratePM(c *fiber.Ctx) error {
	p, err := h.loadProject(c)
	if err != nil || p == nil {
		return err
	}

	res := h.execution.GenerateBreakdown(reqCtx(c), p)
	updated, err := h.projects.UpdateProject(p.ID, project.Update{
		PMBreakdown: project.Ptr(res.PMBreakdown),
	})
	if err != nil {
		return err
	}
	return c.JSON(ProjectResponse{Project: updated})
}

// CreateKnowledge handles POST /api/knowledge.
func (h *Handlers) CreateKnowledge(c *fiber.Ctx) error {
	var req CreateKnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Category == "" || req.Content == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_fields", "Bad Request",
			"Category and content are required")
	}

	entry := &project.KnowledgeEntry{
		Category: req.Category,
		Content:  req.Content,
		Approved: req.Approved,
	}
	if err := h.projects.CreateKnowledgeEntry(entry); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// ServiceHealth handles GET /api/health/services.
func (h *Handlers) ServiceHealth(c *fiber.Ctx) error {
	services, err := h.healthRec.List()
	if err != nil {
		return err
	}
	if services == nil {
		services = []*telemetry.HealthRecord{}
	}
	return c.JSON(ServiceHealthResponse{Services: services})
}

// Usage handles GET /api/usage.
func (h *Handlers) Usage(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	records, err := h.usage.List(limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*telemetry.UsageRecord{}
	}
	total, err := h.usage.TotalCost()
	if err != nil {
		return err
	}
	return c.JSON(UsageResponse{Records: records, TotalCost: total})
}

// workflowError maps state-machine and generation failures onto HTTP
// statuses: stage skips are conflicts, provider failures are bad
// gateways, missing projects are 404s.
func (h *Handlers) workflowError(c *fiber.Ctx, err error) error {
	var skip *perrors.StageSkipError
	if errors.As(err, &skip) {
		return problemResponse(c, fiber.StatusConflict,
			"stage_skip", "Conflict",
			skip.Error())
	}

	var genErr *perrors.GenerationError
	if errors.As(err, &genErr) {
		return problemResponse(c, fiber.StatusBadGateway,
			"generation_failed", "Bad Gateway",
			genErr.Diagnostic)
	}

	if errors.Is(err, perrors.ErrNotFound) {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			err.Error())
	}

	return problemResponse(c, fiber.StatusBadRequest,
		"invalid_transition", "Bad Request",
		err.Error())
}
