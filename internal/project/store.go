package project

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/store"
)

// Store handles project-related SQLite operations.
type Store struct {
	ds     *store.Store
	logger zerolog.Logger
}

// NewStore creates a new project store.
func NewStore(ds *store.Store, logger zerolog.Logger) *Store {
	return &Store{
		ds:     ds,
		logger: logger.With().Str("component", "project.store").Logger(),
	}
}

// projectColumns is the standard column list for project queries.
const projectColumns = `id, name, current_stage, status, parsed_data, estimate_content, scenario_a, scenario_b, roi_analysis, execution_guide_a, execution_guide_b, pm_breakdown, selected_scenario, created_at, updated_at`

// CreateProject creates a new project at stage 1 / draft.
func (s *Store) CreateProject(input CreateProjectInput) (*Project, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("project name is required")
	}

	parsed := input.ParsedData
	if parsed == nil {
		parsed = map[string]any{}
	}
	parsedJSON, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parsed data: %w", err)
	}

	now := time.Now().UnixMilli()
	p := &Project{
		ID:           uuid.New().String(),
		Name:         input.Name,
		CurrentStage: StageMin,
		Status:       StatusDraft,
		ParsedData:   parsed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.ds.DB().Exec(
		`INSERT INTO projects (id, name, current_stage, status, parsed_data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.CurrentStage, p.Status, string(parsedJSON), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// GetProject retrieves a project by ID. Returns (nil, nil) when absent.
func (s *Store) GetProject(id string) (*Project, error) {
	return s.scanProject(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
}

func (s *Store) scanProject(query string, args ...interface{}) (*Project, error) {
	p := &Project{}
	var parsedJSON string

	err := s.ds.DB().QueryRow(query, args...).Scan(
		&p.ID, &p.Name, &p.CurrentStage, &p.Status, &parsedJSON,
		&p.EstimateContent, &p.ScenarioA, &p.ScenarioB, &p.ROIAnalysis,
		&p.ExecutionGuideA, &p.ExecutionGuideB, &p.PMBreakdown,
		&p.SelectedScenario, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if parsedJSON != "" {
		if err := json.Unmarshal([]byte(parsedJSON), &p.ParsedData); err != nil {
			s.logger.Warn().Err(err).Str("project_id", p.ID).Msg("corrupt parsed_data blob")
			p.ParsedData = map[string]any{}
		}
	}
	return p, nil
}

// ListProjects lists all projects, most recently updated first.
func (s *Store) ListProjects() ([]*Project, error) {
	rows, err := s.ds.DB().Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		var parsedJSON string
		if err := rows.Scan(
			&p.ID, &p.Name, &p.CurrentStage, &p.Status, &parsedJSON,
			&p.EstimateContent, &p.ScenarioA, &p.ScenarioB, &p.ROIAnalysis,
			&p.ExecutionGuideA, &p.ExecutionGuideB, &p.PMBreakdown,
			&p.SelectedScenario, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if parsedJSON != "" {
			if err := json.Unmarshal([]byte(parsedJSON), &p.ParsedData); err != nil {
				p.ParsedData = map[string]any{}
			}
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject applies a partial update and returns the updated project.
// Returns (nil, nil) when the project does not exist.
func (s *Store) UpdateProject(id string, upd Update) (*Project, error) {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UnixMilli()}

	add := func(col string, v interface{}) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.CurrentStage != nil {
		add("current_stage", *upd.CurrentStage)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.ParsedData != nil {
		parsedJSON, err := json.Marshal(*upd.ParsedData)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal parsed data: %w", err)
		}
		add("parsed_data", string(parsedJSON))
	}
	if upd.EstimateContent != nil {
		add("estimate_content", *upd.EstimateContent)
	}
	if upd.ScenarioA != nil {
		add("scenario_a", *upd.ScenarioA)
	}
	if upd.ScenarioB != nil {
		add("scenario_b", *upd.ScenarioB)
	}
	if upd.ROIAnalysis != nil {
		add("roi_analysis", *upd.ROIAnalysis)
	}
	if upd.ExecutionGuideA != nil {
		add("execution_guide_a", *upd.ExecutionGuideA)
	}
	if upd.ExecutionGuideB != nil {
		add("execution_guide_b", *upd.ExecutionGuideB)
	}
	if upd.PMBreakdown != nil {
		add("pm_breakdown", *upd.PMBreakdown)
	}
	if upd.SelectedScenario != nil {
		add("selected_scenario", *upd.SelectedScenario)
	}

	query := "UPDATE projects SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.ds.DB().Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetProject(id)
}

// CreateKnowledgeEntry appends one knowledge entry.
func (s *Store) CreateKnowledgeEntry(entry *KnowledgeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().UnixMilli()
	}
	_, err := s.ds.DB().Exec(
		`INSERT INTO knowledge_entries (id, category, content, approved, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Category, entry.Content, entry.Approved, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create knowledge entry: %w", err)
	}
	return nil
}

// GetKnowledgeEntries returns entries for a category, most recent first.
// Only approved entries are returned; callers cap the count themselves.
func (s *Store) GetKnowledgeEntries(category string) ([]*KnowledgeEntry, error) {
	rows, err := s.ds.DB().Query(
		`SELECT id, category, content, approved, created_at FROM knowledge_entries
		 WHERE category = ? AND approved = 1 ORDER BY created_at DESC`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []*KnowledgeEntry
	for rows.Next() {
		e := &KnowledgeEntry{}
		if err := rows.Scan(&e.ID, &e.Category, &e.Content, &e.Approved, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
