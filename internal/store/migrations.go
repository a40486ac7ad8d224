package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		current_stage INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'draft',
		parsed_data TEXT NOT NULL DEFAULT '{}',
		estimate_content TEXT NOT NULL DEFAULT '',
		scenario_a TEXT NOT NULL DEFAULT '',
		scenario_b TEXT NOT NULL DEFAULT '',
		roi_analysis TEXT NOT NULL DEFAULT '',
		execution_guide_a TEXT NOT NULL DEFAULT '',
		execution_guide_b TEXT NOT NULL DEFAULT '',
		pm_breakdown TEXT NOT NULL DEFAULT '',
		selected_scenario TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_stage ON projects(current_stage);
	CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at);

	CREATE TABLE IF NOT EXISTS knowledge_entries (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		content TEXT NOT NULL,
		approved INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge_entries(category, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migration v1: %w", err)
	}
	return nil
}

func (s *Store) migrateV2() error {
	schema := `
	CREATE TABLE IF NOT EXISTS service_health (
		service TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'unknown',
		latency_ms INTEGER NOT NULL DEFAULT 0,
		request_count INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		last_checked INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS usage_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		operation TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage_ledger(provider, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migration v2: %w", err)
	}
	return nil
}
