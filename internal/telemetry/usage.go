package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/draftforge/proposal-agent/internal/store"
)

// ModelPrice is the cost per one million tokens, USD.
type ModelPrice struct {
	InputPerMTok  float64 `yaml:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok"`
}

// defaultPrices is the static per-model price table. Costs are computed once
// at record time and never recomputed retroactively, so edits here only
// affect future rows.
var defaultPrices = map[string]ModelPrice{
	"gpt-4o":            {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"gpt-4o-mini":       {InputPerMTok: 0.15, OutputPerMTok: 0.60},
	"claude-sonnet-4-5": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
	"claude-haiku-4-5":  {InputPerMTok: 0.80, OutputPerMTok: 4.00},
	"gemini-2.5-flash":  {InputPerMTok: 0.30, OutputPerMTok: 2.50},
	"gemini-2.5-pro":    {InputPerMTok: 1.25, OutputPerMTok: 10.00},
}

// UsageRecord is one append-only ledger entry for a provider call.
type UsageRecord struct {
	ID           int64   `json:"id"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	InputTokens  int     `json:"inputTokens"`
	OutputTokens int     `json:"outputTokens"`
	CostUSD      float64 `json:"costUsd"`
	Operation    string  `json:"operation"`
	CreatedAt    int64   `json:"createdAt"`
}

// UsageTracker appends provider spend to the usage ledger.
type UsageTracker struct {
	ds     *store.Store
	prices map[string]ModelPrice
	logger zerolog.Logger
}

// NewUsageTracker creates a usage tracker with the built-in price table.
func NewUsageTracker(ds *store.Store, logger zerolog.Logger) *UsageTracker {
	prices := make(map[string]ModelPrice, len(defaultPrices))
	for k, v := range defaultPrices {
		prices[k] = v
	}
	return &UsageTracker{
		ds:     ds,
		prices: prices,
		logger: logger.With().Str("component", "telemetry.usage").Logger(),
	}
}

// LoadPricing merges price rows from a YAML file over the built-in table.
func (t *UsageTracker) LoadPricing(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pricing file: %w", err)
	}
	var override map[string]ModelPrice
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("failed to parse pricing file: %w", err)
	}
	for model, price := range override {
		t.prices[model] = price
	}
	t.logger.Info().Int("models", len(override)).Str("path", path).Msg("pricing overrides loaded")
	return nil
}

// Cost computes the USD cost for a call against the price table. Unknown
// models cost zero.
func (t *UsageTracker) Cost(model string, inputTokens, outputTokens int) float64 {
	price, ok := t.prices[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*price.InputPerMTok +
		float64(outputTokens)/1_000_000*price.OutputPerMTok
}

// Record appends one ledger entry.
func (t *UsageTracker) Record(provider, model string, inputTokens, outputTokens int, operation string) error {
	cost := t.Cost(model, inputTokens, outputTokens)
	_, err := t.ds.DB().Exec(
		`INSERT INTO usage_ledger (provider, model, input_tokens, output_tokens, cost_usd, operation, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		provider, model, inputTokens, outputTokens, cost, operation, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// RecordAsync is the fire-and-forget form used on the provider hot path.
func (t *UsageTracker) RecordAsync(provider, model string, inputTokens, outputTokens int, operation string) {
	if err := t.Record(provider, model, inputTokens, outputTokens, operation); err != nil {
		t.logger.Debug().Err(err).Str("provider", provider).Msg("usage write dropped")
	}
}

// List returns ledger entries, most recent first, capped at limit.
func (t *UsageTracker) List(limit int) ([]*UsageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := t.ds.DB().Query(
		`SELECT id, provider, model, input_tokens, output_tokens, cost_usd, operation, created_at
		 FROM usage_ledger ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	defer rows.Close()

	var records []*UsageRecord
	for rows.Next() {
		r := &UsageRecord{}
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.InputTokens, &r.OutputTokens, &r.CostUSD, &r.Operation, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// TotalCost sums the ledger's cost column.
func (t *UsageTracker) TotalCost() (float64, error) {
	var total float64
	err := t.ds.DB().QueryRow(`SELECT COALESCE(SUM(cost_usd), 0) FROM usage_ledger`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum usage cost: %w", err)
	}
	return total, nil
}
