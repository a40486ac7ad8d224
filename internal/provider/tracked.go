package provider

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/draftforge/proposal-agent/internal/metrics"
	"github.com/draftforge/proposal-agent/internal/telemetry"
)

// Tracked decorates a Provider with health and usage recording. Success
// records (online, latency) and a usage ledger row; failure records
// (degraded, error message). Recording never fails, delays or retries the
// underlying call, and errors always propagate unchanged.
type Tracked struct {
	Provider
	health *telemetry.HealthTracker
	usage  *telemetry.UsageTracker
	mx     *metrics.Metrics
	logger zerolog.Logger
}

// Track wraps p with the observability ledgers. Any of the trackers may be
// nil, in which case that side channel is skipped.
func Track(p Provider, health *telemetry.HealthTracker, usage *telemetry.UsageTracker, mx *metrics.Metrics, logger zerolog.Logger) *Tracked {
	return &Tracked{
		Provider: p,
		health:   health,
		usage:    usage,
		mx:       mx,
		logger:   logger.With().Str("component", "provider.tracked").Str("provider", p.Name()).Logger(),
	}
}

func (t *Tracked) recordSuccess(op Operation, elapsed time.Duration, inTokens, outTokens int) {
	if t.health != nil {
		t.health.RecordAsync(t.Name(), telemetry.StatusOnline, elapsed.Milliseconds(), "")
	}
	if t.usage != nil {
		t.usage.RecordAsync(t.Name(), t.Model(), inTokens, outTokens, string(op))
		if t.mx != nil {
			t.mx.RecordCost(t.Name(), t.Model(), t.usage.Cost(t.Model(), inTokens, outTokens))
		}
	}
	if t.mx != nil {
		t.mx.RecordProviderCall(t.Name(), string(op), "success")
		t.mx.ObserveProviderLatency(t.Name(), string(op), elapsed.Seconds())
		t.mx.RecordTokens(t.Name(), t.Model(), inTokens, outTokens)
	}
}

func (t *Tracked) recordFailure(op Operation, err error) {
	if t.health != nil {
		t.health.RecordAsync(t.Name(), telemetry.StatusDegraded, 0, err.Error())
	}
	if t.mx != nil {
		t.mx.RecordProviderCall(t.Name(), string(op), "error")
		t.mx.RecordError("provider."+t.Name(), "call_failure")
	}
}

// Generate delegates and records the outcome.
func (t *Tracked) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result, err := t.Provider.Generate(ctx, req)
	if err != nil {
		t.recordFailure(req.Operation, err)
		return nil, err
	}

	inTokens, outTokens := result.InputTokens, result.OutputTokens
	if inTokens == 0 && outTokens == 0 {
		inTokens = EstimateTokens(req.Prompt)
		outTokens = EstimateTokens(result.Text)
	}
	t.recordSuccess(req.Operation, time.Since(start), inTokens, outTokens)
	return result, nil
}

// Stream delegates and records the outcome once the relayed stream ends.
func (t *Tracked) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	start := time.Now()
	upstream, err := t.Provider.Stream(ctx, req)
	if err != nil {
		t.recordFailure(req.Operation, err)
		return nil, err
	}

	out := make(chan Chunk, 8)
	go func() {
		defer close(out)
		var text string
		for chunk := range upstream {
			if !chunk.Final {
				text += chunk.Content
			}
			out <- chunk
			if chunk.Final {
				if chunk.Err != nil {
					t.recordFailure(req.Operation, chunk.Err)
				} else {
					// Streams carry no usage metadata in this contract.
					t.recordSuccess(req.Operation, time.Since(start), EstimateTokens(req.Prompt), EstimateTokens(text))
				}
				return
			}
		}
	}()
	return out, nil
}
