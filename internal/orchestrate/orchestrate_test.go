package orchestrate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/proposal-agent/internal/project"
	"github.com/draftforge/proposal-agent/internal/provider"
	"github.com/draftforge/proposal-agent/internal/research"
)

type fakeSource struct {
	providers map[string]provider.Provider
}

func (f *fakeSource) Get(name string) (provider.Provider, error) {
	p, ok := f.providers[name]
	if !ok {
		return nil, errors.New("provider " + name + " not initialized")
	}
	return p, nil
}

type namedProvider struct {
	provider.Provider
	name string
}

func (n *namedProvider) Name() string { return n.name }

type fakeProjects struct {
	mu      sync.Mutex
	updates []project.Update
}

func (f *fakeProjects) UpdateProject(id string, upd project.Update) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	return &project.Project{ID: id}, nil
}

type fakeResearcher struct {
	calls  atomic.Int64
	delay  time.Duration
	result *research.Result
	err    error
}

func (f *fakeResearcher) Conduct(ctx context.Context, researchType, description, projectID string) (*research.Result, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func newTestOrchestrator(src ProviderSource, projects ProjectStore, r Researcher) *Orchestrator {
	return New(src, projects, r, "openai", "anthropic", 100*time.Millisecond, zerolog.Nop())
}

func TestProviderFor_RoutingTable(t *testing.T) {
	src := &fakeSource{providers: map[string]provider.Provider{
		"openai":    &namedProvider{name: "openai"},
		"anthropic": &namedProvider{name: "anthropic"},
	}}
	o := newTestOrchestrator(src, &fakeProjects{}, nil)

	cases := []struct {
		op   provider.Operation
		want string
	}{
		{provider.OpChat, "openai"},
		{provider.OpEstimate, "openai"},
		{provider.OpExecution, "anthropic"},
		{provider.OpPM, "anthropic"},
		{provider.Operation("unknown"), "openai"},
	}
	for _, tc := range cases {
		p, err := o.ProviderFor(tc.op)
		require.NoError(t, err, string(tc.op))
		assert.Equal(t, tc.want, p.Name(), string(tc.op))
	}
}

func TestProviderFor_MissingSlot(t *testing.T) {
	o := newTestOrchestrator(&fakeSource{providers: map[string]provider.Provider{}}, &fakeProjects{}, nil)
	_, err := o.ProviderFor(provider.OpChat)
	require.Error(t, err)
}

func TestWithDeadline(t *testing.T) {
	o := newTestOrchestrator(&fakeSource{}, &fakeProjects{}, nil)
	ctx, cancel := o.WithDeadline(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(100*time.Millisecond), deadline, 50*time.Millisecond)
}

func TestEnsureResearch_CacheHit(t *testing.T) {
	r := &fakeResearcher{result: &research.Result{Summary: "fresh"}}
	projects := &fakeProjects{}
	o := newTestOrchestrator(&fakeSource{}, projects, r)

	p := &project.Project{
		ID:         "p1",
		ParsedData: map[string]any{"marketResearch": "## Cached"},
	}
	md := o.EnsureResearch(context.Background(), p)

	assert.Equal(t, "## Cached", md)
	assert.Equal(t, int64(0), r.calls.Load())
	assert.Empty(t, projects.updates)
}

func TestEnsureResearch_MissConductsAndCaches(t *testing.T) {
	r := &fakeResearcher{result: &research.Result{Summary: "Strong demand."}}
	projects := &fakeProjects{}
	o := newTestOrchestrator(&fakeSource{}, projects, r)

	p := &project.Project{
		ID:         "p1",
		Name:       "CRM build",
		ParsedData: map[string]any{"projectType": "saas"},
	}
	md := o.EnsureResearch(context.Background(), p)

	assert.Contains(t, md, "Strong demand.")
	assert.Equal(t, int64(1), r.calls.Load())
	require.Len(t, projects.updates, 1)
	cached := (*projects.updates[0].ParsedData)["marketResearch"]
	assert.Equal(t, md, cached)

	// second call sees the write-back and is a cache hit
	md2 := o.EnsureResearch(context.Background(), p)
	assert.Equal(t, md, md2)
	assert.Equal(t, int64(1), r.calls.Load())
}

func TestEnsureResearch_FailureYieldsPlaceholder(t *testing.T) {
	r := &fakeResearcher{err: errors.New("boom")}
	projects := &fakeProjects{}
	o := newTestOrchestrator(&fakeSource{}, projects, r)

	p := &project.Project{ID: "p1", ParsedData: map[string]any{}}
	md := o.EnsureResearch(context.Background(), p)

	assert.Equal(t, research.Placeholder, md)
	assert.Empty(t, projects.updates, "failures are not cached")
}

func TestEnsureResearch_NilResearcher(t *testing.T) {
	o := newTestOrchestrator(&fakeSource{}, &fakeProjects{}, nil)
	p := &project.Project{ID: "p1"}
	assert.Equal(t, research.Placeholder, o.EnsureResearch(context.Background(), p))
}

func TestEnsureResearch_SingleFlight(t *testing.T) {
	r := &fakeResearcher{result: &research.Result{Summary: "once"}, delay: 20 * time.Millisecond}
	projects := &fakeProjects{}
	o := newTestOrchestrator(&fakeSource{}, projects, r)

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// each trigger loads its own copy, as concurrent requests would
			p := &project.Project{ID: "p1", ParsedData: map[string]any{}}
			results[i] = o.EnsureResearch(context.Background(), p)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), r.calls.Load(), "concurrent triggers share one collaborator call")
	for _, md := range results {
		assert.Contains(t, md, "once")
	}
}
