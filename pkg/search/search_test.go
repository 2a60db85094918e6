package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n8nhub/n8nhub/pkg/aggregate"
	"github.com/n8nhub/n8nhub/pkg/fetch"
	"github.com/n8nhub/n8nhub/pkg/models"
	"github.com/n8nhub/n8nhub/pkg/probe"
	"github.com/n8nhub/n8nhub/pkg/status"
	"github.com/n8nhub/n8nhub/pkg/store/file"
)

type okProber struct{}

func (okProber) Probe(context.Context, models.Instance) probe.Result {
	return probe.Result{OK: true, Message: "Connection successful."}
}

func newEngine(t *testing.T) (*Engine, *file.Store) {
	t.Helper()

	s := file.NewStore(t.TempDir(), slog.Default())
	statuses := status.NewCache(s, okProber{}, slog.Default())
	fetcher := fetch.NewFetcher(slog.Default())
	aggregator := aggregate.New(s, statuses, fetcher, slog.Default())

	return NewEngine(s, statuses, aggregator, fetcher, slog.Default()), s
}

func seedCache(t *testing.T, s *file.Store, items []models.WorkflowItem) {
	t.Helper()
	require.NoError(t, s.SaveWorkflows(t.Context(), items))
}

func defaultItems() []models.WorkflowItem {
	return []models.WorkflowItem{
		{Key: "prod:1", InstanceID: "prod", InstanceName: "Production", Title: "Invoice Sync", Tags: []string{"billing"}, Subtitle: "Active · Production · billing"},
		{Key: "prod:2", InstanceID: "prod", InstanceName: "Production", Title: "Customer Report", Tags: []string{"reports"}, Subtitle: "Inactive · Production · reports"},
		{Key: "stage:1", InstanceID: "stage", InstanceName: "Staging", Title: "Invoice Sync", Tags: []string{"billing"}, Subtitle: "Inactive · Staging · billing"},
		{Key: "stage:3", InstanceID: "stage", InstanceName: "Staging", Title: "Slack Alerts", Tags: []string{"ops", "alerts"}, Subtitle: "Active · Staging · ops, alerts"},
	}
}

func keys(items []models.WorkflowItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Key)
	}

	return out
}

func TestEmptyQueryReturnsAllSorted(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, defaultItems())

	results, err := engine.Search(t.Context(), "", Options{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "Customer Report", results[0].Title)
}

func TestSubstringTier(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, defaultItems())

	results, err := engine.Search(t.Context(), "invoice", Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prod:1", "stage:1"}, keys(results))
}

func TestSubstringMatchesTagAndInstanceName(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, defaultItems())

	byTag, err := engine.Search(t.Context(), "billing", Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"prod:1", "stage:1"}, keys(byTag))

	byInstance, err := engine.Search(t.Context(), "staging", Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stage:1", "stage:3"}, keys(byInstance))
}

func TestSelectorsIntersect(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, defaultItems())

	results, err := engine.Search(t.Context(), "invoice", Options{InstanceIDs: []string{"prod"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"prod:1"}, keys(results))

	results, err = engine.Search(t.Context(), "", Options{Tags: []string{"ops"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"stage:3"}, keys(results))
}

func TestFuzzyTierCatchesSubsequence(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, defaultItems())

	// Not a substring of anything, but a tight subsequence of "Invoice Sync".
	results, err := engine.Search(t.Context(), "invsync", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, item := range results {
		assert.Equal(t, "Invoice Sync", item.Title)
	}
}

func TestFuzzyRejectsScatteredShortQuery(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, []models.WorkflowItem{
		{Key: "a:1", InstanceID: "a", InstanceName: "Prod", Title: "Customer Report"},
	})

	// "cp" is a scattered subsequence of "Customer Report"; a two-character
	// query must be filtered strictly.
	results, err := engine.Search(t.Context(), "xq", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPrimaryThresholdMonotonic(t *testing.T) {
	previous := 0.0

	for queryLen := 1; queryLen <= 20; queryLen++ {
		threshold := primaryThreshold(queryLen)
		assert.GreaterOrEqual(t, threshold, previous, "threshold shrank at length %d", queryLen)
		assert.LessOrEqual(t, threshold, 0.6)

		previous = threshold
	}

	assert.InDelta(t, 0.4, primaryThreshold(2), 1e-9)
	assert.InDelta(t, 0.6, primaryThreshold(6), 1e-9)
	assert.InDelta(t, 0.6, primaryThreshold(12), 1e-9)
}

func TestSecondaryCutoff(t *testing.T) {
	assert.InDelta(t, 0.4, secondaryCutoff(1), 1e-9)
	assert.InDelta(t, 0.4, secondaryCutoff(2), 1e-9)
	assert.InDelta(t, 0.8, secondaryCutoff(3), 1e-9)
}

func TestRemoteFallbackMergesIntoCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		page := models.WorkflowPage{Data: []models.Workflow{
			{ID: "9", Name: "Freshly Created Export"},
			{ID: "10", Name: "Unrelated"},
		}}
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}))
	defer srv.Close()

	engine, s := newEngine(t)
	ctx := t.Context()

	require.NoError(t, s.SaveInstances(ctx, []models.Instance{
		{ID: "prod", Name: "Production", BaseURL: srv.URL, APIKey: "k"},
	}))
	require.NoError(t, s.SaveStatuses(ctx, map[string]models.InstanceStatus{
		"prod": {InstanceID: "prod", Active: true},
	}))
	seedCache(t, s, []models.WorkflowItem{})

	results, err := engine.Search(ctx, "freshly export", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "prod:9", results[0].Key)

	// The discovery is merged into the cache for future local searches.
	cached, err := s.Workflows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"prod:9"}, keys(cached))
}

func TestRemoteFallbackSkipsOfflineInstances(t *testing.T) {
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	engine, s := newEngine(t)
	ctx := t.Context()

	require.NoError(t, s.SaveInstances(ctx, []models.Instance{
		{ID: "down", Name: "Down", BaseURL: srv.URL, APIKey: "k"},
	}))
	require.NoError(t, s.SaveStatuses(ctx, map[string]models.InstanceStatus{
		"down": {InstanceID: "down", Active: false},
	}))

	results, err := engine.Search(ctx, "anything", Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, calls)
}

func TestLocalHitShortCircuitsRemote(t *testing.T) {
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	engine, s := newEngine(t)
	ctx := t.Context()

	require.NoError(t, s.SaveInstances(ctx, []models.Instance{
		{ID: "prod", Name: "Production", BaseURL: srv.URL, APIKey: "k"},
	}))
	require.NoError(t, s.SaveStatuses(ctx, map[string]models.InstanceStatus{
		"prod": {InstanceID: "prod", Active: true},
	}))
	seedCache(t, s, defaultItems())

	results, err := engine.Search(ctx, "invoice", Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.Zero(t, calls, "remote fallback must not run when local tiers hit")
}

func TestResultsDedupedAndSorted(t *testing.T) {
	engine, s := newEngine(t)
	seedCache(t, s, []models.WorkflowItem{
		{Key: "a:1", InstanceID: "a", InstanceName: "A", Title: "zeta invoice"},
		{Key: "a:2", InstanceID: "a", InstanceName: "A", Title: "alpha invoice"},
	})

	results, err := engine.Search(t.Context(), "invoice", Options{Escalate: true})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "alpha invoice", results[0].Title)
	assert.Equal(t, "zeta invoice", results[1].Title)
}
