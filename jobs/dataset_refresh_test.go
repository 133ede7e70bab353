package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apex-analytics/apex-dashboard/internal/analytics"
	jobmetrics "github.com/apex-analytics/apex-dashboard/internal/jobs"
)

type staticSource struct {
	raw []byte
	err error
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Fetch(ctx context.Context) ([]byte, error) {
	return s.raw, s.err
}

type recordingExecer struct {
	mu  sync.Mutex
	sql []string
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sql = append(r.sql, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func fixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("../internal/dataset/testdata/canonical.json")
	require.NoError(t, err)
	return raw
}

func newCache(t *testing.T) (*analytics.Cache, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return analytics.NewCache(client, time.Minute), client
}

func refreshTask(t *testing.T, payload DatasetRefreshPayload) *asynq.Task {
	t.Helper()
	task, err := NewDatasetRefreshTask(payload)
	require.NoError(t, err)
	return task
}

func TestDatasetRefreshPublishesNewVersion(t *testing.T) {
	ctx := context.Background()
	cache, client := newCache(t)
	raw := fixture(t)
	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewDatasetRefreshJob(staticSource{raw: raw}, cache, nil, nil, metrics)

	require.NoError(t, job.Handle(ctx, refreshTask(t, DatasetRefreshPayload{Reason: "test"})))

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	key, err := cache.BuildKey(ctx, "dashboard", "dataset")
	require.NoError(t, err)
	stored, err := client.Get(ctx, key).Bytes()
	require.NoError(t, err)
	assert.Equal(t, raw, stored)
}

func TestDatasetRefreshPersistsSnapshot(t *testing.T) {
	cache, _ := newCache(t)
	store := &recordingExecer{}
	job := NewDatasetRefreshJob(staticSource{raw: fixture(t)}, cache, store, nil, nil)

	require.NoError(t, job.Handle(context.Background(), refreshTask(t, DatasetRefreshPayload{Persist: true})))
	require.Len(t, store.sql, 2)
	assert.Contains(t, store.sql[0], "INSERT INTO dashboard_snapshots")
	assert.Contains(t, store.sql[1], "pg_notify")
}

func TestDatasetRefreshRejectsInvalidDataset(t *testing.T) {
	ctx := context.Background()
	cache, _ := newCache(t)
	job := NewDatasetRefreshJob(staticSource{raw: []byte(`{"kpis": "nope"}`)}, cache, nil, nil, nil)

	err := job.Handle(ctx, refreshTask(t, DatasetRefreshPayload{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver, "invalid data must not bump the cache")
}

func TestDatasetRefreshRecordsFailure(t *testing.T) {
	cache, _ := newCache(t)
	registry := prometheus.NewRegistry()
	job := NewDatasetRefreshJob(staticSource{err: errors.New("upstream down")}, cache, nil, nil, jobmetrics.NewMetrics(registry))

	err := job.Handle(context.Background(), refreshTask(t, DatasetRefreshPayload{}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry), "fetch errors are retried")

	failures, err := testutil.GatherAndCount(registry, "dashboard_jobs_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
}

func TestDatasetRefreshRequiresDependencies(t *testing.T) {
	var job *DatasetRefreshJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskDatasetRefresh, nil)))
}

func TestNewDatasetRefreshTaskDefaultsReason(t *testing.T) {
	task := refreshTask(t, DatasetRefreshPayload{})
	assert.Equal(t, TaskDatasetRefresh, task.Type())
	assert.JSONEq(t, `{"reason":"manual"}`, string(task.Payload()))
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	router := chi.NewRouter()
	router.Route("/jobs", NewHandler(nil, nil).MountRoutes)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}
