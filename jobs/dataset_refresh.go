package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
	jobmetrics "github.com/apex-analytics/apex-dashboard/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DatasetCache receives freshly fetched dataset bytes under a new version.
type DatasetCache interface {
	Replace(ctx context.Context, raw []byte, parts ...string) (int64, error)
}

// DatasetRefreshJob fetches, validates and publishes the dashboard dataset.
type DatasetRefreshJob struct {
	Source  dataset.Source
	Cache   DatasetCache
	Store   dataset.Execer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewDatasetRefreshJob constructs the job handler. store may be nil.
func NewDatasetRefreshJob(source dataset.Source, cache DatasetCache, store dataset.Execer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DatasetRefreshJob {
	return &DatasetRefreshJob{
		Source:  source,
		Cache:   cache,
		Store:   store,
		Logger:  logger,
		Metrics: metrics,
		Timeout: 30 * time.Second,
	}
}

// Handle executes the refresh job.
func (j *DatasetRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Source == nil || j.Cache == nil {
		return errors.New("dataset refresh: dependencies not configured")
	}
	var payload DatasetRefreshPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("dataset refresh: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskDatasetRefresh)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	fetchCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	raw, err := j.Source.Fetch(fetchCtx)
	if err != nil {
		resultErr = err
		j.log().Error("fetch dataset", slog.String("source", j.Source.Name()), slog.Any("error", err))
		return resultErr
	}
	doc, err := dataset.Decode(raw)
	if err != nil {
		// Bad upstream data will not fix itself on retry.
		resultErr = err
		j.log().Error("validate dataset", slog.String("source", j.Source.Name()), slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if payload.Persist && j.Store == nil {
		j.log().Warn("persist requested without a database", slog.String("reason", payload.Reason))
	}
	if payload.Persist && j.Store != nil {
		if _, err := dataset.SaveSnapshot(ctx, j.Store, j.Source.Name(), raw); err != nil {
			resultErr = err
			j.log().Error("persist snapshot", slog.Any("error", err))
			return resultErr
		}
	}

	version, err := j.Cache.Replace(ctx, raw, "dashboard", "dataset")
	if err != nil {
		resultErr = err
		j.log().Error("publish dataset", slog.Any("error", err))
		return resultErr
	}

	j.log().Info("refreshed dataset",
		slog.String("reason", payload.Reason),
		slog.String("fingerprint", dataset.Fingerprint(raw)),
		slog.Int("merchants", len(doc.Merchants)),
		slog.Int64("version", version),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DatasetRefreshJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DatasetRefreshJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDatasetRefresh))
	}
	return slog.Default().With(slog.String("job", TaskDatasetRefresh))
}
