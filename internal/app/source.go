package app

import (
	"fmt"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// NewDatasetSource builds the configured dataset source. db is only used by
// the postgres source.
func NewDatasetSource(cfg *Config, db dataset.Querier) (dataset.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("dataset source: config required")
	}
	switch cfg.DatasetSource {
	case SourceFile, "":
		return dataset.FileSource{Path: cfg.DatasetPath}, nil
	case SourceHTTP:
		return dataset.NewHTTPSource(cfg.DatasetURL, cfg.DatasetFetchTimeout), nil
	case SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("dataset source: postgres pool required")
		}
		return dataset.PostgresSource{DB: db}, nil
	default:
		return nil, fmt.Errorf("dataset source: unknown kind %q", cfg.DatasetSource)
	}
}
