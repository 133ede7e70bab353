package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

// SnapshotDB is the pool surface the worker reads and writes snapshots with.
type SnapshotDB interface {
	dataset.Querier
	dataset.Execer
	Close()
}

// Connector opens a SnapshotDB for a DSN.
type Connector func(ctx context.Context, dsn string) (SnapshotDB, error)

// WorkerStorage holds the database roles of the refresh worker. Querier feeds
// the postgres source; Store persists snapshots fetched from other sources.
// Both are nil when no database is reachable for a file or http source.
type WorkerStorage struct {
	Querier dataset.Querier
	Store   dataset.Execer
	db      SnapshotDB
}

// Close releases the pool when one was opened.
func (s *WorkerStorage) Close() {
	if s != nil && s.db != nil {
		s.db.Close()
	}
}

// OpenWorkerStorage connects Postgres for the worker. The postgres source
// cannot run without it; file and http sources only lose snapshot persistence.
func OpenWorkerStorage(ctx context.Context, cfg *Config, connect Connector, logger *slog.Logger) (*WorkerStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker storage: config required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if connect == nil {
		if cfg.DatasetSource == SourcePostgres {
			return nil, fmt.Errorf("worker storage: postgres connector required")
		}
		return &WorkerStorage{}, nil
	}

	db, err := connect(ctx, cfg.PGDSN)
	if err != nil {
		if cfg.DatasetSource == SourcePostgres {
			return nil, fmt.Errorf("worker storage: %w", err)
		}
		logger.Warn("postgres unavailable, snapshot persistence disabled", slog.Any("error", err))
		return &WorkerStorage{}, nil
	}

	storage := &WorkerStorage{db: db}
	if cfg.DatasetSource == SourcePostgres {
		// Snapshots read from postgres are never written back.
		storage.Querier = db
	} else {
		storage.Store = db
	}
	return storage, nil
}
