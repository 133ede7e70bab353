package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	pgconnv1 "github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SnapshotChannel is the NOTIFY channel raised when a snapshot is stored.
const SnapshotChannel = "dashboard_snapshots"

const (
	latestSnapshotSQL = `SELECT payload::text FROM dashboard_snapshots ORDER BY created_at DESC, id DESC LIMIT 1`
	insertSnapshotSQL = `INSERT INTO dashboard_snapshots (source, fingerprint, payload) VALUES ($1, $2, $3::jsonb)`
	notifySnapshotSQL = `SELECT pg_notify($1, $2)`

	// SnapshotTableDDL creates the snapshot table used by PostgresSource.
	SnapshotTableDDL = `CREATE TABLE IF NOT EXISTS dashboard_snapshots (
	id BIGSERIAL PRIMARY KEY,
	source TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
)

const undefinedTable = "42P01"

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSource reads the latest stored snapshot.
type PostgresSource struct {
	DB Querier
}

// Name implements Source.
func (s PostgresSource) Name() string { return "postgres:dashboard_snapshots" }

// Fetch implements Source.
func (s PostgresSource) Fetch(ctx context.Context) ([]byte, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("%w: database not configured", ErrFetch)
	}
	var payload string
	if err := s.DB.QueryRow(ctx, latestSnapshotSQL).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no snapshot stored", ErrFetch)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return nil, fmt.Errorf("%w: snapshot table missing", ErrFetch)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return []byte(payload), nil
}

// SaveSnapshot stores raw dataset bytes and notifies listeners.
func SaveSnapshot(ctx context.Context, db Execer, source string, raw []byte) (string, error) {
	fingerprint := Fingerprint(raw)
	if _, err := db.Exec(ctx, insertSnapshotSQL, source, fingerprint, string(raw)); err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := db.Exec(ctx, notifySnapshotSQL, SnapshotChannel, fingerprint); err != nil {
		return "", fmt.Errorf("notify snapshot: %w", err)
	}
	return fingerprint, nil
}

// SnapshotListener waits for snapshot notifications on a dedicated connection.
type SnapshotListener struct {
	DSN     string
	Channel string
	Logger  *slog.Logger
}

// Listen blocks until ctx is done, calling onNotify with each payload.
func (l *SnapshotListener) Listen(ctx context.Context, onNotify func(fingerprint string)) error {
	if l == nil || l.DSN == "" {
		return errors.New("snapshot listener: dsn required")
	}
	channel := l.Channel
	if channel == "" {
		channel = SnapshotChannel
	}
	if !channelPattern.MatchString(channel) {
		return fmt.Errorf("snapshot listener: invalid channel %q", channel)
	}
	cfg, err := pgconnv1.ParseConfig(l.DSN)
	if err != nil {
		return fmt.Errorf("snapshot listener: parse dsn: %w", err)
	}
	cfg.OnNotification = func(_ *pgconnv1.PgConn, n *pgconnv1.Notification) {
		if n == nil || onNotify == nil {
			return
		}
		onNotify(n.Payload)
	}
	conn, err := pgconnv1.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("snapshot listener: connect: %w", err)
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "LISTEN "+channel).ReadAll(); err != nil {
		return fmt.Errorf("snapshot listener: listen: %w", err)
	}
	l.logger().Info("listening for snapshots", slog.String("channel", channel))
	for {
		if err := conn.WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("snapshot listener: wait: %w", err)
		}
	}
}

func (l *SnapshotListener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
