package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()
	state, snap, err := store.Status()
	assert.Equal(t, StateLoading, state)
	assert.Nil(t, snap)
	assert.NoError(t, err)

	_, err = store.Snapshot()
	require.ErrorIs(t, err, ErrNotLoaded)

	loadErr := errors.New("boom")
	assert.True(t, store.Fail(loadErr))
	state, _, err = store.Status()
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, loadErr, err)

	published := &Snapshot{Fingerprint: "abc"}
	store.Publish(published)
	got, err := store.Snapshot()
	require.NoError(t, err)
	assert.Same(t, published, got)

	assert.False(t, store.Fail(loadErr), "a loaded store keeps its snapshot")
	state, _, _ = store.Status()
	assert.Equal(t, StateLoaded, state)
}

func TestStoreConcurrentReaders(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				state, snap, _ := store.Status()
				if state == StateLoaded && snap == nil {
					t.Error("loaded state without snapshot")
				}
			}
		}()
	}
	store.Publish(&Snapshot{})
	wg.Wait()
}

func TestLoadFromFile(t *testing.T) {
	now := time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)
	snap, err := Load(context.Background(), FileSource{Path: filepath.Join("testdata", "canonical.json")}, now)
	require.NoError(t, err)
	assert.Equal(t, now, snap.LoadedAt)
	assert.Len(t, snap.Fingerprint, 32)
	assert.Equal(t, Fingerprint(snap.Raw), snap.Fingerprint)
	assert.Contains(t, snap.Source, "canonical.json")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), FileSource{Path: filepath.Join("testdata", "missing.json")}, time.Now())
	require.ErrorIs(t, err, ErrFetch)
}

func TestHTTPSourceFetch(t *testing.T) {
	body := readFixture(t, "canonical.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/data.json", time.Second)
	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestHTTPSourceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "404")
}

type stubRow struct {
	payload string
	err     error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.payload
	return nil
}

type stubQuerier struct {
	row stubRow
}

func (q stubQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.row
}

func TestPostgresSourceFetch(t *testing.T) {
	src := PostgresSource{DB: stubQuerier{row: stubRow{payload: `{"kpis":{}}`}}}
	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kpis":{}}`, string(data))
}

func TestPostgresSourceErrors(t *testing.T) {
	_, err := PostgresSource{DB: stubQuerier{row: stubRow{err: pgx.ErrNoRows}}}.Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "no snapshot")

	_, err = PostgresSource{DB: stubQuerier{row: stubRow{err: &pgconn.PgError{Code: "42P01"}}}}.Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
	assert.Contains(t, err.Error(), "table missing")

	_, err = PostgresSource{}.Fetch(context.Background())
	require.ErrorIs(t, err, ErrFetch)
}

type recordingExecer struct {
	calls []string
	args  [][]any
}

func (e *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.calls = append(e.calls, sql)
	e.args = append(e.args, args)
	return pgconn.CommandTag{}, nil
}

func TestSaveSnapshotNotifies(t *testing.T) {
	exec := &recordingExecer{}
	raw := []byte(`{"kpis":{}}`)
	fp, err := SaveSnapshot(context.Background(), exec, "seed", raw)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(raw), fp)
	require.Len(t, exec.calls, 2)
	assert.Equal(t, insertSnapshotSQL, exec.calls[0])
	assert.Equal(t, notifySnapshotSQL, exec.calls[1])
	assert.Equal(t, []any{SnapshotChannel, fp}, exec.args[1])
}

func TestSnapshotListenerValidatesChannel(t *testing.T) {
	l := &SnapshotListener{DSN: "postgres://localhost/db", Channel: "bad; DROP"}
	err := l.Listen(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid channel")
}
