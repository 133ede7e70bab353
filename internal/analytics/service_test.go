package analytics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/apex-analytics/apex-dashboard/internal/dataset"
)

type stubSource struct {
	mu    sync.Mutex
	raw   []byte
	err   error
	calls int32
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

func (s *stubSource) set(raw []byte, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw, s.err = raw, err
}

type recordingObserver struct {
	mu   sync.Mutex
	errs []error
}

func (o *recordingObserver) ObserveLoad(source string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs = append(o.errs, err)
}

func canonicalBytes(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "dataset", "testdata", "canonical.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

func canonicalPayload(t *testing.T) *dataset.Payload {
	t.Helper()
	doc, err := dataset.Decode(canonicalBytes(t))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	_, payload, err := doc.Payload("")
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	return payload
}

func newTestService(t *testing.T, src dataset.Source) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)
	return NewService(src, cache, nil), cache
}

func TestReloadCachesRawDataset(t *testing.T) {
	src := &stubSource{raw: canonicalBytes(t)}
	svc, _ := newTestService(t, src)
	obs := &recordingObserver{}
	svc.WithObserver(obs)

	ctx := context.Background()
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	state, snap, err := svc.Status()
	if state != dataset.StateLoaded || err != nil {
		t.Fatalf("expected loaded state, got %s (%v)", state, err)
	}
	if snap.Fingerprint != dataset.Fingerprint(src.raw) {
		t.Fatalf("unexpected fingerprint %s", snap.Fingerprint)
	}

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("second reload: %v", err)
	}
	if calls := atomic.LoadInt32(&src.calls); calls != 1 {
		t.Fatalf("expected cached dataset, source called %d times", calls)
	}
	if len(obs.errs) != 2 || obs.errs[0] != nil || obs.errs[1] != nil {
		t.Fatalf("unexpected observations %v", obs.errs)
	}
}

func TestReplacePublishesNewVersion(t *testing.T) {
	src := &stubSource{raw: canonicalBytes(t)}
	svc, cache := newTestService(t, src)
	ctx := context.Background()
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	generator, err := os.ReadFile(filepath.Join("..", "dataset", "testdata", "generator.json"))
	if err != nil {
		t.Fatalf("read generator fixture: %v", err)
	}
	ver, err := cache.Replace(ctx, generator, "dashboard", "dataset")
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if ver != 2 {
		t.Fatalf("expected version 2 got %d", ver)
	}
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("reload after replace: %v", err)
	}
	_, merchant, _, err := svc.Merchant("")
	if err != nil {
		t.Fatalf("merchant: %v", err)
	}
	if merchant != "APEX" {
		t.Fatalf("expected replaced dataset, got merchant %q", merchant)
	}
	if calls := atomic.LoadInt32(&src.calls); calls != 1 {
		t.Fatalf("replace should feed the cache, source called %d times", calls)
	}
}

func TestReloadFailureStates(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("%w: connection refused", dataset.ErrFetch)}
	svc := NewService(src, nil, nil)
	ctx := context.Background()

	err := svc.Reload(ctx)
	if !errors.Is(err, dataset.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	state, _, statusErr := svc.Status()
	if state != dataset.StateFailed || statusErr == nil {
		t.Fatalf("expected failed state, got %s", state)
	}
	if _, _, _, err := svc.Merchant(""); !errors.Is(err, dataset.ErrNotLoaded) {
		t.Fatalf("expected not loaded, got %v", err)
	}

	src.set(canonicalBytes(t), nil)
	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("recover reload: %v", err)
	}
	src.set([]byte("{"), nil)
	if err := svc.Reload(ctx); !errors.Is(err, dataset.ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	state, snap, _ := svc.Status()
	if state != dataset.StateLoaded || snap == nil {
		t.Fatalf("failed reload must keep the last snapshot, got %s", state)
	}
}

func TestMerchantLookup(t *testing.T) {
	src := &stubSource{raw: canonicalBytes(t)}
	svc := NewService(src, nil, nil)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	_, name, payload, err := svc.Merchant("")
	if err != nil || name != dataset.DefaultMerchant || payload == nil {
		t.Fatalf("unexpected default merchant %q %v", name, err)
	}
	if _, _, _, err := svc.Merchant("missing"); !errors.Is(err, dataset.ErrMerchantNotFound) {
		t.Fatalf("expected merchant not found, got %v", err)
	}
}

func TestListenForUpdatesReloads(t *testing.T) {
	src := &stubSource{raw: canonicalBytes(t)}
	svc, cache := newTestService(t, src)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.ListenForUpdates(ctx); err != nil {
		t.Fatalf("listen: %v", err)
	}
	if err := cache.Bump(ctx); err != nil {
		t.Fatalf("bump: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if state, _, _ := svc.Status(); state == dataset.StateLoaded {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected reload after bump")
}

func TestBumpOnceDedupesByToken(t *testing.T) {
	_, cache := newTestService(t, &stubSource{})
	ctx := context.Background()

	before, err := cache.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	for i := 0; i < 3; i++ {
		bumped, err := cache.BumpOnce(ctx, "fp-1")
		if err != nil {
			t.Fatalf("bump once: %v", err)
		}
		if bumped != (i == 0) {
			t.Fatalf("call %d: bumped=%v", i, bumped)
		}
	}
	if _, err := cache.BumpOnce(ctx, "fp-2"); err != nil {
		t.Fatalf("bump once: %v", err)
	}
	after, err := cache.Version(ctx)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if after != before+2 {
		t.Fatalf("expected two bumps, version %d -> %d", before, after)
	}
}
