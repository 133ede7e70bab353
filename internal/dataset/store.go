package dataset

import (
	"context"
	"encoding/hex"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
)

// State is the load lifecycle of the dashboard.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Snapshot is an immutable, validated dataset ready for rendering.
type Snapshot struct {
	Document    *Document
	Raw         []byte
	Fingerprint string
	Source      string
	LoadedAt    time.Time
}

type status struct {
	state    State
	snapshot *Snapshot
	err      error
}

// Store publishes the current snapshot to concurrent readers.
type Store struct {
	current atomic.Pointer[status]
}

// NewStore returns a store in the loading state.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&status{state: StateLoading})
	return s
}

// Status returns the state with the snapshot or the load error.
func (s *Store) Status() (State, *Snapshot, error) {
	st := s.current.Load()
	return st.state, st.snapshot, st.err
}

// Snapshot returns the published snapshot or ErrNotLoaded.
func (s *Store) Snapshot() (*Snapshot, error) {
	st := s.current.Load()
	if st.state != StateLoaded || st.snapshot == nil {
		return nil, ErrNotLoaded
	}
	return st.snapshot, nil
}

// Publish replaces the current snapshot.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(&status{state: StateLoaded, snapshot: snap})
}

// Fail records a load error. A store that already holds a snapshot keeps it.
func (s *Store) Fail(err error) bool {
	for {
		cur := s.current.Load()
		if cur.state == StateLoaded {
			return false
		}
		if s.current.CompareAndSwap(cur, &status{state: StateFailed, err: err}) {
			return true
		}
	}
}

// Load fetches and decodes a snapshot from src.
func Load(ctx context.Context, src Source, now time.Time) (*Snapshot, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw, src.Name(), now)
}

// FromBytes decodes raw bytes into a snapshot.
func FromBytes(raw []byte, source string, now time.Time) (*Snapshot, error) {
	doc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Document:    doc,
		Raw:         raw,
		Fingerprint: Fingerprint(raw),
		Source:      source,
		LoadedAt:    now,
	}, nil
}

// Fingerprint is a short content hash used for ETags and audit.
func Fingerprint(raw []byte) string {
	sum := blake2b.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}
