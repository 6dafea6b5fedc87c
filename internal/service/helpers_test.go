package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smakiapp/smaki-server/internal/domain"
	"github.com/smakiapp/smaki-server/internal/sse"
	"github.com/smakiapp/smaki-server/internal/store"
	"github.com/smakiapp/smaki-server/internal/store/badgerdb"
	"github.com/smakiapp/smaki-server/internal/store/sqlite"
)

var staff = Actor{Username: "sklep"}

// testNow is 10:00 in Warsaw on 2025-06-10.
var testNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func testClock(t *testing.T) domain.Clock {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	require.NoError(t, err)
	return domain.Clock{Now: func() time.Time { return testNow }, Location: loc}
}

type backend struct {
	name string
	open func(t *testing.T) store.Store
}

var backends = []backend{
	{"sqlite", func(t *testing.T) store.Store {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}},
	{"badger", func(t *testing.T) store.Store {
		s, err := badgerdb.Open(filepath.Join(t.TempDir(), "badger"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}},
}

// forEachBackend runs fn once per store implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, st store.Store)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, b.open(t))
		})
	}
}

// recorder is an Emitter that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recorder) Emit(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []sse.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sse.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// seedFlavor writes a flavor straight to the store.
func seedFlavor(t *testing.T, st store.Store, name string, status domain.FlavorStatus) domain.Flavor {
	t.Helper()
	f := &domain.Flavor{
		Name:      name,
		Slug:      name,
		Type:      domain.FlavorTypeMilk,
		Status:    status,
		Tags:      []domain.Tag{},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, st.CreateFlavor(context.Background(), f))
	return *f
}

func ids(flavors []domain.Flavor) []int64 {
	out := make([]int64, len(flavors))
	for i, f := range flavors {
		out[i] = f.ID
	}
	return out
}
