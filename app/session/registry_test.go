package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lysyi3m/timing-comb/app/metrics"
	"github.com/lysyi3m/timing-comb/app/profile"
	"github.com/lysyi3m/timing-comb/app/tasks"
	"github.com/lysyi3m/timing-comb/app/timing"
)

func newTestProfiles(t *testing.T) *profile.ConfigCache {
	t.Helper()
	cache := profile.NewConfigCache(t.TempDir(), 1000)
	disabled := false

	for _, cfg := range []*profile.Config{
		{Name: "default", Endpoint: "https://collector.example.com/collect", URLBlacklist: []string{"/beacon"}},
		{Name: "paused", Endpoint: "https://collector.example.com/collect", Enabled: &disabled},
	} {
		if err := cache.Set(cfg); err != nil {
			t.Fatalf("Failed to set profile %s: %v", cfg.Name, err)
		}
	}
	return cache
}

func newTestRegistry(t *testing.T, maxSessions int) (*Registry, *tasks.ManualClock) {
	t.Helper()
	clock := tasks.NewManualClock(time.Unix(1700000000, 0))
	r := NewRegistry(newTestProfiles(t), &recordingSink{}, clock, nil, maxSessions)
	t.Cleanup(r.Close)
	return r, clock
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t, 10)

	s, err := r.Create(CreateOptions{
		Profile:      "default",
		PageURL:      "https://shop.example.com/",
		Capabilities: Capabilities{ResourceTiming: true, NavigationTiming: true},
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if s.ID == "" {
		t.Fatal("Expected session ID")
	}
	if !s.Harvester.Active() {
		t.Error("Expected harvester to be active")
	}

	got, err := r.Get(s.ID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got != s {
		t.Error("Expected the same session back")
	}
	if r.Count() != 1 {
		t.Errorf("Expected 1 session, got %d", r.Count())
	}
}

func TestRegistry_CreateErrors(t *testing.T) {
	r, _ := newTestRegistry(t, 10)

	tests := []struct {
		name string
		opts CreateOptions
		want error
	}{
		{"unknown profile", CreateOptions{Profile: "missing", PageURL: "https://shop.example.com/"}, profile.ErrProfileNotFound},
		{"disabled profile", CreateOptions{Profile: "paused", PageURL: "https://shop.example.com/"}, profile.ErrProfileDisabled},
		{"relative page url", CreateOptions{Profile: "default", PageURL: "/cart"}, ErrInvalidPageURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if r.Count() != 0 {
		t.Errorf("Expected no sessions, got %d", r.Count())
	}
}

func TestRegistry_MaxSessions(t *testing.T) {
	r, _ := newTestRegistry(t, 1)
	opts := CreateOptions{Profile: "default", PageURL: "https://shop.example.com/"}

	if _, err := r.Create(opts); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if _, err := r.Create(opts); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("Expected ErrTooManySessions, got %v", err)
	}
}

func TestRegistry_DeleteTearsDown(t *testing.T) {
	r, clock := newTestRegistry(t, 10)

	s, err := r.Create(CreateOptions{
		Profile:      "default",
		PageURL:      "https://shop.example.com/",
		Capabilities: Capabilities{ResourceTiming: true},
	})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := r.Delete(s.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if s.Harvester.Active() {
		t.Error("Expected harvester torn down")
	}
	if clock.Armed() != 0 {
		t.Errorf("Expected no armed timers, got %d", clock.Armed())
	}
	if _, err := r.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := r.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestRegistry_ListOrderedByCreation(t *testing.T) {
	r, clock := newTestRegistry(t, 10)
	opts := CreateOptions{Profile: "default", PageURL: "https://shop.example.com/"}

	var ids []string
	for i := 0; i < 3; i++ {
		s, err := r.Create(opts)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		ids = append(ids, s.ID)
		clock.Advance(time.Millisecond)
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(list))
	}
	for i, s := range list {
		if s.ID != ids[i] {
			t.Errorf("Expected session %d to be %s, got %s", i, ids[i], s.ID)
		}
	}
}

func TestRegistry_ActiveSessionsGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := metrics.NewPromObs(reg)
	clock := tasks.NewManualClock(time.Unix(1700000000, 0))
	r := NewRegistry(newTestProfiles(t), &recordingSink{}, clock, obs, 0)
	opts := CreateOptions{Profile: "default", PageURL: "https://shop.example.com/"}

	first, _ := r.Create(opts)
	r.Create(opts)

	const expected = `
# HELP timing_active_sessions Sessions with an active harvester.
# TYPE timing_active_sessions gauge
timing_active_sessions 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), metrics.ActiveSessions); err != nil {
		t.Errorf("Unexpected gauge: %v", err)
	}

	r.Delete(first.ID)
	r.Close()

	if _, err := r.Create(opts); !errors.Is(err, ErrRegistryShutdown) {
		t.Errorf("Expected ErrRegistryShutdown, got %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Expected no sessions after close, got %d", r.Count())
	}
}

func TestSnapshotSource_ReturnsFreshCopies(t *testing.T) {
	src := NewSnapshotSource()
	src.SetResources([]*timing.Entry{entry("https://cdn.example.com/a.js", 10)})

	first := src.ResourceEntries()
	second := src.ResourceEntries()
	if first[0] == second[0] {
		t.Error("Expected a new object on every read")
	}

	first[0].ResponseEnd = 0
	if src.ResourceEntries()[0].ResponseEnd != 10 {
		t.Error("Expected stored entries isolated from callers")
	}

	if n := src.AppendResources([]*timing.Entry{nil}); n != 2 {
		t.Errorf("Expected 2 entries after append, got %d", n)
	}
	if src.ResourceEntries()[1] != nil {
		t.Error("Expected absent entry preserved as nil")
	}

	if src.NavigationSnapshot() != nil {
		t.Error("Expected no navigation snapshot yet")
	}
	src.SetNavigation(loadedPage())
	if src.NavigationSnapshot() == src.NavigationSnapshot() {
		t.Error("Expected a new navigation snapshot on every read")
	}
}
