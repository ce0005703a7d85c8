package session

import (
	"sync"
	"time"

	"github.com/lysyi3m/timing-comb/app/timing"
)

// SnapshotSource holds the latest timing data pushed by a browser agent.
// Every read returns fresh copies, so the harvester never sees the same
// object twice for an entry.
type SnapshotSource struct {
	mu         sync.RWMutex
	resources  []*timing.Entry
	navigation *timing.NavigationSnapshot
	updatedAt  time.Time
}

func NewSnapshotSource() *SnapshotSource {
	return &SnapshotSource{}
}

// SetResources replaces the resource list with the agent's current view.
// A shorter list than before models performance.clearResourceTimings().
func (s *SnapshotSource) SetResources(entries []*timing.Entry) {
	copied := cloneEntries(entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = copied
	s.updatedAt = time.Now()
}

// AppendResources adds entries reported since the agent's last push.
func (s *SnapshotSource) AppendResources(entries []*timing.Entry) int {
	copied := cloneEntries(entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, copied...)
	s.updatedAt = time.Now()
	return len(s.resources)
}

func (s *SnapshotSource) SetNavigation(snapshot *timing.NavigationSnapshot) {
	var copied *timing.NavigationSnapshot
	if snapshot != nil {
		c := *snapshot
		copied = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigation = copied
	s.updatedAt = time.Now()
}

func (s *SnapshotSource) ResourceEntries() []*timing.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntries(s.resources)
}

func (s *SnapshotSource) NavigationSnapshot() *timing.NavigationSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.navigation == nil {
		return nil
	}
	c := *s.navigation
	return &c
}

func (s *SnapshotSource) ResourceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

func (s *SnapshotSource) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

func cloneEntries(entries []*timing.Entry) []*timing.Entry {
	if entries == nil {
		return nil
	}
	out := make([]*timing.Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

var (
	_ timing.ResourceSource   = (*SnapshotSource)(nil)
	_ timing.NavigationSource = (*SnapshotSource)(nil)
)
