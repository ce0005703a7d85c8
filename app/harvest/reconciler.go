package harvest

import (
	"log/slog"

	"github.com/lysyi3m/timing-comb/app/timing"
)

// Health is a one-way flag: Healthy may become Errored once per session and
// only Reset brings it back.
type Health int

const (
	Healthy Health = iota
	Errored
)

func (h Health) String() string {
	if h == Errored {
		return "errored"
	}
	return "healthy"
}

// EmitFunc forwards one event payload to the sink.
type EmitFunc func(eventType timing.EventType, payload any)

type ReconcilerStats struct {
	LastInspectedIndex int    `json:"last_inspected_index"`
	PendingRevisits    int    `json:"pending_revisits"`
	Health             string `json:"health"`
	Cycles             int64  `json:"cycles"`
	Emitted            int64  `json:"emitted"`
	Blacklisted        int64  `json:"blacklisted"`
	Truncations        int64  `json:"truncations"`
}

// Reconciler incrementally walks a nominally append-only resource list.
// Entries are tracked by index only: successive reads may return new objects
// for the same logical entry, but index and order stay stable until the list
// is cleared.
//
// Not safe for concurrent use; it is driven from a single timeline.
type Reconciler struct {
	normalizer *Normalizer
	emit       EmitFunc

	lastInspectedIndex int
	incomplete         []int
	health             Health

	cycles      int64
	emitted     int64
	blacklisted int64
	truncations int64
}

func NewReconciler(normalizer *Normalizer, emit EmitFunc) *Reconciler {
	r := &Reconciler{
		normalizer: normalizer,
		emit:       emit,
	}
	r.Reset()
	return r
}

// Reset re-initialises all state, health included.
func (r *Reconciler) Reset() {
	r.lastInspectedIndex = -1
	r.incomplete = nil
	r.health = Healthy
	r.cycles = 0
	r.emitted = 0
	r.blacklisted = 0
	r.truncations = 0
}

// Poll runs one reconciliation cycle over the current list.
func (r *Reconciler) Poll(entries []*timing.Entry) {
	r.cycles++

	if len(entries) < r.lastInspectedIndex+1 {
		r.recoverFromTruncation(len(entries))
	}

	revisit := r.incomplete
	r.incomplete = nil
	for _, index := range revisit {
		r.inspect(entries, index)
	}

	for index := r.lastInspectedIndex + 1; index < len(entries); index++ {
		r.lastInspectedIndex = index
		r.inspect(entries, index)
	}
}

// recoverFromTruncation starts over from index 0. Entries that existed before
// the list was cleared may be re-emitted or missed; that loss is accepted.
func (r *Reconciler) recoverFromTruncation(length int) {
	r.truncations++
	slog.Warn("Resource timing list truncated",
		"length", length,
		"last_inspected_index", r.lastInspectedIndex,
		"pending_revisits", len(r.incomplete))

	if r.health == Healthy {
		r.health = Errored
		r.emit(timing.EventPerformanceStateError, timing.StateError{})
	}

	r.lastInspectedIndex = -1
	r.incomplete = nil
}

func (r *Reconciler) inspect(entries []*timing.Entry, index int) {
	var entry *timing.Entry
	if index < len(entries) {
		entry = entries[index]
	}

	record, outcome := r.normalizer.Inspect(entry, index)
	switch outcome {
	case Emitted:
		r.emitted++
		r.emit(timing.EventResourceTiming, record)
	case Incomplete:
		r.incomplete = append(r.incomplete, index)
	case Blacklisted:
		r.blacklisted++
		slog.Debug("Resource timing entry blacklisted", "index", index, "url", entry.Name)
	}
}

func (r *Reconciler) LastInspectedIndex() int {
	return r.lastInspectedIndex
}

// PendingRevisits returns a copy of the revisit queue in order.
func (r *Reconciler) PendingRevisits() []int {
	return append([]int(nil), r.incomplete...)
}

func (r *Reconciler) Health() Health {
	return r.health
}

func (r *Reconciler) Stats() ReconcilerStats {
	return ReconcilerStats{
		LastInspectedIndex: r.lastInspectedIndex,
		PendingRevisits:    len(r.incomplete),
		Health:             r.health.String(),
		Cycles:             r.cycles,
		Emitted:            r.emitted,
		Blacklisted:        r.blacklisted,
		Truncations:        r.truncations,
	}
}
