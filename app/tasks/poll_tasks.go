package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/timing-comb/app/harvest"
	"github.com/lysyi3m/timing-comb/app/metrics"
	"github.com/lysyi3m/timing-comb/app/timing"
)

type ResourcePollTask struct {
	Task
	source     timing.ResourceSource
	reconciler *harvest.Reconciler
	interval   time.Duration
	obs        metrics.Observability
}

func NewResourcePollTask(sessionID string, source timing.ResourceSource, reconciler *harvest.Reconciler, interval time.Duration, obs metrics.Observability) *ResourcePollTask {
	return &ResourcePollTask{
		Task:       NewTask(TaskTypePollResources, sessionID),
		source:     source,
		reconciler: reconciler,
		interval:   interval,
		obs:        obs,
	}
}

func (t *ResourcePollTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	start := time.Now()
	entries := t.source.ResourceEntries()
	t.reconciler.Poll(entries)

	t.obs.IncCounter(metrics.PollCyclesTotal, 1)
	t.obs.ObserveLatency(metrics.PollDurationSeconds, time.Since(start).Seconds())

	stats := t.reconciler.Stats()
	slog.Debug("Task completed",
		"type", string(t.GetType()),
		"session", t.SessionID,
		"duration", t.GetDuration(),
		"entries", len(entries),
		"last_inspected_index", stats.LastInspectedIndex,
		"pending_revisits", stats.PendingRevisits)

	return nil
}

func (t *ResourcePollTask) Interval() time.Duration {
	return t.interval
}

// Done is always false; the resource poller runs until teardown.
func (t *ResourcePollTask) Done() bool {
	return false
}

type NavigationPollTask struct {
	Task
	source   timing.NavigationSource
	reporter *harvest.NavigationReporter
	interval time.Duration
	done     bool
}

func NewNavigationPollTask(sessionID string, source timing.NavigationSource, reporter *harvest.NavigationReporter, interval time.Duration) *NavigationPollTask {
	return &NavigationPollTask{
		Task:     NewTask(TaskTypePollNavigation, sessionID),
		source:   source,
		reporter: reporter,
		interval: interval,
	}
}

func (t *NavigationPollTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.done = t.reporter.Tick(t.source.NavigationSnapshot())
	if t.done {
		slog.Debug("Task completed",
			"type", string(t.GetType()),
			"session", t.SessionID,
			"ticks", t.reporter.Ticks())
	}

	return nil
}

func (t *NavigationPollTask) Interval() time.Duration {
	return t.interval
}

func (t *NavigationPollTask) Done() bool {
	return t.done
}
