package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg)

	obs.IncCounter(ResourceRecordsTotal, 5)
	if got := testutil.ToFloat64(obs.counters[ResourceRecordsTotal]); got != 5 {
		t.Fatalf("expected resource counter 5, got %f", got)
	}

	obs.IncCounter(StateErrorsTotal, 1)
	if got := testutil.ToFloat64(obs.counters[StateErrorsTotal]); got != 1 {
		t.Fatalf("expected state error counter 1, got %f", got)
	}

	obs.SetGauge(ActiveSessions, 3)
	if got := testutil.ToFloat64(obs.gauges[ActiveSessions]); got != 3 {
		t.Fatalf("expected sessions gauge 3, got %f", got)
	}

	obs.ObserveLatency(PollDurationSeconds, 0.002)
	hCollector := obs.histos[PollDurationSeconds].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.IncCounter("unknown_metric", 1)
	if n, err := testutil.GatherAndCount(reg); err != nil || n != 7 {
		t.Fatalf("expected 7 registered metrics, got %d (err=%v)", n, err)
	}
}

func TestPromObsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPromObs(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	NewPromObs(reg)
}
