package harvest

import (
	"github.com/lysyi3m/timing-comb/app/timing"
)

type ReporterState int

const (
	Waiting ReporterState = iota
	Reported
)

func (s ReporterState) String() string {
	if s == Reported {
		return "reported"
	}
	return "waiting"
}

// NavigationReporter emits the navigation timing record once the page has
// finished its load event. It reports at most once.
type NavigationReporter struct {
	emit  EmitFunc
	state ReporterState
	ticks int64
}

func NewNavigationReporter(emit EmitFunc) *NavigationReporter {
	return &NavigationReporter{emit: emit}
}

// Tick inspects the snapshot and reports whether the reporter is done.
func (r *NavigationReporter) Tick(snapshot *timing.NavigationSnapshot) bool {
	if r.state == Reported {
		return true
	}
	r.ticks++

	if snapshot == nil || snapshot.LoadEventEnd <= 0 {
		return false
	}

	fields := snapshot.Fields()
	record := timing.NavigationRecord{Timing: make(map[string]int64, len(fields))}
	for _, f := range fields {
		if f.Value == 0 {
			record.Timing[f.Name] = 0
			continue
		}
		record.Timing[f.Name] = timing.Round(f.Value - snapshot.NavigationStart)
	}

	r.state = Reported
	r.emit(timing.EventNavigationTiming, record)
	return true
}

func (r *NavigationReporter) State() ReporterState {
	return r.state
}

func (r *NavigationReporter) Ticks() int64 {
	return r.ticks
}

func (r *NavigationReporter) Reset() {
	r.state = Waiting
	r.ticks = 0
}
