package harvest

import (
	"github.com/lysyi3m/timing-comb/app/timing"
)

type Outcome int

const (
	// Emitted means a record was produced.
	Emitted Outcome = iota
	// Incomplete means the entry is absent or still loading; the caller must revisit its index.
	Incomplete
	// Blacklisted means the entry is finished but excluded; it is never reconsidered.
	Blacklisted
)

func (o Outcome) String() string {
	switch o {
	case Emitted:
		return "emitted"
	case Incomplete:
		return "incomplete"
	case Blacklisted:
		return "blacklisted"
	default:
		return "unknown"
	}
}

type Normalizer struct {
	blacklist *Blacklist
}

func NewNormalizer(blacklist *Blacklist) *Normalizer {
	return &Normalizer{blacklist: blacklist}
}

func (n *Normalizer) Inspect(entry *timing.Entry, index int) (timing.Record, Outcome) {
	if !entry.Complete() {
		return timing.Record{}, Incomplete
	}

	if n.blacklist != nil && n.blacklist.Contains(entry.Name) {
		return timing.Record{}, Blacklisted
	}

	record := timing.Record{
		Name:          entry.Name,
		StartTime:     timing.Round(entry.StartTime),
		ConnectStart:  timing.Round(entry.ConnectStart),
		ConnectEnd:    timing.Round(entry.ConnectEnd),
		RequestStart:  timing.Round(entry.RequestStart),
		ResponseStart: timing.Round(entry.ResponseStart),
		ResponseEnd:   timing.Round(entry.ResponseEnd),
		Duration:      timing.Round(entry.Duration),
		InitiatorType: entry.InitiatorType,

		TransferSize:    roundOptional(entry.TransferSize),
		EncodedBodySize: roundOptional(entry.EncodedBodySize),
		DecodedBodySize: roundOptional(entry.DecodedBodySize),
	}

	if entry.NextHopProtocol != nil {
		protocol := *entry.NextHopProtocol
		record.Protocol = &protocol
	}

	return record, Emitted
}

func roundOptional(v *float64) *int64 {
	if v == nil {
		return nil
	}
	r := timing.Round(*v)
	return &r
}
