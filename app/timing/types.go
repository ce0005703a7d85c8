package timing

import (
	"math"
	"time"
)

// Resource and navigation timing types as reported by the browser.
// Wire names follow the Performance API (camelCase) so agents can post
// performance.getEntriesByType("resource") and performance.timing verbatim.

type Entry struct {
	Name          string  `json:"name"`
	StartTime     float64 `json:"startTime"`
	ConnectStart  float64 `json:"connectStart"`
	ConnectEnd    float64 `json:"connectEnd"`
	RequestStart  float64 `json:"requestStart"`
	ResponseStart float64 `json:"responseStart"`
	ResponseEnd   float64 `json:"responseEnd"`
	Duration      float64 `json:"duration"`
	InitiatorType string  `json:"initiatorType"`

	// Not every browser exposes these, and exposure can differ per entry
	// (e.g. cross-origin resources without Timing-Allow-Origin).
	TransferSize    *float64 `json:"transferSize,omitempty"`
	EncodedBodySize *float64 `json:"encodedBodySize,omitempty"`
	DecodedBodySize *float64 `json:"decodedBodySize,omitempty"`
	NextHopProtocol *string  `json:"nextHopProtocol,omitempty"`
}

// Complete reports whether the browser has finished loading the resource.
// responseEnd is the only completeness signal; zero in any other field is a
// legitimate measurement.
func (e *Entry) Complete() bool {
	return e != nil && e.ResponseEnd > 0
}

// Clone returns a deep copy, optional fields included.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	c.TransferSize = cloneFloat(e.TransferSize)
	c.EncodedBodySize = cloneFloat(e.EncodedBodySize)
	c.DecodedBodySize = cloneFloat(e.DecodedBodySize)
	if e.NextHopProtocol != nil {
		p := *e.NextHopProtocol
		c.NextHopProtocol = &p
	}
	return &c
}

type NavigationSnapshot struct {
	NavigationStart            float64 `json:"navigationStart"`
	UnloadEventStart           float64 `json:"unloadEventStart"`
	UnloadEventEnd             float64 `json:"unloadEventEnd"`
	RedirectStart              float64 `json:"redirectStart"`
	RedirectEnd                float64 `json:"redirectEnd"`
	FetchStart                 float64 `json:"fetchStart"`
	DomainLookupStart          float64 `json:"domainLookupStart"`
	DomainLookupEnd            float64 `json:"domainLookupEnd"`
	ConnectStart               float64 `json:"connectStart"`
	ConnectEnd                 float64 `json:"connectEnd"`
	SecureConnectionStart      float64 `json:"secureConnectionStart"`
	RequestStart               float64 `json:"requestStart"`
	ResponseStart              float64 `json:"responseStart"`
	ResponseEnd                float64 `json:"responseEnd"`
	DomLoading                 float64 `json:"domLoading"`
	DomInteractive             float64 `json:"domInteractive"`
	DomContentLoadedEventStart float64 `json:"domContentLoadedEventStart"`
	DomContentLoadedEventEnd   float64 `json:"domContentLoadedEventEnd"`
	DomComplete                float64 `json:"domComplete"`
	LoadEventStart             float64 `json:"loadEventStart"`
	LoadEventEnd               float64 `json:"loadEventEnd"`
}

type Field struct {
	Name  string
	Value float64
}

// Fields returns every milestone in PerformanceTiming order.
func (n *NavigationSnapshot) Fields() []Field {
	return []Field{
		{"navigationStart", n.NavigationStart},
		{"unloadEventStart", n.UnloadEventStart},
		{"unloadEventEnd", n.UnloadEventEnd},
		{"redirectStart", n.RedirectStart},
		{"redirectEnd", n.RedirectEnd},
		{"fetchStart", n.FetchStart},
		{"domainLookupStart", n.DomainLookupStart},
		{"domainLookupEnd", n.DomainLookupEnd},
		{"connectStart", n.ConnectStart},
		{"connectEnd", n.ConnectEnd},
		{"secureConnectionStart", n.SecureConnectionStart},
		{"requestStart", n.RequestStart},
		{"responseStart", n.ResponseStart},
		{"responseEnd", n.ResponseEnd},
		{"domLoading", n.DomLoading},
		{"domInteractive", n.DomInteractive},
		{"domContentLoadedEventStart", n.DomContentLoadedEventStart},
		{"domContentLoadedEventEnd", n.DomContentLoadedEventEnd},
		{"domComplete", n.DomComplete},
		{"loadEventStart", n.LoadEventStart},
		{"loadEventEnd", n.LoadEventEnd},
	}
}

// Record is a normalized resource timing entry.
type Record struct {
	Name          string `json:"name"`
	StartTime     int64  `json:"startTime"`
	ConnectStart  int64  `json:"connectStart"`
	ConnectEnd    int64  `json:"connectEnd"`
	RequestStart  int64  `json:"requestStart"`
	ResponseStart int64  `json:"responseStart"`
	ResponseEnd   int64  `json:"responseEnd"`
	Duration      int64  `json:"duration"`
	InitiatorType string `json:"initiatorType"`

	TransferSize    *int64  `json:"transferSize,omitempty"`
	EncodedBodySize *int64  `json:"encodedBodySize,omitempty"`
	DecodedBodySize *int64  `json:"decodedBodySize,omitempty"`
	Protocol        *string `json:"protocol,omitempty"`
}

type NavigationRecord struct {
	Timing map[string]int64 `json:"timing"`
}

// StateError signals that the resource list shrank underneath the harvester.
type StateError struct{}

type EventType string

const (
	EventNavigationTiming      EventType = "NavigationTiming"
	EventResourceTiming        EventType = "ResourceTiming"
	EventPerformanceStateError EventType = "PerformanceStateError"
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Profile   string    `json:"profile"`
	Payload   any       `json:"payload"`
	At        time.Time `json:"at"`
}

// Sink receives emitted events. Implementations deal with their own failures;
// nothing is propagated back into the poll cycle.
type Sink interface {
	Emit(evt Event)
}

// ResourceSource supplies the current resource timing list. Elements may be
// nil when the platform reports an absent entry at that index.
type ResourceSource interface {
	ResourceEntries() []*Entry
}

// NavigationSource supplies the navigation timing snapshot, or nil when the
// page has not reported one yet.
type NavigationSource interface {
	NavigationSnapshot() *NavigationSnapshot
}

// Round matches the browser's Math.round: halves round towards +Inf.
func Round(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
