package harvest

import (
	"testing"

	"github.com/lysyi3m/timing-comb/app/timing"
)

func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

func newTestNormalizer(t *testing.T, blacklisted ...string) *Normalizer {
	t.Helper()
	bl, err := NewBlacklist("https://shop.example.com/cart", "https://collector.example.com/collect", blacklisted)
	if err != nil {
		t.Fatalf("Failed to create blacklist: %v", err)
	}
	return NewNormalizer(bl)
}

func TestNormalizer_Rounding(t *testing.T) {
	n := newTestNormalizer(t)

	entry := &timing.Entry{
		Name:          "https://cdn.example.com/app.js",
		StartTime:     12.5,
		ConnectStart:  13.49,
		ConnectEnd:    20.51,
		RequestStart:  21.2,
		ResponseStart: 80.7,
		ResponseEnd:   135.956,
		Duration:      123.456,
		InitiatorType: "script",
	}

	record, outcome := n.Inspect(entry, 0)
	if outcome != Emitted {
		t.Fatalf("Expected outcome emitted, got %s", outcome)
	}

	checks := map[string][2]int64{
		"startTime":     {record.StartTime, 13},
		"connectStart":  {record.ConnectStart, 13},
		"connectEnd":    {record.ConnectEnd, 21},
		"requestStart":  {record.RequestStart, 21},
		"responseStart": {record.ResponseStart, 81},
		"responseEnd":   {record.ResponseEnd, 136},
		"duration":      {record.Duration, 123},
	}
	for field, c := range checks {
		if c[0] != c[1] {
			t.Errorf("Expected %s %d, got %d", field, c[1], c[0])
		}
	}
	if record.Name != entry.Name {
		t.Errorf("Expected name %s, got %s", entry.Name, record.Name)
	}
	if record.InitiatorType != "script" {
		t.Errorf("Expected initiator type 'script', got '%s'", record.InitiatorType)
	}
}

func TestNormalizer_ZeroValuesPreserved(t *testing.T) {
	n := newTestNormalizer(t)

	entry := &timing.Entry{
		Name:          "https://cdn.example.com/cached.css",
		ResponseEnd:   4,
		InitiatorType: "link",
	}

	record, outcome := n.Inspect(entry, 3)
	if outcome != Emitted {
		t.Fatalf("Expected outcome emitted, got %s", outcome)
	}
	if record.Duration != 0 || record.ConnectStart != 0 || record.StartTime != 0 {
		t.Errorf("Expected zero fields preserved, got %+v", record)
	}
}

func TestNormalizer_IncompleteEntries(t *testing.T) {
	n := newTestNormalizer(t)

	cases := map[string]*timing.Entry{
		"nil entry":            nil,
		"zero responseEnd":     {Name: "https://cdn.example.com/a.js", Duration: 10},
		"negative responseEnd": {Name: "https://cdn.example.com/a.js", ResponseEnd: -1},
	}

	for name, entry := range cases {
		t.Run(name, func(t *testing.T) {
			if _, outcome := n.Inspect(entry, 0); outcome != Incomplete {
				t.Errorf("Expected outcome incomplete, got %s", outcome)
			}
		})
	}
}

func TestNormalizer_OptionalFieldsProbedPerEntry(t *testing.T) {
	n := newTestNormalizer(t)

	full := complete("https://cdn.example.com/full.js")
	full.TransferSize = floatPtr(1024.4)
	full.EncodedBodySize = floatPtr(0)
	full.DecodedBodySize = floatPtr(4096.6)
	full.NextHopProtocol = stringPtr("h2")

	bare := complete("https://thirdparty.example.net/pixel.gif")

	record, _ := n.Inspect(full, 0)
	if record.TransferSize == nil || *record.TransferSize != 1024 {
		t.Errorf("Expected transferSize 1024, got %v", record.TransferSize)
	}
	if record.EncodedBodySize == nil || *record.EncodedBodySize != 0 {
		t.Errorf("Expected encodedBodySize present as 0, got %v", record.EncodedBodySize)
	}
	if record.DecodedBodySize == nil || *record.DecodedBodySize != 4097 {
		t.Errorf("Expected decodedBodySize 4097, got %v", record.DecodedBodySize)
	}
	if record.Protocol == nil || *record.Protocol != "h2" {
		t.Errorf("Expected protocol 'h2', got %v", record.Protocol)
	}

	record, _ = n.Inspect(bare, 1)
	if record.TransferSize != nil || record.EncodedBodySize != nil || record.DecodedBodySize != nil {
		t.Errorf("Expected size fields absent, got %+v", record)
	}
	if record.Protocol != nil {
		t.Errorf("Expected protocol absent, got %v", *record.Protocol)
	}
}

func TestNormalizer_Blacklisted(t *testing.T) {
	n := newTestNormalizer(t, "https://ads.example.net/track", "beacon")

	cases := []struct {
		name    string
		url     string
		outcome Outcome
	}{
		{"absolute entry", "https://ads.example.net/track", Blacklisted},
		{"relative entry resolved against page", "https://shop.example.com/beacon", Blacklisted},
		{"sink endpoint", "https://collector.example.com/collect", Blacklisted},
		{"host case ignored", "https://ADS.example.net/track", Blacklisted},
		{"query differs", "https://ads.example.net/track?id=1", Emitted},
		{"unrelated", "https://cdn.example.com/app.js", Emitted},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, outcome := n.Inspect(complete(c.url), 0); outcome != c.outcome {
				t.Errorf("Expected outcome %s for %s, got %s", c.outcome, c.url, outcome)
			}
		})
	}
}

func TestNormalizer_IncompleteCheckedBeforeBlacklist(t *testing.T) {
	n := newTestNormalizer(t, "https://ads.example.net/track")

	if _, outcome := n.Inspect(pending("https://ads.example.net/track"), 0); outcome != Incomplete {
		t.Errorf("Expected outcome incomplete, got %s", outcome)
	}
}
