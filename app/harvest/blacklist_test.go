package harvest

import (
	"testing"
)

func TestBlacklist_Resolve(t *testing.T) {
	bl, err := NewBlacklist("https://shop.example.com/products/list?page=2", "https://collector.example.com/collect", nil)
	if err != nil {
		t.Fatalf("Failed to create blacklist: %v", err)
	}

	cases := map[string]string{
		"/beacon":                          "https://shop.example.com/beacon",
		"beacon":                           "https://shop.example.com/products/beacon",
		"../img/logo.png":                  "https://shop.example.com/img/logo.png",
		"//cdn.example.com/lib.js":         "https://cdn.example.com/lib.js",
		"HTTPS://CDN.Example.com/Lib.js":   "https://cdn.example.com/Lib.js",
		"https://cdn.example.com:443/a.js": "https://cdn.example.com/a.js",
		"http://cdn.example.com:8080/a.js": "http://cdn.example.com:8080/a.js",
		"https://cdn.example.com":          "https://cdn.example.com/",
		"https://bücher.example/cover.jpg": "https://xn--bcher-kva.example/cover.jpg",
	}

	for in, want := range cases {
		if got := bl.Resolve(in); got != want {
			t.Errorf("Resolve(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBlacklist_EndpointAlwaysIncluded(t *testing.T) {
	bl, err := NewBlacklist("", "https://collector.example.com/collect", []string{"https://ads.example.net/px"})
	if err != nil {
		t.Fatalf("Failed to create blacklist: %v", err)
	}

	if bl.Len() != 2 {
		t.Errorf("Expected 2 blacklisted URLs, got %d", bl.Len())
	}
	if !bl.Contains("https://collector.example.com/collect") {
		t.Error("Expected sink endpoint to be blacklisted")
	}
	if !bl.Contains("https://ads.example.net/px") {
		t.Error("Expected configured URL to be blacklisted")
	}
}

func TestBlacklist_SkipsEmptyEntries(t *testing.T) {
	bl, err := NewBlacklist("https://shop.example.com/", "https://collector.example.com/collect", []string{"", "  "})
	if err != nil {
		t.Fatalf("Failed to create blacklist: %v", err)
	}
	if bl.Len() != 1 {
		t.Errorf("Expected only the endpoint, got %v", bl.URLs())
	}
}

func TestBlacklist_Errors(t *testing.T) {
	if _, err := NewBlacklist("https://shop.example.com/", "", nil); err == nil {
		t.Error("Expected error for missing sink endpoint")
	}
	if _, err := NewBlacklist("/relative/page", "https://collector.example.com/collect", nil); err == nil {
		t.Error("Expected error for relative base URL")
	}
	if _, err := NewBlacklist("https://shop.example.com/%zz", "https://collector.example.com/collect", nil); err == nil {
		t.Error("Expected error for malformed base URL")
	}
}
