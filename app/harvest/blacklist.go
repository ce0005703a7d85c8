package harvest

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
}

// Blacklist holds fully-qualified URLs whose timing entries are never emitted.
// The sink endpoint is always part of it so the harvester does not report its
// own uploads.
type Blacklist struct {
	base *url.URL
	urls map[string]struct{}
}

func NewBlacklist(baseURL, endpoint string, urls []string) (*Blacklist, error) {
	b := &Blacklist{urls: make(map[string]struct{}, len(urls)+1)}

	if baseURL != "" {
		base, err := url.Parse(strings.TrimSpace(baseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL: %w", err)
		}
		if !base.IsAbs() {
			return nil, fmt.Errorf("base URL must be absolute: %s", baseURL)
		}
		b.base = base
	}

	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("sink endpoint is required")
	}

	for _, raw := range append(append([]string(nil), urls...), endpoint) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		b.urls[b.Resolve(raw)] = struct{}{}
	}

	return b, nil
}

// Resolve turns a possibly relative URL into the fully-qualified form used for
// comparisons, the way an anchor's href would read back in the page.
func (b *Blacklist) Resolve(raw string) string {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}

	u := ref
	if b.base != nil {
		u = b.base.ResolveReference(ref)
	}

	canonicalize(u)
	return u.String()
}

func (b *Blacklist) Contains(raw string) bool {
	_, ok := b.urls[b.Resolve(raw)]
	return ok
}

func (b *Blacklist) Len() int {
	return len(b.urls)
}

// URLs returns the resolved entries in no particular order.
func (b *Blacklist) URLs() []string {
	out := make([]string, 0, len(b.urls))
	for u := range b.urls {
		out = append(out, u)
	}
	return out
}

func canonicalize(u *url.URL) {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Host == "" {
		return
	}

	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}

	port := u.Port()
	if port == defaultPorts[u.Scheme] {
		port = ""
	}

	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
}
