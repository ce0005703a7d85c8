package profile

import (
	"time"
)

// Config describes how sessions created under a profile are harvested.
type Config struct {
	Name           string   // Derived from filename (without .yml extension)
	Endpoint       string   `yaml:"endpoint"`      // sink endpoint, always blacklisted
	URLBlacklist   []string `yaml:"url_blacklist"` // absolute or page-relative URLs
	PollIntervalMs int      `yaml:"poll_interval_ms"`
	Enabled        *bool    `yaml:"enabled"`
}

func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
