package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	writeProfile(t, tempDir, "shop", `
endpoint: "https://collector.example.com/collect"
url_blacklist:
  - /beacon
  - https://ads.example.net/pixel.gif
poll_interval_ms: 500
enabled: true
`)

	configCache := NewConfigCache(tempDir, 1000)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 profile, got %d", configCache.GetConfigCount())
	}

	config, err := configCache.GetConfig("shop")
	if err != nil {
		t.Fatal(err)
	}

	if config.Name != "shop" {
		t.Errorf("Expected name 'shop', got '%s'", config.Name)
	}
	if config.Endpoint != "https://collector.example.com/collect" {
		t.Errorf("Expected endpoint 'https://collector.example.com/collect', got '%s'", config.Endpoint)
	}
	if config.PollInterval() != 500*time.Millisecond {
		t.Errorf("Expected poll interval 500ms, got %v", config.PollInterval())
	}
	if len(config.URLBlacklist) != 2 {
		t.Errorf("Expected 2 blacklist entries, got %d", len(config.URLBlacklist))
	}
	if !config.IsEnabled() {
		t.Error("Expected profile to be enabled")
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	writeProfile(t, tempDir, "minimal", `
endpoint: "https://collector.example.com/collect"
`)

	configCache := NewConfigCache(tempDir, 750)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	config, err := configCache.GetConfig("minimal")
	if err != nil {
		t.Fatal(err)
	}

	if config.PollIntervalMs != 750 {
		t.Errorf("Expected default poll interval 750, got %d", config.PollIntervalMs)
	}
	if !config.IsEnabled() {
		t.Error("Expected profile enabled by default")
	}
	if len(config.URLBlacklist) != 0 {
		t.Errorf("Expected empty blacklist, got %v", config.URLBlacklist)
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing endpoint", "poll_interval_ms: 100\n", "endpoint is required"},
		{"relative endpoint", "endpoint: /collect\n", "absolute URL"},
		{"negative interval", "endpoint: https://c.example.com/\npoll_interval_ms: -5\n", "non-negative"},
		{"empty blacklist entry", "endpoint: https://c.example.com/\nurl_blacklist: ['']\n", "index 0 is empty"},
		{"malformed yaml", "endpoint: [unterminated\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeProfile(t, tempDir, "broken", tt.content)

			err := NewConfigCache(tempDir, 1000).Run()
			if err == nil {
				t.Fatal("Expected error for invalid profile")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "absent"), 1000)
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be ignored, got %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected no profiles, got %d", configCache.GetConfigCount())
	}
}

func TestConfigCacheEnabledLookup(t *testing.T) {
	tempDir := t.TempDir()
	writeProfile(t, tempDir, "paused", `
endpoint: "https://collector.example.com/collect"
enabled: false
`)

	configCache := NewConfigCache(tempDir, 1000)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if _, err := configCache.GetEnabledConfig("paused"); !errors.Is(err, ErrProfileDisabled) {
		t.Errorf("Expected ErrProfileDisabled, got %v", err)
	}
	if _, err := configCache.GetEnabledConfig("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
	if _, err := configCache.GetConfig("paused"); err != nil {
		t.Errorf("Expected disabled profile still listed, got %v", err)
	}
}

func TestConfigCacheSet(t *testing.T) {
	configCache := NewConfigCache(t.TempDir(), 0)

	if err := configCache.Set(&Config{Name: "inline", Endpoint: "https://collector.example.com/collect"}); err != nil {
		t.Fatalf("Failed to set profile: %v", err)
	}
	config, err := configCache.GetConfig("inline")
	if err != nil {
		t.Fatal(err)
	}
	if config.PollIntervalMs != DefaultPollIntervalMs {
		t.Errorf("Expected default poll interval %d, got %d", DefaultPollIntervalMs, config.PollIntervalMs)
	}

	if err := configCache.Set(&Config{Name: "bad"}); err == nil {
		t.Error("Expected error for profile without endpoint")
	}
	if len(configCache.GetConfigs()) != 1 {
		t.Errorf("Expected 1 profile, got %d", len(configCache.GetConfigs()))
	}
}
