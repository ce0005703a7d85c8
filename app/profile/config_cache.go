package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileDisabled = errors.New("profile disabled")
)

const DefaultPollIntervalMs = 1000

type ConfigCache struct {
	profilesDir           string
	defaultPollIntervalMs int
	cache                 map[string]*Config
	mu                    sync.RWMutex
}

func NewConfigCache(profilesDir string, defaultPollIntervalMs int) *ConfigCache {
	if defaultPollIntervalMs <= 0 {
		defaultPollIntervalMs = DefaultPollIntervalMs
	}
	return &ConfigCache{
		profilesDir:           profilesDir,
		defaultPollIntervalMs: defaultPollIntervalMs,
		cache:                 make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.profilesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.profilesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		name := strings.TrimSuffix(fileName, ".yml")

		config, err := cc.LoadConfig(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Profile loaded", "profile", name, "enabled", config.IsEnabled(), "poll_interval_ms", config.PollIntervalMs, "blacklist", len(config.URLBlacklist))
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(name string) (*Config, error) {
	configFile := cc.getConfigFilePath(name)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	config.Name = name

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

// Set validates and caches a profile that did not come from disk.
func (cc *ConfigCache) Set(config *Config) error {
	cc.applyDefaults(config)
	if err := cc.validateConfig(config); err != nil {
		return fmt.Errorf("invalid profile %s: %w", config.Name, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config
	return nil
}

func (cc *ConfigCache) GetConfig(name string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return config, nil
}

// GetEnabledConfig returns the profile if it exists and is enabled.
func (cc *ConfigCache) GetEnabledConfig(name string) (*Config, error) {
	config, err := cc.GetConfig(name)
	if err != nil {
		return nil, err
	}
	if !config.IsEnabled() {
		return nil, fmt.Errorf("%w: %s", ErrProfileDisabled, name)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cc.applyDefaults(&config)

	return &config, nil
}

func (cc *ConfigCache) applyDefaults(config *Config) {
	if config.PollIntervalMs == 0 {
		config.PollIntervalMs = cc.defaultPollIntervalMs
	}
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	requiredFields := map[string]string{
		"profile name": config.Name,
		"endpoint":     config.Endpoint,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	endpoint, err := url.Parse(config.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if !endpoint.IsAbs() || endpoint.Host == "" {
		return fmt.Errorf("endpoint must be an absolute URL: %s", config.Endpoint)
	}

	if config.PollIntervalMs < 0 {
		return fmt.Errorf("poll interval must be non-negative")
	}

	for i, entry := range config.URLBlacklist {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("url_blacklist entry at index %d is empty", i)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(name string) string {
	return filepath.Join(cc.profilesDir, name+".yml")
}
