package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/timing.db" description:"Path to the sqlite event store"`

	// Application configuration
	ProfilesDir    string `long:"profiles-dir" env:"PROFILES_DIR" default:"./profiles" description:"Directory containing harvest profile files"`
	Port           string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	PollIntervalMs int    `long:"poll-interval" env:"POLL_INTERVAL_MS" default:"1000" description:"Default poll interval in milliseconds for profiles that do not set one"`
	MaxSessions    int    `long:"max-sessions" env:"MAX_SESSIONS" default:"1000" description:"Maximum number of concurrent sessions (0 = unlimited)"`
	APIAccessKey   string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return Parse(nil)
}

// Parse reads configuration from args (os.Args when nil) and the environment.
func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.PollIntervalMs <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", raw.PollIntervalMs)
	}
	if raw.MaxSessions < 0 {
		return nil, fmt.Errorf("max sessions must be non-negative, got %d", raw.MaxSessions)
	}

	cfg := &Cfg{
		DBPath:         raw.DBPath,
		ProfilesDir:    raw.ProfilesDir,
		Port:           raw.Port,
		PollIntervalMs: raw.PollIntervalMs,
		MaxSessions:    raw.MaxSessions,
		APIAccessKey:   raw.APIAccessKey,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
