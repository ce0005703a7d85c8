package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	ProfilesDir    string
	Port           string
	PollIntervalMs int
	MaxSessions    int
	APIAccessKey   string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
