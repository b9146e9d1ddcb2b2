package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	Port             string
	APIAccessKey     string
	WorkerCount      int
	SweepInterval    int
	SecretKeyBase    string
	PushHubURL       string
	BlockedHostsFile string

	// Behavior toggles
	StrictResolutionErrors bool
	Debug                  bool

	// Application metadata
	UserAgent string
	Timezone  string
	Version   string
}
