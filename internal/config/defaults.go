package config

const (
	defaultStateDir           = "~/.local/share/authmon"
	defaultLogDir             = "~/.local/share/authmon/logs"
	defaultHistoryFile        = "history.db"
	defaultMonitorFile        = "/var/log/auth.log"
	defaultPollIntervalMillis = 500
	defaultMaxFailures        = 3
	defaultActionTimeout      = 30
	defaultMetricsBind        = "127.0.0.1:9477"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// DefaultPatterns are the literal markers PAM, sshd and su write for failed
// authentication attempts.
var DefaultPatterns = []string{
	"authentication failure",
	"Failed password",
	"FAILED SU",
}

// DefaultCommand powers the machine off.
var DefaultCommand = []string{"systemctl", "poweroff"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Monitor: Monitor{
			File:               defaultMonitorFile,
			PollIntervalMillis: defaultPollIntervalMillis,
			MaxFailures:        defaultMaxFailures,
			Patterns:           append([]string(nil), DefaultPatterns...),
		},
		Action: Action{
			Command:        append([]string(nil), DefaultCommand...),
			TimeoutSeconds: defaultActionTimeout,
		},
		History: History{
			Enabled: true,
		},
		Metrics: Metrics{
			Bind: defaultMetricsBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
