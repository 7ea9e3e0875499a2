// Package config resolves callqa's startup configuration from flags,
// CALLQA_* environment variables and an optional config file, in that order
// of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "CALLQA"

	DefaultAPIURL   = "http://localhost:8000"
	DefaultLogLevel = "info"

	maxRequestTimeoutSeconds = 600
)

// Config is read once at startup and passed explicitly to constructors.
type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	LogFile        string
	LogLevel       string
	CallID         string
	IncludeHistory bool
	AltScreen      bool
	Ask            string
	List           bool
	ConfigFile     string
}

// Interactive reports whether the TUI should run.
func (c Config) Interactive() bool {
	return !c.List && strings.TrimSpace(c.Ask) == ""
}

type rawFlags struct {
	apiURL         string
	requestTimeout int
	logFile        string
	logLevel       string
	callID         string
	includeHistory bool
	altScreen      bool
	ask            string
	list           bool
	configFile     string
}

// Load parses args (without the program name). Usage and parse errors are
// written to stderr when it is non-nil.
func Load(args []string, stderr io.Writer) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("request_timeout", 0)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("call_id", "")
	v.SetDefault("history", false)
	v.SetDefault("alt_screen", true)

	var raw rawFlags
	fs := flag.NewFlagSet("callqa", flag.ContinueOnError)
	if stderr != nil {
		fs.SetOutput(stderr)
	}
	fs.StringVar(&raw.apiURL, "api-url", DefaultAPIURL, "Backend origin; /calls is appended (env CALLQA_API_URL)")
	fs.IntVar(&raw.requestTimeout, "request-timeout", 0, "HTTP timeout seconds, 0 disables (env CALLQA_REQUEST_TIMEOUT)")
	fs.StringVar(&raw.logFile, "log-file", "", "JSON log file; logs are discarded when empty (env CALLQA_LOG_FILE)")
	fs.StringVar(&raw.logLevel, "log-level", DefaultLogLevel, "Log level: debug|info|warn|error (env CALLQA_LOG_LEVEL)")
	fs.StringVar(&raw.callID, "call-id", "", "Open this call directly (env CALLQA_CALL_ID)")
	fs.BoolVar(&raw.includeHistory, "history", false, "Start with conversation history enabled (env CALLQA_HISTORY)")
	fs.BoolVar(&raw.altScreen, "alt-screen", true, "Use alternate screen buffer (env CALLQA_ALT_SCREEN)")
	fs.StringVar(&raw.ask, "ask", "", "Ask one question about --call-id and print the answer")
	fs.BoolVar(&raw.list, "list", false, "Print the available calls and exit")
	fs.StringVar(&raw.configFile, "config", "", "Optional config file (yaml, toml or json)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if strings.TrimSpace(raw.configFile) != "" {
		v.SetConfigFile(raw.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", raw.configFile, err)
		}
	}

	pickString := func(flagName, key, flagValue string) string {
		if explicit[flagName] {
			return flagValue
		}
		return v.GetString(key)
	}
	pickInt := func(flagName, key string, flagValue int) int {
		if explicit[flagName] {
			return flagValue
		}
		return v.GetInt(key)
	}
	pickBool := func(flagName, key string, flagValue bool) bool {
		if explicit[flagName] {
			return flagValue
		}
		return v.GetBool(key)
	}

	cfg := Config{
		APIURL:         strings.TrimSpace(pickString("api-url", "api_url", raw.apiURL)),
		LogFile:        strings.TrimSpace(pickString("log-file", "log_file", raw.logFile)),
		LogLevel:       strings.ToLower(strings.TrimSpace(pickString("log-level", "log_level", raw.logLevel))),
		CallID:         strings.TrimSpace(pickString("call-id", "call_id", raw.callID)),
		IncludeHistory: pickBool("history", "history", raw.includeHistory),
		AltScreen:      pickBool("alt-screen", "alt_screen", raw.altScreen),
		Ask:            raw.ask,
		List:           raw.list,
		ConfigFile:     raw.configFile,
	}
	timeoutSeconds := clampInt(pickInt("request-timeout", "request_timeout", raw.requestTimeout), 0, maxRequestTimeoutSeconds)
	cfg.RequestTimeout = time.Duration(timeoutSeconds) * time.Second
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.APIURL == "" {
		return errors.New("api url must not be empty")
	}
	if c.List && strings.TrimSpace(c.Ask) != "" {
		return errors.New("--list and --ask are mutually exclusive")
	}
	if strings.TrimSpace(c.Ask) != "" && c.CallID == "" {
		return errors.New("--ask requires --call-id")
	}
	return nil
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
