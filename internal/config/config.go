package config

import (
	"flag"
	"os"
	"path"
	"time"
)

// Config describes the client configuration.
type Config struct {
	APIBaseURL       string        // base address of the remote shortening API
	ListenAddress    string        // address the stub server listens on
	FileStoragePath  string        // path to the file-backed cache journal
	BadgerPath       string        // directory of the embedded database cache
	LogLevel         string        // zap level name
	AuthCheckTimeout time.Duration // bound on the startup identity check
	DemoMode         bool          // run without a backend
}

const (
	defaultAPIBaseURL       = "http://localhost:8080"
	defaultListenAddress    = ":8080"
	defaultLogLevel         = "info"
	defaultAuthCheckTimeout = 10 * time.Second
)

var defaultBadgerPath = path.Join(os.TempDir(), "shortener-cache")

// Environment defines access to environment variables.
type Environment interface {
	LookupEnv(key string) (string, bool)
}

// New creates a configuration with default settings.
func New() Config {
	return Config{
		APIBaseURL:       defaultAPIBaseURL,
		ListenAddress:    defaultListenAddress,
		BadgerPath:       defaultBadgerPath,
		LogLevel:         defaultLogLevel,
		AuthCheckTimeout: defaultAuthCheckTimeout,
	}
}

// FromArgs fills configuration parameters from command-line arguments and
// returns the positional arguments that follow the flags.
func (conf Config) FromArgs(args []string) (Config, []string) {
	flagSet := flag.NewFlagSet("", flag.PanicOnError)
	flagSet.StringVar(&conf.APIBaseURL, "a", conf.APIBaseURL, "API base URL")
	flagSet.StringVar(&conf.ListenAddress, "s", conf.ListenAddress, "listen address")
	flagSet.StringVar(&conf.FileStoragePath, "f", conf.FileStoragePath, "file storage path")
	flagSet.StringVar(&conf.BadgerPath, "d", conf.BadgerPath, "embedded database path")
	flagSet.StringVar(&conf.LogLevel, "l", conf.LogLevel, "log level")
	flagSet.DurationVar(&conf.AuthCheckTimeout, "t", conf.AuthCheckTimeout, "auth check timeout")
	flagSet.BoolVar(&conf.DemoMode, "demo", conf.DemoMode, "run without a backend")

	_ = flagSet.Parse(args[1:]) // exclude command name
	return conf, flagSet.Args()
}

// FromEnv fills configuration parameters from environment variables.
func (conf Config) FromEnv(env Environment) Config {
	if baseURL, ok := env.LookupEnv("API_BASE_URL"); ok {
		conf.APIBaseURL = baseURL
	}

	if listenAddr, ok := env.LookupEnv("LISTEN_ADDRESS"); ok {
		conf.ListenAddress = listenAddr
	}

	if filePath, ok := env.LookupEnv("FILE_STORAGE_PATH"); ok {
		conf.FileStoragePath = filePath
	}

	if badgerPath, ok := env.LookupEnv("BADGER_PATH"); ok {
		conf.BadgerPath = badgerPath
	}

	if level, ok := env.LookupEnv("LOG_LEVEL"); ok {
		conf.LogLevel = level
	}

	if timeout, ok := env.LookupEnv("AUTH_CHECK_TIMEOUT"); ok {
		if d, err := time.ParseDuration(timeout); err == nil {
			conf.AuthCheckTimeout = d
		}
	}

	return conf
}
