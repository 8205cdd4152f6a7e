package config

import (
	"flag"
	"time"
)

// ToolServerConfig holds configuration for the stdio tool server.
type ToolServerConfig struct {
	StoreURL    string        `env:"TOOLSERVER_STORE"        envDefault:"memory"`
	NWSBaseURL  string        `env:"TOOLSERVER_NWS_BASE_URL" envDefault:"https://api.weather.gov"`
	UserAgent   string        `env:"TOOLSERVER_USER_AGENT"   envDefault:"weather-app/1.0"`
	HTTPTimeout time.Duration `env:"TOOLSERVER_HTTP_TIMEOUT" envDefault:"10s"`
	LogBuffer   int           `env:"TOOLSERVER_LOG_BUFFER"   envDefault:"200"`
	LogLevel    string        `env:"TOOLSERVER_LOG_LEVEL"    envDefault:"info"`
}

// LoadToolServerConfig reads environment variables and then applies command
// line flags on top.
func LoadToolServerConfig(fs *flag.FlagSet, args []string) (ToolServerConfig, error) {
	var cfg ToolServerConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}

	fs.StringVar(&cfg.StoreURL, "store", cfg.StoreURL, "preference store: memory, redis://host:port/db or sqlite://path")
	fs.StringVar(&cfg.NWSBaseURL, "nws", cfg.NWSBaseURL, "National Weather Service API base URL")
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "outbound HTTP timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, nil
}
