package config

import (
	"flag"
	"time"
)

// ProxyConfig holds configuration for the HTTP proxy.
type ProxyConfig struct {
	Addr           string        `env:"TOOLBRIDGE_ADDR"            envDefault:":3000"`
	StaticDir      string        `env:"TOOLBRIDGE_STATIC_DIR"      envDefault:"."`
	ServerPath     string        `env:"TOOLBRIDGE_SERVER_PATH"`
	ServerArgs     []string      `env:"TOOLBRIDGE_SERVER_ARGS"     envSeparator:" "`
	CallTimeout    time.Duration `env:"TOOLBRIDGE_CALL_TIMEOUT"    envDefault:"10s"`
	Shape          string        `env:"TOOLBRIDGE_REQUEST_SHAPE"   envDefault:"mcp"`
	FramingMode    string        `env:"TOOLBRIDGE_FRAMING"         envDefault:"lexical"`
	AllowedOrigins []string      `env:"TOOLBRIDGE_ALLOWED_ORIGINS" envSeparator:","`
	EnableMetrics  bool          `env:"TOOLBRIDGE_METRICS"         envDefault:"true"`
	LogLevel       string        `env:"TOOLBRIDGE_LOG_LEVEL"       envDefault:"info"`
	InProcess      bool          `env:"TOOLBRIDGE_IN_PROCESS"`
	ShutdownGrace  time.Duration `env:"TOOLBRIDGE_SHUTDOWN_GRACE"  envDefault:"10s"`
}

// LoadProxyConfig reads environment variables and then applies command line
// flags on top.
func LoadProxyConfig(fs *flag.FlagSet, args []string) (ProxyConfig, error) {
	var cfg ProxyConfig
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory served for the UI")
	fs.StringVar(&cfg.ServerPath, "server", cfg.ServerPath, "tool server executable")
	fs.DurationVar(&cfg.CallTimeout, "timeout", cfg.CallTimeout, "per-call timeout")
	fs.StringVar(&cfg.Shape, "shape", cfg.Shape, "request shape: mcp or legacy")
	fs.StringVar(&cfg.FramingMode, "framing", cfg.FramingMode, "framing mode: lexical or brace-count")
	fs.BoolVar(&cfg.EnableMetrics, "metrics", cfg.EnableMetrics, "expose /metrics")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.InProcess, "inprocess", cfg.InProcess, "serve the built-in tools in-process instead of spawning the server")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, nil
}
