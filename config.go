package libemit

import (
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const EnvPrefix = "LIBEMIT_"

// Config holds the environment driven defaults for emitters built by applications that
// do not want to wire options by hand.
type Config struct {
	MaxListeners     int    `env:"MAX_LISTENERS"     envDefault:"10"`
	LogLevel         string `env:"LOG_LEVEL"         envDefault:"info"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"libemit"`
}

// LoadConfig reads Config from LIBEMIT_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if cfg.MaxListeners < 0 {
		return Config{}, errors.Errorf("%sMAX_LISTENERS must not be negative, got %d", EnvPrefix, cfg.MaxListeners)
	}
	return cfg, nil
}

// Logger builds a zerolog backed logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}

	z := zerolog.New(w).Level(level).With().Timestamp().Str("lib", "libemit").Logger()
	return NewZerologLogger(z), nil
}

// EmitterOptions translates c into emitter options. Metrics are only collected when reg
// is not nil.
func (c Config) EmitterOptions(log logger, reg prometheus.Registerer) []EmitterOption {
	opts := []EmitterOption{WithMaxListeners(c.MaxListeners)}
	if log != nil {
		opts = append(opts, WithLogger(log))
	}
	if reg != nil {
		opts = append(opts, WithMetrics(NewMetrics(reg, c.MetricsNamespace)))
	}
	return opts
}
