package log

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config drives NewZapLogger. OutputPath is a comma separated list of
// "stdout", "stderr" or file paths; files are rotated by lumberjack.
type Config struct {
	Level       string
	Format      string
	Environment string
	ServiceName string
	Version     string

	OutputPath string

	FileMaxSizeInMB  int
	FileMaxAgeInDays int
	FileMaxBackups   int
	CompressRotated  bool

	DisableCaller     bool
	DisableStacktrace bool
	SamplingConfig    *SamplingConfig

	InitialFields map[string]any
}

type SamplingConfig struct {
	Initial    int
	Thereafter int
	Tick       time.Duration
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Level))
	}

	switch strings.ToLower(c.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q, must be json or console", c.Format))
	}

	if c.writesToFile() {
		if c.FileMaxSizeInMB <= 0 {
			errs = append(errs, errors.New("file_max_size_mb must be greater than 0"))
		}
		if c.FileMaxAgeInDays <= 0 {
			errs = append(errs, errors.New("file_max_age_days must be greater than 0"))
		}
		if c.FileMaxBackups < 0 {
			errs = append(errs, errors.New("file_max_backups must not be negative"))
		}
	}

	if s := c.SamplingConfig; s != nil && (s.Initial <= 0 || s.Thereafter <= 0) {
		errs = append(errs, errors.New("sampling initial and thereafter must be greater than 0"))
	}

	return errors.Join(errs...)
}

func (c *Config) writesToFile() bool {
	for _, out := range strings.Split(c.OutputPath, ",") {
		switch strings.TrimSpace(out) {
		case "", "stdout", "stderr":
		default:
			return true
		}
	}
	return false
}

func DefaultConfig() Config {
	return Config{
		Level:            "info",
		Format:           "json",
		Environment:      "development",
		ServiceName:      "auction-market",
		Version:          "dev",
		OutputPath:       "stdout",
		FileMaxSizeInMB:  100,
		FileMaxAgeInDays: 30,
		FileMaxBackups:   10,
		CompressRotated:  true,
		InitialFields:    map[string]any{},
	}
}

// DevelopmentConfig logs everything in a human readable form.
func DevelopmentConfig() Config {
	config := DefaultConfig()
	config.Level = "debug"
	config.Format = "console"
	return config
}

// ProductionConfig emits sampled JSON: per second, the first 100 identical
// messages are kept, then one in every 100.
func ProductionConfig(serviceName, version string) Config {
	config := DefaultConfig()
	config.Environment = "production"
	config.ServiceName = serviceName
	config.Version = version
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.SamplingConfig = &SamplingConfig{
		Initial:    100,
		Thereafter: 100,
		Tick:       time.Second,
	}
	return config
}
