package log

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Level       string
	Format      string
	Environment string
	ServiceName string
	Version     string

	// "stdout", "stderr" or a file path rotated by lumberjack
	OutputPath string

	FileMaxSizeInMB  int
	FileMaxAgeInDays int
	FileMaxBackups   int
	CompressRotated  bool

	DisableCaller     bool
	DisableStacktrace bool
	Sampling          *SamplingConfig
}

type SamplingConfig struct {
	Initial    int
	Thereafter int
	Tick       time.Duration
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log level: %s, must be one of: debug, info, warn, error, fatal", c.Level)
	}

	switch strings.ToLower(c.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'console'", c.Format)
	}

	if c.OutputPath != "stdout" && c.OutputPath != "stderr" {
		if c.FileMaxSizeInMB <= 0 || c.FileMaxAgeInDays <= 0 {
			return fmt.Errorf("file rotation needs positive file_max_size_mb and file_max_age_days")
		}
		if c.FileMaxBackups < 0 {
			return fmt.Errorf("file_max_backups must be greater than or equal to 0")
		}
	}

	if c.Sampling != nil && (c.Sampling.Initial <= 0 || c.Sampling.Thereafter <= 0) {
		return fmt.Errorf("sampling initial and thereafter must be greater than 0")
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Level:            "info",
		Format:           "json",
		Environment:      "local",
		ServiceName:      "identity-service",
		Version:          "1.0.0",
		OutputPath:       "stdout",
		FileMaxSizeInMB:  100,
		FileMaxAgeInDays: 30,
		FileMaxBackups:   10,
		CompressRotated:  true,
	}
}

func DevelopmentConfig() Config {
	config := DefaultConfig()
	config.Level = "debug"
	config.Format = "console"
	return config
}

// ProductionConfig samples repeated entries and drops caller info.
func ProductionConfig(serviceName, version string) Config {
	config := DefaultConfig()
	config.Environment = "prod"
	config.ServiceName = serviceName
	config.Version = version
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.Sampling = &SamplingConfig{Initial: 100, Thereafter: 100}
	return config
}
