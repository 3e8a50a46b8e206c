package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	instance Config
	once     sync.Once
)

// Load reads the given YAML files in order, overlays environment variables
// and validates the result. Only the first call does any work.
func Load(configPaths ...string) (Config, error) {
	var err error
	once.Do(func() {
		cfg := &config{}

		for _, configPath := range configPaths {
			if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
				continue
			}
			if err = cleanenv.ReadConfig(configPath, cfg); err != nil {
				err = fmt.Errorf("failed to read config file %s: %w", configPath, err)
				return
			}
		}

		// Secrets and deployment overrides
		if err = cleanenv.ReadEnv(cfg); err != nil {
			err = fmt.Errorf("failed to read environment variables: %w", err)
			return
		}

		if err = Validate(cfg); err != nil {
			return
		}

		instance = cfg
	})

	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("config failed to load earlier, call Reset() before retrying")
	}

	return instance, nil
}

func MustLoad(configPaths ...string) Config {
	cfg, err := Load(configPaths...)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return cfg
}

func Reset() {
	instance = nil
	once = sync.Once{}
}

func MustGet() Config {
	if instance == nil {
		panic("config not loaded, call Load() first")
	}
	return instance
}
