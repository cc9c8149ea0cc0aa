package config

import (
	"fmt"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

var (
	instance Config
	once     sync.Once
	loadErr  error
)

// Load reads the given YAML files in order, overlays environment variables
// and validates the result. Subsequent calls return the first result.
func Load(configPaths ...string) (Config, error) {
	once.Do(func() {
		cfg, err := read(configPaths...)
		if err != nil {
			loadErr = err
			return
		}
		if err := Validate(cfg); err != nil {
			loadErr = err
			return
		}
		instance = cfg
	})

	if loadErr != nil {
		return nil, loadErr
	}
	return instance, nil
}

func read(configPaths ...string) (*config, error) {
	cfg := &config{}

	for _, configPath := range configPaths {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// Secrets only come from the environment
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return cfg, nil
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
	loadErr = nil
	once = sync.Once{}
}

func MustGet() Config {
	if instance == nil {
		panic("config not loaded, call Load() first")
	}
	return instance
}
