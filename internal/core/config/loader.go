package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/coachbook/mover/internal/migration/mutexguard"
	"github.com/coachbook/mover/internal/migration/priority"
	"github.com/coachbook/mover/internal/migration/retry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	def := priority.DefaultConfig()
	if cfg.Priority.CriticalSizeLimit == 0 {
		cfg.Priority.CriticalSizeLimit = def.CriticalSizeLimit
	}
	if cfg.Priority.ImportantSizeLimit == 0 {
		cfg.Priority.ImportantSizeLimit = def.ImportantSizeLimit
	}
	if cfg.Priority.BackgroundAgeThreshold == 0 {
		cfg.Priority.BackgroundAgeThreshold = def.BackgroundAgeThreshold
	}

	mdef := mutexguard.DefaultConfig()
	if cfg.Mutex.DefaultTimeout == 0 {
		cfg.Mutex.DefaultTimeout = mdef.DefaultTimeout
	}
	if cfg.Mutex.MaxQueue == 0 {
		cfg.Mutex.MaxQueue = mdef.MaxQueue
	}

	rdef := retry.DefaultConfig()
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = rdef.MaxAttempts
	}
	if cfg.Retry.InitialDelay == 0 {
		cfg.Retry.InitialDelay = rdef.InitialDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = rdef.MaxDelay
	}

	if cfg.Migration.BackgroundBatchSize == 0 {
		cfg.Migration.BackgroundBatchSize = 25
	}
	if cfg.Migration.IdleInterval == 0 {
		cfg.Migration.IdleInterval = 30 * time.Second
	}
}
