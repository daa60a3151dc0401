package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/nmstate/nmstate-go/src/internal/log"
)

const (
	DefaultConfigPath      = "/etc/nmstate/nmstatectl.toml"
	DefaultCheckpointDir   = "/run/nmstate/checkpoints"
	DefaultResolvConfPath  = "/etc/resolv.conf"
	DefaultRollbackTimeout = 60
	DefaultVerifyRetries   = 5
	DefaultVerifyInterval  = 1000
	DefaultListenAddr      = "127.0.0.1:8089"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		General: &GeneralConfig{
			CheckpointDir:      DefaultCheckpointDir,
			ResolvConfPath:     DefaultResolvConfPath,
			RollbackTimeoutSec: DefaultRollbackTimeout,
			VerifyRetries:      DefaultVerifyRetries,
			VerifyIntervalMs:   DefaultVerifyInterval,
		},
		API: &APIConfig{
			ListenAddr:    DefaultListenAddr,
			EnableMetrics: true,
		},
	}
}

// LoadConfig reads a TOML configuration. A missing file is not an error: the
// defaults are returned. Settings absent from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	configFile := filepath.Clean(configPath)

	if !filepath.IsAbs(configFile) {
		if path, err := filepath.Abs(configFile); err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %v", err)
		} else {
			configFile = path
		}
	}

	config := Default()
	config._absConfigFilePath = configFile

	content, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		log.Debugf("Configuration file %s not found, using defaults", configFile)
		return config, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	if err := toml.Unmarshal(content, config); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			log.Errorf("%s", derr.String())
			row, col := derr.Position()
			log.Errorf("Error at line %d, column %d", row, col)
			return nil, fmt.Errorf("failed to parse config file")
		}
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	log.Debugf("Configuration file path: %s", configFile)
	log.Debugf("Checkpoint directory: %s", config.GetAbsCheckpointDir())

	return config, nil
}
