package config

import (
	"path/filepath"
	"time"
)

type Config struct {
	// General holds the library settings.
	General *GeneralConfig `toml:"general" json:"general"`
	// API holds the HTTP service settings used by "nmstatectl service".
	API *APIConfig `toml:"api" json:"api"`

	_absConfigFilePath string
}

type GeneralConfig struct {
	// CheckpointDir persists checkpoints so another process can commit or roll them back.
	CheckpointDir string `toml:"checkpoint_dir" json:"checkpoint_dir" validate:"required"`
	// ResolvConfPath is the file DNS configuration is read from and written to.
	ResolvConfPath string `toml:"resolv_conf_path" json:"resolv_conf_path" validate:"required"`
	// RollbackTimeoutSec is the default checkpoint timeout (default: 60).
	RollbackTimeoutSec uint32 `toml:"rollback_timeout_sec" json:"rollback_timeout_sec" validate:"min=1,max=86400"`
	// KernelOnly skips backends other than the kernel.
	KernelOnly bool `toml:"kernel_only" json:"kernel_only"`
	// VerifyRetries is how many times the applied state is compared with the desired one (default: 5).
	VerifyRetries int `toml:"verify_retries" json:"verify_retries" validate:"min=1,max=100"`
	// VerifyIntervalMs is the pause between verification attempts (default: 1000).
	VerifyIntervalMs int `toml:"verify_interval_ms" json:"verify_interval_ms" validate:"min=1,max=60000"`
}

type APIConfig struct {
	// ListenAddr is the host:port the HTTP API listens on (default: 127.0.0.1:8089).
	ListenAddr string `toml:"listen_addr" json:"listen_addr" validate:"required,hostport_or_empty"`
	// EnableMetrics exposes Prometheus metrics on /metrics (default: true).
	EnableMetrics bool `toml:"enable_metrics" json:"enable_metrics"`
}

func (c *Config) GetConfigDir() string {
	return filepath.Dir(c._absConfigFilePath)
}

// GetAbsCheckpointDir resolves checkpoint_dir against the config file directory.
func (c *Config) GetAbsCheckpointDir() string {
	if filepath.IsAbs(c.General.CheckpointDir) {
		return c.General.CheckpointDir
	}
	return filepath.Join(c.GetConfigDir(), c.General.CheckpointDir)
}

func (g *GeneralConfig) RollbackTimeout() time.Duration {
	return time.Duration(g.RollbackTimeoutSec) * time.Second
}

func (g *GeneralConfig) VerifyInterval() time.Duration {
	return time.Duration(g.VerifyIntervalMs) * time.Millisecond
}
