// Package config handles the nmstatectl configuration file.
//
// The file is TOML and optional; every setting has a default:
//
//	[general]
//	checkpoint_dir = "/run/nmstate/checkpoints"
//	resolv_conf_path = "/etc/resolv.conf"
//	rollback_timeout_sec = 60
//	kernel_only = true
//	verify_retries = 5
//	verify_interval_ms = 1000
//
//	[api]
//	listen_addr = "127.0.0.1:8089"
//	enable_metrics = true
//
// Relative paths are resolved against the directory of the file.
//
//	cfg, err := config.LoadConfig(config.DefaultConfigPath)
//	if err != nil {
//	    log.Fatalf("%v", err)
//	}
//	if err := cfg.ValidateConfig(); err != nil {
//	    log.Fatalf("%v", err)
//	}
package config
