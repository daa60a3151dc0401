package config

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"sync"

	"github.com/nmstate/nmstate-go/src/internal/log"
)

// ConfigHasher tracks the MD5 of the configuration file on disk and of the
// one the running service loaded, so the service can report that a restart
// is needed.
type ConfigHasher struct {
	configPath string
	activeHash string

	mu sync.RWMutex
}

// NewConfigHasher creates a new config hasher
func NewConfigHasher(configPath string) *ConfigHasher {
	return &ConfigHasher{
		configPath: configPath,
	}
}

// GetCurrentConfigHash hashes the file as it is now. A missing file hashes
// as empty content.
func (h *ConfigHasher) GetCurrentConfigHash() (string, error) {
	sum := md5.New()
	file, err := os.Open(h.configPath)
	if os.IsNotExist(err) {
		return hex.EncodeToString(sum.Sum(nil)), nil
	} else if err != nil {
		return "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warnf("Failed to close %s: %v", h.configPath, err)
		}
	}()

	if _, err := io.Copy(sum, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// GetActiveConfigHash returns the hash recorded when the service started
func (h *ConfigHasher) GetActiveConfigHash() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeHash
}

// MarkActive records the current file hash as the active one.
func (h *ConfigHasher) MarkActive() error {
	hash, err := h.GetCurrentConfigHash()
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeHash = hash
	return nil
}

// IsOutdated reports whether the file changed since MarkActive.
func (h *ConfigHasher) IsOutdated() (bool, error) {
	current, err := h.GetCurrentConfigHash()
	if err != nil {
		return false, err
	}
	return current != h.GetActiveConfigHash(), nil
}
