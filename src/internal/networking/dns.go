package networking

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/miekg/dns"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// ReadResolvConf loads name servers and search domains. A missing file is an
// empty configuration.
func ReadResolvConf(path string) (*state.DNSConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &state.DNSConfig{}, nil
	}
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, errors.NewPluginFailure("failed to read "+path, err)
	}
	return &state.DNSConfig{
		Server: append([]string(nil), cfg.Servers...),
		Search: append([]string(nil), cfg.Search...),
	}, nil
}

// WriteResolvConf replaces the file atomically.
func WriteResolvConf(path string, conf *state.DNSConfig) error {
	var buf bytes.Buffer
	buf.WriteString("# Generated by nmstate\n")
	if len(conf.Search) > 0 {
		fmt.Fprintf(&buf, "search %s\n", strings.Join(conf.Search, " "))
	}
	for _, server := range conf.Server {
		fmt.Fprintf(&buf, "nameserver %s\n", server)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".resolv.conf.")
	if err != nil {
		return errors.NewPluginFailure("failed to write "+path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.NewPluginFailure("failed to write "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewPluginFailure("failed to write "+path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.NewPluginFailure("failed to write "+path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.NewPluginFailure("failed to write "+path, err)
	}
	log.Infof("Updated DNS configuration in %s", path)
	return nil
}
