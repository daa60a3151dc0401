package state

import (
	"strings"
	"testing"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

func mustMerge(t *testing.T, desired, current string) *MergedState {
	t.Helper()
	m, err := Merge(mustParse(t, desired), mustParse(t, current))
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	return m
}

func TestVerify_PassesOnMergedState(t *testing.T) {
	m := mustMerge(t, `
interfaces:
- name: eth2
  mtu: 9000
  ipv4:
    enabled: true
    address:
    - ip: 198.51.100.1
      prefix-length: 24
- name: bond0
  type: bond
  state: up
  link-aggregation:
    mode: active-backup
    port: [eth1]
routes:
  config:
  - destination: 0.0.0.0/0
    next-hop-interface: eth2
    next-hop-address: 198.51.100.254
`, currentYAML)

	if err := m.Verify(m.Merged); err != nil {
		t.Errorf("Expected merged state to verify, got %v", err)
	}
}

func TestVerify_ReportsPropertyMismatch(t *testing.T) {
	m := mustMerge(t, `{"interfaces": [{"name": "eth2", "mtu": 9000}]}`, currentYAML)
	post := m.Merged.Clone()
	post.Interfaces.Get("eth2").MTU = Uint32Ptr(1500)

	err := m.Verify(post)
	if !errors.IsKind(err, errors.KindVerificationError) {
		t.Fatalf("Expected VerificationError, got %v", err)
	}
	want := "eth2.mtu desire '9000', current '1500'"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("Expected %q in %q", want, err.Error())
	}
}

func TestVerify_AddressOrderDoesNotMatter(t *testing.T) {
	m := mustMerge(t, `
interfaces:
- name: eth2
  ipv4:
    address:
    - ip: 198.51.100.1
      prefix-length: 24
    - ip: 198.51.100.2
      prefix-length: 24
`, currentYAML)
	post := m.Merged.Clone()
	addrs := post.Interfaces.Get("eth2").IPv4.Addresses
	addrs[0], addrs[1] = addrs[1], addrs[0]

	if err := m.Verify(post); err != nil {
		t.Errorf("Expected address order to be ignored, got %v", err)
	}

	post.Interfaces.Get("eth2").IPv4.Addresses = addrs[:1]
	err := m.Verify(post)
	if err == nil || !strings.Contains(err.Error(), "eth2.ipv4.address") {
		t.Errorf("Expected address mismatch, got %v", err)
	}
}

func TestVerify_AbsentInterfaceStillPresent(t *testing.T) {
	m := mustMerge(t, `{"interfaces": [{"name": "dummy0", "state": "absent"}]}`, currentYAML)
	err := m.Verify(m.Current)
	if !errors.IsKind(err, errors.KindVerificationError) {
		t.Fatalf("Expected VerificationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "dummy0") {
		t.Errorf("Expected interface name in %q", err.Error())
	}

	// physical interfaces cannot disappear
	m = mustMerge(t, `{"interfaces": [{"name": "eth1", "state": "absent"}]}`, currentYAML)
	if err := m.Verify(m.Current); err != nil {
		t.Errorf("Expected absent ethernet to verify, got %v", err)
	}
}

func TestVerify_MissingInterface(t *testing.T) {
	m := mustMerge(t, `{"interfaces": [{"name": "dummy1", "type": "dummy"}]}`, currentYAML)
	err := m.Verify(m.Current)
	if !errors.IsKind(err, errors.KindVerificationError) {
		t.Errorf("Expected VerificationError, got %v", err)
	}
}

func TestVerify_StateMismatch(t *testing.T) {
	m := mustMerge(t, `{"interfaces": [{"name": "eth2", "state": "down"}]}`, currentYAML)
	err := m.Verify(m.Current)
	if err == nil || !strings.Contains(err.Error(), "eth2.state desire 'down', current 'up'") {
		t.Errorf("Expected state mismatch, got %v", err)
	}
}

func TestVerify_Routes(t *testing.T) {
	m := mustMerge(t, `
routes:
  config:
  - destination: 0.0.0.0/0
    next-hop-interface: eth1
    next-hop-address: 192.0.2.254
`, currentYAML)
	err := m.Verify(m.Current)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected missing route error, got %v", err)
	}

	m = mustMerge(t, `{"routes": {"config": [{"destination": "203.0.113.0/24", "state": "absent"}]}}`, currentYAML)
	err = m.Verify(m.Current)
	if err == nil || !strings.Contains(err.Error(), "still exists") {
		t.Errorf("Expected leftover route error, got %v", err)
	}
	if err := m.Verify(m.Merged); err != nil {
		t.Errorf("Expected merged routes to verify, got %v", err)
	}
}

func TestVerify_DNS(t *testing.T) {
	m := mustMerge(t, `{"dns-resolver": {"config": {"server": ["192.0.2.53"]}}}`, `{}`)
	err := m.Verify(m.Current)
	if !errors.IsKind(err, errors.KindVerificationError) {
		t.Errorf("Expected VerificationError, got %v", err)
	}
	if err := m.Verify(m.Merged); err != nil {
		t.Errorf("Expected merged DNS to verify, got %v", err)
	}
}

func TestStripIndexes(t *testing.T) {
	tests := map[string]string{
		"bridge.port[0].vlan":  "bridge.port.vlan",
		"ipv4.address[12].ip":  "ipv4.address.ip",
		"mtu":                  "mtu",
		"link-aggregation[0]":  "link-aggregation",
		"802.1x":               "802.1x",
		"vxlan.destination-10": "vxlan.destination-10",
	}
	for in, want := range tests {
		if got := stripIndexes(in); got != want {
			t.Errorf("stripIndexes(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVerify_EmptyListMatchesAbsent(t *testing.T) {
	m := mustMerge(t, `{"interfaces": [{"name": "eth1", "ipv4": {"enabled": true, "address": []}}]}`, currentYAML)
	post := m.Merged.Clone()
	post.Interfaces.Get("eth1").IPv4.Addresses = nil

	if err := m.Verify(post); err != nil {
		t.Errorf("Expected an absent list to satisfy an empty one, got %v", err)
	}

	post.Interfaces.Get("eth1").IPv4.Addresses = []IPAddress{{IP: "192.0.2.1", PrefixLength: 24}}
	if err := m.Verify(post); !errors.IsKind(err, errors.KindVerificationError) {
		t.Errorf("Expected VerificationError for a leftover address, got %v", err)
	}
}
