package state

import (
	"testing"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

const currentYAML = `
interfaces:
- name: eth1
  type: ethernet
  state: up
  mtu: 1500
  ipv4:
    enabled: true
    address:
    - ip: 192.0.2.1
      prefix-length: 24
- name: eth2
  type: ethernet
  state: up
  mtu: 1500
- name: dummy0
  type: dummy
  state: up
routes:
  config:
  - destination: 198.51.100.0/24
    next-hop-interface: eth1
    next-hop-address: 192.0.2.254
  - destination: 203.0.113.0/24
    next-hop-interface: dummy0
`

func TestMerge_BondPullsInPorts(t *testing.T) {
	current := mustParse(t, currentYAML)
	desired := mustParse(t, `
interfaces:
- name: bond0
  type: bond
  link-aggregation:
    mode: active-backup
    port: [eth1, eth2]
`)

	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	for _, name := range []string{"eth1", "eth2"} {
		port := m.Desired.Interfaces.Get(name)
		if port == nil {
			t.Fatalf("Expected %s to be added to desired", name)
		}
		if port.ControllerName() != "bond0" || port.ControllerType != TypeBond {
			t.Errorf("Expected %s attached to bond0, got %q (%s)", name, port.ControllerName(), port.ControllerType)
		}
	}

	eth1 := m.Merged.Interfaces.Get("eth1")
	if eth1.IPv4 != nil {
		t.Errorf("Expected bond port to lose its IP, got %+v", eth1.IPv4)
	}
	if eth1.MTU == nil || *eth1.MTU != 1500 {
		t.Error("Expected untouched properties to be kept")
	}
	if m.Merged.Interfaces.Get("bond0") == nil {
		t.Error("Expected bond0 in merged state")
	}
	if m.Merged.Interfaces.Get("dummy0") == nil {
		t.Error("Expected untouched interface in merged state")
	}

	// inputs are not modified
	if current.Interfaces.Get("eth1").IPv4 == nil {
		t.Error("Expected current state to be left alone")
	}
	if len(desired.Interfaces) != 1 {
		t.Error("Expected desired state to be left alone")
	}
}

func TestMerge_PortDroppedFromListIsDetached(t *testing.T) {
	current := mustParse(t, `
interfaces:
- name: br0
  type: linux-bridge
  bridge:
    port:
    - name: eth1
    - name: eth2
- name: eth1
  type: ethernet
  controller: br0
- name: eth2
  type: ethernet
  controller: br0
`)
	desired := mustParse(t, `
interfaces:
- name: br0
  bridge:
    port:
    - name: eth1
`)

	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	eth2 := m.Desired.Interfaces.Get("eth2")
	if eth2 == nil || eth2.Controller == nil || *eth2.Controller != "" {
		t.Fatalf("Expected eth2 to be detached, got %+v", eth2)
	}
	if got := m.Merged.Interfaces.Get("eth2").ControllerName(); got != "" {
		t.Errorf("Expected merged eth2 without controller, got %q", got)
	}
	if got := m.Merged.Interfaces.Get("eth1").ControllerName(); got != "br0" {
		t.Errorf("Expected eth1 to stay on br0, got %q", got)
	}
}

func TestMerge_Errors(t *testing.T) {
	current := mustParse(t, currentYAML)
	tests := []struct {
		name    string
		desired string
	}{
		{"unknown interface without type", `{"interfaces": [{"name": "eth9"}]}`},
		{"missing port", `{"interfaces": [{"name": "bond0", "type": "bond", "link-aggregation": {"port": ["eth9"]}}]}`},
		{"missing controller", `{"interfaces": [{"name": "eth1", "controller": "br9"}]}`},
		{"controller is not a controller", `{"interfaces": [{"name": "eth1", "controller": "dummy0"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(mustParse(t, tt.desired), current)
			if !errors.IsKind(err, errors.KindInvalidArgument) {
				t.Errorf("Expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestMerge_AbsentUnknownInterfaceIsIgnored(t *testing.T) {
	current := mustParse(t, currentYAML)
	desired := mustParse(t, `{"interfaces": [{"name": "eth9", "state": "absent"}]}`)
	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if m.Merged.Interfaces.Get("eth9") != nil {
		t.Error("Expected nothing to be added for absent unknown interface")
	}
}

func TestMerge_StaticIPKeepsAddresses(t *testing.T) {
	current := mustParse(t, currentYAML)

	m, err := Merge(mustParse(t, `{"interfaces": [{"name": "eth1", "ipv4": {"enabled": true}}]}`), current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	ip := m.Merged.Interfaces.Get("eth1").IPv4
	if ip == nil || len(ip.Addresses) != 1 || ip.Addresses[0].IP != "192.0.2.1" {
		t.Errorf("Expected current address to be kept, got %+v", ip)
	}

	m, err = Merge(mustParse(t, `{"interfaces": [{"name": "eth1", "ipv4": {"enabled": true, "dhcp": true}}]}`), current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	ip = m.Merged.Interfaces.Get("eth1").IPv4
	if !ip.IsAuto() || len(ip.Addresses) != 0 {
		t.Errorf("Expected dhcp without static addresses, got %+v", ip)
	}

	m, err = Merge(mustParse(t, `{"interfaces": [{"name": "eth1", "ipv4": {"enabled": false}}]}`), current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	ip = m.Merged.Interfaces.Get("eth1").IPv4
	if ip.Enabled || ip.Addresses != nil {
		t.Errorf("Expected disabled ipv4, got %+v", ip)
	}
}

func TestMerge_Routes(t *testing.T) {
	current := mustParse(t, currentYAML)
	desired := mustParse(t, `
routes:
  config:
  - destination: 198.51.100.0/24
    state: absent
  - destination: 0.0.0.0/0
    next-hop-interface: eth1
    next-hop-address: 192.0.2.254
`)
	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	got := m.Merged.Routes.Config
	if len(got) != 2 {
		t.Fatalf("Expected 2 routes, got %v", got)
	}
	if got[0].Destination != "203.0.113.0/24" || got[1].Destination != "0.0.0.0/0" {
		t.Errorf("Unexpected routes: %v", got)
	}
}

func TestMerge_RemovedInterfaceDropsRoutes(t *testing.T) {
	current := mustParse(t, currentYAML)
	desired := mustParse(t, `{"interfaces": [{"name": "dummy0", "state": "absent"}]}`)
	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	for _, r := range m.Merged.Routes.Config {
		if r.NextHopIface == "dummy0" {
			t.Errorf("Expected routes via dummy0 to be removed, got %v", r)
		}
	}
	if !m.Merged.Interfaces.Get("dummy0").IsAbsent() {
		t.Error("Expected dummy0 to be marked absent in merged state")
	}
}

func TestMerge_DNSReplacesConfig(t *testing.T) {
	current := mustParse(t, `{"dns-resolver": {"config": {"server": ["192.0.2.53"]}, "running": {"server": ["192.0.2.53"]}}}`)
	desired := mustParse(t, `{"dns-resolver": {"config": {"server": ["198.51.100.53"], "search": ["example.org"]}}}`)
	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if got := m.Merged.DNS.Config.Server; len(got) != 1 || got[0] != "198.51.100.53" {
		t.Errorf("Expected desired DNS servers, got %v", got)
	}
	if got := m.Merged.DNS.Running.Server; len(got) != 1 || got[0] != "192.0.2.53" {
		t.Errorf("Expected running DNS kept, got %v", got)
	}
}

func TestMerge_BondModeChangeDropsOptions(t *testing.T) {
	cur := &BondConfig{Mode: "802.3ad", Options: map[string]interface{}{"lacp_rate": "fast"}}
	out := mergeBond(cur, &BondConfig{Mode: "active-backup"})
	if out.Options != nil {
		t.Errorf("Expected options to be dropped on mode change, got %v", out.Options)
	}

	out = mergeBond(cur, &BondConfig{Options: map[string]interface{}{"miimon": 100}})
	if len(out.Options) != 2 || out.Mode != "802.3ad" {
		t.Errorf("Expected options to be merged, got %+v", out)
	}
}

func TestMerge_EmptyPortListDetachesAll(t *testing.T) {
	current := mustParse(t, `
interfaces:
- name: bond0
  type: bond
  link-aggregation:
    mode: active-backup
    port: [eth1]
- name: eth1
  type: ethernet
  controller: bond0
`)
	desired := mustParse(t, `
interfaces:
- name: bond0
  type: bond
  link-aggregation:
    port: []
`)

	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	bond := m.Merged.Interfaces.Get("bond0").Bond
	if bond.Ports == nil || len(bond.Ports) != 0 {
		t.Errorf("Expected empty port list, got %#v", bond.Ports)
	}
	eth1 := m.Desired.Interfaces.Get("eth1")
	if eth1 == nil || eth1.Controller == nil || *eth1.Controller != "" {
		t.Fatalf("Expected eth1 to be detached, got %+v", eth1)
	}
	if got := m.Merged.Interfaces.Get("eth1").ControllerName(); got != "" {
		t.Errorf("Expected merged eth1 without controller, got %q", got)
	}
}

func TestMerge_EmptyAddressListClearsAddresses(t *testing.T) {
	current := mustParse(t, currentYAML)
	desired := mustParse(t, `{"interfaces": [{"name": "eth1", "ipv4": {"enabled": true, "address": []}}]}`)

	if got := desired.Interfaces.Get("eth1").IPv4.Addresses; got == nil {
		t.Fatal("Expected parsed empty address list to stay non-nil")
	}
	m, err := Merge(desired, current)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	ip := m.Merged.Interfaces.Get("eth1").IPv4
	if ip == nil || !ip.Enabled || len(ip.Addresses) != 0 {
		t.Errorf("Expected enabled ipv4 without addresses, got %+v", ip)
	}
}
