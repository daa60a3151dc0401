package state

import (
	"strings"
	"testing"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

const ethYAML = `
interfaces:
- name: eth1
  type: ethernet
  state: up
  mtu: 1500
  mac-address: 00:11:22:aa:bb:cc
  ipv4:
    address:
    - ip: 192.0.2.1
      prefix-length: 24
`

const ethJSON = `{
  "interfaces": [
    {
      "name": "eth1",
      "type": "ethernet",
      "state": "up",
      "mtu": 1500,
      "mac-address": "00:11:22:aa:bb:cc",
      "ipv4": {"address": [{"ip": "192.0.2.1", "prefix-length": 24}]}
    }
  ]
}`

func mustParse(t *testing.T, doc string) *NetworkState {
	t.Helper()
	ns, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Failed to parse state: %v", err)
	}
	return ns
}

func TestParse_YAMLAndJSONAreEquivalent(t *testing.T) {
	fromYAML := mustParse(t, ethYAML)
	fromJSON := mustParse(t, ethJSON)

	a, err := fromYAML.ToJSON(false)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	b, err := fromJSON.ToJSON(false)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("Expected identical documents:\n%s\n%s", a, b)
	}
}

func TestParse_EnabledDefaultsFromContent(t *testing.T) {
	ns := mustParse(t, ethYAML)
	iface := ns.Interfaces.Get("eth1")
	if iface == nil {
		t.Fatal("Expected eth1 to be parsed")
	}
	if !iface.IPv4.Enabled {
		t.Error("Expected ipv4 with addresses to default to enabled")
	}

	ns = mustParse(t, `{"interfaces": [{"name": "eth1", "ipv4": {}}]}`)
	if ns.Interfaces[0].IPv4.Enabled {
		t.Error("Expected empty ipv4 section to default to disabled")
	}

	ns = mustParse(t, `{"interfaces": [{"name": "eth1", "ipv6": {"autoconf": true}}]}`)
	if !ns.Interfaces[0].IPv6.Enabled {
		t.Error("Expected autoconf to imply enabled")
	}
}

func TestParse_Empty(t *testing.T) {
	for _, doc := range []string{"", "  \n", "null", "{}"} {
		ns, err := Parse([]byte(doc))
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", doc, err)
			continue
		}
		if !ns.IsEmpty() {
			t.Errorf("Parse(%q) expected empty state", doc)
		}
	}
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown top-level key", `{"foo": 1}`},
		{"unknown interface key", `{"interfaces": [{"name": "eth1", "speed": 10}]}`},
		{"missing name", `{"interfaces": [{"type": "ethernet"}]}`},
		{"vlan id out of range", `{"interfaces": [{"name": "v", "type": "vlan", "vlan": {"base-iface": "eth1", "id": 5000}}]}`},
		{"bad interface state", `{"interfaces": [{"name": "eth1", "state": "sideways"}]}`},
		{"broken yaml", "interfaces: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !errors.IsKind(err, errors.KindInvalidArgument) {
				t.Errorf("Expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestParse_UnknownTypeRoundTrips(t *testing.T) {
	ns := mustParse(t, `{"interfaces": [{"name": "wg0", "type": "wireguard"}]}`)
	out, err := ns.ToJSON(false)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if !strings.Contains(string(out), `"type":"wireguard"`) {
		t.Errorf("Expected unknown type to be kept, got %s", out)
	}
}

func TestToJSON_SortsInterfaces(t *testing.T) {
	ns := mustParse(t, `
interfaces:
- name: eth2
  type: ethernet
- name: br0
  type: ovs-bridge
- name: br0
  type: ovs-interface
- name: eth1
  type: ethernet
`)
	sorted := ns.sorted()
	var got []string
	for _, iface := range sorted.Interfaces {
		got = append(got, iface.Name+"/"+string(iface.Type))
	}
	want := "br0/ovs-interface br0/ovs-bridge eth1/ethernet eth2/ethernet"
	if strings.Join(got, " ") != want {
		t.Errorf("Expected order %q, got %q", want, strings.Join(got, " "))
	}

	// the original is left untouched
	if ns.Interfaces[0].Name != "eth2" {
		t.Error("Expected sorting to work on a copy")
	}
}

func TestToYAML_KebabCaseKeys(t *testing.T) {
	ns := mustParse(t, ethJSON)
	out, err := ns.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML failed: %v", err)
	}
	for _, key := range []string{"mac-address:", "prefix-length:", "interfaces:"} {
		if !strings.Contains(string(out), key) {
			t.Errorf("Expected %q in output:\n%s", key, out)
		}
	}
}

func TestNewDesired_SanitizesAndValidates(t *testing.T) {
	ns, err := NewDesired([]byte(ethYAML))
	if err != nil {
		t.Fatalf("NewDesired failed: %v", err)
	}
	if got := ns.Interfaces[0].MACAddress; got != "00:11:22:AA:BB:CC" {
		t.Errorf("Expected upper-cased MAC, got %s", got)
	}

	_, err = NewDesired([]byte(`{"interfaces": [{"name": "eth1", "ipv4": {"address": [{"ip": "2001:db8::1", "prefix-length": 64}]}}]}`))
	if !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("Expected InvalidArgument for ipv6 address in ipv4, got %v", err)
	}
}

func TestClone_KeepsControllerType(t *testing.T) {
	ns := &NetworkState{Interfaces: Interfaces{
		{Name: "eth1", Type: TypeEthernet, Controller: StringPtr("vrf0"), ControllerType: TypeVrf},
	}}
	clone := ns.Clone()
	if clone.Interfaces[0].ControllerType != TypeVrf {
		t.Errorf("Expected controller type to survive clone, got %q", clone.Interfaces[0].ControllerType)
	}
	clone.Interfaces[0].Name = "eth9"
	if ns.Interfaces[0].Name != "eth1" {
		t.Error("Expected deep copy")
	}
}

func TestClone_KeepsEmptyListsApartFromUnset(t *testing.T) {
	ns := &NetworkState{Interfaces: Interfaces{
		{Name: "bond0", Type: TypeBond, Bond: &BondConfig{Ports: []string{}}},
		{Name: "br0", Type: TypeLinuxBridge, Bridge: &BridgeConfig{}},
		{Name: "eth1", Type: TypeEthernet, IPv4: &InterfaceIP{Enabled: true, Addresses: []IPAddress{}}},
	}}

	clone := ns.Clone()
	if ports := clone.Interfaces.Get("bond0").Bond.Ports; ports == nil || len(ports) != 0 {
		t.Errorf("Expected empty bond ports, got %#v", ports)
	}
	if ports := clone.Interfaces.Get("br0").Bridge.Ports; ports != nil {
		t.Errorf("Expected unset bridge ports, got %#v", ports)
	}
	if addrs := clone.Interfaces.Get("eth1").IPv4.Addresses; addrs == nil || len(addrs) != 0 {
		t.Errorf("Expected empty address list, got %#v", addrs)
	}

	clone.Interfaces.Get("eth1").IPv4.Enabled = false
	if !ns.Interfaces.Get("eth1").IPv4.Enabled {
		t.Error("Expected deep copy of ipv4 section")
	}
}

func TestToJSON_EmptyListsSurviveRoundTrip(t *testing.T) {
	ns := mustParse(t, `
interfaces:
- name: bond0
  type: bond
  link-aggregation:
    mode: active-backup
    port: []
- name: eth1
  type: ethernet
  ipv4:
    enabled: true
    address: []
`)
	data, err := ns.ToJSON(false)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if !strings.Contains(string(data), `"port":[]`) || !strings.Contains(string(data), `"address":[]`) {
		t.Errorf("Expected empty lists in output, got %s", data)
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if back.Interfaces.Get("bond0").Bond.Ports == nil {
		t.Error("Expected empty port list after round trip")
	}
	if back.Interfaces.Get("eth1").IPv4.Addresses == nil {
		t.Error("Expected empty address list after round trip")
	}

	unset, err := (&NetworkState{Interfaces: Interfaces{{Name: "eth2", Type: TypeEthernet, IPv4: &InterfaceIP{Enabled: true}}}}).ToJSON(false)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if strings.Contains(string(unset), "address") {
		t.Errorf("Expected unset address list to be omitted, got %s", unset)
	}
}
