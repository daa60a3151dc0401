package state

import (
	"testing"
)

func TestGenerateDifferences(t *testing.T) {
	oldState := mustParse(t, `
interfaces:
- name: eth1
  type: ethernet
  mtu: 1500
- name: eth2
  type: ethernet
  state: up
- name: dummy0
  type: dummy
routes:
  config:
  - destination: 198.51.100.0/24
    next-hop-interface: eth1
dns-resolver:
  config:
    server: ["192.0.2.53"]
`)
	newState := mustParse(t, `
interfaces:
- name: eth1
  type: ethernet
  mtu: 9000
- name: eth2
  type: ethernet
- name: dummy1
  type: dummy
routes:
  config:
  - destination: 203.0.113.0/24
    next-hop-interface: eth1
dns-resolver:
  config:
    server: ["192.0.2.53"]
`)

	diff, err := GenerateDifferences(newState, oldState)
	if err != nil {
		t.Fatalf("GenerateDifferences failed: %v", err)
	}

	names := diff.Interfaces.Names()
	if len(names) != 3 || names[0] != "eth1" || names[1] != "dummy1" || names[2] != "dummy0" {
		t.Fatalf("Expected eth1, dummy1, dummy0, got %v", names)
	}
	if mtu := diff.Interfaces.Get("eth1").MTU; mtu == nil || *mtu != 9000 {
		t.Errorf("Expected changed interface in full, got mtu %v", mtu)
	}
	if !diff.Interfaces.Get("dummy0").IsAbsent() {
		t.Error("Expected removed interface to be absent")
	}

	if diff.Routes == nil || len(diff.Routes.Config) != 2 {
		t.Fatalf("Expected 2 route changes, got %+v", diff.Routes)
	}
	if diff.Routes.Config[0].Destination != "203.0.113.0/24" || diff.Routes.Config[0].IsAbsent() {
		t.Errorf("Expected new route first, got %v", diff.Routes.Config[0])
	}
	if !diff.Routes.Config[1].IsAbsent() {
		t.Errorf("Expected old route to be absent, got %v", diff.Routes.Config[1])
	}
	if diff.DNS != nil {
		t.Errorf("Expected unchanged DNS to be left out, got %+v", diff.DNS)
	}
}

func TestGenerateDifferences_Identical(t *testing.T) {
	ns := mustParse(t, currentYAML)
	diff, err := GenerateDifferences(ns, ns.Clone())
	if err != nil {
		t.Fatalf("GenerateDifferences failed: %v", err)
	}
	if !diff.IsEmpty() {
		t.Errorf("Expected empty diff, got %+v", diff)
	}
}
