package networking

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/nmstate/nmstate-go/src/internal/state"
)

func mustCIDR(t *testing.T, s string) *net.IPNet {
	t.Helper()
	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		t.Fatalf("invalid CIDR %s: %v", s, err)
	}
	return ipnet
}

// newQueryHost builds lo, eth0 with addresses and routes, and bond0 holding
// eth1.
func newQueryHost(t *testing.T) *fakeNetlinker {
	t.Helper()
	nl := newFakeNetlinker()

	loAttrs := netlink.NewLinkAttrs()
	loAttrs.Name = "lo"
	loAttrs.MTU = 65536
	loAttrs.Flags = net.FlagUp | net.FlagLoopback
	nl.register(&netlink.Device{LinkAttrs: loAttrs})

	eth0 := nl.addDevice("eth0", true)
	eth0.Attrs().HardwareAddr, _ = net.ParseMAC("52:54:00:aa:bb:cc")
	eth0.Attrs().Alias = "uplink"
	nl.addAddr("eth0", "192.0.2.10/24")
	nl.addAddr("eth0", "fe80::1/64")
	nl.addAddr("eth0", "2001:db8::10/64")

	bondAttrs := netlink.NewLinkAttrs()
	bondAttrs.Name = "bond0"
	bond := netlink.NewLinkBond(bondAttrs)
	bond.Mode = netlink.BOND_MODE_ACTIVE_BACKUP
	nl.register(bond)

	eth1 := nl.addDevice("eth1", true)
	eth1.Attrs().MasterIndex = bond.Index
	nl.addAddr("eth1", "198.51.100.1/24")

	eth0Index := eth0.Attrs().Index
	nl.routes = []netlink.Route{
		{Table: unix.RT_TABLE_MAIN, Family: netlink.FAMILY_V4, LinkIndex: eth0Index,
			Gw: net.ParseIP("192.0.2.1"), Priority: 100, Protocol: unix.RTPROT_STATIC},
		{Table: unix.RT_TABLE_MAIN, Family: netlink.FAMILY_V4, LinkIndex: eth0Index,
			Dst: mustCIDR(t, "192.0.2.0/24"), Protocol: unix.RTPROT_KERNEL},
		{Table: unix.RT_TABLE_LOCAL, Family: netlink.FAMILY_V4, LinkIndex: eth0Index,
			Dst: mustCIDR(t, "192.0.2.10/32"), Protocol: unix.RTPROT_KERNEL},
		{Table: 100, Family: netlink.FAMILY_V4, Type: unix.RTN_BLACKHOLE,
			Dst: mustCIDR(t, "203.0.113.0/24"), Protocol: unix.RTPROT_STATIC},
	}

	rule := netlink.NewRule()
	rule.Family = netlink.FAMILY_V4
	rule.Priority = 100
	rule.Table = 100
	rule.Src = mustCIDR(t, "198.51.100.0/24")
	mainRule := netlink.NewRule()
	mainRule.Family = netlink.FAMILY_V4
	mainRule.Priority = 32766
	mainRule.Table = unix.RT_TABLE_MAIN
	nl.rules = []netlink.Rule{*rule, *mainRule}
	return nl
}

func TestQueryState_Interfaces(t *testing.T) {
	m := NewManager(newQueryHost(t), "")
	ns, err := m.QueryState(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("QueryState failed: %v", err)
	}

	names := ns.Interfaces.Names()
	expected := []string{"bond0", "eth0", "eth1", "lo"}
	if len(names) != len(expected) {
		t.Fatalf("Expected interfaces %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected interface %d to be %s, got %s", i, expected[i], names[i])
		}
	}

	t.Run("loopback is typed", func(t *testing.T) {
		lo := ns.Interfaces.Get("lo")
		if lo.Type != state.TypeLoopback {
			t.Errorf("Expected type loopback, got %s", lo.Type)
		}
	})

	t.Run("ethernet carries base properties and addresses", func(t *testing.T) {
		eth0 := ns.Interfaces.Get("eth0")
		if eth0.Type != state.TypeEthernet {
			t.Errorf("Expected type ethernet, got %s", eth0.Type)
		}
		if eth0.State != state.StateUp {
			t.Errorf("Expected state up, got %s", eth0.State)
		}
		if eth0.MACAddress != "52:54:00:AA:BB:CC" {
			t.Errorf("Expected upper-case MAC, got %s", eth0.MACAddress)
		}
		if eth0.Description != "uplink" {
			t.Errorf("Expected description 'uplink', got '%s'", eth0.Description)
		}
		if eth0.MTU == nil || *eth0.MTU != 1500 {
			t.Errorf("Expected MTU 1500, got %v", eth0.MTU)
		}
		if eth0.IPv4 == nil || !eth0.IPv4.Enabled || len(eth0.IPv4.Addresses) != 1 ||
			eth0.IPv4.Addresses[0].String() != "192.0.2.10/24" {
			t.Errorf("Unexpected ipv4 section: %+v", eth0.IPv4)
		}
		if eth0.IPv4.DHCP == nil || *eth0.IPv4.DHCP {
			t.Errorf("Expected dhcp false, got %v", eth0.IPv4.DHCP)
		}
		// link-local addresses are not reported
		if eth0.IPv6 == nil || len(eth0.IPv6.Addresses) != 1 ||
			eth0.IPv6.Addresses[0].String() != "2001:db8::10/64" {
			t.Errorf("Unexpected ipv6 section: %+v", eth0.IPv6)
		}
	})

	t.Run("bond lists its ports", func(t *testing.T) {
		bond := ns.Interfaces.Get("bond0")
		if bond.Type != state.TypeBond {
			t.Fatalf("Expected type bond, got %s", bond.Type)
		}
		if bond.Bond.Mode != "active-backup" {
			t.Errorf("Expected mode active-backup, got %s", bond.Bond.Mode)
		}
		if len(bond.Bond.Ports) != 1 || bond.Bond.Ports[0] != "eth1" {
			t.Errorf("Expected ports [eth1], got %v", bond.Bond.Ports)
		}
		if bond.State != state.StateDown {
			t.Errorf("Expected state down, got %s", bond.State)
		}
	})

	t.Run("ports report their controller and no IP", func(t *testing.T) {
		eth1 := ns.Interfaces.Get("eth1")
		if eth1.ControllerName() != "bond0" {
			t.Errorf("Expected controller bond0, got '%s'", eth1.ControllerName())
		}
		if eth1.ControllerType != state.TypeBond {
			t.Errorf("Expected controller type bond, got %s", eth1.ControllerType)
		}
		if eth1.IPv4 != nil || eth1.IPv6 != nil {
			t.Errorf("Expected no IP sections on a port, got %+v %+v", eth1.IPv4, eth1.IPv6)
		}
	})
}

func TestQueryState_Routes(t *testing.T) {
	m := NewManager(newQueryHost(t), "")
	ns, err := m.QueryState(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("QueryState failed: %v", err)
	}
	if ns.Routes == nil {
		t.Fatal("Expected routes")
	}

	if len(ns.Routes.Running) != 3 {
		t.Errorf("Expected 3 running routes (local table skipped), got %d: %v", len(ns.Routes.Running), ns.Routes.Running)
	}
	if len(ns.Routes.Config) != 2 {
		t.Fatalf("Expected 2 config routes, got %d: %v", len(ns.Routes.Config), ns.Routes.Config)
	}

	def := ns.Routes.Config[0]
	if def.Destination != "0.0.0.0/0" || def.NextHopIface != "eth0" || def.NextHopAddr != "192.0.2.1" {
		t.Errorf("Unexpected default route: %v", def)
	}
	if def.Metric == nil || *def.Metric != 100 {
		t.Errorf("Expected metric 100, got %v", def.Metric)
	}

	bh := ns.Routes.Config[1]
	if bh.RouteType != "blackhole" || bh.Table() != 100 {
		t.Errorf("Unexpected blackhole route: %v", bh)
	}
}

func TestQueryState_RunningConfigOnly(t *testing.T) {
	m := NewManager(newQueryHost(t), "")
	ns, err := m.QueryState(context.Background(), QueryOptions{RunningConfigOnly: true})
	if err != nil {
		t.Fatalf("QueryState failed: %v", err)
	}
	if ns.Routes == nil || ns.Routes.Running != nil {
		t.Errorf("Expected only config routes, got %+v", ns.Routes)
	}
}

func TestQueryState_RulesSkipDefaults(t *testing.T) {
	m := NewManager(newQueryHost(t), "")
	ns, err := m.QueryState(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("QueryState failed: %v", err)
	}
	if ns.Rules == nil || len(ns.Rules.Config) != 1 {
		t.Fatalf("Expected 1 rule, got %+v", ns.Rules)
	}
	rule := ns.Rules.Config[0]
	if rule.IPFrom != "198.51.100.0/24" {
		t.Errorf("Expected ip-from 198.51.100.0/24, got %s", rule.IPFrom)
	}
	if rule.RouteTable == nil || *rule.RouteTable != 100 {
		t.Errorf("Expected route-table 100, got %v", rule.RouteTable)
	}
	if rule.Priority == nil || *rule.Priority != 100 {
		t.Errorf("Expected priority 100, got %v", rule.Priority)
	}
}

func TestQueryState_DNS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	if err := WriteResolvConf(path, &state.DNSConfig{Server: []string{"192.0.2.53"}, Search: []string{"example.com"}}); err != nil {
		t.Fatalf("WriteResolvConf failed: %v", err)
	}

	m := NewManager(newQueryHost(t), path)
	ns, err := m.QueryState(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatalf("QueryState failed: %v", err)
	}
	if ns.DNS == nil || ns.DNS.Config == nil || ns.DNS.Running == nil {
		t.Fatalf("Expected DNS config and running, got %+v", ns.DNS)
	}
	if len(ns.DNS.Config.Server) != 1 || ns.DNS.Config.Server[0] != "192.0.2.53" {
		t.Errorf("Expected server 192.0.2.53, got %v", ns.DNS.Config.Server)
	}
}

func TestQueryState_LinkListFailure(t *testing.T) {
	nl := newQueryHost(t)
	nl.failOn["LinkList"] = net.UnknownNetworkError("netlink socket closed")
	m := NewManager(nl, "")
	if _, err := m.QueryState(context.Background(), QueryOptions{}); err == nil {
		t.Error("Expected error when links cannot be listed")
	}
}
