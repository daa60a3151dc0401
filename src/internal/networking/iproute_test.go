package networking

import (
	"net"
	"testing"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

func int64Ptr(v int64) *int64 { return &v }

func TestBuildRoute(t *testing.T) {
	nl := newFakeNetlinker()
	eth0 := nl.addDevice("eth0", true)

	t.Run("unicast route resolves the interface", func(t *testing.T) {
		ipr, err := BuildRoute(nl, &state.RouteEntry{
			Destination:  "2001:db8:1::/64",
			NextHopIface: "eth0",
			NextHopAddr:  "2001:db8::1",
			Metric:       int64Ptr(20),
		})
		if err != nil {
			t.Fatalf("BuildRoute failed: %v", err)
		}
		if ipr.Family != netlink.FAMILY_V6 {
			t.Errorf("Expected IPv6 family, got %d", ipr.Family)
		}
		if ipr.LinkIndex != eth0.Attrs().Index {
			t.Errorf("Expected link index %d, got %d", eth0.Attrs().Index, ipr.LinkIndex)
		}
		if ipr.Table != unix.RT_TABLE_MAIN {
			t.Errorf("Expected main table, got %d", ipr.Table)
		}
		if ipr.Priority != 20 {
			t.Errorf("Expected priority 20, got %d", ipr.Priority)
		}
	})

	t.Run("blackhole route needs no interface", func(t *testing.T) {
		ipr, err := BuildRoute(nl, &state.RouteEntry{Destination: "203.0.113.0/24", RouteType: "blackhole"})
		if err != nil {
			t.Fatalf("BuildRoute failed: %v", err)
		}
		if ipr.Type != unix.RTN_BLACKHOLE || ipr.LinkIndex != 0 {
			t.Errorf("Unexpected route: %v", ipr)
		}
	})

	errorTests := []struct {
		name  string
		entry state.RouteEntry
	}{
		{"missing interface", state.RouteEntry{Destination: "192.0.2.0/24", NextHopIface: "eth9"}},
		{"invalid destination", state.RouteEntry{Destination: "192.0.2.0", NextHopIface: "eth0"}},
		{"invalid gateway", state.RouteEntry{Destination: "192.0.2.0/24", NextHopIface: "eth0", NextHopAddr: "gw"}},
		{"unknown type", state.RouteEntry{Destination: "192.0.2.0/24", RouteType: "throw"}},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRoute(nl, &tt.entry)
			if !errors.IsKind(err, errors.KindInvalidArgument) {
				t.Errorf("Expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestIpRoute_IsRuntimeOnly(t *testing.T) {
	tests := []struct {
		name  string
		route netlink.Route
		want  bool
	}{
		{"static", netlink.Route{Protocol: unix.RTPROT_STATIC, Dst: &net.IPNet{IP: net.ParseIP("192.0.2.0"), Mask: net.CIDRMask(24, 32)}}, false},
		{"kernel", netlink.Route{Protocol: unix.RTPROT_KERNEL}, true},
		{"dhcp", netlink.Route{Protocol: unix.RTPROT_DHCP}, true},
		{"ipv6 link-local", netlink.Route{Family: netlink.FAMILY_V6, Protocol: unix.RTPROT_BOOT,
			Dst: &net.IPNet{IP: net.ParseIP("fe80::"), Mask: net.CIDRMask(64, 128)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ipr := &IpRoute{Route: &tt.route}
			if got := ipr.IsRuntimeOnly(); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIpRoute_ToEntry(t *testing.T) {
	names := map[int]string{2: "eth0"}

	t.Run("default route", func(t *testing.T) {
		ipr := &IpRoute{Route: &netlink.Route{Family: netlink.FAMILY_V6, LinkIndex: 2, Table: 254, Priority: 1024}}
		entry, ok := ipr.ToEntry(names)
		if !ok {
			t.Fatal("Expected route to convert")
		}
		if entry.Destination != "::/0" || entry.NextHopIface != "eth0" {
			t.Errorf("Unexpected entry: %v", entry)
		}
		if entry.Metric == nil || *entry.Metric != 1024 {
			t.Errorf("Expected metric 1024, got %v", entry.Metric)
		}
	})

	t.Run("unknown interface is skipped", func(t *testing.T) {
		ipr := &IpRoute{Route: &netlink.Route{LinkIndex: 7}}
		if _, ok := ipr.ToEntry(names); ok {
			t.Error("Expected route on an unknown interface to be skipped")
		}
	})

	t.Run("unsupported type is skipped", func(t *testing.T) {
		ipr := &IpRoute{Route: &netlink.Route{Type: unix.RTN_BROADCAST}}
		if _, ok := ipr.ToEntry(names); ok {
			t.Error("Expected broadcast route to be skipped")
		}
	})
}

func TestBuildRule(t *testing.T) {
	nl := newFakeNetlinker()

	t.Run("host address becomes a full prefix", func(t *testing.T) {
		ipr, err := BuildRule(nl, &state.RouteRuleEntry{
			IPTo:       "2001:db8::5",
			RouteTable: state.Uint32Ptr(50),
		})
		if err != nil {
			t.Fatalf("BuildRule failed: %v", err)
		}
		if ipr.Family != netlink.FAMILY_V6 {
			t.Errorf("Expected IPv6 family, got %d", ipr.Family)
		}
		if ipr.Dst == nil || ipr.Dst.String() != "2001:db8::5/128" {
			t.Errorf("Expected 2001:db8::5/128, got %v", ipr.Dst)
		}
		if ipr.Priority != -1 {
			t.Errorf("Expected unset priority, got %d", ipr.Priority)
		}
	})

	t.Run("unset table is main", func(t *testing.T) {
		ipr, err := BuildRule(nl, &state.RouteRuleEntry{IPFrom: "192.0.2.0/24"})
		if err != nil {
			t.Fatalf("BuildRule failed: %v", err)
		}
		if ipr.Table != unix.RT_TABLE_MAIN {
			t.Errorf("Expected main table, got %d", ipr.Table)
		}
	})

	t.Run("fwmask is not supported", func(t *testing.T) {
		_, err := BuildRule(nl, &state.RouteRuleEntry{FwMark: state.Uint32Ptr(1), FwMask: state.Uint32Ptr(0xff)})
		if !errors.IsKind(err, errors.KindNotSupported) {
			t.Errorf("Expected NotSupportedError, got %v", err)
		}
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := BuildRule(nl, &state.RouteRuleEntry{IPFrom: "not-an-ip", RouteTable: state.Uint32Ptr(50)})
		if !errors.IsKind(err, errors.KindInvalidArgument) {
			t.Errorf("Expected InvalidArgument, got %v", err)
		}
	})
}

func TestIsDefaultRule(t *testing.T) {
	custom := netlink.NewRule()
	custom.Priority = 100
	custom.Table = 100
	if isDefaultRule(custom) {
		t.Error("Expected custom rule not to be a default rule")
	}
	local := netlink.NewRule()
	local.Priority = 0
	local.Table = unix.RT_TABLE_LOCAL
	if !isDefaultRule(local) {
		t.Error("Expected local table rule to be a default rule")
	}
}
