package networking

import (
	"context"
	"net/netip"
	"sort"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// QueryOptions tune what QueryState reports.
type QueryOptions struct {
	// RunningConfigOnly leaves out running routes and DNS.
	RunningConfigOnly bool
}

// QueryState reads interfaces, addresses, routes, rules and DNS of the host.
func (m *Manager) QueryState(ctx context.Context, opts QueryOptions) (*state.NetworkState, error) {
	links, err := GetInterfaceList(m.nl)
	if err != nil {
		return nil, pluginError("failed to list links", err)
	}
	sort.Slice(links, func(i, j int) bool { return links[i].Attrs().Name < links[j].Attrs().Name })

	names := make(map[int]string, len(links))
	for _, link := range links {
		names[link.Attrs().Index] = link.Attrs().Name
	}

	ns := &state.NetworkState{}
	for i := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iface, err := m.queryInterface(&links[i], names)
		if err != nil {
			return nil, err
		}
		ns.Interfaces = append(ns.Interfaces, iface)
	}
	linkPorts(ns.Interfaces)

	if ns.Routes, err = m.queryRoutes(names, opts); err != nil {
		return nil, err
	}
	if ns.Rules, err = m.queryRules(); err != nil {
		return nil, err
	}
	if m.resolvConfPath != "" {
		conf, err := ReadResolvConf(m.resolvConfPath)
		if err != nil {
			return nil, err
		}
		ns.DNS = &state.DNSState{Config: conf}
		if !opts.RunningConfigOnly {
			running := *conf
			ns.DNS.Running = &running
		}
	}

	if err := ns.Sanitize(false); err != nil {
		return nil, err
	}
	ns.Interfaces.Sort()
	log.Debugf("Queried %d interfaces from the kernel", len(ns.Interfaces))
	return ns, nil
}

func (m *Manager) queryInterface(link *Interface, names map[int]string) (*state.Interface, error) {
	attrs := link.Attrs()
	iface := &state.Interface{
		Name:        attrs.Name,
		Type:        link.StateType(),
		State:       state.StateDown,
		Description: attrs.Alias,
	}
	if link.IsUp() {
		iface.State = state.StateUp
	}
	mtu := uint32(attrs.MTU)
	iface.MTU = &mtu
	if len(attrs.HardwareAddr) > 0 {
		iface.MACAddress = strings.ToUpper(attrs.HardwareAddr.String())
	}
	if attrs.MasterIndex > 0 {
		if ctrl, ok := names[attrs.MasterIndex]; ok {
			iface.Controller = state.StringPtr(ctrl)
		}
	}

	switch l := link.Link.(type) {
	case *netlink.Veth:
		if peer, ok := names[attrs.ParentIndex]; ok {
			iface.Veth = &state.VethConfig{Peer: peer}
		}
	case *netlink.Bond:
		iface.Bond = &state.BondConfig{Mode: l.Mode.String(), Ports: []string{}}
	case *netlink.Bridge:
		iface.Bridge = &state.BridgeConfig{Ports: []state.BridgePortConfig{}}
	case *netlink.Vrf:
		iface.Vrf = &state.VrfConfig{TableID: l.Table, Ports: []string{}}
	case *netlink.Vlan:
		iface.Vlan = &state.VlanConfig{BaseIface: names[attrs.ParentIndex], ID: uint16(l.VlanId), Protocol: "802.1q"}
		if l.VlanProtocol == netlink.VLAN_PROTOCOL_8021AD {
			iface.Vlan.Protocol = "802.1ad"
		}
	case *netlink.Vxlan:
		iface.Vxlan = &state.VxlanConfig{BaseIface: names[l.VtepDevIndex], ID: uint32(l.VxlanId)}
		if l.Group != nil {
			iface.Vxlan.Remote = l.Group.String()
		}
		if l.SrcAddr != nil {
			iface.Vxlan.Local = l.SrcAddr.String()
		}
		port := uint16(l.Port)
		iface.Vxlan.DestinationPort = &port
	case *netlink.Macvtap:
		iface.MacVtap = &state.MacVlanConfig{BaseIface: names[attrs.ParentIndex], Mode: macVlanModeNames[l.Mode]}
	case *netlink.Macvlan:
		iface.MacVlan = &state.MacVlanConfig{BaseIface: names[attrs.ParentIndex], Mode: macVlanModeNames[l.Mode]}
	}

	var err error
	if iface.IPv4, err = m.queryIP(link.Link, netlink.FAMILY_V4); err != nil {
		return nil, err
	}
	if iface.IPv6, err = m.queryIP(link.Link, netlink.FAMILY_V6); err != nil {
		return nil, err
	}
	return iface, nil
}

func (m *Manager) queryIP(link netlink.Link, family int) (*state.InterfaceIP, error) {
	addrs, err := m.nl.AddrList(link, family)
	if err != nil {
		return nil, pluginError("failed to list addresses of "+link.Attrs().Name, err)
	}
	ip := &state.InterfaceIP{Enabled: len(addrs) > 0}
	if !ip.Enabled {
		return ip, nil
	}
	// Addresses from a DHCP client cannot be told apart here.
	ip.DHCP = state.BoolPtr(false)
	if family == netlink.FAMILY_V6 {
		ip.Autoconf = state.BoolPtr(false)
	}
	for _, addr := range addrs {
		if addr.IPNet == nil {
			continue
		}
		parsed, ok := netip.AddrFromSlice(addr.IP)
		if !ok {
			continue
		}
		ones, _ := addr.Mask.Size()
		ip.Addresses = append(ip.Addresses, state.IPAddress{IP: parsed.Unmap().String(), PrefixLength: uint8(ones)})
	}
	return ip, nil
}

// linkPorts fills controller port lists and the controller type of ports.
func linkPorts(ifaces state.Interfaces) {
	for _, iface := range ifaces {
		if !iface.HasController() {
			continue
		}
		ctrl := ifaces.GetKernel(iface.ControllerName())
		if ctrl == nil {
			continue
		}
		iface.ControllerType = ctrl.Type
		switch {
		case ctrl.Bond != nil:
			ctrl.Bond.Ports = append(ctrl.Bond.Ports, iface.Name)
		case ctrl.Bridge != nil:
			ctrl.Bridge.Ports = append(ctrl.Bridge.Ports, state.BridgePortConfig{Name: iface.Name})
		case ctrl.Vrf != nil:
			ctrl.Vrf.Ports = append(ctrl.Vrf.Ports, iface.Name)
		}
	}
}

func (m *Manager) queryRoutes(names map[int]string, opts QueryOptions) (*state.Routes, error) {
	routes, err := ListRoutes(m.nl)
	if err != nil {
		return nil, pluginError("failed to list routes", err)
	}
	out := &state.Routes{}
	for _, route := range routes {
		entry, ok := route.ToEntry(names)
		if !ok {
			continue
		}
		if !opts.RunningConfigOnly {
			out.Running = append(out.Running, entry)
		}
		if !route.IsRuntimeOnly() {
			out.Config = append(out.Config, entry)
		}
	}
	if out.Config == nil && out.Running == nil {
		return nil, nil
	}
	return out, nil
}

func (m *Manager) queryRules() (*state.RouteRules, error) {
	rules, err := m.nl.RuleList(netlink.FAMILY_ALL)
	if err != nil {
		return nil, pluginError("failed to list route rules", err)
	}
	out := &state.RouteRules{}
	for i := range rules {
		if isDefaultRule(&rules[i]) {
			continue
		}
		out.Config = append(out.Config, ruleToEntry(&rules[i]))
	}
	if out.Config == nil {
		return nil, nil
	}
	return out, nil
}
