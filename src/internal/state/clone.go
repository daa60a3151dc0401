package state

import "maps"

// Clone returns a deep copy of the state. Empty lists stay empty: an empty
// port or address list means "none", a nil one means "not specified".
func (ns *NetworkState) Clone() *NetworkState {
	if ns == nil {
		return nil
	}
	out := &NetworkState{
		Routes: cloneRoutes(ns.Routes),
		Rules:  cloneRules(ns.Rules),
	}
	if ns.Interfaces != nil {
		out.Interfaces = make(Interfaces, len(ns.Interfaces))
		for i, iface := range ns.Interfaces {
			out.Interfaces[i] = iface.Clone()
		}
	}
	if ns.DNS != nil {
		out.DNS = &DNSState{Config: cloneDNS(ns.DNS.Config), Running: cloneDNS(ns.DNS.Running)}
	}
	return out
}

// Clone returns a deep copy of the interface, derived fields included.
func (iface *Interface) Clone() *Interface {
	if iface == nil {
		return nil
	}
	out := *iface
	out.MTU = clonePtr(iface.MTU)
	out.Controller = clonePtr(iface.Controller)
	out.IPv4 = iface.IPv4.Clone()
	out.IPv6 = iface.IPv6.Clone()
	out.LLDP = clonePtr(iface.LLDP)
	if iface.MPTCP != nil {
		out.MPTCP = &MPTCPConfig{AddressFlags: cloneSlice(iface.MPTCP.AddressFlags)}
	}
	out.Ethtool = cloneMap(iface.Ethtool)
	out.IEEE8021X = cloneMap(iface.IEEE8021X)
	if iface.OvsDB != nil {
		out.OvsDB = &OvsDBIfaceConfig{ExternalIDs: maps.Clone(iface.OvsDB.ExternalIDs)}
	}

	if iface.Ethernet != nil {
		eth := *iface.Ethernet
		eth.AutoNegotiation = clonePtr(eth.AutoNegotiation)
		eth.SRIOV = cloneMap(eth.SRIOV)
		out.Ethernet = &eth
	}
	out.Veth = clonePtr(iface.Veth)
	if iface.Bond != nil {
		out.Bond = &BondConfig{
			Mode:    iface.Bond.Mode,
			Ports:   cloneSlice(iface.Bond.Ports),
			Options: cloneMap(iface.Bond.Options),
		}
	}
	out.Bridge = iface.Bridge.clone()
	out.Vlan = clonePtr(iface.Vlan)
	if iface.Vxlan != nil {
		vxlan := *iface.Vxlan
		vxlan.DestinationPort = clonePtr(vxlan.DestinationPort)
		out.Vxlan = &vxlan
	}
	out.MacVlan = iface.MacVlan.clone()
	out.MacVtap = iface.MacVtap.clone()
	if iface.Vrf != nil {
		out.Vrf = &VrfConfig{Ports: cloneSlice(iface.Vrf.Ports), TableID: iface.Vrf.TableID}
	}
	out.InfiniBand = clonePtr(iface.InfiniBand)
	return &out
}

func (b *BridgeConfig) clone() *BridgeConfig {
	if b == nil {
		return nil
	}
	out := &BridgeConfig{}
	if b.Options != nil {
		opts := &BridgeOptions{MulticastSnoop: clonePtr(b.Options.MulticastSnoop)}
		if stp := b.Options.STP; stp != nil {
			opts.STP = &BridgeSTPOptions{
				Enabled:      clonePtr(stp.Enabled),
				ForwardDelay: clonePtr(stp.ForwardDelay),
				HelloTime:    clonePtr(stp.HelloTime),
				MaxAge:       clonePtr(stp.MaxAge),
				Priority:     clonePtr(stp.Priority),
			}
		}
		out.Options = opts
	}
	if b.Ports != nil {
		out.Ports = make([]BridgePortConfig, len(b.Ports))
		for i, p := range b.Ports {
			p.STPPriority = clonePtr(p.STPPriority)
			p.STPPathCost = clonePtr(p.STPPathCost)
			p.Vlan = cloneMap(p.Vlan)
			if p.LinkAggregation != nil {
				p.LinkAggregation = &OvsBondConfig{
					Mode:  p.LinkAggregation.Mode,
					Ports: cloneSlice(p.LinkAggregation.Ports),
				}
			}
			out.Ports[i] = p
		}
	}
	return out
}

func (m *MacVlanConfig) clone() *MacVlanConfig {
	if m == nil {
		return nil
	}
	out := *m
	out.Promiscuous = clonePtr(m.Promiscuous)
	return &out
}

func cloneRoutes(r *Routes) *Routes {
	if r == nil {
		return nil
	}
	return &Routes{Config: cloneRouteEntries(r.Config), Running: cloneRouteEntries(r.Running)}
}

func cloneRouteEntries(entries []RouteEntry) []RouteEntry {
	if entries == nil {
		return nil
	}
	out := make([]RouteEntry, len(entries))
	for i, e := range entries {
		e.Metric = clonePtr(e.Metric)
		e.TableID = clonePtr(e.TableID)
		out[i] = e
	}
	return out
}

func cloneRules(r *RouteRules) *RouteRules {
	if r == nil {
		return nil
	}
	out := &RouteRules{}
	if r.Config != nil {
		out.Config = make([]RouteRuleEntry, len(r.Config))
		for i, e := range r.Config {
			e.Priority = clonePtr(e.Priority)
			e.RouteTable = clonePtr(e.RouteTable)
			e.FwMark = clonePtr(e.FwMark)
			e.FwMask = clonePtr(e.FwMask)
			out.Config[i] = e
		}
	}
	return out
}

func cloneDNS(c *DNSConfig) *DNSConfig {
	if c == nil {
		return nil
	}
	return &DNSConfig{Server: cloneSlice(c.Server), Search: cloneSlice(c.Search)}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// cloneSlice copies s, keeping nil and empty apart.
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// cloneMap deep copies a decoded JSON object.
func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	}
	return v
}
