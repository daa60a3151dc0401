package state

// GenerateRevert returns the state that undoes desired when applied on top of
// the state reached from current.
func GenerateRevert(desired, current *NetworkState) (*NetworkState, error) {
	merged, err := Merge(desired, current)
	if err != nil {
		return nil, err
	}
	return merged.Revert(), nil
}

// Revert builds the revert state of a merge. Interfaces created by the
// desired state become absent, removed ones are restored in full and touched
// ones get back the current value of every property desired specifies.
func (m *MergedState) Revert() *NetworkState {
	revert := &NetworkState{}

	for _, des := range m.Desired.Interfaces {
		if des.IsIgnore() {
			continue
		}
		cur := m.Current.Interfaces.Find(des.Name, des.Type)
		switch {
		case cur == nil:
			if des.IsAbsent() {
				continue
			}
			revert.Interfaces = append(revert.Interfaces, &Interface{
				Name:  des.Name,
				Type:  des.Type,
				State: StateAbsent,
			})
		case des.IsAbsent():
			restored := cur.Clone()
			restored.State = cur.EffectiveState()
			revert.Interfaces = append(revert.Interfaces, restored)
		default:
			iface := projectInterface(cur, des)
			iface.generateRevertExtra(des, cur)
			revert.Interfaces = append(revert.Interfaces, iface)
		}
	}

	revert.Routes = m.revertRoutes()
	revert.Rules = m.revertRules()
	if m.Desired.DNS != nil && m.Desired.DNS.Config != nil {
		cfg := &DNSConfig{}
		if m.Current.DNS != nil && m.Current.DNS.Config != nil {
			cfg = cloneDNS(m.Current.DNS.Config)
		}
		revert.DNS = &DNSState{Config: cfg}
	}
	return revert
}

// generateRevertExtra fixes up IP sections the plain projection gets wrong.
func (iface *Interface) generateRevertExtra(desired, current *Interface) {
	if !desired.CanHaveIP() && iface.CanHaveIP() {
		iface.IPv4 = current.IPv4.Clone()
		iface.IPv6 = current.IPv6.Clone()
	}
	// Switching from static to auto without mentioning "address" leaves the
	// addresses out of the projection.
	if desired.IPv4.IsAuto() && current.IPv4 != nil && !current.IPv4.IsAuto() {
		iface.IPv4 = current.IPv4.Clone()
	}
	if desired.IPv6.IsAuto() && current.IPv6 != nil && !current.IPv6.IsAuto() {
		iface.IPv6 = current.IPv6.Clone()
	}
	if iface.IPv4 != nil {
		_ = iface.IPv4.Sanitize(false, false)
	}
	if iface.IPv6 != nil {
		_ = iface.IPv6.Sanitize(true, false)
	}
}

// projectInterface copies from src the properties des specifies.
func projectInterface(src, des *Interface) *Interface {
	out := &Interface{Name: src.Name, Type: src.Type}
	if des.State != "" {
		out.State = src.EffectiveState()
	}
	if des.Description != "" {
		out.Description = src.Description
	}
	if des.MTU != nil && src.MTU != nil {
		out.MTU = Uint32Ptr(*src.MTU)
	}
	if des.MACAddress != "" {
		out.MACAddress = src.MACAddress
	}
	if des.Controller != nil {
		out.Controller = StringPtr(src.ControllerName())
		out.ControllerType = src.ControllerType
	}
	if des.IPv4 != nil {
		out.IPv4 = projectIP(src.IPv4)
	}
	if des.IPv6 != nil {
		out.IPv6 = projectIP(src.IPv6)
	}
	if des.LLDP != nil {
		out.LLDP = &LLDPConfig{}
		if src.LLDP != nil {
			out.LLDP.Enabled = src.LLDP.Enabled
		}
	}
	if des.MPTCP != nil {
		out.MPTCP = &MPTCPConfig{}
		if src.MPTCP != nil {
			out.MPTCP.AddressFlags = append([]string(nil), src.MPTCP.AddressFlags...)
		}
	}
	if des.Ethtool != nil {
		out.Ethtool = projectMap(src.Ethtool, des.Ethtool)
	}
	if des.IEEE8021X != nil {
		out.IEEE8021X = mergeMap(nil, src.IEEE8021X)
	}
	if des.OvsDB != nil {
		out.OvsDB = &OvsDBIfaceConfig{}
		if src.OvsDB != nil {
			out.OvsDB.ExternalIDs = src.OvsDB.ExternalIDs
		}
	}

	srcClone := src.Clone()
	if des.Ethernet != nil {
		out.Ethernet = srcClone.Ethernet
	}
	if des.Veth != nil {
		out.Veth = srcClone.Veth
	}
	if des.Bond != nil && srcClone.Bond != nil {
		out.Bond = &BondConfig{}
		if des.Bond.Mode != "" {
			out.Bond.Mode = srcClone.Bond.Mode
		}
		if des.Bond.Ports != nil {
			out.Bond.Ports = append([]string{}, srcClone.Bond.Ports...)
		}
		if des.Bond.Options != nil {
			out.Bond.Options = projectMap(srcClone.Bond.Options, des.Bond.Options)
		}
	}
	if des.Bridge != nil && srcClone.Bridge != nil {
		out.Bridge = &BridgeConfig{}
		if des.Bridge.Options != nil {
			out.Bridge.Options = srcClone.Bridge.Options
		}
		if des.Bridge.Ports != nil {
			out.Bridge.Ports = append([]BridgePortConfig{}, srcClone.Bridge.Ports...)
		}
	}
	if des.Vlan != nil {
		out.Vlan = srcClone.Vlan
	}
	if des.Vxlan != nil {
		out.Vxlan = srcClone.Vxlan
	}
	if des.MacVlan != nil {
		out.MacVlan = srcClone.MacVlan
	}
	if des.MacVtap != nil {
		out.MacVtap = srcClone.MacVtap
	}
	if des.Vrf != nil && srcClone.Vrf != nil {
		out.Vrf = &VrfConfig{TableID: srcClone.Vrf.TableID}
		if des.Vrf.Ports != nil {
			out.Vrf.Ports = append([]string{}, srcClone.Vrf.Ports...)
		}
	}
	if des.InfiniBand != nil {
		out.InfiniBand = srcClone.InfiniBand
	}
	return out
}

// projectIP returns src or, when it has no IP section, a disabled one.
func projectIP(src *InterfaceIP) *InterfaceIP {
	if src == nil {
		return &InterfaceIP{Enabled: false}
	}
	out := src.Clone()
	if out.Enabled && out.Addresses == nil && !out.IsAuto() {
		// no static addresses, not "keep current"
		out.Addresses = []IPAddress{}
	}
	return out
}

// projectMap keeps the keys of src that des names.
func projectMap(src, des map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(des))
	for k := range des {
		if v, ok := src[k]; ok {
			out[k] = v
		}
	}
	return out
}

// revertRoutes removes routes added by the desired state and re-adds the
// routes it removed.
func (m *MergedState) revertRoutes() *Routes {
	var cur, merged []RouteEntry
	if m.Current.Routes != nil {
		cur = m.Current.Routes.Config
	}
	if m.Merged.Routes != nil {
		merged = m.Merged.Routes.Config
	}

	var config []RouteEntry
	for i := range merged {
		if !containsRoute(cur, &merged[i]) {
			absent := merged[i]
			absent.State = stateAbsent
			config = append(config, absent)
		}
	}
	for i := range cur {
		if !containsRoute(merged, &cur[i]) {
			config = append(config, cur[i])
		}
	}
	if config == nil {
		return nil
	}
	return &Routes{Config: config}
}

func (m *MergedState) revertRules() *RouteRules {
	var cur, merged []RouteRuleEntry
	if m.Current.Rules != nil {
		cur = m.Current.Rules.Config
	}
	if m.Merged.Rules != nil {
		merged = m.Merged.Rules.Config
	}

	var config []RouteRuleEntry
	for i := range merged {
		if !containsRule(cur, &merged[i]) {
			absent := merged[i]
			absent.State = stateAbsent
			config = append(config, absent)
		}
	}
	for i := range cur {
		if !containsRule(merged, &cur[i]) {
			config = append(config, cur[i])
		}
	}
	if config == nil {
		return nil
	}
	return &RouteRules{Config: config}
}
