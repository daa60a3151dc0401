package state

import (
	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
)

// MergedState is the outcome of applying a desired state onto the current
// one.
type MergedState struct {
	// Desired is the user request with interface types and controller
	// relations resolved. Ports pulled in or released by a controller port
	// list are added here.
	Desired *NetworkState
	// Current is the state the merge started from.
	Current *NetworkState
	// Merged is the full state expected once Desired is applied.
	Merged *NetworkState
}

// Merge resolves desired against current. Neither argument is modified.
func Merge(desired, current *NetworkState) (*MergedState, error) {
	des := desired.Clone()
	cur := current.Clone()
	if cur == nil {
		cur = &NetworkState{}
	}

	if err := resolveTypes(des, cur); err != nil {
		return nil, err
	}
	if err := resolveControllers(des, cur); err != nil {
		return nil, err
	}

	merged := cur.Clone()
	removed := make(map[string]bool)
	for _, desIface := range des.Interfaces {
		if desIface.IsIgnore() {
			continue
		}
		curIface := merged.Interfaces.Find(desIface.Name, desIface.Type)
		switch {
		case desIface.IsAbsent():
			removed[desIface.Name] = true
			if curIface != nil {
				curIface.State = StateAbsent
			}
		case curIface == nil:
			merged.Interfaces = append(merged.Interfaces, desIface.Clone())
		default:
			mergeInterface(curIface, desIface)
		}
	}

	merged.Routes = mergeRoutes(cur.Routes, des.Routes, removed)
	merged.Rules = mergeRules(cur.Rules, des.Rules)
	if des.DNS != nil && des.DNS.Config != nil {
		dnsState := &DNSState{Config: cloneDNS(des.DNS.Config)}
		if cur.DNS != nil {
			dnsState.Running = cloneDNS(cur.DNS.Running)
		}
		merged.DNS = dnsState
	}

	if err := merged.Sanitize(true); err != nil {
		return nil, err
	}

	return &MergedState{Desired: des, Current: cur, Merged: merged}, nil
}

// resolveTypes fills in the type of desired interfaces that omit it.
func resolveTypes(des, cur *NetworkState) error {
	for _, iface := range des.Interfaces {
		if iface.Type == TypeVeth {
			iface.Type = TypeEthernet
		}
		if iface.Type != "" {
			continue
		}
		if existing := cur.Interfaces.Get(iface.Name); existing != nil {
			iface.Type = existing.Type
			continue
		}
		if iface.IsAbsent() || iface.IsIgnore() {
			log.Debugf("Interface %s does not exist, nothing to do for state %s", iface.Name, iface.State)
			iface.Type = TypeUnknown
			continue
		}
		return errors.Newf(errors.KindInvalidArgument,
			"interface %s does not exist and its type is not specified", iface.Name)
	}
	return nil
}

// resolveControllers attaches ports listed by desired controllers, detaches
// ports dropped from a port list and fills ControllerType for ports naming
// their controller.
func resolveControllers(des, cur *NetworkState) error {
	for _, ctrl := range append(Interfaces(nil), des.Interfaces...) {
		if !ctrl.IsController() || ctrl.IsAbsent() || !ctrl.PortsSpecified() {
			continue
		}
		wanted := make(map[string]bool)
		for _, portName := range ctrl.Ports() {
			wanted[portName] = true
			port := des.Interfaces.GetKernel(portName)
			if port == nil {
				existing := cur.Interfaces.GetKernel(portName)
				if existing == nil {
					if ctrl.Type == TypeOvsBridge {
						// Internal ports of an OVS bridge are created with it.
						port = &Interface{Name: portName, Type: TypeOvsInterface}
					} else {
						return errors.Newf(errors.KindInvalidArgument,
							"port %s of %s %s does not exist", portName, ctrl.Type, ctrl.Name)
					}
				} else {
					port = &Interface{Name: portName, Type: existing.Type}
				}
				des.Interfaces = append(des.Interfaces, port)
			}
			port.Controller = StringPtr(ctrl.Name)
			port.ControllerType = ctrl.Type
		}

		curCtrl := cur.Interfaces.Find(ctrl.Name, ctrl.Type)
		if curCtrl == nil {
			continue
		}
		for _, portName := range curCtrl.Ports() {
			if wanted[portName] {
				continue
			}
			port := des.Interfaces.GetKernel(portName)
			if port == nil {
				existing := cur.Interfaces.GetKernel(portName)
				if existing == nil {
					continue
				}
				port = &Interface{Name: portName, Type: existing.Type}
				des.Interfaces = append(des.Interfaces, port)
			}
			if port.Controller == nil || *port.Controller == ctrl.Name {
				log.Debugf("Detaching %s from %s", portName, ctrl.Name)
				port.Controller = StringPtr("")
				port.ControllerType = ""
			}
		}
	}

	for _, iface := range des.Interfaces {
		if !iface.HasController() || iface.ControllerType != "" {
			continue
		}
		ctrl := des.Interfaces.Get(iface.ControllerName())
		if ctrl == nil || ctrl.Type == TypeUnknown {
			ctrl = cur.Interfaces.Get(iface.ControllerName())
		}
		if ctrl == nil {
			return errors.Newf(errors.KindInvalidArgument,
				"controller %s of interface %s does not exist", iface.ControllerName(), iface.Name)
		}
		if ctrl.IsAbsent() {
			return errors.Newf(errors.KindInvalidArgument,
				"interface %s cannot be attached to %s marked absent", iface.Name, ctrl.Name)
		}
		if !ctrl.IsController() {
			return errors.Newf(errors.KindInvalidArgument,
				"interface %s cannot be attached to %s of type %s", iface.Name, ctrl.Name, ctrl.Type)
		}
		iface.ControllerType = ctrl.Type
	}

	// Current ports keep their controller type so CanHaveIP stays accurate.
	for _, iface := range cur.Interfaces {
		if iface.HasController() && iface.ControllerType == "" {
			if ctrl := cur.Interfaces.Get(iface.ControllerName()); ctrl != nil {
				iface.ControllerType = ctrl.Type
			}
		}
	}
	return nil
}

// mergeInterface overlays the properties des specifies onto cur.
func mergeInterface(cur, des *Interface) {
	if des.State != "" {
		cur.State = des.State
	}
	if des.Description != "" {
		cur.Description = des.Description
	}
	if des.MTU != nil {
		mtu := *des.MTU
		cur.MTU = &mtu
	}
	if des.MACAddress != "" {
		cur.MACAddress = des.MACAddress
	}
	if des.Controller != nil {
		cur.Controller = StringPtr(*des.Controller)
		cur.ControllerType = des.ControllerType
	}

	if des.IPv4 != nil {
		cur.IPv4 = mergeIP(cur.IPv4, des.IPv4)
	}
	if des.IPv6 != nil {
		cur.IPv6 = mergeIP(cur.IPv6, des.IPv6)
	}
	if !cur.CanHaveIP() {
		cur.IPv4 = nil
		cur.IPv6 = nil
	}

	if des.LLDP != nil {
		cur.LLDP = &LLDPConfig{Enabled: des.LLDP.Enabled}
	}
	if des.MPTCP != nil {
		cur.MPTCP = &MPTCPConfig{AddressFlags: append([]string(nil), des.MPTCP.AddressFlags...)}
	}
	if des.Ethtool != nil {
		cur.Ethtool = mergeMap(cur.Ethtool, des.Ethtool)
	}
	if des.IEEE8021X != nil {
		cur.IEEE8021X = des.IEEE8021X
	}
	if des.OvsDB != nil {
		cur.OvsDB = des.OvsDB
	}

	if des.Ethernet != nil {
		cur.Ethernet = des.Ethernet
	}
	if des.Veth != nil {
		cur.Veth = &VethConfig{Peer: des.Veth.Peer}
	}
	if des.Bond != nil {
		cur.Bond = mergeBond(cur.Bond, des.Bond)
	}
	if des.Bridge != nil {
		cur.Bridge = mergeBridge(cur.Bridge, des.Bridge)
	}
	if des.Vlan != nil {
		v := *des.Vlan
		cur.Vlan = &v
	}
	if des.Vxlan != nil {
		v := *des.Vxlan
		cur.Vxlan = &v
	}
	if des.MacVlan != nil {
		v := *des.MacVlan
		cur.MacVlan = &v
	}
	if des.MacVtap != nil {
		v := *des.MacVtap
		cur.MacVtap = &v
	}
	if des.Vrf != nil {
		cur.Vrf = mergeVrf(cur.Vrf, des.Vrf)
	}
	if des.InfiniBand != nil {
		v := *des.InfiniBand
		cur.InfiniBand = &v
	}
}

// mergeIP keeps current DHCP/autoconf flags the desired section leaves out.
// Static sections without addresses keep the current addresses.
func mergeIP(cur, des *InterfaceIP) *InterfaceIP {
	out := des.Clone()
	if cur == nil || !out.Enabled || !cur.Enabled {
		return out
	}
	if out.DHCP == nil {
		out.DHCP = cloneBool(cur.DHCP)
	}
	if out.Autoconf == nil {
		out.Autoconf = cloneBool(cur.Autoconf)
	}
	if out.AutoDNS == nil {
		out.AutoDNS = cloneBool(cur.AutoDNS)
	}
	if out.AutoRoutes == nil {
		out.AutoRoutes = cloneBool(cur.AutoRoutes)
	}
	if out.AutoGateway == nil {
		out.AutoGateway = cloneBool(cur.AutoGateway)
	}
	if out.Addresses == nil && !out.IsAuto() {
		out.Addresses = append([]IPAddress(nil), cur.Addresses...)
	}
	return out
}

func mergeBond(cur, des *BondConfig) *BondConfig {
	out := &BondConfig{}
	if cur != nil {
		out.Mode = cur.Mode
		out.Ports = append([]string(nil), cur.Ports...)
		out.Options = mergeMap(nil, cur.Options)
	}
	if des.Mode != "" && des.Mode != out.Mode {
		// Options of the old mode rarely apply to the new one.
		out.Mode = des.Mode
		out.Options = nil
	}
	if des.Ports != nil {
		out.Ports = append([]string{}, des.Ports...)
	}
	if des.Options != nil {
		out.Options = mergeMap(out.Options, des.Options)
	}
	return out
}

func mergeBridge(cur, des *BridgeConfig) *BridgeConfig {
	out := &BridgeConfig{}
	if cur != nil {
		out.Options = cur.Options
		out.Ports = append([]BridgePortConfig(nil), cur.Ports...)
	}
	if des.Options != nil {
		opts := &BridgeOptions{}
		if out.Options != nil {
			*opts = *out.Options
		}
		if des.Options.STP != nil {
			stp := &BridgeSTPOptions{}
			if opts.STP != nil {
				*stp = *opts.STP
			}
			mergeSTP(stp, des.Options.STP)
			opts.STP = stp
		}
		if des.Options.MulticastSnoop != nil {
			opts.MulticastSnoop = cloneBool(des.Options.MulticastSnoop)
		}
		out.Options = opts
	}
	if des.Ports != nil {
		out.Ports = append([]BridgePortConfig{}, des.Ports...)
	}
	return out
}

func mergeSTP(out, des *BridgeSTPOptions) {
	if des.Enabled != nil {
		out.Enabled = cloneBool(des.Enabled)
	}
	for _, f := range []struct{ dst, src **uint32 }{
		{&out.ForwardDelay, &des.ForwardDelay},
		{&out.HelloTime, &des.HelloTime},
		{&out.MaxAge, &des.MaxAge},
		{&out.Priority, &des.Priority},
	} {
		if *f.src != nil {
			*f.dst = Uint32Ptr(**f.src)
		}
	}
}

func mergeVrf(cur, des *VrfConfig) *VrfConfig {
	out := &VrfConfig{}
	if cur != nil {
		out.TableID = cur.TableID
		out.Ports = append([]string(nil), cur.Ports...)
	}
	if des.TableID != 0 {
		out.TableID = des.TableID
	}
	if des.Ports != nil {
		out.Ports = append([]string{}, des.Ports...)
	}
	return out
}

func mergeMap(cur, des map[string]interface{}) map[string]interface{} {
	if cur == nil && des == nil {
		return nil
	}
	out := make(map[string]interface{}, len(cur)+len(des))
	for k, v := range cur {
		out[k] = v
	}
	for k, v := range des {
		out[k] = v
	}
	return out
}

