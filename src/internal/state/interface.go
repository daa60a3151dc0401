package state

import "strings"

// EffectiveState returns the state, defaulting to up.
func (iface *Interface) EffectiveState() InterfaceState {
	if iface.State == "" {
		return StateUp
	}
	return iface.State
}

func (iface *Interface) IsUp() bool {
	return iface.EffectiveState() == StateUp
}

func (iface *Interface) IsAbsent() bool {
	return iface.State == StateAbsent
}

func (iface *Interface) IsIgnore() bool {
	return iface.State == StateIgnore
}

// IsVirtual reports whether the interface can be created and deleted.
func (iface *Interface) IsVirtual() bool {
	return iface.Type.IsVirtual() || iface.Veth != nil
}

// ControllerName returns the controller, or "" when detached or unspecified.
func (iface *Interface) ControllerName() string {
	if iface.Controller == nil {
		return ""
	}
	return *iface.Controller
}

// HasController reports whether the interface is attached to a controller.
func (iface *Interface) HasController() bool {
	return iface.ControllerName() != ""
}

// CanHaveIP reports whether IP configuration is meaningful. Ports cannot
// carry IP, except VRF ports and OVS internal interfaces.
func (iface *Interface) CanHaveIP() bool {
	switch iface.Type {
	case TypeOvsBridge:
		return false
	case TypeOvsInterface:
		return true
	}
	if iface.HasController() && iface.ControllerType != TypeVrf {
		return false
	}
	return true
}

// IsController reports whether this interface holds ports.
func (iface *Interface) IsController() bool {
	return iface.Type.IsController()
}

// Ports returns the ports of a controller interface, or nil when the port
// list is not specified.
func (iface *Interface) Ports() []string {
	switch iface.Type {
	case TypeBond:
		if iface.Bond != nil {
			return iface.Bond.Ports
		}
	case TypeLinuxBridge, TypeOvsBridge:
		if iface.Bridge != nil && iface.Bridge.Ports != nil {
			names := make([]string, 0, len(iface.Bridge.Ports))
			for _, p := range iface.Bridge.Ports {
				names = append(names, p.Name)
				if p.LinkAggregation != nil {
					names = append(names, p.LinkAggregation.Ports...)
				}
			}
			return names
		}
	case TypeVrf:
		if iface.Vrf != nil {
			return iface.Vrf.Ports
		}
	}
	return nil
}

// PortsSpecified reports whether the controller's port list was given.
func (iface *Interface) PortsSpecified() bool {
	switch iface.Type {
	case TypeBond:
		return iface.Bond != nil && iface.Bond.Ports != nil
	case TypeLinuxBridge, TypeOvsBridge:
		return iface.Bridge != nil && iface.Bridge.Ports != nil
	case TypeVrf:
		return iface.Vrf != nil && iface.Vrf.Ports != nil
	}
	return false
}

// ParentName returns the interface this one is stacked on, if any.
func (iface *Interface) ParentName() string {
	switch {
	case iface.Vlan != nil:
		return iface.Vlan.BaseIface
	case iface.Vxlan != nil:
		return iface.Vxlan.BaseIface
	case iface.MacVlan != nil:
		return iface.MacVlan.BaseIface
	case iface.MacVtap != nil:
		return iface.MacVtap.BaseIface
	case iface.InfiniBand != nil:
		return iface.InfiniBand.BaseIface
	}
	return ""
}

// Sanitize normalizes the interface in place.
func (iface *Interface) Sanitize(isDesired bool) error {
	if iface.MACAddress != "" {
		iface.MACAddress = strings.ToUpper(iface.MACAddress)
	}
	if iface.IPv4 != nil {
		if err := iface.IPv4.Sanitize(false, isDesired); err != nil {
			return err
		}
	}
	if iface.IPv6 != nil {
		if err := iface.IPv6.Sanitize(true, isDesired); err != nil {
			return err
		}
	}
	if !iface.CanHaveIP() && !isDesired {
		iface.IPv4 = nil
		iface.IPv6 = nil
	}
	// veth is reported as ethernet with a veth section
	if iface.Type == TypeVeth {
		iface.Type = TypeEthernet
	}
	return nil
}
