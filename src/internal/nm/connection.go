package nm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// NetworkManager setting and connection type names.
const (
	SettingBridge       = "bridge"
	SettingWired        = "802-3-ethernet"
	SettingOvsBridge    = "ovs-bridge"
	SettingOvsPort      = "ovs-port"
	SettingOvsInterface = "ovs-interface"
	SettingVeth         = "veth"
	SettingBond         = "bond"
	SettingDummy        = "dummy"
	SettingMacVlan      = "macvlan"
	SettingVrf          = "vrf"
	SettingVlan         = "vlan"
	SettingVxlan        = "vxlan"
	SettingInfiniBand   = "infiniband"
)

// typeOvsPort is the pseudo interface type of OVS port profiles.
const typeOvsPort state.InterfaceType = "ovs-port"

// FlagExternal marks a profile NetworkManager generated for an interface it
// does not manage.
const FlagExternal = "external"

// Connection is a NetworkManager connection profile. Nil settings are not
// rendered.
type Connection struct {
	Connection *SettingConnection
	IPv4       *SettingIP
	IPv6       *SettingIP
	Wired      *SettingWiredConf
	Bond       *SettingBondConf
	Bridge     *SettingBridgeConf
	BridgePort *SettingBridgePort
	Vlan       *SettingVlanConf
	Vxlan      *SettingVxlanConf
	MacVlan    *SettingMacVlanConf
	Vrf        *SettingVrfConf
	Veth       *SettingVethConf
	InfiniBand *SettingInfiniBandConf
	OvsBridge  *SettingOvsBridgeConf
	OvsPort    *SettingOvsPortConf
	OvsIface   *SettingOvsIfaceConf
	OvsExtIDs  *SettingOvsExternalIDs
	Sriov      *SettingSriov
	User       *SettingUser
	IEEE8021X  *Setting8021X
	Ethtool    *SettingEthtool

	// Flags are runtime flags of existing profiles, never rendered.
	Flags []string
}

// ID returns the connection id or "".
func (c *Connection) ID() string {
	if c.Connection == nil {
		return ""
	}
	return c.Connection.ID
}

// UUID returns the connection uuid or "".
func (c *Connection) UUID() string {
	if c.Connection == nil {
		return ""
	}
	return c.Connection.UUID
}

// IfaceName returns the interface-name of the profile or "".
func (c *Connection) IfaceName() string {
	if c.Connection == nil {
		return ""
	}
	return c.Connection.IfaceName
}

// IfaceType returns the NetworkManager connection type or "".
func (c *Connection) IfaceType() string {
	if c.Connection == nil {
		return ""
	}
	return c.Connection.Type
}

// ControllerType returns the port-type of the profile or "".
func (c *Connection) ControllerType() string {
	if c.Connection == nil {
		return ""
	}
	return c.Connection.PortType
}

// HasFlag reports whether the profile carries the runtime flag.
func (c *Connection) HasFlag(flag string) bool {
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Clone returns a copy sharing no connection setting with c.
func (c *Connection) Clone() *Connection {
	out := *c
	if c.Connection != nil {
		conn := *c.Connection
		out.Connection = &conn
	}
	out.Flags = append([]string(nil), c.Flags...)
	return &out
}

// Generator turns interfaces into connection profiles.
type Generator struct {
	// Existing profiles; new UUIDs are random unless this is empty.
	Existing []*Connection
	// ActiveUUIDs lists the UUIDs of activated profiles.
	ActiveUUIDs []string
	// Desired supplies routes, rules and DNS for the generated profiles.
	Desired *state.NetworkState
	// Current is the running state, used for external and unmanaged
	// interfaces.
	Current *state.NetworkState
}

// IfaceToConnections returns the profile for iface followed by any helper
// profile it needs: OVS ports of a bridge, the peer of a veth or the OVS port
// of a system interface attached to an OVS bridge not in the desired state.
func (g *Generator) IfaceToConnections(iface, ctrlIface *state.Interface, vethPeerInDesired bool) ([]*Connection, error) {
	existing := ExistingProfile(g.Existing, iface.Name, iface.Type, g.ActiveUUIDs)

	if isUpExistConfig(iface) {
		if existing != nil {
			if !iface.Type.IsUserspace() && existing.HasFlag(FlagExternal) {
				// Persist the runtime config of an external interface.
				if cur := g.currentKernelIface(iface.Name); cur != nil && !isUpExistConfig(cur) {
					if cur.Type == state.TypeEthernet {
						cur.Veth = nil
					}
					return g.withRoutesFrom(g.Current).IfaceToConnections(cur, ctrlIface, vethPeerInDesired)
				}
			}
			return []*Connection{existing.Clone()}, nil
		}
		if !iface.Type.IsUserspace() {
			if cur := g.currentKernelIface(iface.Name); cur != nil && cur.IsIgnore() {
				// Turn an unmanaged interface into a managed one.
				cur.State = state.StateUp
				return g.withRoutesFrom(g.Current).IfaceToConnections(cur, ctrlIface, vethPeerInDesired)
			}
		}
	}

	conn := &Connection{}
	if existing != nil {
		conn = existing.Clone()
	}
	conn.Flags = nil

	// Stable UUIDs make the output reproducible when no profile can clash.
	stableUUID := len(g.Existing) == 0

	if err := GenConnSetting(iface, conn, stableUUID); err != nil {
		return nil, err
	}
	// Interfaces attach to the OVS port, not to the bridge itself.
	if iface.ControllerType == state.TypeOvsBridge && iface.HasController() {
		conn.Connection.Controller = ovsPortFor(ctrlIface, iface.Name)
	}
	g.genIPSetting(iface, conn)
	// InfiniBand over IP has no layer 2 configuration.
	if iface.Type != state.TypeInfiniBand {
		genWiredSetting(iface, conn)
	}
	genOvsExtIDsSetting(iface, conn)
	gen8021XSetting(iface, conn)
	genUserSetting(iface, conn)
	if err := genEthtoolSetting(iface, conn); err != nil {
		return nil, err
	}

	var extra []*Connection
	switch iface.Type {
	case state.TypeOvsBridge:
		genOvsBridgeSetting(iface, conn)
		if iface.Bridge != nil {
			for i := range iface.Bridge.Ports {
				portConf := &iface.Bridge.Ports[i]
				existingPort := ExistingProfile(g.Existing, ovsPortIfaceName(portConf), typeOvsPort, g.ActiveUUIDs)
				portConn, err := createOvsPortConnection(iface.Name, portConf, existingPort, stableUUID)
				if err != nil {
					return nil, err
				}
				extra = append(extra, portConn)
			}
		}
	case state.TypeLinuxBridge:
		genBridgeSetting(iface, conn)
	case state.TypeBond:
		genBondSetting(iface, conn)
	case state.TypeOvsInterface:
		conn.OvsIface = &SettingOvsIfaceConf{Type: "internal"}
	case state.TypeVlan:
		if iface.Vlan != nil {
			conn.Vlan = newVlanSetting(iface.Vlan)
		}
	case state.TypeVxlan:
		if iface.Vxlan != nil {
			conn.Vxlan = newVxlanSetting(iface.Vxlan)
		}
	case state.TypeEthernet:
		if iface.Veth != nil {
			conn.Veth = &SettingVethConf{Peer: iface.Veth.Peer}
			if !vethPeerInDesired {
				// The peer needs a profile too or the veth stays down.
				peer, err := createVethPeerProfileIfNotFound(iface.Veth.Peer, iface.Name, g.Existing, stableUUID)
				if err != nil {
					return nil, err
				}
				extra = append(extra, peer)
			}
		}
		genSriovSetting(iface, conn)
	case state.TypeMacVlan:
		if iface.MacVlan != nil {
			conn.MacVlan = newMacVlanSetting(iface.MacVlan, false)
		}
	case state.TypeMacVtap:
		if iface.MacVtap != nil {
			conn.MacVlan = newMacVlanSetting(iface.MacVtap, true)
		}
	case state.TypeVrf:
		if iface.Vrf != nil {
			conn.Vrf = &SettingVrfConf{Table: iface.Vrf.TableID}
		}
	case state.TypeInfiniBand:
		genInfiniBandSetting(iface, conn)
	}

	if conn.ControllerType() != SettingBridge {
		conn.BridgePort = nil
	}
	if conn.ControllerType() != SettingOvsPort {
		conn.OvsIface = nil
	}
	if ctrlIface != nil && ctrlIface.Type == state.TypeLinuxBridge {
		genBridgePortSetting(ctrlIface, iface.Name, conn)
	}
	// Detaching a system interface from an OVS bridge.
	if iface.Controller != nil && *iface.Controller == "" {
		conn.OvsIface = nil
	}

	// A system port attached through "controller" to an OVS bridge missing
	// from the desired state needs its OVS port created here.
	if iface.ControllerType == state.TypeOvsBridge && ctrlIface == nil && iface.HasController() {
		portConn, err := createOvsPortConnection(iface.ControllerName(),
			&state.BridgePortConfig{Name: iface.Name}, nil, stableUUID)
		if err != nil {
			return nil, err
		}
		extra = append(extra, portConn)
	}

	return append([]*Connection{conn}, extra...), nil
}

func (g *Generator) withRoutesFrom(ns *state.NetworkState) *Generator {
	out := *g
	out.Desired = ns
	return &out
}

func (g *Generator) currentKernelIface(name string) *state.Interface {
	if g.Current == nil {
		return nil
	}
	return g.Current.Interfaces.GetKernel(name).Clone()
}

// isUpExistConfig reports whether iface only asks to activate whatever is
// configured already.
func isUpExistConfig(iface *state.Interface) bool {
	if !iface.IsUp() {
		return false
	}
	bare := &state.Interface{Name: iface.Name, Type: iface.Type, State: iface.State}
	a, errA := json.Marshal(iface)
	b, errB := json.Marshal(bare)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// IfaceTypeToNM maps an interface type to the NetworkManager connection type.
// Types nmstate does not know are passed through.
func IfaceTypeToNM(t state.InterfaceType) (string, error) {
	switch t {
	case state.TypeLinuxBridge:
		return SettingBridge, nil
	case state.TypeBond:
		return SettingBond, nil
	case state.TypeEthernet:
		return SettingWired, nil
	case state.TypeOvsBridge:
		return SettingOvsBridge, nil
	case state.TypeOvsInterface:
		return SettingOvsInterface, nil
	case state.TypeVlan:
		return SettingVlan, nil
	case state.TypeVxlan:
		return SettingVxlan, nil
	case state.TypeDummy:
		return SettingDummy, nil
	case state.TypeMacVlan, state.TypeMacVtap:
		return SettingMacVlan, nil
	case state.TypeVrf:
		return SettingVrf, nil
	case state.TypeVeth:
		return SettingVeth, nil
	case state.TypeInfiniBand:
		return SettingInfiniBand, nil
	case state.TypeLoopback, state.TypeUnknown, "":
		return "", errors.NewNotImplemented(fmt.Sprintf("Does not support iface type: %s yet", t))
	}
	return string(t), nil
}

// GenConnSetting fills the connection setting of conn. An existing setting
// keeps its id, uuid and type.
func GenConnSetting(iface *state.Interface, conn *Connection, stableUUID bool) error {
	var setting SettingConnection
	if conn.Connection != nil {
		setting = *conn.Connection
	} else {
		switch iface.Type {
		case state.TypeOvsBridge:
			setting.ID = iface.Name + "-br"
		case typeOvsPort:
			setting.ID = iface.Name + "-port"
		case state.TypeOvsInterface:
			setting.ID = iface.Name + "-if"
		default:
			setting.ID = iface.Name
		}
		if stableUUID {
			setting.UUID = UUIDFromNameAndType(iface.Name, iface.Type)
		} else {
			setting.UUID = uuid.NewString()
		}
		nmType, err := IfaceTypeToNM(iface.Type)
		if err != nil {
			return err
		}
		setting.Type = nmType
		if iface.Type == state.TypeEthernet && iface.Veth != nil {
			setting.Type = SettingVeth
		}
	}

	setting.IfaceName = iface.Name
	setting.Autoconnect = boolPtr(true)
	setting.AutoconnectPorts = nil
	if iface.IsController() {
		setting.AutoconnectPorts = boolPtr(true)
	}

	if iface.Controller != nil {
		ctrlName := *iface.Controller
		if ctrlName == "" {
			setting.Controller = ""
			setting.PortType = ""
		} else if iface.ControllerType != "" {
			nmCtrlType, err := IfaceTypeToNM(iface.ControllerType)
			if err != nil {
				return err
			}
			setting.Controller = ctrlName
			setting.PortType = nmCtrlType
			if nmCtrlType == SettingOvsBridge && iface.Type != typeOvsPort {
				setting.PortType = SettingOvsPort
			}
		}
	}
	if iface.LLDP != nil {
		setting.LLDP = boolPtr(iface.LLDP.Enabled)
	}
	if iface.MPTCP != nil {
		flags, err := mptcpFlags(iface.MPTCP)
		if err != nil {
			return err
		}
		setting.MptcpFlags = &flags
	}

	conn.Connection = &setting
	return nil
}

// UUIDFromNameAndType returns a UUIDv5 derived from "<type>://<name>".
func UUIDFromNameAndType(name string, t state.InterfaceType) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s://%s", t, name))).String()
}

// ExistingProfile finds the profile of the interface, preferring an activated
// one. Ethernet interfaces also match veth profiles.
func ExistingProfile(existing []*Connection, name string, t state.InterfaceType, activeUUIDs []string) *Connection {
	nmType, err := IfaceTypeToNM(t)
	if err != nil {
		return nil
	}
	var found *Connection
	for _, conn := range existing {
		if conn.IfaceName() != name {
			continue
		}
		if conn.IfaceType() != nmType && !(nmType == SettingWired && conn.IfaceType() == SettingVeth) {
			continue
		}
		for _, active := range activeUUIDs {
			if conn.UUID() != "" && conn.UUID() == active {
				return conn
			}
		}
		found = conn
	}
	return found
}

func boolPtr(v bool) *bool {
	return &v
}
