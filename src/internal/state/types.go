package state

import (
	"sort"
)

// InterfaceType is the nmstate interface type. Values nmstate does not know
// are kept verbatim.
type InterfaceType string

const (
	TypeEthernet     InterfaceType = "ethernet"
	TypeVeth         InterfaceType = "veth"
	TypeBond         InterfaceType = "bond"
	TypeLinuxBridge  InterfaceType = "linux-bridge"
	TypeVlan         InterfaceType = "vlan"
	TypeVxlan        InterfaceType = "vxlan"
	TypeDummy        InterfaceType = "dummy"
	TypeMacVlan      InterfaceType = "mac-vlan"
	TypeMacVtap      InterfaceType = "mac-vtap"
	TypeVrf          InterfaceType = "vrf"
	TypeInfiniBand   InterfaceType = "infiniband"
	TypeOvsBridge    InterfaceType = "ovs-bridge"
	TypeOvsInterface InterfaceType = "ovs-interface"
	TypeLoopback     InterfaceType = "loopback"
	TypeUnknown      InterfaceType = "unknown"
)

// IsUserspace reports whether the interface only exists in a userspace
// daemon and never shows up as a kernel link.
func (t InterfaceType) IsUserspace() bool {
	return t == TypeOvsBridge
}

// IsController reports whether interfaces of this type hold ports.
func (t InterfaceType) IsController() bool {
	switch t {
	case TypeBond, TypeLinuxBridge, TypeOvsBridge, TypeVrf:
		return true
	}
	return false
}

// IsVirtual reports whether the interface is created by software and can
// therefore be deleted.
func (t InterfaceType) IsVirtual() bool {
	switch t {
	case TypeEthernet, TypeInfiniBand, TypeLoopback, TypeUnknown, "":
		return false
	}
	return true
}

// InterfaceState is the administrative state requested for an interface.
type InterfaceState string

const (
	StateUp     InterfaceState = "up"
	StateDown   InterfaceState = "down"
	StateAbsent InterfaceState = "absent"
	StateIgnore InterfaceState = "ignore"
)

// NetworkState is the full declarative document.
type NetworkState struct {
	Interfaces Interfaces  `json:"interfaces,omitempty"`
	Routes     *Routes     `json:"routes,omitempty"`
	Rules      *RouteRules `json:"route-rules,omitempty"`
	DNS        *DNSState   `json:"dns-resolver,omitempty"`
}

// Interfaces is an ordered list of interfaces.
type Interfaces []*Interface

// Interface holds the base properties shared by all types plus the optional
// type specific sections.
type Interface struct {
	Name        string         `json:"name" validate:"required,ifname"`
	Type        InterfaceType  `json:"type,omitempty"`
	State       InterfaceState `json:"state,omitempty" validate:"omitempty,oneof=up down absent ignore"`
	Description string         `json:"description,omitempty"`
	MTU         *uint32        `json:"mtu,omitempty" validate:"omitempty,min=68,max=65535"`
	MACAddress  string         `json:"mac-address,omitempty" validate:"omitempty,mac"`
	// Controller is nil when not specified and "" to detach from the
	// current controller.
	Controller *string `json:"controller,omitempty"`
	// ControllerType is derived from the controller interface.
	ControllerType InterfaceType `json:"-"`

	IPv4      *InterfaceIP           `json:"ipv4,omitempty" validate:"omitempty"`
	IPv6      *InterfaceIP           `json:"ipv6,omitempty" validate:"omitempty"`
	LLDP      *LLDPConfig            `json:"lldp,omitempty"`
	MPTCP     *MPTCPConfig           `json:"mptcp,omitempty"`
	Ethtool   map[string]interface{} `json:"ethtool,omitempty"`
	IEEE8021X map[string]interface{} `json:"802.1x,omitempty"`
	OvsDB     *OvsDBIfaceConfig      `json:"ovs-db,omitempty"`

	Ethernet   *EthernetConfig   `json:"ethernet,omitempty"`
	Veth       *VethConfig       `json:"veth,omitempty"`
	Bond       *BondConfig       `json:"link-aggregation,omitempty" validate:"omitempty"`
	Bridge     *BridgeConfig     `json:"bridge,omitempty"`
	Vlan       *VlanConfig       `json:"vlan,omitempty" validate:"omitempty"`
	Vxlan      *VxlanConfig      `json:"vxlan,omitempty" validate:"omitempty"`
	MacVlan    *MacVlanConfig    `json:"mac-vlan,omitempty" validate:"omitempty"`
	MacVtap    *MacVlanConfig    `json:"mac-vtap,omitempty" validate:"omitempty"`
	Vrf        *VrfConfig        `json:"vrf,omitempty"`
	InfiniBand *InfiniBandConfig `json:"infiniband,omitempty" validate:"omitempty"`
}

type LLDPConfig struct {
	Enabled bool `json:"enabled"`
}

type MPTCPConfig struct {
	AddressFlags []string `json:"address-flags,omitempty"`
}

type OvsDBIfaceConfig struct {
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
}

type EthernetConfig struct {
	Speed           uint32                 `json:"speed,omitempty"`
	Duplex          string                 `json:"duplex,omitempty"`
	AutoNegotiation *bool                  `json:"auto-negotiation,omitempty"`
	SRIOV           map[string]interface{} `json:"sr-iov,omitempty"`
}

type VethConfig struct {
	Peer string `json:"peer"`
}

type BondConfig struct {
	Mode    string                 `json:"mode,omitempty" validate:"omitempty,oneof=balance-rr active-backup balance-xor broadcast 802.3ad balance-tlb balance-alb"`
	Ports   []string               `json:"port,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// BridgeConfig serves both linux-bridge and ovs-bridge.
type BridgeConfig struct {
	Options *BridgeOptions     `json:"options,omitempty"`
	Ports   []BridgePortConfig `json:"port,omitempty"`
}

type BridgeOptions struct {
	STP            *BridgeSTPOptions `json:"stp,omitempty"`
	MulticastSnoop *bool             `json:"mcast-snooping-enable,omitempty"`
}

type BridgeSTPOptions struct {
	Enabled      *bool   `json:"enabled,omitempty"`
	ForwardDelay *uint32 `json:"forward-delay,omitempty"`
	HelloTime    *uint32 `json:"hello-time,omitempty"`
	MaxAge       *uint32 `json:"max-age,omitempty"`
	Priority     *uint32 `json:"priority,omitempty"`
}

type BridgePortConfig struct {
	Name            string                 `json:"name"`
	STPPriority     *uint32                `json:"stp-priority,omitempty"`
	STPPathCost     *uint32                `json:"stp-path-cost,omitempty"`
	Vlan            map[string]interface{} `json:"vlan,omitempty"`
	LinkAggregation *OvsBondConfig         `json:"link-aggregation,omitempty"`
}

type OvsBondConfig struct {
	Mode  string   `json:"mode,omitempty"`
	Ports []string `json:"port,omitempty"`
}

type VlanConfig struct {
	BaseIface string `json:"base-iface" validate:"required"`
	ID        uint16 `json:"id" validate:"max=4094"`
	Protocol  string `json:"protocol,omitempty" validate:"omitempty,oneof=802.1q 802.1ad"`
}

type VxlanConfig struct {
	BaseIface       string  `json:"base-iface,omitempty"`
	ID              uint32  `json:"id" validate:"max=16777215"`
	Remote          string  `json:"remote,omitempty" validate:"omitempty,ip"`
	Local           string  `json:"local,omitempty" validate:"omitempty,ip"`
	DestinationPort *uint16 `json:"destination-port,omitempty"`
}

type MacVlanConfig struct {
	BaseIface   string `json:"base-iface" validate:"required"`
	Mode        string `json:"mode,omitempty" validate:"omitempty,oneof=vepa bridge private passthru source"`
	Promiscuous *bool  `json:"promiscuous,omitempty"`
}

type VrfConfig struct {
	Ports   []string `json:"port,omitempty"`
	TableID uint32   `json:"route-table-id"`
}

type InfiniBandConfig struct {
	Mode      string `json:"mode,omitempty" validate:"omitempty,oneof=datagram connected"`
	PKey      string `json:"pkey,omitempty"`
	BaseIface string `json:"base-iface,omitempty"`
}

// Routes holds static routes.
type Routes struct {
	Config  []RouteEntry `json:"config,omitempty"`
	Running []RouteEntry `json:"running,omitempty"`
}

// RouteEntry is a single route. With State "absent" it is a matcher removing
// every route whose specified fields are equal.
type RouteEntry struct {
	State        string  `json:"state,omitempty"`
	Destination  string  `json:"destination,omitempty"`
	NextHopIface string  `json:"next-hop-interface,omitempty"`
	NextHopAddr  string  `json:"next-hop-address,omitempty"`
	Metric       *int64  `json:"metric,omitempty"`
	TableID      *uint32 `json:"table-id,omitempty"`
	RouteType    string  `json:"route-type,omitempty"`
}

// RouteRules holds policy routing rules.
type RouteRules struct {
	Config []RouteRuleEntry `json:"config,omitempty"`
}

type RouteRuleEntry struct {
	State      string  `json:"state,omitempty"`
	Priority   *int64  `json:"priority,omitempty"`
	RouteTable *uint32 `json:"route-table,omitempty"`
	IPFrom     string  `json:"ip-from,omitempty"`
	IPTo       string  `json:"ip-to,omitempty"`
	FwMark     *uint32 `json:"fwmark,omitempty"`
	FwMask     *uint32 `json:"fwmask,omitempty"`
	Family     string  `json:"family,omitempty"`
	Action     string  `json:"action,omitempty"`
}

// DNSState holds resolver configuration.
type DNSState struct {
	Config  *DNSConfig `json:"config,omitempty"`
	Running *DNSConfig `json:"running,omitempty"`
}

type DNSConfig struct {
	Server []string `json:"server,omitempty"`
	Search []string `json:"search,omitempty"`
}

const stateAbsent = "absent"

// Get returns the interface with the given name. When both a kernel and a
// userspace interface share the name, the kernel one wins.
func (ifaces Interfaces) Get(name string) *Interface {
	var found *Interface
	for _, iface := range ifaces {
		if iface.Name != name {
			continue
		}
		if !iface.Type.IsUserspace() {
			return iface
		}
		found = iface
	}
	return found
}

// GetKernel returns the non-userspace interface with the given name.
func (ifaces Interfaces) GetKernel(name string) *Interface {
	for _, iface := range ifaces {
		if iface.Name == name && !iface.Type.IsUserspace() {
			return iface
		}
	}
	return nil
}

// Find returns the interface matching name and, when t is not empty, type
// class (userspace vs kernel).
func (ifaces Interfaces) Find(name string, t InterfaceType) *Interface {
	if t == "" {
		return ifaces.Get(name)
	}
	for _, iface := range ifaces {
		if iface.Name == name && iface.Type.IsUserspace() == t.IsUserspace() {
			return iface
		}
	}
	return nil
}

// Sort orders interfaces by name, kernel before userspace.
func (ifaces Interfaces) Sort() {
	sort.SliceStable(ifaces, func(i, j int) bool {
		if ifaces[i].Name != ifaces[j].Name {
			return ifaces[i].Name < ifaces[j].Name
		}
		return !ifaces[i].Type.IsUserspace() && ifaces[j].Type.IsUserspace()
	})
}

// Names returns interface names in list order.
func (ifaces Interfaces) Names() []string {
	names := make([]string, 0, len(ifaces))
	for _, iface := range ifaces {
		names = append(names, iface.Name)
	}
	return names
}
