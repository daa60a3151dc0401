package networking

import (
	"fmt"
	"net"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

type Interface struct {
	netlink.Link
}

func GetInterface(nl Netlinker, interfaceName string) (*Interface, error) {
	link, err := nl.LinkByName(interfaceName)
	if err != nil {
		return nil, err
	}
	return &Interface{link}, nil
}

func GetInterfaceList(nl Netlinker) ([]Interface, error) {
	links, err := nl.LinkList()
	if err != nil {
		return nil, err
	}
	var interfaces []Interface
	for _, link := range links {
		interfaces = append(interfaces, Interface{link})
	}
	return interfaces, nil
}

func (iface *Interface) IsUp() bool {
	return iface.Attrs().Flags&net.FlagUp != 0
}

func (iface *Interface) IsLoopback() bool {
	return iface.Attrs().Flags&net.FlagLoopback != 0
}

// StateType maps the netlink link kind to the interface type. Kinds without
// a mapping are kept verbatim.
func (iface *Interface) StateType() state.InterfaceType {
	if iface.IsLoopback() {
		return state.TypeLoopback
	}
	switch iface.Type() {
	case "device":
		return state.TypeEthernet
	case "veth":
		return state.TypeEthernet
	case "bond":
		return state.TypeBond
	case "bridge":
		return state.TypeLinuxBridge
	case "vlan":
		return state.TypeVlan
	case "vxlan":
		return state.TypeVxlan
	case "dummy":
		return state.TypeDummy
	case "macvlan":
		return state.TypeMacVlan
	case "macvtap":
		return state.TypeMacVtap
	case "vrf":
		return state.TypeVrf
	case "ipoib":
		return state.TypeInfiniBand
	case "openvswitch":
		return state.TypeOvsInterface
	}
	return state.InterfaceType(iface.Type())
}

var macVlanModeNames = map[netlink.MacvlanMode]string{
	netlink.MACVLAN_MODE_PRIVATE:  "private",
	netlink.MACVLAN_MODE_VEPA:     "vepa",
	netlink.MACVLAN_MODE_BRIDGE:   "bridge",
	netlink.MACVLAN_MODE_PASSTHRU: "passthru",
	netlink.MACVLAN_MODE_SOURCE:   "source",
}

func macVlanMode(name string) netlink.MacvlanMode {
	for mode, n := range macVlanModeNames {
		if n == name {
			return mode
		}
	}
	return netlink.MACVLAN_MODE_VEPA
}

// BuildLink returns the netlink link to create for iface. Parents are
// resolved by name through nl.
func BuildLink(nl Netlinker, iface *state.Interface) (netlink.Link, error) {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = iface.Name
	if iface.MTU != nil {
		attrs.MTU = int(*iface.MTU)
	}
	if iface.MACAddress != "" {
		mac, err := net.ParseMAC(iface.MACAddress)
		if err != nil {
			return nil, errors.NewInvalidArgument(fmt.Sprintf("invalid MAC address %s", iface.MACAddress), err)
		}
		attrs.HardwareAddr = mac
	}

	parentIndex := func(name string) (int, error) {
		if name == "" {
			return 0, errors.Newf(errors.KindInvalidArgument, "interface %s requires base-iface", iface.Name)
		}
		link, err := nl.LinkByName(name)
		if err != nil {
			return 0, errors.Wrap(errors.KindInvalidArgument,
				fmt.Sprintf("base interface %s of %s not found", name, iface.Name), err)
		}
		return link.Attrs().Index, nil
	}

	switch iface.Type {
	case state.TypeDummy:
		return &netlink.Dummy{LinkAttrs: attrs}, nil
	case state.TypeEthernet:
		if iface.Veth == nil {
			return nil, errors.Newf(errors.KindInvalidArgument, "ethernet interface %s does not exist", iface.Name)
		}
		return &netlink.Veth{LinkAttrs: attrs, PeerName: iface.Veth.Peer}, nil
	case state.TypeBond:
		bond := netlink.NewLinkBond(attrs)
		if iface.Bond != nil && iface.Bond.Mode != "" {
			bond.Mode = netlink.StringToBondMode(iface.Bond.Mode)
		}
		return bond, nil
	case state.TypeLinuxBridge:
		return &netlink.Bridge{LinkAttrs: attrs}, nil
	case state.TypeVrf:
		vrf := &netlink.Vrf{LinkAttrs: attrs}
		if iface.Vrf != nil {
			vrf.Table = iface.Vrf.TableID
		}
		return vrf, nil
	case state.TypeVlan:
		if iface.Vlan == nil {
			return nil, errors.Newf(errors.KindInvalidArgument, "vlan %s requires the vlan section", iface.Name)
		}
		idx, err := parentIndex(iface.Vlan.BaseIface)
		if err != nil {
			return nil, err
		}
		attrs.ParentIndex = idx
		vlan := &netlink.Vlan{LinkAttrs: attrs, VlanId: int(iface.Vlan.ID), VlanProtocol: netlink.VLAN_PROTOCOL_8021Q}
		if strings.EqualFold(iface.Vlan.Protocol, "802.1ad") {
			vlan.VlanProtocol = netlink.VLAN_PROTOCOL_8021AD
		}
		return vlan, nil
	case state.TypeVxlan:
		if iface.Vxlan == nil {
			return nil, errors.Newf(errors.KindInvalidArgument, "vxlan %s requires the vxlan section", iface.Name)
		}
		vxlan := &netlink.Vxlan{LinkAttrs: attrs, VxlanId: int(iface.Vxlan.ID)}
		if iface.Vxlan.BaseIface != "" {
			idx, err := parentIndex(iface.Vxlan.BaseIface)
			if err != nil {
				return nil, err
			}
			vxlan.VtepDevIndex = idx
		}
		vxlan.Group = net.ParseIP(iface.Vxlan.Remote)
		vxlan.SrcAddr = net.ParseIP(iface.Vxlan.Local)
		if iface.Vxlan.DestinationPort != nil {
			vxlan.Port = int(*iface.Vxlan.DestinationPort)
		}
		return vxlan, nil
	case state.TypeMacVlan, state.TypeMacVtap:
		conf := iface.MacVlan
		if iface.Type == state.TypeMacVtap {
			conf = iface.MacVtap
		}
		if conf == nil {
			return nil, errors.Newf(errors.KindInvalidArgument, "%s %s requires the %s section", iface.Type, iface.Name, iface.Type)
		}
		idx, err := parentIndex(conf.BaseIface)
		if err != nil {
			return nil, err
		}
		attrs.ParentIndex = idx
		macvlan := netlink.Macvlan{LinkAttrs: attrs, Mode: macVlanMode(conf.Mode)}
		if iface.Type == state.TypeMacVtap {
			return &netlink.Macvtap{Macvlan: macvlan}, nil
		}
		return &macvlan, nil
	}
	return nil, errors.NewNotSupported(fmt.Sprintf("creating %s interface %s is not supported by the kernel backend", iface.Type, iface.Name))
}
