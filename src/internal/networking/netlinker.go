package networking

import (
	"net"

	"github.com/vishvananda/netlink"
)

// Netlinker is the subset of netlink used by the kernel backend. Tests swap
// in an in-memory implementation.
type Netlinker interface {
	LinkList() ([]netlink.Link, error)
	LinkByName(name string) (netlink.Link, error)
	LinkByIndex(index int) (netlink.Link, error)
	LinkAdd(link netlink.Link) error
	LinkDel(link netlink.Link) error
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
	LinkSetMTU(link netlink.Link, mtu int) error
	LinkSetHardwareAddr(link netlink.Link, hwaddr net.HardwareAddr) error
	LinkSetMasterByIndex(link netlink.Link, masterIndex int) error
	LinkSetNoMaster(link netlink.Link) error
	LinkSetAlias(link netlink.Link, name string) error

	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
	AddrAdd(link netlink.Link, addr *netlink.Addr) error
	AddrDel(link netlink.Link, addr *netlink.Addr) error

	RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error)
	RouteAdd(route *netlink.Route) error
	RouteDel(route *netlink.Route) error

	RuleList(family int) ([]netlink.Rule, error)
	RuleAdd(rule *netlink.Rule) error
	RuleDel(rule *netlink.Rule) error
}

// DefaultNetlinker talks to the kernel of the running host.
var DefaultNetlinker Netlinker = &RealNetlinker{}

// RealNetlinker forwards every call to vishvananda/netlink.
type RealNetlinker struct{}

func (RealNetlinker) LinkList() ([]netlink.Link, error) { return netlink.LinkList() }

func (RealNetlinker) LinkByName(name string) (netlink.Link, error) { return netlink.LinkByName(name) }

func (RealNetlinker) LinkByIndex(index int) (netlink.Link, error) { return netlink.LinkByIndex(index) }

func (RealNetlinker) LinkAdd(link netlink.Link) error { return netlink.LinkAdd(link) }

func (RealNetlinker) LinkDel(link netlink.Link) error { return netlink.LinkDel(link) }

func (RealNetlinker) LinkSetUp(link netlink.Link) error { return netlink.LinkSetUp(link) }

func (RealNetlinker) LinkSetDown(link netlink.Link) error { return netlink.LinkSetDown(link) }

func (RealNetlinker) LinkSetMTU(link netlink.Link, mtu int) error {
	return netlink.LinkSetMTU(link, mtu)
}

func (RealNetlinker) LinkSetHardwareAddr(link netlink.Link, hwaddr net.HardwareAddr) error {
	return netlink.LinkSetHardwareAddr(link, hwaddr)
}

func (RealNetlinker) LinkSetMasterByIndex(link netlink.Link, masterIndex int) error {
	return netlink.LinkSetMasterByIndex(link, masterIndex)
}

func (RealNetlinker) LinkSetNoMaster(link netlink.Link) error { return netlink.LinkSetNoMaster(link) }

func (RealNetlinker) LinkSetAlias(link netlink.Link, name string) error {
	return netlink.LinkSetAlias(link, name)
}

func (RealNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return netlink.AddrList(link, family)
}

func (RealNetlinker) AddrAdd(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrAdd(link, addr)
}

func (RealNetlinker) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrDel(link, addr)
}

func (RealNetlinker) RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error) {
	return netlink.RouteListFiltered(family, filter, filterMask)
}

func (RealNetlinker) RouteAdd(route *netlink.Route) error { return netlink.RouteAdd(route) }

func (RealNetlinker) RouteDel(route *netlink.Route) error { return netlink.RouteDel(route) }

func (RealNetlinker) RuleList(family int) ([]netlink.Rule, error) { return netlink.RuleList(family) }

func (RealNetlinker) RuleAdd(rule *netlink.Rule) error { return netlink.RuleAdd(rule) }

func (RealNetlinker) RuleDel(rule *netlink.Rule) error { return netlink.RuleDel(rule) }
