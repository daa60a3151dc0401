package networking

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// fakeNetlinker keeps links, addresses, routes and rules in memory.
type fakeNetlinker struct {
	links     []netlink.Link
	nextIndex int
	addrs     map[int][]netlink.Addr
	routes    []netlink.Route
	rules     []netlink.Rule

	// failOn makes the named method return the error.
	failOn map[string]error
	calls  []string
}

func newFakeNetlinker() *fakeNetlinker {
	return &fakeNetlinker{
		nextIndex: 1,
		addrs:     make(map[int][]netlink.Addr),
		failOn:    make(map[string]error),
	}
}

type linkNotFoundError struct{ name string }

func (e linkNotFoundError) Error() string { return "Link not found: " + e.name }

func (f *fakeNetlinker) call(method string) error {
	f.calls = append(f.calls, method)
	return f.failOn[method]
}

// addDevice registers a physical ethernet device.
func (f *fakeNetlinker) addDevice(name string, up bool) netlink.Link {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = name
	attrs.MTU = 1500
	if up {
		attrs.Flags |= net.FlagUp
	}
	link := &netlink.Device{LinkAttrs: attrs}
	f.register(link)
	return link
}

func (f *fakeNetlinker) register(link netlink.Link) {
	attrs := link.Attrs()
	attrs.Index = f.nextIndex
	f.nextIndex++
	if attrs.MTU == 0 {
		attrs.MTU = 1500
	}
	f.links = append(f.links, link)
}

func (f *fakeNetlinker) find(name string) netlink.Link {
	for _, link := range f.links {
		if link.Attrs().Name == name {
			return link
		}
	}
	return nil
}

func (f *fakeNetlinker) stored(link netlink.Link) (netlink.Link, error) {
	if stored := f.find(link.Attrs().Name); stored != nil {
		return stored, nil
	}
	return nil, linkNotFoundError{link.Attrs().Name}
}

func (f *fakeNetlinker) LinkList() ([]netlink.Link, error) {
	if err := f.call("LinkList"); err != nil {
		return nil, err
	}
	return append([]netlink.Link(nil), f.links...), nil
}

func (f *fakeNetlinker) LinkByName(name string) (netlink.Link, error) {
	if link := f.find(name); link != nil {
		return link, nil
	}
	return nil, linkNotFoundError{name}
}

func (f *fakeNetlinker) LinkByIndex(index int) (netlink.Link, error) {
	for _, link := range f.links {
		if link.Attrs().Index == index {
			return link, nil
		}
	}
	return nil, linkNotFoundError{fmt.Sprintf("index %d", index)}
}

func (f *fakeNetlinker) LinkAdd(link netlink.Link) error {
	if err := f.call("LinkAdd"); err != nil {
		return err
	}
	if f.find(link.Attrs().Name) != nil {
		return fmt.Errorf("file exists")
	}
	f.register(link)
	if veth, ok := link.(*netlink.Veth); ok && veth.PeerName != "" {
		peerAttrs := netlink.NewLinkAttrs()
		peerAttrs.Name = veth.PeerName
		peerAttrs.ParentIndex = veth.Index
		peer := &netlink.Veth{LinkAttrs: peerAttrs}
		f.register(peer)
		veth.ParentIndex = peer.Index
	}
	return nil
}

func (f *fakeNetlinker) LinkDel(link netlink.Link) error {
	if err := f.call("LinkDel"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	remove := map[int]bool{stored.Attrs().Index: true}
	if _, ok := stored.(*netlink.Veth); ok {
		remove[stored.Attrs().ParentIndex] = true
	}
	var kept []netlink.Link
	for _, l := range f.links {
		if !remove[l.Attrs().Index] {
			kept = append(kept, l)
		}
	}
	f.links = kept
	var routes []netlink.Route
	for _, r := range f.routes {
		if !remove[r.LinkIndex] {
			routes = append(routes, r)
		}
	}
	f.routes = routes
	for idx := range remove {
		delete(f.addrs, idx)
	}
	return nil
}

func (f *fakeNetlinker) LinkSetUp(link netlink.Link) error {
	if err := f.call("LinkSetUp"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().Flags |= net.FlagUp
	return nil
}

func (f *fakeNetlinker) LinkSetDown(link netlink.Link) error {
	if err := f.call("LinkSetDown"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().Flags &^= net.FlagUp
	return nil
}

func (f *fakeNetlinker) LinkSetMTU(link netlink.Link, mtu int) error {
	if err := f.call("LinkSetMTU"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().MTU = mtu
	return nil
}

func (f *fakeNetlinker) LinkSetHardwareAddr(link netlink.Link, hwaddr net.HardwareAddr) error {
	if err := f.call("LinkSetHardwareAddr"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().HardwareAddr = hwaddr
	return nil
}

func (f *fakeNetlinker) LinkSetMasterByIndex(link netlink.Link, masterIndex int) error {
	if err := f.call("LinkSetMasterByIndex"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().MasterIndex = masterIndex
	return nil
}

func (f *fakeNetlinker) LinkSetNoMaster(link netlink.Link) error {
	if err := f.call("LinkSetNoMaster"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().MasterIndex = 0
	return nil
}

func (f *fakeNetlinker) LinkSetAlias(link netlink.Link, name string) error {
	if err := f.call("LinkSetAlias"); err != nil {
		return err
	}
	stored, err := f.stored(link)
	if err != nil {
		return err
	}
	stored.Attrs().Alias = name
	return nil
}

func addrFamily(addr *netlink.Addr) int {
	if addr.IP.To4() != nil {
		return netlink.FAMILY_V4
	}
	return netlink.FAMILY_V6
}

func (f *fakeNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	if err := f.call("AddrList"); err != nil {
		return nil, err
	}
	var out []netlink.Addr
	for _, addr := range f.addrs[link.Attrs().Index] {
		if family == netlink.FAMILY_ALL || addrFamily(&addr) == family {
			out = append(out, addr)
		}
	}
	return out, nil
}

func (f *fakeNetlinker) AddrAdd(link netlink.Link, addr *netlink.Addr) error {
	if err := f.call("AddrAdd"); err != nil {
		return err
	}
	idx := link.Attrs().Index
	f.addrs[idx] = append(f.addrs[idx], *addr)
	return nil
}

func (f *fakeNetlinker) AddrDel(link netlink.Link, addr *netlink.Addr) error {
	if err := f.call("AddrDel"); err != nil {
		return err
	}
	idx := link.Attrs().Index
	var kept []netlink.Addr
	for _, a := range f.addrs[idx] {
		if a.IPNet.String() != addr.IPNet.String() {
			kept = append(kept, a)
		}
	}
	f.addrs[idx] = kept
	return nil
}

// addAddr registers an address given in CIDR notation.
func (f *fakeNetlinker) addAddr(name, cidr string) {
	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		panic(err)
	}
	idx := f.find(name).Attrs().Index
	f.addrs[idx] = append(f.addrs[idx], *addr)
}

func routeFamily(route *netlink.Route) int {
	if route.Family != 0 {
		return route.Family
	}
	if route.Dst != nil && route.Dst.IP.To4() == nil {
		return netlink.FAMILY_V6
	}
	return netlink.FAMILY_V4
}

// dstKey treats a missing destination as the default route.
func dstKey(route *netlink.Route) string {
	if route.Dst != nil {
		return route.Dst.String()
	}
	if route.Family == netlink.FAMILY_V6 {
		return "::/0"
	}
	return "0.0.0.0/0"
}

func (f *fakeNetlinker) RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error) {
	if err := f.call("RouteListFiltered"); err != nil {
		return nil, err
	}
	var out []netlink.Route
	for _, route := range f.routes {
		if family != netlink.FAMILY_ALL && routeFamily(&route) != family {
			continue
		}
		if filterMask&netlink.RT_FILTER_TABLE != 0 {
			if filter.Table != unix.RT_TABLE_UNSPEC && route.Table != filter.Table {
				continue
			}
		} else if route.Table != unix.RT_TABLE_MAIN {
			continue
		}
		if filterMask&netlink.RT_FILTER_TYPE != 0 && route.Type != filter.Type {
			continue
		}
		if filterMask&netlink.RT_FILTER_OIF != 0 && route.LinkIndex != filter.LinkIndex {
			continue
		}
		if filterMask&netlink.RT_FILTER_DST != 0 && dstKey(&route) != dstKey(filter) {
			continue
		}
		if filterMask&netlink.RT_FILTER_GW != 0 && !route.Gw.Equal(filter.Gw) {
			continue
		}
		out = append(out, route)
	}
	return out, nil
}

func (f *fakeNetlinker) RouteAdd(route *netlink.Route) error {
	if err := f.call("RouteAdd"); err != nil {
		return err
	}
	f.routes = append(f.routes, *route)
	return nil
}

func (f *fakeNetlinker) RouteDel(route *netlink.Route) error {
	if err := f.call("RouteDel"); err != nil {
		return err
	}
	for i, r := range f.routes {
		if r.Table == route.Table && r.LinkIndex == route.LinkIndex &&
			dstKey(&r) == dstKey(route) && r.Gw.Equal(route.Gw) &&
			(route.Priority == 0 || r.Priority == route.Priority) {
			f.routes = append(f.routes[:i], f.routes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no such process")
}

func (f *fakeNetlinker) RuleList(family int) ([]netlink.Rule, error) {
	if err := f.call("RuleList"); err != nil {
		return nil, err
	}
	var out []netlink.Rule
	for _, rule := range f.rules {
		if family == netlink.FAMILY_ALL || rule.Family == family {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeNetlinker) RuleAdd(rule *netlink.Rule) error {
	if err := f.call("RuleAdd"); err != nil {
		return err
	}
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeNetlinker) RuleDel(rule *netlink.Rule) error {
	if err := f.call("RuleDel"); err != nil {
		return err
	}
	ipr := &IpRule{Rule: rule}
	for i := range f.rules {
		if ipr.matches(&f.rules[i]) {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no such file or directory")
}
