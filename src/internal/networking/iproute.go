package networking

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

var routeTypes = map[string]int{
	"blackhole":   unix.RTN_BLACKHOLE,
	"prohibit":    unix.RTN_PROHIBIT,
	"unreachable": unix.RTN_UNREACHABLE,
}

type IpRoute struct {
	*netlink.Route
	nl Netlinker
}

func (r *IpRoute) String() string {
	to := "all"
	if r.Dst != nil && r.Dst.String() != "<nil>" {
		to = r.Dst.String()
	}

	via := "-"
	if r.Gw != nil {
		via = r.Gw.String()
	}

	linkName := "<nil>"
	if r.LinkIndex > 0 {
		if link, err := r.nl.LinkByIndex(r.LinkIndex); err != nil {
			linkName = "<err: " + err.Error() + ">"
		} else {
			linkName = link.Attrs().Name
		}
	}

	return fmt.Sprintf("table %d: dst=%s via %s -> dev %s (idx=%d) [metric:%d]",
		r.Table, to, via, linkName, r.LinkIndex, r.Priority)
}

// BuildRoute converts a route entry. The next hop interface must exist.
func BuildRoute(nl Netlinker, entry *state.RouteEntry) (*IpRoute, error) {
	ipr := netlink.Route{
		Table:  int(entry.Table()),
		Family: netlink.FAMILY_V4,
	}
	if entry.IsIPv6() {
		ipr.Family = netlink.FAMILY_V6
	}

	_, dst, err := net.ParseCIDR(entry.Destination)
	if err != nil {
		return nil, errors.NewInvalidArgument(fmt.Sprintf("invalid route destination %q", entry.Destination), err)
	}
	ipr.Dst = dst

	if entry.RouteType != "" {
		t, ok := routeTypes[entry.RouteType]
		if !ok {
			return nil, errors.Newf(errors.KindInvalidArgument, "unsupported route type %q", entry.RouteType)
		}
		ipr.Type = t
	} else {
		link, err := nl.LinkByName(entry.NextHopIface)
		if err != nil {
			return nil, errors.Wrap(errors.KindInvalidArgument,
				fmt.Sprintf("next hop interface %s of route %s not found", entry.NextHopIface, entry.Destination), err)
		}
		ipr.LinkIndex = link.Attrs().Index
	}

	if entry.NextHopAddr != "" {
		gw := net.ParseIP(entry.NextHopAddr)
		if gw == nil {
			return nil, errors.Newf(errors.KindInvalidArgument, "invalid next hop address %q", entry.NextHopAddr)
		}
		ipr.Gw = gw
	}
	if entry.Metric != nil {
		ipr.Priority = int(*entry.Metric)
	}

	return &IpRoute{Route: &ipr, nl: nl}, nil
}

func (ipr *IpRoute) Add() error {
	log.Debugf("Adding IP route [%v]", ipr)
	if err := ipr.nl.RouteAdd(ipr.Route); err != nil {
		log.Warnf("Failed to add IP route [%v]: %v", ipr, err)
		return err
	}

	return nil
}

func (ipr *IpRoute) AddIfNotExists() (bool, error) {
	if exists, err := ipr.IsExists(); err != nil {
		return false, err
	} else if !exists {
		if err := ipr.Add(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (ipr *IpRoute) IsExists() (bool, error) {
	var filters uint64
	if ipr.Type == unix.RTN_BLACKHOLE || ipr.Type == unix.RTN_PROHIBIT || ipr.Type == unix.RTN_UNREACHABLE {
		// These routes have no output interface
		filters = netlink.RT_FILTER_TABLE | netlink.RT_FILTER_TYPE | netlink.RT_FILTER_DST
	} else {
		filters = netlink.RT_FILTER_TABLE | netlink.RT_FILTER_OIF | netlink.RT_FILTER_DST
		if ipr.Gw != nil {
			filters |= netlink.RT_FILTER_GW
		}
	}
	filtered, err := ipr.nl.RouteListFiltered(ipr.Family, ipr.Route, filters)
	if err != nil {
		log.Warnf("Checking if IP route exists [%v] is failed: %v", ipr, err)
		return false, err
	}
	for _, route := range filtered {
		if ipr.Priority == 0 || route.Priority == ipr.Priority {
			log.Debugf("Checking if IP route exists [%v]: YES", ipr)
			return true, nil
		}
	}

	log.Debugf("Checking if IP route exists [%v]: NO", ipr)
	return false, nil
}

func (ipr *IpRoute) Del() error {
	log.Debugf("Deleting IP route [%v]", ipr)
	if err := ipr.nl.RouteDel(ipr.Route); err != nil {
		log.Warnf("Failed to delete IP route [%v]: %v", ipr, err)
		return err
	}

	return nil
}

func (ipr *IpRoute) DelIfExists() (bool, error) {
	if exists, err := ipr.IsExists(); err != nil {
		return false, err
	} else if exists {
		if err := ipr.Del(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ListRoutes returns the routes of every table except the local one.
func ListRoutes(nl Netlinker) ([]*IpRoute, error) {
	log.Debugf("Listing all routes")
	routes, err := nl.RouteListFiltered(netlink.FAMILY_ALL, &netlink.Route{Table: unix.RT_TABLE_UNSPEC}, netlink.RT_FILTER_TABLE)
	if err != nil {
		log.Warnf("Failed to list routes: %v", err)
		return nil, err
	}

	var ipRoutes []*IpRoute
	for _, route := range routes {
		if route.Table == unix.RT_TABLE_LOCAL {
			continue
		}
		copiedRoute := route
		ipRoutes = append(ipRoutes, &IpRoute{Route: &copiedRoute, nl: nl})
	}

	return ipRoutes, nil
}

// IsRuntimeOnly reports whether the kernel or a DHCP/RA client created the
// route. Such routes show up in running routes only.
func (ipr *IpRoute) IsRuntimeOnly() bool {
	switch ipr.Protocol {
	case unix.RTPROT_KERNEL, unix.RTPROT_RA, unix.RTPROT_DHCP:
		return true
	}
	return ipr.Family == netlink.FAMILY_V6 && ipr.Dst != nil && ipr.Dst.IP.IsLinkLocalUnicast()
}

// ToEntry converts the route, resolving the output interface name through
// names.
func (ipr *IpRoute) ToEntry(names map[int]string) (state.RouteEntry, bool) {
	entry := state.RouteEntry{}
	switch ipr.Type {
	case 0, unix.RTN_UNICAST:
	case unix.RTN_BLACKHOLE:
		entry.RouteType = "blackhole"
	case unix.RTN_PROHIBIT:
		entry.RouteType = "prohibit"
	case unix.RTN_UNREACHABLE:
		entry.RouteType = "unreachable"
	default:
		return entry, false
	}

	if ipr.Dst != nil {
		entry.Destination = ipr.Dst.String()
	} else if ipr.Family == netlink.FAMILY_V6 {
		entry.Destination = "::/0"
	} else {
		entry.Destination = "0.0.0.0/0"
	}
	if ipr.LinkIndex > 0 {
		name, ok := names[ipr.LinkIndex]
		if !ok {
			return entry, false
		}
		entry.NextHopIface = name
	}
	if ipr.Gw != nil && !ipr.Gw.IsUnspecified() {
		entry.NextHopAddr = ipr.Gw.String()
	}
	metric := int64(ipr.Priority)
	entry.Metric = &metric
	table := uint32(ipr.Table)
	entry.TableID = &table
	return entry, true
}
