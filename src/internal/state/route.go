package state

import (
	"fmt"
	"net/netip"
)

// MainRouteTable is the kernel main table. Routes without table-id live there.
const MainRouteTable uint32 = 254

func (r *RouteEntry) IsAbsent() bool {
	return r.State == stateAbsent
}

// Table returns the effective table id.
func (r *RouteEntry) Table() uint32 {
	if r.TableID == nil || *r.TableID == 0 {
		return MainRouteTable
	}
	return *r.TableID
}

// Matches reports whether other satisfies every field r specifies. Unset
// fields of r are wildcards.
func (r *RouteEntry) Matches(other *RouteEntry) bool {
	if r.Destination != "" && normalizePrefix(r.Destination) != normalizePrefix(other.Destination) {
		return false
	}
	if r.NextHopIface != "" && r.NextHopIface != other.NextHopIface {
		return false
	}
	if r.NextHopAddr != "" && normalizeAddr(r.NextHopAddr) != normalizeAddr(other.NextHopAddr) {
		return false
	}
	if r.Metric != nil && (other.Metric == nil || *r.Metric != *other.Metric) {
		return false
	}
	if r.TableID != nil && r.Table() != other.Table() {
		return false
	}
	if r.RouteType != "" && r.RouteType != other.RouteType {
		return false
	}
	return true
}

// Equal reports whether both routes describe the same route.
func (r *RouteEntry) Equal(other *RouteEntry) bool {
	return r.Matches(other) && other.Matches(r)
}

// IsIPv6 reports whether the destination is an IPv6 prefix.
func (r *RouteEntry) IsIPv6() bool {
	p, err := netip.ParsePrefix(r.Destination)
	if err != nil {
		return false
	}
	return p.Addr().Is6() && !p.Addr().Is4In6()
}

func (r RouteEntry) String() string {
	s := fmt.Sprintf("%s via %s dev %s table %d", r.Destination, r.NextHopAddr, r.NextHopIface, r.Table())
	if r.Metric != nil {
		s += fmt.Sprintf(" metric %d", *r.Metric)
	}
	if r.RouteType != "" {
		s += " type " + r.RouteType
	}
	return s
}

func (r *RouteRuleEntry) IsAbsent() bool {
	return r.State == stateAbsent
}

// Matches reports whether other satisfies every field r specifies.
func (r *RouteRuleEntry) Matches(other *RouteRuleEntry) bool {
	if r.Priority != nil && (other.Priority == nil || *r.Priority != *other.Priority) {
		return false
	}
	if r.RouteTable != nil && (other.RouteTable == nil || *r.RouteTable != *other.RouteTable) {
		return false
	}
	if r.IPFrom != "" && normalizeHostPrefix(r.IPFrom) != normalizeHostPrefix(other.IPFrom) {
		return false
	}
	if r.IPTo != "" && normalizeHostPrefix(r.IPTo) != normalizeHostPrefix(other.IPTo) {
		return false
	}
	if r.FwMark != nil && (other.FwMark == nil || *r.FwMark != *other.FwMark) {
		return false
	}
	if r.FwMask != nil && (other.FwMask == nil || *r.FwMask != *other.FwMask) {
		return false
	}
	if r.Family != "" && r.Family != other.RuleFamily() {
		return false
	}
	if r.Action != "" && r.Action != other.Action {
		return false
	}
	return true
}

func (r *RouteRuleEntry) Equal(other *RouteRuleEntry) bool {
	return r.Matches(other) && other.Matches(r)
}

// RuleFamily returns the family, derived from the addresses when unset.
func (r *RouteRuleEntry) RuleFamily() string {
	if r.Family != "" {
		return r.Family
	}
	for _, s := range []string{r.IPFrom, r.IPTo} {
		if s == "" {
			continue
		}
		if p, err := parsePrefixOrAddr(s); err == nil {
			if p.Addr().Is4() {
				return "ipv4"
			}
			return "ipv6"
		}
	}
	return "ipv4"
}

func (r RouteRuleEntry) String() string {
	s := "rule"
	if r.Priority != nil {
		s += fmt.Sprintf(" %d:", *r.Priority)
	}
	if r.IPFrom != "" {
		s += " from " + r.IPFrom
	}
	if r.IPTo != "" {
		s += " to " + r.IPTo
	}
	if r.FwMark != nil {
		s += fmt.Sprintf(" fwmark %#x", *r.FwMark)
	}
	if r.RouteTable != nil {
		s += fmt.Sprintf(" table %d", *r.RouteTable)
	}
	if r.Action != "" {
		s += " " + r.Action
	}
	return s
}

func normalizePrefix(s string) string {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return s
	}
	return p.Masked().String()
}

func normalizeHostPrefix(s string) string {
	p, err := parsePrefixOrAddr(s)
	if err != nil {
		return s
	}
	return p.Masked().String()
}

func normalizeAddr(s string) string {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return s
	}
	return a.Unmap().String()
}

// mergeRoutes removes current routes matched by desired absent entries or
// bound to removed interfaces, then appends desired routes not yet present.
func mergeRoutes(cur, des *Routes, removedIfaces map[string]bool) *Routes {
	if des == nil && len(removedIfaces) == 0 {
		return cloneRoutes(cur)
	}
	out := &Routes{}
	if cur != nil {
		out.Running = append(out.Running, cur.Running...)
	}
	var desired []RouteEntry
	if des != nil {
		desired = des.Config
	}

	if cur != nil {
	next:
		for i := range cur.Config {
			route := cur.Config[i]
			if removedIfaces[route.NextHopIface] {
				continue
			}
			for j := range desired {
				if desired[j].IsAbsent() && desired[j].Matches(&route) {
					continue next
				}
			}
			out.Config = append(out.Config, route)
		}
	}
	for i := range desired {
		if desired[i].IsAbsent() || containsRoute(out.Config, &desired[i]) {
			continue
		}
		out.Config = append(out.Config, desired[i])
	}
	return out
}

func containsRoute(routes []RouteEntry, route *RouteEntry) bool {
	for i := range routes {
		if routes[i].Equal(route) {
			return true
		}
	}
	return false
}

func mergeRules(cur, des *RouteRules) *RouteRules {
	if des == nil {
		return cloneRules(cur)
	}
	out := &RouteRules{}
	if cur != nil {
	next:
		for i := range cur.Config {
			rule := cur.Config[i]
			for j := range des.Config {
				if des.Config[j].IsAbsent() && des.Config[j].Matches(&rule) {
					continue next
				}
			}
			out.Config = append(out.Config, rule)
		}
	}
	for i := range des.Config {
		if des.Config[i].IsAbsent() || containsRule(out.Config, &des.Config[i]) {
			continue
		}
		out.Config = append(out.Config, des.Config[i])
	}
	return out
}

func containsRule(rules []RouteRuleEntry, rule *RouteRuleEntry) bool {
	for i := range rules {
		if rules[i].Equal(rule) {
			return true
		}
	}
	return false
}
