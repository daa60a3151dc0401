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

type IpRule struct {
	*netlink.Rule
	nl Netlinker
}

func (r *IpRule) String() string {
	from := "all"
	if r.Src != nil && r.Src.String() != "<nil>" {
		from = r.Src.String()
	}

	to := "all"
	if r.Dst != nil && r.Dst.String() != "<nil>" {
		to = r.Dst.String()
	}

	return fmt.Sprintf("rule %d: from %s to %s fwmark=%d -> table %d",
		r.Priority, from, to, r.Mark, r.Table)
}

// BuildRule converts a route rule entry.
func BuildRule(nl Netlinker, entry *state.RouteRuleEntry) (*IpRule, error) {
	if entry.Action != "" {
		return nil, errors.NewNotSupported(fmt.Sprintf("route rule action %s is not supported by the kernel backend", entry.Action))
	}
	if entry.FwMask != nil {
		return nil, errors.NewNotSupported("route rule fwmask is not supported by the kernel backend")
	}

	ipr := netlink.NewRule()
	ipr.Family = netlink.FAMILY_V4
	if entry.RuleFamily() == "ipv6" {
		ipr.Family = netlink.FAMILY_V6
	}
	ipr.Table = int(state.MainRouteTable)
	if entry.RouteTable != nil {
		ipr.Table = int(*entry.RouteTable)
	}
	if entry.Priority != nil {
		ipr.Priority = int(*entry.Priority)
	}
	if entry.FwMark != nil {
		ipr.Mark = *entry.FwMark
	}

	var err error
	if ipr.Src, err = parseRulePrefix(entry.IPFrom); err != nil {
		return nil, err
	}
	if ipr.Dst, err = parseRulePrefix(entry.IPTo); err != nil {
		return nil, err
	}
	return &IpRule{Rule: ipr, nl: nl}, nil
}

// parseRulePrefix accepts a prefix or a host address.
func parseRulePrefix(s string) (*net.IPNet, error) {
	if s == "" {
		return nil, nil
	}
	if _, ipnet, err := net.ParseCIDR(s); err == nil {
		return ipnet, nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, errors.Newf(errors.KindInvalidArgument, "invalid route rule address %q", s)
	}
	if v4 := ip.To4(); v4 != nil {
		return &net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, nil
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(128, 128)}, nil
}

func (ipr *IpRule) Add() error {
	log.Debugf("Adding IP rule [%v]", ipr)
	if err := ipr.nl.RuleAdd(ipr.Rule); err != nil {
		log.Warnf("Failed to add IP rule [%v]: %v", ipr, err)
		return err
	}

	return nil
}

func (ipr *IpRule) AddIfNotExists() (bool, error) {
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

func (ipr *IpRule) IsExists() (bool, error) {
	rules, err := ipr.nl.RuleList(ipr.Family)
	if err != nil {
		log.Warnf("Checking if IP rule exists [%v] is failed: %v", ipr, err)
		return false, err
	}
	for _, rule := range rules {
		if ipr.matches(&rule) {
			log.Debugf("Checking if IP rule exists [%v]: YES", ipr)
			return true, nil
		}
	}

	log.Debugf("Checking if IP rule exists [%v]: NO", ipr)
	return false, nil
}

// matches compares table, mark, selectors and, when set, priority.
func (ipr *IpRule) matches(rule *netlink.Rule) bool {
	if ipr.Priority >= 0 && rule.Priority != ipr.Priority {
		return false
	}
	return rule.Table == ipr.Table &&
		rule.Mark == ipr.Mark &&
		ipNetString(rule.Src) == ipNetString(ipr.Src) &&
		ipNetString(rule.Dst) == ipNetString(ipr.Dst)
}

func (ipr *IpRule) Del() error {
	log.Debugf("Deleting IP rule [%v]", ipr)
	if err := ipr.nl.RuleDel(ipr.Rule); err != nil {
		log.Warnf("Failed to delete IP rule [%v]: %v", ipr, err)
		return err
	}

	return nil
}

func (ipr *IpRule) DelIfExists() (bool, error) {
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

// isDefaultRule reports whether the kernel installs the rule on its own.
func isDefaultRule(rule *netlink.Rule) bool {
	switch {
	case rule.Priority == 0 && rule.Table == unix.RT_TABLE_LOCAL:
		return true
	case rule.Priority == 32766 && rule.Table == unix.RT_TABLE_MAIN:
		return true
	case rule.Priority == 32767 && rule.Table == unix.RT_TABLE_DEFAULT:
		return true
	}
	return false
}

// ruleToEntry converts a kernel rule.
func ruleToEntry(rule *netlink.Rule) state.RouteRuleEntry {
	entry := state.RouteRuleEntry{Family: "ipv4"}
	if rule.Family == netlink.FAMILY_V6 {
		entry.Family = "ipv6"
	}
	priority := int64(rule.Priority)
	entry.Priority = &priority
	table := uint32(rule.Table)
	entry.RouteTable = &table
	if rule.Src != nil {
		entry.IPFrom = rule.Src.String()
	}
	if rule.Dst != nil {
		entry.IPTo = rule.Dst.String()
	}
	if rule.Mark != 0 {
		mark := rule.Mark
		entry.FwMark = &mark
	}
	return entry
}

func ipNetString(n *net.IPNet) string {
	if n == nil {
		return ""
	}
	return n.String()
}
