package networking

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

type applyStep struct {
	name string
	fn   func(*state.MergedState) error
}

// ApplyState programs the kernel so it matches ms.Merged for everything
// ms.Desired mentions. Steps run in dependency order and ctx is checked
// between them.
func (m *Manager) ApplyState(ctx context.Context, ms *state.MergedState) error {
	if err := checkSupported(ms.Desired); err != nil {
		return err
	}

	steps := []applyStep{
		{"remove absent interfaces", m.removeAbsent},
		{"create interfaces", m.createMissing},
		{"set link attributes", m.setAttributes},
		{"set addresses", m.setAddresses},
		{"set link states", m.setLinkStates},
		{"apply routes", m.applyRoutes},
		{"apply route rules", m.applyRules},
		{"apply DNS", m.applyDNS},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(errors.KindTimeout, "apply interrupted before "+step.name, err)
		}
		log.Debugf("Kernel backend: %s", step.name)
		if err := step.fn(ms); err != nil {
			return err
		}
	}
	return nil
}

// checkSupported rejects what the kernel backend cannot program before
// anything is changed.
func checkSupported(des *state.NetworkState) error {
	for _, iface := range des.Interfaces {
		if iface.IsAbsent() || iface.IsIgnore() {
			continue
		}
		if iface.Type == state.TypeOvsBridge || iface.Type == state.TypeOvsInterface {
			return errors.NewNotSupported(fmt.Sprintf("%s %s requires Open vSwitch, not supported by the kernel backend", iface.Type, iface.Name))
		}
		if iface.ControllerType == state.TypeOvsBridge {
			return errors.NewNotSupported(fmt.Sprintf("attaching %s to an OVS bridge is not supported by the kernel backend", iface.Name))
		}
		for _, ip := range []*state.InterfaceIP{iface.IPv4, iface.IPv6} {
			if ip != nil && ip.IsAuto() {
				return errors.NewNotSupported(fmt.Sprintf("DHCP and IPv6 autoconf of %s are not supported by the kernel backend", iface.Name))
			}
		}
	}
	if des.Rules != nil {
		for _, rule := range des.Rules.Config {
			if !rule.IsAbsent() && (rule.Action != "" || rule.FwMask != nil) {
				return errors.NewNotSupported(fmt.Sprintf("route rule %s is not supported by the kernel backend", rule))
			}
		}
	}
	return nil
}

// managed returns the desired kernel interfaces to configure.
func managed(ms *state.MergedState) []*state.Interface {
	var out []*state.Interface
	for _, iface := range ms.Desired.Interfaces {
		if iface.IsAbsent() || iface.IsIgnore() || iface.Type.IsUserspace() {
			continue
		}
		out = append(out, iface)
	}
	return out
}

func (m *Manager) removeAbsent(ms *state.MergedState) error {
	for _, des := range ms.Desired.Interfaces {
		if !des.IsAbsent() {
			continue
		}
		cur := ms.Current.Interfaces.GetKernel(des.Name)
		if cur == nil {
			continue
		}
		link, err := m.nl.LinkByName(des.Name)
		if err != nil {
			// A veth peer goes away with its other end.
			log.Debugf("Interface %s already removed", des.Name)
			continue
		}
		if cur.IsVirtual() {
			log.Infof("Deleting interface %s", des.Name)
			if err := m.nl.LinkDel(link); err != nil {
				return pluginError("failed to delete "+des.Name, err)
			}
			continue
		}
		log.Infof("Setting %s down, it cannot be deleted", des.Name)
		if err := m.nl.LinkSetDown(link); err != nil {
			return pluginError("failed to set "+des.Name+" down", err)
		}
	}
	return nil
}

// createMissing creates new interfaces, base interfaces before the ones
// stacked on them.
func (m *Manager) createMissing(ms *state.MergedState) error {
	exists := func(name string) bool {
		_, err := m.nl.LinkByName(name)
		return err == nil
	}

	var pending []*state.Interface
	for _, des := range managed(ms) {
		if ms.Current.Interfaces.GetKernel(des.Name) == nil {
			pending = append(pending, ms.Merged.Interfaces.GetKernel(des.Name))
		}
	}

	for len(pending) > 0 {
		var next []*state.Interface
		for _, iface := range pending {
			if exists(iface.Name) {
				continue
			}
			if parent := iface.ParentName(); parent != "" && !exists(parent) {
				next = append(next, iface)
				continue
			}
			link, err := BuildLink(m.nl, iface)
			if err != nil {
				return err
			}
			log.Infof("Creating %s interface %s", iface.Type, iface.Name)
			if err := m.nl.LinkAdd(link); err != nil {
				return pluginError("failed to create "+iface.Name, err)
			}
		}
		if len(next) == len(pending) {
			return errors.Newf(errors.KindInvalidArgument, "base interface %s of %s does not exist",
				next[0].ParentName(), next[0].Name)
		}
		pending = next
	}
	return nil
}

func (m *Manager) setAttributes(ms *state.MergedState) error {
	for _, des := range managed(ms) {
		target := ms.Merged.Interfaces.GetKernel(des.Name)
		link, err := m.nl.LinkByName(des.Name)
		if err != nil {
			return pluginError("interface "+des.Name+" not found", err)
		}
		attrs := link.Attrs()

		if target.MTU != nil && attrs.MTU != int(*target.MTU) {
			log.Infof("Setting MTU of %s to %d", des.Name, *target.MTU)
			if err := m.nl.LinkSetMTU(link, int(*target.MTU)); err != nil {
				return pluginError("failed to set MTU of "+des.Name, err)
			}
		}
		if target.MACAddress != "" && !strings.EqualFold(attrs.HardwareAddr.String(), target.MACAddress) {
			mac, err := net.ParseMAC(target.MACAddress)
			if err != nil {
				return errors.NewInvalidArgument("invalid MAC address "+target.MACAddress, err)
			}
			if err := m.nl.LinkSetHardwareAddr(link, mac); err != nil {
				return pluginError("failed to set MAC address of "+des.Name, err)
			}
		}
		if des.Description != "" && attrs.Alias != des.Description {
			if err := m.nl.LinkSetAlias(link, des.Description); err != nil {
				return pluginError("failed to set description of "+des.Name, err)
			}
		}
		if err := m.setController(des, link); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) setController(des *state.Interface, link netlink.Link) error {
	if des.Controller == nil {
		return nil
	}
	if !des.HasController() {
		if link.Attrs().MasterIndex == 0 {
			return nil
		}
		log.Infof("Detaching %s from its controller", des.Name)
		if err := m.nl.LinkSetNoMaster(link); err != nil {
			return pluginError("failed to detach "+des.Name, err)
		}
		return nil
	}

	ctrl, err := m.nl.LinkByName(des.ControllerName())
	if err != nil {
		return pluginError("controller "+des.ControllerName()+" not found", err)
	}
	if link.Attrs().MasterIndex == ctrl.Attrs().Index {
		return nil
	}
	if des.ControllerType == state.TypeBond {
		// The kernel only enslaves links that are down.
		if err := m.nl.LinkSetDown(link); err != nil {
			return pluginError("failed to set "+des.Name+" down", err)
		}
	}
	log.Infof("Attaching %s to %s", des.Name, des.ControllerName())
	if err := m.nl.LinkSetMasterByIndex(link, ctrl.Attrs().Index); err != nil {
		return pluginError("failed to attach "+des.Name+" to "+des.ControllerName(), err)
	}
	return nil
}

func (m *Manager) setAddresses(ms *state.MergedState) error {
	for _, des := range managed(ms) {
		target := ms.Merged.Interfaces.GetKernel(des.Name)
		link, err := m.nl.LinkByName(des.Name)
		if err != nil {
			return pluginError("interface "+des.Name+" not found", err)
		}
		v4, v6 := target.IPv4, target.IPv6
		if !target.CanHaveIP() {
			v4, v6 = nil, nil
		} else if des.IPv4 == nil && des.IPv6 == nil {
			continue
		}
		if des.IPv4 != nil || !target.CanHaveIP() {
			if err := m.syncAddresses(link, v4, netlink.FAMILY_V4); err != nil {
				return err
			}
		}
		if des.IPv6 != nil || !target.CanHaveIP() {
			if err := m.syncAddresses(link, v6, netlink.FAMILY_V6); err != nil {
				return err
			}
		}
	}
	return nil
}

// syncAddresses makes the addresses of a family equal to ip. IPv6 link-local
// addresses are left to the kernel.
func (m *Manager) syncAddresses(link netlink.Link, ip *state.InterfaceIP, family int) error {
	name := link.Attrs().Name
	current, err := m.nl.AddrList(link, family)
	if err != nil {
		return pluginError("failed to list addresses of "+name, err)
	}

	want := make(map[string]bool)
	if ip != nil && ip.Enabled {
		for _, addr := range ip.Addresses {
			want[addr.String()] = true
		}
	}

	have := make(map[string]bool)
	for i := range current {
		addr := &current[i]
		key, linkLocal := addrKey(addr)
		if linkLocal && family == netlink.FAMILY_V6 {
			continue
		}
		if want[key] {
			have[key] = true
			continue
		}
		log.Infof("Removing address %s from %s", key, name)
		if err := m.nl.AddrDel(link, addr); err != nil {
			return pluginError("failed to remove "+key+" from "+name, err)
		}
	}

	if ip == nil || !ip.Enabled {
		return nil
	}
	for _, a := range ip.Addresses {
		key := a.String()
		if have[key] {
			continue
		}
		addr, err := netlink.ParseAddr(key)
		if err != nil {
			return errors.NewInvalidArgument("invalid address "+key, err)
		}
		log.Infof("Adding address %s to %s", key, name)
		if err := m.nl.AddrAdd(link, addr); err != nil {
			return pluginError("failed to add "+key+" to "+name, err)
		}
	}
	return nil
}

func addrKey(addr *netlink.Addr) (string, bool) {
	if addr.IPNet == nil {
		return "", false
	}
	parsed, ok := netip.AddrFromSlice(addr.IP)
	if !ok {
		return addr.IPNet.String(), false
	}
	parsed = parsed.Unmap()
	ones, _ := addr.Mask.Size()
	return fmt.Sprintf("%s/%d", parsed, ones), parsed.IsLinkLocalUnicast()
}

func (m *Manager) setLinkStates(ms *state.MergedState) error {
	for _, des := range managed(ms) {
		target := ms.Merged.Interfaces.GetKernel(des.Name)
		link, err := m.nl.LinkByName(des.Name)
		if err != nil {
			return pluginError("interface "+des.Name+" not found", err)
		}
		iface := Interface{link}
		switch {
		case target.IsUp() && !iface.IsUp():
			log.Infof("Setting %s up", des.Name)
			if err := m.nl.LinkSetUp(link); err != nil {
				return pluginError("failed to set "+des.Name+" up", err)
			}
		case target.EffectiveState() == state.StateDown && iface.IsUp():
			log.Infof("Setting %s down", des.Name)
			if err := m.nl.LinkSetDown(link); err != nil {
				return pluginError("failed to set "+des.Name+" down", err)
			}
		}
	}
	return nil
}

func (m *Manager) applyRoutes(ms *state.MergedState) error {
	if ms.Desired.Routes == nil {
		return nil
	}
	for i := range ms.Desired.Routes.Config {
		entry := &ms.Desired.Routes.Config[i]
		if !entry.IsAbsent() || ms.Current.Routes == nil {
			continue
		}
		for j := range ms.Current.Routes.Config {
			cur := &ms.Current.Routes.Config[j]
			if !entry.Matches(cur) {
				continue
			}
			ipr, err := BuildRoute(m.nl, cur)
			if err != nil {
				// The next hop interface is gone and the route with it.
				log.Debugf("Skipping removal of %s: %v", cur, err)
				continue
			}
			if _, err := ipr.DelIfExists(); err != nil {
				return pluginError("failed to remove route "+cur.String(), err)
			}
		}
	}
	for i := range ms.Desired.Routes.Config {
		entry := &ms.Desired.Routes.Config[i]
		if entry.IsAbsent() {
			continue
		}
		ipr, err := BuildRoute(m.nl, entry)
		if err != nil {
			return err
		}
		if added, err := ipr.AddIfNotExists(); err != nil {
			return pluginError("failed to add route "+entry.String(), err)
		} else if added {
			log.Infof("Added route %s", entry)
		}
	}
	return nil
}

func (m *Manager) applyRules(ms *state.MergedState) error {
	if ms.Desired.Rules == nil {
		return nil
	}
	for i := range ms.Desired.Rules.Config {
		entry := &ms.Desired.Rules.Config[i]
		if !entry.IsAbsent() || ms.Current.Rules == nil {
			continue
		}
		for j := range ms.Current.Rules.Config {
			cur := &ms.Current.Rules.Config[j]
			if !entry.Matches(cur) {
				continue
			}
			ipr, err := BuildRule(m.nl, cur)
			if err != nil {
				return err
			}
			if _, err := ipr.DelIfExists(); err != nil {
				return pluginError("failed to remove route rule "+cur.String(), err)
			}
		}
	}
	for i := range ms.Desired.Rules.Config {
		entry := &ms.Desired.Rules.Config[i]
		if entry.IsAbsent() {
			continue
		}
		ipr, err := BuildRule(m.nl, entry)
		if err != nil {
			return err
		}
		if added, err := ipr.AddIfNotExists(); err != nil {
			return pluginError("failed to add route rule "+entry.String(), err)
		} else if added {
			log.Infof("Added route rule %s", entry)
		}
	}
	return nil
}

func (m *Manager) applyDNS(ms *state.MergedState) error {
	if ms.Desired.DNS == nil || ms.Desired.DNS.Config == nil {
		return nil
	}
	if m.resolvConfPath == "" {
		return errors.NewNotSupported("DNS configuration is disabled in the kernel backend")
	}
	return WriteResolvConf(m.resolvConfPath, ms.Merged.DNS.Config)
}
