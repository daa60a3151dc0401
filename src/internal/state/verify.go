package state

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

// unverifiedPaths lists properties the kernel does not report back. List
// indexes are left out of the paths.
var unverifiedPaths = map[string]bool{
	"lldp":                         true,
	"mptcp":                        true,
	"ethtool":                      true,
	"802.1x":                       true,
	"ovs-db":                       true,
	"ethernet":                     true,
	"infiniband":                   true,
	"link-aggregation.options":     true,
	"bridge.options.stp":           true,
	"bridge.port.stp-priority":     true,
	"bridge.port.stp-path-cost":    true,
	"bridge.port.vlan":             true,
	"bridge.port.link-aggregation": true,
	"mac-vlan.promiscuous":         true,
	"mac-vtap.promiscuous":         true,
	"ipv4.auto-dns":                true,
	"ipv4.auto-routes":             true,
	"ipv4.auto-gateway":            true,
	"ipv6.auto-dns":                true,
	"ipv6.auto-routes":             true,
	"ipv6.auto-gateway":            true,
	"vxlan.destination-port":       true,
}

// Verify checks that current reflects every property the desired state of
// the merge specifies. The first mismatch is returned as a VerificationError.
func (m *MergedState) Verify(current *NetworkState) error {
	cur := current.Clone()
	if cur == nil {
		cur = &NetworkState{}
	}
	if err := cur.Sanitize(false); err != nil {
		return err
	}

	for _, des := range m.Desired.Interfaces {
		if des.IsIgnore() {
			continue
		}
		curIface := cur.Interfaces.Find(des.Name, des.Type)
		if des.IsAbsent() {
			if curIface != nil && curIface.IsVirtual() {
				return errors.NewVerificationError(fmt.Sprintf(
					"Verification failure: %s is still present", des.Name))
			}
			continue
		}
		if curIface == nil {
			return errors.NewVerificationError(fmt.Sprintf(
				"Verification failure: interface %s not found", des.Name))
		}
		target := m.Merged.Interfaces.Find(des.Name, des.Type)
		if target == nil {
			target = des
		}
		if err := verifyInterface(des.Name, projectInterface(target, des), projectInterface(curIface, des)); err != nil {
			return err
		}
	}

	if err := m.verifyRoutes(cur); err != nil {
		return err
	}
	if err := m.verifyRules(cur); err != nil {
		return err
	}
	return m.verifyDNS(cur)
}

func verifyInterface(name string, want, got *Interface) error {
	normalizeForVerify(want)
	normalizeForVerify(got)
	wantMap, err := toGeneric(want)
	if err != nil {
		return err
	}
	gotMap, err := toGeneric(got)
	if err != nil {
		return err
	}
	if path, w, g, ok := compareValue("", wantMap, gotMap); !ok {
		return errors.NewVerificationError(fmt.Sprintf(
			"Verification failure: %s.%s desire '%s', current '%s'", name, path, formatValue(w), formatValue(g)))
	}
	return nil
}

// normalizeForVerify sorts lists whose order carries no meaning.
func normalizeForVerify(iface *Interface) {
	for _, ip := range []*InterfaceIP{iface.IPv4, iface.IPv6} {
		if ip == nil {
			continue
		}
		sort.Slice(ip.Addresses, func(i, j int) bool {
			return ip.Addresses[i].String() < ip.Addresses[j].String()
		})
	}
	if iface.Bond != nil {
		sort.Strings(iface.Bond.Ports)
	}
	if iface.Vrf != nil {
		sort.Strings(iface.Vrf.Ports)
	}
	if iface.Bridge != nil {
		sort.Slice(iface.Bridge.Ports, func(i, j int) bool {
			return iface.Bridge.Ports[i].Name < iface.Bridge.Ports[j].Name
		})
	}
}

func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewBug("failed to encode state for verification", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.NewBug("failed to decode state for verification", err)
	}
	return out, nil
}

// compareValue checks that got holds everything want holds. Maps are compared
// by the keys of want, lists element by element. On mismatch it returns the
// property path and both values.
func compareValue(path string, want, got interface{}) (string, interface{}, interface{}, bool) {
	if unverifiedPaths[stripIndexes(path)] {
		return "", nil, nil, true
	}
	switch w := want.(type) {
	case map[string]interface{}:
		g, _ := got.(map[string]interface{})
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "name" && path == "" {
				continue
			}
			if p, wv, gv, ok := compareValue(joinPath(path, k), w[k], g[k]); !ok {
				return p, wv, gv, false
			}
		}
		return "", nil, nil, true
	case []interface{}:
		if len(w) == 0 && got == nil {
			// An empty list is reported as absent.
			return "", nil, nil, true
		}
		g, ok := got.([]interface{})
		if !ok || len(g) != len(w) {
			return path, want, got, false
		}
		for i := range w {
			// Lists are reported whole so the message shows the difference.
			if _, _, _, ok := compareValue(fmt.Sprintf("%s[%d]", path, i), w[i], g[i]); !ok {
				return path, want, got, false
			}
		}
		return "", nil, nil, true
	default:
		if !reflect.DeepEqual(want, got) {
			return path, want, got, false
		}
		return "", nil, nil, true
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// stripIndexes turns "bridge.port[0].vlan" into "bridge.port.vlan".
func stripIndexes(path string) string {
	var sb strings.Builder
	depth := 0
	for _, r := range path {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (m *MergedState) verifyRoutes(cur *NetworkState) error {
	if m.Desired.Routes == nil {
		return nil
	}
	var curRoutes []RouteEntry
	if cur.Routes != nil {
		curRoutes = append(append(curRoutes, cur.Routes.Config...), cur.Routes.Running...)
	}
	for i := range m.Desired.Routes.Config {
		route := &m.Desired.Routes.Config[i]
		found := false
		for j := range curRoutes {
			if route.Matches(&curRoutes[j]) {
				found = true
				break
			}
		}
		if route.IsAbsent() && found {
			return errors.NewVerificationError(fmt.Sprintf(
				"Verification failure: route %s still exists", route))
		}
		if !route.IsAbsent() && !found {
			return errors.NewVerificationError(fmt.Sprintf(
				"Verification failure: route %s not found", route))
		}
	}
	return nil
}

func (m *MergedState) verifyRules(cur *NetworkState) error {
	if m.Desired.Rules == nil {
		return nil
	}
	var curRules []RouteRuleEntry
	if cur.Rules != nil {
		curRules = cur.Rules.Config
	}
	for i := range m.Desired.Rules.Config {
		rule := &m.Desired.Rules.Config[i]
		found := false
		for j := range curRules {
			if rule.Matches(&curRules[j]) {
				found = true
				break
			}
		}
		if rule.IsAbsent() && found {
			return errors.NewVerificationError(fmt.Sprintf(
				"Verification failure: route rule %s still exists", rule))
		}
		if !rule.IsAbsent() && !found {
			return errors.NewVerificationError(fmt.Sprintf(
				"Verification failure: route rule %s not found", rule))
		}
	}
	return nil
}

func (m *MergedState) verifyDNS(cur *NetworkState) error {
	if m.Desired.DNS == nil || m.Desired.DNS.Config == nil {
		return nil
	}
	want := m.Desired.DNS.Config
	got := &DNSConfig{}
	if cur.DNS != nil && cur.DNS.Config != nil {
		got = cur.DNS.Config
	}
	if !equalStrings(want.Server, got.Server) {
		return errors.NewVerificationError(fmt.Sprintf(
			"Verification failure: dns-resolver.config.server desire '%s', current '%s'",
			strings.Join(want.Server, " "), strings.Join(got.Server, " ")))
	}
	if !equalStrings(want.Search, got.Search) {
		return errors.NewVerificationError(fmt.Sprintf(
			"Verification failure: dns-resolver.config.search desire '%s', current '%s'",
			strings.Join(want.Search, " "), strings.Join(got.Search, " ")))
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
