package nm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

type keyValue struct {
	key   string
	value string
}

type SettingConnection struct {
	ID               string
	UUID             string
	Type             string
	IfaceName        string
	Autoconnect      *bool
	AutoconnectPorts *bool
	Controller       string
	PortType         string
	LLDP             *bool
	MptcpFlags       *uint32
}

func (s *SettingConnection) keys() []keyValue {
	kv := []keyValue{
		{"id", s.ID},
		{"uuid", s.UUID},
		{"type", s.Type},
	}
	if s.IfaceName != "" {
		kv = append(kv, keyValue{"interface-name", s.IfaceName})
	}
	if s.Autoconnect != nil {
		kv = append(kv, keyValue{"autoconnect", strconv.FormatBool(*s.Autoconnect)})
	}
	if s.AutoconnectPorts != nil {
		kv = append(kv, keyValue{"autoconnect-ports", boolToInt(*s.AutoconnectPorts)})
	}
	if s.Controller != "" {
		kv = append(kv, keyValue{"controller", s.Controller}, keyValue{"port-type", s.PortType})
	}
	if s.LLDP != nil {
		kv = append(kv, keyValue{"lldp", boolToInt(*s.LLDP)})
	}
	if s.MptcpFlags != nil {
		kv = append(kv, keyValue{"mptcp-flags", strconv.FormatUint(uint64(*s.MptcpFlags), 10)})
	}
	return kv
}

// SettingIP serves both the ipv4 and the ipv6 setting.
type SettingIP struct {
	Method           string
	Addresses        []string
	Routes           []SettingRoute
	RoutingRules     []string
	DNS              []string
	DNSSearch        []string
	IgnoreAutoDNS    *bool
	IgnoreAutoRoutes *bool
	NeverDefault     *bool
}

type SettingRoute struct {
	Destination string
	NextHop     string
	Metric      *int64
	Table       *uint32
	Type        string
}

func (r SettingRoute) value(isIPv6 bool) string {
	if r.NextHop == "" && r.Metric == nil {
		return r.Destination
	}
	nextHop := r.NextHop
	if nextHop == "" {
		nextHop = "0.0.0.0"
		if isIPv6 {
			nextHop = "::"
		}
	}
	v := r.Destination + "," + nextHop
	if r.Metric != nil {
		v += "," + strconv.FormatInt(*r.Metric, 10)
	}
	return v
}

func (r SettingRoute) options() string {
	var opts []string
	if r.Table != nil {
		opts = append(opts, fmt.Sprintf("table=%d", *r.Table))
	}
	if r.Type != "" {
		opts = append(opts, "type="+r.Type)
	}
	return strings.Join(opts, ",")
}

func (s *SettingIP) keys(isIPv6 bool) []keyValue {
	kv := []keyValue{{"method", s.Method}}
	for i, addr := range s.Addresses {
		kv = append(kv, keyValue{fmt.Sprintf("address%d", i+1), addr})
	}
	for i, route := range s.Routes {
		kv = append(kv, keyValue{fmt.Sprintf("route%d", i+1), route.value(isIPv6)})
		if opts := route.options(); opts != "" {
			kv = append(kv, keyValue{fmt.Sprintf("route%d_options", i+1), opts})
		}
	}
	for i, rule := range s.RoutingRules {
		kv = append(kv, keyValue{fmt.Sprintf("routing-rule%d", i+1), rule})
	}
	if len(s.DNS) > 0 {
		kv = append(kv, keyValue{"dns", joinList(s.DNS)})
	}
	if len(s.DNSSearch) > 0 {
		kv = append(kv, keyValue{"dns-search", joinList(s.DNSSearch)})
	}
	if s.IgnoreAutoDNS != nil {
		kv = append(kv, keyValue{"ignore-auto-dns", strconv.FormatBool(*s.IgnoreAutoDNS)})
	}
	if s.IgnoreAutoRoutes != nil {
		kv = append(kv, keyValue{"ignore-auto-routes", strconv.FormatBool(*s.IgnoreAutoRoutes)})
	}
	if s.NeverDefault != nil {
		kv = append(kv, keyValue{"never-default", strconv.FormatBool(*s.NeverDefault)})
	}
	return kv
}

type SettingWiredConf struct {
	MTU             *uint32
	ClonedMAC       string
	Speed           uint32
	Duplex          string
	AutoNegotiation *bool
}

func (s *SettingWiredConf) keys() []keyValue {
	var kv []keyValue
	if s.AutoNegotiation != nil {
		kv = append(kv, keyValue{"auto-negotiate", strconv.FormatBool(*s.AutoNegotiation)})
	}
	if s.ClonedMAC != "" {
		kv = append(kv, keyValue{"cloned-mac-address", s.ClonedMAC})
	}
	if s.Duplex != "" {
		kv = append(kv, keyValue{"duplex", s.Duplex})
	}
	if s.MTU != nil {
		kv = append(kv, keyValue{"mtu", strconv.FormatUint(uint64(*s.MTU), 10)})
	}
	if s.Speed != 0 {
		kv = append(kv, keyValue{"speed", strconv.FormatUint(uint64(s.Speed), 10)})
	}
	return kv
}

type SettingBondConf struct {
	Mode    string
	Options map[string]string
}

func (s *SettingBondConf) keys() []keyValue {
	var kv []keyValue
	if s.Mode != "" {
		kv = append(kv, keyValue{"mode", s.Mode})
	}
	for _, k := range sortedKeys(s.Options) {
		kv = append(kv, keyValue{k, s.Options[k]})
	}
	return kv
}

type SettingBridgeConf struct {
	STP               *bool
	ForwardDelay      *uint32
	HelloTime         *uint32
	MaxAge            *uint32
	Priority          *uint32
	MulticastSnooping *bool
}

func (s *SettingBridgeConf) keys() []keyValue {
	var kv []keyValue
	kv = appendUint(kv, "forward-delay", s.ForwardDelay)
	kv = appendUint(kv, "hello-time", s.HelloTime)
	kv = appendUint(kv, "max-age", s.MaxAge)
	if s.MulticastSnooping != nil {
		kv = append(kv, keyValue{"multicast-snooping", strconv.FormatBool(*s.MulticastSnooping)})
	}
	kv = appendUint(kv, "priority", s.Priority)
	if s.STP != nil {
		kv = append(kv, keyValue{"stp", strconv.FormatBool(*s.STP)})
	}
	return kv
}

type SettingBridgePort struct {
	Priority *uint32
	PathCost *uint32
}

func (s *SettingBridgePort) keys() []keyValue {
	var kv []keyValue
	kv = appendUint(kv, "path-cost", s.PathCost)
	kv = appendUint(kv, "priority", s.Priority)
	return kv
}

type SettingVlanConf struct {
	Parent   string
	ID       uint16
	Protocol string
}

func (s *SettingVlanConf) keys() []keyValue {
	kv := []keyValue{
		{"id", strconv.FormatUint(uint64(s.ID), 10)},
		{"parent", s.Parent},
	}
	if s.Protocol != "" {
		kv = append(kv, keyValue{"protocol", s.Protocol})
	}
	return kv
}

type SettingVxlanConf struct {
	Parent          string
	ID              uint32
	Remote          string
	Local           string
	DestinationPort *uint16
}

func (s *SettingVxlanConf) keys() []keyValue {
	var kv []keyValue
	if s.DestinationPort != nil {
		kv = append(kv, keyValue{"destination-port", strconv.FormatUint(uint64(*s.DestinationPort), 10)})
	}
	kv = append(kv, keyValue{"id", strconv.FormatUint(uint64(s.ID), 10)})
	if s.Local != "" {
		kv = append(kv, keyValue{"local", s.Local})
	}
	if s.Parent != "" {
		kv = append(kv, keyValue{"parent", s.Parent})
	}
	if s.Remote != "" {
		kv = append(kv, keyValue{"remote", s.Remote})
	}
	return kv
}

type SettingMacVlanConf struct {
	Parent      string
	Mode        uint32
	Promiscuous *bool
	Tap         bool
}

func (s *SettingMacVlanConf) keys() []keyValue {
	kv := []keyValue{
		{"mode", strconv.FormatUint(uint64(s.Mode), 10)},
		{"parent", s.Parent},
	}
	if s.Promiscuous != nil {
		kv = append(kv, keyValue{"promiscuous", strconv.FormatBool(*s.Promiscuous)})
	}
	kv = append(kv, keyValue{"tap", strconv.FormatBool(s.Tap)})
	return kv
}

type SettingVrfConf struct {
	Table uint32
}

func (s *SettingVrfConf) keys() []keyValue {
	return []keyValue{{"table", strconv.FormatUint(uint64(s.Table), 10)}}
}

type SettingVethConf struct {
	Peer string
}

func (s *SettingVethConf) keys() []keyValue {
	return []keyValue{{"peer", s.Peer}}
}

type SettingInfiniBandConf struct {
	TransportMode string
	PKey          *int64
	Parent        string
	MTU           *uint32
}

func (s *SettingInfiniBandConf) keys() []keyValue {
	var kv []keyValue
	kv = appendUint(kv, "mtu", s.MTU)
	if s.PKey != nil {
		kv = append(kv, keyValue{"p-key", strconv.FormatInt(*s.PKey, 10)})
	}
	if s.Parent != "" {
		kv = append(kv, keyValue{"parent", s.Parent})
	}
	if s.TransportMode != "" {
		kv = append(kv, keyValue{"transport-mode", s.TransportMode})
	}
	return kv
}

type SettingOvsBridgeConf struct {
	StpEnable           *bool
	McastSnoopingEnable *bool
}

func (s *SettingOvsBridgeConf) keys() []keyValue {
	var kv []keyValue
	if s.McastSnoopingEnable != nil {
		kv = append(kv, keyValue{"mcast-snooping-enable", strconv.FormatBool(*s.McastSnoopingEnable)})
	}
	if s.StpEnable != nil {
		kv = append(kv, keyValue{"stp-enable", strconv.FormatBool(*s.StpEnable)})
	}
	return kv
}

type SettingOvsPortConf struct {
	BondMode string
}

func (s *SettingOvsPortConf) keys() []keyValue {
	if s.BondMode == "" {
		return nil
	}
	return []keyValue{{"bond-mode", s.BondMode}}
}

type SettingOvsIfaceConf struct {
	Type string
}

func (s *SettingOvsIfaceConf) keys() []keyValue {
	return []keyValue{{"type", s.Type}}
}

type SettingOvsExternalIDs struct {
	Data map[string]string
}

func (s *SettingOvsExternalIDs) keys() []keyValue {
	var kv []keyValue
	for _, k := range sortedKeys(s.Data) {
		kv = append(kv, keyValue{"data." + k, s.Data[k]})
	}
	return kv
}

type SettingSriov struct {
	TotalVFs uint32
}

func (s *SettingSriov) keys() []keyValue {
	return []keyValue{{"total-vfs", strconv.FormatUint(uint64(s.TotalVFs), 10)}}
}

// SettingUser holds free-form user data.
type SettingUser struct {
	Data map[string]string
}

func (s *SettingUser) keys() []keyValue {
	var kv []keyValue
	for _, k := range sortedKeys(s.Data) {
		kv = append(kv, keyValue{k, s.Data[k]})
	}
	return kv
}

type Setting8021X struct {
	Values map[string]string
}

func (s *Setting8021X) keys() []keyValue {
	var kv []keyValue
	for _, k := range sortedKeys(s.Values) {
		kv = append(kv, keyValue{k, s.Values[k]})
	}
	return kv
}

type SettingEthtool struct {
	Values map[string]string
}

func (s *SettingEthtool) keys() []keyValue {
	var kv []keyValue
	for _, k := range sortedKeys(s.Values) {
		kv = append(kv, keyValue{k, s.Values[k]})
	}
	return kv
}

// userDescriptionKey stores the interface description in the user setting.
const userDescriptionKey = "nmstate.interface.description"

func (g *Generator) genIPSetting(iface *state.Interface, conn *Connection) {
	// Ports and OVS bridges carry no IP setting at all.
	if !iface.CanHaveIP() || iface.Type == typeOvsPort {
		conn.IPv4 = nil
		conn.IPv6 = nil
		return
	}
	conn.IPv4 = newIPSetting(iface.IPv4, false)
	conn.IPv6 = newIPSetting(iface.IPv6, true)

	if g.Desired == nil {
		return
	}
	for _, ip := range []struct {
		setting *SettingIP
		isIPv6  bool
	}{{conn.IPv4, false}, {conn.IPv6, true}} {
		if ip.setting.Method == "disabled" {
			continue
		}
		tables := make(map[uint32]bool)
		if g.Desired.Routes != nil {
			for _, route := range g.Desired.Routes.Config {
				if route.IsAbsent() || route.NextHopIface != iface.Name || route.IsIPv6() != ip.isIPv6 {
					continue
				}
				ip.setting.Routes = append(ip.setting.Routes, newRouteSetting(&route))
				tables[route.Table()] = true
			}
		}
		if g.Desired.Rules != nil {
			for _, rule := range g.Desired.Rules.Config {
				if rule.IsAbsent() || rule.RouteTable == nil || !tables[*rule.RouteTable] {
					continue
				}
				if (rule.RuleFamily() == "ipv6") != ip.isIPv6 {
					continue
				}
				ip.setting.RoutingRules = append(ip.setting.RoutingRules, routingRuleString(&rule))
			}
		}
		if g.Desired.DNS != nil && g.Desired.DNS.Config != nil && g.dnsIface(ip.isIPv6) == iface.Name {
			ip.setting.DNS = dnsServers(g.Desired.DNS.Config.Server, ip.isIPv6)
			ip.setting.DNSSearch = append([]string(nil), g.Desired.DNS.Config.Search...)
		}
	}
}

func newIPSetting(ip *state.InterfaceIP, isIPv6 bool) *SettingIP {
	if ip == nil || !ip.Enabled {
		return &SettingIP{Method: "disabled"}
	}
	setting := &SettingIP{}
	switch {
	case ip.IsAuto() && isIPv6 && ip.Autoconf != nil && !*ip.Autoconf:
		setting.Method = "dhcp"
	case ip.IsAuto():
		setting.Method = "auto"
	case len(ip.Addresses) > 0:
		setting.Method = "manual"
	case isIPv6:
		setting.Method = "link-local"
	default:
		setting.Method = "disabled"
	}
	for _, addr := range ip.Addresses {
		setting.Addresses = append(setting.Addresses, addr.String())
	}
	if ip.IsAuto() {
		setting.IgnoreAutoDNS = negate(ip.AutoDNS)
		setting.IgnoreAutoRoutes = negate(ip.AutoRoutes)
		setting.NeverDefault = negate(ip.AutoGateway)
	}
	return setting
}

func newRouteSetting(route *state.RouteEntry) SettingRoute {
	out := SettingRoute{
		Destination: route.Destination,
		NextHop:     route.NextHopAddr,
		Metric:      route.Metric,
		Type:        route.RouteType,
	}
	if route.TableID != nil {
		table := route.Table()
		out.Table = &table
	}
	return out
}

// defaultRulePriority is used for rules without an explicit priority.
const defaultRulePriority = 30000

func routingRuleString(rule *state.RouteRuleEntry) string {
	priority := int64(defaultRulePriority)
	if rule.Priority != nil {
		priority = *rule.Priority
	}
	parts := []string{fmt.Sprintf("priority %d", priority)}
	if rule.IPFrom != "" {
		parts = append(parts, "from "+rule.IPFrom)
	}
	if rule.IPTo != "" {
		parts = append(parts, "to "+rule.IPTo)
	}
	if rule.FwMark != nil {
		mark := fmt.Sprintf("fwmark %#x", *rule.FwMark)
		if rule.FwMask != nil {
			mark += fmt.Sprintf("/%#x", *rule.FwMask)
		}
		parts = append(parts, mark)
	}
	if rule.Action != "" {
		parts = append(parts, rule.Action)
	} else {
		parts = append(parts, fmt.Sprintf("table %d", *rule.RouteTable))
	}
	return strings.Join(parts, " ")
}

// dnsIface picks the interface carrying the DNS config of a family: the
// first one with a default route, else the first one with static addresses.
func (g *Generator) dnsIface(isIPv6 bool) string {
	if g.Desired.Routes != nil {
		for _, route := range g.Desired.Routes.Config {
			if route.IsAbsent() || route.IsIPv6() != isIPv6 {
				continue
			}
			if route.Destination == "0.0.0.0/0" || route.Destination == "::/0" {
				return route.NextHopIface
			}
		}
	}
	for _, iface := range g.Desired.Interfaces {
		ip := iface.IPv4
		if isIPv6 {
			ip = iface.IPv6
		}
		if ip != nil && ip.Enabled && iface.CanHaveIP() && !iface.IsAbsent() {
			return iface.Name
		}
	}
	return ""
}

func dnsServers(servers []string, isIPv6 bool) []string {
	var out []string
	for _, s := range servers {
		if strings.Contains(s, ":") == isIPv6 {
			out = append(out, s)
		}
	}
	return out
}

func genWiredSetting(iface *state.Interface, conn *Connection) {
	wired := &SettingWiredConf{}
	if conn.Wired != nil {
		*wired = *conn.Wired
	}
	if iface.MTU != nil {
		mtu := *iface.MTU
		wired.MTU = &mtu
	}
	if iface.MACAddress != "" {
		wired.ClonedMAC = iface.MACAddress
	}
	if eth := iface.Ethernet; eth != nil {
		wired.Speed = eth.Speed
		wired.Duplex = eth.Duplex
		wired.AutoNegotiation = eth.AutoNegotiation
	}
	if len(wired.keys()) > 0 {
		conn.Wired = wired
	}
}

func genBondSetting(iface *state.Interface, conn *Connection) {
	bond := &SettingBondConf{Options: map[string]string{}}
	if iface.Bond != nil {
		bond.Mode = iface.Bond.Mode
		for k, v := range iface.Bond.Options {
			bond.Options[k] = formatScalar(v)
		}
	}
	conn.Bond = bond
}

func genBridgeSetting(iface *state.Interface, conn *Connection) {
	br := &SettingBridgeConf{}
	if iface.Bridge != nil && iface.Bridge.Options != nil {
		opts := iface.Bridge.Options
		br.MulticastSnooping = opts.MulticastSnoop
		if stp := opts.STP; stp != nil {
			br.STP = stp.Enabled
			br.ForwardDelay = stp.ForwardDelay
			br.HelloTime = stp.HelloTime
			br.MaxAge = stp.MaxAge
			br.Priority = stp.Priority
		}
	}
	conn.Bridge = br
}

func genBridgePortSetting(ctrl *state.Interface, portName string, conn *Connection) {
	port := &SettingBridgePort{}
	if ctrl.Bridge != nil {
		for _, p := range ctrl.Bridge.Ports {
			if p.Name == portName {
				port.Priority = p.STPPriority
				port.PathCost = p.STPPathCost
			}
		}
	}
	conn.BridgePort = port
}

func genOvsBridgeSetting(iface *state.Interface, conn *Connection) {
	br := &SettingOvsBridgeConf{}
	if iface.Bridge != nil && iface.Bridge.Options != nil {
		if iface.Bridge.Options.STP != nil {
			br.StpEnable = iface.Bridge.Options.STP.Enabled
		}
		br.McastSnoopingEnable = iface.Bridge.Options.MulticastSnoop
	}
	conn.OvsBridge = br
}

func newVlanSetting(conf *state.VlanConfig) *SettingVlanConf {
	return &SettingVlanConf{Parent: conf.BaseIface, ID: conf.ID, Protocol: conf.Protocol}
}

func newVxlanSetting(conf *state.VxlanConfig) *SettingVxlanConf {
	return &SettingVxlanConf{
		Parent:          conf.BaseIface,
		ID:              conf.ID,
		Remote:          conf.Remote,
		Local:           conf.Local,
		DestinationPort: conf.DestinationPort,
	}
}

var macVlanModes = map[string]uint32{
	"vepa":     1,
	"bridge":   2,
	"private":  3,
	"passthru": 4,
	"source":   5,
}

func newMacVlanSetting(conf *state.MacVlanConfig, tap bool) *SettingMacVlanConf {
	return &SettingMacVlanConf{
		Parent:      conf.BaseIface,
		Mode:        macVlanModes[conf.Mode],
		Promiscuous: conf.Promiscuous,
		Tap:         tap,
	}
}

func genInfiniBandSetting(iface *state.Interface, conn *Connection) {
	ib := &SettingInfiniBandConf{TransportMode: "datagram"}
	if conf := iface.InfiniBand; conf != nil {
		if conf.Mode != "" {
			ib.TransportMode = conf.Mode
		}
		ib.Parent = conf.BaseIface
		if conf.PKey != "" {
			if pkey, err := strconv.ParseInt(conf.PKey, 0, 32); err == nil {
				ib.PKey = &pkey
			} else {
				log.Warnf("Ignoring invalid infiniband pkey %q of %s", conf.PKey, iface.Name)
			}
		}
	}
	ib.MTU = iface.MTU
	conn.InfiniBand = ib
}

func genOvsExtIDsSetting(iface *state.Interface, conn *Connection) {
	if iface.OvsDB == nil || len(iface.OvsDB.ExternalIDs) == 0 {
		return
	}
	data := make(map[string]string, len(iface.OvsDB.ExternalIDs))
	for k, v := range iface.OvsDB.ExternalIDs {
		data[k] = v
	}
	conn.OvsExtIDs = &SettingOvsExternalIDs{Data: data}
}

func genSriovSetting(iface *state.Interface, conn *Connection) {
	if iface.Ethernet == nil || iface.Ethernet.SRIOV == nil {
		return
	}
	if vfs, ok := iface.Ethernet.SRIOV["total-vfs"].(float64); ok && vfs >= 0 {
		conn.Sriov = &SettingSriov{TotalVFs: uint32(vfs)}
	}
}

func genUserSetting(iface *state.Interface, conn *Connection) {
	if iface.Description == "" {
		return
	}
	conn.User = &SettingUser{Data: map[string]string{userDescriptionKey: iface.Description}}
}

func gen8021XSetting(iface *state.Interface, conn *Connection) {
	if len(iface.IEEE8021X) == 0 {
		return
	}
	values := make(map[string]string, len(iface.IEEE8021X))
	for k, v := range iface.IEEE8021X {
		values[k] = formatScalar(v)
	}
	conn.IEEE8021X = &Setting8021X{Values: values}
}

// genEthtoolSetting maps the feature, coalesce, ring and pause sections to
// NetworkManager ethtool keys.
func genEthtoolSetting(iface *state.Interface, conn *Connection) error {
	if len(iface.Ethtool) == 0 {
		return nil
	}
	values := make(map[string]string)
	for section, raw := range iface.Ethtool {
		opts, ok := raw.(map[string]interface{})
		if !ok {
			return errors.Newf(errors.KindInvalidArgument, "ethtool %s of %s must be a mapping", section, iface.Name)
		}
		var prefix string
		switch section {
		case "feature":
			prefix = "feature-"
		case "coalesce":
			prefix = "coalesce-"
		case "ring":
			prefix = "ring-"
		case "pause":
			prefix = "pause-"
		default:
			return errors.NewNotSupported(fmt.Sprintf("ethtool %s is not supported", section))
		}
		for k, v := range opts {
			values[prefix+k] = formatScalar(v)
		}
	}
	conn.Ethtool = &SettingEthtool{Values: values}
	return nil
}

// NetworkManager MPTCP flags.
const (
	mptcpFlagDisabled = 0x1
	mptcpFlagEnabled  = 0x2
)

var mptcpAddressFlags = map[string]uint32{
	"signal":   0x10,
	"subflow":  0x20,
	"backup":   0x40,
	"fullmesh": 0x80,
}

func mptcpFlags(conf *state.MPTCPConfig) (uint32, error) {
	if len(conf.AddressFlags) == 0 {
		return mptcpFlagDisabled, nil
	}
	flags := uint32(mptcpFlagEnabled)
	for _, f := range conf.AddressFlags {
		v, ok := mptcpAddressFlags[f]
		if !ok {
			return 0, errors.Newf(errors.KindInvalidArgument, "unknown MPTCP address flag %q", f)
		}
		flags |= v
	}
	return flags, nil
}

func createOvsPortConnection(bridgeName string, portConf *state.BridgePortConfig, existing *Connection, stableUUID bool) (*Connection, error) {
	conn := &Connection{}
	if existing != nil {
		conn = existing.Clone()
	}
	portIface := &state.Interface{
		Name:           ovsPortIfaceName(portConf),
		Type:           typeOvsPort,
		Controller:     state.StringPtr(bridgeName),
		ControllerType: state.TypeOvsBridge,
	}
	if err := GenConnSetting(portIface, conn, stableUUID); err != nil {
		return nil, err
	}
	conn.OvsPort = &SettingOvsPortConf{}
	if lag := portConf.LinkAggregation; lag != nil {
		conn.OvsPort.BondMode = lag.Mode
	}
	return conn, nil
}

func ovsPortIfaceName(portConf *state.BridgePortConfig) string {
	return portConf.Name
}

// ovsPortFor returns the OVS port holding iface on the bridge: the bond port
// when iface is a bond member, iface itself otherwise.
func ovsPortFor(bridge *state.Interface, ifaceName string) string {
	if bridge != nil && bridge.Bridge != nil {
		for _, p := range bridge.Bridge.Ports {
			if p.LinkAggregation == nil {
				continue
			}
			for _, member := range p.LinkAggregation.Ports {
				if member == ifaceName {
					return p.Name
				}
			}
		}
	}
	return ifaceName
}

func createVethPeerProfileIfNotFound(peer, name string, existing []*Connection, stableUUID bool) (*Connection, error) {
	if found := ExistingProfile(existing, peer, state.TypeEthernet, nil); found != nil {
		return found.Clone(), nil
	}
	peerIface := &state.Interface{
		Name: peer,
		Type: state.TypeEthernet,
		Veth: &state.VethConfig{Peer: name},
	}
	conn := &Connection{}
	if err := GenConnSetting(peerIface, conn, stableUUID); err != nil {
		return nil, err
	}
	conn.Veth = &SettingVethConf{Peer: name}
	conn.IPv4 = &SettingIP{Method: "disabled"}
	conn.IPv6 = &SettingIP{Method: "disabled"}
	return conn, nil
}

func negate(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := !*b
	return &v
}

func boolToInt(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func appendUint(kv []keyValue, key string, v *uint32) []keyValue {
	if v == nil {
		return kv
	}
	return append(kv, keyValue{key, strconv.FormatUint(uint64(*v), 10)})
}

// joinList renders a keyfile list: items separated and terminated by ';'.
func joinList(items []string) string {
	return strings.Join(items, ";") + ";"
}

// formatScalar renders decoded JSON values the way keyfiles expect them.
func formatScalar(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	case []interface{}:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, formatScalar(item))
		}
		return joinList(items)
	default:
		return fmt.Sprint(val)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
