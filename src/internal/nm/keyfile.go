package nm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

// KeyfileSuffix is the file name suffix NetworkManager loads keyfiles from.
const KeyfileSuffix = ".nmconnection"

func init() {
	ini.PrettyFormat = false
	ini.PrettyEqual = false
}

type section struct {
	name string
	keys []keyValue
}

func (c *Connection) sections() []section {
	var out []section
	add := func(name string, kv []keyValue) {
		out = append(out, section{name: name, keys: kv})
	}
	if c.Connection != nil {
		add("connection", c.Connection.keys())
	}
	if c.Wired != nil {
		add("ethernet", c.Wired.keys())
	}
	if c.Veth != nil {
		add("veth", c.Veth.keys())
	}
	if c.Bond != nil {
		add("bond", c.Bond.keys())
	}
	if c.Bridge != nil {
		add("bridge", c.Bridge.keys())
	}
	if c.BridgePort != nil {
		add("bridge-port", c.BridgePort.keys())
	}
	if c.Vlan != nil {
		add("vlan", c.Vlan.keys())
	}
	if c.Vxlan != nil {
		add("vxlan", c.Vxlan.keys())
	}
	if c.MacVlan != nil {
		add("macvlan", c.MacVlan.keys())
	}
	if c.Vrf != nil {
		add("vrf", c.Vrf.keys())
	}
	if c.InfiniBand != nil {
		add("infiniband", c.InfiniBand.keys())
	}
	if c.OvsBridge != nil {
		add("ovs-bridge", c.OvsBridge.keys())
	}
	if c.OvsPort != nil {
		add("ovs-port", c.OvsPort.keys())
	}
	if c.OvsIface != nil {
		add("ovs-interface", c.OvsIface.keys())
	}
	if c.OvsExtIDs != nil {
		add("ovs-external-ids", c.OvsExtIDs.keys())
	}
	if c.Sriov != nil {
		add("sriov", c.Sriov.keys())
	}
	if c.IEEE8021X != nil {
		add("802-1x", c.IEEE8021X.keys())
	}
	if c.Ethtool != nil {
		add("ethtool", c.Ethtool.keys())
	}
	if c.IPv4 != nil {
		add("ipv4", c.IPv4.keys(false))
	}
	if c.IPv6 != nil {
		add("ipv6", c.IPv6.keys(true))
	}
	if c.User != nil {
		add("user", c.User.keys())
	}
	return out
}

// ToKeyfile renders the profile in NetworkManager keyfile format.
func (c *Connection) ToKeyfile() (string, error) {
	if c.Connection == nil {
		return "", errors.NewBug("connection setting missing", nil)
	}
	f := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
	for _, s := range c.sections() {
		sec, err := f.NewSection(s.name)
		if err != nil {
			return "", errors.NewBug("failed to create keyfile section "+s.name, err)
		}
		for _, kv := range s.keys {
			if _, err := sec.NewKey(kv.key, kv.value); err != nil {
				return "", errors.NewBug("failed to create keyfile key "+kv.key, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return "", errors.NewBug("failed to render keyfile", err)
	}
	return buf.String(), nil
}

// FileName returns the keyfile name of the profile.
func (c *Connection) FileName() string {
	return c.ID() + KeyfileSuffix
}

// ParseKeyfile reads the connection setting and the runtime flags of a
// keyfile. Other settings are left nil.
func ParseKeyfile(data []byte) (*Connection, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, errors.NewInvalidArgument("invalid keyfile", err)
	}
	sec, err := f.GetSection("connection")
	if err != nil {
		return nil, errors.NewInvalidArgument("keyfile has no connection section", err)
	}

	setting := &SettingConnection{
		ID:        sec.Key("id").String(),
		UUID:      sec.Key("uuid").String(),
		Type:      normalizeConnType(sec.Key("type").String()),
		IfaceName: sec.Key("interface-name").String(),
	}
	if setting.ID == "" || setting.Type == "" {
		return nil, errors.NewInvalidArgument("keyfile is missing connection id or type", nil)
	}
	if sec.HasKey("autoconnect") {
		v, err := sec.Key("autoconnect").Bool()
		if err != nil {
			return nil, errors.NewInvalidArgument("invalid autoconnect value", err)
		}
		setting.Autoconnect = &v
	}
	setting.Controller = firstKey(sec, "controller", "master")
	setting.PortType = firstKey(sec, "port-type", "slave-type")

	conn := &Connection{Connection: setting}
	if flags := sec.Key("nmstate-flags").String(); flags != "" {
		for _, flag := range strings.Split(flags, ";") {
			if flag != "" {
				conn.Flags = append(conn.Flags, flag)
			}
		}
	}
	return conn, nil
}

// LoadProfiles parses every keyfile in dir. A missing directory holds no
// profiles.
func LoadProfiles(dir string) ([]*Connection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindInvalidArgument, "failed to read profile directory", err)
	}
	var conns []*Connection
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), KeyfileSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrap(errors.KindInvalidArgument, "failed to read "+entry.Name(), err)
		}
		conn, err := ParseKeyfile(data)
		if err != nil {
			return nil, errors.Wrap(errors.KindInvalidArgument, "failed to parse "+entry.Name(), err)
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

func firstKey(sec *ini.Section, names ...string) string {
	for _, name := range names {
		if v := sec.Key(name).String(); v != "" {
			return v
		}
	}
	return ""
}

// normalizeConnType maps keyfile type aliases to setting names.
func normalizeConnType(t string) string {
	switch t {
	case "ethernet":
		return SettingWired
	}
	return t
}
