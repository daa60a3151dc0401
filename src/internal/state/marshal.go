package state

import "encoding/json"

// The list fields below distinguish "not specified" (nil, omitted) from
// "none" (empty, encoded as []). Plain omitempty would drop both, so a
// stored revert state could no longer detach ports or clear addresses.

func (b BondConfig) MarshalJSON() ([]byte, error) {
	type plain BondConfig
	return json.Marshal(struct {
		plain
		Ports *[]string `json:"port,omitempty"`
	}{plain: plain(b), Ports: listPtr(b.Ports)})
}

func (b BridgeConfig) MarshalJSON() ([]byte, error) {
	type plain BridgeConfig
	return json.Marshal(struct {
		plain
		Ports *[]BridgePortConfig `json:"port,omitempty"`
	}{plain: plain(b), Ports: listPtr(b.Ports)})
}

func (v VrfConfig) MarshalJSON() ([]byte, error) {
	type plain VrfConfig
	return json.Marshal(struct {
		plain
		Ports *[]string `json:"port,omitempty"`
	}{plain: plain(v), Ports: listPtr(v.Ports)})
}

func (ip InterfaceIP) MarshalJSON() ([]byte, error) {
	type plain InterfaceIP
	return json.Marshal(struct {
		plain
		Addresses *[]IPAddress `json:"address,omitempty"`
	}{plain: plain(ip), Addresses: listPtr(ip.Addresses)})
}

func (c DNSConfig) MarshalJSON() ([]byte, error) {
	type plain DNSConfig
	return json.Marshal(struct {
		plain
		Server *[]string `json:"server,omitempty"`
		Search *[]string `json:"search,omitempty"`
	}{plain: plain(c), Server: listPtr(c.Server), Search: listPtr(c.Search)})
}

func listPtr[T any](s []T) *[]T {
	if s == nil {
		return nil
	}
	return &s
}
