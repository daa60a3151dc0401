package state

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

// InterfaceIP is the ipv4 or ipv6 section of an interface. DHCP applies to
// ipv4 and ipv6, Autoconf to ipv6 only. A static section without "address"
// keeps the current addresses; disable the section to drop them.
type InterfaceIP struct {
	Enabled     bool        `json:"enabled"`
	DHCP        *bool       `json:"dhcp,omitempty"`
	Autoconf    *bool       `json:"autoconf,omitempty"`
	Addresses   []IPAddress `json:"address,omitempty" validate:"dive"`
	AutoDNS     *bool       `json:"auto-dns,omitempty"`
	AutoRoutes  *bool       `json:"auto-routes,omitempty"`
	AutoGateway *bool       `json:"auto-gateway,omitempty"`
}

// IPAddress is a single static address.
type IPAddress struct {
	IP           string `json:"ip" validate:"required,ip"`
	PrefixLength uint8  `json:"prefix-length" validate:"max=128"`
}

func (a IPAddress) String() string {
	return fmt.Sprintf("%s/%d", a.IP, a.PrefixLength)
}

// UnmarshalJSON treats a missing "enabled" as true when the section asks for
// DHCP, autoconf or static addresses.
func (ip *InterfaceIP) UnmarshalJSON(data []byte) error {
	type plain InterfaceIP
	aux := struct {
		*plain
		Enabled *bool `json:"enabled"`
	}{plain: (*plain)(ip)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Enabled != nil {
		ip.Enabled = *aux.Enabled
	} else {
		ip.Enabled = isTrue(ip.DHCP) || isTrue(ip.Autoconf) || len(ip.Addresses) > 0
	}
	return nil
}

// IsAuto reports whether the addresses come from DHCP or autoconf.
func (ip *InterfaceIP) IsAuto() bool {
	return ip != nil && ip.Enabled && (isTrue(ip.DHCP) || isTrue(ip.Autoconf))
}

// Clone returns a deep copy.
func (ip *InterfaceIP) Clone() *InterfaceIP {
	if ip == nil {
		return nil
	}
	out := *ip
	out.DHCP = cloneBool(ip.DHCP)
	out.Autoconf = cloneBool(ip.Autoconf)
	out.AutoDNS = cloneBool(ip.AutoDNS)
	out.AutoRoutes = cloneBool(ip.AutoRoutes)
	out.AutoGateway = cloneBool(ip.AutoGateway)
	out.Addresses = cloneSlice(ip.Addresses)
	return &out
}

// Sanitize canonicalizes addresses and drops properties meaningless for the
// current mode. isIPv6 selects the prefix range. When isDesired is false the
// section describes a state reported or generated by nmstate itself, and
// IPv6 link-local addresses are dropped as the kernel manages them.
func (ip *InterfaceIP) Sanitize(isIPv6 bool, isDesired bool) error {
	if ip == nil {
		return nil
	}
	if !ip.Enabled {
		ip.DHCP = nil
		ip.Autoconf = nil
		ip.Addresses = nil
		ip.AutoDNS = nil
		ip.AutoRoutes = nil
		ip.AutoGateway = nil
		return nil
	}
	if !isIPv6 && ip.Autoconf != nil {
		if isDesired && isTrue(ip.Autoconf) {
			return errors.NewInvalidArgument("autoconf is only supported for ipv6", nil)
		}
		ip.Autoconf = nil
	}
	if !ip.IsAuto() {
		ip.AutoDNS = nil
		ip.AutoRoutes = nil
		ip.AutoGateway = nil
	}

	if ip.Addresses == nil {
		return nil
	}

	maxPrefix := uint8(32)
	if isIPv6 {
		maxPrefix = 128
	}

	seen := make(map[string]bool, len(ip.Addresses))
	addrs := make([]IPAddress, 0, len(ip.Addresses))
	for _, addr := range ip.Addresses {
		parsed, err := netip.ParseAddr(strings.TrimSpace(addr.IP))
		if err != nil {
			return errors.NewInvalidArgument(fmt.Sprintf("invalid IP address %q", addr.IP), err)
		}
		if parsed.Is4() == isIPv6 && !parsed.Is4In6() {
			return errors.Newf(errors.KindInvalidArgument, "IP address %s does not belong to %s", addr.IP, familyName(isIPv6))
		}
		if addr.PrefixLength > maxPrefix {
			return errors.Newf(errors.KindInvalidArgument, "invalid prefix length %d for %s", addr.PrefixLength, addr.IP)
		}
		if !isDesired && isIPv6 && parsed.IsLinkLocalUnicast() {
			continue
		}
		canonical := IPAddress{IP: parsed.Unmap().String(), PrefixLength: addr.PrefixLength}
		if seen[canonical.String()] {
			continue
		}
		seen[canonical.String()] = true
		addrs = append(addrs, canonical)
	}
	ip.Addresses = addrs
	return nil
}

func familyName(isIPv6 bool) string {
	if isIPv6 {
		return "ipv6"
	}
	return "ipv4"
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool {
	return &v
}

// Uint32Ptr returns a pointer to v.
func Uint32Ptr(v uint32) *uint32 {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
