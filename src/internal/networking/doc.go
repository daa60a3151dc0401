// Package networking is the kernel backend of nmstate.
//
// It reads the network state of the host through netlink and programs a
// merged state back, without a network manager daemon in between.
//
// # Architecture
//
//   - Manager: entry point holding the Netlinker and the resolv.conf path
//   - Netlinker: the netlink calls used, swapped for an in-memory fake in tests
//   - IpRoute / IpRule: single route and rule objects with idempotent add/delete
//   - Interface: a netlink link with its nmstate type
//
// # Query
//
// QueryState lists links, addresses, routes (except the local table), rules
// (except the three kernel default rules) and the resolv.conf content. Routes
// installed by the kernel, RA or a DHCP client show up in running routes only.
//
// # Apply
//
// ApplyState runs these steps in order:
//
//  1. delete virtual interfaces marked absent, set physical ones down
//  2. create missing interfaces, base interfaces first
//  3. set MTU, MAC address, description and controller
//  4. synchronize static addresses
//  5. set links up or down
//  6. remove absent routes and rules, then add desired ones
//  7. write resolv.conf
//
// DHCP, IPv6 autoconf, Open vSwitch and rule actions are rejected with a
// NotSupportedError before anything is changed.
//
// # Example Usage
//
//	m := networking.NewManager(nil, networking.DefaultResolvConfPath)
//	current, err := m.QueryState(ctx, networking.QueryOptions{})
//	if err != nil {
//		return err
//	}
//	merged, err := state.Merge(desired, current)
//	if err != nil {
//		return err
//	}
//	return m.ApplyState(ctx, merged)
package networking
