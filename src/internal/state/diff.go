package state

import (
	"bytes"
	"encoding/json"
)

// GenerateDifferences returns the state that turns old into new: interfaces
// that changed are included in full, interfaces only in old are marked
// absent. Routes and rules list additions plus absent entries for removals.
// The DNS section is included when it changed.
func GenerateDifferences(newState, oldState *NetworkState) (*NetworkState, error) {
	if newState == nil {
		newState = &NetworkState{}
	}
	if oldState == nil {
		oldState = &NetworkState{}
	}
	diff := &NetworkState{}

	for _, iface := range newState.Interfaces {
		old := oldState.Interfaces.Find(iface.Name, iface.Type)
		if old != nil {
			same, err := sameInterface(iface, old)
			if err != nil {
				return nil, err
			}
			if same {
				continue
			}
		}
		diff.Interfaces = append(diff.Interfaces, iface.Clone())
	}
	for _, old := range oldState.Interfaces {
		if newState.Interfaces.Find(old.Name, old.Type) == nil && !old.IsAbsent() {
			diff.Interfaces = append(diff.Interfaces, &Interface{
				Name:  old.Name,
				Type:  old.Type,
				State: StateAbsent,
			})
		}
	}

	diff.Routes = diffRoutes(newState.Routes, oldState.Routes)
	diff.Rules = diffRules(newState.Rules, oldState.Rules)
	if newState.DNS != nil && newState.DNS.Config != nil {
		var oldCfg *DNSConfig
		if oldState.DNS != nil {
			oldCfg = oldState.DNS.Config
		}
		if oldCfg == nil || !equalStrings(oldCfg.Server, newState.DNS.Config.Server) ||
			!equalStrings(oldCfg.Search, newState.DNS.Config.Search) {
			diff.DNS = &DNSState{Config: cloneDNS(newState.DNS.Config)}
		}
	}
	return diff, nil
}

func sameInterface(a, b *Interface) (bool, error) {
	left := a.Clone()
	right := b.Clone()
	normalizeForVerify(left)
	normalizeForVerify(right)
	if left.State == "" {
		left.State = StateUp
	}
	if right.State == "" {
		right.State = StateUp
	}
	leftData, err := json.Marshal(left)
	if err != nil {
		return false, err
	}
	rightData, err := json.Marshal(right)
	if err != nil {
		return false, err
	}
	return bytes.Equal(leftData, rightData), nil
}

func diffRoutes(newRoutes, oldRoutes *Routes) *Routes {
	var newCfg, oldCfg []RouteEntry
	if newRoutes != nil {
		newCfg = newRoutes.Config
	}
	if oldRoutes != nil {
		oldCfg = oldRoutes.Config
	}
	var out []RouteEntry
	for i := range newCfg {
		if !containsRoute(oldCfg, &newCfg[i]) {
			out = append(out, newCfg[i])
		}
	}
	for i := range oldCfg {
		if oldCfg[i].IsAbsent() {
			continue
		}
		if !containsRoute(newCfg, &oldCfg[i]) {
			absent := oldCfg[i]
			absent.State = stateAbsent
			out = append(out, absent)
		}
	}
	if out == nil {
		return nil
	}
	return &Routes{Config: out}
}

func diffRules(newRules, oldRules *RouteRules) *RouteRules {
	var newCfg, oldCfg []RouteRuleEntry
	if newRules != nil {
		newCfg = newRules.Config
	}
	if oldRules != nil {
		oldCfg = oldRules.Config
	}
	var out []RouteRuleEntry
	for i := range newCfg {
		if !containsRule(oldCfg, &newCfg[i]) {
			out = append(out, newCfg[i])
		}
	}
	for i := range oldCfg {
		if oldCfg[i].IsAbsent() {
			continue
		}
		if !containsRule(newCfg, &oldCfg[i]) {
			absent := oldCfg[i]
			absent.State = stateAbsent
			out = append(out, absent)
		}
	}
	if out == nil {
		return nil
	}
	return &RouteRules{Config: out}
}
