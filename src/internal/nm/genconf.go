package nm

import (
	"sort"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// Keyfile is a rendered profile.
type Keyfile struct {
	FileName string
	Content  string
}

// GenConf renders a keyfile for every interface of the desired state without
// looking at the running system. Keyfiles are sorted by file name.
func GenConf(desired *state.NetworkState) ([]Keyfile, error) {
	ns := desired.Clone()
	if err := resolveGenConfControllers(ns); err != nil {
		return nil, err
	}

	g := &Generator{Desired: ns}
	seen := make(map[string]bool)
	var files []Keyfile
	for _, iface := range ns.Interfaces {
		if iface.IsAbsent() || iface.IsIgnore() {
			log.Debugf("Skipping %s interface %s", iface.State, iface.Name)
			continue
		}
		var ctrl *state.Interface
		if iface.HasController() {
			ctrl = findController(ns.Interfaces, iface.ControllerName())
		}
		vethPeerInDesired := iface.Veth != nil && ns.Interfaces.GetKernel(iface.Veth.Peer) != nil

		conns, err := g.IfaceToConnections(iface, ctrl, vethPeerInDesired)
		if err != nil {
			return nil, err
		}
		for _, conn := range conns {
			name := conn.FileName()
			if seen[name] {
				continue
			}
			seen[name] = true
			content, err := conn.ToKeyfile()
			if err != nil {
				return nil, err
			}
			files = append(files, Keyfile{FileName: name, Content: content})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FileName < files[j].FileName })
	return files, nil
}

// resolveGenConfControllers links ports and controllers using only the
// desired state. Ports listed by a controller but not described get a
// minimal profile.
func resolveGenConfControllers(ns *state.NetworkState) error {
	for _, ctrl := range append(state.Interfaces(nil), ns.Interfaces...) {
		if !ctrl.IsController() || ctrl.IsAbsent() {
			continue
		}
		for _, portName := range ctrl.Ports() {
			port := ns.Interfaces.GetKernel(portName)
			if port == nil {
				if ctrl.Type == state.TypeOvsBridge && isOvsBondPort(ctrl, portName) {
					// The bond port itself only exists in OVS.
					continue
				}
				portType := state.TypeEthernet
				if ctrl.Type == state.TypeOvsBridge && portName == ctrl.Name {
					portType = state.TypeOvsInterface
				}
				log.Infof("Port %s of %s is not described, generating a %s profile", portName, ctrl.Name, portType)
				port = &state.Interface{Name: portName, Type: portType, State: state.StateUp}
				ns.Interfaces = append(ns.Interfaces, port)
			}
			port.Controller = state.StringPtr(ctrl.Name)
			port.ControllerType = ctrl.Type
		}
	}

	for _, iface := range ns.Interfaces {
		if !iface.HasController() || iface.ControllerType != "" {
			continue
		}
		ctrl := findController(ns.Interfaces, iface.ControllerName())
		if ctrl == nil {
			return errors.Newf(errors.KindInvalidArgument,
				"controller %s of interface %s is not in the desired state", iface.ControllerName(), iface.Name)
		}
		iface.ControllerType = ctrl.Type
	}
	ns.Interfaces.Sort()
	return nil
}

// findController returns the controller interface named name, skipping any
// OVS internal interface sharing the bridge name.
func findController(ifaces state.Interfaces, name string) *state.Interface {
	for _, iface := range ifaces {
		if iface.Name == name && iface.IsController() {
			return iface
		}
	}
	return nil
}

func isOvsBondPort(bridge *state.Interface, name string) bool {
	if bridge.Bridge == nil {
		return false
	}
	for _, p := range bridge.Bridge.Ports {
		if p.Name == name && p.LinkAggregation != nil {
			return true
		}
	}
	return false
}
