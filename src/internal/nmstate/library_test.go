package nmstate

import (
	"strings"
	"testing"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

func TestFormatNetState(t *testing.T) {
	doc := []byte(`{"interfaces": [{"name": "eth1", "type": "ethernet"}, {"name": "eth0", "type": "ethernet"}]}`)

	t.Run("renders sorted yaml", func(t *testing.T) {
		out, err := FormatNetState(doc, true)
		if err != nil {
			t.Fatalf("FormatNetState failed: %v", err)
		}
		first := strings.Index(out, "name: eth0")
		second := strings.Index(out, "name: eth1")
		if first < 0 || second < 0 || first > second {
			t.Errorf("Expected eth0 before eth1, got:\n%s", out)
		}
	})

	t.Run("renders indented json", func(t *testing.T) {
		out, err := FormatNetState(doc, false)
		if err != nil {
			t.Fatalf("FormatNetState failed: %v", err)
		}
		if !strings.HasPrefix(out, "{\n  \"interfaces\"") {
			t.Errorf("Expected indented JSON, got:\n%s", out)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := FormatNetState([]byte("interfaces: [unterminated"), true)
		if !errors.IsKind(err, errors.KindInvalidArgument) {
			t.Errorf("Expected InvalidArgument, got %v", err)
		}
	})
}

func TestLibrary_GenerateDifferences(t *testing.T) {
	l := NewLibrary(Options{Backend: newNullBackend()})
	defer l.Close()

	oldState := &state.NetworkState{Interfaces: state.Interfaces{
		{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp},
		{Name: "dummy0", Type: state.TypeDummy, State: state.StateUp},
	}}
	newState := &state.NetworkState{Interfaces: state.Interfaces{
		{Name: "eth0", Type: state.TypeEthernet, State: state.StateUp, MTU: state.Uint32Ptr(9000)},
	}}

	diff, err := l.GenerateDifferences(newState, oldState)
	if err != nil {
		t.Fatalf("GenerateDifferences failed: %v", err)
	}
	if len(diff.Interfaces) != 2 {
		t.Fatalf("Expected 2 interfaces in the difference, got %d", len(diff.Interfaces))
	}
	if eth0 := diff.Interfaces.Get("eth0"); eth0 == nil || eth0.MTU == nil || *eth0.MTU != 9000 {
		t.Errorf("Expected eth0 with mtu 9000, got %+v", eth0)
	}
	if dummy := diff.Interfaces.Get("dummy0"); dummy == nil || !dummy.IsAbsent() {
		t.Errorf("Expected dummy0 marked absent, got %+v", dummy)
	}
}

func TestHideSecrets(t *testing.T) {
	ns := &state.NetworkState{Interfaces: state.Interfaces{
		{Name: "eth0", IEEE8021X: map[string]interface{}{
			"identity":             "user",
			"password":             "one",
			"private-key-password": "two",
		}},
		{Name: "eth1"},
	}}
	hideSecrets(ns)

	dot1x := ns.Interfaces[0].IEEE8021X
	for _, key := range []string{"password", "private-key-password"} {
		if dot1x[key] != hiddenPassword {
			t.Errorf("Expected %s hidden, got %v", key, dot1x[key])
		}
	}
	if dot1x["identity"] != "user" {
		t.Errorf("Expected identity kept, got %v", dot1x["identity"])
	}
}
