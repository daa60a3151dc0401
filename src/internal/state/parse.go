package state

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

//go:embed schema.json
var schemaJSON []byte

var (
	stateSchema     *jsonschema.Schema
	stateSchemaOnce sync.Once
	stateSchemaErr  error
)

func loadStateSchema() (*jsonschema.Schema, error) {
	stateSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("nmstate-network-state.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			stateSchemaErr = err
			return
		}
		stateSchema, stateSchemaErr = compiler.Compile("nmstate-network-state.schema.json")
	})

	return stateSchema, stateSchemaErr
}

// Parse decodes a JSON or YAML document. A document whose first non-blank
// character is '{' is treated as JSON. An empty document is an empty state.
func Parse(data []byte) (*NetworkState, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &NetworkState{}, nil
	}
	if trimmed[0] == '{' {
		return NewFromJSON(trimmed)
	}
	return NewFromYAML(trimmed)
}

// NewFromYAML decodes a YAML document.
func NewFromYAML(data []byte) (*NetworkState, error) {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.NewInvalidArgument("invalid YAML network state", err)
	}
	return NewFromJSON(jsonData)
}

// NewFromJSON decodes a JSON document, checking it against the embedded
// schema first. Unknown properties are rejected.
func NewFromJSON(data []byte) (*NetworkState, error) {
	if string(bytes.TrimSpace(data)) == "null" {
		return &NetworkState{}, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewInvalidArgument("invalid JSON network state", err)
	}

	schema, err := loadStateSchema()
	if err != nil {
		return nil, errors.NewBug("failed to load network state schema", err)
	}
	if err := schema.Validate(raw); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return nil, errors.Newf(errors.KindInvalidArgument, "network state does not match schema: %s", validationErr)
		}
		return nil, errors.NewInvalidArgument("network state does not match schema", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var ns NetworkState
	if err := dec.Decode(&ns); err != nil {
		return nil, errors.NewInvalidArgument("failed to decode network state", err)
	}
	return &ns, nil
}

// NewDesired parses, sanitizes and validates a desired state document.
func NewDesired(data []byte) (*NetworkState, error) {
	ns, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := ns.Sanitize(true); err != nil {
		return nil, err
	}
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	return ns, nil
}

// Sanitize normalizes every interface in place.
func (ns *NetworkState) Sanitize(isDesired bool) error {
	for _, iface := range ns.Interfaces {
		if err := iface.Sanitize(isDesired); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty reports whether the state holds nothing.
func (ns *NetworkState) IsEmpty() bool {
	return len(ns.Interfaces) == 0 && ns.Routes == nil && ns.Rules == nil && ns.DNS == nil
}

// ToJSON encodes the state with interfaces sorted by name.
func (ns *NetworkState) ToJSON(pretty bool) ([]byte, error) {
	sorted := ns.sorted()
	if pretty {
		return json.MarshalIndent(sorted, "", "  ")
	}
	return json.Marshal(sorted)
}

// ToYAML encodes the state with interfaces sorted by name.
func (ns *NetworkState) ToYAML() ([]byte, error) {
	return yaml.Marshal(ns.sorted())
}

func (ns *NetworkState) sorted() *NetworkState {
	out := ns.Clone()
	out.Interfaces.Sort()
	return out
}
