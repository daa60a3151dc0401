package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/config"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// maxBodySize bounds request bodies.
const maxBodySize = 4 << 20

// Library is the part of *nmstate.Library the API uses.
type Library interface {
	RetrieveNetState(ctx context.Context, opts nmstate.RetrieveOptions) (*state.NetworkState, error)
	ApplyNetState(ctx context.Context, desired *state.NetworkState, opts nmstate.ApplyOptions) (string, error)
	CommitCheckpoint(ctx context.Context, id string) error
	RollbackCheckpoint(ctx context.Context, id string) error
	CheckpointExpiry() (string, time.Time, bool)
	GenerateConfigurations(desired *state.NetworkState) (nmstate.Configurations, error)
	GenerateDifferences(newState, oldState *state.NetworkState) (*state.NetworkState, error)
}

// Handler manages all API endpoints and dependencies.
type Handler struct {
	lib          Library
	configHasher *config.ConfigHasher
}

// NewHandler creates a new API handler. configHasher may be nil.
func NewHandler(lib Library, configHasher *config.ConfigHasher) *Handler {
	return &Handler{
		lib:          lib,
		configHasher: configHasher,
	}
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// readBody reads the bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
}

// decodeJSON decodes an optional JSON body. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := readBody(w, r)
	if err != nil || len(body) == 0 {
		return err
	}
	return json.Unmarshal(body, v)
}

// rawState accepts a state as a JSON object or as a string holding JSON or
// YAML.
type rawState []byte

func (s *rawState) UnmarshalJSON(data []byte) error {
	var doc string
	if err := json.Unmarshal(data, &doc); err == nil {
		*s = []byte(doc)
		return nil
	}
	*s = append((*s)[:0], data...)
	return nil
}
