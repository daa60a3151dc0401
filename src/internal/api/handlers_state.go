package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/errors"
	"github.com/nmstate/nmstate-go/src/internal/log"
	"github.com/nmstate/nmstate-go/src/internal/nmstate"
	"github.com/nmstate/nmstate-go/src/internal/state"
)

// GetState returns the current network state.
// GET /api/v1/state?include_secrets=&running_config_only=&kernel_only=
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	opts := nmstate.RetrieveOptions{}
	var err error
	if opts.IncludeSecrets, err = boolParam(r, "include_secrets"); err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}
	if opts.RunningConfigOnly, err = boolParam(r, "running_config_only"); err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}
	if opts.KernelOnly, err = boolParam(r, "kernel_only"); err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}

	ns, err := h.lib.RetrieveNetState(r.Context(), opts)
	if err != nil {
		WriteNmstateError(w, err)
		return
	}
	writeJSONData(w, ns)
}

// ApplyState applies the desired state in the request body.
// POST /api/v1/state?no_verify=&no_commit=&rollback_timeout=
func (h *Handler) ApplyState(w http.ResponseWriter, r *http.Request) {
	opts := nmstate.ApplyOptions{}
	var err error
	if opts.NoVerify, err = boolParam(r, "no_verify"); err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}
	if opts.NoCommit, err = boolParam(r, "no_commit"); err != nil {
		WriteInvalidRequest(w, err.Error())
		return
	}
	if v := r.URL.Query().Get("rollback_timeout"); v != "" {
		seconds, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			WriteInvalidRequest(w, "rollback_timeout must be a number of seconds")
			return
		}
		opts.RollbackTimeout = time.Duration(seconds) * time.Second
	}

	desired, ok := h.parseState(w, r)
	if !ok {
		return
	}

	checkpoint, err := h.lib.ApplyNetState(r.Context(), desired, opts)
	h.updateCheckpointGauge()
	if err != nil {
		recordApply(string(errors.KindOf(err)))
		WriteNmstateError(w, err)
		return
	}
	recordApply("success")
	if checkpoint != "" {
		log.Infof("Applied state, checkpoint %s awaits commit", checkpoint)
	}
	writeJSONData(w, ApplyResponse{Checkpoint: checkpoint, Committed: checkpoint == ""})
}

// GetCheckpoint reports the active checkpoint.
// GET /api/v1/checkpoint
func (h *Handler) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	id, expires, ok := h.lib.CheckpointExpiry()
	resp := CheckpointResponse{Checkpoint: id, Active: ok}
	if ok && !expires.IsZero() {
		resp.Expires = &expires
	}
	writeJSONData(w, resp)
}

// CommitCheckpoint commits a checkpoint.
// POST /api/v1/checkpoint/commit
func (h *Handler) CommitCheckpoint(w http.ResponseWriter, r *http.Request) {
	h.finishCheckpoint(w, r, h.lib.CommitCheckpoint)
}

// RollbackCheckpoint rolls a checkpoint back.
// POST /api/v1/checkpoint/rollback
func (h *Handler) RollbackCheckpoint(w http.ResponseWriter, r *http.Request) {
	h.finishCheckpoint(w, r, h.lib.RollbackCheckpoint)
}

func (h *Handler) finishCheckpoint(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) error) {
	var req CheckpointRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid request body: "+err.Error())
		return
	}
	err := fn(r.Context(), req.Checkpoint)
	h.updateCheckpointGauge()
	if err != nil {
		WriteNmstateError(w, err)
		return
	}
	writeJSONData(w, CheckpointResponse{Checkpoint: req.Checkpoint})
}

// GenerateConfigurations renders NetworkManager keyfiles for the desired
// state in the request body.
// POST /api/v1/gen-conf
func (h *Handler) GenerateConfigurations(w http.ResponseWriter, r *http.Request) {
	desired, ok := h.parseState(w, r)
	if !ok {
		return
	}
	confs, err := h.lib.GenerateConfigurations(desired)
	if err != nil {
		WriteNmstateError(w, err)
		return
	}
	writeJSONData(w, confs)
}

// GenerateDifferences returns the state turning "old" into "new".
// POST /api/v1/diff
func (h *Handler) GenerateDifferences(w http.ResponseWriter, r *http.Request) {
	var req DiffRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteInvalidRequest(w, "Invalid request body: "+err.Error())
		return
	}
	newState, err := state.Parse([]byte(req.New))
	if err != nil {
		WriteNmstateError(w, err)
		return
	}
	oldState, err := state.Parse([]byte(req.Old))
	if err != nil {
		WriteNmstateError(w, err)
		return
	}
	diff, err := h.lib.GenerateDifferences(newState, oldState)
	if err != nil {
		WriteNmstateError(w, err)
		return
	}
	writeJSONData(w, diff)
}

// parseState reads a JSON or YAML state from the body. It writes the error
// response itself.
func (h *Handler) parseState(w http.ResponseWriter, r *http.Request) (*state.NetworkState, bool) {
	body, err := readBody(w, r)
	if err != nil {
		WriteInvalidRequest(w, "Failed to read request body: "+err.Error())
		return nil, false
	}
	ns, err := state.Parse(body)
	if err != nil {
		WriteNmstateError(w, err)
		return nil, false
	}
	return ns, true
}

func (h *Handler) updateCheckpointGauge() {
	_, _, active := h.lib.CheckpointExpiry()
	setCheckpointActive(active)
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return b, nil
}
