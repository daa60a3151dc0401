package api

import "time"

// DataResponse wraps successful responses with a "data" field.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ApplyResponse is returned by POST /api/v1/state.
type ApplyResponse struct {
	// Checkpoint is set when the apply was not committed.
	Checkpoint string `json:"checkpoint,omitempty"`
	Committed  bool   `json:"committed"`
}

// CheckpointRequest selects a checkpoint. An empty id selects the latest.
type CheckpointRequest struct {
	Checkpoint string `json:"checkpoint"`
}

// CheckpointResponse describes the active checkpoint.
type CheckpointResponse struct {
	Checkpoint string     `json:"checkpoint,omitempty"`
	Active     bool       `json:"active"`
	Expires    *time.Time `json:"expires,omitempty"`
}

// DiffRequest holds the two states to compare. Each may be a JSON object or
// a YAML document in a JSON string.
type DiffRequest struct {
	New rawState `json:"new"`
	Old rawState `json:"old"`
}

// HealthResponse reports the service status.
type HealthResponse struct {
	Healthy             bool                   `json:"healthy"`
	Version             string                 `json:"version"`
	QueryApplySupported bool                   `json:"query_apply_supported"`
	GenConfSupported    bool                   `json:"gen_conf_supported"`
	Checks              map[string]CheckResult `json:"checks"`
}

// CheckResult is the outcome of a single health check.
type CheckResult struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}
