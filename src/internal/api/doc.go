// Package api provides the HTTP API served by "nmstatectl service".
//
// The API exposes the library operations to local tooling:
//
//	GET  /api/v1/state                 current network state
//	POST /api/v1/state                 apply a desired state (JSON or YAML body)
//	GET  /api/v1/checkpoint            active checkpoint, if any
//	POST /api/v1/checkpoint/commit     commit a checkpoint
//	POST /api/v1/checkpoint/rollback   roll a checkpoint back
//	POST /api/v1/gen-conf              generate NetworkManager keyfiles
//	POST /api/v1/diff                  difference between two states
//	GET  /api/v1/health                version and service status
//	GET  /metrics                      Prometheus metrics (when enabled)
//
// # Response Format
//
// All successful responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses carry the nmstate error kind as code:
//
//	{
//	  "error": {
//	    "code": "InvalidArgument",
//	    "message": "invalid network state: ..."
//	  }
//	}
//
// Apply accepts the query parameters no_verify, no_commit and
// rollback_timeout (seconds). With no_commit the checkpoint id is returned
// and must be committed or rolled back before it expires.
package api
