package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nmstate/nmstate-go/src/internal/nmstate"
)

// CheckHealth reports the version, the compiled in features and the state
// of the active checkpoint and configuration.
// GET /api/v1/health
func (h *Handler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Healthy:             true,
		Version:             nmstate.Version,
		QueryApplySupported: nmstate.QueryApplySupported,
		GenConfSupported:    nmstate.GenConfSupported,
		Checks:              make(map[string]CheckResult),
	}

	if id, expires, ok := h.lib.CheckpointExpiry(); ok {
		response.Checks["checkpoint"] = CheckResult{
			Passed:  true,
			Message: fmt.Sprintf("Checkpoint %s rolls back in %s unless committed", id, time.Until(expires).Round(time.Second)),
		}
	} else {
		response.Checks["checkpoint"] = CheckResult{
			Passed:  true,
			Message: "No pending checkpoint",
		}
	}

	if h.configHasher != nil {
		outdated, err := h.configHasher.IsOutdated()
		switch {
		case err != nil:
			response.Healthy = false
			response.Checks["config"] = CheckResult{
				Passed:  false,
				Message: "Failed to read configuration: " + err.Error(),
			}
		case outdated:
			response.Checks["config"] = CheckResult{
				Passed:  false,
				Message: "Configuration changed on disk, restart the service to use it",
			}
		default:
			response.Checks["config"] = CheckResult{
				Passed:  true,
				Message: "Configuration is up to date",
			}
		}
	}

	writeJSONData(w, response)
}
