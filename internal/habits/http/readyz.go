package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and status of the database and the notification scheduler
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	habitsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	habitsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	d *dispatch.Dispatcher,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &habitsdk.HealthChecks{
			Database:  "ok",
			Scheduler: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check database connectivity
		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Enabled notifications must have an armed scheduler
		switch {
		case d == nil:
			checks.Scheduler = "not configured"
		case !d.Config().Enabled:
			checks.Scheduler = "disabled"
		case d.State() != dispatch.StateArmed:
			checks.Scheduler = "error: not armed"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := habitsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
