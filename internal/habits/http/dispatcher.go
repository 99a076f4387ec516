package http

import (
	"net/http"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

type DispatcherHandler struct {
	Dispatcher *dispatch.Dispatcher
	Transport  Transport
}

func (h *DispatcherHandler) transportActive() bool {
	return h.Transport != nil && h.Transport.Active()
}

// HandleStatus handles GET /api/admin/dispatcher
//
//	@Summary		Dispatcher status
//	@Description	Scheduling state, configured interval, next run and the report of the last tick.
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	habitsdk.DispatcherStatusResponse	"Status"
//	@Failure		403	{object}	habitsdk.APIError					"Forbidden - admin access required"
//	@Router			/api/admin/dispatcher [get].
func (h *DispatcherHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, toDispatcherStatusResponse(h.Dispatcher.Status(), h.transportActive()))
}

// HandleRun handles POST /api/admin/dispatcher/run
//
//	@Summary		Run dispatcher now
//	@Description	Runs one dispatch tick immediately and returns its report. A disabled dispatcher reports disabled and sends nothing.
//	@Tags			Admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	habitsdk.DispatchReportResponse	"Tick report"
//	@Failure		403	{object}	habitsdk.APIError				"Forbidden - admin access required"
//	@Router			/api/admin/dispatcher/run [post].
func (h *DispatcherHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	rep := h.Dispatcher.Tick(r.Context())
	httpx.WriteJSON(w, http.StatusOK, toReportResponse(rep))
}
