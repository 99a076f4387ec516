package http

import (
	"net/http"

	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

type StatsHandler struct {
	StatsService *service.StatsService
}

// HandleHabitStats handles GET /api/stats/habits
//
//	@Summary		Habit statistics
//	@Description	Per habit completion rate for the current period, current streak and total entries.
//	@Tags			Statistics
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		habitsdk.HabitStatsResponse	"One item per habit"
//	@Failure		401	{object}	habitsdk.APIError			"Unauthorized - missing or invalid token"
//	@Router			/api/stats/habits [get].
func (h *StatsHandler) HandleHabitStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	stats, err := h.StatsService.HabitStats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to compute statistics")
		return
	}

	resp := make([]habitsdk.HabitStatsResponse, len(stats))
	for i, s := range stats {
		resp[i] = toHabitStatsResponse(s)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleTimeline handles GET /api/timeline
//
//	@Summary		Weekly timeline
//	@Description	The Monday-start week containing the given day, with one row of seven flags per habit.
//	@Tags			Statistics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			week	query		string						false	"Any day in the week, YYYY-MM-DD (default today)"
//	@Success		200		{object}	habitsdk.TimelineResponse	"Timeline"
//	@Failure		400		{object}	habitsdk.APIError			"Invalid date"
//	@Router			/api/timeline [get].
func (h *StatsHandler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	day, err := h.StatsService.ParseWeek(r.URL.Query().Get("week"))
	if err != nil {
		writeServiceError(w, r, err, "Failed to build timeline")
		return
	}

	tl, err := h.StatsService.Timeline(r.Context(), userID, day)
	if err != nil {
		writeServiceError(w, r, err, "Failed to build timeline")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toTimelineResponse(tl))
}

// HandleSystemStats handles GET /api/admin/stats
//
//	@Summary	System statistics
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	habitsdk.SystemStatsResponse	"User, habit and entry counts"
//	@Failure	403	{object}	habitsdk.APIError				"Forbidden - admin access required"
//	@Router		/api/admin/stats [get].
func (h *StatsHandler) HandleSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.StatsService.SystemStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load system statistics")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, habitsdk.SystemStatsResponse{
		TotalUsers:   stats.TotalUsers,
		TotalHabits:  stats.TotalHabits,
		TotalEntries: stats.TotalEntries,
	})
}
