package http

import (
	"net/http"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

// HabitHandler handles the habit endpoints. Every operation is scoped to the
// caller; habits owned by someone else answer 404.
type HabitHandler struct {
	HabitService *service.HabitService
}

// HandleCreate handles POST /api/habits
//
//	@Summary		Create habit
//	@Tags			Habits
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		habitsdk.HabitRequest	true	"Habit"
//	@Success		201		{object}	habitsdk.HabitResponse	"Created habit"
//	@Failure		400		{object}	habitsdk.APIError		"Validation failed"
//	@Failure		401		{object}	habitsdk.APIError		"Unauthorized - missing or invalid token"
//	@Router			/api/habits [post].
func (h *HabitHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req habitsdk.HabitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	habit, err := h.HabitService.Create(r.Context(), userID, domain.Habit{
		Name:         req.Name,
		Description:  req.Description,
		Frequency:    domain.Frequency(req.Frequency),
		TargetCount:  req.TargetCount,
		Reminder:     req.Reminder,
		ReminderTime: req.ReminderTime,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to create habit")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toHabitResponse(habit))
}

// HandleList handles GET /api/habits
//
//	@Summary		List habits
//	@Tags			Habits
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		habitsdk.HabitResponse	"The caller's habits"
//	@Failure		401	{object}	habitsdk.APIError		"Unauthorized - missing or invalid token"
//	@Router			/api/habits [get].
func (h *HabitHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	habits, err := h.HabitService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list habits")
		return
	}

	resp := make([]habitsdk.HabitResponse, len(habits))
	for i, habit := range habits {
		resp[i] = toHabitResponse(habit)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/habits/{id}
//
//	@Summary		Get habit
//	@Tags			Habits
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int						true	"Habit id"
//	@Success		200	{object}	habitsdk.HabitResponse	"The habit"
//	@Failure		404	{object}	habitsdk.APIError		"Habit not found"
//	@Router			/api/habits/{id} [get].
func (h *HabitHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	habit, err := h.HabitService.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to get habit")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toHabitResponse(habit))
}

// HandleUpdate handles PATCH /api/habits/{id}
//
//	@Summary		Update habit
//	@Description	Applies a partial update. Absent fields are left unchanged.
//	@Tags			Habits
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int							true	"Habit id"
//	@Param			request	body		habitsdk.HabitPatchRequest	true	"Fields to change"
//	@Success		200		{object}	habitsdk.HabitResponse		"Updated habit"
//	@Failure		400		{object}	habitsdk.APIError			"Validation failed"
//	@Failure		404		{object}	habitsdk.APIError			"Habit not found"
//	@Router			/api/habits/{id} [patch].
func (h *HabitHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req habitsdk.HabitPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := domain.HabitPatch{
		Name:         req.Name,
		Description:  req.Description,
		TargetCount:  req.TargetCount,
		Reminder:     req.Reminder,
		ReminderTime: req.ReminderTime,
	}
	if req.Frequency != nil {
		f := domain.Frequency(*req.Frequency)
		patch.Frequency = &f
	}

	habit, err := h.HabitService.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update habit")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toHabitResponse(habit))
}

// HandleDelete handles DELETE /api/habits/{id}
//
//	@Summary	Delete habit
//	@Tags		Habits
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Habit id"
//	@Success	204	"Deleted"
//	@Failure	404	{object}	habitsdk.APIError	"Habit not found"
//	@Router		/api/habits/{id} [delete].
func (h *HabitHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.HabitService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err, "Failed to delete habit")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
