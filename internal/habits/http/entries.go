package http

import (
	"net/http"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

// EntryHandler handles completion entries.
type EntryHandler struct {
	EntryService *service.EntryService
}

// HandleCreate handles POST /api/entries
//
//	@Summary		Record completion
//	@Description	Records a completion. Reaching the habit's target for the current period queues an achievement notification.
//	@Tags			Entries
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		habitsdk.EntryRequest	true	"Entry"
//	@Success		201		{object}	habitsdk.EntryResponse	"Created entry"
//	@Failure		400		{object}	habitsdk.APIError		"error, error_description"
//	@Failure		404		{object}	habitsdk.APIError		"Habit not found"
//	@Router			/api/entries [post].
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req habitsdk.EntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.HabitID <= 0 {
		habitsdk.ErrInvalidRequest.WithDescription("habitId is required").WriteError(w)
		return
	}

	e := domain.Entry{
		HabitID:   req.HabitID,
		Completed: true,
		Note:      req.Note,
	}
	if req.Completed != nil {
		e.Completed = *req.Completed
	}
	if req.CompletedAt != nil {
		e.CompletedAt = *req.CompletedAt
	}

	created, err := h.EntryService.Create(r.Context(), userID, e)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create entry")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toEntryResponse(created))
}

// HandleList handles GET /api/entries
//
//	@Summary	List entries
//	@Tags		Entries
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	habitsdk.EntryResponse	"All of the caller's entries"
//	@Router		/api/entries [get].
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	entries, err := h.EntryService.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list entries")
		return
	}
	writeEntries(w, entries)
}

// HandleListForHabit handles GET /api/entries/{habitId}
//
//	@Summary	List habit entries
//	@Tags		Entries
//	@Produce	json
//	@Security	BearerAuth
//	@Param		habitId	path		int						true	"Habit id"
//	@Success	200		{array}		habitsdk.EntryResponse	"Entries for the habit"
//	@Failure	404		{object}	habitsdk.APIError		"Habit not found"
//	@Router		/api/entries/{habitId} [get].
func (h *EntryHandler) HandleListForHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	habitID, ok := pathID(w, r, "habitId")
	if !ok {
		return
	}

	entries, err := h.EntryService.ListForHabit(r.Context(), userID, habitID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list entries")
		return
	}
	writeEntries(w, entries)
}

// HandleDelete handles DELETE /api/entries/{id}
//
//	@Summary	Delete entry
//	@Tags		Entries
//	@Security	BearerAuth
//	@Param		id	path	int	true	"Entry id"
//	@Success	204	"Deleted"
//	@Failure	404	{object}	habitsdk.APIError	"Entry not found"
//	@Router		/api/entries/{id} [delete].
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.EntryService.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err, "Failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle handles POST /api/entries/toggle
//
//	@Summary		Toggle a day
//	@Description	Deletes the habit's entry on the given day if there is one, otherwise records a completion on that day.
//	@Tags			Entries
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		habitsdk.ToggleEntryRequest		true	"Habit and day"
//	@Success		200		{object}	habitsdk.ToggleEntryResponse	"What was done"
//	@Failure		400		{object}	habitsdk.APIError				"error, error_description"
//	@Failure		404		{object}	habitsdk.APIError				"Habit not found"
//	@Router			/api/entries/toggle [post].
func (h *EntryHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req habitsdk.ToggleEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.HabitID <= 0 {
		habitsdk.ErrInvalidRequest.WithDescription("habitId is required").WriteError(w)
		return
	}

	day, err := h.EntryService.ParseDay(req.Date)
	if err != nil {
		writeServiceError(w, r, err, "Failed to toggle entry")
		return
	}

	res, err := h.EntryService.Toggle(r.Context(), userID, req.HabitID, day)
	if err != nil {
		writeServiceError(w, r, err, "Failed to toggle entry")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, habitsdk.ToggleEntryResponse{
		Created: res.Created,
		Entry:   toEntryResponse(res.Entry),
	})
}

func writeEntries(w http.ResponseWriter, entries []domain.Entry) {
	resp := make([]habitsdk.EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(e)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
