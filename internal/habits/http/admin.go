package http

import (
	"net/http"

	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

type AdminUsersHandler struct {
	UserService *service.UserService
}

// HandleList handles GET /api/admin/users
//
//	@Summary	List users
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		habitsdk.UserResponse	"All users"
//	@Failure	403	{object}	habitsdk.APIError		"Forbidden - admin access required"
//	@Router		/api/admin/users [get].
func (h *AdminUsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to list users")
		return
	}

	resp := make([]habitsdk.UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PATCH /api/admin/users/{id}
//
//	@Summary		Change role
//	@Description	Grants or revokes admin rights and queues a role change notification for the user.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int							true	"User id"
//	@Param			request	body		habitsdk.UpdateUserRequest	true	"New role"
//	@Success		200		{object}	habitsdk.UserResponse		"Updated user"
//	@Failure		400		{object}	habitsdk.APIError			"Invalid role value"
//	@Failure		403		{object}	habitsdk.APIError			"Forbidden - admin access required"
//	@Failure		404		{object}	habitsdk.APIError			"User not found"
//	@Router			/api/admin/users/{id} [patch].
func (h *AdminUsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req habitsdk.UpdateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.IsAdmin == nil {
		habitsdk.ErrInvalidRequest.WithDescription("Invalid role value").WriteError(w)
		return
	}

	user, err := h.UserService.SetAdmin(r.Context(), id, *req.IsAdmin)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update user")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

type NotificationsHandler struct {
	NotificationService *service.NotificationService
}

// HandleList handles GET /api/admin/notifications
//
//	@Summary	List notifications
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		habitsdk.NotificationResponse	"All notifications, newest first"
//	@Failure	403	{object}	habitsdk.APIError				"Forbidden - admin access required"
//	@Router		/api/admin/notifications [get].
func (h *NotificationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.NotificationService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to list notifications")
		return
	}

	resp := make([]habitsdk.NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = toNotificationResponse(n)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
