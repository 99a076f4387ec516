package http

import (
	"net/http"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
)

type SettingsHandler struct {
	SettingsService *service.SettingsService
}

// HandleGet handles GET /api/admin/settings
//
//	@Summary	Get settings
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	habitsdk.SettingsResponse	"Current settings"
//	@Failure	403	{object}	habitsdk.APIError			"Forbidden - admin access required"
//	@Router		/api/admin/settings [get].
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.SettingsService.Get(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to load settings")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}

// HandleUpdate handles PATCH /api/admin/settings
//
//	@Summary		Update settings
//	@Description	Partially updates the settings. The notification dispatcher and the Telegram bot pick up the change immediately.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		habitsdk.SettingsPatchRequest	true	"Fields to change"
//	@Success		200		{object}	habitsdk.SettingsResponse		"Updated settings"
//	@Failure		400		{object}	habitsdk.APIError				"Notification interval outside 30..86400 seconds"
//	@Failure		403		{object}	habitsdk.APIError				"Forbidden - admin access required"
//	@Router			/api/admin/settings [patch].
func (h *SettingsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req habitsdk.SettingsPatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	settings, err := h.SettingsService.Update(r.Context(), domain.SettingsPatch{
		TelegramBotToken:     req.TelegramBotToken,
		EnableNotifications:  req.EnableNotifications,
		NotificationInterval: req.NotificationInterval,
	})
	if err != nil {
		writeServiceError(w, r, err, "Failed to update settings")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSettingsResponse(settings))
}
