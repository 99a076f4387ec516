package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// AccountHandler handles registration, login and the current user.
type AccountHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService
}

// HandleRegister handles POST /api/register
//
//	@Summary		Register
//	@Description	Creates a regular user account.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		habitsdk.RegisterRequest	true	"Credentials"
//	@Success		201		{object}	habitsdk.UserResponse		"Created user"
//	@Failure		400		{object}	habitsdk.APIError			"error, error_description"
//	@Failure		409		{object}	habitsdk.APIError			"Username already exists"
//	@Failure		429		{object}	habitsdk.APIError			"Rate limit exceeded"
//	@Router			/api/register [post].
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req habitsdk.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create user")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleLogin handles POST /api/login
//
//	@Summary		Login
//	@Description	Exchanges a username and password for a bearer access token.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		habitsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	habitsdk.LoginResponse	"Access token and user"
//	@Failure		400		{object}	habitsdk.APIError		"error, error_description"
//	@Failure		401		{object}	habitsdk.APIError		"Invalid credentials"
//	@Failure		429		{object}	habitsdk.APIError		"Rate limit exceeded"
//	@Router			/api/login [post].
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req habitsdk.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// 1. Check credentials
	user, err := h.UserService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "Failed to log in")
		return
	}

	// 2. Issue the access token
	token, expiresAt, err := h.TokenService.IssueAccessToken(user)
	if err != nil {
		log.Error("failed to issue access token", "error", err, "user_id", user.ID)
		habitsdk.ErrServerError.WithDescription("Failed to issue token").WriteError(w)
		return
	}

	log.Info("user logged in", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusOK, habitsdk.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		User:        toUserResponse(user),
	})
}

// HandleMe handles GET /api/user
//
//	@Summary		Current user
//	@Description	Returns the authenticated user.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	habitsdk.UserResponse	"Current user"
//	@Failure		401	{object}	habitsdk.APIError		"Unauthorized - missing or invalid token"
//	@Failure		404	{object}	habitsdk.APIError		"User no longer exists"
//	@Router			/api/user [get].
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load user")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}
