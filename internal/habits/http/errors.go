package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// writeServiceError maps service and store errors onto API errors. Anything
// unrecognised is logged and reported as a server error with fallback as the
// description.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		habitsdk.ErrInvalidRequest.WithDescription(verr.Message).WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		habitsdk.ErrNotFound.WriteError(w)
	case errors.Is(err, service.ErrUsernameTaken):
		habitsdk.ErrUsernameTaken.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		habitsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		habitsdk.ErrForbidden.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error(fallback, "error", err)
		habitsdk.ErrServerError.WithDescription(fallback).WriteError(w)
	}
}

// decodeBody decodes the JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httpx.DecodeJSON(w, r, v); err != nil {
		habitsdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return false
	}
	return true
}

// pathID parses the named path value as a positive id, writing a 400 on
// failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		habitsdk.ErrInvalidRequest.WithDescription("invalid " + name).WriteError(w)
		return 0, false
	}
	return id, true
}

// callerID returns the authenticated user id. Routes behind AuthnMiddleware
// always have one.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := httpx.UserIDFromContext(r.Context())
	if !ok {
		habitsdk.ErrUnauthorized.WriteError(w)
	}
	return id, ok
}
