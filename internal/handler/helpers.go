package handler

import (
	"errors"
	"net/http"

	"docforge/internal/domain"
	"docforge/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Typed errors that
// know their own status (fetch failures mapping to gateway errors) take
// precedence over the sentinel mapping.
func handleError(w http.ResponseWriter, err error) {
	var fetchErr *domain.FetchError
	var httpErr domain.HTTPError

	switch {
	case errors.As(err, &fetchErr):
		// Gateway errors carry the upstream context so clients can tell
		// which fetch failed and how
		httputil.RespondErrorWithExtras(w, fetchErr.StatusCode(), err.Error(), map[string]interface{}{
			"url":  fetchErr.URL,
			"kind": string(fetchErr.Kind),
		})
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
