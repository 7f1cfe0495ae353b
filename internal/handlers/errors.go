package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
)

// writeError maps a service error onto the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_input", details(err))
	case errors.Is(err, services.ErrInvalidReference):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_reference", err.Error())
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		httpx.JSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	default:
		log.Printf("handler error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func details(err error) any {
	if v := services.ViolationsOf(err); v != nil {
		return v
	}
	return err.Error()
}

func badJSON(w http.ResponseWriter, err error) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
}

func badID(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
}
