package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/haas/internal/api/response"
	"github.com/edvin/haas/internal/core"
)

// writeServiceError maps core errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrTopologyCycle),
		errors.Is(err, core.ErrTopologyDepth),
		errors.Is(err, core.ErrCrossHerdMaster),
		errors.Is(err, core.ErrHasDependents):
		response.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrUnsupportedAction):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

var errInvalidRole = errors.New("role must be primary or replica")
