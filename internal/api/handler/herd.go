package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/api/response"
	"github.com/edvin/haas/internal/core"
	"github.com/edvin/haas/internal/model"
	"github.com/edvin/haas/internal/platform"
)

type Herd struct {
	svc *core.HerdService
}

func NewHerd(svc *core.HerdService) *Herd {
	return &Herd{svc: svc}
}

// List godoc
//
//	@Summary		List herds
//	@Tags			Herds
//	@Security		ApiKeyAuth
//	@Param			environment_id query string false "Filter by environment"
//	@Param			search query string false "Search query"
//	@Param			sort query string false "Sort field (name, port, created_at)" default(name)
//	@Param			order query string false "Sort order (asc/desc)" default(asc)
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Herd}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/herds [get]
func (h *Herd) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "name")

	herds, hasMore, err := h.svc.List(r.Context(), r.URL.Query().Get("environment_id"), params)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(herds) > 0 {
		nextCursor = herds[len(herds)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, herds, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a herd
//	@Tags			Herds
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateHerd true "Herd details"
//	@Success		201 {object} model.Herd
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/herds [post]
func (h *Herd) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateHerd
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	herd := &model.Herd{
		ID:            platform.NewID(),
		EnvironmentID: req.EnvironmentID,
		Name:          req.Name,
		Description:   req.Description,
		Port:          req.Port,
		PGData:        req.PGData,
		VHost:         req.VHost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.svc.Create(r.Context(), herd); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, herd)
}

// Get godoc
//
//	@Summary		Get a herd
//	@Tags			Herds
//	@Security		ApiKeyAuth
//	@Param			id path string true "Herd ID"
//	@Success		200 {object} model.Herd
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/herds/{id} [get]
func (h *Herd) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	herd, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, herd)
}

// Update godoc
//
//	@Summary		Update a herd
//	@Tags			Herds
//	@Security		ApiKeyAuth
//	@Param			id path string true "Herd ID"
//	@Param			body body request.UpdateHerd true "Fields to change"
//	@Success		200 {object} model.Herd
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/herds/{id} [put]
func (h *Herd) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateHerd
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	herd, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.EnvironmentID != nil {
		herd.EnvironmentID = req.EnvironmentID
		if *req.EnvironmentID == "" {
			herd.EnvironmentID = nil
		}
	}
	if req.Name != nil {
		herd.Name = *req.Name
	}
	if req.Description != nil {
		herd.Description = *req.Description
	}
	if req.Port != nil {
		herd.Port = *req.Port
	}
	if req.PGData != nil {
		herd.PGData = *req.PGData
	}
	if req.VHost != nil {
		herd.VHost = *req.VHost
	}

	if err := h.svc.Update(r.Context(), herd); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, herd)
}

// Delete godoc
//
//	@Summary		Delete a herd
//	@Description	Deletes the herd and every instance registered for it.
//	@Tags			Herds
//	@Security		ApiKeyAuth
//	@Param			id path string true "Herd ID"
//	@Success		204
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/herds/{id} [delete]
func (h *Herd) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
