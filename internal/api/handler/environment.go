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

type Environment struct {
	svc *core.EnvironmentService
}

func NewEnvironment(svc *core.EnvironmentService) *Environment {
	return &Environment{svc: svc}
}

// List godoc
//
//	@Summary		List environments
//	@Tags			Environments
//	@Security		ApiKeyAuth
//	@Param			search query string false "Search query"
//	@Param			sort query string false "Sort field" default(name)
//	@Param			order query string false "Sort order (asc/desc)" default(asc)
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Environment}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/environments [get]
func (h *Environment) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "name")

	envs, hasMore, err := h.svc.List(r.Context(), params)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(envs) > 0 {
		nextCursor = envs[len(envs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, envs, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create an environment
//	@Tags			Environments
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateEnvironment true "Environment details"
//	@Success		201 {object} model.Environment
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/environments [post]
func (h *Environment) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateEnvironment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	env := &model.Environment{
		ID:          platform.NewID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.svc.Create(r.Context(), env); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, env)
}

// Get godoc
//
//	@Summary		Get an environment
//	@Tags			Environments
//	@Security		ApiKeyAuth
//	@Param			id path string true "Environment ID"
//	@Success		200 {object} model.Environment
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/environments/{id} [get]
func (h *Environment) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, env)
}

// Update godoc
//
//	@Summary		Update an environment
//	@Tags			Environments
//	@Security		ApiKeyAuth
//	@Param			id path string true "Environment ID"
//	@Param			body body request.UpdateEnvironment true "Fields to change"
//	@Success		200 {object} model.Environment
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/environments/{id} [put]
func (h *Environment) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateEnvironment
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.Name != nil {
		env.Name = *req.Name
	}
	if req.Description != nil {
		env.Description = *req.Description
	}

	if err := h.svc.Update(r.Context(), env); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, env)
}

// Delete godoc
//
//	@Summary		Delete an environment
//	@Description	Herds and servers of the environment are kept and lose their environment.
//	@Tags			Environments
//	@Security		ApiKeyAuth
//	@Param			id path string true "Environment ID"
//	@Success		204
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/environments/{id} [delete]
func (h *Environment) Delete(w http.ResponseWriter, r *http.Request) {
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
