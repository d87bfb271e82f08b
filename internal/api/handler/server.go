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

type Server struct {
	svc *core.ServerService
}

func NewServer(svc *core.ServerService) *Server {
	return &Server{svc: svc}
}

// List godoc
//
//	@Summary		List servers
//	@Tags			Servers
//	@Security		ApiKeyAuth
//	@Param			environment_id query string false "Filter by environment"
//	@Param			search query string false "Search query"
//	@Param			sort query string false "Sort field (hostname, created_at)" default(hostname)
//	@Param			order query string false "Sort order (asc/desc)" default(asc)
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Server}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers [get]
func (h *Server) List(w http.ResponseWriter, r *http.Request) {
	params := request.ParseListParams(r, "hostname")

	servers, hasMore, err := h.svc.List(r.Context(), r.URL.Query().Get("environment_id"), params)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(servers) > 0 {
		nextCursor = servers[len(servers)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, servers, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Register a server
//	@Tags			Servers
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateServer true "Server details"
//	@Success		201 {object} model.Server
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers [post]
func (h *Server) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateServer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	srv := &model.Server{
		ID:            platform.NewID(),
		EnvironmentID: req.EnvironmentID,
		Hostname:      req.Hostname,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.svc.Create(r.Context(), srv); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, srv)
}

// Get godoc
//
//	@Summary		Get a server
//	@Tags			Servers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Server ID"
//	@Success		200 {object} model.Server
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/servers/{id} [get]
func (h *Server) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	srv, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, srv)
}

// Update godoc
//
//	@Summary		Update a server
//	@Tags			Servers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Server ID"
//	@Param			body body request.UpdateServer true "Fields to change"
//	@Success		200 {object} model.Server
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/servers/{id} [put]
func (h *Server) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateServer
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	srv, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.EnvironmentID != nil {
		srv.EnvironmentID = req.EnvironmentID
		if *req.EnvironmentID == "" {
			srv.EnvironmentID = nil
		}
	}
	if req.Hostname != nil {
		srv.Hostname = *req.Hostname
	}

	if err := h.svc.Update(r.Context(), srv); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, srv)
}

// Delete godoc
//
//	@Summary		Delete a server
//	@Description	Deletes the server and every instance placed on it.
//	@Tags			Servers
//	@Security		ApiKeyAuth
//	@Param			id path string true "Server ID"
//	@Success		204
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/servers/{id} [delete]
func (h *Server) Delete(w http.ResponseWriter, r *http.Request) {
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
