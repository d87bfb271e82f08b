package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/api/response"
	"github.com/edvin/haas/internal/core"
	"github.com/edvin/haas/internal/model"
)

type Instance struct {
	svc      *core.InstanceService
	resolver *core.Resolver
}

func NewInstance(svc *core.InstanceService, resolver *core.Resolver) *Instance {
	return &Instance{svc: svc, resolver: resolver}
}

// List godoc
//
//	@Summary		List instances
//	@Description	Each instance carries its derived is_primary and mb_lag.
//	@Tags			Instances
//	@Security		ApiKeyAuth
//	@Param			herd_id query string false "Filter by herd"
//	@Param			server_id query string false "Filter by server"
//	@Param			environment_id query string false "Filter by environment"
//	@Param			online query bool false "Filter by reachability"
//	@Param			role query string false "primary or replica"
//	@Param			version query string false "Filter by PostgreSQL version"
//	@Param			search query string false "Search herd name, hostname and version"
//	@Param			sort query string false "Sort field (hostname, port, version, position, role, created_at)"
//	@Param			order query string false "Sort order (asc/desc)" default(asc)
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Instance}
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/instances [get]
func (h *Instance) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseInstanceFilter(r)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	params := request.ParseListParams(r, "herd")

	instances, hasMore, err := h.svc.List(r.Context(), filter, params)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(instances) > 0 {
		nextCursor = instances[len(instances)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, instances, nextCursor, hasMore)
}

func parseInstanceFilter(r *http.Request) (core.InstanceFilter, error) {
	q := r.URL.Query()
	filter := core.InstanceFilter{
		HerdID:        q.Get("herd_id"),
		ServerID:      q.Get("server_id"),
		EnvironmentID: q.Get("environment_id"),
		Role:          q.Get("role"),
		Version:       q.Get("version"),
	}
	if v := q.Get("online"); v != "" {
		online, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Online = &online
	}
	switch filter.Role {
	case "", "primary", "replica":
	default:
		return filter, errInvalidRole
	}
	return filter, nil
}

// Create godoc
//
//	@Summary		Register an instance
//	@Description	Probes the instance, picks its herd primary as master and detects
//	@Description	its version. Bootstrap problems are returned as warnings.
//	@Tags			Instances
//	@Security		ApiKeyAuth
//	@Param			body body request.CreateInstance true "Instance details"
//	@Success		201 {object} core.SaveResult
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/instances [post]
func (h *Instance) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateInstance
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst := &model.Instance{
		HerdID:      req.HerdID,
		ServerID:    req.ServerID,
		Version:     req.Version,
		LocalPGData: req.LocalPGData,
	}

	result, err := h.resolver.Save(r.Context(), inst, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, result)
}

// Get godoc
//
//	@Summary		Get an instance
//	@Tags			Instances
//	@Security		ApiKeyAuth
//	@Param			id path string true "Instance ID"
//	@Success		200 {object} model.Instance
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/instances/{id} [get]
func (h *Instance) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, inst)
}

// Update godoc
//
//	@Summary		Update an instance
//	@Description	Detection runs again, so master and online state are refreshed.
//	@Tags			Instances
//	@Security		ApiKeyAuth
//	@Param			id path string true "Instance ID"
//	@Param			body body request.UpdateInstance true "Fields to change"
//	@Success		200 {object} core.SaveResult
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/instances/{id} [put]
func (h *Instance) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateInstance
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if req.HerdID != nil {
		inst.HerdID = *req.HerdID
	}
	if req.ServerID != nil {
		inst.ServerID = *req.ServerID
	}
	if req.Version != nil {
		inst.Version = *req.Version
	}
	if req.LocalPGData != nil {
		inst.LocalPGData = *req.LocalPGData
	}

	result, err := h.resolver.Save(r.Context(), inst, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// Delete godoc
//
//	@Summary		Delete an instance
//	@Description	Replicas of the instance are detached, not deleted.
//	@Tags			Instances
//	@Security		ApiKeyAuth
//	@Param			id path string true "Instance ID"
//	@Success		204
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/instances/{id} [delete]
func (h *Instance) Delete(w http.ResponseWriter, r *http.Request) {
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

// ReportStatus godoc
//
//	@Summary		Report instance status
//	@Description	Called by an external monitor with reachability and WAL position.
//	@Tags			Instances
//	@Security		ApiKeyAuth
//	@Param			id path string true "Instance ID"
//	@Param			body body request.StatusReport true "Observed status"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/instances/{id}/status [put]
func (h *Instance) ReportStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.StatusReport
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := model.InstanceStatus{IsOnline: req.IsOnline}
	if req.Position != "" {
		pos, err := model.ParseLSN(req.Position)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		status.Position = &pos
	}

	if err := h.svc.UpdateStatus(r.Context(), id, status); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
