package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/api/response"
	"github.com/edvin/haas/internal/core"
	"github.com/edvin/haas/internal/model"
)

type Action struct {
	orchestrator *core.Orchestrator
	guard        *core.Guard
}

func NewAction(orchestrator *core.Orchestrator, guard *core.Guard) *Action {
	return &Action{orchestrator: orchestrator, guard: guard}
}

// Run godoc
//
//	@Summary		Run an action on a selection of instances
//	@Description	start, stop, restart and reload run at once and return a report.
//	@Description	promote and demote first return a proposal. Send the candidate ids
//	@Description	back with confirmed=true to apply it.
//	@Tags			Actions
//	@Security		ApiKeyAuth
//	@Param			action path string true "start, stop, restart, reload, rebuild, promote or demote"
//	@Param			body body request.ActionRequest true "Selection"
//	@Success		200 {object} model.ActionReport
//	@Success		200 {object} model.Proposal
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		422 {object} model.Proposal
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/instances/actions/{action} [post]
func (h *Action) Run(w http.ResponseWriter, r *http.Request) {
	kind, err := model.ParseActionKind(chi.URLParam(r, "action"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ActionRequest
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if kind.IsLifecycle() {
		report, err := h.orchestrator.RunIDs(r.Context(), kind, req.InstanceIDs)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		response.WriteJSON(w, http.StatusOK, report)
		return
	}

	if req.Confirmed {
		var outcomes []model.Outcome
		if kind == model.ActionPromote {
			outcomes = h.guard.ConfirmPromote(r.Context(), req.InstanceIDs)
		} else {
			outcomes = h.guard.ConfirmDemote(r.Context(), req.InstanceIDs)
		}
		response.WriteJSON(w, http.StatusOK, model.NewActionReport(kind, outcomes))
		return
	}

	var proposal *model.Proposal
	if kind == model.ActionPromote {
		proposal, err = h.guard.ProposePromote(r.Context(), req.InstanceIDs)
	} else {
		proposal, err = h.guard.ProposeDemote(r.Context(), req.InstanceIDs)
	}
	switch {
	case errors.Is(err, core.ErrNoCandidates):
		response.WriteJSON(w, http.StatusUnprocessableEntity, proposal)
	case err != nil:
		writeServiceError(w, err)
	default:
		response.WriteJSON(w, http.StatusOK, proposal)
	}
}
