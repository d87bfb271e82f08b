package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/edvin/haas/internal/metrics"
	"github.com/edvin/haas/internal/model"
)

// Guard runs promote and demote in two phases. Propose filters a selection
// down to the instances that may change role, Confirm performs the change
// after re-checking current state.
type Guard struct {
	store       TopologyStore
	ctl         Controller
	concurrency int
	herds       herdLocks
}

func NewGuard(store TopologyStore, ctl Controller, concurrency int) *Guard {
	return &Guard{store: store, ctl: ctl, concurrency: concurrency}
}

// ProposePromote keeps the replicas of the selection. Primaries are dropped
// without a warning.
func (g *Guard) ProposePromote(ctx context.Context, ids []string) (*model.Proposal, error) {
	_, loaded, err := loadOrdered(ctx, g.store, ids)
	if err != nil {
		return nil, fmt.Errorf("load promote selection: %w", err)
	}

	p := &model.Proposal{Action: model.ActionPromote, Candidates: []model.Instance{}}
	for _, inst := range loaded {
		if inst != nil && !inst.IsPrimary() {
			p.Candidates = append(p.Candidates, *inst)
		}
	}
	if len(p.Candidates) == 0 {
		p.Warnings = append(p.Warnings, "No valid replicas to promote")
		return p, fmt.Errorf("promote: %w", ErrNoCandidates)
	}
	return p, nil
}

// ConfirmPromote promotes every confirmed id that is still a replica and
// clears its master pointer.
func (g *Guard) ConfirmPromote(ctx context.Context, ids []string) []model.Outcome {
	unique := dedupe(ids)
	outcomes := make([]model.Outcome, len(unique))
	forEach(len(unique), g.concurrency, func(i int) {
		started := time.Now()
		outcomes[i] = g.promote(ctx, unique[i])
		record(ctx, model.ActionPromote, outcomes[i], started)
	})
	return outcomes
}

func (g *Guard) promote(ctx context.Context, id string) model.Outcome {
	inst, err := g.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return missing(id)
	}
	if err != nil {
		return model.Outcome{InstanceID: id, Label: id, Status: model.OutcomeFailed, Reason: err.Error(), Message: err.Error()}
	}
	if inst.IsPrimary() {
		return skipped(inst, ErrNotReplica, "%s is %v", inst.Label(), ErrNotReplica)
	}

	if err := g.ctl.Promote(ctx, inst); err != nil {
		return failed(inst, err)
	}
	if err := g.store.SetMaster(ctx, inst.ID, nil); err != nil {
		return failed(inst, fmt.Errorf("promoted but not recorded: %w", err))
	}
	return succeeded(inst, "%s promoted to read/write", inst.Label())
}

// ProposeDemote keeps the primaries of the selection that can give up their
// role. Replicas are dropped silently. Primaries with subscribers, or whose
// herd has no other primary, are dropped with a warning.
func (g *Guard) ProposeDemote(ctx context.Context, ids []string) (*model.Proposal, error) {
	_, loaded, err := loadOrdered(ctx, g.store, ids)
	if err != nil {
		return nil, fmt.Errorf("load demote selection: %w", err)
	}

	p := &model.Proposal{Action: model.ActionDemote, Candidates: []model.Instance{}}
	for _, inst := range loaded {
		if inst == nil || !inst.IsPrimary() {
			continue
		}
		violations := g.demoteViolations(ctx, inst)
		if len(violations) == 0 {
			p.Candidates = append(p.Candidates, *inst)
			continue
		}
		for _, v := range violations {
			p.Warnings = append(p.Warnings, v.Error())
		}
	}
	metrics.ObserveProposalWarnings(string(model.ActionDemote), len(p.Warnings))

	if len(p.Candidates) == 0 {
		p.Warnings = append(p.Warnings, "No valid instances to demote")
		return p, fmt.Errorf("demote: %w", ErrNoCandidates)
	}
	return p, nil
}

// ConfirmDemote re-checks and demotes every confirmed id. Demotes within a
// herd run one at a time so two confirmations can never remove the last two
// primaries together.
func (g *Guard) ConfirmDemote(ctx context.Context, ids []string) []model.Outcome {
	unique := dedupe(ids)
	outcomes := make([]model.Outcome, len(unique))
	forEach(len(unique), g.concurrency, func(i int) {
		started := time.Now()
		outcomes[i] = g.demote(ctx, unique[i])
		record(ctx, model.ActionDemote, outcomes[i], started)
	})
	return outcomes
}

func (g *Guard) demote(ctx context.Context, id string) model.Outcome {
	inst, err := g.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return missing(id)
	}
	if err != nil {
		return model.Outcome{InstanceID: id, Label: id, Status: model.OutcomeFailed, Reason: err.Error(), Message: err.Error()}
	}

	unlock := g.herds.lock(inst.HerdID)
	defer unlock()

	// State may have moved since the proposal, and another demote in this
	// herd may just have finished. Read it again under the lock.
	inst, err = g.store.GetByID(ctx, id)
	if err != nil {
		return model.Outcome{InstanceID: id, Label: id, Status: model.OutcomeFailed, Reason: err.Error(), Message: err.Error()}
	}
	if !inst.IsPrimary() {
		return skipped(inst, ErrNotPrimary, "%s is %v", inst.Label(), ErrNotPrimary)
	}
	if violations := g.demoteViolations(ctx, inst); len(violations) > 0 {
		return skipped(inst, reasonOf(violations[0]), "%v", errors.Join(violations...))
	}

	upstream, err := g.store.HerdPrimary(ctx, inst.HerdID, inst.ID)
	if err != nil {
		return failed(inst, err)
	}
	if upstream == nil {
		return skipped(inst, ErrLastPrimary, "%s %v", inst.HerdName, ErrLastPrimary)
	}

	if err := g.ctl.Demote(ctx, inst, upstream); err != nil {
		return failed(inst, err)
	}
	if err := g.store.SetMaster(ctx, inst.ID, &upstream.ID); err != nil {
		return failed(inst, fmt.Errorf("demoted but not recorded: %w", err))
	}
	return succeeded(inst, "%s demoted to %s replica", inst.Hostname, inst.HerdName)
}

// demoteViolations lists every reason inst may not be demoted right now.
// Lookup failures count as violations.
func (g *Guard) demoteViolations(ctx context.Context, inst *model.Instance) []error {
	var out []error

	deps, err := g.store.CountDependents(ctx, inst.ID)
	switch {
	case err != nil:
		out = append(out, fmt.Errorf("%s : %w", inst.Label(), err))
	case deps > 0:
		out = append(out, fmt.Errorf("%s %w", inst.Hostname, ErrHasDependents))
	}

	others, err := g.store.CountOtherPrimaries(ctx, inst.HerdID, inst.ID)
	switch {
	case err != nil:
		out = append(out, fmt.Errorf("%s : %w", inst.Label(), err))
	case others == 0:
		out = append(out, fmt.Errorf("%s %w", inst.HerdName, ErrLastPrimary))
	}
	return out
}

func reasonOf(err error) error {
	for _, sentinel := range []error{ErrHasDependents, ErrLastPrimary} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// herdLocks hands out one mutex per herd id.
type herdLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (h *herdLocks) lock(herdID string) func() {
	h.mu.Lock()
	if h.locks == nil {
		h.locks = make(map[string]*sync.Mutex)
	}
	l, ok := h.locks[herdID]
	if !ok {
		l = &sync.Mutex{}
		h.locks[herdID] = l
	}
	h.mu.Unlock()

	l.Lock()
	return l.Unlock
}
