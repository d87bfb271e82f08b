package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/haas/internal/model"
)

// Orchestrator applies single-phase lifecycle actions to a batch of
// instances. A failure on one instance never stops the others.
type Orchestrator struct {
	store       TopologyStore
	ctl         Controller
	concurrency int
}

func NewOrchestrator(store TopologyStore, ctl Controller, concurrency int) *Orchestrator {
	return &Orchestrator{store: store, ctl: ctl, concurrency: concurrency}
}

// RunIDs loads the instances and runs the action over them. Unknown ids
// are reported as failed outcomes in place.
func (o *Orchestrator) RunIDs(ctx context.Context, kind model.ActionKind, ids []string) (model.ActionReport, error) {
	if !kind.IsLifecycle() {
		return model.ActionReport{}, fmt.Errorf("%s: %w", kind, ErrUnsupportedAction)
	}

	unique, loaded, err := loadOrdered(ctx, o.store, ids)
	if err != nil {
		return model.ActionReport{}, fmt.Errorf("load batch: %w", err)
	}

	found := make([]model.Instance, 0, len(loaded))
	for _, inst := range loaded {
		if inst != nil {
			found = append(found, *inst)
		}
	}
	results := o.Run(ctx, kind, found)

	outcomes := make([]model.Outcome, 0, len(unique))
	next := 0
	for i, inst := range loaded {
		if inst == nil {
			outcomes = append(outcomes, missing(unique[i]))
			continue
		}
		outcomes = append(outcomes, results[next])
		next++
	}
	return model.NewActionReport(kind, outcomes), nil
}

// Run applies kind to every instance and returns one outcome per instance,
// in input order.
func (o *Orchestrator) Run(ctx context.Context, kind model.ActionKind, instances []model.Instance) []model.Outcome {
	outcomes := make([]model.Outcome, len(instances))
	forEach(len(instances), o.concurrency, func(i int) {
		started := time.Now()
		outcomes[i] = o.apply(ctx, kind, &instances[i])
		record(ctx, kind, outcomes[i], started)
	})
	return outcomes
}

func (o *Orchestrator) apply(ctx context.Context, kind model.ActionKind, inst *model.Instance) model.Outcome {
	label := inst.Label()

	switch kind {
	case model.ActionStart:
		if inst.IsOnline {
			return skipped(inst, ErrAlreadyRunning, "%s is already running", label)
		}
		if err := o.ctl.Start(ctx, inst); err != nil {
			return failed(inst, err)
		}
		o.markOnline(ctx, inst, true)
		return succeeded(inst, "%s started", label)

	case model.ActionStop:
		if !inst.IsOnline {
			return skipped(inst, ErrAlreadyStopped, "%s is already stopped", label)
		}
		if err := o.ctl.Stop(ctx, inst); err != nil {
			return failed(inst, err)
		}
		o.markOnline(ctx, inst, false)
		return succeeded(inst, "%s stopped", label)

	case model.ActionRestart:
		if err := o.ctl.Stop(ctx, inst); err != nil {
			return failed(inst, fmt.Errorf("stop: %w", err))
		}
		if err := o.ctl.Start(ctx, inst); err != nil {
			o.markOnline(ctx, inst, false)
			return failed(inst, fmt.Errorf("start: %w", err))
		}
		o.markOnline(ctx, inst, true)
		return succeeded(inst, "%s restarted", label)

	case model.ActionReload:
		if err := o.ctl.Reload(ctx, inst); err != nil {
			return failed(inst, err)
		}
		return succeeded(inst, "%s config files reloaded", label)

	case model.ActionRebuild:
		if inst.IsPrimary() {
			return skipped(inst, ErrNotReplica, "%s is a primary and cannot be rebuilt", label)
		}
		master, err := o.store.GetByID(ctx, *inst.MasterID)
		if err != nil {
			return failed(inst, fmt.Errorf("load master: %w", err))
		}
		if err := o.ctl.Rebuild(ctx, inst, master); err != nil {
			o.markOnline(ctx, inst, false)
			return failed(inst, err)
		}
		o.markOnline(ctx, inst, true)
		return succeeded(inst, "%s rebuilt from %s", label, master.Hostname)
	}

	return failed(inst, fmt.Errorf("%s: %w", kind, ErrUnsupportedAction))
}

// markOnline records the state an action left the instance in. The action
// already happened, so a store failure is only logged.
func (o *Orchestrator) markOnline(ctx context.Context, inst *model.Instance, online bool) {
	if err := o.store.SetOnline(ctx, inst.ID, online); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("instance_id", inst.ID).Msg("failed to record online state")
		return
	}
	inst.IsOnline = online
}
