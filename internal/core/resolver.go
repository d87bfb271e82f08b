package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/haas/internal/model"
	"github.com/edvin/haas/internal/platform"
)

// Resolver fills in the facts about an instance that operators are not
// expected to enter by hand: whether it is online, which instance it
// replicates from, and which PostgreSQL version it runs.
type Resolver struct {
	store TopologyStore
	ctl   Controller
	probe Prober
}

func NewResolver(store TopologyStore, ctl Controller, probe Prober) *Resolver {
	return &Resolver{store: store, ctl: ctl, probe: probe}
}

// SaveResult is a persisted instance plus anything the operator should see.
type SaveResult struct {
	Instance *model.Instance `json:"instance"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Save detects, persists and bootstraps an instance. Only the persist step
// can fail the call. Bootstrap problems come back as warnings.
func (r *Resolver) Save(ctx context.Context, inst *model.Instance, isNew bool) (*SaveResult, error) {
	logger := zerolog.Ctx(ctx)

	if isNew {
		if inst.ID == "" {
			inst.ID = platform.NewID()
		}
		now := time.Now()
		inst.CreatedAt = now
		inst.UpdatedAt = now
	} else if err := r.checkHerdMove(ctx, inst); err != nil {
		return nil, err
	}

	if err := r.store.ResolvePlacement(ctx, inst); err != nil {
		return nil, err
	}

	inst.IsOnline = r.probe.Reachable(ctx, inst.Hostname, inst.Port)

	master, err := r.store.HerdPrimary(ctx, inst.HerdID, inst.ID)
	if err != nil {
		return nil, err
	}
	inst.MasterID = nil
	inst.MasterPosition = nil
	inst.MasterVersion = ""
	if master != nil {
		inst.MasterID = &master.ID
		inst.MasterPosition = master.Position
		inst.MasterVersion = master.Version
	}

	if inst.IsOnline {
		detected, err := r.ctl.Version(ctx, inst)
		if err != nil {
			logger.Debug().Err(err).Str("instance_id", inst.ID).Msg("version detection failed")
		}
		if detected != "" {
			inst.Version = detected
		}
	}
	if inst.Version == "" && master != nil {
		inst.Version = master.Version
	}

	if isNew {
		err = r.store.Create(ctx, inst)
	} else {
		err = r.store.Update(ctx, inst)
	}
	if err != nil {
		return nil, err
	}

	res := &SaveResult{Instance: inst}
	if err := r.ctl.InitMissing(ctx, inst, master); err != nil {
		logger.Warn().Err(err).Str("instance_id", inst.ID).Msg("instance bootstrap failed")
		res.Warnings = append(res.Warnings, fmt.Sprintf("Instance init: %v", err))
	}
	return res, nil
}

// checkHerdMove refuses to move an instance that others replicate from into
// another herd. Its replicas would be left pointing across herds.
func (r *Resolver) checkHerdMove(ctx context.Context, inst *model.Instance) error {
	current, err := r.store.GetByID(ctx, inst.ID)
	if err != nil {
		return err
	}
	if current.HerdID == inst.HerdID {
		return nil
	}
	n, err := r.store.CountDependents(ctx, inst.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("move instance %s to herd %s: %w", inst.ID, inst.HerdID, ErrHasDependents)
	}
	return nil
}
