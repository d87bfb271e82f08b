package core

import (
	"context"
	"fmt"

	"github.com/edvin/haas/internal/model"
)

// MaxTopologyDepth bounds the ancestor walk done whenever a master is set.
// Cascading replication chains are never this deep in practice.
const MaxTopologyDepth = 64

// TopologyStore is what the resolver, orchestrator and guard need from
// persistence. *InstanceService implements it.
type TopologyStore interface {
	GetByID(ctx context.Context, id string) (*model.Instance, error)
	GetMany(ctx context.Context, ids []string) ([]model.Instance, error)
	ResolvePlacement(ctx context.Context, inst *model.Instance) error
	HerdPrimary(ctx context.Context, herdID, excludeID string) (*model.Instance, error)
	CountDependents(ctx context.Context, id string) (int, error)
	CountOtherPrimaries(ctx context.Context, herdID, excludeID string) (int, error)
	Create(ctx context.Context, inst *model.Instance) error
	Update(ctx context.Context, inst *model.Instance) error
	SetOnline(ctx context.Context, id string, online bool) error
	SetMaster(ctx context.Context, id string, masterID *string) error
}

// ParentLookup returns the herd and master of the instance with the given id.
type ParentLookup func(ctx context.Context, id string) (herdID string, masterID *string, err error)

// CheckMaster verifies that pointing id at masterID keeps the master relation
// a forest inside a single herd. It walks up from masterID and fails if it
// reaches id, leaves herdID, or goes deeper than MaxTopologyDepth.
func CheckMaster(ctx context.Context, lookup ParentLookup, id, herdID, masterID string) error {
	if masterID == id {
		return fmt.Errorf("instance %s: %w", id, ErrTopologyCycle)
	}

	cur := masterID
	for depth := 0; depth < MaxTopologyDepth; depth++ {
		curHerd, parent, err := lookup(ctx, cur)
		if err != nil {
			return fmt.Errorf("walk ancestors of %s: %w", id, err)
		}
		if depth == 0 && curHerd != herdID {
			return fmt.Errorf("instance %s master %s: %w", id, masterID, ErrCrossHerdMaster)
		}
		if parent == nil {
			return nil
		}
		if *parent == id {
			return fmt.Errorf("instance %s master %s: %w", id, masterID, ErrTopologyCycle)
		}
		cur = *parent
	}
	return fmt.Errorf("instance %s master %s: %w", id, masterID, ErrTopologyDepth)
}
