package core

import (
	"context"

	"github.com/edvin/haas/internal/model"
)

// Controller drives a single PostgreSQL instance. Every method blocks until
// the instance has acted or the call failed.
type Controller interface {
	Start(ctx context.Context, inst *model.Instance) error
	Stop(ctx context.Context, inst *model.Instance) error
	Reload(ctx context.Context, inst *model.Instance) error
	Promote(ctx context.Context, inst *model.Instance) error
	// Demote turns a primary into a replica streaming from upstream.
	Demote(ctx context.Context, inst, upstream *model.Instance) error
	// Version returns the running server version, or "" when undetectable.
	Version(ctx context.Context, inst *model.Instance) (string, error)
	// Rebuild replaces a replica's data directory with a fresh base backup
	// of master and starts it.
	Rebuild(ctx context.Context, inst, master *model.Instance) error
	// InitMissing creates the data directory if it does not exist yet. A nil
	// master means the instance is bootstrapped as a primary.
	InitMissing(ctx context.Context, inst, master *model.Instance) error
}

// Prober checks whether an instance accepts connections. A failed probe is
// an answer, not an error.
type Prober interface {
	Reachable(ctx context.Context, host string, port int) bool
}
