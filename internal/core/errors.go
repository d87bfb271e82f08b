package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("not found")

	// Topology hardening.
	ErrTopologyCycle   = errors.New("master would make the instance its own ancestor")
	ErrTopologyDepth   = errors.New("replication chain exceeds maximum depth")
	ErrCrossHerdMaster = errors.New("master belongs to a different herd")

	// Pre-flight checks. These are reported as warnings before any control call.
	ErrAlreadyRunning = errors.New("already running")
	ErrAlreadyStopped = errors.New("already stopped")
	ErrNotReplica     = errors.New("not a replica")
	ErrNotPrimary     = errors.New("not a primary")
	ErrHasDependents  = errors.New("has active subscribers")
	ErrLastPrimary    = errors.New("herd needs at least one primary")

	ErrNoCandidates      = errors.New("no valid instances")
	ErrUnsupportedAction = errors.New("unsupported action")
)

// notFound converts pgx.ErrNoRows into ErrNotFound and wraps everything else.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
