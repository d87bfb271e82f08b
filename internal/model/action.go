package model

import "fmt"

// ActionKind enumerates the operations an operator can run against a
// selection of instances.
type ActionKind string

const (
	ActionStart   ActionKind = "start"
	ActionStop    ActionKind = "stop"
	ActionRestart ActionKind = "restart"
	ActionReload  ActionKind = "reload"
	ActionRebuild ActionKind = "rebuild"
	ActionPromote ActionKind = "promote"
	ActionDemote  ActionKind = "demote"
)

// IsLifecycle reports whether the action runs in a single phase through the
// bulk orchestrator.
func (k ActionKind) IsLifecycle() bool {
	switch k {
	case ActionStart, ActionStop, ActionRestart, ActionReload, ActionRebuild:
		return true
	}
	return false
}

// IsTopology reports whether the action changes the replication tree and
// therefore needs a confirmation phase.
func (k ActionKind) IsTopology() bool {
	return k == ActionPromote || k == ActionDemote
}

// ParseActionKind validates a user-supplied action name.
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if k.IsLifecycle() || k.IsTopology() {
		return k, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}
