package pgctl

import "fmt"

// ControlError is returned by every Controller operation that fails on the
// managed side.
type ControlError struct {
	Op       string
	Instance string
	Err      error
}

func (e *ControlError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Instance, e.Err)
}

func (e *ControlError) Unwrap() error { return e.Err }
