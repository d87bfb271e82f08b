package model

// InstanceStatus is what an external monitor reports for an instance.
type InstanceStatus struct {
	IsOnline bool   `json:"is_online"`
	Position *int64 `json:"position,omitempty"`
}
