package request

// ActionRequest selects the instances an action is applied to. Confirmed is
// only read for promote and demote.
type ActionRequest struct {
	InstanceIDs []string `json:"instance_ids" validate:"required,min=1,dive,required"`
	Confirmed   bool     `json:"confirmed"`
}

// ApplyAction is one entry of a haasctl topology file: an action applied to
// every instance of a herd, optionally narrowed to some hosts.
type ApplyAction struct {
	Action string   `yaml:"action" validate:"required,action"`
	Herd   string   `yaml:"herd" validate:"required,slug"`
	Hosts  []string `yaml:"hosts" validate:"omitempty,dive,required"`
}
