package request

// CreateInstance registers a herd on a server. Version is only used when it
// cannot be detected from the running instance.
type CreateInstance struct {
	HerdID      string `json:"herd_id" validate:"required"`
	ServerID    string `json:"server_id" validate:"required"`
	Version     string `json:"version" validate:"omitempty,max=10"`
	LocalPGData string `json:"local_pgdata" validate:"omitempty,startswith=/,max=100"`
}

type UpdateInstance struct {
	HerdID      *string `json:"herd_id" validate:"omitempty,min=1"`
	ServerID    *string `json:"server_id" validate:"omitempty,min=1"`
	Version     *string `json:"version" validate:"omitempty,max=10"`
	LocalPGData *string `json:"local_pgdata" validate:"omitempty,startswith=/,max=100"`
}

// StatusReport is sent by an external monitor. Position is a textual WAL
// location such as "16/B374D848".
type StatusReport struct {
	IsOnline bool   `json:"is_online"`
	Position string `json:"position" validate:"omitempty,lsn"`
}
