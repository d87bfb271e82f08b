package request

type CreateHerd struct {
	EnvironmentID *string `json:"environment_id"`
	Name          string  `json:"name" validate:"required,slug"`
	Description   string  `json:"description" validate:"max=500"`
	Port          int     `json:"port" validate:"omitempty,min=1,max=65535"`
	PGData        string  `json:"pgdata" validate:"required,startswith=/,max=100"`
	VHost         string  `json:"vhost" validate:"omitempty,hostname_rfc1123,max=40"`
}

type UpdateHerd struct {
	EnvironmentID *string `json:"environment_id"`
	Name          *string `json:"name" validate:"omitempty,slug"`
	Description   *string `json:"description" validate:"omitempty,max=500"`
	Port          *int    `json:"port" validate:"omitempty,min=1,max=65535"`
	PGData        *string `json:"pgdata" validate:"omitempty,startswith=/,max=100"`
	VHost         *string `json:"vhost" validate:"omitempty,hostname_rfc1123,max=40"`
}
