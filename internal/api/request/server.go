package request

type CreateServer struct {
	EnvironmentID *string `json:"environment_id"`
	Hostname      string  `json:"hostname" validate:"required,hostname_rfc1123|ip"`
}

type UpdateServer struct {
	EnvironmentID *string `json:"environment_id"`
	Hostname      *string `json:"hostname" validate:"omitempty,hostname_rfc1123|ip"`
}
