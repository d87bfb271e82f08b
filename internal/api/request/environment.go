package request

type CreateEnvironment struct {
	Name        string `json:"name" validate:"required,slug"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateEnvironment struct {
	Name        *string `json:"name" validate:"omitempty,slug"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}
