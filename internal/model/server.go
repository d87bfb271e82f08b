package model

import "time"

type Server struct {
	ID            string    `json:"id" db:"id"`
	EnvironmentID *string   `json:"environment_id,omitempty" db:"environment_id"`
	Hostname      string    `json:"hostname" db:"hostname"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	EnvironmentName *string `json:"environment_name,omitempty" db:"-"`
}
