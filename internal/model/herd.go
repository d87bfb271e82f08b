package model

import "time"

// DefaultPort is the connection port a herd gets when none is given.
const DefaultPort = 5432

// Herd is a logical PostgreSQL cluster. Every instance of the herd listens on
// Port and keeps its data under PGData unless it overrides the path locally.
type Herd struct {
	ID            string    `json:"id" db:"id"`
	EnvironmentID *string   `json:"environment_id,omitempty" db:"environment_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Port          int       `json:"port" db:"port"`
	PGData        string    `json:"pgdata" db:"pgdata"`
	VHost         string    `json:"vhost" db:"vhost"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	EnvironmentName *string `json:"environment_name,omitempty" db:"-"`
}
