package model

import (
	"encoding/json"
	"math"
	"time"
)

// BytesPerMB converts replication positions to the megabytes shown as lag.
const BytesPerMB = 1 << 20

// Instance is one deployment of a herd on a server. Whether it is a primary
// or a replica is derived from MasterID and never stored on its own.
type Instance struct {
	ID          string    `json:"id" db:"id"`
	HerdID      string    `json:"herd_id" db:"herd_id"`
	ServerID    string    `json:"server_id" db:"server_id"`
	Version     string    `json:"version" db:"version"`
	LocalPGData string    `json:"local_pgdata,omitempty" db:"local_pgdata"`
	Position    *int64    `json:"position,omitempty" db:"position"`
	IsOnline    bool      `json:"is_online" db:"is_online"`
	MasterID    *string   `json:"master_id,omitempty" db:"master_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Joined from herds, servers, environments and the master row.
	HerdName        string  `json:"herd_name,omitempty" db:"-"`
	EnvironmentName *string `json:"environment_name,omitempty" db:"-"`
	Hostname        string  `json:"hostname,omitempty" db:"-"`
	Port            int     `json:"port,omitempty" db:"-"`
	PGData          string  `json:"pgdata,omitempty" db:"-"`
	MasterPosition  *int64  `json:"-" db:"-"`
	MasterVersion   string  `json:"-" db:"-"`
}

// IsPrimary reports whether the instance is the root of its replication tree.
func (i *Instance) IsPrimary() bool {
	return i.MasterID == nil
}

// MBLag returns how far the instance trails its master, in megabytes rounded
// to two decimals. Primaries have no lag and return nil. Unset positions
// count as zero.
func (i *Instance) MBLag() *float64 {
	if i.IsPrimary() {
		return nil
	}
	var mine, theirs int64
	if i.Position != nil {
		mine = *i.Position
	}
	if i.MasterPosition != nil {
		theirs = *i.MasterPosition
	}
	diff := theirs - mine
	if diff < 0 {
		diff = -diff
	}
	lag := math.Round(float64(diff)/BytesPerMB*100) / 100
	return &lag
}

// EffectivePGData is the data directory actually used on the server.
func (i *Instance) EffectivePGData() string {
	if i.LocalPGData != "" {
		return i.LocalPGData
	}
	return i.PGData
}

// Label is the operator-facing name used in action messages.
func (i *Instance) Label() string {
	switch {
	case i.HerdName != "" && i.Hostname != "":
		return i.HerdName + " on " + i.Hostname
	case i.Hostname != "":
		return i.Hostname
	default:
		return i.ID
	}
}

// MarshalJSON adds the derived role and lag to the stored fields.
func (i Instance) MarshalJSON() ([]byte, error) {
	type stored Instance
	return json.Marshal(struct {
		stored
		IsPrimary bool     `json:"is_primary"`
		MBLag     *float64 `json:"mb_lag"`
	}{
		stored:    stored(i),
		IsPrimary: i.IsPrimary(),
		MBLag:     i.MBLag(),
	})
}
