package model

import (
	"time"

	"github.com/lendflow/lendflow/engine/core"
)

type OrgStatus string

const (
	OrgActive    OrgStatus = "active"
	OrgSuspended OrgStatus = "suspended"
)

// Organization is the tenant every other record belongs to.
type Organization struct {
	ID        core.ID   `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	Slug      string    `db:"slug"       json:"slug"`
	Status    OrgStatus `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (o *Organization) IsActive() bool {
	return o != nil && o.Status == OrgActive
}
