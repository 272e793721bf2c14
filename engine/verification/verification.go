package verification

import (
	"encoding/json"
	"time"

	"github.com/lendflow/lendflow/engine/core"
)

type Type string

const (
	TypeResidence Type = "residence"
	TypeBusiness  Type = "business"
	TypeProperty  Type = "property"
	TypeVehicle   Type = "vehicle"
)

func (t Type) Valid() bool {
	switch t {
	case TypeResidence, TypeBusiness, TypeProperty, TypeVehicle:
		return true
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

type Result string

const (
	ResultPositive Result = "positive"
	ResultNegative Result = "negative"
	ResultRefer    Result = "refer"
)

func (r Result) Valid() bool {
	return r == ResultPositive || r == ResultNegative || r == ResultRefer
}

// Verification is a field visit of one type for a loan application.
type Verification struct {
	ID            core.ID         `db:"id"             json:"id"`
	OrgID         core.ID         `db:"org_id"         json:"org_id"`
	ApplicationID core.ID         `db:"application_id" json:"application_id"`
	Type          Type            `db:"type"           json:"type"`
	Status        Status          `db:"status"         json:"status"`
	AssignedTo    *core.ID        `db:"assigned_to"    json:"assigned_to,omitempty"`
	Address       string          `db:"address"        json:"address,omitempty"`
	Details       json.RawMessage `db:"details"        json:"details,omitempty"`
	Result        Result          `db:"result"         json:"result,omitempty"`
	Remarks       string          `db:"remarks"        json:"remarks,omitempty"`
	Latitude      *float64        `db:"latitude"       json:"latitude,omitempty"`
	Longitude     *float64        `db:"longitude"      json:"longitude,omitempty"`
	VisitedAt     *time.Time      `db:"visited_at"     json:"visited_at,omitempty"`
	ReviewedBy    *core.ID        `db:"reviewed_by"    json:"reviewed_by,omitempty"`
	ReviewRemarks string          `db:"review_remarks" json:"review_remarks,omitempty"`
	CreatedAt     time.Time       `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"     json:"updated_at"`
}

// Active reports whether the verification still blocks a new one of the same type.
func (v *Verification) Active() bool {
	return v.Status != StatusRejected
}

func (v *Verification) IsAssignee(userID core.ID) bool {
	return v.AssignedTo != nil && *v.AssignedTo == userID
}
