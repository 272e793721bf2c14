package model

import (
	"time"

	"github.com/lendflow/lendflow/engine/core"
)

// Role represents a user's position inside an organization
type Role string

const (
	RoleOwner         Role = "owner"
	RoleAdmin         Role = "admin"
	RoleManager       Role = "manager"
	RoleCreditOfficer Role = "credit_officer"
	RoleFieldAgent    Role = "field_agent"
	RoleViewer        Role = "viewer"
)

// Roles lists every assignable role.
var Roles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleCreditOfficer, RoleFieldAgent, RoleViewer}

// UserStatus gates sign in.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
)

// User represents a member of an organization
type User struct {
	ID          core.ID    `db:"id"           json:"id"`
	OrgID       core.ID    `db:"org_id"       json:"org_id"`
	Email       string     `db:"email"        json:"email"`
	Name        string     `db:"name"         json:"name"`
	Role        Role       `db:"role"         json:"role"`
	AuthSubject *string    `db:"auth_subject" json:"auth_subject,omitempty"`
	Status      UserStatus `db:"status"       json:"status"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// Valid checks if the role is a valid value
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserDisabled
}

// IsActive reports whether the user may sign in.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserActive
}
