package model

import (
	"database/sql"
	"time"

	"github.com/lendflow/lendflow/engine/core"
)

// APIKey represents an API key for authentication
type APIKey struct {
	ID          core.ID      `db:"id"          json:"id"`
	OrgID       core.ID      `db:"org_id"      json:"org_id"`
	UserID      core.ID      `db:"user_id"     json:"user_id"`
	Hash        []byte       `db:"hash"        json:"-"` // bcrypt-hashed key
	Fingerprint []byte       `db:"fingerprint" json:"-"` // SHA-256 for O(1) lookups
	Prefix      string       `db:"prefix"      json:"prefix"`
	CreatedAt   time.Time    `db:"created_at"  json:"created_at"`
	LastUsed    sql.NullTime `db:"last_used"   json:"-"`
}
