package document

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/lendflow/lendflow/engine/core"
)

type Type string

const (
	TypePANCard       Type = "pan_card"
	TypeAadhaar       Type = "aadhaar"
	TypeBankStatement Type = "bank_statement"
	TypeSalarySlip    Type = "salary_slip"
	TypeITR           Type = "itr"
	TypePropertyDeed  Type = "property_deed"
	TypeVehicleRC     Type = "vehicle_rc"
	TypePhoto         Type = "photo"
	TypeBusinessProof Type = "business_proof"
	TypeOther         Type = "other"
)

var types = []Type{
	TypePANCard, TypeAadhaar, TypeBankStatement, TypeSalarySlip, TypeITR,
	TypePropertyDeed, TypeVehicleRC, TypePhoto, TypeBusinessProof, TypeOther,
}

func (t Type) Valid() bool {
	for _, known := range types {
		if t == known {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPendingUpload Status = "pending_upload"
	StatusUploaded      Status = "uploaded"
)

// Document is a file attached to a loan application, optionally for one party.
type Document struct {
	ID            core.ID    `db:"id"             json:"id"`
	OrgID         core.ID    `db:"org_id"         json:"org_id"`
	ApplicationID core.ID    `db:"application_id" json:"application_id"`
	PartyID       *core.ID   `db:"party_id"       json:"party_id,omitempty"`
	Type          Type       `db:"type"           json:"type"`
	FileName      string     `db:"file_name"      json:"file_name"`
	ObjectKey     string     `db:"object_key"     json:"-"`
	ContentType   string     `db:"content_type"   json:"content_type"`
	SizeBytes     int64      `db:"size_bytes"     json:"size_bytes"`
	Status        Status     `db:"status"         json:"status"`
	UploadedBy    core.ID    `db:"uploaded_by"    json:"uploaded_by"`
	CreatedAt     time.Time  `db:"created_at"     json:"created_at"`
	UploadedAt    *time.Time `db:"uploaded_at"    json:"uploaded_at,omitempty"`
}

// SanitizeFileName keeps the extension and slugs the base name so object
// keys stay URL and shell safe.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	ext := strings.ToLower(path.Ext(name))
	base := slug.Make(strings.TrimSuffix(name, path.Ext(name)))
	if base == "" {
		base = "file"
	}
	if len(base) > 100 {
		base = base[:100]
	}
	ext = slug.Make(strings.TrimPrefix(ext, "."))
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// ObjectKey lays documents out as orgs/{org}/applications/{app}/{doc}/{file}.
func ObjectKey(orgID, appID, docID core.ID, fileName string) string {
	return fmt.Sprintf("orgs/%s/applications/%s/%s/%s", orgID, appID, docID, SanitizeFileName(fileName))
}
