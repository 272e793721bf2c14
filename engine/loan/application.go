package loan

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

type Product string

const (
	ProductPersonal  Product = "personal"
	ProductBusiness  Product = "business"
	ProductHome      Product = "home"
	ProductVehicle   Product = "vehicle"
	ProductGold      Product = "gold"
	ProductEducation Product = "education"
)

func (p Product) Valid() bool {
	switch p {
	case ProductPersonal, ProductBusiness, ProductHome, ProductVehicle, ProductGold, ProductEducation:
		return true
	}
	return false
}

// Application is a loan request moving through the origination workflow.
type Application struct {
	ID              core.ID         `db:"id"               json:"id"`
	OrgID           core.ID         `db:"org_id"           json:"org_id"`
	ApplicantID     core.ID         `db:"applicant_id"     json:"applicant_id"`
	Number          string          `db:"number"           json:"number"`
	Product         Product         `db:"product"          json:"product"`
	RequestedAmount decimal.Decimal `db:"requested_amount" json:"requested_amount"`
	TenureMonths    int             `db:"tenure_months"    json:"tenure_months"`
	InterestRate    decimal.Decimal `db:"interest_rate"    json:"interest_rate"`
	Purpose         string          `db:"purpose"          json:"purpose,omitempty"`
	Status          Status          `db:"status"           json:"status"`
	AssignedTo      *core.ID        `db:"assigned_to"      json:"assigned_to,omitempty"`
	CreatedBy       core.ID         `db:"created_by"       json:"created_by"`
	CreatedAt       time.Time       `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"       json:"updated_at"`
}

// Editable reports whether the commercial terms may still change.
func (a *Application) Editable() bool {
	switch a.Status {
	case StatusDraft, StatusSubmitted, StatusOnHold:
		return true
	}
	return false
}

// Filter narrows ListApplications. Zero values match everything.
type Filter struct {
	Status      Status
	ApplicantID core.ID
	AssignedTo  core.ID
}

const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewNumber returns a human facing reference such as LN-202510-7KQ2ZD.
func NewNumber(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	limit := big.NewInt(int64(len(numberAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generating application number: %w", err)
		}
		suffix[i] = numberAlphabet[n.Int64()]
	}
	return fmt.Sprintf("LN-%s-%s", now.UTC().Format("200601"), suffix), nil
}
