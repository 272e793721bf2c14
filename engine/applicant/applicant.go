package applicant

import (
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentBusiness     EmploymentType = "business"
	EmploymentOther        EmploymentType = "other"
)

func (e EmploymentType) Valid() bool {
	switch e {
	case EmploymentSalaried, EmploymentSelfEmployed, EmploymentBusiness, EmploymentOther:
		return true
	}
	return false
}

// Address is shared by applicants and parties. Its columns are stored flat.
type Address struct {
	Line1   string `db:"address_line1" json:"line1"   validate:"max=200"`
	Line2   string `db:"address_line2" json:"line2"   validate:"max=200"`
	City    string `db:"city"          json:"city"    validate:"max=100"`
	State   string `db:"state"         json:"state"   validate:"max=100"`
	Pincode string `db:"pincode"       json:"pincode" validate:"omitempty,numeric,len=6"`
}

// Applicant is the primary borrower on one or more loan applications.
// Only the last four digits of the Aadhaar number are ever kept.
type Applicant struct {
	ID             core.ID         `db:"id"             json:"id"`
	OrgID          core.ID         `db:"org_id"         json:"org_id"`
	FirstName      string          `db:"first_name"     json:"first_name"`
	LastName       string          `db:"last_name"      json:"last_name"`
	Email          string          `db:"email"          json:"email,omitempty"`
	Phone          string          `db:"phone"          json:"phone"`
	DateOfBirth    time.Time       `db:"date_of_birth"  json:"date_of_birth"`
	PAN            string          `db:"pan"            json:"pan"`
	AadhaarLast4   string          `db:"aadhaar_last4"  json:"aadhaar_last4,omitempty"`
	Gender         string          `db:"gender"         json:"gender,omitempty"`
	MaritalStatus  string          `db:"marital_status" json:"marital_status,omitempty"`
	EmploymentType EmploymentType  `db:"employment_type" json:"employment_type"`
	EmployerName   string          `db:"employer_name"  json:"employer_name,omitempty"`
	MonthlyIncome  decimal.Decimal `db:"monthly_income" json:"monthly_income"`
	CreatedBy      core.ID         `db:"created_by"     json:"created_by"`
	CreatedAt      time.Time       `db:"created_at"     json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"     json:"updated_at"`

	Address `json:"address"`
}

func (a *Applicant) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Filter narrows ListApplicants. Search matches name prefix, PAN or phone.
type Filter struct {
	Search string
}
