package party

import (
	"time"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindCoApplicant Kind = "co_applicant"
	KindGuarantor   Kind = "guarantor"
)

func (k Kind) Valid() bool {
	return k == KindCoApplicant || k == KindGuarantor
}

// Limit is the maximum number of parties of kind k on one application.
func (k Kind) Limit() int {
	switch k {
	case KindCoApplicant:
		return 3
	case KindGuarantor:
		return 2
	}
	return 0
}

// Party is a co-applicant or guarantor attached to a loan application.
type Party struct {
	ID            core.ID         `db:"id"             json:"id"`
	OrgID         core.ID         `db:"org_id"         json:"org_id"`
	ApplicationID core.ID         `db:"application_id" json:"application_id"`
	Kind          Kind            `db:"kind"           json:"kind"`
	FirstName     string          `db:"first_name"     json:"first_name"`
	LastName      string          `db:"last_name"      json:"last_name"`
	Relationship  string          `db:"relationship"   json:"relationship,omitempty"`
	Email         string          `db:"email"          json:"email,omitempty"`
	Phone         string          `db:"phone"          json:"phone"`
	PAN           string          `db:"pan"            json:"pan"`
	MonthlyIncome decimal.Decimal `db:"monthly_income" json:"monthly_income"`
	CreatedAt     time.Time       `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"     json:"updated_at"`

	applicant.Address `json:"address"`
}
