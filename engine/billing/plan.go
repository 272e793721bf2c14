package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type PlanCode string

const (
	PlanStarter    PlanCode = "starter"
	PlanGrowth     PlanCode = "growth"
	PlanEnterprise PlanCode = "enterprise"
)

type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Plan is a subscription tier. Zero limits mean unlimited.
type Plan struct {
	Code                    PlanCode        `json:"code"`
	Name                    string          `json:"name"`
	Price                   decimal.Decimal `json:"price"`
	Currency                string          `json:"currency"`
	Interval                Interval        `json:"interval"`
	MaxUsers                int             `json:"max_users"`
	MaxApplicationsPerMonth int             `json:"max_applications_per_month"`
}

var catalog = []Plan{
	{
		Code:                    PlanStarter,
		Name:                    "Starter",
		Price:                   decimal.RequireFromString("2999"),
		Currency:                "INR",
		Interval:                IntervalMonthly,
		MaxUsers:                5,
		MaxApplicationsPerMonth: 100,
	},
	{
		Code:                    PlanGrowth,
		Name:                    "Growth",
		Price:                   decimal.RequireFromString("9999"),
		Currency:                "INR",
		Interval:                IntervalMonthly,
		MaxUsers:                25,
		MaxApplicationsPerMonth: 1000,
	},
	{
		Code:     PlanEnterprise,
		Name:     "Enterprise",
		Price:    decimal.RequireFromString("199999"),
		Currency: "INR",
		Interval: IntervalYearly,
	},
}

// Plans returns the catalog in display order.
func Plans() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

func LookupPlan(code PlanCode) (Plan, bool) {
	for _, p := range catalog {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

// MinorUnits is the price in paise, as the gateway expects.
func (p Plan) MinorUnits() int64 {
	return p.Price.Shift(2).Round(0).IntPart()
}

// Extend returns the end of one billing interval starting at from.
func (p Plan) Extend(from time.Time) time.Time {
	if p.Interval == IntervalYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}
