package loan

import (
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

const growthPrecision = 18

// ComputeEMI returns the reducing balance instalment for principal at the
// annual percentage rate over months, rounded to two decimals:
//
//	EMI = P * r * (1+r)^n / ((1+r)^n - 1), r = rate / 12 / 100
//
// A zero rate divides the principal evenly.
func ComputeEMI(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(months))
	if !annualRate.IsPositive() {
		return principal.DivRound(n, 2)
	}
	r := annualRate.Div(twelve).Div(hundred)
	onePlusR := decimal.NewFromInt(1).Add(r)
	growth := decimal.NewFromInt(1)
	for range months {
		growth = growth.Mul(onePlusR).Round(growthPrecision)
	}
	emi := principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return emi.Round(2)
}
