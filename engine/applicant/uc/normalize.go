package uc

import (
	"strings"
	"time"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"
	minimumAge = 18
)

// Age returns the number of completed years between dob and now.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func parseDateOfBirth(raw string, now time.Time) (time.Time, error) {
	dob, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, core.Invalid("date_of_birth", "expected YYYY-MM-DD")
	}
	if Age(dob, now) < minimumAge {
		return time.Time{}, applicant.ErrUnderage
	}
	return dob, nil
}

// aadhaarLast4 accepts either the last four digits or a full twelve digit
// number and returns only the last four.
func aadhaarLast4(raw string) (string, error) {
	digits := strings.Join(strings.Fields(raw), "")
	digits = strings.ReplaceAll(digits, "-", "")
	if digits == "" {
		return "", nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", applicant.ErrInvalidAadhaar
		}
	}
	switch len(digits) {
	case 4:
		return digits, nil
	case 12:
		return digits[8:], nil
	}
	return "", applicant.ErrInvalidAadhaar
}

func normalizePhone(raw string) (string, error) {
	phone, ok := core.NormalizePhone(raw)
	if !ok {
		return "", core.Invalid("phone", "expected a 10 digit Indian mobile number")
	}
	return phone, nil
}

func checkIncome(income decimal.Decimal) error {
	if income.IsNegative() {
		return core.Invalid("monthly_income", "must not be negative")
	}
	return nil
}
