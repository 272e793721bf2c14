package applicant

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// TitleName trims, collapses inner whitespace and title-cases a person's name.
func TitleName(s string) string {
	return titleCaser.String(strings.ToLower(strings.Join(strings.Fields(s), " ")))
}

// Normalize trims every line and title-cases city and state.
func (a Address) Normalize() Address {
	return Address{
		Line1:   strings.TrimSpace(a.Line1),
		Line2:   strings.TrimSpace(a.Line2),
		City:    TitleName(a.City),
		State:   TitleName(a.State),
		Pincode: strings.TrimSpace(a.Pincode),
	}
}
