package verification

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
)

type ResidenceDetails struct {
	Ownership       string `json:"ownership"        validate:"required,oneof=owned rented family company_provided"`
	YearsAtAddress  int    `json:"years_at_address" validate:"min=0,max=100"`
	FamilyMembers   int    `json:"family_members"   validate:"min=1,max=50"`
	NeighbourCheck  string `json:"neighbour_check"  validate:"required,oneof=positive negative not_done"`
	LocalityType    string `json:"locality_type"    validate:"required,oneof=urban semi_urban rural slum"`
	PersonMet       string `json:"person_met"       validate:"max=100"`
	AddressVerified bool   `json:"address_verified"`
}

type BusinessDetails struct {
	BusinessName     string `json:"business_name"      validate:"required,max=200"`
	NatureOfBusiness string `json:"nature_of_business" validate:"required,max=200"`
	YearsInOperation int    `json:"years_in_operation" validate:"min=0,max=200"`
	Employees        int    `json:"employees"          validate:"min=0"`
	StockSeen        bool   `json:"stock_seen"`
	SignboardSeen    bool   `json:"signboard_seen"`
}

type PropertyDetails struct {
	PropertyType      string          `json:"property_type"      validate:"required,oneof=residential commercial industrial agricultural plot"`
	AreaSqFt          int             `json:"area_sq_ft"         validate:"required,min=1"`
	MarketValue       decimal.Decimal `json:"market_value"`
	Ownership         string          `json:"ownership"          validate:"required,oneof=self joint family third_party"`
	ConstructionStage string          `json:"construction_stage" validate:"required,oneof=plot under_construction completed"`
}

type VehicleDetails struct {
	RegistrationNo     string `json:"registration_no"      validate:"required,max=20"`
	Make               string `json:"make"                 validate:"required,max=50"`
	Model              string `json:"model"                validate:"required,max=50"`
	Year               int    `json:"year"                 validate:"required,min=1980,max=2100"`
	Condition          string `json:"condition"            validate:"required,oneof=excellent good fair poor"`
	InsuranceValidTill string `json:"insurance_valid_till" validate:"omitempty,datetime=2006-01-02"`
}

// NormalizeDetails decodes raw into the struct for t, validates it and
// returns its canonical encoding. Unknown fields are rejected.
func NormalizeDetails(t Type, raw json.RawMessage) (json.RawMessage, error) {
	var target any
	switch t {
	case TypeResidence:
		target = &ResidenceDetails{}
	case TypeBusiness:
		target = &BusinessDetails{}
	case TypeProperty:
		target = &PropertyDetails{}
	case TypeVehicle:
		target = &VehicleDetails{}
	default:
		return nil, core.Invalid("type", fmt.Sprintf("unknown verification type %q", t))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, core.Invalid("details", "details are required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, core.Invalid("details", err.Error())
	}
	if err := core.ValidateStruct(target); err != nil {
		return nil, err
	}
	if pd, ok := target.(*PropertyDetails); ok && pd.MarketValue.IsNegative() {
		return nil, core.Invalid("market_value", "must not be negative")
	}
	out, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encoding details: %w", err)
	}
	return out, nil
}
