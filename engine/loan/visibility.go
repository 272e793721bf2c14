package loan

import "github.com/lendflow/lendflow/engine/auth/model"

// ConfirmationVisibility tells clients which confirmation fields to show and
// which actions to offer.
type ConfirmationVisibility struct {
	ShowApprovedAmount  bool `json:"show_approved_amount"`
	ShowInterestRate    bool `json:"show_interest_rate"`
	ShowProcessingFee   bool `json:"show_processing_fee"`
	ShowEMI             bool `json:"show_emi"`
	CanEditConfirmation bool `json:"can_edit_confirmation"`
	CanDecide           bool `json:"can_decide"`
}

func DefineLoanConfirmationFieldVisibility(user *model.User) ConfirmationVisibility {
	financials := user.Can(model.CapLoanViewFinancials)
	confirm := user.Can(model.CapLoanConfirm)
	return ConfirmationVisibility{
		ShowApprovedAmount:  financials || confirm,
		ShowInterestRate:    financials || confirm,
		ShowProcessingFee:   financials || confirm,
		ShowEMI:             financials || confirm,
		CanEditConfirmation: confirm,
		CanDecide:           confirm,
	}
}

// Redact returns a copy of c with hidden fields cleared.
func (v ConfirmationVisibility) Redact(c *Confirmation) *Confirmation {
	if c == nil {
		return nil
	}
	out := *c
	if !v.ShowApprovedAmount {
		out.ApprovedAmount = nil
	}
	if !v.ShowInterestRate {
		out.InterestRate = nil
	}
	if !v.ShowProcessingFee {
		out.ProcessingFee = nil
	}
	if !v.ShowEMI {
		out.EMI = nil
	}
	return &out
}
