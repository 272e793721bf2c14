package verification

import "github.com/lendflow/lendflow/engine/auth/model"

type FieldVisibility struct {
	ShowDetails       bool `json:"show_details"`
	ShowGeoLocation   bool `json:"show_geo_location"`
	ShowReviewRemarks bool `json:"show_review_remarks"`
	CanEditDetails    bool `json:"can_edit_details"`
	CanAssign         bool `json:"can_assign"`
	CanReview         bool `json:"can_review"`
}

// DefineVerificationFieldVisibility derives what user may see and do on v.
// Field agents only see visits assigned to them.
func DefineVerificationFieldVisibility(user *model.User, v *Verification) FieldVisibility {
	reviewer := user.Can(model.CapVerificationReview)
	assignee := v != nil && user != nil && v.IsAssignee(user.ID) && user.Can(model.CapVerificationPerform)
	editable := v != nil && v.Status == StatusAssigned
	return FieldVisibility{
		ShowDetails:       reviewer || assignee,
		ShowGeoLocation:   reviewer || assignee,
		ShowReviewRemarks: reviewer,
		CanEditDetails:    editable && (assignee || reviewer),
		CanAssign:         user.Can(model.CapVerificationAssign) && v != nil && (v.Status == StatusPending || v.Status == StatusAssigned),
		CanReview:         reviewer && v != nil && v.Status == StatusSubmitted,
	}
}

// Redact returns a copy of v without the fields f hides.
func (f FieldVisibility) Redact(v *Verification) *Verification {
	if v == nil {
		return nil
	}
	out := *v
	if !f.ShowDetails {
		out.Details = nil
		out.Remarks = ""
	}
	if !f.ShowGeoLocation {
		out.Latitude = nil
		out.Longitude = nil
	}
	if !f.ShowReviewRemarks {
		out.ReviewRemarks = ""
	}
	return &out
}
