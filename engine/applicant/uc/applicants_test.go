package uc

import (
	"context"
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func officer(role model.Role) *model.User {
	return &model.User{ID: core.MustNewID(), OrgID: core.MustNewID(), Role: role, Status: model.UserActive}
}

func validInput() *CreateInput {
	return &CreateInput{
		FirstName:      "  asha   RAO ",
		LastName:       "kumar",
		Email:          "Asha@Example.COM",
		Phone:          "+91 98765 43210",
		DateOfBirth:    "1990-04-12",
		PAN:            "abcde1234f",
		Aadhaar:        "1234 5678 9012",
		EmploymentType: applicant.EmploymentSalaried,
		MonthlyIncome:  decimal.RequireFromString("85000.456"),
		Address:        applicant.Address{City: "new delhi", Pincode: "110001"},
	}
}

func TestCreateApplicant(t *testing.T) {
	ctx := context.Background()

	t.Run("Should normalize fields and keep only the aadhaar suffix", func(t *testing.T) {
		repo := new(mockRepository)
		actor := officer(model.RoleCreditOfficer)
		repo.On("Create", ctx, mock.Anything).Return(nil)

		a, err := NewCreateApplicant(repo, actor, validInput()).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", a.FirstName)
		assert.Equal(t, "Kumar", a.LastName)
		assert.Equal(t, "asha@example.com", a.Email)
		assert.Equal(t, "9876543210", a.Phone)
		assert.Equal(t, "ABCDE1234F", a.PAN)
		assert.Equal(t, "9012", a.AadhaarLast4)
		assert.Equal(t, "New Delhi", a.City)
		assert.Equal(t, "85000.46", a.MonthlyIncome.StringFixed(2))
		assert.Equal(t, actor.OrgID, a.OrgID)
		assert.Equal(t, actor.ID, a.CreatedBy)
		repo.AssertExpectations(t)
	})

	t.Run("Should reject applicants younger than eighteen", func(t *testing.T) {
		repo := new(mockRepository)
		uc := NewCreateApplicant(repo, officer(model.RoleManager), validInput())
		uc.now = func() time.Time { return time.Date(2008, 4, 11, 0, 0, 0, 0, time.UTC) }
		_, err := uc.Execute(ctx)
		assert.ErrorIs(t, err, applicant.ErrUnderage)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Should reject a malformed PAN", func(t *testing.T) {
		repo := new(mockRepository)
		in := validInput()
		in.PAN = "ABCD1234F"
		_, err := NewCreateApplicant(repo, officer(model.RoleOwner), in).Execute(ctx)
		assert.ErrorIs(t, err, core.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Should reject partial aadhaar numbers", func(t *testing.T) {
		repo := new(mockRepository)
		in := validInput()
		in.Aadhaar = "123456"
		_, err := NewCreateApplicant(repo, officer(model.RoleOwner), in).Execute(ctx)
		assert.ErrorIs(t, err, applicant.ErrInvalidAadhaar)
	})

	t.Run("Should require the applicants.write capability", func(t *testing.T) {
		repo := new(mockRepository)
		_, err := NewCreateApplicant(repo, officer(model.RoleFieldAgent), validInput()).Execute(ctx)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("Should surface duplicate PAN conflicts", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("Create", ctx, mock.Anything).Return(applicant.ErrPANExists)
		_, err := NewCreateApplicant(repo, officer(model.RoleAdmin), validInput()).Execute(ctx)
		assert.ErrorIs(t, err, applicant.ErrPANExists)
		assert.ErrorIs(t, err, core.ErrConflict)
	})
}

func TestAge(t *testing.T) {
	dob := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 17, Age(dob, time.Date(2018, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 18, Age(dob, time.Date(2018, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestUpdateApplicant(t *testing.T) {
	ctx := context.Background()

	t.Run("Should only touch supplied fields", func(t *testing.T) {
		repo := new(mockRepository)
		actor := officer(model.RoleCreditOfficer)
		existing := &applicant.Applicant{
			ID:        core.MustNewID(),
			OrgID:     actor.OrgID,
			FirstName: "Asha",
			LastName:  "Rao",
			Phone:     "9876543210",
			PAN:       "ABCDE1234F",
		}
		repo.On("Get", ctx, actor.OrgID, existing.ID).Return(existing, nil)
		repo.On("Update", ctx, existing).Return(nil)

		phone := "080-9123456789"
		_, err := NewUpdateApplicant(repo, actor, existing.ID, &UpdateInput{Phone: &phone}).Execute(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidInput)

		phone = "09123456789"
		a, err := NewUpdateApplicant(repo, actor, existing.ID, &UpdateInput{Phone: &phone}).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, "9123456789", a.Phone)
		assert.Equal(t, "Asha", a.FirstName)
		assert.Equal(t, "ABCDE1234F", a.PAN)
	})

	t.Run("Should return not found for other organizations", func(t *testing.T) {
		repo := new(mockRepository)
		actor := officer(model.RoleManager)
		id := core.MustNewID()
		repo.On("Get", ctx, actor.OrgID, id).Return(nil, applicant.ErrNotFound)
		name := "x"
		_, err := NewUpdateApplicant(repo, actor, id, &UpdateInput{FirstName: &name}).Execute(ctx)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestDeleteApplicant(t *testing.T) {
	ctx := context.Background()

	t.Run("Should refuse when applications exist", func(t *testing.T) {
		repo := new(mockRepository)
		actor := officer(model.RoleManager)
		id := core.MustNewID()
		repo.On("Get", ctx, actor.OrgID, id).Return(&applicant.Applicant{ID: id}, nil)
		repo.On("CountApplications", ctx, actor.OrgID, id).Return(2, nil)
		err := NewDeleteApplicant(repo, actor, id).Execute(ctx)
		assert.ErrorIs(t, err, applicant.ErrHasApplications)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should delete an applicant without applications", func(t *testing.T) {
		repo := new(mockRepository)
		actor := officer(model.RoleManager)
		id := core.MustNewID()
		repo.On("Get", ctx, actor.OrgID, id).Return(&applicant.Applicant{ID: id}, nil)
		repo.On("CountApplications", ctx, actor.OrgID, id).Return(0, nil)
		repo.On("Delete", ctx, actor.OrgID, id).Return(nil)
		require.NoError(t, NewDeleteApplicant(repo, actor, id).Execute(ctx))
		repo.AssertExpectations(t)
	})
}
