package uc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	authtest "github.com/lendflow/lendflow/engine/auth/testutil"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	loantest "github.com/lendflow/lendflow/engine/loan/testutil"
	loanuc "github.com/lendflow/lendflow/engine/loan/uc"
	"github.com/lendflow/lendflow/engine/verification"
	vtest "github.com/lendflow/lendflow/engine/verification/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const residenceDetails = `{
	"ownership": "owned",
	"years_at_address": 6,
	"family_members": 4,
	"neighbour_check": "positive",
	"locality_type": "urban"
}`

type fixture struct {
	repo    *vtest.InMemoryRepo
	loans   *loantest.InMemoryRepo
	users   *authtest.InMemoryRepo
	factory *Factory
	org     *model.Organization
	manager *model.User
	agent   *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:  vtest.NewInMemoryRepo(),
		loans: loantest.NewInMemoryRepo(),
		users: authtest.NewInMemoryRepo(),
	}
	f.org = f.users.SeedOrg("Acme Finance")
	f.manager = f.users.SeedUser(f.org.ID, "manager@acme.test", model.RoleManager)
	f.agent = f.users.SeedUser(f.org.ID, "agent@acme.test", model.RoleFieldAgent)
	mover := loanuc.NewFactory(loanuc.Deps{Repo: f.loans})
	f.factory = NewFactory(Deps{Repo: f.repo, Applications: f.loans, Users: f.users, Mover: mover})
	return f
}

func (f *fixture) seedApp(status loan.Status) *loan.Application {
	now := time.Now().UTC()
	return f.loans.Seed(&loan.Application{
		ID:              core.MustNewID(),
		OrgID:           f.org.ID,
		ApplicantID:     core.MustNewID(),
		Number:          "LN-202610-VERIFY",
		Product:         loan.ProductBusiness,
		RequestedAmount: decimal.RequireFromString("500000"),
		TenureMonths:    24,
		InterestRate:    decimal.RequireFromString("14"),
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (f *fixture) assigned(t *testing.T, app *loan.Application) *verification.Verification {
	t.Helper()
	v, err := f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
		Type:    verification.TypeResidence,
		Address: " 12 MG Road, Pune ",
	}).Execute(t.Context())
	require.NoError(t, err)
	v, err = f.factory.AssignVerification(f.manager, v.ID, f.agent.ID).Execute(t.Context())
	require.NoError(t, err)
	return v
}

type failingMover struct {
	err error
}

func (m failingMover) MoveApplication(context.Context, core.ID, core.ID, loan.Status, string, core.ID) error {
	return m.err
}

func submitInput() *SubmitInput {
	lat, lng := 18.5204, 73.8567
	return &SubmitInput{
		Details:   json.RawMessage(residenceDetails),
		Result:    verification.ResultPositive,
		Remarks:   "  Met the applicant and spouse ",
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func TestCreateVerification(t *testing.T) {
	t.Run("Should create a pending verification", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		v, err := f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
			Type:    verification.TypeBusiness,
			Address: " Shop 4, Market Yard ",
		}).Execute(t.Context())
		require.NoError(t, err)
		assert.Equal(t, verification.StatusPending, v.Status)
		assert.Equal(t, "Shop 4, Market Yard", v.Address)
		assert.Nil(t, v.AssignedTo)
	})

	t.Run("Should allow only one active verification per type", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		input := &CreateInput{Type: verification.TypeResidence}
		_, err := f.factory.CreateVerification(f.manager, app.ID, input).Execute(t.Context())
		require.NoError(t, err)
		_, err = f.factory.CreateVerification(f.manager, app.ID, input).Execute(t.Context())
		assert.ErrorIs(t, err, verification.ErrActiveExists)
		_, err = f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
			Type: verification.TypeVehicle,
		}).Execute(t.Context())
		assert.NoError(t, err)
	})

	t.Run("Should allow a new visit once the previous one is rejected", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		v := f.assigned(t, app)
		_, err := f.factory.SubmitVerification(f.agent, v.ID, submitInput()).Execute(t.Context())
		require.NoError(t, err)
		_, err = f.factory.ReviewVerification(f.manager, v.ID, &ReviewInput{
			Decision: DecisionReject,
			Remarks:  "Wrong house visited",
		}).Execute(t.Context())
		require.NoError(t, err)
		_, err = f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
			Type: verification.TypeResidence,
		}).Execute(t.Context())
		assert.NoError(t, err)
	})

	t.Run("Should refuse closed applications and unknown types", func(t *testing.T) {
		f := newFixture(t)
		closed := f.seedApp(loan.StatusRejected)
		_, err := f.factory.CreateVerification(f.manager, closed.ID, &CreateInput{
			Type: verification.TypeResidence,
		}).Execute(t.Context())
		assert.ErrorIs(t, err, loan.ErrNotEditable)

		open := f.seedApp(loan.StatusSubmitted)
		_, err = f.factory.CreateVerification(f.manager, open.ID, &CreateInput{Type: "credit"}).Execute(t.Context())
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Should require the assign capability", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		_, err := f.factory.CreateVerification(f.agent, app.ID, &CreateInput{
			Type: verification.TypeResidence,
		}).Execute(t.Context())
		assert.ErrorIs(t, err, core.ErrForbidden)
	})
}

func TestAssignVerification(t *testing.T) {
	t.Run("Should move a submitted application into verification on first assignment", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		v := f.assigned(t, app)
		assert.Equal(t, verification.StatusAssigned, v.Status)
		require.NotNil(t, v.AssignedTo)
		assert.Equal(t, f.agent.ID, *v.AssignedTo)

		got, err := f.loans.GetApplication(t.Context(), f.org.ID, app.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusInVerification, got.Status)
		logs, err := f.loans.ListStatusLogs(t.Context(), f.org.ID, app.ID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, loan.StatusSubmitted, logs[0].FromStatus)
		assert.Equal(t, loan.StatusInVerification, logs[0].ToStatus)
	})

	t.Run("Should leave applications already under review alone", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusUnderReview)
		f.assigned(t, app)
		got, err := f.loans.GetApplication(t.Context(), f.org.ID, app.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusUnderReview, got.Status)
	})

	t.Run("Should reject agents without the perform capability", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		v, err := f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
			Type: verification.TypeProperty,
		}).Execute(t.Context())
		require.NoError(t, err)
		officer := f.users.SeedUser(f.org.ID, "officer@acme.test", model.RoleCreditOfficer)
		_, err = f.factory.AssignVerification(f.manager, v.ID, officer.ID).Execute(t.Context())
		assert.ErrorIs(t, err, verification.ErrInvalidAgent)
		_, err = f.factory.AssignVerification(f.manager, v.ID, core.MustNewID()).Execute(t.Context())
		assert.ErrorIs(t, err, verification.ErrInvalidAgent)
	})

	t.Run("Should leave the verification pending when the application cannot move", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		f.factory.deps.Mover = failingMover{err: errors.New("db down")}
		v, err := f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
			Type:    verification.TypeResidence,
			Address: "12 MG Road, Pune",
		}).Execute(t.Context())
		require.NoError(t, err)

		_, err = f.factory.AssignVerification(f.manager, v.ID, f.agent.ID).Execute(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		stored, err := f.repo.Get(t.Context(), f.org.ID, v.ID)
		require.NoError(t, err)
		assert.Equal(t, verification.StatusPending, stored.Status)
		assert.Nil(t, stored.AssignedTo)
		got, err := f.loans.GetApplication(t.Context(), f.org.ID, app.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusSubmitted, got.Status)
	})

	t.Run("Should not reassign a submitted verification", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		_, err := f.factory.SubmitVerification(f.agent, v.ID, submitInput()).Execute(t.Context())
		require.NoError(t, err)
		_, err = f.factory.AssignVerification(f.manager, v.ID, f.agent.ID).Execute(t.Context())
		var coreErr *core.Error
		require.ErrorAs(t, err, &coreErr)
		assert.Equal(t, core.CodeInvalidTransition, coreErr.Code)
	})
}

func TestSubmitVerification(t *testing.T) {
	t.Run("Should record normalized details for the assignee", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		got, err := f.factory.SubmitVerification(f.agent, v.ID, submitInput()).Execute(t.Context())
		require.NoError(t, err)
		assert.Equal(t, verification.StatusSubmitted, got.Status)
		assert.Equal(t, "Met the applicant and spouse", got.Remarks)
		require.NotNil(t, got.VisitedAt)
		var details verification.ResidenceDetails
		require.NoError(t, json.Unmarshal(got.Details, &details))
		assert.Equal(t, "owned", details.Ownership)
		assert.Equal(t, 4, details.FamilyMembers)
	})

	t.Run("Should refuse other field agents", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		other := f.users.SeedUser(f.org.ID, "other@acme.test", model.RoleFieldAgent)
		_, err := f.factory.SubmitVerification(other, v.ID, submitInput()).Execute(t.Context())
		assert.ErrorIs(t, err, verification.ErrNotAssignee)
		assert.ErrorIs(t, err, core.ErrForbidden)
	})

	t.Run("Should let a reviewer submit on behalf of the agent", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		_, err := f.factory.SubmitVerification(f.manager, v.ID, submitInput()).Execute(t.Context())
		assert.NoError(t, err)
	})

	t.Run("Should reject details that do not match the type", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		input := submitInput()
		input.Details = json.RawMessage(`{"business_name":"Rao Traders"}`)
		_, err := f.factory.SubmitVerification(f.agent, v.ID, input).Execute(t.Context())
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Should require both coordinates", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		input := submitInput()
		input.Longitude = nil
		_, err := f.factory.SubmitVerification(f.agent, v.ID, input).Execute(t.Context())
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Should refuse pending verifications", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		v, err := f.factory.CreateVerification(f.manager, app.ID, &CreateInput{
			Type: verification.TypeResidence,
		}).Execute(t.Context())
		require.NoError(t, err)
		_, err = f.factory.SubmitVerification(f.manager, v.ID, submitInput()).Execute(t.Context())
		var coreErr *core.Error
		require.ErrorAs(t, err, &coreErr)
		assert.Equal(t, core.CodeInvalidTransition, coreErr.Code)
	})
}

func TestReviewVerification(t *testing.T) {
	t.Run("Should approve a submitted verification", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		_, err := f.factory.SubmitVerification(f.agent, v.ID, submitInput()).Execute(t.Context())
		require.NoError(t, err)
		got, err := f.factory.ReviewVerification(f.manager, v.ID, &ReviewInput{
			Decision: DecisionApprove,
			Remarks:  "Consistent with bank statement",
		}).Execute(t.Context())
		require.NoError(t, err)
		assert.Equal(t, verification.StatusApproved, got.Status)
		require.NotNil(t, got.ReviewedBy)
		assert.Equal(t, f.manager.ID, *got.ReviewedBy)
	})

	t.Run("Should require remarks when rejecting", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		_, err := f.factory.SubmitVerification(f.agent, v.ID, submitInput()).Execute(t.Context())
		require.NoError(t, err)
		_, err = f.factory.ReviewVerification(f.manager, v.ID, &ReviewInput{Decision: DecisionReject}).
			Execute(t.Context())
		assert.ErrorIs(t, err, core.ErrInvalidInput)
	})

	t.Run("Should not let field agents review", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		_, err := f.factory.ReviewVerification(f.agent, v.ID, &ReviewInput{Decision: DecisionApprove}).
			Execute(t.Context())
		assert.ErrorIs(t, err, core.ErrForbidden)
	})
}

func TestGetVerification(t *testing.T) {
	t.Run("Should hide visit details from other agents and viewers", func(t *testing.T) {
		f := newFixture(t)
		app := f.seedApp(loan.StatusSubmitted)
		v := f.assigned(t, app)
		_, err := f.factory.SubmitVerification(f.agent, v.ID, submitInput()).Execute(t.Context())
		require.NoError(t, err)

		own, err := f.factory.GetVerification(f.agent, v.ID).Execute(t.Context())
		require.NoError(t, err)
		assert.NotEmpty(t, own.Details)
		assert.NotNil(t, own.Latitude)

		viewer := f.users.SeedUser(f.org.ID, "viewer@acme.test", model.RoleViewer)
		list, err := f.factory.ListVerifications(viewer, app.ID).Execute(t.Context())
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Empty(t, list[0].Details)
		assert.Nil(t, list[0].Latitude)
		assert.Empty(t, list[0].Remarks)
		assert.False(t, list[0].Visibility.CanReview)
	})

	t.Run("Should not leak verifications across organizations", func(t *testing.T) {
		f := newFixture(t)
		v := f.assigned(t, f.seedApp(loan.StatusSubmitted))
		otherOrg := f.users.SeedOrg("Other Bank")
		outsider := f.users.SeedUser(otherOrg.ID, "manager@other.test", model.RoleManager)
		_, err := f.factory.GetVerification(outsider, v.ID).Execute(t.Context())
		assert.ErrorIs(t, err, verification.ErrNotFound)
	})
}
