package router_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	authtest "github.com/lendflow/lendflow/engine/auth/testutil"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router/routertest"
	"github.com/lendflow/lendflow/engine/loan"
	loantest "github.com/lendflow/lendflow/engine/loan/testutil"
	loanuc "github.com/lendflow/lendflow/engine/loan/uc"
	"github.com/lendflow/lendflow/engine/verification"
	vrouter "github.com/lendflow/lendflow/engine/verification/router"
	"github.com/lendflow/lendflow/engine/verification/testutil"
	"github.com/lendflow/lendflow/engine/verification/uc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationRoutes(t *testing.T) {
	users := authtest.NewInMemoryRepo()
	org := users.SeedOrg("Acme Finance")
	manager := users.SeedUser(org.ID, "manager@acme.test", model.RoleManager)
	agent := users.SeedUser(org.ID, "agent@acme.test", model.RoleFieldAgent)
	loans := loantest.NewInMemoryRepo()
	now := time.Now().UTC()
	app := loans.Seed(&loan.Application{
		ID:              core.MustNewID(),
		OrgID:           org.ID,
		ApplicantID:     core.MustNewID(),
		Number:          "LN-202610-ROUTES",
		Product:         loan.ProductVehicle,
		RequestedAmount: decimal.RequireFromString("800000"),
		TenureMonths:    60,
		InterestRate:    decimal.RequireFromString("9.25"),
		Status:          loan.StatusSubmitted,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	factory := uc.NewFactory(uc.Deps{
		Repo:         testutil.NewInMemoryRepo(),
		Applications: loans,
		Users:        users,
		Mover:        loanuc.NewFactory(loanuc.Deps{Repo: loans}),
	})
	current := manager
	engine, api := routertest.NewEngine(t, func() *model.User { return current })
	vrouter.RegisterRoutes(api, factory)
	base := "/api/v1/applications/" + app.ID.String() + "/verifications"
	as := func(u *model.User) { current = u }

	t.Run("Should run a vehicle verification end to end", func(t *testing.T) {
		as(manager)
		w := routertest.Do(engine, http.MethodPost, base, `{"type":"vehicle","address":"Showroom, FC Road"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := routertest.DecodeData[verification.Verification](t, w)
		item := "/api/v1/verifications/" + created.ID.String()

		w = routertest.Do(engine, http.MethodPost, item+"/assign", fmt.Sprintf(`{"agent_id":%q}`, agent.ID))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got, err := loans.GetApplication(t.Context(), org.ID, app.ID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusInVerification, got.Status)

		as(agent)
		w = routertest.Do(engine, http.MethodPost, item+"/submit", `{
			"details": {
				"registration_no": "MH12AB1234",
				"make": "Maruti",
				"model": "Swift",
				"year": 2022,
				"condition": "good",
				"insurance_valid_till": "2027-03-31"
			},
			"result": "positive",
			"latitude": 18.53,
			"longitude": 73.84
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = routertest.Do(engine, http.MethodPost, item+"/review", `{"decision":"approve"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)

		as(manager)
		w = routertest.Do(engine, http.MethodPost, item+"/review", `{"decision":"approve","remarks":"RC matches"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		reviewed := routertest.DecodeData[verification.Verification](t, w)
		assert.Equal(t, verification.StatusApproved, reviewed.Status)

		w = routertest.Do(engine, http.MethodGet, item, "")
		require.Equal(t, http.StatusOK, w.Code)
		view := routertest.DecodeData[uc.View](t, w)
		assert.True(t, view.Visibility.ShowReviewRemarks)
		assert.Equal(t, "RC matches", view.ReviewRemarks)
	})

	t.Run("Should answer 409 for a second active verification of a type", func(t *testing.T) {
		as(manager)
		w := routertest.Do(engine, http.MethodPost, base, `{"type":"residence"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		w = routertest.Do(engine, http.MethodPost, base, `{"type":"residence"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, core.CodeConflict, routertest.ProblemCode(t, w))
	})

	t.Run("Should redact visits for other field agents", func(t *testing.T) {
		other := users.SeedUser(org.ID, "other@acme.test", model.RoleFieldAgent)
		as(other)
		w := routertest.Do(engine, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, w.Code)
		items := routertest.DecodeData[[]uc.View](t, w)
		require.NotEmpty(t, items)
		for _, item := range items {
			assert.Empty(t, item.Details)
			assert.Nil(t, item.Latitude)
		}
	})
}
