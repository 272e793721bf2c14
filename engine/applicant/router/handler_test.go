package router_test

import (
	"net/http"
	"testing"

	"github.com/lendflow/lendflow/engine/applicant"
	approuter "github.com/lendflow/lendflow/engine/applicant/router"
	"github.com/lendflow/lendflow/engine/applicant/testutil"
	"github.com/lendflow/lendflow/engine/applicant/uc"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router/routertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createBody = `{
	"first_name": "asha",
	"last_name": "rao",
	"phone": "+91 98765 43210",
	"date_of_birth": "1990-04-12",
	"pan": "abcde1234f",
	"aadhaar": "123412341234",
	"employment_type": "salaried",
	"monthly_income": "85000",
	"address": {"line1": "12 MG Road", "city": "bengaluru", "pincode": "560001"}
}`

func setup(t *testing.T, role model.Role) (*testutil.InMemoryRepo, http.Handler, *model.User) {
	t.Helper()
	repo := testutil.NewInMemoryRepo()
	user := routertest.NewUser(core.MustNewID(), role)
	engine, api := routertest.NewEngine(t, func() *model.User { return user })
	approuter.RegisterRoutes(api, uc.NewFactory(repo))
	return repo, engine, user
}

func TestApplicantRoutes(t *testing.T) {
	t.Run("Should create and fetch an applicant", func(t *testing.T) {
		_, engine, _ := setup(t, model.RoleCreditOfficer)
		w := routertest.Do(engine, http.MethodPost, "/api/v1/applicants", createBody)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		created := routertest.DecodeData[applicant.Applicant](t, w)
		assert.Equal(t, "ABCDE1234F", created.PAN)
		assert.Equal(t, "1234", created.AadhaarLast4)
		assert.Equal(t, "Bengaluru", created.City)
		assert.NotContains(t, w.Body.String(), "123412341234")

		w = routertest.Do(engine, http.MethodGet, "/api/v1/applicants/"+created.ID.String(), "")
		require.Equal(t, http.StatusOK, w.Code)
		fetched := routertest.DecodeData[applicant.Applicant](t, w)
		assert.Equal(t, "Asha", fetched.FirstName)
	})

	t.Run("Should reject duplicate PANs with 409", func(t *testing.T) {
		_, engine, _ := setup(t, model.RoleManager)
		require.Equal(t, http.StatusCreated, routertest.Do(engine, http.MethodPost, "/api/v1/applicants", createBody).Code)
		w := routertest.Do(engine, http.MethodPost, "/api/v1/applicants", createBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Should reject invalid input with 400", func(t *testing.T) {
		_, engine, _ := setup(t, model.RoleManager)
		w := routertest.Do(engine, http.MethodPost, "/api/v1/applicants", `{"first_name":"a","pan":"bad"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, core.CodeInvalidInput, routertest.ProblemCode(t, w))
	})

	t.Run("Should forbid viewers from writing", func(t *testing.T) {
		_, engine, _ := setup(t, model.RoleViewer)
		w := routertest.Do(engine, http.MethodPost, "/api/v1/applicants", createBody)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Should search by name and patch partially", func(t *testing.T) {
		_, engine, _ := setup(t, model.RoleCreditOfficer)
		w := routertest.Do(engine, http.MethodPost, "/api/v1/applicants", createBody)
		require.Equal(t, http.StatusCreated, w.Code)
		created := routertest.DecodeData[applicant.Applicant](t, w)

		w = routertest.Do(engine, http.MethodGet, "/api/v1/applicants?q=ash", "")
		require.Equal(t, http.StatusOK, w.Code)
		list := routertest.DecodeData[struct {
			Items []applicant.Applicant `json:"items"`
		}](t, w)
		require.Len(t, list.Items, 1)

		w = routertest.Do(engine, http.MethodPatch, "/api/v1/applicants/"+created.ID.String(), `{"employer_name":"Acme Ltd"}`)
		require.Equal(t, http.StatusOK, w.Code)
		updated := routertest.DecodeData[applicant.Applicant](t, w)
		assert.Equal(t, "Acme Ltd", updated.EmployerName)
		assert.Equal(t, created.PAN, updated.PAN)
	})

	t.Run("Should block deleting applicants with applications", func(t *testing.T) {
		repo, engine, _ := setup(t, model.RoleManager)
		w := routertest.Do(engine, http.MethodPost, "/api/v1/applicants", createBody)
		require.Equal(t, http.StatusCreated, w.Code)
		created := routertest.DecodeData[applicant.Applicant](t, w)
		repo.SetApplicationCount(created.ID, 1)

		w = routertest.Do(engine, http.MethodDelete, "/api/v1/applicants/"+created.ID.String(), "")
		assert.Equal(t, http.StatusConflict, w.Code)

		repo.SetApplicationCount(created.ID, 0)
		w = routertest.Do(engine, http.MethodDelete, "/api/v1/applicants/"+created.ID.String(), "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
