package loan

import (
	"regexp"
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransition(t *testing.T) {
	t.Run("Should allow every edge in the table", func(t *testing.T) {
		for from, next := range transitions {
			for _, to := range next {
				assert.NoError(t, ValidateTransition(from, to), "%s -> %s", from, to)
			}
		}
	})

	t.Run("Should reject edges outside the table", func(t *testing.T) {
		cases := [][2]Status{
			{StatusDraft, StatusApproved},
			{StatusSubmitted, StatusApproved},
			{StatusRejected, StatusUnderReview},
			{StatusDisbursed, StatusCancelled},
			{StatusCancelled, StatusDraft},
		}
		for _, tc := range cases {
			err := ValidateTransition(tc[0], tc[1])
			require.Error(t, err)
			var coreErr *core.Error
			require.ErrorAs(t, err, &coreErr)
			assert.Equal(t, core.CodeInvalidTransition, coreErr.Code)
			assert.ErrorIs(t, err, core.ErrConflict)
		}
	})

	t.Run("Should treat a same status move as invalid", func(t *testing.T) {
		err := ValidateTransition(StatusOnHold, StatusOnHold)
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("Should reject unknown statuses as input errors", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTransition(StatusDraft, "archived"), core.ErrInvalidInput)
	})
}

func TestComputeEMI(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		months    int
		want      string
	}{
		{"100000", "12", 12, "8884.88"},
		{"500000", "10.5", 60, "10746.95"},
		{"250000", "9.75", 36, "8037.49"},
		{"120000", "0", 12, "10000.00"},
	}
	for _, tc := range cases {
		got := ComputeEMI(decimal.RequireFromString(tc.principal), decimal.RequireFromString(tc.rate), tc.months)
		assert.Equal(t, tc.want, got.StringFixed(2), "%s at %s%% for %d", tc.principal, tc.rate, tc.months)
	}
	assert.True(t, ComputeEMI(decimal.NewFromInt(1000), decimal.NewFromInt(10), 0).IsZero())
}

func TestNewNumber(t *testing.T) {
	number, err := NewNumber(time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^LN-202510-[A-Z2-9]{6}$`), number)
}

func TestConfirmationVisibility(t *testing.T) {
	amount := decimal.NewFromInt(100000)
	conf := &Confirmation{ApprovedAmount: &amount, InterestRate: &amount, ProcessingFee: &amount, EMI: &amount}

	t.Run("Should hide financials from field agents", func(t *testing.T) {
		user := &model.User{Role: model.RoleFieldAgent, Status: model.UserActive}
		vis := DefineLoanConfirmationFieldVisibility(user)
		assert.Equal(t, ConfirmationVisibility{}, vis)
		redacted := vis.Redact(conf)
		assert.Nil(t, redacted.ApprovedAmount)
		assert.Nil(t, redacted.EMI)
		assert.NotNil(t, conf.ApprovedAmount)
	})

	t.Run("Should show financials without decision rights to credit officers", func(t *testing.T) {
		user := &model.User{Role: model.RoleCreditOfficer, Status: model.UserActive}
		vis := DefineLoanConfirmationFieldVisibility(user)
		assert.True(t, vis.ShowEMI)
		assert.False(t, vis.CanDecide)
		assert.False(t, vis.CanEditConfirmation)
	})

	t.Run("Should grant everything to managers", func(t *testing.T) {
		user := &model.User{Role: model.RoleManager, Status: model.UserActive}
		vis := DefineLoanConfirmationFieldVisibility(user)
		assert.True(t, vis.CanDecide)
		assert.True(t, vis.ShowProcessingFee)
	})
}
