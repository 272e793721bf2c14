package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscriptionRow(mockPool pgxmock.PgxPoolIface, orgID core.ID, status billing.Status) *pgxmock.Rows {
	now := time.Now().UTC()
	return mockPool.NewRows(subscriptionColumns).AddRow(
		core.MustNewID(), orgID, billing.PlanStarter, status, now.AddDate(0, 0, -14), now, now, now,
	)
}

func TestBillingRepo_Subscription(t *testing.T) {
	t.Run("Should map a missing subscription to not found", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewBillingRepo(mockPool)
		orgID := core.MustNewID()
		mockPool.ExpectQuery("SELECT (.+) FROM subscriptions WHERE org_id = \\$1").
			WithArgs(orgID).
			WillReturnRows(mockPool.NewRows(subscriptionColumns))

		_, err := repo.GetSubscription(context.Background(), orgID)
		assert.ErrorIs(t, err, billing.ErrSubscriptionNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should refuse to lock outside a transaction", func(t *testing.T) {
		repo := NewBillingRepo(newMockPool(t))
		_, err := repo.GetSubscriptionForUpdate(context.Background(), core.MustNewID())
		assert.ErrorIs(t, err, errSubscriptionLockOutsideTx)
	})

	t.Run("Should lock the row and update it in one transaction", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewBillingRepo(mockPool)
		orgID := core.MustNewID()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery("SELECT (.+) FROM subscriptions WHERE org_id = \\$1 FOR UPDATE").
			WithArgs(orgID).
			WillReturnRows(subscriptionRow(mockPool, orgID, billing.StatusTrialing))
		mockPool.ExpectExec("UPDATE subscriptions SET").WithAnyArgs().
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectCommit()

		err := repo.WithTransaction(context.Background(), func(tx billing.Repository) error {
			sub, err := tx.GetSubscriptionForUpdate(context.Background(), orgID)
			if err != nil {
				return err
			}
			sub.Status = billing.StatusCancelled
			return tx.UpdateSubscription(context.Background(), sub)
		})
		require.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should list subscriptions due a sweep oldest first", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewBillingRepo(mockPool)
		now := time.Now().UTC()
		grace := 72 * time.Hour
		mockPool.ExpectQuery("SELECT (.+) FROM subscriptions WHERE (.+) ORDER BY current_period_end, id LIMIT 50").
			WithArgs(billing.StatusTrialing, billing.StatusActive, now, billing.StatusPastDue, now.Add(-grace)).
			WillReturnRows(subscriptionRow(mockPool, core.MustNewID(), billing.StatusActive))

		subs, err := repo.ListLapsed(context.Background(), now, grace, 50)
		require.NoError(t, err)
		assert.Len(t, subs, 1)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestBillingRepo_Payment(t *testing.T) {
	t.Run("Should read a payment by gateway order", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewBillingRepo(mockPool)
		now := time.Now().UTC()
		receipt := uuid.New()
		mockPool.ExpectQuery("SELECT (.+) FROM payments WHERE gateway_order_id = \\$1").
			WithArgs("order_1").
			WillReturnRows(mockPool.NewRows(paymentColumns).AddRow(
				core.MustNewID(), core.MustNewID(), core.MustNewID(), billing.PlanGrowth, "order_1", "",
				"9999.00", "INR", receipt, billing.PaymentCreated, now, now,
			))

		p, err := repo.GetPaymentByOrder(context.Background(), "order_1")
		require.NoError(t, err)
		assert.Equal(t, "9999", p.Amount.String())
		assert.Equal(t, receipt, p.Receipt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should report a duplicate order as a conflict", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewBillingRepo(mockPool)
		mockPool.ExpectExec("INSERT INTO payments").WithAnyArgs().
			WillReturnError(&pgconn.PgError{Code: uniqueViolation})

		err := repo.CreatePayment(context.Background(), &billing.Payment{ID: core.MustNewID(), GatewayOrderID: "order_1"})
		assert.ErrorIs(t, err, core.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should report a missing payment on update", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewBillingRepo(mockPool)
		mockPool.ExpectExec("UPDATE payments SET").WithAnyArgs().
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePayment(context.Background(), &billing.Payment{ID: core.MustNewID()})
		assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
	})
}
