package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
)

var (
	applicationColumns = []string{
		"id", "org_id", "applicant_id", "number", "product", "requested_amount", "tenure_months",
		"interest_rate", "purpose", "status", "assigned_to", "created_by", "created_at", "updated_at",
	}
	statusLogColumns = []string{
		"id", "org_id", "application_id", "from_status", "to_status", "remarks", "changed_by", "created_at",
	}
	reviewColumns = []string{
		"id", "org_id", "application_id", "reviewer_id", "decision", "remarks", "created_at",
	}
	confirmationColumns = []string{
		"application_id", "org_id", "approved_amount", "tenure_months", "interest_rate", "processing_fee",
		"emi", "decision", "remarks", "confirmed_by", "confirmed_at",
	}
)

var errLockOutsideTx = errors.New("GetApplicationForUpdate requires transactional context")

// LoanRepo implements loan.Repository. Inside WithTransaction db is the
// pgx.Tx and inTx is set.
type LoanRepo struct {
	db   DB
	inTx bool
}

func NewLoanRepo(db DB) *LoanRepo {
	return &LoanRepo{db: db}
}

// WithTransaction provides a tx-scoped repository to the callback. Nested
// calls reuse the open transaction.
func (r *LoanRepo) WithTransaction(ctx context.Context, fn func(loan.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&LoanRepo{db: tx, inTx: true})
	})
}

func (r *LoanRepo) CreateApplication(ctx context.Context, app *loan.Application) error {
	_, err := exec(ctx, r.db, psql.Insert("loan_applications").
		Columns(applicationColumns...).
		Values(
			app.ID, app.OrgID, app.ApplicantID, app.Number, app.Product, app.RequestedAmount, app.TenureMonths,
			app.InterestRate, app.Purpose, app.Status, app.AssignedTo, app.CreatedBy, app.CreatedAt, app.UpdatedAt,
		))
	if err != nil {
		if IsUniqueViolation(err) {
			return loan.ErrNumberExists
		}
		if IsForeignKeyViolation(err) {
			return core.Invalid("applicant_id", "applicant does not exist")
		}
		return fmt.Errorf("inserting application: %w", err)
	}
	return nil
}

func (r *LoanRepo) getApplication(ctx context.Context, orgID, id core.ID, lock bool) (*loan.Application, error) {
	sb := psql.Select(applicationColumns...).
		From("loan_applications").
		Where(squirrel.Eq{"org_id": orgID, "id": id})
	if lock {
		sb = sb.Suffix("FOR UPDATE")
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var app loan.Application
	if err := pgxscan.Get(ctx, r.db, &app, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, loan.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("scanning application: %w", err)
	}
	return &app, nil
}

func (r *LoanRepo) GetApplication(ctx context.Context, orgID, id core.ID) (*loan.Application, error) {
	return r.getApplication(ctx, orgID, id, false)
}

func (r *LoanRepo) GetApplicationForUpdate(ctx context.Context, orgID, id core.ID) (*loan.Application, error) {
	if !r.inTx {
		return nil, errLockOutsideTx
	}
	return r.getApplication(ctx, orgID, id, true)
}

func (r *LoanRepo) ListApplications(
	ctx context.Context,
	orgID core.ID,
	filter loan.Filter,
	page core.Page,
) ([]*loan.Application, error) {
	where := squirrel.Eq{"org_id": orgID}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if !filter.ApplicantID.IsZero() {
		where["applicant_id"] = filter.ApplicantID
	}
	if !filter.AssignedTo.IsZero() {
		where["assigned_to"] = filter.AssignedTo
	}
	sb := psql.Select(applicationColumns...).
		From("loan_applications").
		Where(where).
		OrderBy("id").
		Limit(uint64(page.Limit))
	if !page.After.IsZero() {
		sb = sb.Where(squirrel.Gt{"id": page.After})
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}
	var items []*loan.Application
	if err := pgxscan.Select(ctx, r.db, &items, query, args...); err != nil {
		return nil, fmt.Errorf("scanning applications: %w", err)
	}
	return items, nil
}

func (r *LoanRepo) UpdateApplication(ctx context.Context, app *loan.Application) error {
	tag, err := exec(ctx, r.db, psql.Update("loan_applications").
		SetMap(map[string]any{
			"product":          app.Product,
			"requested_amount": app.RequestedAmount,
			"tenure_months":    app.TenureMonths,
			"interest_rate":    app.InterestRate,
			"purpose":          app.Purpose,
			"status":           app.Status,
			"assigned_to":      app.AssignedTo,
			"updated_at":       app.UpdatedAt,
		}).
		Where(squirrel.Eq{"org_id": app.OrgID, "id": app.ID}))
	if err != nil {
		return fmt.Errorf("updating application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return loan.ErrApplicationNotFound
	}
	return nil
}

func (r *LoanRepo) CountApplicationsSince(ctx context.Context, orgID core.ID, since time.Time) (int, error) {
	return count(ctx, r.db, psql.Select("count(*)").
		From("loan_applications").
		Where(squirrel.Eq{"org_id": orgID}).
		Where(squirrel.GtOrEq{"created_at": since}))
}

func (r *LoanRepo) AppendStatusLog(ctx context.Context, log *loan.StatusLog) error {
	_, err := exec(ctx, r.db, psql.Insert("loan_status_logs").
		Columns(statusLogColumns...).
		Values(
			log.ID, log.OrgID, log.ApplicationID, log.FromStatus, log.ToStatus,
			log.Remarks, log.ChangedBy, log.CreatedAt,
		))
	if err != nil {
		return fmt.Errorf("inserting status log: %w", err)
	}
	return nil
}

func (r *LoanRepo) ListStatusLogs(ctx context.Context, orgID, appID core.ID) ([]*loan.StatusLog, error) {
	var logs []*loan.StatusLog
	if err := selectAll(ctx, r.db, &logs, psql.Select(statusLogColumns...).
		From("loan_status_logs").
		Where(squirrel.Eq{"org_id": orgID, "application_id": appID}).
		OrderBy("id")); err != nil {
		return nil, fmt.Errorf("listing status logs: %w", err)
	}
	return logs, nil
}

func (r *LoanRepo) CreateReview(ctx context.Context, review *loan.Review) error {
	_, err := exec(ctx, r.db, psql.Insert("loan_reviews").
		Columns(reviewColumns...).
		Values(
			review.ID, review.OrgID, review.ApplicationID, review.ReviewerID,
			review.Decision, review.Remarks, review.CreatedAt,
		))
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

func (r *LoanRepo) ListReviews(ctx context.Context, orgID, appID core.ID) ([]*loan.Review, error) {
	var reviews []*loan.Review
	if err := selectAll(ctx, r.db, &reviews, psql.Select(reviewColumns...).
		From("loan_reviews").
		Where(squirrel.Eq{"org_id": orgID, "application_id": appID}).
		OrderBy("id")); err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}

func (r *LoanRepo) UpsertConfirmation(ctx context.Context, conf *loan.Confirmation) error {
	_, err := exec(ctx, r.db, psql.Insert("loan_confirmations").
		Columns(confirmationColumns...).
		Values(
			conf.ApplicationID, conf.OrgID, conf.ApprovedAmount, conf.TenureMonths, conf.InterestRate,
			conf.ProcessingFee, conf.EMI, conf.Decision, conf.Remarks, conf.ConfirmedBy, conf.ConfirmedAt,
		).
		Suffix(`ON CONFLICT (application_id) DO UPDATE SET
			approved_amount = EXCLUDED.approved_amount,
			tenure_months = EXCLUDED.tenure_months,
			interest_rate = EXCLUDED.interest_rate,
			processing_fee = EXCLUDED.processing_fee,
			emi = EXCLUDED.emi,
			decision = EXCLUDED.decision,
			remarks = EXCLUDED.remarks,
			confirmed_by = EXCLUDED.confirmed_by,
			confirmed_at = EXCLUDED.confirmed_at`))
	if err != nil {
		return fmt.Errorf("upserting confirmation: %w", err)
	}
	return nil
}

func (r *LoanRepo) GetConfirmation(ctx context.Context, orgID, appID core.ID) (*loan.Confirmation, error) {
	query, args, err := psql.Select(confirmationColumns...).
		From("loan_confirmations").
		Where(squirrel.Eq{"org_id": orgID, "application_id": appID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var conf loan.Confirmation
	if err := pgxscan.Get(ctx, r.db, &conf, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, loan.ErrConfirmationNotFound
		}
		return nil, fmt.Errorf("scanning confirmation: %w", err)
	}
	return &conf, nil
}

func selectAll(ctx context.Context, db DB, dst any, b squirrel.SelectBuilder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building select query: %w", err)
	}
	return pgxscan.Select(ctx, db, dst, query, args...)
}
