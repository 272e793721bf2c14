package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/verification"
)

var verificationColumns = []string{
	"id", "org_id", "application_id", "type", "status", "assigned_to", "address", "details",
	"result", "remarks", "latitude", "longitude", "visited_at", "reviewed_by", "review_remarks",
	"created_at", "updated_at",
}

// VerificationRepo implements verification.Repository. Details are stored as JSONB.
type VerificationRepo struct {
	db DB
}

func NewVerificationRepo(db DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

func (r *VerificationRepo) Create(ctx context.Context, v *verification.Verification) error {
	_, err := exec(ctx, r.db, psql.Insert("verifications").
		Columns(verificationColumns...).
		Values(
			v.ID, v.OrgID, v.ApplicationID, v.Type, v.Status, v.AssignedTo, v.Address, v.Details,
			v.Result, v.Remarks, v.Latitude, v.Longitude, v.VisitedAt, v.ReviewedBy, v.ReviewRemarks,
			v.CreatedAt, v.UpdatedAt,
		))
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err):
		return verification.ErrActiveExists
	case IsForeignKeyViolation(err):
		return core.Invalid("application_id", "unknown application")
	default:
		return fmt.Errorf("inserting verification: %w", err)
	}
}

func (r *VerificationRepo) Get(ctx context.Context, orgID, id core.ID) (*verification.Verification, error) {
	return r.getOne(ctx, squirrel.Eq{"org_id": orgID, "id": id})
}

func (r *VerificationRepo) FindActive(
	ctx context.Context,
	orgID, appID core.ID,
	t verification.Type,
) (*verification.Verification, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Eq{"org_id": orgID, "application_id": appID, "type": t},
		squirrel.NotEq{"status": verification.StatusRejected},
	})
}

func (r *VerificationRepo) getOne(ctx context.Context, where squirrel.Sqlizer) (*verification.Verification, error) {
	query, args, err := psql.Select(verificationColumns...).
		From("verifications").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var v verification.Verification
	if err := pgxscan.Get(ctx, r.db, &v, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, verification.ErrNotFound
		}
		return nil, fmt.Errorf("scanning verification: %w", err)
	}
	return &v, nil
}

func (r *VerificationRepo) ListByApplication(
	ctx context.Context,
	orgID, appID core.ID,
) ([]*verification.Verification, error) {
	items := make([]*verification.Verification, 0)
	if err := selectAll(ctx, r.db, &items, psql.Select(verificationColumns...).
		From("verifications").
		Where(squirrel.Eq{"org_id": orgID, "application_id": appID}).
		OrderBy("created_at", "id")); err != nil {
		return nil, fmt.Errorf("listing verifications: %w", err)
	}
	return items, nil
}

func (r *VerificationRepo) Update(ctx context.Context, v *verification.Verification) error {
	tag, err := exec(ctx, r.db, psql.Update("verifications").
		SetMap(map[string]any{
			"status":         v.Status,
			"assigned_to":    v.AssignedTo,
			"address":        v.Address,
			"details":        v.Details,
			"result":         v.Result,
			"remarks":        v.Remarks,
			"latitude":       v.Latitude,
			"longitude":      v.Longitude,
			"visited_at":     v.VisitedAt,
			"reviewed_by":    v.ReviewedBy,
			"review_remarks": v.ReviewRemarks,
			"updated_at":     v.UpdatedAt,
		}).
		Where(squirrel.Eq{"org_id": v.OrgID, "id": v.ID}))
	switch {
	case err == nil:
	case IsForeignKeyViolation(err):
		return verification.ErrInvalidAgent
	default:
		return fmt.Errorf("updating verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return verification.ErrNotFound
	}
	return nil
}
