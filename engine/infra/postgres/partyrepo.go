package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/party"
)

var partyColumns = []string{
	"id", "org_id", "application_id", "kind", "first_name", "last_name", "relationship", "email",
	"phone", "pan", "monthly_income", "address_line1", "address_line2", "city", "state", "pincode",
	"created_at", "updated_at",
}

// PartyRepo implements party.Repository.
type PartyRepo struct {
	db   DB
	inTx bool
}

func NewPartyRepo(db DB) *PartyRepo {
	return &PartyRepo{db: db}
}

func (r *PartyRepo) WithTransaction(ctx context.Context, fn func(party.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	return WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&PartyRepo{db: tx, inTx: true})
	})
}

func (r *PartyRepo) Create(ctx context.Context, p *party.Party) error {
	_, err := exec(ctx, r.db, psql.Insert("loan_parties").
		Columns(partyColumns...).
		Values(
			p.ID, p.OrgID, p.ApplicationID, p.Kind, p.FirstName, p.LastName, p.Relationship, p.Email,
			p.Phone, p.PAN, p.MonthlyIncome, p.Line1, p.Line2, p.City, p.State, p.Pincode,
			p.CreatedAt, p.UpdatedAt,
		))
	if err != nil {
		if IsUniqueViolation(err) {
			return party.ErrDuplicatePAN
		}
		return fmt.Errorf("inserting party: %w", err)
	}
	return nil
}

func (r *PartyRepo) Get(ctx context.Context, orgID, id core.ID) (*party.Party, error) {
	query, args, err := psql.Select(partyColumns...).
		From("loan_parties").
		Where(squirrel.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var p party.Party
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, party.ErrNotFound
		}
		return nil, fmt.Errorf("scanning party: %w", err)
	}
	return &p, nil
}

func (r *PartyRepo) List(ctx context.Context, orgID, appID core.ID, kind party.Kind) ([]*party.Party, error) {
	where := squirrel.Eq{"org_id": orgID, "application_id": appID}
	if kind != "" {
		where["kind"] = kind
	}
	items := make([]*party.Party, 0)
	if err := selectAll(ctx, r.db, &items, psql.Select(partyColumns...).
		From("loan_parties").
		Where(where).
		OrderBy("id")); err != nil {
		return nil, fmt.Errorf("listing parties: %w", err)
	}
	return items, nil
}

func (r *PartyRepo) Update(ctx context.Context, p *party.Party) error {
	tag, err := exec(ctx, r.db, psql.Update("loan_parties").
		SetMap(map[string]any{
			"first_name":     p.FirstName,
			"last_name":      p.LastName,
			"relationship":   p.Relationship,
			"email":          p.Email,
			"phone":          p.Phone,
			"pan":            p.PAN,
			"monthly_income": p.MonthlyIncome,
			"address_line1":  p.Line1,
			"address_line2":  p.Line2,
			"city":           p.City,
			"state":          p.State,
			"pincode":        p.Pincode,
			"updated_at":     p.UpdatedAt,
		}).
		Where(squirrel.Eq{"org_id": p.OrgID, "id": p.ID}))
	if err != nil {
		if IsUniqueViolation(err) {
			return party.ErrDuplicatePAN
		}
		return fmt.Errorf("updating party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return party.ErrNotFound
	}
	return nil
}

func (r *PartyRepo) Delete(ctx context.Context, orgID, id core.ID) error {
	tag, err := exec(ctx, r.db, psql.Delete("loan_parties").Where(squirrel.Eq{"org_id": orgID, "id": id}))
	if err != nil {
		return fmt.Errorf("deleting party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return party.ErrNotFound
	}
	return nil
}

func (r *PartyRepo) applicationRef(ctx context.Context, orgID, appID core.ID, lock bool) (*party.ApplicationRef, error) {
	sb := psql.Select("id", "applicant_id", "status").
		From("loan_applications").
		Where(squirrel.Eq{"org_id": orgID, "id": appID})
	if lock {
		sb = sb.Suffix("FOR UPDATE")
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var ref party.ApplicationRef
	if err := pgxscan.Get(ctx, r.db, &ref, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, loan.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("scanning application: %w", err)
	}
	return &ref, nil
}

func (r *PartyRepo) GetApplication(ctx context.Context, orgID, appID core.ID) (*party.ApplicationRef, error) {
	return r.applicationRef(ctx, orgID, appID, false)
}

func (r *PartyRepo) LockApplication(ctx context.Context, orgID, appID core.ID) (*party.ApplicationRef, error) {
	if !r.inTx {
		return nil, errLockOutsideTx
	}
	return r.applicationRef(ctx, orgID, appID, true)
}
