package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/core"
)

var applicantColumns = []string{
	"id", "org_id", "first_name", "last_name", "email", "phone", "date_of_birth", "pan",
	"aadhaar_last4", "gender", "marital_status", "address_line1", "address_line2", "city",
	"state", "pincode", "employment_type", "employer_name", "monthly_income", "created_by",
	"created_at", "updated_at",
}

// ApplicantRepo implements applicant.Repository.
type ApplicantRepo struct {
	db DB
}

func NewApplicantRepo(db DB) *ApplicantRepo {
	return &ApplicantRepo{db: db}
}

func (r *ApplicantRepo) Create(ctx context.Context, a *applicant.Applicant) error {
	_, err := exec(ctx, r.db, psql.Insert("applicants").
		Columns(applicantColumns...).
		Values(
			a.ID, a.OrgID, a.FirstName, a.LastName, a.Email, a.Phone, a.DateOfBirth, a.PAN,
			a.AadhaarLast4, a.Gender, a.MaritalStatus, a.Line1, a.Line2, a.City,
			a.State, a.Pincode, a.EmploymentType, a.EmployerName, a.MonthlyIncome, a.CreatedBy,
			a.CreatedAt, a.UpdatedAt,
		))
	if err != nil {
		if IsUniqueViolation(err) {
			return applicant.ErrPANExists
		}
		return fmt.Errorf("inserting applicant: %w", err)
	}
	return nil
}

func (r *ApplicantRepo) Get(ctx context.Context, orgID, id core.ID) (*applicant.Applicant, error) {
	query, args, err := psql.Select(applicantColumns...).
		From("applicants").
		Where(squirrel.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var a applicant.Applicant
	if err := pgxscan.Get(ctx, r.db, &a, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, applicant.ErrNotFound
		}
		return nil, fmt.Errorf("scanning applicant: %w", err)
	}
	return &a, nil
}

// List pages by id. A search term matches a name prefix, an exact PAN or an
// exact phone number.
func (r *ApplicantRepo) List(
	ctx context.Context,
	orgID core.ID,
	filter applicant.Filter,
	page core.Page,
) ([]*applicant.Applicant, error) {
	sb := psql.Select(applicantColumns...).
		From("applicants").
		Where(squirrel.Eq{"org_id": orgID}).
		OrderBy("id").
		Limit(uint64(page.Limit))
	if !page.After.IsZero() {
		sb = sb.Where(squirrel.Gt{"id": page.After})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		prefix := escapeLike(strings.ToLower(term)) + "%"
		conds := squirrel.Or{
			squirrel.Expr("lower(first_name) LIKE ?", prefix),
			squirrel.Expr("lower(last_name) LIKE ?", prefix),
			squirrel.Eq{"pan": core.NormalizePAN(term)},
		}
		if phone, ok := core.NormalizePhone(term); ok {
			conds = append(conds, squirrel.Eq{"phone": phone})
		}
		sb = sb.Where(conds)
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}
	var items []*applicant.Applicant
	if err := pgxscan.Select(ctx, r.db, &items, query, args...); err != nil {
		return nil, fmt.Errorf("scanning applicants: %w", err)
	}
	return items, nil
}

func (r *ApplicantRepo) Update(ctx context.Context, a *applicant.Applicant) error {
	tag, err := exec(ctx, r.db, psql.Update("applicants").
		SetMap(map[string]any{
			"first_name":      a.FirstName,
			"last_name":       a.LastName,
			"email":           a.Email,
			"phone":           a.Phone,
			"date_of_birth":   a.DateOfBirth,
			"pan":             a.PAN,
			"aadhaar_last4":   a.AadhaarLast4,
			"gender":          a.Gender,
			"marital_status":  a.MaritalStatus,
			"address_line1":   a.Line1,
			"address_line2":   a.Line2,
			"city":            a.City,
			"state":           a.State,
			"pincode":         a.Pincode,
			"employment_type": a.EmploymentType,
			"employer_name":   a.EmployerName,
			"monthly_income":  a.MonthlyIncome,
			"updated_at":      a.UpdatedAt,
		}).
		Where(squirrel.Eq{"org_id": a.OrgID, "id": a.ID}))
	if err != nil {
		if IsUniqueViolation(err) {
			return applicant.ErrPANExists
		}
		return fmt.Errorf("updating applicant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return applicant.ErrNotFound
	}
	return nil
}

func (r *ApplicantRepo) Delete(ctx context.Context, orgID, id core.ID) error {
	tag, err := exec(ctx, r.db, psql.Delete("applicants").Where(squirrel.Eq{"org_id": orgID, "id": id}))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return applicant.ErrHasApplications
		}
		return fmt.Errorf("deleting applicant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return applicant.ErrNotFound
	}
	return nil
}

func (r *ApplicantRepo) CountApplications(ctx context.Context, orgID, id core.ID) (int, error) {
	return count(ctx, r.db, psql.Select("count(*)").
		From("loan_applications").
		Where(squirrel.Eq{"org_id": orgID, "applicant_id": id}))
}

func count(ctx context.Context, db DB, b squirrel.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
