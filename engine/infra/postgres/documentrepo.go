package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
)

var documentColumns = []string{
	"id", "org_id", "application_id", "party_id", "type", "file_name", "object_key", "content_type",
	"size_bytes", "status", "uploaded_by", "created_at", "uploaded_at",
}

// DocumentRepo implements document.Repository.
type DocumentRepo struct {
	db DB
}

func NewDocumentRepo(db DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *document.Document) error {
	_, err := exec(ctx, r.db, psql.Insert("documents").
		Columns(documentColumns...).
		Values(
			doc.ID, doc.OrgID, doc.ApplicationID, doc.PartyID, doc.Type, doc.FileName, doc.ObjectKey,
			doc.ContentType, doc.SizeBytes, doc.Status, doc.UploadedBy, doc.CreatedAt, doc.UploadedAt,
		))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return core.Invalid("party_id", "party or application does not exist")
		}
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) Get(ctx context.Context, orgID, id core.ID) (*document.Document, error) {
	query, args, err := psql.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"org_id": orgID, "id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	var doc document.Document
	if err := pgxscan.Get(ctx, r.db, &doc, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, document.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepo) ListByApplication(ctx context.Context, orgID, appID core.ID) ([]*document.Document, error) {
	items := make([]*document.Document, 0)
	if err := selectAll(ctx, r.db, &items, psql.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"org_id": orgID, "application_id": appID}).
		OrderBy("id")); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return items, nil
}

// MarkUploaded only moves pending rows, so a concurrent confirm loses cleanly.
func (r *DocumentRepo) MarkUploaded(ctx context.Context, doc *document.Document) error {
	tag, err := exec(ctx, r.db, psql.Update("documents").
		Set("status", document.StatusUploaded).
		Set("size_bytes", doc.SizeBytes).
		Set("content_type", doc.ContentType).
		Set("uploaded_at", doc.UploadedAt).
		Where(squirrel.Eq{"org_id": doc.OrgID, "id": doc.ID, "status": document.StatusPendingUpload}))
	if err != nil {
		return fmt.Errorf("marking document uploaded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrAlreadyUploaded
	}
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, orgID, id core.ID) error {
	tag, err := exec(ctx, r.db, psql.Delete("documents").Where(squirrel.Eq{"org_id": orgID, "id": id}))
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return document.ErrNotFound
	}
	return nil
}
