package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepo(t *testing.T) {
	t.Run("Should scan a pending document without party or upload time", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewDocumentRepo(mockPool)
		id, orgID, appID := core.MustNewID(), core.MustNewID(), core.MustNewID()
		rows := mockPool.NewRows(documentColumns).AddRow(
			id, orgID, appID, (*core.ID)(nil), document.TypeITR, "itr.pdf", "orgs/x/itr.pdf", "application/pdf",
			int64(0), document.StatusPendingUpload, core.MustNewID(), time.Now().UTC(), (*time.Time)(nil),
		)
		mockPool.ExpectQuery("SELECT (.+) FROM documents WHERE id = \\$1 AND org_id = \\$2").
			WithArgs(id, orgID).
			WillReturnRows(rows)

		doc, err := repo.Get(context.Background(), orgID, id)
		require.NoError(t, err)
		assert.Nil(t, doc.PartyID)
		assert.Nil(t, doc.UploadedAt)
		assert.Equal(t, "orgs/x/itr.pdf", doc.ObjectKey)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should only mark pending rows as uploaded", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewDocumentRepo(mockPool)
		now := time.Now().UTC()
		doc := &document.Document{ID: core.MustNewID(), OrgID: core.MustNewID(), SizeBytes: 42, UploadedAt: &now}
		mockPool.ExpectExec("UPDATE documents SET status = \\$1, size_bytes = \\$2, content_type = \\$3, uploaded_at = \\$4 "+
			"WHERE id = \\$5 AND org_id = \\$6 AND status = \\$7").
			WithArgs(document.StatusUploaded, int64(42), "", &now, doc.ID, doc.OrgID, document.StatusPendingUpload).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkUploaded(context.Background(), doc)
		assert.ErrorIs(t, err, document.ErrAlreadyUploaded)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
