package router_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	docrouter "github.com/lendflow/lendflow/engine/document/router"
	"github.com/lendflow/lendflow/engine/document/testutil"
	"github.com/lendflow/lendflow/engine/document/uc"
	"github.com/lendflow/lendflow/engine/infra/server/router/routertest"
	"github.com/lendflow/lendflow/engine/loan"
	loantest "github.com/lendflow/lendflow/engine/loan/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, docType, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("type", docType))
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDocumentRoutes(t *testing.T) {
	orgID := core.MustNewID()
	apps := loantest.NewInMemoryRepo()
	app := apps.Seed(&loan.Application{ID: core.MustNewID(), OrgID: orgID, Status: loan.StatusSubmitted})
	storage := testutil.NewFakeStorage()
	user := routertest.NewUser(orgID, model.RoleCreditOfficer)
	engine, api := routertest.NewEngine(t, func() *model.User { return user })
	docrouter.RegisterRoutes(api, uc.NewFactory(uc.Deps{
		Repo:         testutil.NewInMemoryRepo(),
		Storage:      storage,
		Applications: apps,
		Limits:       uc.Limits{MaxBytes: 1 << 20, AllowedTypes: []string{"application/pdf"}},
	}))
	base := "/api/v1/applications/" + app.ID.String() + "/documents"

	t.Run("Should run the presigned flow", func(t *testing.T) {
		w := routertest.Do(engine, http.MethodPost, base,
			`{"type":"salary_slip","file_name":"slip.pdf","content_type":"application/pdf","size_bytes":100}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ticket := routertest.DecodeData[struct {
			Document  document.Document `json:"document"`
			UploadURL string            `json:"upload_url"`
		}](t, w)
		assert.NotEmpty(t, ticket.UploadURL)
		assert.NotContains(t, w.Body.String(), "object_key")

		confirm := "/api/v1/documents/" + ticket.Document.ID.String() + "/confirm"
		w = routertest.Do(engine, http.MethodPost, confirm, "")
		assert.Equal(t, http.StatusConflict, w.Code)

		key := document.ObjectKey(orgID, app.ID, ticket.Document.ID, "slip.pdf")
		storage.Store(key, "application/pdf", []byte("%PDF-1.4"))
		w = routertest.Do(engine, http.MethodPost, confirm, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = routertest.Do(engine, http.MethodGet, "/api/v1/documents/"+ticket.Document.ID.String()+"/download", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "storage.test")
	})

	t.Run("Should accept a multipart upload", func(t *testing.T) {
		body, contentType := multipartBody(t, "itr", "itr-2025.pdf", []byte("%PDF-1.7 return"))
		req := httptest.NewRequest(http.MethodPost, base+"/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		doc := routertest.DecodeData[document.Document](t, w)
		assert.Equal(t, "application/pdf", doc.ContentType)
		assert.Equal(t, document.StatusUploaded, doc.Status)
	})

	t.Run("Should reject a multipart upload with the wrong content", func(t *testing.T) {
		body, contentType := multipartBody(t, "itr", "itr.pdf", []byte("plain text"))
		req := httptest.NewRequest(http.MethodPost, base+"/upload", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should forbid deletes without documents.delete", func(t *testing.T) {
		w := routertest.Do(engine, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, w.Code)
		docs := routertest.DecodeData[[]document.Document](t, w)
		require.NotEmpty(t, docs)
		w = routertest.Do(engine, http.MethodDelete, "/api/v1/documents/"+docs[0].ID.String(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
