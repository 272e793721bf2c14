package routertest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/userctx"
	"github.com/lendflow/lendflow/engine/core"
)

// NewEngine returns a test-mode engine with an /api/v1 group that
// authenticates every request as the user returned by current.
func NewEngine(t *testing.T, current func() *model.User) (*gin.Engine, *gin.RouterGroup) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if user := current(); user != nil {
			c.Request = c.Request.WithContext(userctx.WithUser(c.Request.Context(), user))
		}
		c.Next()
	})
	return r, api
}

// NewUser builds an active user in orgID.
func NewUser(orgID core.ID, role model.Role) *model.User {
	return &model.User{
		ID:     core.MustNewID(),
		OrgID:  orgID,
		Email:  string(role) + "@acme.test",
		Role:   role,
		Status: model.UserActive,
	}
}

// Do performs a JSON request against the engine.
func Do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// DecodeData unmarshals the data member of a success envelope.
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return envelope.Data
}

// ProblemCode returns the code member of a problem document.
func ProblemCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var problem struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decoding problem %q: %v", w.Body.String(), err)
	}
	return problem.Code
}
