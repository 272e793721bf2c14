package core_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/lendflow/lendflow/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	t.Run("Should generate unique sortable IDs", func(t *testing.T) {
		first := core.MustNewID()
		second := core.MustNewID()
		assert.NotEqual(t, first, second)
		assert.False(t, first.IsZero())
	})
	t.Run("Should parse a generated ID", func(t *testing.T) {
		id := core.MustNewID()
		parsed, err := core.ParseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
	t.Run("Should reject empty input", func(t *testing.T) {
		id, err := core.ParseID("")
		assert.ErrorContains(t, err, "empty ID")
		assert.True(t, id.IsZero())
	})
	t.Run("Should reject malformed input", func(t *testing.T) {
		_, err := core.ParseID("not-a-ksuid")
		assert.ErrorContains(t, err, "invalid ID format")
	})
}

func TestError(t *testing.T) {
	t.Run("Should unwrap the cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := core.NewError(cause, "INVALID_TRANSITION", map[string]any{"from": "draft"})
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "boom", err.Error())
		assert.Equal(t, "INVALID_TRANSITION", err.AsMap()["code"])
	})
	t.Run("Should render code when no cause is given", func(t *testing.T) {
		err := core.NewError(nil, "RATE_LIMIT_EXCEEDED", nil)
		assert.Equal(t, "RATE_LIMIT_EXCEEDED: RATE_LIMIT_EXCEEDED", err.Error())
		assert.NotContains(t, err.AsMap(), "details")
	})
}

func TestBuildProblemBody(t *testing.T) {
	t.Run("Should fill defaults and keep non reserved extras", func(t *testing.T) {
		p := core.NormalizeProblem(&core.Problem{
			Status: http.StatusConflict,
			Detail: "duplicate",
			Extras: map[string]any{"code": "CONFLICT", "status": 1, "field": "email"},
		})
		body := core.BuildProblemBody(p)
		assert.Equal(t, http.StatusConflict, body["status"])
		assert.Equal(t, "Conflict", body["error"])
		assert.Equal(t, "CONFLICT", body["code"])
		assert.Equal(t, "email", body["field"])
		assert.Equal(t, "about:blank", body["type"])
	})

	t.Run("Should not let extras shadow the detail or instance", func(t *testing.T) {
		p := core.NormalizeProblem(&core.Problem{
			Status: http.StatusBadRequest,
			Extras: map[string]any{"details": "spoofed", "instance": "/elsewhere"},
		})
		body := core.BuildProblemBody(p)
		assert.NotContains(t, body, "details")
		assert.NotContains(t, body, "instance")
	})
}

func TestPageNormalize(t *testing.T) {
	t.Run("Should clamp limits", func(t *testing.T) {
		assert.Equal(t, core.DefaultPageSize, core.Page{}.Normalize().Limit)
		assert.Equal(t, core.MaxPageSize, core.Page{Limit: 10_000}.Normalize().Limit)
		assert.Equal(t, 7, core.Page{Limit: 7}.Normalize().Limit)
	})
}
