package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/userctx"
	"github.com/lendflow/lendflow/engine/core"
)

// ParamID parses a KSUID path parameter, writing a 400 problem on failure.
func ParamID(c *gin.Context, name string) (core.ID, bool) {
	id, err := core.ParseID(c.Param(name))
	if err != nil {
		RespondProblemWithCode(c, http.StatusBadRequest, core.CodeInvalidInput, "invalid "+name+": "+err.Error())
		return "", false
	}
	return id, true
}

// CurrentUser returns the authenticated user, writing a 401 problem when the
// auth middleware did not run.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	user, err := userctx.Actor(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return nil, false
	}
	return user, true
}
