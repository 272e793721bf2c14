package webhook

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
)

// Processor is implemented by Orchestrator.
type Processor interface {
	Process(ctx context.Context, slug string, r *http.Request) (Result, error)
}

var failureCodes = []struct {
	err  error
	code string
}{
	{ErrNotFound, core.CodeNotFound},
	{ErrUnauthorized, core.CodeUnauthorized},
	{ErrBadRequest, core.CodeInvalidInput},
}

// RegisterPublic mounts POST /:slug on r. The endpoint is unauthenticated;
// callers prove themselves with the entry's signature.
//
// @Summary Receive a payment gateway webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param slug path string true "Webhook slug"
// @Success 200 {object} map[string]any "Processed, ignored or duplicate"
// @Failure 400 {object} core.ProblemDocument "Invalid or oversized payload"
// @Failure 401 {object} core.ProblemDocument "Signature verification failed"
// @Failure 404 {object} core.ProblemDocument "Webhook not found"
// @Failure 500 {object} core.ProblemDocument "Internal server error"
// @Router /webhooks/{slug} [post]
func RegisterPublic(r *gin.RouterGroup, p Processor) {
	r.POST("/:slug", func(c *gin.Context) {
		slug := c.Param("slug")
		res, err := p.Process(c.Request.Context(), slug, c.Request)
		if err != nil {
			status, code := failure(res, err)
			if status == http.StatusInternalServerError {
				logger.FromContext(c.Request.Context()).Error("Webhook processing failed", "error", err, "slug", slug)
			}
			problem := core.NormalizeProblem(&core.Problem{
				Status:   status,
				Instance: c.Request.URL.Path,
				Extras:   map[string]any{"code": code},
			})
			c.AbortWithStatusJSON(status, core.BuildProblemBody(problem))
			return
		}
		if res.Payload == nil {
			c.Status(res.Status)
			return
		}
		c.JSON(res.Status, res.Payload)
	})
}

func failure(res Result, err error) (int, string) {
	for _, f := range failureCodes {
		if errors.Is(err, f.err) {
			status := res.Status
			if status == 0 {
				status = http.StatusBadRequest
			}
			return status, f.code
		}
	}
	return http.StatusInternalServerError, core.CodeInternal
}
