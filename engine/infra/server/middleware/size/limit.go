package size

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
)

// MaxBody answers 413 when the declared Content-Length exceeds limit and
// caps the reader for chunked bodies, so handlers see an error on overrun.
// A limit of zero or less disables the check.
func MaxBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			router.RespondProblemWithCode(c, http.StatusRequestEntityTooLarge, core.CodeInvalidInput,
				fmt.Sprintf("request body exceeds %d bytes", limit))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
