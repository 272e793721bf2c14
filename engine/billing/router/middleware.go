package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lendflow/lendflow/engine/auth/userctx"
	"github.com/lendflow/lendflow/engine/billing"
	"github.com/lendflow/lendflow/engine/billing/uc"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/pkg/logger"
)

const (
	gateCacheSize       = 4096
	defaultGateCacheTTL = 30 * time.Second
)

// SubscriptionGate blocks writes for organizations without a usable
// subscription. Results are cached per organization for a short TTL, so a
// payment or lapse takes effect within that window.
type SubscriptionGate struct {
	factory *uc.Factory
	usable  *expirable.LRU[core.ID, bool]
}

func NewSubscriptionGate(factory *uc.Factory, cacheTTL time.Duration) *SubscriptionGate {
	if cacheTTL <= 0 {
		cacheTTL = defaultGateCacheTTL
	}
	return &SubscriptionGate{
		factory: factory,
		usable:  expirable.NewLRU[core.ID, bool](gateCacheSize, nil, cacheTTL),
	}
}

// Forget drops the cached decision for orgID.
func (g *SubscriptionGate) Forget(orgID core.ID) {
	g.usable.Remove(orgID)
}

// RequireActiveSubscription answers 402 to POST, PUT, PATCH and DELETE
// requests from organizations whose subscription is not usable. Reads and
// unauthenticated requests pass through.
func (g *SubscriptionGate) RequireActiveSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWrite(c.Request.Method) {
			c.Next()
			return
		}
		orgID, ok := userctx.OrgID(c.Request.Context())
		if !ok {
			c.Next()
			return
		}
		usable, err := g.check(c, orgID)
		if err != nil {
			router.RespondError(c, err)
			c.Abort()
			return
		}
		if !usable {
			router.RespondError(c, billing.ErrSubscriptionInactive)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (g *SubscriptionGate) check(c *gin.Context, orgID core.ID) (bool, error) {
	if ok, hit := g.usable.Get(orgID); hit {
		return ok, nil
	}
	view, err := g.factory.GetSubscription(orgID).Execute(c.Request.Context())
	switch {
	case errors.Is(err, billing.ErrSubscriptionNotFound):
		g.usable.Add(orgID, false)
		return false, nil
	case err != nil:
		return false, err
	}
	if !view.Usable {
		logger.FromContext(c.Request.Context()).Debug("Write blocked by subscription",
			"org_id", orgID, "status", view.Status)
	}
	g.usable.Add(orgID, view.Usable)
	return view.Usable, nil
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
