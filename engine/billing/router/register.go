package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/billing/uc"
	"github.com/lendflow/lendflow/engine/webhook"
)

const (
	WebhookSlug     = "razorpay"
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
)

func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory) {
	handler := NewHandler(factory)
	billing := apiBase.Group("/billing")
	{
		billing.GET("/plans", handler.ListPlans)
		billing.GET("/subscription", handler.GetSubscription)
		billing.DELETE("/subscription", handler.CancelSubscription)
		billing.POST("/checkout", handler.CreateCheckout)
		billing.POST("/checkout/verify", handler.VerifyCheckout)
	}
}

// RegisterWebhook adds the gateway's event endpoint to reg. Deliveries are
// signed with secret and deduplicated on the gateway event id for ttl.
func RegisterWebhook(reg *webhook.Registry, factory *uc.Factory, secret string, ttl time.Duration) error {
	return reg.Add(webhook.RegistryEntry{
		Slug: WebhookSlug,
		Verify: webhook.VerifyConfig{
			Strategy: webhook.StrategyHMAC,
			Secret:   secret,
			Header:   signatureHeader,
		},
		DedupeHeader: eventIDHeader,
		DedupeTTL:    ttl,
		Handler: func(ctx context.Context, body []byte) (webhook.Outcome, error) {
			return factory.ApplyWebhookEvent(body).Execute(ctx)
		},
	})
}
