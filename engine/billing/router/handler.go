package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/billing/uc"
	"github.com/lendflow/lendflow/engine/infra/server/router"
)

const idempotencyHeader = "Idempotency-Key"

type Handler struct {
	factory *uc.Factory
}

func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{factory: factory}
}

// ListPlans godoc
// @Summary List subscription plans
// @Tags billing
// @Success 200 {object} router.Response{data=[]billing.Plan}
// @Router /billing/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.factory.ListPlans().Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, plans)
}

// GetSubscription godoc
// @Summary Get the organization's subscription
// @Tags billing
// @Success 200 {object} router.Response{data=uc.SubscriptionView}
// @Failure 404 {object} core.ProblemDocument
// @Router /billing/subscription [get]
func (h *Handler) GetSubscription(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	view, err := h.factory.GetSubscription(actor.OrgID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, view)
}

// CancelSubscription godoc
// @Summary Cancel the organization's subscription
// @Tags billing
// @Success 200 {object} router.Response{data=billing.Subscription}
// @Failure 409 {object} core.ProblemDocument "already cancelled"
// @Router /billing/subscription [delete]
func (h *Handler) CancelSubscription(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	sub, err := h.factory.CancelSubscription(actor).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Subscription cancelled", sub)
}

// CreateCheckout godoc
// @Summary Create a gateway order for a plan
// @Description Send Idempotency-Key to get the same order back on retries.
// @Tags billing
// @Accept json
// @Param Idempotency-Key header string false "Client retry key"
// @Param checkout body uc.CheckoutInput true "Plan"
// @Success 201 {object} router.Response{data=uc.Checkout}
// @Failure 502 {object} core.ProblemDocument "gateway unavailable"
// @Router /billing/checkout [post]
func (h *Handler) CreateCheckout(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	var input uc.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	input.IdempotencyKey = c.GetHeader(idempotencyHeader)
	checkout, err := h.factory.CreateCheckoutOrder(actor, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Checkout order created", checkout)
}

// VerifyCheckout godoc
// @Summary Confirm a payment from the checkout callback
// @Tags billing
// @Accept json
// @Param payment body uc.VerifyInput true "Gateway callback fields"
// @Success 200 {object} router.Response{data=uc.SubscriptionView}
// @Failure 400 {object} core.ProblemDocument "signature mismatch"
// @Router /billing/checkout/verify [post]
func (h *Handler) VerifyCheckout(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	var input uc.VerifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	view, err := h.factory.VerifyCheckout(actor, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Payment verified", view)
}
