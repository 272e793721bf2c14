package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/engine/verification/uc"
)

type Handler struct {
	factory *uc.Factory
}

func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{factory: factory}
}

type assignRequest struct {
	AgentID core.ID `json:"agent_id"`
}

// ListVerifications godoc
// @Summary List field verifications of an application
// @Tags verifications
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=[]uc.View}
// @Router /applications/{id}/verifications [get]
func (h *Handler) ListVerifications(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.factory.ListVerifications(actor, appID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, items)
}

// CreateVerification godoc
// @Summary Request a field verification
// @Tags verifications
// @Accept json
// @Param id path string true "Application ID"
// @Param verification body uc.CreateInput true "Verification type and address"
// @Success 201 {object} router.Response{data=verification.Verification}
// @Failure 409 {object} core.ProblemDocument "an active verification of this type exists"
// @Router /applications/{id}/verifications [post]
func (h *Handler) CreateVerification(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	v, err := h.factory.CreateVerification(actor, appID, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Verification created", v)
}

// GetVerification godoc
// @Summary Get a verification
// @Tags verifications
// @Param id path string true "Verification ID"
// @Success 200 {object} router.Response{data=uc.View}
// @Failure 404 {object} core.ProblemDocument
// @Router /verifications/{id} [get]
func (h *Handler) GetVerification(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.factory.GetVerification(actor, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, view)
}

// AssignVerification godoc
// @Summary Assign a field agent
// @Tags verifications
// @Accept json
// @Param id path string true "Verification ID"
// @Param body body assignRequest true "Agent"
// @Success 200 {object} router.Response{data=verification.Verification}
// @Router /verifications/{id}/assign [post]
func (h *Handler) AssignVerification(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondBindError(c, err)
		return
	}
	v, err := h.factory.AssignVerification(actor, id, req.AgentID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Verification assigned", v)
}

// SubmitVerification godoc
// @Summary Submit visit findings
// @Tags verifications
// @Accept json
// @Param id path string true "Verification ID"
// @Param body body uc.SubmitInput true "Findings"
// @Success 200 {object} router.Response{data=verification.Verification}
// @Failure 403 {object} core.ProblemDocument "not the assigned agent"
// @Router /verifications/{id}/submit [post]
func (h *Handler) SubmitVerification(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	v, err := h.factory.SubmitVerification(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Verification submitted", v)
}

// ReviewVerification godoc
// @Summary Approve or reject submitted findings
// @Tags verifications
// @Accept json
// @Param id path string true "Verification ID"
// @Param body body uc.ReviewInput true "Decision"
// @Success 200 {object} router.Response{data=verification.Verification}
// @Router /verifications/{id}/review [post]
func (h *Handler) ReviewVerification(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	v, err := h.factory.ReviewVerification(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Verification reviewed", v)
}
