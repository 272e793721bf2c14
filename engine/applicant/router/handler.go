package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/applicant"
	"github.com/lendflow/lendflow/engine/applicant/uc"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
)

type Handler struct {
	factory *uc.Factory
}

func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{factory: factory}
}

// CreateApplicant godoc
// @Summary Create an applicant
// @Tags applicants
// @Accept json
// @Produce json
// @Param applicant body uc.CreateInput true "Applicant details"
// @Success 201 {object} router.Response{data=applicant.Applicant}
// @Failure 400 {object} core.ProblemDocument
// @Failure 409 {object} core.ProblemDocument "duplicate PAN"
// @Router /applicants [post]
func (h *Handler) CreateApplicant(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	var input uc.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	a, err := h.factory.CreateApplicant(actor, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Applicant created successfully", a)
}

// ListApplicants godoc
// @Summary List applicants
// @Tags applicants
// @Produce json
// @Param q query string false "Name prefix, PAN or phone"
// @Param limit query int false "Page size (max 200)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} router.Response
// @Router /applicants [get]
func (h *Handler) ListApplicants(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	page, err := router.PageFromQuery(c)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	filter := applicant.Filter{Search: c.Query("q")}
	items, err := h.factory.ListApplicants(actor.OrgID, filter, page).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithPage(c, page, items, func(a *applicant.Applicant) core.ID { return a.ID })
}

// GetApplicant godoc
// @Summary Get an applicant
// @Tags applicants
// @Param id path string true "Applicant ID"
// @Success 200 {object} router.Response{data=applicant.Applicant}
// @Failure 404 {object} core.ProblemDocument
// @Router /applicants/{id} [get]
func (h *Handler) GetApplicant(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	a, err := h.factory.GetApplicant(actor.OrgID, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, a)
}

// UpdateApplicant godoc
// @Summary Partially update an applicant
// @Tags applicants
// @Accept json
// @Param id path string true "Applicant ID"
// @Param applicant body uc.UpdateInput true "Fields to change"
// @Success 200 {object} router.Response{data=applicant.Applicant}
// @Router /applicants/{id} [patch]
func (h *Handler) UpdateApplicant(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	a, err := h.factory.UpdateApplicant(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Applicant updated successfully", a)
}

// DeleteApplicant godoc
// @Summary Delete an applicant without applications
// @Tags applicants
// @Param id path string true "Applicant ID"
// @Success 200 {object} router.Response
// @Failure 409 {object} core.ProblemDocument "has applications"
// @Router /applicants/{id} [delete]
func (h *Handler) DeleteApplicant(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.factory.DeleteApplicant(actor, id).Execute(c.Request.Context()); err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Applicant deleted successfully", nil)
}
