package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/engine/loan"
	"github.com/lendflow/lendflow/engine/loan/uc"
)

type Handler struct {
	factory *uc.Factory
}

func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{factory: factory}
}

// target resolves the caller and the :id path parameter.
func target(c *gin.Context) (*model.User, core.ID, bool) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return nil, "", false
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return nil, "", false
	}
	return actor, id, true
}

// CreateApplication godoc
// @Summary Open a loan application
// @Tags applications
// @Accept json
// @Produce json
// @Param application body uc.CreateInput true "Loan terms"
// @Success 201 {object} router.Response{data=loan.Application}
// @Failure 400 {object} core.ProblemDocument
// @Failure 409 {object} core.ProblemDocument "plan limit reached"
// @Router /applications [post]
func (h *Handler) CreateApplication(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	var input uc.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	app, err := h.factory.CreateApplication(actor, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Application created successfully", app)
}

// ListApplications godoc
// @Summary List loan applications
// @Tags applications
// @Produce json
// @Param status query string false "Status filter"
// @Param applicant_id query string false "Applicant filter"
// @Param assigned_to query string false "User ID or me"
// @Param limit query int false "Page size (max 200)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} router.Response
// @Router /applications [get]
func (h *Handler) ListApplications(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	page, err := router.PageFromQuery(c)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	filter, err := filterFromQuery(c, actor)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	items, err := h.factory.ListApplications(actor.OrgID, filter, page).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithPage(c, page, items, func(a *loan.Application) core.ID { return a.ID })
}

func filterFromQuery(c *gin.Context, actor *model.User) (loan.Filter, error) {
	filter := loan.Filter{Status: loan.Status(c.Query("status"))}
	if raw := c.Query("applicant_id"); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			return filter, core.Invalid("applicant_id", err.Error())
		}
		filter.ApplicantID = id
	}
	switch raw := c.Query("assigned_to"); raw {
	case "":
	case "me":
		filter.AssignedTo = actor.ID
	default:
		id, err := core.ParseID(raw)
		if err != nil {
			return filter, core.Invalid("assigned_to", err.Error())
		}
		filter.AssignedTo = id
	}
	return filter, nil
}

// GetApplication godoc
// @Summary Get a loan application
// @Tags applications
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=loan.Application}
// @Failure 404 {object} core.ProblemDocument
// @Router /applications/{id} [get]
func (h *Handler) GetApplication(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	app, err := h.factory.GetApplication(actor.OrgID, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, app)
}

// UpdateApplication godoc
// @Summary Edit the terms of an open application
// @Tags applications
// @Accept json
// @Param id path string true "Application ID"
// @Param application body uc.UpdateInput true "Fields to change"
// @Success 200 {object} router.Response{data=loan.Application}
// @Failure 409 {object} core.ProblemDocument "not editable in the current status"
// @Router /applications/{id} [patch]
func (h *Handler) UpdateApplication(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	var input uc.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	app, err := h.factory.UpdateApplication(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Application updated successfully", app)
}

type assignRequest struct {
	UserID core.ID `json:"user_id"`
}

// AssignApplication godoc
// @Summary Assign an application to a credit officer or manager
// @Tags applications
// @Accept json
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=loan.Application}
// @Router /applications/{id}/assign [post]
func (h *Handler) AssignApplication(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		router.RespondBindError(c, err)
		return
	}
	if req.UserID == "" {
		router.RespondError(c, core.Invalid("user_id", "is required"))
		return
	}
	app, err := h.factory.AssignApplication(actor, id, req.UserID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Application assigned successfully", app)
}

// UpdateStatus godoc
// @Summary Move an application to another status
// @Tags applications
// @Accept json
// @Param id path string true "Application ID"
// @Param status body uc.StatusInput true "Target status and remarks"
// @Success 200 {object} router.Response{data=uc.TransitionResult}
// @Failure 409 {object} core.ProblemDocument "transition not allowed"
// @Router /applications/{id}/status [post]
func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	var input uc.StatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	res, err := h.factory.UpdateStatus(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Status updated successfully", res)
}

// ListStatusLogs godoc
// @Summary Status history of an application
// @Tags applications
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=[]loan.StatusLog}
// @Router /applications/{id}/logs [get]
func (h *Handler) ListStatusLogs(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	logs, err := h.factory.ListStatusLogs(actor.OrgID, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, logs)
}

// CreateReview godoc
// @Summary Add a review comment or recommendation
// @Tags applications
// @Accept json
// @Param id path string true "Application ID"
// @Param review body uc.ReviewInput true "Review"
// @Success 201 {object} router.Response{data=loan.Review}
// @Router /applications/{id}/reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	var input uc.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	review, err := h.factory.CreateReview(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Review added successfully", review)
}

// ListReviews godoc
// @Summary Reviews on an application
// @Tags applications
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=[]loan.Review}
// @Router /applications/{id}/reviews [get]
func (h *Handler) ListReviews(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	reviews, err := h.factory.ListReviews(actor.OrgID, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, reviews)
}

// CompleteConfirmation godoc
// @Summary Approve, reject or hold an application under review
// @Tags applications
// @Accept json
// @Param id path string true "Application ID"
// @Param confirmation body uc.ConfirmationInput true "Decision and sanctioned terms"
// @Success 200 {object} router.Response{data=uc.ConfirmationResult}
// @Failure 403 {object} core.ProblemDocument
// @Failure 409 {object} core.ProblemDocument
// @Router /applications/{id}/confirmation [post]
func (h *Handler) CompleteConfirmation(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	var input uc.ConfirmationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	res, err := h.factory.CompleteConfirmation(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Confirmation completed successfully", res)
}

// GetConfirmation godoc
// @Summary Confirmation redacted for the caller
// @Tags applications
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=uc.ConfirmationView}
// @Failure 404 {object} core.ProblemDocument
// @Router /applications/{id}/confirmation [get]
func (h *Handler) GetConfirmation(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	view, err := h.factory.GetConfirmation(actor, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, view)
}

// GetConfirmationVisibility godoc
// @Summary Which confirmation fields and actions the caller gets
// @Tags applications
// @Success 200 {object} router.Response{data=loan.ConfirmationVisibility}
// @Router /applications/{id}/confirmation/visibility [get]
func (h *Handler) GetConfirmationVisibility(c *gin.Context) {
	actor, _, ok := target(c)
	if !ok {
		return
	}
	router.RespondWithData(c, http.StatusOK, loan.DefineLoanConfirmationFieldVisibility(actor))
}

// GetDossier godoc
// @Summary Application with applicant, parties, documents, verifications and confirmation
// @Tags applications
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=uc.Dossier}
// @Router /applications/{id}/dossier [get]
func (h *Handler) GetDossier(c *gin.Context) {
	actor, id, ok := target(c)
	if !ok {
		return
	}
	d, err := h.factory.GetDossier(actor, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, d)
}
