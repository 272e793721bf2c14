package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/engine/party"
	"github.com/lendflow/lendflow/engine/party/uc"
)

type Handler struct {
	factory *uc.Factory
}

func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{factory: factory}
}

// AddParty godoc
// @Summary Add a co-applicant or guarantor
// @Tags parties
// @Accept json
// @Param id path string true "Application ID"
// @Param party body uc.Input true "Party details"
// @Success 201 {object} router.Response{data=party.Party}
// @Failure 409 {object} core.ProblemDocument "limit reached, duplicate PAN or application decided"
// @Router /applications/{id}/parties [post]
func (h *Handler) AddParty(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	p, err := h.factory.AddParty(actor, appID, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Party added successfully", p)
}

// ListParties godoc
// @Summary List parties of an application
// @Tags parties
// @Param id path string true "Application ID"
// @Param kind query string false "co_applicant or guarantor"
// @Success 200 {object} router.Response{data=[]party.Party}
// @Router /applications/{id}/parties [get]
func (h *Handler) ListParties(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	items, err := h.factory.ListParties(actor.OrgID, appID, party.Kind(c.Query("kind"))).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, items)
}

// UpdateParty godoc
// @Summary Update a party
// @Tags parties
// @Accept json
// @Param id path string true "Party ID"
// @Param party body uc.UpdateInput true "Fields to change"
// @Success 200 {object} router.Response{data=party.Party}
// @Router /parties/{id} [patch]
func (h *Handler) UpdateParty(c *gin.Context) {
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
	p, err := h.factory.UpdateParty(actor, id, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Party updated successfully", p)
}

// RemoveParty godoc
// @Summary Remove a party
// @Tags parties
// @Param id path string true "Party ID"
// @Success 200 {object} router.Response
// @Router /parties/{id} [delete]
func (h *Handler) RemoveParty(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.factory.RemoveParty(actor, id).Execute(c.Request.Context()); err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Party removed successfully", nil)
}
