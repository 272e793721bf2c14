package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
	"github.com/lendflow/lendflow/engine/document/uc"
	"github.com/lendflow/lendflow/engine/infra/server/router"
)

type Handler struct {
	factory *uc.Factory
}

func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{factory: factory}
}

// ListDocuments godoc
// @Summary Documents attached to an application
// @Tags documents
// @Param id path string true "Application ID"
// @Success 200 {object} router.Response{data=[]document.Document}
// @Router /applications/{id}/documents [get]
func (h *Handler) ListDocuments(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	docs, err := h.factory.ListDocuments(actor.OrgID, appID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, docs)
}

// RequestUpload godoc
// @Summary Create a pending document and a presigned upload URL
// @Tags documents
// @Accept json
// @Param id path string true "Application ID"
// @Param document body uc.UploadRequest true "File metadata"
// @Success 201 {object} router.Response{data=uc.UploadTicket}
// @Router /applications/{id}/documents [post]
func (h *Handler) RequestUpload(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.UploadRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	ticket, err := h.factory.RequestUpload(actor, appID, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Upload URL created", ticket)
}

// Upload godoc
// @Summary Upload a document through the API
// @Tags documents
// @Accept multipart/form-data
// @Param id path string true "Application ID"
// @Param type formData string true "Document type"
// @Param party_id formData string false "Party the document belongs to"
// @Param file formData file true "The file"
// @Success 201 {object} router.Response{data=document.Document}
// @Router /applications/{id}/documents/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	appID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		router.RespondError(c, core.Invalid("file", "multipart field file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		router.RespondError(c, err)
		return
	}
	defer file.Close()
	input := &uc.FileInput{
		Type:     document.Type(c.PostForm("type")),
		FileName: header.Filename,
		Body:     file,
	}
	if raw := c.PostForm("party_id"); raw != "" {
		partyID, err := core.ParseID(raw)
		if err != nil {
			router.RespondError(c, core.Invalid("party_id", err.Error()))
			return
		}
		input.PartyID = &partyID
	}
	doc, err := h.factory.Upload(actor, appID, input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "Document uploaded successfully", doc)
}

// ConfirmUpload godoc
// @Summary Mark a presigned upload as finished
// @Tags documents
// @Param id path string true "Document ID"
// @Success 200 {object} router.Response{data=document.Document}
// @Failure 409 {object} core.ProblemDocument "object missing or already confirmed"
// @Router /documents/{id}/confirm [post]
func (h *Handler) ConfirmUpload(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.factory.ConfirmUpload(actor, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Document uploaded successfully", doc)
}

// GetDownloadURL godoc
// @Summary Presigned download URL
// @Tags documents
// @Param id path string true "Document ID"
// @Success 200 {object} router.Response{data=uc.DownloadLink}
// @Router /documents/{id}/download [get]
func (h *Handler) GetDownloadURL(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	link, err := h.factory.GetDownloadURL(actor.OrgID, id).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, link)
}

// DeleteDocument godoc
// @Summary Delete a document and its object
// @Tags documents
// @Param id path string true "Document ID"
// @Success 200 {object} router.Response
// @Router /documents/{id} [delete]
func (h *Handler) DeleteDocument(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.factory.DeleteDocument(actor, id).Execute(c.Request.Context()); err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "Document deleted successfully", nil)
}
