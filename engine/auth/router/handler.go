package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/uc"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/infra/server/router"
	"github.com/lendflow/lendflow/pkg/logger"
)

// GenerateKeyData contains the generated API key. The plaintext is returned once.
type GenerateKeyData struct {
	APIKey string                 `json:"api_key"`
	Key    APIKeyMetadataResponse `json:"key"`
}

// APIKeyMetadataResponse represents the response for API key metadata
type APIKeyMetadataResponse struct {
	ID        string     `json:"id"`
	Prefix    string     `json:"prefix"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}

// MeResponse is the authenticated user with their organization and capabilities.
type MeResponse struct {
	User         *model.User         `json:"user"`
	Organization *model.Organization `json:"organization"`
	Capabilities []model.Capability  `json:"capabilities"`
}

// Handler handles auth-related HTTP requests
type Handler struct {
	factory *uc.Factory
}

// NewHandler creates a new auth handler
func NewHandler(factory *uc.Factory) *Handler {
	return &Handler{
		factory: factory,
	}
}

func toKeyMetadata(key *model.APIKey) APIKeyMetadataResponse {
	metadata := APIKeyMetadataResponse{
		ID:        key.ID.String(),
		Prefix:    key.Prefix,
		CreatedAt: key.CreatedAt,
	}
	if key.LastUsed.Valid {
		metadata.LastUsed = &key.LastUsed.Time
	}
	return metadata
}

// GenerateKey godoc
// @Summary Generate a new API key
// @Description Generate a new API key for the authenticated user
// @Tags auth
// @Produce json
// @Success 201 {object} router.Response "contains data.api_key"
// @Failure 401 {object} core.ProblemDocument
// @Router /auth/keys [post]
func (h *Handler) GenerateKey(c *gin.Context) {
	user, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	plaintext, key, err := h.factory.GenerateAPIKey(user).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusCreated, "API key created; store it now, it is not shown again",
		GenerateKeyData{APIKey: plaintext, Key: toKeyMetadata(key)})
}

// ListKeys godoc
// @Summary List the caller's API keys
// @Tags auth
// @Produce json
// @Success 200 {object} router.Response
// @Failure 401 {object} core.ProblemDocument
// @Router /auth/keys [get]
func (h *Handler) ListKeys(c *gin.Context) {
	user, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	keys, err := h.factory.ListAPIKeys(user).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	// Hashes and fingerprints never leave the server.
	masked := make([]APIKeyMetadataResponse, len(keys))
	for i, key := range keys {
		masked[i] = toKeyMetadata(key)
	}
	router.RespondWithData(c, http.StatusOK, gin.H{"keys": masked})
}

// RevokeKey godoc
// @Summary Revoke an API key
// @Description Key owners may revoke their own keys; users.manage may revoke any key in the organization.
// @Tags auth
// @Param id path string true "API Key ID"
// @Success 200 {object} router.Response
// @Failure 403 {object} core.ProblemDocument
// @Failure 404 {object} core.ProblemDocument
// @Router /auth/keys/{id} [delete]
func (h *Handler) RevokeKey(c *gin.Context) {
	user, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	keyID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.factory.RevokeAPIKey(user, keyID).Execute(c.Request.Context()); err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "API key revoked successfully", nil)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} router.Response{data=MeResponse}
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	org, err := h.factory.GetOrganization(user.OrgID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, MeResponse{
		User:         user,
		Organization: org,
		Capabilities: model.RoleCapabilities(user.Role),
	})
}

// CreateUser godoc
// @Summary Create a user in the caller's organization
// @Tags users
// @Accept json
// @Produce json
// @Param user body uc.CreateUserInput true "User details"
// @Success 201 {object} router.Response{data=model.User}
// @Failure 400 {object} core.ProblemDocument
// @Failure 409 {object} core.ProblemDocument
// @Router /users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	var input uc.CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	user, err := h.factory.CreateUser(actor.OrgID, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).Info("User created", "user_id", user.ID, "role", user.Role)
	router.RespondWithMessage(c, http.StatusCreated, "User created successfully", user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Param limit query int false "Page size (max 200)"
// @Param cursor query string false "Cursor from a previous page"
// @Success 200 {object} router.Response
// @Router /users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	page, err := router.PageFromQuery(c)
	if err != nil {
		router.RespondError(c, err)
		return
	}
	users, err := h.factory.ListUsers(actor.OrgID, page).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithPage(c, page, users, func(u *model.User) core.ID { return u.ID })
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} router.Response{data=model.User}
// @Failure 404 {object} core.ProblemDocument
// @Router /users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	userID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	user, err := h.factory.GetUser(actor.OrgID, userID).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithData(c, http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Update a user's name, role or status
// @Tags users
// @Accept json
// @Param id path string true "User ID"
// @Param user body uc.UpdateUserInput true "Fields to change"
// @Success 200 {object} router.Response{data=model.User}
// @Failure 403 {object} core.ProblemDocument "self modification"
// @Failure 409 {object} core.ProblemDocument "last owner"
// @Router /users/{id} [patch]
func (h *Handler) UpdateUser(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	userID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	var input uc.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		router.RespondBindError(c, err)
		return
	}
	user, err := h.factory.UpdateUser(actor, userID, &input).Execute(c.Request.Context())
	if err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "User updated successfully", user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} router.Response
// @Failure 409 {object} core.ProblemDocument "last owner"
// @Router /users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	actor, ok := router.CurrentUser(c)
	if !ok {
		return
	}
	userID, ok := router.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.factory.DeleteUser(actor, userID).Execute(c.Request.Context()); err != nil {
		router.RespondError(c, err)
		return
	}
	router.RespondWithMessage(c, http.StatusOK, "User deleted successfully", nil)
}
