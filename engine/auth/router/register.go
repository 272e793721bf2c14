package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/auth/uc"
	authmw "github.com/lendflow/lendflow/engine/infra/server/middleware/auth"
)

// RegisterRoutes registers the key and user management routes. The group is
// expected to already run the authentication middleware.
func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory, authManager *authmw.Manager) {
	handler := NewHandler(factory)

	auth := apiBase.Group("/auth")
	auth.Use(authManager.RequireAuth())
	{
		auth.GET("/me", handler.Me)
		auth.POST("/keys", handler.GenerateKey)
		auth.GET("/keys", handler.ListKeys)
		auth.DELETE("/keys/:id", handler.RevokeKey)
	}

	users := apiBase.Group("/users")
	users.Use(authManager.RequireCapability(model.CapUsersManage))
	{
		users.GET("", handler.ListUsers)
		users.POST("", handler.CreateUser)
		users.GET("/:id", handler.GetUser)
		users.PATCH("/:id", handler.UpdateUser)
		users.DELETE("/:id", handler.DeleteUser)
	}
}
