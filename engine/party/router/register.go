package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/party/uc"
)

func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory) {
	handler := NewHandler(factory)
	apiBase.GET("/applications/:id/parties", handler.ListParties)
	apiBase.POST("/applications/:id/parties", handler.AddParty)
	parties := apiBase.Group("/parties")
	{
		parties.PATCH("/:id", handler.UpdateParty)
		parties.DELETE("/:id", handler.RemoveParty)
	}
}
