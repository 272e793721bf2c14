package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/document/uc"
)

func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory) {
	handler := NewHandler(factory)
	apiBase.GET("/applications/:id/documents", handler.ListDocuments)
	apiBase.POST("/applications/:id/documents", handler.RequestUpload)
	apiBase.POST("/applications/:id/documents/upload", handler.Upload)
	docs := apiBase.Group("/documents")
	{
		docs.POST("/:id/confirm", handler.ConfirmUpload)
		docs.GET("/:id/download", handler.GetDownloadURL)
		docs.DELETE("/:id", handler.DeleteDocument)
	}
}
