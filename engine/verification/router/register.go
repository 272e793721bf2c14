package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/verification/uc"
)

func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory) {
	handler := NewHandler(factory)
	apiBase.GET("/applications/:id/verifications", handler.ListVerifications)
	apiBase.POST("/applications/:id/verifications", handler.CreateVerification)
	verifications := apiBase.Group("/verifications")
	{
		verifications.GET("/:id", handler.GetVerification)
		verifications.POST("/:id/assign", handler.AssignVerification)
		verifications.POST("/:id/submit", handler.SubmitVerification)
		verifications.POST("/:id/review", handler.ReviewVerification)
	}
}
