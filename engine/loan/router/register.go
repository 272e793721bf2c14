package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/loan/uc"
)

// RegisterRoutes mounts /applications. Parties, documents and verifications
// register their own sub-routes under the same group.
func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory) {
	handler := NewHandler(factory)
	apps := apiBase.Group("/applications")
	{
		apps.GET("", handler.ListApplications)
		apps.POST("", handler.CreateApplication)
		apps.GET("/:id", handler.GetApplication)
		apps.PATCH("/:id", handler.UpdateApplication)
		apps.GET("/:id/dossier", handler.GetDossier)
		apps.POST("/:id/assign", handler.AssignApplication)
		apps.POST("/:id/status", handler.UpdateStatus)
		apps.GET("/:id/logs", handler.ListStatusLogs)
		apps.GET("/:id/reviews", handler.ListReviews)
		apps.POST("/:id/reviews", handler.CreateReview)
		apps.GET("/:id/confirmation", handler.GetConfirmation)
		apps.POST("/:id/confirmation", handler.CompleteConfirmation)
		apps.GET("/:id/confirmation/visibility", handler.GetConfirmationVisibility)
	}
}
