package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lendflow/lendflow/engine/applicant/uc"
)

// RegisterRoutes mounts /applicants on a group that already authenticates
// the caller and gates writes on the subscription.
func RegisterRoutes(apiBase *gin.RouterGroup, factory *uc.Factory) {
	handler := NewHandler(factory)
	applicants := apiBase.Group("/applicants")
	{
		applicants.GET("", handler.ListApplicants)
		applicants.POST("", handler.CreateApplicant)
		applicants.GET("/:id", handler.GetApplicant)
		applicants.PATCH("/:id", handler.UpdateApplicant)
		applicants.DELETE("/:id", handler.DeleteApplicant)
	}
}
