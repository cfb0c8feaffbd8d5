package controllers

import (
	"ClinicDesk/handlers"
	"ClinicDesk/middlewares"
	"ClinicDesk/models"

	"github.com/gin-gonic/gin"
)

// SetupClinicRoutes mounts clinic administration, restricted to admins.
func SetupClinicRoutes(api *gin.RouterGroup, tokenAuth gin.HandlerFunc, clinicHandler *handlers.ClinicHandler) {
	clinics := api.Group("/clinics", tokenAuth, middlewares.RoleAuthMiddleware(models.RoleAdmin))
	{
		clinics.GET("", clinicHandler.ListClinics)
		clinics.GET("/:id", clinicHandler.GetClinicByID)
		clinics.GET("/code/:code", clinicHandler.GetClinicByCode)
		clinics.GET("/name/:name", clinicHandler.GetClinicByName)
		clinics.POST("", clinicHandler.CreateClinic)
		clinics.PATCH("/:id", clinicHandler.UpdateClinic)
		clinics.PUT("/:id/deactivate", clinicHandler.DeactivateClinic)
		clinics.PUT("/:id/activate", clinicHandler.ActivateClinic)
	}
}
