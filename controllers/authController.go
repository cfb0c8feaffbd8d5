package controllers

import (
	"ClinicDesk/handlers"
	"ClinicDesk/middlewares"
	"ClinicDesk/models"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Handler *handlers.AuthHandler
}

// NewAuthController creates a new AuthController with the given AuthHandler
func NewAuthController(authHandler *handlers.AuthHandler) *AuthController {
	return &AuthController{
		Handler: authHandler,
	}
}

// RegisterRoutes mounts /auth under api. tokenAuth guards everything except login.
func (ac *AuthController) RegisterRoutes(api *gin.RouterGroup, tokenAuth gin.HandlerFunc) {
	api.POST("/auth/login", ac.Handler.Login)

	authGroup := api.Group("/auth", tokenAuth)
	{
		authGroup.GET("/me", ac.Handler.Me)
	}

	admin := authGroup.Group("", middlewares.RoleAuthMiddleware(models.RoleAdmin))
	{
		admin.POST("/register-staff", ac.Handler.RegisterStaff)
		admin.GET("/staff", ac.Handler.ListStaff)
		admin.GET("/users/:id", ac.Handler.GetUser)
		admin.PUT("/users/:id/deactivate", ac.Handler.DeactivateUser)
		admin.PUT("/users/:id/activate", ac.Handler.ActivateUser)
	}
}
