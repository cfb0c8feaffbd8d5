package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// rootHandler reports service health, including database reachability.
func rootHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if sqlDB, err := db.DB(); err != nil {
			status, code = "database unavailable", http.StatusServiceUnavailable
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := sqlDB.PingContext(ctx); err != nil {
				status, code = "database unavailable", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"service": "clinicdesk", "status": status})
	}
}

// SetupRootRoute sets up routes for the application
func SetupRootRoute(router *gin.Engine, db *gorm.DB) {
	router.GET("/", rootHandler(db))
}
