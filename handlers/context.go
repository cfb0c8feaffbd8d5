package handlers

import (
	"ClinicDesk/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

// facilityID returns the caller's facility or writes a 401 and returns false.
func facilityID(c *gin.Context) (string, bool) {
	id, err := middlewares.ExtractFacilityIDFromContext(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, http.StatusUnauthorized, "Facility not resolved for caller", nil)
		return "", false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middlewares.HttpError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		middlewares.HttpError(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return false
	}
	return true
}
