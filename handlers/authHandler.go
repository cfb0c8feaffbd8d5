package handlers

import (
	"ClinicDesk/middlewares"
	"ClinicDesk/models"
	"ClinicDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service    services.AuthService
	facilities services.FacilityService
	log        *zap.Logger
}

// meResponse is the signed-in user together with their facility.
type meResponse struct {
	User     *models.StaffUser `json:"user"`
	Facility *models.Facility  `json:"facility"`
}

func NewAuthHandler(service services.AuthService, facilities services.FacilityService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, facilities: facilities, log: log}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "Login successful", resp)
}

// RegisterStaff creates a staff account in the admin's own facility.
func (h *AuthHandler) RegisterStaff(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var req services.RegisterStaffRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.service.RegisterStaff(c.Request.Context(), facility, req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, "Staff user created", user)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := middlewares.ExtractUserIDFromContext(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, http.StatusUnauthorized, "User not found in context", nil)
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	facility, err := h.facilities.Get(c.Request.Context(), user.FacilityID)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", meResponse{User: user, Facility: facility})
}

// GetUser returns a staff account of the admin's facility.
func (h *AuthHandler) GetUser(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	user, err := h.service.GetStaffUser(c.Request.Context(), facility, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", user)
}

func (h *AuthHandler) ListStaff(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	staff, err := h.service.ListStaff(c.Request.Context(), facility)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", staff)
}

func (h *AuthHandler) DeactivateUser(c *gin.Context) {
	h.setUserActive(c, false, "User deactivated successfully")
}

func (h *AuthHandler) ActivateUser(c *gin.Context) {
	h.setUserActive(c, true, "User activated successfully")
}

func (h *AuthHandler) setUserActive(c *gin.Context, active bool, message string) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	requester, err := middlewares.ExtractUserIDFromContext(c.Request.Context())
	if err != nil {
		middlewares.HttpError(c, http.StatusUnauthorized, "User not found in context", nil)
		return
	}
	if err := h.service.SetUserActive(c.Request.Context(), facility, requester, c.Param("id"), active); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, message, nil)
}
