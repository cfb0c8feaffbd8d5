package handlers

import (
	"ClinicDesk/middlewares"
	"ClinicDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ClinicHandler struct {
	service services.ClinicService
	log     *zap.Logger
}

func NewClinicHandler(service services.ClinicService, log *zap.Logger) *ClinicHandler {
	return &ClinicHandler{service: service, log: log}
}

func (h *ClinicHandler) ListClinics(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var filter services.ClinicFilter
	if !bindQuery(c, &filter) {
		return
	}
	result, err := h.service.List(c.Request.Context(), facility, filter)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", result)
}

func (h *ClinicHandler) GetClinicByID(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	clinic, err := h.service.GetByID(c.Request.Context(), facility, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", clinic)
}

func (h *ClinicHandler) GetClinicByCode(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	clinic, err := h.service.GetByCode(c.Request.Context(), facility, c.Param("code"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", clinic)
}

func (h *ClinicHandler) GetClinicByName(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	clinic, err := h.service.GetByName(c.Request.Context(), facility, c.Param("name"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", clinic)
}

func (h *ClinicHandler) CreateClinic(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var req services.CreateClinicRequest
	if !bindJSON(c, &req) {
		return
	}
	clinic, err := h.service.Create(c.Request.Context(), facility, req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, "Clinic created", clinic)
}

func (h *ClinicHandler) UpdateClinic(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var req services.UpdateClinicRequest
	if !bindJSON(c, &req) {
		return
	}
	clinic, err := h.service.Update(c.Request.Context(), facility, c.Param("id"), req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "Clinic updated", clinic)
}

func (h *ClinicHandler) DeactivateClinic(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), facility, c.Param("id")); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "Clinic deactivated", nil)
}

func (h *ClinicHandler) ActivateClinic(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	if err := h.service.Activate(c.Request.Context(), facility, c.Param("id")); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "Clinic activated", nil)
}
