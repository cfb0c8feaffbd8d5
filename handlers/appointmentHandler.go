package handlers

import (
	"ClinicDesk/middlewares"
	"ClinicDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AppointmentHandler struct {
	service services.AppointmentService
	log     *zap.Logger
}

func NewAppointmentHandler(service services.AppointmentService, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, log: log}
}

func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var req services.CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	appointment, err := h.service.Create(c.Request.Context(), facility, req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, "Appointment created", appointment)
}

func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	appointment, err := h.service.GetByID(c.Request.Context(), c.Param("id"), facility)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", appointment)
}

func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var filter services.AppointmentFilter
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

func (h *AppointmentHandler) AdvanceToAwaitingVitals(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	if err := h.service.AdvanceToAwaitingVitals(c.Request.Context(), c.Param("id"), facility); err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "Appointment moved to AwaitingVitals", nil)
}
