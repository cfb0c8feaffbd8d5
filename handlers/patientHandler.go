package handlers

import (
	"ClinicDesk/middlewares"
	"ClinicDesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PatientHandler struct {
	service services.PatientService
	log     *zap.Logger
}

func NewPatientHandler(service services.PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{service: service, log: log}
}

func (h *PatientHandler) CreatePatient(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var req services.CreatePatientRequest
	if !bindJSON(c, &req) {
		return
	}
	patient, err := h.service.Create(c.Request.Context(), facility, req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, "Patient created", patient)
}

func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	patient, err := h.service.GetByID(c.Request.Context(), facility, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", patient)
}

func (h *PatientHandler) GetPatientByCode(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	patient, err := h.service.GetByCode(c.Request.Context(), facility, c.Param("code"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", patient)
}

func (h *PatientHandler) GetPatientByEmail(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	patient, err := h.service.GetByEmail(c.Request.Context(), facility, c.Param("email"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", patient)
}

func (h *PatientHandler) ListPatients(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var filter services.PatientFilter
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

func (h *PatientHandler) GetWalletTransactions(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	entries, err := h.service.WalletTransactions(c.Request.Context(), facility, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", entries)
}
