package controllers

import (
	"ClinicDesk/handlers"
	"ClinicDesk/middlewares"
	"ClinicDesk/models"

	"github.com/gin-gonic/gin"
)

// SetupFrontDeskRoutes mounts patients, appointments and invoices. Front
// desk staff and admins may use them.
func SetupFrontDeskRoutes(api *gin.RouterGroup, tokenAuth gin.HandlerFunc, patientHandler *handlers.PatientHandler, appointmentHandler *handlers.AppointmentHandler, invoiceHandler *handlers.InvoiceHandler) {
	desk := api.Group("", tokenAuth, middlewares.RoleAuthMiddleware(models.RoleFrontDeskStaff, models.RoleAdmin))

	patients := desk.Group("/patients")
	{
		patients.GET("", patientHandler.ListPatients)
		patients.GET("/:id", patientHandler.GetPatientByID)
		patients.GET("/:id/wallet/transactions", patientHandler.GetWalletTransactions)
		patients.GET("/code/:code", patientHandler.GetPatientByCode)
		patients.GET("/email/:email", patientHandler.GetPatientByEmail)
		patients.POST("", patientHandler.CreatePatient)
	}

	appointments := desk.Group("/appointments")
	{
		appointments.GET("", appointmentHandler.ListAppointments)
		appointments.GET("/:id", appointmentHandler.GetAppointmentByID)
		appointments.POST("", appointmentHandler.CreateAppointment)
		appointments.PATCH("/:id/awaiting-vitals", appointmentHandler.AdvanceToAwaitingVitals)
	}

	invoices := desk.Group("/invoices")
	{
		invoices.GET("/:id", invoiceHandler.GetInvoiceByID)
		invoices.POST("", invoiceHandler.CreateInvoice)
		invoices.POST("/:id/pay", invoiceHandler.PayInvoice)
	}
}
