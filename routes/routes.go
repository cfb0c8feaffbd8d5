package routes

import (
	"ClinicDesk/cache"
	"ClinicDesk/config"
	"ClinicDesk/controllers"
	"ClinicDesk/handlers"
	"ClinicDesk/middlewares"
	"ClinicDesk/repositories"
	"ClinicDesk/services"
	"ClinicDesk/utils"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the long-lived resources the router is built from.
type Dependencies struct {
	Config *config.AppConfig
	DB     *gorm.DB
	Cache  *cache.Cache
	Tokens *utils.TokenMaker
	Mailer *utils.Mailer
	Log    *zap.Logger

	// Background counts work that outlives its request, such as payment
	// receipts. It may be nil.
	Background *sync.WaitGroup
}

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(deps Dependencies) http.Handler {
	cfg := deps.Config
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middlewares.RecoveryMiddleware(deps.Log))
	router.Use(middlewares.LoggingMiddleware(deps.Log))
	router.Use(middlewares.CorsMiddleware(middlewares.DefaultCorsConfig(cfg.CorsOrigins)))
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	uow := repositories.NewUnitOfWork(deps.DB)

	facilityService := services.NewFacilityService(uow, deps.Log.Named("facilities"))
	authService := services.NewAuthService(uow, deps.Cache, deps.Tokens, deps.Log.Named("auth"))
	clinicService := services.NewClinicService(uow, deps.Cache, deps.Log.Named("clinics"))
	patientService := services.NewPatientService(uow, deps.Cache, deps.Log.Named("patients"), cfg.DefaultCurrency)
	appointmentService := services.NewAppointmentService(uow, deps.Log.Named("appointments"), cfg.DefaultCurrency)
	invoiceService := services.NewInvoiceService(uow, deps.Cache, deps.Log.Named("invoices"))

	authHandler := handlers.NewAuthHandler(authService, facilityService, deps.Log)
	clinicHandler := handlers.NewClinicHandler(clinicService, deps.Log)
	patientHandler := handlers.NewPatientHandler(patientService, deps.Log)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService, deps.Log)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, deps.Mailer, deps.Background, deps.Log)

	tokenAuth := middlewares.TokenAuthMiddleware(deps.Tokens)
	api := router.Group("/api")

	controllers.NewAuthController(authHandler).RegisterRoutes(api, tokenAuth)
	controllers.SetupClinicRoutes(api, tokenAuth, clinicHandler)
	controllers.SetupFrontDeskRoutes(api, tokenAuth, patientHandler, appointmentHandler, invoiceHandler)
	controllers.SetupRootRoute(router, deps.DB)

	return router
}
