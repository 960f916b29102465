package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salus-hms/salus-api/internal/config"
	"github.com/salus-hms/salus-api/internal/service"
	"github.com/salus-hms/salus-api/pkg/auth"
	"github.com/salus-hms/salus-api/pkg/metrics"
)

type Router struct {
	Patients     *service.PatientService
	Appointments *service.AppointmentService
	Sessions     *auth.SessionManager
	Collector    *metrics.Collector
}

func (r Router) Build(cfg config.AppConfig) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(metricsMiddleware(r.Collector))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.Version})
	})
	engine.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	patients := NewPatientHandler(r.Patients)
	appointments := NewAppointmentHandler(r.Appointments)
	admin := NewAdminHandler(r.Sessions)

	api := engine.Group("/v1")
	{
		api.POST("/users", patients.CreateUser)
		api.GET("/users/:id", patients.GetUser)

		api.POST("/patients", patients.RegisterPatient)
		api.GET("/patients/by-user/:userId", patients.GetPatientByUser)

		api.POST("/appointments", appointments.CreateAppointment)
		api.GET("/appointments/:id", appointments.GetAppointment)
		api.PATCH("/appointments/:id", appointments.UpdateAppointment)

		api.POST("/admin/sessions", admin.Login)

		protected := api.Group("", adminAuthMiddleware(r.Sessions))
		protected.GET("/appointments", appointments.ListRecentAppointments)
	}

	return engine
}
