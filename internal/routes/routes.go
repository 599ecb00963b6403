package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/counsel-console/internal/config"
	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/export"
	"github.com/BruksfildServices01/counsel-console/internal/handlers"
	"github.com/BruksfildServices01/counsel-console/internal/middleware"
	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Engine   *ucbooking.Engine
	Exporter *export.SettlementExporter
	Logger   *zap.Logger
	Location *time.Location
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.CORSMiddleware(d.Config.AllowedOrigins()))
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.RateLimitMiddleware(d.Config.RateLimitPerMin))

	// ======================================================
	// HANDLERS
	// ======================================================
	meHandler := handlers.NewMeHandler(d.DB)
	bookingHandler := handlers.NewBookingHandler(d.Engine, d.Location)
	adminHandler := handlers.NewAdminHandler(d.Engine, d.Exporter, d.Location, d.Logger)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.DB, d.Location)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(d.Config.JWTSecret))
	{
		api.GET("/me", meHandler.GetMe)

		// ------------------------------
		// BOOKINGS
		// ------------------------------
		api.GET("/bookings", bookingHandler.List)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.PATCH("/bookings/:id/cancel", bookingHandler.Cancel)
		api.PATCH("/bookings/:id/complete", bookingHandler.Complete)
		api.GET("/bookings/:id/notes", bookingHandler.GetNotes)
		api.PUT("/bookings/:id/notes", bookingHandler.SaveNotes)
		api.POST("/bookings/:id/report", bookingHandler.Report)

		// ------------------------------
		// ADMIN
		// ------------------------------
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(domain.RoleAdmin))
		{
			admin.POST("/bookings/:id/adjudicate", adminHandler.Adjudicate)
			admin.GET("/settlements/export", adminHandler.ExportSettlements)
			admin.GET("/audit-logs", auditLogsHandler.List)
		}
	}
}
