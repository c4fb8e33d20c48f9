package routes

import (
	"net/http"
	"time"

	"mediq/handlers"
	"mediq/middleware"
	"mediq/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers the patient-facing intake endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.POST("", hb.StartChat)
		api.POST("/:sessionID/messages", hb.PostMessage)
		api.GET("/:sessionID", hb.GetSession)
		api.POST("/:sessionID/hold", hb.RequestHold)
		api.POST("/:sessionID/confirm", hb.ConfirmAppointment)
	}
}

// RegisterDoctorRoutes registers the doctor directory endpoints.
func RegisterDoctorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/doctors")
	{
		api.GET("", hb.ListDoctors)
		api.GET("/:id/slots", hb.GetDoctorSlots)
	}
}

// RegisterAppointmentRoutes registers the booked-appointment reads the
// admin panel consumes.
func RegisterAppointmentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/appointments")
	{
		api.GET("", hb.ListAppointments)
		api.GET("/:id", hb.GetAppointment)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// SetupRouter wires middleware and all route groups.
func SetupRouter(hb *handlers.HandlerBundle) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(router)
	RegisterChatRoutes(router, hb)
	RegisterDoctorRoutes(router, hb)
	RegisterAppointmentRoutes(router, hb)
	return router
}
