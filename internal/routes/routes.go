// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"thermal-printer/internal/config"
	"thermal-printer/internal/events"
	"thermal-printer/internal/handler"
	"thermal-printer/internal/middleware"
	"thermal-printer/internal/service"
	"thermal-printer/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	printService *service.PrintService
	eventBus     *events.EventBus
	transport    handler.TransportStatus
	listPorts    func() ([]string, error)
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	printService *service.PrintService,
	eventBus *events.EventBus,
	transport handler.TransportStatus,
	listPorts func() ([]string, error),
) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		printService: printService,
		eventBus:     eventBus,
		transport:    transport,
		listPorts:    listPorts,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)
	r.addDocumentationRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(utils.NewServiceLogger(r.logger, "http-server")))
	router.Use(middleware.CORSMiddleware(&r.config.Security))
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.transport, r.config, r.logger)
	jobHandler := handler.NewJobHandler(r.printService, r.logger)
	portHandler := handler.NewPortHandler(r.listPorts, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.eventBus, r.logger)

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	apiV1 := router.Group("/api/v1")
	{
		jobs := apiV1.Group("/jobs")
		jobs.POST("", jobHandler.SubmitJob)
		jobs.GET("", jobHandler.ListJobs)
		jobs.GET("/:job_id", jobHandler.GetJob)

		apiV1.POST("/printer/:mode", jobHandler.SetPrinterMode)
		apiV1.GET("/ports", portHandler.ListPorts)
	}

	router.GET("/ws/events", wsHandler.HandleEventConnection)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Swagger redirect for convenience
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
