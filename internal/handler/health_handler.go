// internal/handler/health_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thermal-printer/internal/config"
	"thermal-printer/internal/protocol"
	"thermal-printer/internal/utils"
)

// TransportStatus reports on the printer's serial line
type TransportStatus interface {
	IsOpen() bool
	Stats() protocol.ProtocolStats
}

// HealthHandler handles health check requests
type HealthHandler struct {
	transport TransportStatus
	config    *config.Config
	logger    *utils.ServiceLogger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(transport TransportStatus, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		transport: transport,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startTime: time.Now(),
	}
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// HealthCheck reports overall health including the serial transport
// @Summary Health check
// @Description Get overall service health including the serial transport
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]CheckResult),
	}

	if h.transport == nil || !h.transport.IsOpen() {
		health.Status = "unhealthy"
		health.Checks["printer"] = CheckResult{
			Status:  "unhealthy",
			Message: "Serial port not open",
		}
	} else {
		stats := h.transport.Stats()
		health.Checks["printer"] = CheckResult{
			Status:  "healthy",
			Message: "Serial port open",
			Data: map[string]interface{}{
				"port":            h.config.Printer.Port,
				"bytes_written":   stats.BytesWritten,
				"operation_count": stats.OperationCount,
				"error_count":     stats.ErrorCount,
				"last_activity":   stats.LastActivity,
			},
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		h.logger.Warn("Health check failed", zap.String("port", h.config.Printer.Port))
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ReadinessCheck is ready once the serial port is open
// @Summary Readiness check
// @Description Check if the serial port is open and the service can print
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is ready"
// @Failure 503 {object} map[string]interface{} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.transport == nil || !h.transport.IsOpen() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "printer transport not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck answers as long as the process serves requests
// @Summary Liveness check
// @Description Check if service is alive
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}
