// internal/handler/port_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"thermal-printer/internal/utils"
)

// PortHandler lists serial ports on the host
type PortHandler struct {
	listPorts func() ([]string, error)
	logger    *utils.ServiceLogger
}

// NewPortHandler creates a port handler backed by listPorts
func NewPortHandler(listPorts func() ([]string, error), logger *zap.Logger) *PortHandler {
	return &PortHandler{
		listPorts: listPorts,
		logger:    utils.NewServiceLogger(logger, "port-handler"),
	}
}

// ListPorts returns the available serial ports
// @Summary List serial ports
// @Description List serial ports present on the host
// @Tags Ports
// @Produce json
// @Success 200 {object} utils.APIResponse "Serial ports retrieved"
// @Failure 500 {object} utils.APIResponse "Failed to list serial ports"
// @Router /api/v1/ports [get]
func (h *PortHandler) ListPorts(c *gin.Context) {
	ports, err := h.listPorts()
	if err != nil {
		h.logger.Error("Failed to list serial ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list serial ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Serial ports retrieved", gin.H{
		"ports": ports,
		"count": len(ports),
	})
}
