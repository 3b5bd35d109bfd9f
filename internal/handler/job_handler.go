// internal/handler/job_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"thermal-printer/internal/model"
	"thermal-printer/internal/printer"
	"thermal-printer/internal/service"
	"thermal-printer/internal/utils"
)

// JobHandler handles print job and printer mode requests
type JobHandler struct {
	printService *service.PrintService
	logger       *utils.ServiceLogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(printService *service.PrintService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		printService: printService,
		logger:       utils.NewServiceLogger(logger, "job-handler"),
	}
}

// SubmitJob prints a receipt job
// @Summary Submit print job
// @Description Print a receipt job. All lines are printed without interruption by other jobs.
// @Tags Jobs
// @Accept json
// @Produce json
// @Param job body model.Job true "Receipt lines"
// @Success 200 {object} utils.APIResponse{data=model.JobRecord} "Print job completed"
// @Failure 400 {object} utils.APIResponse "Invalid job"
// @Failure 502 {object} utils.APIResponse "Printer write failed"
// @Failure 503 {object} utils.APIResponse "Printer unavailable"
// @Router /api/v1/jobs [post]
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var job model.Job
	if err := c.ShouldBindJSON(&job); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record, err := h.printService.Submit(c.Request.Context(), &job)
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Print job failed", zap.Error(err))
		}
		if record != nil && status != http.StatusBadRequest {
			c.JSON(status, utils.APIResponse{
				Success: false,
				Message: "Print job failed",
				Data:    record,
				Error: &utils.APIError{
					Code:    "PRINT_FAILED",
					Message: "Print job failed",
					Details: err.Error(),
				},
				Timestamp: *record.CompletedAt,
				RequestID: c.GetString(utils.RequestIDKey),
			})
			return
		}
		utils.ErrorResponse(c, status, "Print job rejected", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Print job completed", record)
}

// GetJob returns one job record
// @Summary Get print job
// @Description Get a print job by ID
// @Tags Jobs
// @Produce json
// @Param job_id path string true "Job ID" format(uuid)
// @Success 200 {object} utils.APIResponse{data=model.JobRecord} "Job retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid job ID"
// @Failure 404 {object} utils.APIResponse "Job not found"
// @Router /api/v1/jobs/{job_id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid job ID", err)
		return
	}

	record, err := h.printService.GetJob(jobID)
	if err != nil {
		utils.ErrorResponse(c, statusForError(err), "Job not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved", record)
}

// ListJobs returns recent jobs, newest first
// @Summary List print jobs
// @Description List recent print jobs, newest first
// @Tags Jobs
// @Produce json
// @Param limit query int false "Maximum number of jobs (0 returns all kept jobs)" default(20)
// @Success 200 {object} utils.APIResponse "Jobs retrieved"
// @Failure 400 {object} utils.APIResponse "Invalid limit"
// @Router /api/v1/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	jobs := h.printService.ListJobs(limit)
	utils.SuccessResponse(c, http.StatusOK, "Jobs retrieved", gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// SetPrinterMode sends online, offline or reset to the printer
// @Summary Set printer mode
// @Description Send online, offline or reset to the printer
// @Tags Printer
// @Produce json
// @Param mode path string true "Printer mode" Enums(online, offline, reset)
// @Success 200 {object} utils.APIResponse "Printer mode set"
// @Failure 400 {object} utils.APIResponse "Unknown mode"
// @Failure 502 {object} utils.APIResponse "Printer write failed"
// @Router /api/v1/printer/{mode} [post]
func (h *JobHandler) SetPrinterMode(c *gin.Context) {
	mode := model.PrinterMode(c.Param("mode"))

	if err := h.printService.SetMode(c.Request.Context(), mode); err != nil {
		utils.ErrorResponse(c, statusForError(err), "Failed to set printer mode", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer mode set", gin.H{"mode": mode})
}

// statusForError maps service and printer errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidJob), errors.Is(err, printer.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, printer.ErrTransportWriteFailed):
		return http.StatusBadGateway
	case errors.Is(err, printer.ErrTransportUnavailable), errors.Is(err, printer.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
