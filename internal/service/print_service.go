// internal/service/print_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thermal-printer/internal/config"
	"thermal-printer/internal/events"
	"thermal-printer/internal/model"
	"thermal-printer/internal/printer"
	"thermal-printer/internal/utils"
)

var (
	// ErrInvalidJob is returned for jobs rejected before any byte is sent
	ErrInvalidJob = errors.New("invalid print job")
	// ErrJobNotFound is returned for unknown or evicted job ids
	ErrJobNotFound = errors.New("job not found")
)

const maxFeed = 255

// Printer is the controller surface used by the service
type Printer interface {
	Do(fn func(s *printer.Session) error) error
	Online() error
	Offline() error
	Reset() error
}

// PrintService runs receipt jobs against one printer
type PrintService struct {
	printer  Printer
	eventBus *events.EventBus
	config   config.JobsConfig
	logger   *utils.ServiceLogger

	mutex   sync.RWMutex
	history []*model.JobRecord
	index   map[uuid.UUID]*model.JobRecord
}

// NewPrintService creates a new print service instance
func NewPrintService(p Printer, eventBus *events.EventBus, cfg config.JobsConfig, logger *zap.Logger) *PrintService {
	return &PrintService{
		printer:  p,
		eventBus: eventBus,
		config:   cfg,
		logger:   utils.NewServiceLogger(logger, "print-service"),
		index:    make(map[uuid.UUID]*model.JobRecord),
	}
}

// Submit validates and prints a job. The whole job holds the printer, so
// lines of concurrent jobs never interleave. The returned record is valid
// even when err is a print failure.
func (ps *PrintService) Submit(ctx context.Context, job *model.Job) (*model.JobRecord, error) {
	if err := ps.validate(job); err != nil {
		return nil, err
	}

	record := &model.JobRecord{
		ID:        uuid.New(),
		Status:    model.JobStatusPending,
		LineCount: len(job.Lines),
		CreatedAt: time.Now(),
	}
	ps.remember(record)

	if err := ctx.Err(); err != nil {
		ps.finish(record, fmt.Errorf("job not started: %w", err))
		return ps.snapshot(record), err
	}

	jobLogger := utils.NewJobLogger(ps.logger.Logger, record.ID.String())

	err := ps.printer.Do(func(s *printer.Session) error {
		ps.start(record)
		jobLogger.Start(zap.Int("lines", len(job.Lines)))

		for i, line := range job.Lines {
			if err := printLine(s, line); err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}
		}
		return nil
	})

	ps.finish(record, err)
	if err != nil {
		jobLogger.Error(err, zap.String("failed_command", record.FailedCommand))
		return ps.snapshot(record), err
	}

	jobLogger.Success()
	return ps.snapshot(record), nil
}

// printLine emits one formatted line followed by 1+Feed linefeeds.
// Every mode switched on for the line is switched off again.
func printLine(s *printer.Session, line model.Line) error {
	if line.Justify != "" {
		j, err := printer.ParseJustification(line.Justify)
		if err != nil {
			return err
		}
		if err := s.Justify(j); err != nil {
			return err
		}
	}

	body := func(s *printer.Session) error {
		return s.PrintText([]byte(line.Text))
	}
	if line.DoubleWidth {
		inner := body
		body = func(s *printer.Session) error { return s.DoubleWidth(inner) }
	}
	if line.Bold {
		inner := body
		body = func(s *printer.Session) error { return s.Bold(inner) }
	}
	if line.UpsideDown {
		inner := body
		body = func(s *printer.Session) error { return s.Scoped(s.UpDownOn, s.UpDownOff, inner) }
	}
	if line.Inverse {
		inner := body
		body = func(s *printer.Session) error { return s.Scoped(s.InverseOn, s.InverseOff, inner) }
	}

	if err := body(s); err != nil {
		return err
	}

	for i := 0; i <= line.Feed; i++ {
		if err := s.Linefeed(); err != nil {
			return err
		}
	}
	return nil
}

// validate rejects jobs before anything reaches the printer
func (ps *PrintService) validate(job *model.Job) error {
	if job == nil || len(job.Lines) == 0 {
		return fmt.Errorf("%w: at least one line is required", ErrInvalidJob)
	}
	if len(job.Lines) > ps.config.MaxLines {
		return fmt.Errorf("%w: %d lines exceeds limit of %d", ErrInvalidJob, len(job.Lines), ps.config.MaxLines)
	}

	for i, line := range job.Lines {
		if line.Justify != "" {
			if _, err := printer.ParseJustification(line.Justify); err != nil {
				return fmt.Errorf("%w: line %d: %v", ErrInvalidJob, i, err)
			}
		}
		if line.Feed < 0 || line.Feed > maxFeed {
			return fmt.Errorf("%w: line %d: feed must be in [0,%d]", ErrInvalidJob, i, maxFeed)
		}
		// Command prefixes inside text would be parsed as commands
		if strings.ContainsAny(line.Text, string([]byte{printer.ESC, printer.GS, printer.DC2})) {
			return fmt.Errorf("%w: line %d: text contains printer control bytes", ErrInvalidJob, i)
		}
	}

	return nil
}

// SetMode sends online, offline or reset
func (ps *PrintService) SetMode(ctx context.Context, mode model.PrinterMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch mode {
	case model.PrinterModeOnline:
		err = ps.printer.Online()
	case model.PrinterModeOffline:
		err = ps.printer.Offline()
	case model.PrinterModeReset:
		err = ps.printer.Reset()
	default:
		return fmt.Errorf("%w: unknown printer mode %q", ErrInvalidJob, mode)
	}

	data := map[string]interface{}{"mode": string(mode), "success": err == nil}
	if err != nil {
		data["error"] = err.Error()
		ps.logger.Error("Failed to set printer mode", zap.String("mode", string(mode)), zap.Error(err))
	} else {
		ps.logger.Info("Printer mode set", zap.String("mode", string(mode)))
	}
	ps.publish(events.TypePrinterMode, data)

	return err
}

// GetJob returns a job by id
func (ps *PrintService) GetJob(id uuid.UUID) (*model.JobRecord, error) {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	record, ok := ps.index[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	copied := *record
	return &copied, nil
}

// ListJobs returns up to limit jobs, newest first. limit <= 0 returns all.
func (ps *PrintService) ListJobs(limit int) []*model.JobRecord {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	if limit <= 0 || limit > len(ps.history) {
		limit = len(ps.history)
	}

	result := make([]*model.JobRecord, 0, limit)
	for i := len(ps.history) - 1; i >= 0 && len(result) < limit; i-- {
		copied := *ps.history[i]
		result = append(result, &copied)
	}
	return result
}

// remember stores a record, evicting the oldest beyond history_size
func (ps *PrintService) remember(record *model.JobRecord) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.history = append(ps.history, record)
	ps.index[record.ID] = record

	for len(ps.history) > ps.config.HistorySize {
		delete(ps.index, ps.history[0].ID)
		ps.history[0] = nil
		ps.history = ps.history[1:]
	}
}

func (ps *PrintService) start(record *model.JobRecord) {
	ps.mutex.Lock()
	now := time.Now()
	record.Status = model.JobStatusProcessing
	record.StartedAt = &now
	ps.mutex.Unlock()

	ps.publish(events.TypeJobStarted, map[string]interface{}{
		"job_id": record.ID.String(),
		"lines":  record.LineCount,
	})
}

func (ps *PrintService) finish(record *model.JobRecord, err error) {
	ps.mutex.Lock()
	now := time.Now()
	record.CompletedAt = &now
	if record.StartedAt != nil {
		duration := now.Sub(*record.StartedAt).Milliseconds()
		record.DurationMs = &duration
	}
	if err != nil {
		message := err.Error()
		record.Status = model.JobStatusFailed
		record.ErrorMessage = &message
		record.FailedCommand = printer.FailedCommand(err)
	} else {
		record.Status = model.JobStatusSuccess
	}
	ps.mutex.Unlock()

	data := map[string]interface{}{
		"job_id": record.ID.String(),
		"status": string(record.Status),
	}
	if err != nil {
		data["error"] = err.Error()
		data["failed_command"] = record.FailedCommand
		ps.publish(events.TypeJobFailed, data)
		return
	}
	ps.publish(events.TypeJobCompleted, data)
}

func (ps *PrintService) snapshot(record *model.JobRecord) *model.JobRecord {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()
	copied := *record
	return &copied
}

func (ps *PrintService) publish(eventType string, data map[string]interface{}) {
	if ps.eventBus == nil {
		return
	}
	ps.eventBus.Publish(events.Event{
		Type:      eventType,
		Source:    "print-service",
		Data:      data,
		Timestamp: time.Now(),
	})
}
