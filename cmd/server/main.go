// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	_ "thermal-printer/docs"
	"thermal-printer/internal/config"
	"thermal-printer/internal/events"
	"thermal-printer/internal/printer"
	"thermal-printer/internal/protocol"
	"thermal-printer/internal/routes"
	"thermal-printer/internal/service"
	"thermal-printer/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server

	opener       *protocol.SerialOpener
	controller   *printer.Controller
	eventBus     *events.EventBus
	printService *service.PrintService
}

// @title Thermal Printer API
// @version 1.0.0
// @description Receipt printing on a serial thermal printer

// @contact.name Thermal Printer API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
// @BasePath /
func main() {
	configDir := pflag.String("config", "", "directory containing config.yaml")
	port := pflag.String("port", "", "serial port of the printer (overrides config)")
	listPorts := pflag.Bool("list-ports", false, "print available serial ports and exit")
	pflag.Parse()

	if *listPorts {
		ports, err := protocol.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list serial ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	app, err := NewApplication(*configDir, *port)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication(configDir, portOverride string) (*Application, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}

	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if portOverride != "" {
		cfg.Printer.Port = portOverride
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "thermal-printer")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializePrinter(); err != nil {
		return nil, fmt.Errorf("failed to initialize printer: %w", err)
	}

	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializePrinter opens the serial port and sends the startup sequence
func (app *Application) initializePrinter() error {
	printerLogger := utils.NewPrinterLogger(app.logger, app.config.Printer.Port)

	app.opener = protocol.NewSerialOpener(app.config.SerialSettings(), app.logger)

	controller, err := printer.Dial(app.opener, app.config.Printer.Port, app.config.PrinterSettings(), printerLogger.Logger)
	printerLogger.LogConnection("open", err)
	if err != nil {
		return err
	}

	app.controller = controller
	return nil
}

// initializeServices creates the event bus and print service
func (app *Application) initializeServices() {
	app.eventBus = events.NewEventBus(app.logger)
	app.printService = service.NewPrintService(app.controller, app.eventBus, app.config.Jobs, app.logger)

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	router := routes.NewRouter(
		app.config,
		app.logger,
		app.printService,
		app.eventBus,
		app.opener.Connection(),
		protocol.ListPorts,
	).SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go app.eventBus.Start()

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()
	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown stops the server first so no job is cut off by closing the port
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "thermal-printer")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.eventBus.Stop()

	if err := app.controller.Close(); err != nil {
		app.logger.Error("Printer close error", zap.Error(err))
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
