// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"thermal-printer/internal/printer"
	"thermal-printer/internal/protocol"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Security SecurityConfig `mapstructure:"security"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// PrinterConfig represents the serial line and print head settings.
// Heating values are ints here so out-of-range input is caught by validate
// rather than silently truncated.
type PrinterConfig struct {
	Port           string        `mapstructure:"port"`
	BaudRate       int           `mapstructure:"baud_rate"`
	DataBits       int           `mapstructure:"data_bits"`
	StopBits       int           `mapstructure:"stop_bits"`
	Parity         string        `mapstructure:"parity"`
	Timeout        time.Duration `mapstructure:"timeout"`
	HeatingDots    int           `mapstructure:"heating_dots"`
	HeatTime       int           `mapstructure:"heat_time"`
	HeatInterval   int           `mapstructure:"heat_interval"`
	PrintDensity   int           `mapstructure:"print_density"`
	PrintBreakTime int           `mapstructure:"print_break_time"`
}

// JobsConfig bounds receipt jobs
type JobsConfig struct {
	HistorySize int `mapstructure:"history_size"`
	MaxLines    int `mapstructure:"max_lines"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// Load loads configuration from config.yaml (if present) and environment variables
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./internal/config", "/etc/thermal-printer"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable support
	v.SetEnvPrefix("THERMAL_PRINTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// Printer defaults
	v.SetDefault("printer.port", printer.DefaultPort)
	v.SetDefault("printer.baud_rate", printer.BaudRate)
	v.SetDefault("printer.data_bits", 8)
	v.SetDefault("printer.stop_bits", 1)
	v.SetDefault("printer.parity", "none")
	v.SetDefault("printer.timeout", "3s")
	v.SetDefault("printer.heating_dots", int(printer.DefaultHeatingDots))
	v.SetDefault("printer.heat_time", int(printer.DefaultHeatTime))
	v.SetDefault("printer.heat_interval", int(printer.DefaultHeatInterval))
	v.SetDefault("printer.print_density", int(printer.DefaultPrintDensity))
	v.SetDefault("printer.print_break_time", int(printer.DefaultPrintBreakTime))

	// Job defaults
	v.SetDefault("jobs.history_size", 100)
	v.SetDefault("jobs.max_lines", 200)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// App defaults
	v.SetDefault("app.name", "thermal-printer")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Printer.Port == "" {
		return fmt.Errorf("printer.port is required")
	}
	if config.Printer.BaudRate != printer.BaudRate {
		return fmt.Errorf("printer.baud_rate must be %d", printer.BaudRate)
	}

	for _, field := range []struct {
		name  string
		value int
		max   int
	}{
		{"printer.heating_dots", config.Printer.HeatingDots, 255},
		{"printer.heat_time", config.Printer.HeatTime, 255},
		{"printer.heat_interval", config.Printer.HeatInterval, 255},
		{"printer.print_density", config.Printer.PrintDensity, 15},
		{"printer.print_break_time", config.Printer.PrintBreakTime, 15},
	} {
		if field.value < 0 || field.value > field.max {
			return fmt.Errorf("%s must be in [0,%d], got %d", field.name, field.max, field.value)
		}
	}

	if config.Jobs.HistorySize < 1 {
		return fmt.Errorf("jobs.history_size must be positive")
	}
	if config.Jobs.MaxLines < 1 {
		return fmt.Errorf("jobs.max_lines must be positive")
	}

	// Validate environment
	if !contains([]string{"development", "staging", "production", "test"}, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: development, staging, production, test")
	}

	// Validate logging level
	if !contains([]string{"debug", "info", "warn", "error", "fatal"}, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, fatal")
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// PrinterSettings returns the controller configuration. Ranges were checked by validate.
func (c *Config) PrinterSettings() printer.Config {
	return printer.Config{
		Heating: printer.HeatingConfig{
			HeatingDots:  uint8(c.Printer.HeatingDots),
			HeatTime:     uint8(c.Printer.HeatTime),
			HeatInterval: uint8(c.Printer.HeatInterval),
		},
		Density: printer.DensityConfig{
			Density:   uint8(c.Printer.PrintDensity),
			BreakTime: uint8(c.Printer.PrintBreakTime),
		},
	}
}

// SerialSettings returns the line settings used by the serial opener
func (c *Config) SerialSettings() protocol.SerialConfig {
	return protocol.SerialConfig{
		Port:     c.Printer.Port,
		BaudRate: c.Printer.BaudRate,
		DataBits: c.Printer.DataBits,
		StopBits: c.Printer.StopBits,
		Parity:   c.Printer.Parity,
		Timeout:  c.Printer.Timeout,
	}
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
