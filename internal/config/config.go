// Package config provides configuration management for the Clipmark Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// Default values
	DefaultPort         = 8791
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".clipmark"
	DefaultExtractorURL = "http://127.0.0.1:5000"
	DefaultPlayerURL    = "http://127.0.0.1:8972"
	DefaultFormatID     = "best"

	// Environment variable names
	EnvPort         = "CLIPMARK_PORT"
	EnvLogLevel     = "CLIPMARK_LOG_LEVEL"
	EnvLogFile      = "CLIPMARK_LOG_FILE"
	EnvDataDir      = "CLIPMARK_DATA_DIR"
	EnvExtractorURL = "CLIPMARK_EXTRACTOR_URL"
	EnvPlayerURL    = "CLIPMARK_PLAYER_URL"
	EnvFormatID     = "CLIPMARK_FORMAT_ID"
	EnvHeadless     = "CLIPMARK_HEADLESS"

	// Database filename
	DBFilename = "clipmark.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFile() string
	DataDir() string
	DBPath() string
	ExtractorURL() string
	PlayerURL() string
	FormatID() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	logFile      string
	dataDir      string
	extractorURL string
	playerURL    string
	formatID     string
	headless     bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		extractorURL: DefaultExtractorURL,
		playerURL:    DefaultPlayerURL,
		formatID:     DefaultFormatID,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	cfg.logFile = os.Getenv(EnvLogFile)

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if eu := os.Getenv(EnvExtractorURL); eu != "" {
		cfg.extractorURL = eu
	}

	if pu := os.Getenv(EnvPlayerURL); pu != "" {
		cfg.playerURL = pu
	}

	if f := os.Getenv(EnvFormatID); f != "" {
		cfg.formatID = f
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// LogFile returns the rotating log file path, or "" for stdout
func (c *EnvConfig) LogFile() string {
	return c.logFile
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ExtractorURL returns the base URL of the clip extraction worker
func (c *EnvConfig) ExtractorURL() string {
	return c.extractorURL
}

// PlayerURL returns the base URL of the player bridge
func (c *EnvConfig) PlayerURL() string {
	return c.playerURL
}

// FormatID returns the format selector passed through to the extraction worker
func (c *EnvConfig) FormatID() string {
	return c.formatID
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
