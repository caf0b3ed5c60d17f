package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port            string
	RequestTimeout  time.Duration
	WritesPerMinute int

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL         string
	AMQPExchange    string
	AMQPDriftQueue  string
	AMQPEventsQueue string

	// Ledger
	DefaultUserID           string
	InstallmentRoundingUnit int
	TransferRetryAttempts   int
	TransferRetryBase       time.Duration
	SeedFile                string

	// Receipt and voice extraction
	GeminiAPIKey     string
	GeminiModel      string
	ExtractCacheSize int
	ExtractCacheTTL  time.Duration

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleExportSheet   string

	// Backend selection
	DataBackend string

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		WritesPerMinute: getEnvInt("RATE_LIMIT_WRITES_PER_MINUTE", 60),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/finanzas.db"),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "finanzas"),
		AMQPDriftQueue:  getEnv("AMQP_DRIFT_QUEUE", "ledger_drift"),
		AMQPEventsQueue: getEnv("AMQP_EVENTS_QUEUE", "ledger_events"),

		DefaultUserID:           getEnv("DEFAULT_USER_ID", "local"),
		InstallmentRoundingUnit: getEnvInt("INSTALLMENT_ROUNDING_UNIT", 1),
		TransferRetryAttempts:   getEnvInt("TRANSFER_RETRY_ATTEMPTS", 3),
		TransferRetryBase:       getEnvDuration("TRANSFER_RETRY_BASE", 200*time.Millisecond),
		SeedFile:                getEnv("SEED_FILE", ""),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		ExtractCacheSize: getEnvInt("EXTRACT_CACHE_SIZE", 100),
		ExtractCacheTTL:  getEnvDuration("EXTRACT_CACHE_TTL", time.Hour),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleExportSheet:   getEnv("GOOGLE_EXPORT_SHEET", "Movimientos"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 100ms", c.RequestTimeout))
	}

	if c.WritesPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid write rate limit %d: must be at least 1 per minute", c.WritesPerMinute))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// AMQP is optional; without it drift alerts are only logged
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPDriftQueue == "" {
			errors = append(errors, "AMQP drift queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPEventsQueue == "" {
			errors = append(errors, "AMQP events queue name cannot be empty when AMQP URL is provided")
		}
	}

	if strings.TrimSpace(c.DefaultUserID) == "" {
		errors = append(errors, "default user id cannot be empty")
	}

	if c.InstallmentRoundingUnit < 1 {
		errors = append(errors, fmt.Sprintf("invalid installment rounding unit %d: must be at least 1", c.InstallmentRoundingUnit))
	}

	if c.TransferRetryAttempts < 1 || c.TransferRetryAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid transfer retry attempts %d: must be between 1 and 10", c.TransferRetryAttempts))
	}
	if c.TransferRetryBase < 0 || c.TransferRetryBase > 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid transfer retry base %v: must be between 0 and 10s", c.TransferRetryBase))
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.SeedFile))
		}
	}

	// Extraction is only enabled with an API key
	if c.GeminiAPIKey != "" {
		if c.GeminiModel == "" {
			errors = append(errors, "Gemini model cannot be empty when GEMINI_API_KEY is provided")
		}
		if c.ExtractCacheSize < 1 || c.ExtractCacheSize > 10000 {
			errors = append(errors, fmt.Sprintf("invalid extract cache size %d: must be between 1 and 10000", c.ExtractCacheSize))
		}
		if c.ExtractCacheTTL < time.Second {
			errors = append(errors, fmt.Sprintf("invalid extract cache TTL %v: must be at least 1 second", c.ExtractCacheTTL))
		}
	}

	if c.GoogleSpreadsheetID != "" && c.GoogleExportSheet == "" {
		errors = append(errors, "Google export sheet name is required when GOOGLE_SPREADSHEET_ID is provided")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ExtractionEnabled reports whether receipt and voice extraction can run.
func (c *Config) ExtractionEnabled() bool {
	return c.GeminiAPIKey != ""
}

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
