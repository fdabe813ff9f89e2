// =============================================================================
// CSV to Tally Sync - Configuration Module
// =============================================================================
//
// This module loads and validates the run configuration.
//
// SOURCES (later wins):
//   1. Built-in defaults (applyDefaults)
//   2. The YAML config file (config.yaml)
//   3. Environment variables prefixed with TALLYSYNC_
//      (e.g. TALLYSYNC_ENDPOINT_URL, TALLYSYNC_RETRY_MAX_ATTEMPTS)
//   4. Command-line flags, applied by the cmd package
//
// Validate must be called once all sources have been applied.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/validation"
)

const (
	// EnvPrefix is the prefix of every environment override.
	EnvPrefix = "TALLYSYNC"

	// DefaultEndpointURL is where Tally listens for XML imports out of the box.
	DefaultEndpointURL = "http://localhost:9000"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds everything a sync run needs.
type Config struct {
	// =========================================================================
	// TARGET SETTINGS
	// =========================================================================

	// EndpointURL is the Tally XML import address.
	// Default: "http://localhost:9000"
	EndpointURL string `yaml:"endpoint_url" envconfig:"ENDPOINT_URL" validate:"required,url"`

	// CompanyName is the Tally company vouchers are posted into.
	CompanyName string `yaml:"company_name" envconfig:"COMPANY_NAME" validate:"notblank"`

	// RequestTimeout bounds each call to the endpoint.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`

	// RateLimit caps requests per second. 0 disables pacing.
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`

	// Retry controls retries of transport failures.
	Retry RetrySettings `yaml:"retry" envconfig:"RETRY"`

	// DedupeLedgers skips ledger creation for names already accepted during
	// the same run.
	// Default: true
	DedupeLedgers *bool `yaml:"dedupe_ledgers" envconfig:"DEDUPE_LEDGERS"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// InputPath is the .csv or .xlsx file to read.
	InputPath string `yaml:"input_path" envconfig:"INPUT_PATH" validate:"notblank"`

	// CSVSettings contains settings for parsing CSV input.
	CSVSettings CSVSettings `yaml:"csv_settings" envconfig:"CSV"`

	// SheetName is the worksheet to read from .xlsx input.
	// Default: the first sheet
	SheetName string `yaml:"sheet_name" envconfig:"SHEET_NAME"`

	// Columns maps record fields to input header names.
	Columns Columns `yaml:"columns" ignored:"true"`

	// =========================================================================
	// VOUCHER SETTINGS
	// =========================================================================

	// Narration is the voucher narration.
	// Default: "Sales Entry"
	Narration string `yaml:"narration" envconfig:"NARRATION"`

	// VoucherType is the voucher type name.
	// Default: "Sales"
	VoucherType string `yaml:"voucher_type" envconfig:"VOUCHER_TYPE"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// LogFormat selects "text" or "json" log lines.
	// Default: "text"
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT" validate:"oneof=text json"`

	// ReportDir receives a run report file when set.
	ReportDir string `yaml:"report_dir" envconfig:"REPORT_DIR"`
}

// RetrySettings controls retries of transport failures.
type RetrySettings struct {
	// MaxAttempts is the total number of attempts per call. 1 means no retry.
	// Default: 1
	MaxAttempts int `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1,max=10"`

	// Backoff is the wait before the first retry; it doubles per retry.
	// Default: 500ms
	Backoff time.Duration `yaml:"backoff" envconfig:"BACKOFF" validate:"gte=0"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER"`

	// Encoding is the character encoding of the CSV file.
	// Supported: "UTF-8", "ISO-8859-1", "Windows-1252"
	// Default: "UTF-8"
	Encoding string `yaml:"encoding" envconfig:"ENCODING" validate:"oneof=UTF-8 ISO-8859-1 Windows-1252"`
}

// Columns holds the header names of the four record fields.
type Columns struct {
	Date        string `yaml:"date" validate:"notblank"`
	PartyLedger string `yaml:"party_ledger" validate:"notblank"`
	SalesLedger string `yaml:"sales_ledger" validate:"notblank"`
	Amount      string `yaml:"amount" validate:"notblank"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load builds a configuration from defaults, the YAML file at configPath
// (skipped when empty) and the environment.
//
// RETURNS:
//   - The configuration, not yet validated.
//   - An error if the file cannot be read or parsed.
func Load(configPath string) (*Config, error) {
	config := &Config{}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	applyDefaults(config)

	return config, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(config *Config) {
	if config.EndpointURL == "" {
		config.EndpointURL = DefaultEndpointURL
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.Retry.MaxAttempts == 0 {
		config.Retry.MaxAttempts = 1
	}
	if config.Retry.Backoff == 0 {
		config.Retry.Backoff = 500 * time.Millisecond
	}
	if config.DedupeLedgers == nil {
		enabled := true
		config.DedupeLedgers = &enabled
	}
	if config.CSVSettings.Delimiter == "" {
		config.CSVSettings.Delimiter = ","
	}
	if config.CSVSettings.Encoding == "" {
		config.CSVSettings.Encoding = "UTF-8"
	}
	if config.Columns.Date == "" {
		config.Columns.Date = "Date"
	}
	if config.Columns.PartyLedger == "" {
		config.Columns.PartyLedger = "PartyLedger"
	}
	if config.Columns.SalesLedger == "" {
		config.Columns.SalesLedger = "SalesLedger"
	}
	if config.Columns.Amount == "" {
		config.Columns.Amount = "Amount"
	}
	if config.Narration == "" {
		config.Narration = "Sales Entry"
	}
	if config.VoucherType == "" {
		config.VoucherType = "Sales"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "text"
	}
	config.LogLevel = strings.ToLower(config.LogLevel)
	config.LogFormat = strings.ToLower(config.LogFormat)
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if err := validation.Validator().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Dedupe reports whether in-run ledger deduplication is on.
func (c *Config) Dedupe() bool {
	return c.DedupeLedgers == nil || *c.DedupeLedgers
}
