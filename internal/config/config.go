// Package config defines the environment-provided configuration for the
// sales ingest pipeline. Configuration is loaded once at process
// initialization (Lambda cold start) and is immutable thereafter.
//
// Values come from the OS environment, optionally seeded from a .env file
// for local development. Any missing required value or invalid format fails
// the load immediately (fail fast).
package config

import (
	"fmt"
	"time"

	"salespipe/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used to prevent accidental logging of sensitive values.
type SecretString = types.SecretString

// Config is the top-level configuration struct. Sub-components receive only
// the specific subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"dev" validate:"oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Database DatabaseConfig
	AWS      AWSConfig
	Pipeline PipelineConfig
	Server   ServerConfig
}

// DatabaseConfig holds the transactional-store connection parameters and
// pool tuning.
type DatabaseConfig struct {
	Host     string       `envconfig:"DB_HOST" validate:"required"`
	Port     int          `envconfig:"DB_PORT" default:"5432"`
	Name     string       `envconfig:"DB_NAME" default:"salesdb"`
	User     string       `envconfig:"DB_USER" default:"postgres"`
	Password SecretString `envconfig:"DB_PASSWORD" validate:"required"`

	MaxConns        int           `envconfig:"DB_MAX_CONNS" default:"4"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
}

// URL builds a pgx connection string. The password is unmasked here and
// nowhere else.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		d.User, d.Password.Unmask(), d.Host, d.Port, d.Name)
}

// AWSConfig holds AWS regional configuration and resource identifiers.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// AlertTopicARN is the SNS topic for data-quality alerts. Optional:
	// when empty, alerting is disabled entirely.
	AlertTopicARN string `envconfig:"SNS_TOPIC_ARN"`

	// EndpointURL overrides the AWS endpoint for LocalStack. Empty in prod.
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// PipelineConfig holds ingest tunables.
type PipelineConfig struct {
	// MetricNamespace is the CloudWatch namespace for batch counters.
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"SalesETL"`

	// QualityAlertThreshold is the quality-rate percentage below which a
	// batch raises an alert.
	QualityAlertThreshold float64 `envconfig:"QUALITY_ALERT_THRESHOLD" default:"90"`

	// RawMarker and ProcessedMarker derive the archive bucket from the
	// input bucket (sales-raw-... -> sales-processed-...).
	RawMarker       string `envconfig:"ARCHIVE_RAW_MARKER" default:"raw"`
	ProcessedMarker string `envconfig:"ARCHIVE_PROCESSED_MARKER" default:"processed"`

	// ArchiveSuffix is appended to the object name before the extension.
	ArchiveSuffix string `envconfig:"ARCHIVE_SUFFIX" default:"_processed"`
}

// ServerConfig holds settings for the reporting dashboard API.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}
