// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig provides the broker connection and per-queue worker settings.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetQueueConcurrency(queue string) int
	GetJobMaxRetry() int
	GetJobTimeout() time.Duration
	GetQueueKeepCompleted() int
	GetQueueKeepFailed() int
	GetRetentionInterval() time.Duration
}

// PipelineConfig provides timing knobs for the lead pipeline.
type PipelineConfig interface {
	GetRequalifyDelay() time.Duration
	GetEnrichmentTimeout() time.Duration
	GetAnalyticsCron() string
	GetOutreachFromAddress() string
	GetOutreachFromName() string
}

// EventsConfig provides settings for the live event channel.
type EventsConfig interface {
	GetRedisURL() string
	GetEventsChannel() string
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetBrevoAPIKey() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetOutreachFromAddress() string
	GetOutreachFromName() string
}

// AIConfig provides credentials for the language model collaborators.
type AIConfig interface {
	GetGoogleAPIKey() string
	GetQualificationModel() string
	GetMoonshotAPIKey() string
	GetMoonshotModel() string
}

// EnrichmentConfig provides credentials for company enrichment providers.
type EnrichmentConfig interface {
	GetClearbitAPIKey() string
	GetZoomInfoAPIKey() string
	GetApolloAPIKey() string
}

// CRMConfig provides credentials for CRM synchronisation.
type CRMConfig interface {
	GetHubSpotAccessToken() string
	GetPipedriveAPIToken() string
	GetSalesforce() SalesforceCredentials
}

// SalesforceCredentials drive the OAuth password flow. Sync is disabled
// unless every field except LoginURL is set.
type SalesforceCredentials struct {
	LoginURL      string
	ClientID      string
	ClientSecret  string
	Username      string
	Password      string
	SecurityToken string
}

// Complete reports whether the credentials can log in.
func (s SalesforceCredentials) Complete() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.Username != "" && s.Password != "" && s.SecurityToken != ""
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for the outbound content archive.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketOutreachArchive() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL          string
	RedisTLSInsecure  bool
	QueueConcurrency  map[string]int
	JobMaxRetry       int
	JobTimeout        time.Duration
	KeepCompleted     int
	KeepFailed        int
	RetentionInterval time.Duration
	EventsChannel     string

	RequalifyDelay      time.Duration
	EnrichmentTimeout   time.Duration
	AnalyticsCron       string
	OutreachFromAddress string
	OutreachFromName    string

	EmailEnabled bool
	BrevoAPIKey  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	GoogleAPIKey       string
	QualificationModel string
	MoonshotAPIKey     string
	MoonshotModel      string

	ClearbitAPIKey     string
	ZoomInfoAPIKey     string
	ApolloAPIKey       string
	HubSpotAccessToken string
	PipedriveAPIToken  string
	Salesforce         SalesforceCredentials

	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinioBucketOutreachArchive string
}

// Default per-queue concurrency. Qualification runs two sequential model
// calls and analytics is a full scan, so both stay lower.
var defaultConcurrency = map[string]int{
	"lead:intake":        3,
	"lead:qualification": 2,
	"outreach:dispatch":  3,
	"followup:execute":   3,
	"analytics:refresh":  1,
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetJobMaxRetry() int                  { return c.JobMaxRetry }
func (c *Config) GetJobTimeout() time.Duration         { return c.JobTimeout }
func (c *Config) GetQueueKeepCompleted() int           { return c.KeepCompleted }
func (c *Config) GetQueueKeepFailed() int              { return c.KeepFailed }
func (c *Config) GetRetentionInterval() time.Duration  { return c.RetentionInterval }
func (c *Config) GetQueueConcurrency(queue string) int {
	if n, ok := c.QueueConcurrency[queue]; ok && n > 0 {
		return n
	}
	if n, ok := defaultConcurrency[queue]; ok {
		return n
	}
	return 1
}

// EventsConfig implementation
func (c *Config) GetEventsChannel() string { return c.EventsChannel }

// PipelineConfig implementation
func (c *Config) GetRequalifyDelay() time.Duration    { return c.RequalifyDelay }
func (c *Config) GetEnrichmentTimeout() time.Duration { return c.EnrichmentTimeout }
func (c *Config) GetAnalyticsCron() string            { return c.AnalyticsCron }
func (c *Config) GetOutreachFromAddress() string      { return c.OutreachFromAddress }
func (c *Config) GetOutreachFromName() string         { return c.OutreachFromName }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool   { return c.EmailEnabled }
func (c *Config) GetBrevoAPIKey() string  { return c.BrevoAPIKey }
func (c *Config) GetSMTPHost() string     { return c.SMTPHost }
func (c *Config) GetSMTPPort() int        { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string { return c.SMTPPassword }

// AIConfig implementation
func (c *Config) GetGoogleAPIKey() string       { return c.GoogleAPIKey }
func (c *Config) GetQualificationModel() string { return c.QualificationModel }
func (c *Config) GetMoonshotAPIKey() string     { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotModel() string      { return c.MoonshotModel }

// EnrichmentConfig implementation
func (c *Config) GetClearbitAPIKey() string { return c.ClearbitAPIKey }
func (c *Config) GetZoomInfoAPIKey() string { return c.ZoomInfoAPIKey }
func (c *Config) GetApolloAPIKey() string   { return c.ApolloAPIKey }

// CRMConfig implementation
func (c *Config) GetHubSpotAccessToken() string { return c.HubSpotAccessToken }
func (c *Config) GetPipedriveAPIToken() string  { return c.PipedriveAPIToken }
func (c *Config) GetSalesforce() SalesforceCredentials {
	return c.Salesforce
}

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketOutreachArchive() string {
	return c.MinioBucketOutreachArchive
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (*Config, error) {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	brevoAPIKey := getEnv("BREVO_API_KEY", "")
	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		QueueConcurrency: map[string]int{
			"lead:intake":        mustInt(getEnv("QUEUE_CONCURRENCY_INTAKE", "3")),
			"lead:qualification": mustInt(getEnv("QUEUE_CONCURRENCY_QUALIFICATION", "2")),
			"outreach:dispatch":  mustInt(getEnv("QUEUE_CONCURRENCY_OUTREACH", "3")),
			"followup:execute":   mustInt(getEnv("QUEUE_CONCURRENCY_FOLLOWUP", "3")),
			"analytics:refresh":  mustInt(getEnv("QUEUE_CONCURRENCY_ANALYTICS", "1")),
		},
		JobMaxRetry:       mustInt(getEnv("JOB_MAX_RETRY", "5")),
		JobTimeout:        mustDuration(getEnv("JOB_TIMEOUT", "5m")),
		KeepCompleted:     mustInt(getEnv("QUEUE_KEEP_COMPLETED", "50")),
		KeepFailed:        mustInt(getEnv("QUEUE_KEEP_FAILED", "100")),
		RetentionInterval: mustDuration(getEnv("QUEUE_RETENTION_INTERVAL", "10m")),
		EventsChannel:     getEnv("EVENTS_CHANNEL", "revenue:events"),

		RequalifyDelay:      mustDuration(getEnv("REQUALIFY_DELAY", "15m")),
		EnrichmentTimeout:   mustDuration(getEnv("ENRICHMENT_TIMEOUT", "30s")),
		AnalyticsCron:       getEnv("ANALYTICS_CRON", "@hourly"),
		OutreachFromAddress: getEnv("OUTREACH_FROM_EMAIL", ""),
		OutreachFromName:    getEnv("OUTREACH_FROM_NAME", "Revenue Team"),

		EmailEnabled: emailEnabled && (brevoAPIKey != "" || smtpHost != ""),
		BrevoAPIKey:  brevoAPIKey,
		SMTPHost:     smtpHost,
		SMTPPort:     mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		GoogleAPIKey:       getEnv("GOOGLE_API_KEY", ""),
		QualificationModel: getEnv("QUALIFICATION_MODEL", "gemini-2.5-pro"),
		MoonshotAPIKey:     getEnv("MOONSHOT_API_KEY", ""),
		MoonshotModel:      getEnv("MOONSHOT_MODEL", "kimi-k2.5"),

		ClearbitAPIKey:     getEnv("CLEARBIT_API_KEY", ""),
		ZoomInfoAPIKey:     getEnv("ZOOMINFO_API_KEY", ""),
		ApolloAPIKey:       getEnv("APOLLO_API_KEY", ""),
		HubSpotAccessToken: getEnv("HUBSPOT_ACCESS_TOKEN", ""),
		PipedriveAPIToken:  getEnv("PIPEDRIVE_API_TOKEN", ""),
		Salesforce: SalesforceCredentials{
			LoginURL:      getEnv("SALESFORCE_LOGIN_URL", "https://login.salesforce.com"),
			ClientID:      getEnv("SALESFORCE_CLIENT_ID", ""),
			ClientSecret:  getEnv("SALESFORCE_CLIENT_SECRET", ""),
			Username:      getEnv("SALESFORCE_USERNAME", ""),
			Password:      getEnv("SALESFORCE_PASSWORD", ""),
			SecurityToken: getEnv("SALESFORCE_SECURITY_TOKEN", ""),
		},

		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketOutreachArchive: getEnv("MINIO_BUCKET_OUTREACH_ARCHIVE", "outreach-archive"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.EmailEnabled && cfg.OutreachFromAddress == "" {
		return nil, fmt.Errorf("OUTREACH_FROM_EMAIL is required when email is enabled")
	}
	if cfg.RequalifyDelay < time.Minute {
		return nil, fmt.Errorf("REQUALIFY_DELAY must be at least 1m")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
