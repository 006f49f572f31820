// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
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

// AIConfig provides settings for the reasoning-service adapter.
type AIConfig interface {
	GetAIProvider() string
	GetAIAPIKey() string
	GetAIBaseURL() string
	GetAIModel() string
	GetAITimeout() time.Duration
	GetAIMaxTokens() int
	GetAITemperature() float64
	GetAIRequestsPerMinute() int
}

// AgentConfig provides settings for the conversational agent.
type AgentConfig interface {
	GetAgentName() string
	GetCompanyName() string
	GetMaxToolRounds() int
	GetContextWindowMessages() int
}

// WhatsAppConfig provides settings for chat delivery.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// EmailConfig provides settings for email delivery.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// NurturingConfig provides settings for the nurturing evaluator.
type NurturingConfig interface {
	GetNurturingInterval() time.Duration
	GetNurturingBatchSize() int
	GetTeamEmail() string
}

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	AIProvider          string
	AIAPIKey            string
	AIBaseURL           string
	AIModel             string
	AITimeout           time.Duration
	AIMaxTokens         int
	AITemperature       float64
	AIRequestsPerMinute int

	AgentName             string
	CompanyName           string
	MaxToolRounds         int
	ContextWindowMessages int

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	NurturingInterval  time.Duration
	NurturingBatchSize int
	TeamEmail          string
}

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

func (c *Config) GetAIProvider() string           { return c.AIProvider }
func (c *Config) GetAIAPIKey() string             { return c.AIAPIKey }
func (c *Config) GetAIBaseURL() string            { return c.AIBaseURL }
func (c *Config) GetAIModel() string              { return c.AIModel }
func (c *Config) GetAITimeout() time.Duration     { return c.AITimeout }
func (c *Config) GetAIMaxTokens() int             { return c.AIMaxTokens }
func (c *Config) GetAITemperature() float64       { return c.AITemperature }
func (c *Config) GetAIRequestsPerMinute() int     { return c.AIRequestsPerMinute }
func (c *Config) GetAgentName() string            { return c.AgentName }
func (c *Config) GetCompanyName() string          { return c.CompanyName }
func (c *Config) GetMaxToolRounds() int           { return c.MaxToolRounds }
func (c *Config) GetContextWindowMessages() int   { return c.ContextWindowMessages }
func (c *Config) GetWhatsAppURL() string          { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string          { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string     { return c.WhatsAppDeviceID }
func (c *Config) GetEmailEnabled() bool           { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string             { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string         { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string         { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string        { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string     { return c.EmailFromAddress }
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetNurturingInterval() time.Duration { return c.NurturingInterval }
func (c *Config) GetNurturingBatchSize() int          { return c.NurturingBatchSize }
func (c *Config) GetTeamEmail() string                { return c.TeamEmail }

// Load reads configuration from environment variables.
// A missing credential disables only the affected capability; only the
// database is a hard startup requirement.
func Load() (*Config, error) {
	_ = godotenv.Load()

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")
	smtpHost := getEnv("SMTP_HOST", "")

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AIProvider:          strings.ToLower(getEnv("AI_PROVIDER", "openai")),
		AIAPIKey:            getEnv("AI_API_KEY", ""),
		AIBaseURL:           getEnv("AI_BASE_URL", ""),
		AIModel:             getEnv("AI_MODEL", ""),
		AITimeout:           mustDuration(getEnv("AI_TIMEOUT", "30s")),
		AIMaxTokens:         mustInt(getEnv("AI_MAX_TOKENS", "1024")),
		AITemperature:       mustFloat(getEnv("AI_TEMPERATURE", "0.7")),
		AIRequestsPerMinute: mustInt(getEnv("AI_REQUESTS_PER_MINUTE", "60")),

		AgentName:             getEnv("AGENT_NAME", "Sofía"),
		CompanyName:           getEnv("COMPANY_NAME", "Inmobiliaria Horizonte"),
		MaxToolRounds:         mustInt(getEnv("AGENT_MAX_TOOL_ROUNDS", "3")),
		ContextWindowMessages: mustInt(getEnv("AGENT_CONTEXT_MESSAGES", "20")),

		WhatsAppURL:      getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Inmobiliaria Horizonte"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		NurturingInterval:  mustDuration(getEnv("NURTURING_INTERVAL", "6h")),
		NurturingBatchSize: mustInt(getEnv("NURTURING_BATCH_SIZE", "200")),
		TeamEmail:          getEnv("TEAM_EMAIL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.AIProvider != "openai" && cfg.AIProvider != "gemini" {
		return nil, fmt.Errorf("AI_PROVIDER must be openai or gemini, got %q", cfg.AIProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(raw string) int {
	var v int
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0
	}
	return v
}

func mustFloat(raw string) float64 {
	var v float64
	if _, err := fmt.Sscanf(raw, "%g", &v); err != nil {
		return 0
	}
	return v
}
