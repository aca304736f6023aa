// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	LMS           LMSConfig               `mapstructure:"lms"`
	NLU           NLUConfig               `mapstructure:"nlu"`
	GenAI         GenAIConfig             `mapstructure:"genai"`
	Jobs          JobsConfig              `mapstructure:"jobs"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// JobsConfig governs the Redis-backed bulk-job store.
type JobsConfig struct {
	TTL           int `mapstructure:"ttl"` // seconds
	ProgressEvery int `mapstructure:"progress_every"`
	MaxBatchSize  int `mapstructure:"max_batch_size"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	CourseIndex string   `mapstructure:"course_index"`
	UserIndex   string   `mapstructure:"user_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LMSConfig holds credentials and endpoints for the learning platform API.
type LMSConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenTTL     int    `mapstructure:"token_ttl"` // seconds
	Timeout      int    `mapstructure:"timeout"`   // milliseconds
	MaxRetries   int    `mapstructure:"max_retries"`
}

// NLUConfig tunes the rule-based command interpreter.
type NLUConfig struct {
	ShortCircuitThreshold float64 `mapstructure:"short_circuit_threshold"`
	ConfidenceFloor       float64 `mapstructure:"confidence_floor"`
	MaxMessageLength      int     `mapstructure:"max_message_length"`
}

// GenAIConfig points at the generative fallback used when the rule engine
// returns unknown or a low-confidence match.
type GenAIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"` // milliseconds
	MaxRetries int    `mapstructure:"max_retries"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // for error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NotificationConfig covers the bulk-job completion notifications.
type NotificationConfig struct {
	AWSRegion   string `mapstructure:"aws_region"`
	SenderEmail string `mapstructure:"sender_email"`
	AdminEmail  string `mapstructure:"admin_email"`
	SNSTopicARN string `mapstructure:"sns_topic_arn"`
}
