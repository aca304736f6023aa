// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads the layered configuration: base yaml, environment overlay,
// then environment-variable overrides.
func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // overlay is optional

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env at the usual relative locations so workers and
// tests behave the same regardless of working directory.
func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "lms-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Camunda.BrokerAddress == "" {
		cfg.Camunda.BrokerAddress = "localhost:26500"
	}
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 32
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if len(cfg.Database.Elasticsearch.Addresses) == 0 {
		cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if cfg.Database.Elasticsearch.CourseIndex == "" {
		cfg.Database.Elasticsearch.CourseIndex = "lms-courses"
	}
	if cfg.Database.Elasticsearch.UserIndex == "" {
		cfg.Database.Elasticsearch.UserIndex = "lms-users"
	}
	if cfg.LMS.TokenTTL == 0 {
		cfg.LMS.TokenTTL = 3600
	}
	if cfg.LMS.Timeout == 0 {
		cfg.LMS.Timeout = 15000
	}
	if cfg.LMS.MaxRetries == 0 {
		cfg.LMS.MaxRetries = 3
	}
	if cfg.NLU.ShortCircuitThreshold == 0 {
		cfg.NLU.ShortCircuitThreshold = 0.95
	}
	if cfg.NLU.ConfidenceFloor == 0 {
		cfg.NLU.ConfidenceFloor = 0.6
	}
	if cfg.NLU.MaxMessageLength == 0 {
		cfg.NLU.MaxMessageLength = 2000
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 10000
	}
	if cfg.GenAI.MaxRetries == 0 {
		cfg.GenAI.MaxRetries = 2
	}
	if cfg.Jobs.TTL == 0 {
		cfg.Jobs.TTL = 86400
	}
	if cfg.Jobs.ProgressEvery == 0 {
		cfg.Jobs.ProgressEvery = 10
	}
	if cfg.Jobs.MaxBatchSize == 0 {
		cfg.Jobs.MaxBatchSize = 500
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}
	if cfg.NLU.ShortCircuitThreshold <= 0 || cfg.NLU.ShortCircuitThreshold > 1 {
		return fmt.Errorf("nlu.short_circuit_threshold must be in (0,1], got %f", cfg.NLU.ShortCircuitThreshold)
	}
	if cfg.NLU.ConfidenceFloor < 0 || cfg.NLU.ConfidenceFloor > 1 {
		return fmt.Errorf("nlu.confidence_floor must be in [0,1], got %f", cfg.NLU.ConfidenceFloor)
	}
	if cfg.GenAI.Enabled && cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai.base_url is required when genai.enabled is set")
	}
	return nil
}
