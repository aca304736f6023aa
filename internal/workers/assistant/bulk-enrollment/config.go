// internal/workers/assistant/bulk-enrollment/config.go
package bulkenrollment

import "time"

type Config struct {
	Timeout time.Duration

	// ProgressEvery controls how often the job store is updated while a
	// batch runs.
	ProgressEvery int
	MaxBatchSize  int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       5 * time.Minute,
		ProgressEvery: 10,
		MaxBatchSize:  500,
	}
}
