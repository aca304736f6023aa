// internal/workers/assistant/execute-command/config.go
package executecommand

import "time"

type Config struct {
	Timeout  time.Duration
	PageSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		PageSize: 10,
	}
}
