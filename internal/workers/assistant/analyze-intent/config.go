// internal/workers/assistant/analyze-intent/config.go
package analyzeintent

import "time"

type Config struct {
	MaxMessageLength int
	ShortCircuit     float64
	ConfidenceFloor  float64

	// GenAI fallback for messages the rule engine cannot classify.
	GenAIEnabled bool
	GenAIBaseURL string
	Timeout      time.Duration
	MaxRetries   int
}

func LoadConfig() *Config {
	return &Config{
		MaxMessageLength: 2000,
		ShortCircuit:     0.95,
		ConfidenceFloor:  0.5,
		Timeout:          30 * time.Second,
		MaxRetries:       2,
	}
}
