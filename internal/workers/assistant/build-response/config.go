// internal/workers/assistant/build-response/config.go
package buildresponse

import "time"

type Config struct {
	Timeout    time.Duration
	AppVersion string

	// MaxListItems caps how many rows a listing reply renders before it
	// points the admin at "load more".
	MaxListItems int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		AppVersion:   "dev",
		MaxListItems: 10,
	}
}
