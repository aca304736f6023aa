// internal/workers/assistant/search-catalog/config.go
package searchcatalog

import "time"

type Config struct {
	Timeout      time.Duration
	CatalogIndex string
	UserIndex    string
	PageSize     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		CatalogIndex: "lms-courses",
		UserIndex:    "lms-users",
		PageSize:     20,
	}
}
