// internal/workers/assistant/notify-admin/config.go
package notifyadmin

import "time"

type Config struct {
	Timeout     time.Duration
	SenderEmail string
	AdminEmail  string
	SNSTopicARN string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
