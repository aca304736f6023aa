// internal/common/camunda/client.go
package camunda

import (
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// ClientConfig holds configuration for the Zeebe gateway connection.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines retry behavior for transient gateway failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig provides sensible defaults for local and staging
// clusters.
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// Client wraps the Zeebe gRPC client with connection retry.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// NewClient creates a client with default configuration, suitable for
// simple setups.
func NewClient(address string) (*Client, error) {
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         30 * time.Second,
		RetryConfig:            DefaultRetryConfig,
	})
}

// NewClientWithConfig creates a client using explicit configuration,
// retrying the initial connection with exponential backoff.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}

	var client zbc.Client
	var err error
	delay := config.RetryConfig.BaseDelay

	for attempt := 0; attempt <= config.RetryConfig.MaxRetries; attempt++ {
		client, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         config.GatewayAddress,
			UsePlaintextConnection: config.UsePlaintextConnection,
		})
		if err == nil {
			return &Client{client: client, config: config}, nil
		}
		if attempt < config.RetryConfig.MaxRetries {
			time.Sleep(delay)
			delay *= 2
			if delay > config.RetryConfig.MaxDelay {
				delay = config.RetryConfig.MaxDelay
			}
		}
	}

	return nil, fmt.Errorf("zeebe connection failed after %d attempts: %w",
		config.RetryConfig.MaxRetries+1, err)
}

// Raw exposes the underlying zbc.Client for worker registration.
func (c *Client) Raw() zbc.Client {
	return c.client
}

// Close shuts down the gateway connection.
func (c *Client) Close() error {
	return c.client.Close()
}
