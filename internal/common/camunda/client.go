// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client with retry on transient failures.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClient builds a plaintext client from the camunda config section.
func NewClient(cfg config.CamundaConfig) (*Client, error) {
	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Millisecond
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return NewClientWithConfig(&ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         requestTimeout,
		RetryConfig:            DefaultRetryConfig,
	})
}

// NewClientWithConfig dials the gateway and checks the topology once.
func NewClientWithConfig(cfg *ClientConfig) (*Client, error) {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = DefaultRetryConfig
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.GatewayAddress,
		UsePlaintextConnection: cfg.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.GatewayAddress, err)
	}

	return &Client{client: zeebeClient, config: cfg}, nil
}

// GetClient returns the raw Zeebe client for opening job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// PublishMessage publishes a correlated message, retrying transient failures.
func (c *Client) PublishMessage(ctx context.Context, messageName, correlationKey string, variables map[string]interface{}) error {
	return c.ExecuteWithRetry(ctx, "publish message "+messageName, func(ctx context.Context) error {
		cmd, err := c.client.NewPublishMessageCommand().
			MessageName(messageName).
			CorrelationKey(correlationKey).
			VariablesFromMap(variables)
		if err != nil {
			return err
		}
		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
		_, err = cmd.Send(reqCtx)
		return err
	})
}

// ExecuteWithRetry runs command with exponential backoff. Only transient
// errors are retried.
func (c *Client) ExecuteWithRetry(ctx context.Context, operation string, command func(context.Context) error) error {
	retry := c.config.RetryConfig
	for attempt := 0; ; attempt++ {
		err := command(ctx)
		if err == nil {
			return nil
		}
		if !isRetryableZeebeError(err) || attempt == retry.MaxRetries {
			return errors.NewEngineUnavailableError(operation, err)
		}

		delay := retry.BaseDelay * time.Duration(1<<attempt)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("operation %s cancelled after %d attempts: %w", operation, attempt+1, ctx.Err())
		}
	}
}

var retryablePhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
	"resource_exhausted",
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func (c *Client) Name() string { return "zeebe" }

// Ping requests the cluster topology.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}
