package pm2005

import (
	"io"
	"log"
	"time"
)

const (
	// DefaultExchangeTimeout bounds the wait for one complete reply.
	DefaultExchangeTimeout = 2 * time.Second
	// DefaultPollInterval is the pause between polls that returned no bytes.
	DefaultPollInterval = 5 * time.Millisecond
)

// Config holds the client configuration.
type Config struct {
	// Timeout bounds every exchange. Zero waits until the context is done.
	Timeout time.Duration

	// PollInterval is slept whenever the port has no bytes available.
	PollInterval time.Duration

	// Diagnostics receives a hex dump of every reply (optional)
	Diagnostics io.Writer

	// Logger is used for logging operations (optional)
	Logger *log.Logger

	// VerifyChecksum rejects replies whose bytes do not sum to zero.
	VerifyChecksum bool
}

func defaultConfig() Config {
	return Config{
		Timeout:      DefaultExchangeTimeout,
		PollInterval: DefaultPollInterval,
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithTimeout sets the exchange timeout. Zero restores the unbounded wait.
//
// Example:
//
//	client := pm2005.New(port, pm2005.WithTimeout(500*time.Millisecond))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.Timeout = timeout
		}
	}
}

// WithPollInterval sets the pause between empty polls.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.PollInterval = interval
		}
	}
}

// WithDiagnostics echoes every raw reply to w.
//
// Example:
//
//	client := pm2005.New(port, pm2005.WithDiagnostics(os.Stderr))
func WithDiagnostics(w io.Writer) Option {
	return func(c *Config) {
		c.Diagnostics = w
	}
}

// WithLogger sets a logger for client operations.
func WithLogger(logger *log.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReplyChecksum enables or disables reply checksum verification. Default is false.
func WithReplyChecksum(verify bool) Option {
	return func(c *Config) {
		c.VerifyChecksum = verify
	}
}
