package campusrag

import "time"

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	apiKey  string
	timeout time.Duration
	retries int
}

// WithAPIKey sets the Bearer token sent with every request.
// Required when the server has authentication enabled.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithTimeout sets the per-request timeout. Default: 90s, sized for the
// chat endpoint where retrieval and generation run back to back.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithRetries sets the retry count for transient transport failures.
// Default: 0 (no retries); the chat endpoint is not idempotent in cost.
func WithRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.retries = n
	})
}
