package storage

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// Config holds client configuration options.
type Config struct {
	BaseURL string        `json:"baseUrl,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
	// RetryMax is the number of retries after a failed request. Zero means 3;
	// -1 disables retries.
	RetryMax     int           `json:"retryMax,omitempty"`
	RetryWaitMin time.Duration `json:"retryWaitMin,omitempty"`
	RetryWaitMax time.Duration `json:"retryWaitMax,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryMax == 0 {
		c.RetryMax = 3
	}
	if c.RetryWaitMin == 0 {
		c.RetryWaitMin = 500 * time.Millisecond
	}
	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = 5 * time.Second
	}
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid baseUrl %q", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.RetryMax < -1 {
		return fmt.Errorf("invalid retryMax %d (allowed: -1 or more)", c.RetryMax)
	}
	if c.RetryWaitMin > c.RetryWaitMax {
		return fmt.Errorf("retryWaitMin %s exceeds retryWaitMax %s", c.RetryWaitMin, c.RetryWaitMax)
	}
	return nil
}
