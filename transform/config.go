package transform

import "fmt"

// Config holds transform configuration options.
type Config struct {
	// Concurrency is the number of uploads in flight. Zero means 1, which
	// uploads strictly in document order.
	Concurrency int `json:"concurrency,omitempty"`
	// FilePrefix starts the names given to decoded payloads. Zero means "image".
	FilePrefix string `json:"filePrefix,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.FilePrefix == "" {
		c.FilePrefix = "image"
	}
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid concurrency %d (must be positive)", c.Concurrency)
	}
	return nil
}
