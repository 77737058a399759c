package media

import (
	"fmt"
	"time"
)

const (
	DefaultMaxImageBytes int64 = 10 << 20
	DefaultMaxVideoBytes int64 = 50 << 20
)

// Config holds coordinator configuration options.
type Config struct {
	// MaxImageBytes is the largest accepted image payload. Zero means 10 MiB.
	MaxImageBytes int64 `json:"maxImageBytes,omitempty"`
	// MaxVideoBytes is the largest accepted video payload. Zero means 50 MiB.
	MaxVideoBytes int64 `json:"maxVideoBytes,omitempty"`
	// ProgressInterval is the tick of synthetic progress for uploaders that
	// cannot report real progress.
	ProgressInterval time.Duration `json:"progressInterval,omitempty"`
	ProgressStep     int           `json:"progressStep,omitempty"`
	// ProgressCeiling is where synthetic progress stops until the upload is
	// confirmed.
	ProgressCeiling int `json:"progressCeiling,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.MaxImageBytes == 0 {
		c.MaxImageBytes = DefaultMaxImageBytes
	}
	if c.MaxVideoBytes == 0 {
		c.MaxVideoBytes = DefaultMaxVideoBytes
	}
	if c.ProgressInterval == 0 {
		c.ProgressInterval = 200 * time.Millisecond
	}
	if c.ProgressStep == 0 {
		c.ProgressStep = 10
	}
	if c.ProgressCeiling == 0 {
		c.ProgressCeiling = 90
	}
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.MaxImageBytes < 0 {
		return fmt.Errorf("maxImageBytes must not be negative, got %d", c.MaxImageBytes)
	}
	if c.MaxVideoBytes < 0 {
		return fmt.Errorf("maxVideoBytes must not be negative, got %d", c.MaxVideoBytes)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progressInterval must not be negative, got %s", c.ProgressInterval)
	}
	if c.ProgressStep < 0 || c.ProgressStep > 100 {
		return fmt.Errorf("invalid progressStep %d (allowed: 1-100)", c.ProgressStep)
	}
	if c.ProgressCeiling < 0 || c.ProgressCeiling > 99 {
		return fmt.Errorf("invalid progressCeiling %d (allowed: 1-99)", c.ProgressCeiling)
	}
	return nil
}
