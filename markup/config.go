package markup

import "fmt"

// UnknownPolicy controls behavior for unrecognized tags.
type UnknownPolicy string

const (
	UnknownError       UnknownPolicy = "error"
	UnknownSkip        UnknownPolicy = "skip"
	UnknownPlaceholder UnknownPolicy = "placeholder"
)

// DefaultMaxEmbedBytes is the embed size limit used when none is configured.
const DefaultMaxEmbedBytes = 64 << 10

// Config holds codec configuration options.
type Config struct {
	// UnknownTags decides what happens to tags outside the document schema.
	// Placeholder keeps their text, skip drops them, error fails the parse.
	UnknownTags UnknownPolicy `json:"unknownTags,omitempty"`
	// MaxEmbedBytes bounds the size of raw embed markup. Zero means 64 KiB.
	MaxEmbedBytes int `json:"maxEmbedBytes,omitempty"`
}

func (c Config) applyDefaults() Config {
	if c.UnknownTags == "" {
		c.UnknownTags = UnknownPlaceholder
	}
	if c.MaxEmbedBytes == 0 {
		c.MaxEmbedBytes = DefaultMaxEmbedBytes
	}
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	if c.UnknownTags != UnknownError && c.UnknownTags != UnknownSkip && c.UnknownTags != UnknownPlaceholder {
		return fmt.Errorf("invalid unknownTags policy %q", c.UnknownTags)
	}
	if c.MaxEmbedBytes < 0 {
		return fmt.Errorf("maxEmbedBytes must not be negative, got %d", c.MaxEmbedBytes)
	}
	return nil
}
