package storage

import (
	"errors"
	"fmt"
)

// Provider names.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Defaults.
const (
	DefaultProvider      = ProviderLocal
	DefaultBasePath      = ".opflow/snapshots"
	DefaultMaxObjectSize = int64(16 << 20)
)

// ErrObjectNotFound is wrapped by Get when nothing is stored under a key.
var ErrObjectNotFound = errors.New("storage: object not found")

// Config selects a blob backend.
type Config struct {
	// Provider is local or s3.
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the root directory of the local provider.
	BasePath string `mapstructure:"base_path" json:"base_path"`

	// MaxObjectSize rejects larger Puts. Snapshots of very wide graphs
	// are the only objects that get near it.
	MaxObjectSize int64 `mapstructure:"max_object_size" json:"max_object_size"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Provider == ProviderLocal && c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
	if c.MaxObjectSize <= 0 {
		c.MaxObjectSize = DefaultMaxObjectSize
	}
}

// Validate checks the fields the selected provider reads.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.BasePath == "" {
			return errors.New("storage: base_path is required for the local provider")
		}
	case ProviderS3:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if c.MaxObjectSize < 0 {
		return errors.New("storage: max_object_size must not be negative")
	}
	return nil
}
