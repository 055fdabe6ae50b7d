package snapshot

import (
	"fmt"
	"time"

	"github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/storage"
	"github.com/kbukum/opflow/storage/s3"
)

// Provider names.
const (
	ProviderMemory  = "memory"
	ProviderStorage = "storage"
	ProviderBadger  = "badger"
	ProviderSQL     = "sql"
)

// Defaults.
const (
	DefaultProvider     = ProviderMemory
	DefaultPrefix       = "snapshots"
	DefaultWriteRetries = 3
	DefaultBadgerDir    = ".opflow/badger"
	DefaultSQLTable     = "opflow_snapshots"
)

// Config selects and configures a snapshot backend.
type Config struct {
	// Provider is one of memory, storage, badger or sql.
	Provider string `mapstructure:"provider" validate:"required,oneof=memory storage badger sql"`
	// Prefix namespaces keys for the storage and badger backends.
	Prefix string `mapstructure:"prefix"`
	// WriteRetries is the number of attempts per store call; 1 disables retries.
	WriteRetries int `mapstructure:"write_retries" validate:"gte=0"`

	Storage storage.Config `mapstructure:"storage"`
	S3      s3.Config      `mapstructure:"s3"`
	Badger  BadgerConfig   `mapstructure:"badger"`
	SQL     SQLConfig      `mapstructure:"sql"`
}

// BadgerConfig configures the embedded badger backend.
type BadgerConfig struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string `mapstructure:"dir"`
	// InMemory keeps the database in memory only.
	InMemory bool `mapstructure:"in_memory"`
	// SyncWrites fsyncs every write.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// SQLConfig configures the PostgreSQL backend.
type SQLConfig struct {
	// DSN is a lib/pq connection string.
	DSN string `mapstructure:"dsn"`
	// Table is the base name; the backend creates <table>_containers and
	// <table>_operators.
	Table string `mapstructure:"table"`
	// MaxOpenConns bounds the connection pool.
	MaxOpenConns int `mapstructure:"max_open_conns" validate:"gte=0"`
	// ConnMaxLifetime recycles connections older than this.
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// AutoMigrate creates the tables on start.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.WriteRetries == 0 {
		c.WriteRetries = DefaultWriteRetries
	}
	if c.Badger.Dir == "" {
		c.Badger.Dir = DefaultBadgerDir
	}
	if c.SQL.Table == "" {
		c.SQL.Table = DefaultSQLTable
	}
	if c.Provider == ProviderStorage {
		c.Storage.ApplyDefaults()
		if c.Storage.Provider == storage.ProviderS3 {
			c.S3.ApplyDefaults()
		}
	}
}

// Validate checks the settings the selected provider needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMemory, ProviderBadger:
	case ProviderStorage:
		if err := c.Storage.Validate(); err != nil {
			return errors.InvalidConfig(err.Error())
		}
		if c.Storage.Provider == storage.ProviderS3 {
			if err := c.S3.Validate(); err != nil {
				return errors.InvalidConfig(err.Error())
			}
		}
	case ProviderSQL:
		if c.SQL.DSN == "" {
			return errors.InvalidConfig("snapshot: sql.dsn is required for the sql provider")
		}
	default:
		return errors.InvalidConfig(fmt.Sprintf("snapshot: unsupported provider %q", c.Provider))
	}
	if c.WriteRetries < 0 {
		return errors.InvalidConfig("snapshot: write_retries must not be negative")
	}
	return nil
}
