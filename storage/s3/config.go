package s3

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultRegion applies when no region is configured.
const DefaultRegion = "us-east-1"

// Config holds the bucket and client settings.
type Config struct {
	Bucket string `mapstructure:"bucket" json:"bucket"`
	Region string `mapstructure:"region" json:"region"`

	// Endpoint points at an S3-compatible service (MinIO, localstack).
	// Setting it implies path-style addressing.
	Endpoint       string `mapstructure:"endpoint" json:"endpoint"`
	ForcePathStyle bool   `mapstructure:"force_path_style" json:"force_path_style"`

	// Static credentials. When empty the default AWS chain is used.
	AccessKey string `mapstructure:"access_key" json:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"secret_key"`

	// StorageClass is applied to every Put, e.g. STANDARD_IA for
	// snapshot archives that are rarely read.
	StorageClass string `mapstructure:"storage_class" json:"storage_class"`
	// ServerSideEncryption is AES256 or aws:kms; KMSKeyID selects the
	// key for the latter.
	ServerSideEncryption string `mapstructure:"server_side_encryption" json:"server_side_encryption"`
	KMSKeyID             string `mapstructure:"kms_key_id" json:"kms_key_id"`
}

// ApplyDefaults fills in the region.
func (c *Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("region is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("access_key and secret_key must be set together"))
	}
	if c.StorageClass != "" && !slices.Contains(types.StorageClass("").Values(), types.StorageClass(c.StorageClass)) {
		errs = append(errs, fmt.Errorf("unknown storage_class %q", c.StorageClass))
	}
	if c.ServerSideEncryption != "" &&
		!slices.Contains(types.ServerSideEncryption("").Values(), types.ServerSideEncryption(c.ServerSideEncryption)) {
		errs = append(errs, fmt.Errorf("unknown server_side_encryption %q", c.ServerSideEncryption))
	}
	if c.KMSKeyID != "" && c.ServerSideEncryption != string(types.ServerSideEncryptionAwsKms) {
		errs = append(errs, errors.New("kms_key_id requires server_side_encryption aws:kms"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("s3: invalid config: %w", errors.Join(errs...))
	}
	return nil
}
