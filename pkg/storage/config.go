package storage

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

// Backend names a blob storage implementation.
type Backend string

const (
	BackendFilesystem Backend = "filesystem"
	BackendS3         Backend = "s3"
)

// Config contains blob storage configuration.
type Config struct {
	Backend Backend `toml:"backend"`
	// BasePath is the root directory for filesystem storage.
	// Default: ".data/audio"
	BasePath         string   `toml:"base_path"`
	MaxUploadSize    string   `toml:"max_upload_size"`
	S3               S3Config `toml:"s3"`
	maxUploadSizeVal int64
}

// S3Config addresses an S3 compatible bucket.
type S3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	Prefix          string `toml:"prefix"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
}

type Env struct {
	Backend           string
	BasePath          string
	MaxUploadSize     string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

func (c *Config) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the storage configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	c.S3.merge(&overlay.S3)

	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}
}

func (c *S3Config) merge(overlay *S3Config) {
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.AccessKeyID != "" {
		c.AccessKeyID = overlay.AccessKeyID
	}
	if overlay.SecretAccessKey != "" {
		c.SecretAccessKey = overlay.SecretAccessKey
	}
	if overlay.UsePathStyle {
		c.UsePathStyle = true
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFilesystem
	}
	if c.BasePath == "" {
		c.BasePath = ".data/audio"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "25MB"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = Backend(v)
		}
	}
	for name, dst := range map[string]*string{
		env.S3Bucket:          &c.S3.Bucket,
		env.S3Region:          &c.S3.Region,
		env.S3Endpoint:        &c.S3.Endpoint,
		env.S3AccessKeyID:     &c.S3.AccessKeyID,
		env.S3SecretAccessKey: &c.S3.SecretAccessKey,
	} {
		if name == "" {
			continue
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if env.BasePath != "" {
		if v := os.Getenv(env.BasePath); v != "" {
			c.BasePath = v
		}
	}
	if env.MaxUploadSize != "" {
		if v := os.Getenv(env.MaxUploadSize); v != "" {
			c.MaxUploadSize = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket required")
		}
	default:
		return fmt.Errorf("invalid backend: %s (must be filesystem or s3)", c.Backend)
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	return nil
}
