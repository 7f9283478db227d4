/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/hyperledger/aries-trust-core/pkg/config/lookup"
)

// Storage backends.
const (
	StorageMem     = "mem"
	StorageLevelDB = "leveldb"
	StoragePebble  = "pebble"
	StorageRedis   = "redis"
	StorageMongoDB = "mongodb"
)

// Key manager backends.
const (
	KMSLocal = "local"
	KMSAWS   = "aws"
)

// Config holds every setting of a trust core instance.
type Config struct {
	Log        LogConfig
	Storage    StorageConfig
	KMS        KMSConfig
	VDR        VDRConfig
	Disclosure DisclosureConfig
	Anchor     AnchorConfig
	Metrics    MetricsConfig
}

// LogConfig selects log output.
type LogConfig struct {
	// Level is a spec such as "info" or "trustcore/vdr=debug:info".
	Level string
	// Format is "console" or "json".
	Format string
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Type string
	// Path is the database directory of leveldb and pebble.
	Path string
	// URL is the redis address list (comma separated) or the mongodb connection string.
	URL      string
	Database string
	Password string
	Timeout  time.Duration
}

// KMSConfig selects the key manager.
type KMSConfig struct {
	Type string
	// Passphrase unlocks local keys; without it keys are stored unencrypted.
	Passphrase  string
	InstanceID  string
	AWSRegion   string
	AWSEndpoint string
	AliasPrefix string
}

// VDRConfig tunes DID resolution.
type VDRConfig struct {
	ResolveTimeout time.Duration
	CacheSize      int
	CacheTTL       time.Duration
	// HTTPResolvers maps a DID method to a universal resolver endpoint.
	HTTPResolvers map[string]string
	HTTPToken     string
}

// DisclosureConfig tunes presentation challenges.
type DisclosureConfig struct {
	ChallengeTracking  bool
	ChallengeTTL       time.Duration
	ChallengeCacheSize int
}

// AnchorConfig configures anchoring.
type AnchorConfig struct {
	WriteTimeout time.Duration
	MaxRetries   int
	// LocalChains are ledger IDs served by the local store.
	LocalChains []string
	S3          S3Config
}

// S3Config configures an S3 anchor ledger. It is enabled when Bucket is set.
type S3Config struct {
	ChainID  string
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string
}

// MetricsConfig switches metrics on.
type MetricsConfig struct {
	Enabled bool
}

//nolint:gomnd
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("storage.type", StorageMem)
	v.SetDefault("storage.timeout", 10*time.Second)
	v.SetDefault("kms.type", KMSLocal)
	v.SetDefault("kms.aliasPrefix", "trustcore")
	v.SetDefault("vdr.resolveTimeout", 10*time.Second)
	v.SetDefault("vdr.cacheTTL", 5*time.Minute)
	v.SetDefault("disclosure.challengeTTL", 5*time.Minute)
	v.SetDefault("disclosure.challengeCacheSize", 1024)
	v.SetDefault("anchor.writeTimeout", 30*time.Second)
	v.SetDefault("anchor.maxRetries", 5)
	v.SetDefault("anchor.localChains", []string{"local"})
	v.SetDefault("anchor.s3.chainID", "s3")
	v.SetDefault("anchor.s3.prefix", "anchors")
}

// Config decodes the backend into settings and validates them.
func (b *Backend) Config() (*Config, error) {
	l := lookup.New(b)

	cfg := &Config{
		Log: LogConfig{
			Level:  l.GetString("log.level"),
			Format: l.GetString("log.format"),
		},
		Storage: StorageConfig{
			Type:     l.GetString("storage.type"),
			Path:     l.GetString("storage.path"),
			URL:      l.GetString("storage.url"),
			Database: l.GetString("storage.database"),
			Password: l.GetString("storage.password"),
			Timeout:  l.GetDuration("storage.timeout"),
		},
		KMS: KMSConfig{
			Type:        l.GetString("kms.type"),
			Passphrase:  l.GetString("kms.passphrase"),
			InstanceID:  l.GetString("kms.instanceID"),
			AWSRegion:   l.GetString("kms.awsRegion"),
			AWSEndpoint: l.GetString("kms.awsEndpoint"),
			AliasPrefix: l.GetString("kms.aliasPrefix"),
		},
		VDR: VDRConfig{
			ResolveTimeout: l.GetDuration("vdr.resolveTimeout"),
			CacheSize:      l.GetInt("vdr.cacheSize"),
			CacheTTL:       l.GetDuration("vdr.cacheTTL"),
			HTTPResolvers:  l.GetStringMapString("vdr.httpResolvers"),
			HTTPToken:      l.GetString("vdr.httpToken"),
		},
		Disclosure: DisclosureConfig{
			ChallengeTracking:  l.GetBool("disclosure.challengeTracking"),
			ChallengeTTL:       l.GetDuration("disclosure.challengeTTL"),
			ChallengeCacheSize: l.GetInt("disclosure.challengeCacheSize"),
		},
		Anchor: AnchorConfig{
			WriteTimeout: l.GetDuration("anchor.writeTimeout"),
			MaxRetries:   l.GetInt("anchor.maxRetries"),
			LocalChains:  l.GetStringSlice("anchor.localChains"),
			S3: S3Config{
				ChainID:  l.GetString("anchor.s3.chainID"),
				Bucket:   l.GetString("anchor.s3.bucket"),
				Region:   l.GetString("anchor.s3.region"),
				Prefix:   l.GetString("anchor.s3.prefix"),
				Endpoint: l.GetString("anchor.s3.endpoint"),
			},
		},
		Metrics: MetricsConfig{
			Enabled: l.GetBool("metrics.enabled"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects unknown backends and incomplete settings.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMem:
	case StorageLevelDB, StoragePebble:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage %s requires a path", c.Storage.Type)
		}
	case StorageRedis, StorageMongoDB:
		if c.Storage.URL == "" {
			return fmt.Errorf("storage %s requires a url", c.Storage.Type)
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	switch c.KMS.Type {
	case KMSLocal:
	case KMSAWS:
		if c.KMS.AWSRegion == "" {
			return fmt.Errorf("kms %s requires a region", c.KMS.Type)
		}
	default:
		return fmt.Errorf("unknown kms type %q", c.KMS.Type)
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	if c.VDR.CacheSize < 0 || c.Anchor.MaxRetries < 0 {
		return errors.New("cache size and retry count must not be negative")
	}

	return nil
}
