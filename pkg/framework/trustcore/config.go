/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package trustcore

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/hyperledger/aries-trust-core/pkg/anchor/s3chain"
	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/config"
	"github.com/hyperledger/aries-trust-core/pkg/kms/awskms"
	"github.com/hyperledger/aries-trust-core/pkg/kms/localkms"
	"github.com/hyperledger/aries-trust-core/pkg/observability/metrics/prometheus"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock"
	"github.com/hyperledger/aries-trust-core/pkg/secretlock/hkdf"
	noopLock "github.com/hyperledger/aries-trust-core/pkg/secretlock/noop"
	"github.com/hyperledger/aries-trust-core/pkg/storage/leveldb"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mem"
	"github.com/hyperledger/aries-trust-core/pkg/storage/mongodb"
	"github.com/hyperledger/aries-trust-core/pkg/storage/pebble"
	"github.com/hyperledger/aries-trust-core/pkg/storage/redis"
	"github.com/hyperledger/aries-trust-core/pkg/vdr/httpbinding"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

// NewFromConfig sets up logging and builds a TrustCore from cfg. Options passed
// here are applied after the ones derived from cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*TrustCore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := initLogging(cfg.Log); err != nil {
		return nil, err
	}

	store, err := newStoreProvider(cfg.Storage)
	if err != nil {
		return nil, err
	}

	derived, err := configOptions(ctx, cfg, store)
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warnf("close store: %s", closeErr)
		}

		return nil, err
	}

	return New(append(derived, opts...)...)
}

func initLogging(cfg config.LogConfig) error {
	log.Initialize(log.NewZapProvider(log.WithEncoding(cfg.Format)))

	if cfg.Level == "" {
		return nil
	}

	if err := log.SetSpec(cfg.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	return nil
}

func newStoreProvider(cfg config.StorageConfig) (spi.Provider, error) {
	switch cfg.Type {
	case config.StorageMem:
		return mem.NewProvider(), nil
	case config.StorageLevelDB:
		return leveldb.NewProvider(cfg.Path), nil
	case config.StoragePebble:
		p, err := pebble.NewProvider(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open pebble store: %w", err)
		}

		return p, nil
	case config.StorageRedis:
		p, err := redis.NewProvider(strings.Split(cfg.URL, ","),
			redis.WithPassword(cfg.Password), redis.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}

		return p, nil
	case config.StorageMongoDB:
		p, err := mongodb.NewProvider(cfg.URL, cfg.Database, mongodb.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, fmt.Errorf("open mongodb store: %w", err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

func configOptions(ctx context.Context, cfg *config.Config, store spi.Provider) ([]Option, error) {
	opts := []Option{WithStoreProvider(store)}

	kmsOpts, err := kmsOptions(ctx, cfg.KMS, store)
	if err != nil {
		return nil, err
	}

	opts = append(opts, kmsOpts...)

	vdrOpts, err := vdrOptions(cfg.VDR)
	if err != nil {
		return nil, err
	}

	opts = append(opts, vdrOpts...)

	if cfg.Disclosure.ChallengeTracking {
		opts = append(opts, WithChallengeTracking(cfg.Disclosure.ChallengeCacheSize, cfg.Disclosure.ChallengeTTL))
	}

	opts = append(opts,
		WithAnchorWriteTimeout(cfg.Anchor.WriteTimeout),
		WithAnchorMaxRetries(cfg.Anchor.MaxRetries))

	for _, id := range cfg.Anchor.LocalChains {
		opts = append(opts, WithLocalChain(id))
	}

	if cfg.Anchor.S3.Bucket != "" {
		s3Opt, e := s3Option(ctx, cfg.Anchor.S3)
		if e != nil {
			return nil, e
		}

		opts = append(opts, s3Opt)
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, WithMetricsProvider(prometheus.NewPrometheusProvider()))
	}

	return opts, nil
}

func kmsOptions(ctx context.Context, cfg config.KMSConfig, store spi.Provider) ([]Option, error) {
	switch cfg.Type {
	case config.KMSAWS:
		awsCfg, err := loadAWSConfig(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, err
		}

		return []Option{WithKMS(awskms.New(awsCfg, awskms.WithAliasPrefix(cfg.AliasPrefix)))}, nil
	case config.KMSLocal:
		var opts []Option

		p := &kmsProvider{store: store, lock: noopLock.NoLock{}}

		if cfg.Passphrase != "" {
			lock, err := hkdf.NewMasterLock(cfg.Passphrase, sha256.New, nil)
			if err != nil {
				return nil, fmt.Errorf("create master lock: %w", err)
			}

			p.lock = lock
			opts = append(opts, WithSecretLock(lock))
		} else {
			logger.Warnf("no kms passphrase set, local keys are stored unencrypted")
		}

		if cfg.InstanceID == "" {
			return opts, nil
		}

		km, err := localkms.New(p, localkms.WithInstanceID(cfg.InstanceID))
		if err != nil {
			return nil, fmt.Errorf("create local kms: %w", err)
		}

		return append(opts, WithKMS(km)), nil
	default:
		return nil, fmt.Errorf("unsupported kms type %q", cfg.Type)
	}
}

func vdrOptions(cfg config.VDRConfig) ([]Option, error) {
	opts := []Option{WithResolveTimeout(cfg.ResolveTimeout)}

	if cfg.CacheSize > 0 {
		opts = append(opts, WithResolveCache(cfg.CacheSize, cfg.CacheTTL))
	}

	for method, endpoint := range cfg.HTTPResolvers {
		m := method

		httpOpts := []httpbinding.Option{
			httpbinding.WithTimeout(cfg.ResolveTimeout),
			httpbinding.WithAccept(func(method string) bool { return method == m }),
		}

		if cfg.HTTPToken != "" {
			httpOpts = append(httpOpts, httpbinding.WithResolveAuthToken(cfg.HTTPToken))
		}

		v, err := httpbinding.New(endpoint, httpOpts...)
		if err != nil {
			return nil, fmt.Errorf("create http resolver for did:%s: %w", method, err)
		}

		opts = append(opts, WithVDR(v))
	}

	return opts, nil
}

func s3Option(ctx context.Context, cfg config.S3Config) (Option, error) {
	awsCfg, err := loadAWSConfig(ctx, cfg.Region, cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	return WithChainClient(cfg.ChainID, s3chain.New(awsCfg, cfg.Bucket, s3chain.WithPrefix(cfg.Prefix))), nil
}

func loadAWSConfig(ctx context.Context, region, endpoint string) (*aws.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error

	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	if endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(_, region string, _ ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: endpoint, SigningRegion: region, HostnameImmutable: true}, nil
			})

		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &awsCfg, nil
}

type kmsProvider struct {
	store spi.Provider
	lock  secretlock.Service
}

func (p *kmsProvider) StorageProvider() spi.Provider { return p.store }

func (p *kmsProvider) SecretLock() secretlock.Service { return p.lock }
