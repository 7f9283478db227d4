/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination awskms_mocks_test.go -package awskms -source=awskms.go

// Package awskms is a key manager backed by AWS KMS asymmetric keys. Keys are
// addressed by their multicodec fingerprint through a KMS alias.
package awskms

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
	"github.com/hyperledger/aries-trust-core/pkg/doc/util/fingerprint"
	kmsapi "github.com/hyperledger/aries-trust-core/pkg/kms"
)

const (
	defaultAliasPrefix = "trustcore"
	defaultTimeout     = 10 * time.Second
)

var logger = log.New("trustcore/kms/aws")

type awsClient interface {
	CreateKey(ctx context.Context, params *kms.CreateKeyInput,
		optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
	CreateAlias(ctx context.Context, params *kms.CreateAliasInput,
		optFns ...func(*kms.Options)) (*kms.CreateAliasOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput,
		optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

type opts struct {
	client      awsClient
	aliasPrefix string
	timeout     time.Duration
}

// Opt configures the service.
type Opt func(o *opts)

// WithAliasPrefix sets the alias namespace, "trustcore" by default.
func WithAliasPrefix(prefix string) Opt {
	return func(o *opts) {
		o.aliasPrefix = prefix
	}
}

// WithTimeout bounds each AWS call.
func WithTimeout(timeout time.Duration) Opt {
	return func(o *opts) {
		o.timeout = timeout
	}
}

// WithAWSClient replaces the SDK client.
func WithAWSClient(client awsClient) Opt {
	return func(o *opts) {
		o.client = client
	}
}

// Service implements kms.KeyManager on AWS KMS. Only P-256 keys are supported.
type Service struct {
	client      awsClient
	aliasPrefix string
	timeout     time.Duration
	publicKeys  sync.Map
}

// New creates the service from an AWS configuration.
func New(awsConfig *aws.Config, options ...Opt) *Service {
	o := &opts{aliasPrefix: defaultAliasPrefix, timeout: defaultTimeout}

	for _, opt := range options {
		opt(o)
	}

	client := o.client
	if client == nil {
		client = kms.NewFromConfig(*awsConfig)
	}

	return &Service{client: client, aliasPrefix: strings.Trim(o.aliasPrefix, "/"), timeout: o.timeout}
}

// Create creates a KMS key and aliases it by the fingerprint of its public key.
func (s *Service) Create(kt kmsapi.KeyType) (kmsapi.KeyHandle, error) {
	if kt != kmsapi.ECDSAP256TypeDER {
		return kmsapi.KeyHandle{}, fmt.Errorf("awskms: key type %s not supported", kt)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	created, err := s.client.CreateKey(ctx, &kms.CreateKeyInput{
		KeySpec:  types.KeySpecEccNistP256,
		KeyUsage: types.KeyUsageTypeSignVerify,
	})
	if err != nil {
		return kmsapi.KeyHandle{}, fmt.Errorf("awskms: create key: %w", err)
	}

	pub, err := s.fetchPublicKey(ctx, *created.KeyMetadata.KeyId)
	if err != nil {
		return kmsapi.KeyHandle{}, err
	}

	keyID, err := fingerprint.ForKey(kt, pub)
	if err != nil {
		return kmsapi.KeyHandle{}, err
	}

	_, err = s.client.CreateAlias(ctx, &kms.CreateAliasInput{
		AliasName:   aws.String(s.alias(keyID)),
		TargetKeyId: created.KeyMetadata.KeyId,
	})
	if err != nil {
		return kmsapi.KeyHandle{}, fmt.Errorf("awskms: create alias: %w", err)
	}

	s.publicKeys.Store(keyID, pub)

	logger.Infof("created AWS KMS key %s as %s", *created.KeyMetadata.KeyId, keyID)

	return kmsapi.KeyHandle{KeyID: keyID, Type: kt}, nil
}

// Sign asks KMS to sign the SHA-256 digest of data. The signature is ASN.1 DER.
func (s *Service) Sign(keyID string, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	digest := sha256.Sum256(data)

	result, err := s.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(s.alias(keyID)),
		Message:          digest[:],
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return nil, classify(keyID, err)
	}

	return result.Signature, nil
}

// PublicKey returns the compressed P-256 public key of keyID.
func (s *Service) PublicKey(keyID string) ([]byte, kmsapi.KeyType, error) {
	if pub, ok := s.publicKeys.Load(keyID); ok {
		return pub.([]byte), kmsapi.ECDSAP256TypeDER, nil //nolint:forcetypeassert
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	pub, err := s.fetchPublicKey(ctx, s.alias(keyID))
	if err != nil {
		return nil, "", classify(keyID, err)
	}

	s.publicKeys.Store(keyID, pub)

	return pub, kmsapi.ECDSAP256TypeDER, nil
}

func (s *Service) fetchPublicKey(ctx context.Context, awsKeyID string) ([]byte, error) {
	result, err := s.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(awsKeyID)})
	if err != nil {
		return nil, fmt.Errorf("awskms: get public key: %w", err)
	}

	parsed, err := x509.ParsePKIXPublicKey(result.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("awskms: parse public key: %w", err)
	}

	ecKey, ok := parsed.(*ecdsa.PublicKey)
	if !ok || ecKey.Curve != elliptic.P256() {
		return nil, errors.New("awskms: public key is not P-256")
	}

	return elliptic.MarshalCompressed(elliptic.P256(), ecKey.X, ecKey.Y), nil
}

func (s *Service) alias(keyID string) string {
	return fmt.Sprintf("alias/%s/%s", s.aliasPrefix, keyID)
}

func classify(keyID string, err error) error {
	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		return trusterr.Wrap(trusterr.KeyNotFound, err, "awskms: key %s", keyID)
	}

	return fmt.Errorf("awskms: %w", err)
}
