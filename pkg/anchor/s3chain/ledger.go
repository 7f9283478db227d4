/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination ledger_mocks_test.go -package s3chain -source=ledger.go

// Package s3chain anchors digests as write-once objects in an S3 bucket.
package s3chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/hyperledger/aries-trust-core/pkg/anchor"
	"github.com/hyperledger/aries-trust-core/pkg/common/log"
	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
)

const (
	contentType   = "application/json"
	defaultPrefix = "anchors"
	digestMeta    = "digest"
)

var logger = log.New("trustcore/anchor/s3chain")

type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type entry struct {
	Digest     string    `json:"digest"`
	PayloadRef string    `json:"payloadRef"`
	AnchoredAt time.Time `json:"anchoredAt"`
}

// Option configures a Ledger.
type Option func(l *Ledger)

// WithS3Client replaces the SDK client.
func WithS3Client(client s3Client) Option {
	return func(l *Ledger) {
		l.client = client
	}
}

// WithPrefix sets the key prefix of anchor objects, "anchors" by default.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) {
		l.prefix = strings.Trim(prefix, "/")
	}
}

// WithClock sets the time source of AnchoredAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// Ledger implements anchor.ChainClient on an S3 bucket. Every write goes to a fresh
// random key so objects are never overwritten.
type Ledger struct {
	client s3Client
	bucket string
	prefix string
	now    func() time.Time
}

// New returns a ledger writing to bucket.
func New(awsConfig *aws.Config, bucket string, opts ...Option) *Ledger {
	l := &Ledger{bucket: bucket, prefix: defaultPrefix, now: time.Now}

	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		l.client = s3.NewFromConfig(*awsConfig)
	}

	return l
}

// Write stores digest and payloadRef under a new object key and returns the key.
func (l *Ledger) Write(ctx context.Context, digest []byte, payloadRef string) (string, error) {
	e := &entry{Digest: hex.EncodeToString(digest), PayloadRef: payloadRef, AnchoredAt: l.now().UTC()}

	body, err := json.Marshal(e)
	if err != nil {
		return "", err
	}

	key := l.prefix + "/" + uuid.NewString() + ".json"

	_, err = l.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{digestMeta: e.Digest},
	})
	if err != nil {
		return "", classify(err)
	}

	logger.Debugf("anchored %s at s3://%s/%s", e.Digest, l.bucket, key)

	return key, nil
}

// classify marks server faults and transport errors as transient; client faults
// such as missing buckets or denied access are rejections.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorFault() != smithy.FaultServer {
		return trusterr.Wrap(trusterr.AnchorWriteFailure, err, "put anchor object")
	}

	return trusterr.NewRetryable(fmt.Errorf("put anchor object: %w", err))
}

// Read returns the digest and payload reference stored under txRef.
func (l *Ledger) Read(ctx context.Context, txRef string) ([]byte, string, error) {
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(txRef),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, "", fmt.Errorf("%w: %s", anchor.ErrTxNotFound, txRef)
		}

		return nil, "", fmt.Errorf("get anchor object %s: %w", txRef, err)
	}

	defer func() {
		if errClose := out.Body.Close(); errClose != nil {
			logger.Warnf("close anchor object %s: %s", txRef, errClose)
		}
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read anchor object %s: %w", txRef, err)
	}

	e := &entry{}
	if err := json.Unmarshal(body, e); err != nil {
		return nil, "", fmt.Errorf("decode anchor object %s: %w", txRef, err)
	}

	digest, err := hex.DecodeString(e.Digest)
	if err != nil {
		return nil, "", fmt.Errorf("decode anchor object %s: %w", txRef, err)
	}

	return digest, e.PayloadRef, nil
}

var _ anchor.ChainClient = (*Ledger)(nil)
