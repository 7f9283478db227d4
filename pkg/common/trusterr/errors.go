/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package trusterr defines the error kinds shared by the trust core components.
package trusterr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind int

// Error kinds.
const (
	Unknown Kind = iota
	DidNotFound
	DidMethodUnsupported
	KeyNotFound
	KeyNotAuthorized
	InvalidProof
	ExpiredCredential
	RevokedCredential
	SchemaViolation
	CommitmentMismatch
	ReplayedChallenge
	DigestMismatch
	AnchorWriteFailure
	CanonicalizationError
	IssuerUnresolvable
)

//nolint:gochecknoglobals
var kindNames = map[Kind]string{
	Unknown:               "Unknown",
	DidNotFound:           "DidNotFound",
	DidMethodUnsupported:  "DidMethodUnsupported",
	KeyNotFound:           "KeyNotFound",
	KeyNotAuthorized:      "KeyNotAuthorized",
	InvalidProof:          "InvalidProof",
	ExpiredCredential:     "ExpiredCredential",
	RevokedCredential:     "RevokedCredential",
	SchemaViolation:       "SchemaViolation",
	CommitmentMismatch:    "CommitmentMismatch",
	ReplayedChallenge:     "ReplayedChallenge",
	DigestMismatch:        "DigestMismatch",
	AnchorWriteFailure:    "AnchorWriteFailure",
	CanonicalizationError: "CanonicalizationError",
	IssuerUnresolvable:    "IssuerUnresolvable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sentinels usable with errors.Is.
var (
	ErrDidNotFound          = &Error{Kind: DidNotFound}
	ErrDidMethodUnsupported = &Error{Kind: DidMethodUnsupported}
	ErrKeyNotFound          = &Error{Kind: KeyNotFound}
	ErrKeyNotAuthorized     = &Error{Kind: KeyNotAuthorized}
	ErrInvalidProof         = &Error{Kind: InvalidProof}
	ErrExpiredCredential    = &Error{Kind: ExpiredCredential}
	ErrRevokedCredential    = &Error{Kind: RevokedCredential}
	ErrSchemaViolation      = &Error{Kind: SchemaViolation}
	ErrCommitmentMismatch   = &Error{Kind: CommitmentMismatch}
	ErrReplayedChallenge    = &Error{Kind: ReplayedChallenge}
	ErrDigestMismatch       = &Error{Kind: DigestMismatch}
	ErrAnchorWriteFailure   = &Error{Kind: AnchorWriteFailure}
	ErrCanonicalization     = &Error{Kind: CanonicalizationError}
	ErrIssuerUnresolvable   = &Error{Kind: IssuerUnresolvable}
)

// Error is a classified failure. Retryable is only meaningful for AnchorWriteFailure.
type Error struct {
	Kind      Kind
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind
}

// New creates an error of the given kind with a formatted message and stack trace.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: pkgerrors.Errorf(format, args...)}
}

// Wrap classifies err with kind, keeping it as the cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Err: pkgerrors.Wrapf(err, format, args...)}
}

// NewRetryable creates an anchor write failure that callers may retry.
func NewRetryable(err error) error {
	return &Error{Kind: AnchorWriteFailure, Retryable: true, Err: pkgerrors.WithStack(err)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unknown
}

// IsRetryable reports whether a classified error in the chain is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}

	return false
}
