/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storage defines the key-value storage contract behind the key store,
// the wallet, DID document persistence and the local anchor ledger.
package storage

import (
	"errors"
	"strings"

	spi "github.com/hyperledger/aries-trust-core/spi/log"
)

// ErrStoreNotFound is returned when a store is not found.
var ErrStoreNotFound = errors.New("store not found")

// ErrDataNotFound is returned when data is not found.
var ErrDataNotFound = errors.New("data not found")

// ErrDuplicateKey is returned by Insert when the key already holds a value.
var ErrDuplicateKey = errors.New("duplicate key")

// Tag is a name/value pair attached to a stored value and used by Query.
// Names and values must not contain ':'.
type Tag struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// Provider opens named stores. Store names are case insensitive.
type Provider interface {
	OpenStore(name string) (Store, error)
	Close() error
}

// Store is a key-value store with tag based queries.
type Store interface {
	// Put stores the value, replacing any previous value and tags.
	Put(key string, value []byte, tags ...Tag) error
	// Insert stores the value only if the key is absent; otherwise ErrDuplicateKey.
	// The check and the write are a single atomic step.
	Insert(key string, value []byte, tags ...Tag) error
	// Get returns ErrDataNotFound for an unknown key.
	Get(key string) ([]byte, error)
	GetTags(key string) ([]Tag, error)
	// Query accepts "TagName" or "TagName:TagValue".
	Query(expression string) (Iterator, error)
	// Delete is a no-op for an unknown key.
	Delete(key string) error
	Close() error
}

// Iterator walks query results.
type Iterator interface {
	Next() (bool, error)
	Key() (string, error)
	Value() ([]byte, error)
	Tags() ([]Tag, error)
	Close() error
}

// ParseQuery splits a query expression into its tag name and optional value.
func ParseQuery(expression string) (name, value string, err error) {
	if expression == "" {
		return "", "", errors.New("invalid expression format: empty expression")
	}

	parts := strings.Split(expression, ":")

	switch len(parts) {
	case 1:
		return parts[0], "", nil
	case 2: //nolint:gomnd
		return parts[0], parts[1], nil
	default:
		return "", "", errors.New("invalid expression format: it must be in the following format: TagName:TagValue")
	}
}

// ValidateTags rejects tags that would be ambiguous in a query expression.
func ValidateTags(tags []Tag) error {
	for _, tag := range tags {
		if strings.Contains(tag.Name, ":") {
			return errors.New("tag name cannot contain any ':' characters")
		}

		if strings.Contains(tag.Value, ":") {
			return errors.New("tag value cannot contain any ':' characters")
		}
	}

	return nil
}

// MatchTags reports whether tags satisfy a parsed query.
func MatchTags(tags []Tag, name, value string) bool {
	for _, tag := range tags {
		if tag.Name == name && (value == "" || tag.Value == value) {
			return true
		}
	}

	return false
}

// Close closes the iterator, logging any failure.
func Close(iterator Iterator, logger spi.Logger) {
	if err := iterator.Close(); err != nil && logger != nil {
		logger.Errorf("failed to close iterator: %s", err.Error())
	}
}

// Entry is a materialized query result.
type Entry struct {
	Key   string
	Value []byte
	Tags  []Tag
}

// Collect drains the iterator and closes it.
func Collect(iterator Iterator) ([]Entry, error) {
	defer iterator.Close() //nolint:errcheck

	var entries []Entry

	for {
		ok, err := iterator.Next()
		if err != nil {
			return nil, err
		}

		if !ok {
			return entries, nil
		}

		key, err := iterator.Key()
		if err != nil {
			return nil, err
		}

		value, err := iterator.Value()
		if err != nil {
			return nil, err
		}

		tags, err := iterator.Tags()
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{Key: key, Value: value, Tags: tags})
	}
}
