/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storageutil

import (
	"errors"

	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

var errIteratorExhausted = errors.New("iterator is exhausted")

// SliceIterator iterates over entries materialized in memory.
type SliceIterator struct {
	entries []spi.Entry
	pos     int
}

// NewSliceIterator returns an iterator positioned before the first entry.
func NewSliceIterator(entries []spi.Entry) *SliceIterator {
	return &SliceIterator{entries: entries, pos: -1}
}

// Next advances the iterator.
func (i *SliceIterator) Next() (bool, error) {
	if i.pos+1 >= len(i.entries) {
		i.pos = len(i.entries)

		return false, nil
	}

	i.pos++

	return true, nil
}

// Key returns the current key.
func (i *SliceIterator) Key() (string, error) {
	e, err := i.current()
	if err != nil {
		return "", err
	}

	return e.Key, nil
}

// Value returns the current value.
func (i *SliceIterator) Value() ([]byte, error) {
	e, err := i.current()
	if err != nil {
		return nil, err
	}

	return e.Value, nil
}

// Tags returns the current tags.
func (i *SliceIterator) Tags() ([]spi.Tag, error) {
	e, err := i.current()
	if err != nil {
		return nil, err
	}

	return e.Tags, nil
}

// Close releases nothing.
func (i *SliceIterator) Close() error {
	return nil
}

func (i *SliceIterator) current() (spi.Entry, error) {
	if i.pos < 0 || i.pos >= len(i.entries) {
		return spi.Entry{}, errIteratorExhausted
	}

	return i.entries[i.pos], nil
}
