/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storageutil holds helpers shared by the key-value storage backends.
package storageutil

import (
	"fmt"

	"github.com/ugorji/go/codec"

	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

//nolint:gochecknoglobals
var msgpackHandle = &codec.MsgpackHandle{WriteExt: true}

// Record is the persisted form of a value and its tags in byte oriented backends.
type Record struct {
	Value []byte    `codec:"v"`
	Tags  []spi.Tag `codec:"t"`
}

// EncodeRecord serializes a value with its tags as msgpack.
func EncodeRecord(value []byte, tags []spi.Tag) ([]byte, error) {
	var out []byte

	if err := codec.NewEncoderBytes(&out, msgpackHandle).Encode(&Record{Value: value, Tags: tags}); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	return out, nil
}

// DecodeRecord parses bytes written by EncodeRecord.
func DecodeRecord(data []byte) (*Record, error) {
	rec := &Record{}

	if err := codec.NewDecoderBytes(data, msgpackHandle).Decode(rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	return rec, nil
}
