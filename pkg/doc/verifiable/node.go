/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"
	"time"

	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
)

func stringField(n *claim.Node, key string, required bool) (string, error) {
	v, ok := n.Field(key)
	if !ok || v.IsNull() {
		if required {
			return "", fmt.Errorf("missing %s", key)
		}

		return "", nil
	}

	s, ok := v.StringValue()
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}

	return s, nil
}

func bytesField(n *claim.Node, key string) ([]byte, error) {
	s, err := stringField(n, key, true)
	if err != nil {
		return nil, err
	}

	b, err := decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}

	return b, nil
}

func timeField(n *claim.Node, key string, required bool) (*time.Time, error) {
	s, err := stringField(n, key, required)
	if err != nil || s == "" {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}

	return &t, nil
}

func stringsField(n *claim.Node, key string) ([]string, error) {
	v, ok := n.Field(key)
	if !ok {
		return nil, nil
	}

	if s, isString := v.StringValue(); isString {
		return []string{s}, nil
	}

	if v.Kind() != claim.ArrayKind {
		return nil, fmt.Errorf("%s must be a string or an array of strings", key)
	}

	out := make([]string, 0, v.Len())

	for _, item := range v.Items() {
		s, isString := item.StringValue()
		if !isString {
			return nil, fmt.Errorf("%s must be a string or an array of strings", key)
		}

		out = append(out, s)
	}

	return out, nil
}

func arrayField(n *claim.Node, key string) ([]*claim.Node, error) {
	v, ok := n.Field(key)
	if !ok {
		return nil, nil
	}

	if v.Kind() != claim.ArrayKind {
		return nil, fmt.Errorf("%s must be an array", key)
	}

	return v.Items(), nil
}

func stringArray(values []string) *claim.Node {
	items := make([]*claim.Node, len(values))
	for i, v := range values {
		items[i] = claim.String(v)
	}

	return claim.Array(items...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
