/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claim

import (
	"bytes"
	"crypto/sha256"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
)

const hexDigits = "0123456789abcdef"

// Canonicalize returns the canonical JSON form of the node: object members sorted
// by their UTF-16 code units, no insignificant whitespace, ECMAScript number
// formatting and minimal string escaping. Equal values always produce equal bytes.
func Canonicalize(n *Node) ([]byte, error) {
	var buf bytes.Buffer

	if err := writeCanonical(&buf, n); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Digest returns the SHA-256 hash of the canonical form.
func Digest(n *Node) ([]byte, error) {
	data, err := Canonicalize(n)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)

	return sum[:], nil
}

func writeCanonical(buf *bytes.Buffer, n *Node) error {
	switch n.Kind() {
	case NullKind:
		buf.WriteString("null")
	case BoolKind:
		buf.WriteString(strconv.FormatBool(n.b))
	case NumberKind:
		s, err := formatNumber(n.n)
		if err != nil {
			return err
		}

		buf.WriteString(s)
	case StringKind:
		return writeString(buf, n.s)
	case ArrayKind:
		buf.WriteByte('[')

		for i, item := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	case ObjectKind:
		keys := maps.Keys(n.fields)
		slices.SortFunc(keys, compareUTF16)

		buf.WriteByte('{')

		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeString(buf, k); err != nil {
				return err
			}

			buf.WriteByte(':')

			if err := writeCanonical(buf, n.fields[k]); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	}

	return nil
}

// formatNumber renders f the way ECMAScript Number.prototype.toString does.
func formatNumber(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", trusterr.New(trusterr.CanonicalizationError, "non-finite number %v", f)
	}

	if f == 0 {
		return "0", nil
	}

	format := byte('f')
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		format = 'e'
	}

	s := strconv.FormatFloat(f, format, -1, 64)

	if format == 'e' {
		// Go pads exponents to two digits: 1e-07 -> 1e-7
		if l := len(s); l > 3 && s[l-2] == '0' && (s[l-3] == '-' || s[l-3] == '+') {
			s = s[:l-2] + s[l-1:]
		}
	}

	return s, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if !utf8.ValidString(s) {
		return trusterr.New(trusterr.CanonicalizationError, "invalid UTF-8 in string %q", s)
	}

	buf.WriteByte('"')

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if c < 0x20 {
				buf.WriteString(`\u00`)
				buf.WriteByte(hexDigits[c>>4])
				buf.WriteByte(hexDigits[c&0xf])
			} else {
				buf.WriteByte(c)
			}
		}
	}

	buf.WriteByte('"')

	return nil
}

func compareUTF16(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))

	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}

			return 1
		}
	}

	return len(ua) - len(ub)
}
