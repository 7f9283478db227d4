/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did models decentralized identifiers and their documents.
package did

import (
	"fmt"
	"regexp"
	"strings"
)

const minDIDParts = 3

var methodPattern = regexp.MustCompile(`^[a-z0-9]+$`)

// DID is a decentralized identifier: did:<method>:<method-specific-id>.
type DID struct {
	Method           string
	MethodSpecificID string
}

// Parse parses a DID string. DID URLs (with path, query or fragment) are rejected.
func Parse(s string) (DID, error) {
	parts := strings.SplitN(s, ":", minDIDParts)

	if len(parts) < minDIDParts || parts[0] != "did" {
		return DID{}, fmt.Errorf("invalid did: %s. Make sure it conforms to the DID syntax: "+
			"https://w3c.github.io/did-core/#did-syntax", s)
	}

	if !methodPattern.MatchString(parts[1]) {
		return DID{}, fmt.Errorf("invalid did method %q", parts[1])
	}

	if parts[2] == "" || strings.ContainsAny(parts[2], "#?/") {
		return DID{}, fmt.Errorf("invalid method specific id in %s", s)
	}

	return DID{Method: parts[1], MethodSpecificID: parts[2]}, nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(s string) DID {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return d
}

// String returns the DID in its string form.
func (d DID) String() string {
	if d.IsZero() {
		return ""
	}

	return "did:" + d.Method + ":" + d.MethodSpecificID
}

// IsZero reports whether the DID is empty.
func (d DID) IsZero() bool {
	return d.Method == "" && d.MethodSpecificID == ""
}

// MarshalText encodes the DID as its string form.
func (d DID) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a DID string.
func (d *DID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = DID{}

		return nil
	}

	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// URL returns the DID URL addressing fragment within the DID's document.
func (d DID) URL(fragment string) string {
	return d.String() + "#" + fragment
}

// SplitURL splits a DID URL into its DID part and fragment.
func SplitURL(url string) (string, string) {
	if i := strings.Index(url, "#"); i >= 0 {
		return url[:i], url[i+1:]
	}

	return url, ""
}
