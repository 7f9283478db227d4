/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package wallet

import (
	"context"
	"fmt"
	"reflect"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/samber/lo"

	"github.com/hyperledger/aries-trust-core/pkg/doc/claim"
	"github.com/hyperledger/aries-trust-core/pkg/doc/did"
	"github.com/hyperledger/aries-trust-core/pkg/doc/verifiable"
	"github.com/hyperledger/aries-trust-core/pkg/verifier"
)

// Predicate selects wallet entries. Predicates must not modify the entry.
type Predicate func(ctx context.Context, e *Entry) (bool, error)

// CredentialVerifier verifies credentials.
type CredentialVerifier interface {
	Verify(ctx context.Context, vc *verifiable.Credential, opts ...verifier.VerifyOpt) *verifier.Result
}

//nolint:gochecknoglobals
var claimLanguage = gval.Full(jsonpath.Language())

// HasType matches credentials declaring type t.
func HasType(t string) Predicate {
	return func(_ context.Context, e *Entry) (bool, error) {
		return e.Credential.HasType(t), nil
	}
}

// HasTag matches entries carrying label.
func HasTag(label string) Predicate {
	return func(_ context.Context, e *Entry) (bool, error) {
		return lo.Contains(e.Tags, label), nil
	}
}

// InCollection matches entries of the named collection.
func InCollection(name string) Predicate {
	return func(_ context.Context, e *Entry) (bool, error) {
		return lo.Contains(e.Collections, name), nil
	}
}

// IssuedBy matches credentials of the issuer.
func IssuedBy(issuer did.DID) Predicate {
	return func(_ context.Context, e *Entry) (bool, error) {
		return e.Credential.Issuer == issuer, nil
	}
}

// ClaimEquals matches credentials whose visible subject holds value at the JSONPath
// path, for example "$.address.city". When the path selects several values, any of
// them may match. Undisclosed fields never match.
func ClaimEquals(path string, value interface{}) Predicate {
	want, err := claim.FromGo(value)

	return func(_ context.Context, e *Entry) (bool, error) {
		if err != nil {
			return false, fmt.Errorf("claim equals %s: %w", path, err)
		}

		subject, ok := visibleSubject(e)
		if !ok {
			return false, nil
		}

		got, err := jsonpath.Get(path, subject)
		if err != nil {
			// path absent from this subject
			return false, nil //nolint:nilerr
		}

		if reflect.DeepEqual(got, want.ToGo()) {
			return true, nil
		}

		if values, ok := got.([]interface{}); ok {
			return lo.ContainsBy(values, func(v interface{}) bool { return reflect.DeepEqual(v, want.ToGo()) }), nil
		}

		return false, nil
	}
}

// ClaimMatches matches credentials whose visible subject satisfies a boolean gval
// expression over JSONPath selectors, for example `$.age >= 18 && $.address.country == "FR"`.
func ClaimMatches(expression string) Predicate {
	eval, err := claimLanguage.NewEvaluable(expression)

	return func(ctx context.Context, e *Entry) (bool, error) {
		if err != nil {
			return false, fmt.Errorf("claim expression %q: %w", expression, err)
		}

		subject, ok := visibleSubject(e)
		if !ok {
			return false, nil
		}

		matched, evalErr := eval.EvalBool(ctx, subject)
		if evalErr != nil {
			// selector absent from this subject
			return false, nil //nolint:nilerr
		}

		return matched, nil
	}
}

// IsValid matches credentials that pass verification.
func IsValid(v CredentialVerifier, opts ...verifier.VerifyOpt) Predicate {
	return func(ctx context.Context, e *Entry) (bool, error) {
		return v.Verify(ctx, e.Credential, opts...).Valid(), nil
	}
}

// And matches entries matching every predicate. And() matches everything.
func And(predicates ...Predicate) Predicate {
	return func(ctx context.Context, e *Entry) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx, e)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	}
}

// Or matches entries matching any predicate. Or() matches nothing.
func Or(predicates ...Predicate) Predicate {
	return func(ctx context.Context, e *Entry) (bool, error) {
		for _, p := range predicates {
			ok, err := p(ctx, e)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		return false, nil
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(ctx context.Context, e *Entry) (bool, error) {
		ok, err := p(ctx, e)

		return !ok && err == nil, err
	}
}

func visibleSubject(e *Entry) (interface{}, bool) {
	subject, err := e.Credential.VisibleSubject()
	if err != nil {
		return nil, false
	}

	return subject.ToGo(), true
}
