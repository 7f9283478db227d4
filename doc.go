/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package trustcore issues, holds and verifies credentials bound to decentralized identifiers.
//
// Packages for end developer usage
//
// pkg/framework/trustcore: Wires every service below over one storage provider, from functional
// options or from a pkg/config file.
//
// pkg/issuer: Signs credentials, optionally committing to each subject field with a salted
// digest so that holders can later reveal fields one by one.
//
// pkg/verifier: Checks proof, issuer key, expiration, revocation and schema of a credential and
// reports every failed check.
//
// pkg/disclosure: Builds holder-signed presentations revealing a subset of committed fields and
// verifies them against single-use challenges.
//
// pkg/wallet: Content-addressed credential store with tags, collections and claim queries.
//
// pkg/anchor: Records credential digests on append-only ledgers (pkg/anchor/localchain,
// pkg/anchor/s3chain) and checks payloads against them.
//
// pkg/vdr: DID registry with did:key, did:peer and HTTP resolver methods.
//
// pkg/kms: Key manager API with local (pkg/kms/localkms) and AWS (pkg/kms/awskms) backends.
//
// Storage backends implementing spi/storage live under pkg/storage.
package trustcore
