/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyconv converts between Ed25519 signing keys and X25519
// key-agreement keys, for the common case of a DID document publishing a
// single Ed25519 verification method that must also serve as an
// ECDH-ES/1PU recipient key. Conversion between the two curves
// (Edwards25519 and Curve25519 share the same underlying field) uses the
// extra25519 routines from github.com/teserakt-io/golang-ed25519.
package keyconv

import (
	"github.com/teserakt-io/golang-ed25519/extra25519"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// PublicEdToX25519 converts an Ed25519 verification key to its X25519
// key-agreement counterpart.
func PublicEdToX25519(edPub []byte) ([]byte, error) {
	if len(edPub) != 32 {
		return nil, didcommerr.New(didcommerr.Internal, "ed25519 public key must be 32 bytes")
	}

	var edArr, xArr [32]byte
	copy(edArr[:], edPub)

	if !extra25519.PublicKeyToCurve25519(&xArr, &edArr) {
		return nil, didcommerr.New(didcommerr.KeyAgreementFailed, "ed25519 public key is not convertible to x25519")
	}

	return xArr[:], nil
}

// PrivateEdToX25519 converts an Ed25519 signing key (64-byte seed||public
// form, as produced by crypto/ed25519) to its X25519 key-agreement
// counterpart.
func PrivateEdToX25519(edPriv []byte) ([]byte, error) {
	if len(edPriv) != 64 {
		return nil, didcommerr.New(didcommerr.Internal, "ed25519 private key must be 64 bytes")
	}

	var edArr [64]byte
	copy(edArr[:], edPriv)

	var xArr [32]byte
	extra25519.PrivateKeyToCurve25519(&xArr, &edArr)

	return xArr[:], nil
}
