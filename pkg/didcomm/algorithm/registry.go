/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package algorithm is the fixed table of content encryption and
// signature algorithms this module knows how to pack and unpack. It is a
// plain constant lookup table, not a plugin registry: the set of
// algorithms is closed, only the primitive adapters behind them
// (Cypher/Signer) are pluggable.
package algorithm

import "github.com/trustbloc/didcomm-go/pkg/didcommerr"

// ContentEnc identifies a content-encryption ("enc") algorithm.
type ContentEnc string

// Enumerated content-encryption algorithms.
const (
	XC20P        ContentEnc = "XC20P"
	A256GCM      ContentEnc = "A256GCM"
	A256CBCHS512 ContentEnc = "A256CBC-HS512"
)

// KeyWrapAlg identifies a key-agreement/key-wrap ("alg") algorithm.
type KeyWrapAlg string

// Enumerated key-wrap algorithms.
const (
	ECDHESA256KW  KeyWrapAlg = "ECDH-ES+A256KW"
	ECDH1PUA256KW KeyWrapAlg = "ECDH-1PU+A256KW"
	ECDHESDirect  KeyWrapAlg = "ECDH-ES"
	ECDH1PUDirect KeyWrapAlg = "ECDH-1PU"
)

// SigAlg identifies a signature algorithm.
type SigAlg string

// Enumerated signature algorithms.
const (
	EdDSA  SigAlg = "EdDSA"
	ES256  SigAlg = "ES256"
	ES256K SigAlg = "ES256K"
)

// Curve identifies the elliptic curve / key type a recipient key lives on.
type Curve string

// Supported curves.
const (
	X25519    Curve = "X25519"
	P256      Curve = "P-256"
	Secp256K1 Curve = "secp256k1"
)

// ContentEncInfo describes one ContentEnc table entry.
type ContentEncInfo struct {
	Alg         ContentEnc
	KeyLength   int
	NonceLength int
	TagLength   int
	AEAD        bool
	AllowDirect bool // permitted as a single-recipient direct key-wrap target
}

//nolint:gochecknoglobals
var contentEncTable = map[ContentEnc]ContentEncInfo{
	XC20P: {
		Alg: XC20P, KeyLength: 32, NonceLength: 24, TagLength: 16, AEAD: true, AllowDirect: true,
	},
	A256GCM: {
		Alg: A256GCM, KeyLength: 32, NonceLength: 12, TagLength: 16, AEAD: true, AllowDirect: true,
	},
	A256CBCHS512: {
		Alg: A256CBCHS512, KeyLength: 64, NonceLength: 16, TagLength: 32, AEAD: true, AllowDirect: true,
	},
}

// LookupContentEnc returns the table entry for enc, or UnsupportedAlgorithm.
func LookupContentEnc(enc ContentEnc) (ContentEncInfo, error) {
	info, ok := contentEncTable[enc]
	if !ok {
		return ContentEncInfo{}, didcommerr.New(didcommerr.UnsupportedAlgorithm, "unsupported content encryption algorithm '"+string(enc)+"'")
	}

	return info, nil
}

// SigAlgInfo describes one SigAlg table entry.
type SigAlgInfo struct {
	Alg   SigAlg
	Curve Curve
}

//nolint:gochecknoglobals
var sigAlgTable = map[SigAlg]SigAlgInfo{
	EdDSA:  {Alg: EdDSA, Curve: X25519},
	ES256:  {Alg: ES256, Curve: P256},
	ES256K: {Alg: ES256K, Curve: Secp256K1},
}

// LookupSigAlg returns the table entry for alg, or UnsupportedAlgorithm.
func LookupSigAlg(alg SigAlg) (SigAlgInfo, error) {
	info, ok := sigAlgTable[alg]
	if !ok {
		return SigAlgInfo{}, didcommerr.New(didcommerr.UnsupportedAlgorithm, "unsupported signature algorithm '"+string(alg)+"'")
	}

	return info, nil
}

// supportedCurves is the set of recipient-key curves this module implements
// ECDH for; every ECDH-ES/1PU key-wrap alg applies to all of them alike;
// a curve with no registered ECDH adapter (§4.2) is
// what actually triggers UnsupportedAlgorithm, via keyagreement, not this
// table. This table exists to document the closed set plainly.
//
//nolint:gochecknoglobals
var supportedCurves = map[Curve]struct{}{
	X25519:    {},
	P256:      {},
	Secp256K1: {},
}

// SupportsCurve reports whether curve has a registered ECDH adapter.
func SupportsCurve(curve Curve) bool {
	_, ok := supportedCurves[curve]
	return ok
}

// SelectKeyWrapAlg implements the AsJWE multi/single recipient selection
// rule: ECDH-ES+A256KW for >1 recipients, direct ECDH-ES for exactly 1,
// with ECDH-1PU substituted for ECDH-ES in both cases when
// senderAuthenticated is requested.
func SelectKeyWrapAlg(recipientCount int, senderAuthenticated bool) KeyWrapAlg {
	switch {
	case recipientCount > 1 && senderAuthenticated:
		return ECDH1PUA256KW
	case recipientCount > 1:
		return ECDHESA256KW
	case senderAuthenticated:
		return ECDH1PUDirect
	default:
		return ECDHESDirect
	}
}

// IsDirect reports whether alg wraps the CEK "directly" (the derived
// key-agreement output is itself used as the CEK, no separate AES-KW step).
func IsDirect(alg KeyWrapAlg) bool {
	return alg == ECDHESDirect || alg == ECDH1PUDirect
}

// Is1PU reports whether alg requires sender-authenticated ECDH-1PU.
func Is1PU(alg KeyWrapAlg) bool {
	return alg == ECDH1PUA256KW || alg == ECDH1PUDirect
}
