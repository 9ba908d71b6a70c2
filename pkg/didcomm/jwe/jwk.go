/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwe

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"math/big"

	josejwk "github.com/square/go-jose/v3"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/keyagreement"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

var epkEnc = base64.RawURLEncoding //nolint:gochecknoglobals

// jwkOKP is the RFC 8037 JWK shape for an OKP (X25519) public key. go-jose
// v3's JSONWebKey does not know the OKP key type, so the X25519 epk is
// rendered by hand rather than through it.
type jwkOKP struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
}

// jwkEC is the RFC 7518 §6.2 JWK shape for an EC public key on a curve
// go-jose's ecdsa.PublicKey marshaling doesn't cover (secp256k1 is not a
// Go standard-library elliptic.Curve).
type jwkEC struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// epkToJWK renders pub as a JWK object for the epk header parameter. P-256
// goes through go-jose's JSONWebKey (it understands *ecdsa.PublicKey
// natively); X25519 and secp256k1 are rendered directly since go-jose v3
// has no OKP or secp256k1 support.
func epkToJWK(pub *keyagreement.PublicKey) (json.RawMessage, error) {
	switch pub.Curve {
	case algorithm.X25519:
		return json.Marshal(jwkOKP{Kty: "OKP", Crv: "X25519", X: epkEnc.EncodeToString(pub.X)})
	case algorithm.P256:
		ecPub := &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(pub.X),
			Y:     new(big.Int).SetBytes(pub.Y),
		}

		return json.Marshal(&josejwk.JSONWebKey{Key: ecPub})
	case algorithm.Secp256K1:
		return json.Marshal(jwkEC{
			Kty: "EC", Crv: "secp256k1",
			X: epkEnc.EncodeToString(pub.X), Y: epkEnc.EncodeToString(pub.Y),
		})
	default:
		return nil, didcommerr.New(didcommerr.UnsupportedAlgorithm,
			"no JWK encoding registered for curve '"+string(pub.Curve)+"'")
	}
}

// jwkToEPK is the inverse of epkToJWK. curve must be the curve of the
// recipient private key the caller is about to unwrap with, since a bare
// JWK JSON object doesn't self-describe which of our three curves it is
// (secp256k1's "crv" value isn't standardized the way P-256's is).
func jwkToEPK(raw json.RawMessage, curve algorithm.Curve) (*keyagreement.PublicKey, error) {
	switch curve {
	case algorithm.X25519:
		var k jwkOKP
		if err := json.Unmarshal(raw, &k); err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse epk jwk", err)
		}

		x, err := epkEnc.DecodeString(k.X)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode epk x", err)
		}

		return &keyagreement.PublicKey{Curve: algorithm.X25519, X: x}, nil
	case algorithm.P256:
		var jwk josejwk.JSONWebKey
		if err := json.Unmarshal(raw, &jwk); err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse epk jwk", err)
		}

		ecPub, ok := jwk.Key.(*ecdsa.PublicKey)
		if !ok {
			return nil, didcommerr.New(didcommerr.MalformedEnvelope, "epk jwk is not an EC public key")
		}

		x := make([]byte, 32)
		y := make([]byte, 32)
		ecPub.X.FillBytes(x)
		ecPub.Y.FillBytes(y)

		return &keyagreement.PublicKey{Curve: algorithm.P256, X: x, Y: y}, nil
	case algorithm.Secp256K1:
		var k jwkEC
		if err := json.Unmarshal(raw, &k); err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse epk jwk", err)
		}

		x, err := epkEnc.DecodeString(k.X)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode epk x", err)
		}

		y, err := epkEnc.DecodeString(k.Y)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode epk y", err)
		}

		return &keyagreement.PublicKey{Curve: algorithm.Secp256K1, X: x, Y: y}, nil
	default:
		return nil, didcommerr.New(didcommerr.UnsupportedAlgorithm,
			"no JWK decoding registered for curve '"+string(curve)+"'")
	}
}
