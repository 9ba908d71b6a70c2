/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyagreement implements per-recipient ECDH-ES/ECDH-1PU key
// agreement, Concat KDF (SP 800-56A), and AES key-wrap of the
// content-encryption key (cek, apu, apv, recipient key, optional sender
// key for 1PU).
package keyagreement

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/curve25519"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// PublicKey is a recipient or ephemeral public key on one of the curves
// this module supports for ECDH.
type PublicKey struct {
	Curve algorithm.Curve
	KID   string
	// X is the encoded public point: the raw 32-byte X25519 public value,
	// or the big-endian X coordinate for P-256/secp256k1.
	X []byte
	// Y is the big-endian Y coordinate for P-256/secp256k1; empty for
	// X25519.
	Y []byte
}

// PrivateKey is a recipient, sender, or ephemeral private key.
type PrivateKey struct {
	Curve algorithm.Curve
	// D is the raw 32-byte X25519 scalar, or the big-endian scalar for
	// P-256/secp256k1.
	D []byte
}

// GenerateEphemeral creates a fresh ephemeral key pair on curve, used once
// per recipient per Seal call and zeroed by the caller once consumed.
func GenerateEphemeral(curve algorithm.Curve) (*PrivateKey, *PublicKey, error) {
	switch curve {
	case algorithm.X25519:
		return generateX25519()
	case algorithm.P256:
		return generateEC(elliptic.P256())
	case algorithm.Secp256K1:
		return generateSecp256k1()
	default:
		return nil, nil, didcommerr.New(didcommerr.UnsupportedAlgorithm,
			"no ECDH adapter registered for curve '"+string(curve)+"'")
	}
}

func generateX25519() (*PrivateKey, *PublicKey, error) {
	var scalar [32]byte

	if _, err := rand.Read(scalar[:]); err != nil {
		return nil, nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "generate x25519 scalar", err)
	}

	pub, err := curve25519.X25519(scalar[:], curve25519.Basepoint)
	if err != nil {
		return nil, nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "derive x25519 public key", err)
	}

	return &PrivateKey{Curve: algorithm.X25519, D: scalar[:]},
		&PublicKey{Curve: algorithm.X25519, X: pub}, nil
}

func generateEC(curve elliptic.Curve) (*PrivateKey, *PublicKey, error) {
	priv, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "generate ec key", err)
	}

	size := (curve.Params().BitSize + 7) / 8
	x := make([]byte, size)
	y := make([]byte, size)
	priv.X.FillBytes(x)
	priv.Y.FillBytes(y)

	d := make([]byte, size)
	priv.D.FillBytes(d)

	return &PrivateKey{Curve: algorithm.P256, D: d},
		&PublicKey{Curve: algorithm.P256, X: x, Y: y}, nil
}

func generateSecp256k1() (*PrivateKey, *PublicKey, error) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "generate secp256k1 key", err)
	}

	size := 32
	x := make([]byte, size)
	y := make([]byte, size)
	priv.X.FillBytes(x)
	priv.Y.FillBytes(y)

	d := make([]byte, size)
	priv.D.FillBytes(d)

	return &PrivateKey{Curve: algorithm.Secp256K1, D: d},
		&PublicKey{Curve: algorithm.Secp256K1, X: x, Y: y}, nil
}

// ECDH performs a single Diffie-Hellman scalar multiplication between priv
// and pub, which must be on the same curve, and returns the raw shared
// secret.
func ECDH(priv *PrivateKey, pub *PublicKey) ([]byte, error) {
	if priv.Curve != pub.Curve {
		return nil, didcommerr.New(didcommerr.KeyAgreementFailed, "ECDH private/public key curve mismatch")
	}

	switch priv.Curve {
	case algorithm.X25519:
		z, err := curve25519.X25519(priv.D, pub.X)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "x25519 ecdh", err)
		}

		return z, nil
	case algorithm.P256:
		return ecdhEC(elliptic.P256(), priv, pub)
	case algorithm.Secp256K1:
		return ecdhEC(btcec.S256(), priv, pub)
	default:
		return nil, didcommerr.New(didcommerr.UnsupportedAlgorithm,
			"no ECDH adapter registered for curve '"+string(priv.Curve)+"'")
	}
}

func ecdhEC(curve elliptic.Curve, priv *PrivateKey, pub *PublicKey) ([]byte, error) {
	if !curve.IsOnCurve(bigFromBytes(pub.X), bigFromBytes(pub.Y)) {
		return nil, didcommerr.New(didcommerr.KeyAgreementFailed, "ecdh public key is not on curve")
	}

	x, _ := curve.ScalarMult(bigFromBytes(pub.X), bigFromBytes(pub.Y), priv.D)

	size := (curve.Params().BitSize + 7) / 8
	buf := make([]byte, size)
	x.FillBytes(buf)

	return buf, nil
}
