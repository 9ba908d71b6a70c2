/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package signature implements the default pkg/didcomm/crypto.Signer
// adapters for the three enumerated signature algorithms
// (EdDSA/ES256/ES256K): flat sign/verify over raw key bytes, with no
// keyset-handle indirection since the caller already holds concrete key
// material by the time it reaches JWS.
package signature

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// EdDSA is the default Signer for signature algorithm "EdDSA" (Ed25519,
// RFC 8032).
type EdDSA struct{}

// Sign implements crypto.Signer. signingKey may be either the 32-byte seed
// or the full 64-byte seed||public form crypto/ed25519 produces.
func (EdDSA) Sign(message, signingKey []byte) ([]byte, error) {
	priv, err := toEd25519PrivateKey(signingKey)
	if err != nil {
		return nil, err
	}

	return ed25519.Sign(priv, message), nil
}

// Verify implements crypto.Signer.
func (EdDSA) Verify(message, sig, verificationKey []byte) error {
	if len(verificationKey) != ed25519.PublicKeySize {
		return didcommerr.New(didcommerr.Internal, "ed25519 public key must be 32 bytes")
	}

	if !ed25519.Verify(ed25519.PublicKey(verificationKey), message, sig) {
		return didcommerr.New(didcommerr.SignatureInvalid, "ed25519 signature verification failed")
	}

	return nil
}

func toEd25519PrivateKey(signingKey []byte) (ed25519.PrivateKey, error) {
	switch len(signingKey) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(signingKey), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(signingKey), nil
	default:
		return nil, didcommerr.New(didcommerr.Internal, "ed25519 private key must be a 32-byte seed or 64-byte key")
	}
}

// ES256 is the default Signer for signature algorithm "ES256" (ECDSA over
// P-256 with SHA-256, RFC 7518 §3.4).
type ES256 struct{}

// Sign implements crypto.Signer.
func (ES256) Sign(message, signingKey []byte) ([]byte, error) {
	return signEC(elliptic.P256(), message, signingKey)
}

// Verify implements crypto.Signer.
func (ES256) Verify(message, sig, verificationKey []byte) error {
	return verifyEC(elliptic.P256(), message, sig, verificationKey)
}

// ES256K is the default Signer for signature algorithm "ES256K" (ECDSA
// over secp256k1 with SHA-256).
type ES256K struct{}

// Sign implements crypto.Signer.
func (ES256K) Sign(message, signingKey []byte) ([]byte, error) {
	return signEC(btcec.S256(), message, signingKey)
}

// Verify implements crypto.Signer.
func (ES256K) Verify(message, sig, verificationKey []byte) error {
	return verifyEC(btcec.S256(), message, sig, verificationKey)
}

func coordSize(curve elliptic.Curve) int {
	return (curve.Params().BitSize + 7) / 8
}

// digest hashes the already-framed JWS signing input with SHA-256, as
// ES256/ES256K both require; callers never pass a pre-hashed digest.
func digest(message []byte) []byte {
	sum := sha256.Sum256(message)
	return sum[:]
}

func signEC(curve elliptic.Curve, message, signingKey []byte) ([]byte, error) {
	size := coordSize(curve)
	if len(signingKey) != size {
		return nil, didcommerr.New(didcommerr.Internal, "ec private key has unexpected length")
	}

	priv := new(ecdsa.PrivateKey)
	priv.Curve = curve
	priv.D = new(big.Int).SetBytes(signingKey)
	priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(signingKey)

	r, s, err := ecdsa.Sign(rand.Reader, priv, digest(message))
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "ecdsa sign", err)
	}

	sig := make([]byte, 2*size)
	r.FillBytes(sig[:size])
	s.FillBytes(sig[size:])

	return sig, nil
}

func verifyEC(curve elliptic.Curve, message, sig, verificationKey []byte) error {
	size := coordSize(curve)
	if len(verificationKey) != 2*size {
		return didcommerr.New(didcommerr.Internal, "ec public key has unexpected length")
	}

	if len(sig) != 2*size {
		return didcommerr.New(didcommerr.SignatureInvalid, "ec signature has unexpected length")
	}

	pub := &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(verificationKey[:size]),
		Y:     new(big.Int).SetBytes(verificationKey[size:]),
	}

	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])

	if !ecdsa.Verify(pub, digest(message), r, s) {
		return didcommerr.New(didcommerr.SignatureInvalid, "ecdsa signature verification failed")
	}

	return nil
}

// DefaultSigners is a crypto.SignerRegistry over the three adapters in this
// package.
type DefaultSigners struct{}

// Signer implements crypto.SignerRegistry.
func (DefaultSigners) Signer(alg algorithm.SigAlg) (crypto.Signer, error) {
	switch alg {
	case algorithm.EdDSA:
		return EdDSA{}, nil
	case algorithm.ES256:
		return ES256{}, nil
	case algorithm.ES256K:
		return ES256K{}, nil
	default:
		return nil, didcommerr.New(didcommerr.UnsupportedAlgorithm, "no default signer for '"+string(alg)+"'")
	}
}
