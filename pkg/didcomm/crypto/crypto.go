/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package crypto declares the capability interfaces the envelope engine
// consumes but never constructs: Cypher (AEAD encrypt/decrypt) and
// Signer (sign/verify). Concrete algorithm implementations are an external
// collaborator; default adapters live in pkg/primitive/{aead,signature}.
package crypto

import "github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"

// Cypher is the AEAD capability the core delegates content encryption and
// decryption to. Implementations must be safe for concurrent use across
// distinct calls.
type Cypher interface {
	// Encrypt returns (ciphertext, tag, error) for plaintext under cek,
	// nonce and aad.
	Encrypt(plaintext, cek, nonce, aad []byte) (ciphertext, tag []byte, err error)
	// Decrypt returns plaintext given ciphertext, cek, nonce, aad and tag.
	// Implementations must compare tag in constant time.
	Decrypt(ciphertext, cek, nonce, aad, tag []byte) (plaintext []byte, err error)
	// KeyGen returns a fresh random CEK of the length this Cypher expects.
	KeyGen() ([]byte, error)
}

// Signer is the signature capability the core delegates JWS signing and
// verification to.
type Signer interface {
	// Sign returns a signature over message using signingKey.
	Sign(message, signingKey []byte) (signature []byte, err error)
	// Verify returns nil if signature is valid over message under
	// verificationKey, and a non-nil error otherwise (never a bare bool,
	// so the concrete cause survives for logging even though the receiver
	// pipeline only ever surfaces SignatureInvalid to its own caller).
	Verify(message, signature, verificationKey []byte) error
}

// CypherRegistry resolves the Cypher to use for a given content-encryption
// algorithm. A caller with a single default adapter set can satisfy this
// with a trivial map-backed implementation (see primitive.DefaultCyphers).
type CypherRegistry interface {
	Cypher(enc algorithm.ContentEnc) (Cypher, error)
}

// SignerRegistry resolves the Signer to use for a given signature
// algorithm.
type SignerRegistry interface {
	Signer(alg algorithm.SigAlg) (Signer, error)
}
