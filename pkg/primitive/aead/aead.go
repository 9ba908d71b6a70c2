/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package aead implements the default pkg/didcomm/crypto.Cypher adapters
// for the three enumerated content-encryption algorithms
// (XC20P/A256GCM/A256CBC-HS512). Tink's high-level aead.KeysetHandle
// wrapper generates and prepends its own nonce and can't accept one from
// the caller, which the DIDComm wire format requires (the nonce travels as
// the envelope's "iv"), so these adapters call golang.org/x/crypto and the
// standard library directly for the AEAD transforms themselves, and use
// Tink's CSPRNG (subtle/random) for key generation.
package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/google/tink/go/subtle/random"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// XC20P is the default Cypher for content-encryption algorithm "XC20P"
// (XChaCha20-Poly1305, IETF draft).
type XC20P struct{}

// Encrypt implements crypto.Cypher.
func (XC20P) Encrypt(plaintext, cek, nonce, aad []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return nil, nil, didcommerr.Wrap(didcommerr.Internal, "init xc20p aead", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, aad)
	tagStart := len(sealed) - aead.Overhead()

	return sealed[:tagStart], sealed[tagStart:], nil
}

// Decrypt implements crypto.Cypher.
func (XC20P) Decrypt(ciphertext, cek, nonce, aad, tag []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "init xc20p aead", err)
	}

	sealed := append(append([]byte(nil), ciphertext...), tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.DecryptionFailed, "xc20p open", err)
	}

	return plaintext, nil
}

// KeyGen implements crypto.Cypher.
func (XC20P) KeyGen() ([]byte, error) {
	return random.GetRandomBytes(chacha20poly1305.KeySize), nil
}

// A256GCM is the default Cypher for content-encryption algorithm "A256GCM".
type A256GCM struct{}

// Encrypt implements crypto.Cypher.
func (A256GCM) Encrypt(plaintext, cek, nonce, aad []byte) ([]byte, []byte, error) {
	gcm, err := newGCM(cek)
	if err != nil {
		return nil, nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	tagStart := len(sealed) - gcm.Overhead()

	return sealed[:tagStart], sealed[tagStart:], nil
}

// Decrypt implements crypto.Cypher.
func (A256GCM) Decrypt(ciphertext, cek, nonce, aad, tag []byte) ([]byte, error) {
	gcm, err := newGCM(cek)
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte(nil), ciphertext...), tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.DecryptionFailed, "a256gcm open", err)
	}

	return plaintext, nil
}

// KeyGen implements crypto.Cypher.
func (A256GCM) KeyGen() ([]byte, error) {
	return random.GetRandomBytes(32), nil
}

func newGCM(cek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "init a256gcm block cipher", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "init a256gcm aead", err)
	}

	return gcm, nil
}

// A256CBCHS512 is the default Cypher for content-encryption algorithm
// "A256CBC-HS512" (RFC 7518 §5.2.2-5.2.3: AES-256-CBC encrypt-then-MAC with
// HMAC-SHA-512, truncated to 256 bits).
type A256CBCHS512 struct{}

func splitKey(cek []byte) (macKey, encKey []byte, err error) {
	if len(cek) != 64 {
		return nil, nil, didcommerr.New(didcommerr.Internal, "a256cbc-hs512 requires a 64-byte key")
	}

	return cek[:32], cek[32:], nil
}

// macInput builds the RFC 7518 §5.2.2.1 AAD || IV || ciphertext || AL input
// to HMAC-SHA-512, where AL is the big-endian 64-bit bit-length of aad.
func macInput(aad, iv, ciphertext []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8) //nolint:gosec

	buf := make([]byte, 0, len(aad)+len(iv)+len(ciphertext)+len(al))
	buf = append(buf, aad...)
	buf = append(buf, iv...)
	buf = append(buf, ciphertext...)
	buf = append(buf, al...)

	return buf
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)

	for i := range padding {
		padding[i] = byte(padLen)
	}

	return append(append([]byte(nil), data...), padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, didcommerr.New(didcommerr.DecryptionFailed, "a256cbc-hs512 ciphertext is empty")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, didcommerr.New(didcommerr.DecryptionFailed, "a256cbc-hs512 invalid padding")
	}

	return data[:len(data)-padLen], nil
}

// Encrypt implements crypto.Cypher.
func (A256CBCHS512) Encrypt(plaintext, cek, nonce, aad []byte) ([]byte, []byte, error) {
	macKey, encKey, err := splitKey(cek)
	if err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, didcommerr.Wrap(didcommerr.Internal, "init a256cbc-hs512 block cipher", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))

	cipher.NewCBCEncrypter(block, nonce).CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha512.New, macKey)
	mac.Write(macInput(aad, nonce, ciphertext))
	tag := mac.Sum(nil)[:32]

	return ciphertext, tag, nil
}

// Decrypt implements crypto.Cypher.
func (A256CBCHS512) Decrypt(ciphertext, cek, nonce, aad, tag []byte) ([]byte, error) {
	macKey, encKey, err := splitKey(cek)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, macKey)
	mac.Write(macInput(aad, nonce, ciphertext))
	expectedTag := mac.Sum(nil)[:32]

	if !hmac.Equal(expectedTag, tag) {
		return nil, didcommerr.New(didcommerr.DecryptionFailed, "a256cbc-hs512 tag mismatch")
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "init a256cbc-hs512 block cipher", err)
	}

	if len(ciphertext)%aes.BlockSize != 0 || len(ciphertext) == 0 {
		return nil, didcommerr.New(didcommerr.DecryptionFailed, "a256cbc-hs512 ciphertext is not block-aligned")
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, nonce).CryptBlocks(padded, ciphertext)

	return pkcs7Unpad(padded)
}

// KeyGen implements crypto.Cypher.
func (A256CBCHS512) KeyGen() ([]byte, error) {
	return random.GetRandomBytes(64), nil
}

// DefaultCyphers is a crypto.CypherRegistry over the three adapters in this
// package, the registry a caller of pkg/didcomm/jwe reaches for unless it
// has its own Cypher implementations to inject.
type DefaultCyphers struct{}

// Cypher implements crypto.CypherRegistry.
func (DefaultCyphers) Cypher(enc algorithm.ContentEnc) (crypto.Cypher, error) {
	switch enc {
	case algorithm.XC20P:
		return XC20P{}, nil
	case algorithm.A256GCM:
		return A256GCM{}, nil
	case algorithm.A256CBCHS512:
		return A256CBCHS512{}, nil
	default:
		return nil, didcommerr.New(didcommerr.UnsupportedAlgorithm, "no default cypher for '"+string(enc)+"'")
	}
}
