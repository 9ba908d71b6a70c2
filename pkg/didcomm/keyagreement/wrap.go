/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import (
	"crypto/subtle"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

const kwKeyLenBytes = 32 // A256KW key length

// Zeroize overwrites b in place with zero bytes. Best-effort defense for
// ephemeral keys and CEKs; it cannot force the Go runtime to avoid having
// copied b at some point, but it bounds the lifetime of the plaintext key
// material this package itself holds.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}

	subtle.ConstantTimeCopy(0, b, b)
}

func sharedSecret(ephemeralPriv *PrivateKey, recipientOrEphemeralPub *PublicKey, senderPriv *PrivateKey, senderOrRecipientPub *PublicKey, oneUP bool) ([]byte, error) {
	ze, err := ECDH(ephemeralPriv, recipientOrEphemeralPub)
	if err != nil {
		return nil, err
	}

	if !oneUP {
		return ze, nil
	}

	if senderPriv == nil || senderOrRecipientPub == nil {
		return nil, didcommerr.New(didcommerr.KeyAgreementFailed, "ECDH-1PU requires both a sender private key and counterparty public key")
	}

	zs, err := ECDH(senderPriv, senderOrRecipientPub)
	if err != nil {
		return nil, err
	}

	z := append(append([]byte{}, ze...), zs...)
	Zeroize(ze)
	Zeroize(zs)

	return z, nil
}

// WrappedKey is the result of wrapping (or the direct-mode key agreement
// for) one recipient's content-encryption-key material.
type WrappedKey struct {
	Alg          algorithm.KeyWrapAlg
	KID          string
	EPK          PublicKey
	APU          []byte
	APV          []byte
	EncryptedCEK []byte // empty when Alg is a direct mode
}

// WrapOpts carries the optional sender identity required for ECDH-1PU.
type WrapOpts struct {
	SenderPriv *PrivateKey // required for 1PU wrap
	SenderPub  *PublicKey  // required for 1PU unwrap
}

// DeriveDirectCEK performs single-recipient direct key agreement: the
// Concat-KDF output, keyed on the content-encryption algorithm identifier,
// *is* the CEK. Used only when exactly one recipient is targeted.
func DeriveDirectCEK(recipientPub *PublicKey, wrapAlg algorithm.KeyWrapAlg, enc algorithm.ContentEnc,
	apu, apv []byte, opts WrapOpts) (cek []byte, epk PublicKey, err error) {
	info, err := algorithm.LookupContentEnc(enc)
	if err != nil {
		return nil, PublicKey{}, err
	}

	ephemeralPriv, ephemeralPub, err := GenerateEphemeral(recipientPub.Curve)
	if err != nil {
		return nil, PublicKey{}, err
	}

	defer Zeroize(ephemeralPriv.D)

	z, err := sharedSecret(ephemeralPriv, recipientPub, opts.SenderPriv, recipientPub, algorithm.Is1PU(wrapAlg))
	if err != nil {
		return nil, PublicKey{}, err
	}

	defer Zeroize(z)

	key, err := deriveKW(z, string(enc), apu, apv, info.KeyLength)
	if err != nil {
		return nil, PublicKey{}, err
	}

	return key, *ephemeralPub, nil
}

// UnwrapDirectCEK is the recipient-side inverse of DeriveDirectCEK.
func UnwrapDirectCEK(recipientPriv *PrivateKey, epk *PublicKey, wrapAlg algorithm.KeyWrapAlg, enc algorithm.ContentEnc,
	apu, apv []byte, opts WrapOpts) ([]byte, error) {
	info, err := algorithm.LookupContentEnc(enc)
	if err != nil {
		return nil, err
	}

	z, err := sharedSecret(recipientPriv, epk, recipientPriv, opts.SenderPub, algorithm.Is1PU(wrapAlg))
	if err != nil {
		return nil, err
	}

	defer Zeroize(z)

	return deriveKW(z, string(enc), apu, apv, info.KeyLength)
}

// WrapCEK wraps an already-generated cek for one recipient using
// ECDH(-1PU)+Concat-KDF to derive a key-wrap key, then AES-KW (RFC 3394).
func WrapCEK(cek []byte, recipientPub *PublicKey, wrapAlg algorithm.KeyWrapAlg, apu, apv []byte,
	opts WrapOpts) (*WrappedKey, error) {
	ephemeralPriv, ephemeralPub, err := GenerateEphemeral(recipientPub.Curve)
	if err != nil {
		return nil, err
	}

	defer Zeroize(ephemeralPriv.D)

	z, err := sharedSecret(ephemeralPriv, recipientPub, opts.SenderPriv, recipientPub, algorithm.Is1PU(wrapAlg))
	if err != nil {
		return nil, err
	}

	defer Zeroize(z)

	kek, err := deriveKW(z, string(wrapAlg), apu, apv, kwKeyLenBytes)
	if err != nil {
		return nil, err
	}

	defer Zeroize(kek)

	encryptedCEK, err := aesKWWrap(kek, cek)
	if err != nil {
		return nil, err
	}

	return &WrappedKey{
		Alg:          wrapAlg,
		KID:          recipientPub.KID,
		EPK:          *ephemeralPub,
		APU:          apu,
		APV:          apv,
		EncryptedCEK: encryptedCEK,
	}, nil
}

// UnwrapCEK is the recipient-side inverse of WrapCEK.
func UnwrapCEK(encryptedCEK []byte, recipientPriv *PrivateKey, epk *PublicKey, wrapAlg algorithm.KeyWrapAlg,
	apu, apv []byte, opts WrapOpts) ([]byte, error) {
	z, err := sharedSecret(recipientPriv, epk, recipientPriv, opts.SenderPub, algorithm.Is1PU(wrapAlg))
	if err != nil {
		return nil, err
	}

	defer Zeroize(z)

	kek, err := deriveKW(z, string(wrapAlg), apu, apv, kwKeyLenBytes)
	if err != nil {
		return nil, err
	}

	defer Zeroize(kek)

	cek, err := aesKWUnwrap(kek, encryptedCEK)
	if err != nil {
		return nil, err
	}

	return cek, nil
}
