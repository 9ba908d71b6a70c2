/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwe packs and unpacks DIDComm JWE envelopes (RFC 7516 general and
// compact JSON serializations), layering per-recipient ECDH(-1PU)+Concat-KDF
// key agreement (pkg/didcomm/keyagreement) under an injected
// pkg/didcomm/crypto.Cypher for the AEAD step. Same build/parse split as
// pkg/didcomm/jws.
package jwe

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/keyagreement"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

var b64 = base64.RawURLEncoding //nolint:gochecknoglobals

// RecipientHeader is the per-recipient unprotected header of a general-form
// JWE: kid plus the epk/apu/apv this particular recipient's key agreement
// used. In compact form these same fields instead live in the single shared
// protected header, since there is only one recipient.
type RecipientHeader struct {
	KID string          `json:"kid,omitempty"`
	EPK json.RawMessage `json:"epk,omitempty"`
	APU string          `json:"apu,omitempty"`
	APV string          `json:"apv,omitempty"`
}

// Recipient is one entry of a general-form JWE's "recipients" array.
// EncryptedKey is empty for a direct-mode single-recipient entry (the key
// agreement output is the CEK, nothing is wrapped).
type Recipient struct {
	Header       *RecipientHeader `json:"header,omitempty"`
	EncryptedKey string           `json:"encrypted_key,omitempty"`
}

// GeneralJWE is the RFC 7516 §7.2.1 general JSON serialization.
type GeneralJWE struct {
	Protected  string      `json:"protected"`
	Recipients []Recipient `json:"recipients"`
	IV         string      `json:"iv"`
	CipherText string      `json:"ciphertext"`
	Tag        string      `json:"tag"`
}

// RecipientTarget names one recipient to pack for: its public key and the
// kid to record against it. APV defaults to the recipient's kid, bytes, if
// left nil (an arbitrary but stable PartyVInfo per RFC 7518 §4.6.2).
type RecipientTarget struct {
	KID string
	Pub *keyagreement.PublicKey
	APV []byte
}

// PackOpts carries the cross-recipient packing parameters: the sender's
// static key for ECDH-1PU, the sender kid recorded as skid, and the
// content-type (cty) of the payload being wrapped (set to
// "application/didcomm-signed+json" when wrapping an inner signed layer).
// APU defaults to Skid's bytes if left nil.
type PackOpts struct {
	SenderPriv *keyagreement.PrivateKey
	Skid       string
	APU        []byte
	Cty        string
}

func (o PackOpts) apu() []byte {
	if len(o.APU) > 0 {
		return o.APU
	}

	return []byte(o.Skid)
}

// wrapResult is one recipient's key-agreement outcome, common to both
// direct and key-wrap modes.
type wrapResult struct {
	KID          string
	EPK          keyagreement.PublicKey
	APU          []byte
	APV          []byte
	EncryptedKey []byte // nil in direct mode
}

func wrapRecipient(cek []byte, direct bool, rt RecipientTarget, kwAlg algorithm.KeyWrapAlg,
	enc algorithm.ContentEnc, opts PackOpts) (wrapResult, []byte, error) {
	apv := rt.APV
	if len(apv) == 0 {
		apv = []byte(rt.KID)
	}

	apu := opts.apu()
	wrapOpts := keyagreement.WrapOpts{SenderPriv: opts.SenderPriv}

	if direct {
		derivedCEK, epk, err := keyagreement.DeriveDirectCEK(rt.Pub, kwAlg, enc, apu, apv, wrapOpts)
		if err != nil {
			return wrapResult{}, nil, err
		}

		return wrapResult{KID: rt.KID, EPK: epk, APU: apu, APV: apv}, derivedCEK, nil
	}

	wrapped, err := keyagreement.WrapCEK(cek, rt.Pub, kwAlg, apu, apv, wrapOpts)
	if err != nil {
		return wrapResult{}, nil, err
	}

	return wrapResult{
		KID: rt.KID, EPK: wrapped.EPK, APU: apu, APV: apv, EncryptedKey: wrapped.EncryptedCEK,
	}, cek, nil
}

func encryptPayload(payload, cek []byte, enc algorithm.ContentEnc, aad []byte,
	cypherRegistry crypto.CypherRegistry) (nonce, ciphertext, tag []byte, err error) {
	info, err := algorithm.LookupContentEnc(enc)
	if err != nil {
		return nil, nil, nil, err
	}

	cypher, err := cypherRegistry.Cypher(enc)
	if err != nil {
		return nil, nil, nil, didcommerr.Wrap(didcommerr.UnsupportedAlgorithm, "resolve cypher for "+string(enc), err)
	}

	nonce = make([]byte, info.NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, didcommerr.Wrap(didcommerr.Internal, "generate jwe nonce", err)
	}

	ciphertext, tag, err = cypher.Encrypt(payload, cek, nonce, aad)
	if err != nil {
		return nil, nil, nil, didcommerr.Wrap(didcommerr.Internal, "aead encrypt jwe", err)
	}

	return nonce, ciphertext, tag, nil
}

func cekForPacking(direct bool, enc algorithm.ContentEnc, cypherRegistry crypto.CypherRegistry) ([]byte, error) {
	if direct {
		return nil, nil
	}

	cypher, err := cypherRegistry.Cypher(enc)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.UnsupportedAlgorithm, "resolve cypher for "+string(enc), err)
	}

	cek, err := cypher.KeyGen()
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "generate cek", err)
	}

	return cek, nil
}

// PackGeneral produces the general-form JWE JSON over payload: one CEK
// (generated fresh, unless wrapAlg is a direct mode and there is exactly
// one recipient) wrapped once per recipient, all under a single shared
// protected header and ciphertext.
func PackGeneral(payload []byte, enc algorithm.ContentEnc, kwAlg algorithm.KeyWrapAlg,
	recipients []RecipientTarget, opts PackOpts, cypherRegistry crypto.CypherRegistry) ([]byte, error) {
	if len(recipients) == 0 {
		return nil, didcommerr.New(didcommerr.Internal, "PackGeneral requires at least one recipient")
	}

	if _, err := algorithm.LookupContentEnc(enc); err != nil {
		return nil, err
	}

	direct := algorithm.IsDirect(kwAlg)
	if direct && len(recipients) != 1 {
		return nil, didcommerr.New(didcommerr.Internal, "direct key agreement requires exactly one recipient")
	}

	protected := message.JWMHeader{
		Typ: message.EncryptedTyp, Cty: opts.Cty, Alg: string(kwAlg), Enc: string(enc), Skid: opts.Skid,
	}

	protectedJSON, err := json.Marshal(protected)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal jwe protected header", err)
	}

	protectedB64 := b64Encode(protectedJSON)

	cek, err := cekForPacking(direct, enc, cypherRegistry)
	if err != nil {
		return nil, err
	}

	wraps := make([]wrapResult, 0, len(recipients))

	for _, rt := range recipients {
		w, derivedOrSameCEK, err := wrapRecipient(cek, direct, rt, kwAlg, enc, opts)
		if err != nil {
			keyagreement.Zeroize(cek)
			return nil, err
		}

		cek = derivedOrSameCEK
		wraps = append(wraps, w)
	}

	nonce, ciphertext, tag, err := encryptPayload(payload, cek, enc, protectedB64, cypherRegistry)
	keyagreement.Zeroize(cek)

	if err != nil {
		return nil, err
	}

	out := GeneralJWE{
		Protected: string(protectedB64), IV: string(b64Encode(nonce)),
		CipherText: string(b64Encode(ciphertext)), Tag: string(b64Encode(tag)),
	}

	for _, w := range wraps {
		epkJWK, err := epkToJWK(&w.EPK)
		if err != nil {
			return nil, err
		}

		rec := Recipient{Header: &RecipientHeader{
			KID: w.KID, EPK: epkJWK, APU: string(b64Encode(w.APU)), APV: string(b64Encode(w.APV)),
		}}

		if len(w.EncryptedKey) > 0 {
			rec.EncryptedKey = string(b64Encode(w.EncryptedKey))
		}

		out.Recipients = append(out.Recipients, rec)
	}

	return json.Marshal(out)
}

// PackCompact produces the RFC 7516 §7.1 compact serialization with exactly
// one recipient: protected.encrypted_key.iv.ciphertext.tag, dot-joined. The
// recipient's kid/epk/apu/apv are folded directly into the single protected
// header.
func PackCompact(payload []byte, enc algorithm.ContentEnc, kwAlg algorithm.KeyWrapAlg,
	recipient RecipientTarget, opts PackOpts, cypherRegistry crypto.CypherRegistry) ([]byte, error) {
	if _, err := algorithm.LookupContentEnc(enc); err != nil {
		return nil, err
	}

	direct := algorithm.IsDirect(kwAlg)

	cek, err := cekForPacking(direct, enc, cypherRegistry)
	if err != nil {
		return nil, err
	}

	w, derivedOrSameCEK, err := wrapRecipient(cek, direct, recipient, kwAlg, enc, opts)
	if err != nil {
		keyagreement.Zeroize(cek)
		return nil, err
	}

	cek = derivedOrSameCEK
	defer keyagreement.Zeroize(cek)

	epkJWK, err := epkToJWK(&w.EPK)
	if err != nil {
		return nil, err
	}

	protected := message.JWMHeader{
		Typ: message.EncryptedTyp, Cty: opts.Cty, Alg: string(kwAlg), Enc: string(enc),
		Skid: opts.Skid, Apu: string(b64Encode(w.APU)), Apv: string(b64Encode(w.APV)),
		Epk: epkJWK, Kid: w.KID,
	}

	protectedJSON, err := json.Marshal(protected)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal jwe protected header", err)
	}

	protectedB64 := b64Encode(protectedJSON)

	nonce, ciphertext, tag, err := encryptPayload(payload, cek, enc, protectedB64, cypherRegistry)
	keyagreement.Zeroize(cek)

	if err != nil {
		return nil, err
	}

	out := append([]byte{}, protectedB64...)
	out = append(out, '.')
	out = append(out, b64Encode(w.EncryptedKey)...)
	out = append(out, '.')
	out = append(out, b64Encode(nonce)...)
	out = append(out, '.')
	out = append(out, b64Encode(ciphertext)...)
	out = append(out, '.')
	out = append(out, b64Encode(tag)...)

	return out, nil
}

// UnpackOpts carries the recipient-side key material Unpack needs: the set
// of private keys this party holds, indexed by kid, and the sender's static
// public key (required only when the protected alg is an ECDH-1PU variant).
type UnpackOpts struct {
	RecipientKeys map[string]*keyagreement.PrivateKey
	SenderPub     *keyagreement.PublicKey
}

// UnpackResult is the outcome of a successful Unpack.
type UnpackResult struct {
	Plaintext []byte
	Cty       string
	KID       string // the recipient key that successfully unwrapped the CEK
}

type recipientCandidate struct {
	kid          string
	epk          json.RawMessage
	apu          string
	apv          string
	encryptedKey string
}

// Unpack parses either serialization of data, and for every recipient entry
// whose kid is present in opts.RecipientKeys, attempts ECDH(-1PU)+Concat-KDF
// key agreement and CEK unwrap/derivation before finally AEAD-decrypting
// the ciphertext. It does not stop at the first recipient entry with no
// matching kid: every entry is inspected in order to avoid leaking which
// recipient slot, if any, belongs to the caller purely from how quickly
// Unpack returns.
func Unpack(data []byte, opts UnpackOpts, cypherRegistry crypto.CypherRegistry) (*UnpackResult, error) {
	protectedB64, candidates, ivB64, ctB64, tagB64, err := parseAnyJWEForm(data)
	if err != nil {
		return nil, err
	}

	protectedJSON, err := b64Decode(protectedB64)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode jwe protected header", err)
	}

	var h message.JWMHeader
	if err := json.Unmarshal(protectedJSON, &h); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse jwe protected header", err)
	}

	enc := algorithm.ContentEnc(h.Enc)
	kwAlg := algorithm.KeyWrapAlg(h.Alg)

	if _, err := algorithm.LookupContentEnc(enc); err != nil {
		return nil, err
	}

	direct := algorithm.IsDirect(kwAlg)

	nonce, err := b64Decode(ivB64)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode jwe iv", err)
	}

	ciphertext, err := b64Decode(ctB64)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode jwe ciphertext", err)
	}

	tag, err := b64Decode(tagB64)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode jwe tag", err)
	}

	cypher, err := cypherRegistry.Cypher(enc)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.UnsupportedAlgorithm, "resolve cypher for "+string(enc), err)
	}

	var (
		cek        []byte
		matchedKID string
		lastErr    error
	)

	for _, c := range candidates {
		kid := firstNonEmpty(c.kid, h.Kid)

		priv, ok := opts.RecipientKeys[kid]
		if !ok {
			lastErr = didcommerr.New(didcommerr.NoMatchingRecipient, "no decryption key for kid '"+kid+"'")
			continue
		}

		epkRaw := c.epk
		if len(epkRaw) == 0 {
			epkRaw = h.Epk
		}

		epk, err := jwkToEPK(epkRaw, priv.Curve)
		if err != nil {
			lastErr = err
			continue
		}

		apu, err := decodeB64OrEmpty(firstNonEmpty(c.apu, h.Apu))
		if err != nil {
			lastErr = err
			continue
		}

		apv, err := decodeB64OrEmpty(firstNonEmpty(c.apv, h.Apv))
		if err != nil {
			lastErr = err
			continue
		}

		wrapOpts := keyagreement.WrapOpts{SenderPub: opts.SenderPub}

		var candidateCEK []byte

		if direct {
			candidateCEK, err = keyagreement.UnwrapDirectCEK(priv, epk, kwAlg, enc, apu, apv, wrapOpts)
		} else {
			encryptedKey, decErr := b64Decode(firstNonEmpty(c.encryptedKey, ""))
			if decErr != nil {
				lastErr = decErr
				continue
			}

			candidateCEK, err = keyagreement.UnwrapCEK(encryptedKey, priv, epk, kwAlg, apu, apv, wrapOpts)
		}

		if err != nil {
			lastErr = err
			continue
		}

		if cek == nil {
			cek = candidateCEK
			matchedKID = kid
		} else {
			keyagreement.Zeroize(candidateCEK)
		}
	}

	if cek == nil {
		return nil, didcommerr.Wrap(didcommerr.NoMatchingRecipient,
			"no jwe recipient could be unwrapped with the supplied keys", lastErr)
	}

	defer keyagreement.Zeroize(cek)

	plaintext, err := cypher.Decrypt(ciphertext, cek, nonce, []byte(protectedB64), tag)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.DecryptionFailed, "aead decrypt jwe", err)
	}

	return &UnpackResult{Plaintext: plaintext, Cty: h.Cty, KID: matchedKID}, nil
}

// PeekHeader decodes just the protected header of a JWE (either
// serialization), without attempting any key agreement or decryption. Used
// by non-core resolver-assist glue (pkg/didcomm/receiver) to read the skid
// of an envelope before a sender verification/agreement key is available.
func PeekHeader(data []byte) (*message.JWMHeader, error) {
	protectedB64, _, _, _, _, err := parseAnyJWEForm(data)
	if err != nil {
		return nil, err
	}

	protectedJSON, err := b64Decode(protectedB64)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode jwe protected header", err)
	}

	var h message.JWMHeader
	if err := json.Unmarshal(protectedJSON, &h); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse jwe protected header", err)
	}

	return &h, nil
}

func parseAnyJWEForm(data []byte) (protectedB64 string, candidates []recipientCandidate, ivB64, ctB64, tagB64 string, err error) {
	var general GeneralJWE
	if jsonErr := json.Unmarshal(data, &general); jsonErr == nil &&
		general.Protected != "" && len(general.Recipients) > 0 {
		cands := make([]recipientCandidate, 0, len(general.Recipients))

		for _, r := range general.Recipients {
			rc := recipientCandidate{encryptedKey: r.EncryptedKey}

			if r.Header != nil {
				rc.kid = r.Header.KID
				rc.epk = r.Header.EPK
				rc.apu = r.Header.APU
				rc.apv = r.Header.APV
			}

			cands = append(cands, rc)
		}

		return general.Protected, cands, general.IV, general.CipherText, general.Tag, nil
	}

	parts := splitCompact(data)
	if len(parts) != 5 {
		return "", nil, "", "", "", didcommerr.New(didcommerr.MalformedEnvelope,
			"jwe is neither valid general nor compact form")
	}

	return parts[0], []recipientCandidate{{encryptedKey: parts[1]}}, parts[2], parts[3], parts[4], nil
}

func splitCompact(data []byte) []string {
	var parts []string

	start := 0

	for i, c := range data {
		if c == '.' {
			parts = append(parts, string(data[start:i]))
			start = i + 1
		}
	}

	parts = append(parts, string(data[start:]))

	return parts
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}

	return b
}

func decodeB64OrEmpty(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	return b64Decode(s)
}

func b64Encode(b []byte) []byte {
	out := make([]byte, b64.EncodedLen(len(b)))
	b64.Encode(out, b)

	return out
}

func b64Decode(s string) ([]byte, error) {
	return b64.DecodeString(s)
}
