/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jws packs and unpacks DIDComm JWS envelopes (RFC 7515 general
// and compact JSON serializations): a protected header base64url-encoded
// separately from the payload, with an explicit build/parse pair rather
// than a generic JSON marshaler.
package jws

import (
	"encoding/base64"
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

var b64 = base64.RawURLEncoding //nolint:gochecknoglobals

// SigHeader is the per-signature unprotected header in general-form JWS:
// only kid, naming which recipient's verification key this signature was
// produced with.
type SigHeader struct {
	KID string `json:"kid,omitempty"`
}

// Signature is one entry of a general-form JWS's "signatures" array.
type Signature struct {
	Protected string     `json:"protected"`
	Header    *SigHeader `json:"header,omitempty"`
	Signature string     `json:"signature"`
}

// GeneralJWS is the RFC 7515 §7.2.1 general JSON serialization.
type GeneralJWS struct {
	Payload    string      `json:"payload"`
	Signatures []Signature `json:"signatures"`
}

// compactJWS is the RFC 7515 §7.1 compact serialization, dot-joined:
// BASE64URL(protected).BASE64URL(payload).BASE64URL(signature).

// Signer describes one signing identity for PackGeneral: which kid/alg to
// sign with and the raw private key bytes to pass to the crypto.Signer.
type Signer struct {
	KID        string
	Alg        algorithm.SigAlg
	SigningKey []byte
}

func protectedHeaderBytes(alg algorithm.SigAlg, kid string, compact bool) ([]byte, error) {
	h := message.JWMHeader{Alg: string(alg)}
	if compact {
		h.Kid = kid
	}

	return json.Marshal(h)
}

func signingInput(protected, payload []byte) []byte {
	out := make([]byte, 0, b64.EncodedLen(len(protected))+1+b64.EncodedLen(len(payload)))
	out = append(out, b64Encode(protected)...)
	out = append(out, '.')
	out = append(out, b64Encode(payload)...)

	return out
}

// PackGeneral produces the general-form JWS JSON over payload, one
// signature entry per signer, using registry to resolve each Signer.Alg to
// a crypto.Signer.
func PackGeneral(payload []byte, signers []Signer, registry crypto.SignerRegistry) ([]byte, error) {
	if len(signers) == 0 {
		return nil, didcommerr.New(didcommerr.Internal, "PackGeneral requires at least one signer")
	}

	out := GeneralJWS{Payload: string(b64Encode(payload))}

	for _, s := range signers {
		if _, err := algorithm.LookupSigAlg(s.Alg); err != nil {
			return nil, err
		}

		signerImpl, err := registry.Signer(s.Alg)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.UnsupportedAlgorithm, "resolve signer for "+string(s.Alg), err)
		}

		protected, err := protectedHeaderBytes(s.Alg, s.KID, false)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.Internal, "marshal jws protected header", err)
		}

		sig, err := signerImpl.Sign(signingInput(protected, payload), s.SigningKey)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.Internal, "sign jws", err)
		}

		out.Signatures = append(out.Signatures, Signature{
			Protected: string(b64Encode(protected)),
			Header:    &SigHeader{KID: s.KID},
			Signature: string(b64Encode(sig)),
		})
	}

	return json.Marshal(out)
}

// PackCompact produces the RFC 7515 compact serialization with exactly one
// signer.
func PackCompact(payload []byte, s Signer, registry crypto.SignerRegistry) ([]byte, error) {
	if _, err := algorithm.LookupSigAlg(s.Alg); err != nil {
		return nil, err
	}

	signerImpl, err := registry.Signer(s.Alg)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.UnsupportedAlgorithm, "resolve signer for "+string(s.Alg), err)
	}

	protected, err := protectedHeaderBytes(s.Alg, s.KID, true)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal jws protected header", err)
	}

	sig, err := signerImpl.Sign(signingInput(protected, payload), s.SigningKey)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "sign jws", err)
	}

	out := append(signingInput(protected, payload), '.')
	out = append(out, b64Encode(sig)...)

	return out, nil
}

// VerificationKeys maps a kid to the verification key bytes to try it
// with. Unpack tries every signature whose kid has an entry here.
type VerificationKeys map[string][]byte

// Unpack parses either serialization of data, verifies at least one
// signature against registry-resolved Signers using verificationKeys, and
// returns the payload bytes plus the kid that verified. A JWS with zero
// valid signatures fails with SignatureInvalid; it never silently
// succeeds.
func Unpack(data []byte, verificationKeys VerificationKeys, registry crypto.SignerRegistry) (payload []byte, verifiedKID string, err error) {
	sigs, payloadB64, err := parseAnyForm(data)
	if err != nil {
		return nil, "", err
	}

	payload, err = b64Decode(payloadB64)
	if err != nil {
		return nil, "", didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode jws payload", err)
	}

	var lastErr error

	for _, sig := range sigs {
		protected, err := b64Decode(sig.Protected)
		if err != nil {
			lastErr = err
			continue
		}

		var h message.JWMHeader
		if err := json.Unmarshal(protected, &h); err != nil {
			lastErr = err
			continue
		}

		kid := h.Kid
		if sig.Header != nil && sig.Header.KID != "" {
			kid = sig.Header.KID
		}

		verKey, ok := verificationKeys[kid]
		if !ok {
			continue
		}

		signerImpl, err := registry.Signer(algorithm.SigAlg(h.Alg))
		if err != nil {
			lastErr = err
			continue
		}

		sigBytes, err := b64Decode(sig.Signature)
		if err != nil {
			lastErr = err
			continue
		}

		if err := signerImpl.Verify(signingInput(protected, payload), sigBytes, verKey); err != nil {
			lastErr = err
			continue
		}

		return payload, kid, nil
	}

	return nil, "", didcommerr.Wrap(didcommerr.SignatureInvalid, "no jws signature verified", lastErr)
}

// PeekKIDs returns the kid named by every signature entry in data (either
// serialization), without verifying anything. Used by non-core
// resolver-assist glue (pkg/didcomm/receiver) to know which DIDs to resolve
// verification keys for before calling Unpack.
func PeekKIDs(data []byte) ([]string, error) {
	sigs, _, err := parseAnyForm(data)
	if err != nil {
		return nil, err
	}

	kids := make([]string, 0, len(sigs))

	for _, sig := range sigs {
		protected, err := b64Decode(sig.Protected)
		if err != nil {
			continue
		}

		var h message.JWMHeader
		if err := json.Unmarshal(protected, &h); err != nil {
			continue
		}

		kid := h.Kid
		if sig.Header != nil && sig.Header.KID != "" {
			kid = sig.Header.KID
		}

		if kid != "" {
			kids = append(kids, kid)
		}
	}

	return kids, nil
}

func parseAnyForm(data []byte) (sigs []Signature, payloadB64 string, err error) {
	var general GeneralJWS
	if err := json.Unmarshal(data, &general); err == nil && len(general.Signatures) > 0 {
		return general.Signatures, general.Payload, nil
	}

	parts := splitCompact(data)
	if len(parts) != 3 {
		return nil, "", didcommerr.New(didcommerr.MalformedEnvelope, "jws is neither valid general nor compact form")
	}

	return []Signature{{Protected: parts[0], Signature: parts[2]}}, parts[1], nil
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

func b64Encode(b []byte) []byte {
	out := make([]byte, b64.EncodedLen(len(b)))
	b64.Encode(out, b)

	return out
}

func b64Decode(s string) ([]byte, error) {
	return b64.DecodeString(s)
}
