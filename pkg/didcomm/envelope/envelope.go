/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package envelope is the DIDComm v2 envelope composer: it
// turns a staged message.Message into one of the terminal artifacts
// (Seal, SealCompact, SealSigned) or a mediator forward Message (RoutedBy),
// by driving the jws/jwe packers with the algorithms the message was
// staged for.
package envelope

import (
	"encoding/json"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/jwe"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/jws"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/keyagreement"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/primitive/aead"
	"github.com/trustbloc/didcomm-go/pkg/primitive/signature"
)

// Recipient names one JWE target: the kid to record for it and its
// key-agreement public key.
type Recipient struct {
	KID string
	Pub *keyagreement.PublicKey
}

// Signer names the signing identity SealSigned uses to produce the inner
// JWS layer.
type Signer struct {
	KID        string
	Alg        algorithm.SigAlg
	SigningKey []byte
}

// Option configures a Seal*/RoutedBy call.
type Option func(*options)

type options struct {
	cyphers    crypto.CypherRegistry
	signers    crypto.SignerRegistry
	senderPriv *keyagreement.PrivateKey
	skid       string
	cty        string
}

// WithCyphers overrides the default Cypher registry (pkg/primitive/aead's
// DefaultCyphers) with a caller-supplied one.
func WithCyphers(r crypto.CypherRegistry) Option {
	return func(o *options) { o.cyphers = r }
}

// WithSigners overrides the default Signer registry
// (pkg/primitive/signature's DefaultSigners) with a caller-supplied one.
func WithSigners(r crypto.SignerRegistry) Option {
	return func(o *options) { o.signers = r }
}

// WithSenderKey supplies the sender's static key-agreement private key and
// skid, required when the message was staged with AsJWE(enc,
// WithSenderAuthenticated()) (ECDH-1PU).
func WithSenderKey(priv *keyagreement.PrivateKey, skid string) Option {
	return func(o *options) { o.senderPriv = priv; o.skid = skid }
}

func resolveOptions(opts []Option) options {
	o := options{
		cyphers: aead.DefaultCyphers{},
		signers: signature.DefaultSigners{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o options) packOpts() jwe.PackOpts {
	return jwe.PackOpts{SenderPriv: o.senderPriv, Skid: o.skid, Cty: o.cty}
}

func toTargets(recipients []Recipient) []jwe.RecipientTarget {
	targets := make([]jwe.RecipientTarget, 0, len(recipients))

	for _, r := range recipients {
		targets = append(targets, jwe.RecipientTarget{KID: r.KID, Pub: r.Pub})
	}

	return targets
}

func stagedAlgEnc(m *message.Message) (algorithm.ContentEnc, algorithm.KeyWrapAlg) {
	h := m.JWMHeader()
	return algorithm.ContentEnc(h.Enc), algorithm.KeyWrapAlg(h.Alg)
}

// Seal requires m to have been staged via AsJWE; it encrypts m's plaintext
// DIDComm JSON to every recipient and returns the general-form JWE JSON.
// Sealing marks m (and the returned clone inside it) as no longer mutable.
func Seal(m *message.Message, recipients []Recipient, opts ...Option) ([]byte, error) {
	if err := m.RequireStagedJWE(); err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		return nil, didcommerr.New(didcommerr.Internal, "Seal requires at least one recipient")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal message for sealing", err)
	}

	enc, kwAlg := stagedAlgEnc(m)
	o := resolveOptions(opts)

	out, err := jwe.PackGeneral(payload, enc, kwAlg, toTargets(recipients), o.packOpts(), o.cyphers)
	if err != nil {
		return nil, err
	}

	m.Freeze()

	return out, nil
}

// SealCompact requires m to have been staged via AsJWE and to target at
// most one recipient; it returns the RFC 7516 §7.1 compact serialization.
func SealCompact(m *message.Message, recipient Recipient, opts ...Option) ([]byte, error) {
	if err := m.RequireStagedJWE(); err != nil {
		return nil, err
	}

	if len(m.To()) > 1 {
		return nil, didcommerr.New(didcommerr.Internal, "SealCompact requires at most one entry in To")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal message for sealing", err)
	}

	enc, kwAlg := stagedAlgEnc(m)
	o := resolveOptions(opts)

	target := jwe.RecipientTarget{KID: recipient.KID, Pub: recipient.Pub}

	out, err := jwe.PackCompact(payload, enc, kwAlg, target, o.packOpts(), o.cyphers)
	if err != nil {
		return nil, err
	}

	m.Freeze()

	return out, nil
}

// SealSigned requires m to have been staged via AsJWE for the outer
// encryption layer; it signs m's plaintext DIDComm JSON with signer,
// marks the outer protected header's cty as "application/didcomm-signed
// +json", and encrypts the resulting JWS JSON as the JWE payload.
func SealSigned(m *message.Message, recipients []Recipient, signer Signer, opts ...Option) ([]byte, error) {
	if err := m.RequireStagedJWE(); err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		return nil, didcommerr.New(didcommerr.Internal, "SealSigned requires at least one recipient")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal message for signing", err)
	}

	o := resolveOptions(opts)

	jwsJSON, err := jws.PackGeneral(payload, []jws.Signer{
		{KID: signer.KID, Alg: signer.Alg, SigningKey: signer.SigningKey},
	}, o.signers)
	if err != nil {
		return nil, err
	}

	enc, kwAlg := stagedAlgEnc(m)
	o.cty = message.SignedTyp

	out, err := jwe.PackGeneral(jwsJSON, enc, kwAlg, toTargets(recipients), o.packOpts(), o.cyphers)
	if err != nil {
		return nil, err
	}

	m.Freeze()

	return out, nil
}

// RoutedBy seals inner to finalRecipients, then wraps the resulting
// ciphertext as the "attached" field of a new, not-yet-sealed forward
// Message addressed to nextMediator (To = [nextMediator]). The forward
// body's "next" names the party the mediator passes the envelope on to:
// the first entry of inner's To, or the first final recipient's kid when
// inner has no To. The caller drives the next hop by
// staging and sealing the returned Message itself (AsJWE + Seal/SealCompact
// with the mediator's key), and, for a chain of N mediators, by repeating
// that pattern (AsJWE + Seal, then message.NewForward + AsJWE + Seal for
// the next hop outward) since each hop may use a different algorithm and
// requires a key only that hop's caller holds. RoutedBy composes exactly
// one hop per call; chains are built by the caller looping over hops.
func RoutedBy(inner *message.Message, finalRecipients []Recipient, nextMediator string, opts ...Option) (*message.Message, error) {
	sealed, err := Seal(inner, finalRecipients, opts...)
	if err != nil {
		return nil, err
	}

	next := finalRecipients[0].KID
	if to := inner.To(); len(to) > 0 {
		next = to[0]
	}

	fwd, err := message.NewForward(next, string(sealed))
	if err != nil {
		return nil, err
	}

	return fwd.SetTo([]string{nextMediator}), nil
}
