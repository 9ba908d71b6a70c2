/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package receiver is the envelope receiving pipeline: given raw bytes off
// the wire and the keys a party holds, it classifies the envelope (JWE,
// JWS, or plaintext), unwinds any signed-then-encrypted nesting, and
// returns the plaintext message plus whether, and by whom, it was signed.
package receiver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bluele/gcache"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/crypto"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/jwe"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/jws"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/keyagreement"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/log"
	"github.com/trustbloc/didcomm-go/pkg/primitive/aead"
	"github.com/trustbloc/didcomm-go/pkg/primitive/signature"
	"github.com/trustbloc/didcomm-go/pkg/resolver"
)

var logger = log.New("didcomm/receiver") //nolint:gochecknoglobals

// Keys carries the key material one party holds for receiving: the
// decryption keys it has private halves for (indexed by kid), the
// verification keys it already knows about (indexed by kid, used before
// falling back to a Resolver), and the sender's static key-agreement public
// key, required only when an outer layer used ECDH-1PU.
type Keys struct {
	DecryptionKeys   map[string]*keyagreement.PrivateKey
	VerificationKeys map[string][]byte
	SenderPub        *keyagreement.PublicKey
}

// Result is the outcome of a successful Receive.
type Result struct {
	Message     *message.Message
	Verified    bool
	VerifiedKID string
}

// ReplayCache is the duplicate-message-id guard Receive consults, if
// configured, before returning a decrypted message. A message id already
// present in the cache fails with DuplicateMessage.
type ReplayCache interface {
	// SeenBefore records id as seen and reports whether it had already been
	// recorded (true means this is a replay).
	SeenBefore(id string) bool
}

// GCacheReplay is a ReplayCache backed by github.com/bluele/gcache, an LRU
// with per-entry expiration, so a bounded process does not grow its replay
// window unbounded.
type GCacheReplay struct {
	cache gcache.Cache
	ttl   time.Duration
}

// NewGCacheReplay builds a GCacheReplay holding up to size message ids, each
// forgotten after ttl.
func NewGCacheReplay(size int, ttl time.Duration) *GCacheReplay {
	return &GCacheReplay{cache: gcache.New(size).LRU().Build(), ttl: ttl}
}

// SeenBefore implements ReplayCache.
func (g *GCacheReplay) SeenBefore(id string) bool {
	if _, err := g.cache.Get(id); err == nil {
		return true
	}

	_ = g.cache.SetWithExpire(id, struct{}{}, g.ttl)

	return false
}

// Option configures a Receive call.
type Option func(*options)

type options struct {
	cyphers  crypto.CypherRegistry
	signers  crypto.SignerRegistry
	resolver resolver.Resolver
	replay   ReplayCache
}

// WithCyphers overrides the default Cypher registry.
func WithCyphers(r crypto.CypherRegistry) Option {
	return func(o *options) { o.cyphers = r }
}

// WithSigners overrides the default Signer registry.
func WithSigners(r crypto.SignerRegistry) Option {
	return func(o *options) { o.signers = r }
}

// WithResolver supplies a Resolver used to look up verification keys for
// signer kids not already present in Keys.VerificationKeys. Decryption keys
// are never resolver-assisted: a Resolver only ever returns the public key
// material a DID document publishes, and a recipient's own decryption
// private key cannot be derived from it.
func WithResolver(r resolver.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithReplayCache installs a ReplayCache consulted against the innermost
// plaintext message's id.
func WithReplayCache(c ReplayCache) Option {
	return func(o *options) { o.replay = c }
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

// Receive classifies data as a JWE, a JWS, or a plaintext DIDComm message,
// unwinds any JWE(JWS(payload)) nesting, and returns the innermost
// plaintext message. A JWE's cty of "application/didcomm-signed+json"
// triggers recursion into the decrypted payload as a JWS; anything else is
// treated as the final plaintext.
func Receive(ctx context.Context, data []byte, keys Keys, opts ...Option) (*Result, error) {
	o := resolveOptions(opts)

	result, err := receive(ctx, data, keys, o)
	if err != nil {
		return nil, err
	}

	if o.replay != nil {
		if o.replay.SeenBefore(result.Message.ID()) {
			return nil, didcommerr.New(didcommerr.DuplicateMessage,
				"message id '"+result.Message.ID()+"' has already been received")
		}
	}

	return result, nil
}

func receive(ctx context.Context, data []byte, keys Keys, o options) (*Result, error) {
	switch classify(data) {
	case kindJWE:
		return receiveJWE(ctx, data, keys, o)
	case kindJWS:
		return receiveJWS(ctx, data, keys, o)
	default:
		return receivePlaintext(data)
	}
}

func receivePlaintext(data []byte) (*Result, error) {
	var m message.Message
	if err := json.Unmarshal(data, &m); err != nil {
		if didcommerr.Is(err, didcommerr.MalformedEnvelope) {
			return nil, err
		}

		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse plaintext didcomm message", err)
	}

	return &Result{Message: &m}, nil
}

func receiveJWE(ctx context.Context, data []byte, keys Keys, o options) (*Result, error) {
	unpacked, err := jwe.Unpack(data, jwe.UnpackOpts{
		RecipientKeys: keys.DecryptionKeys,
		SenderPub:     keys.SenderPub,
	}, o.cyphers)
	if err != nil {
		return nil, err
	}

	if unpacked.Cty == message.SignedTyp {
		return receiveJWS(ctx, unpacked.Plaintext, keys, o)
	}

	var m message.Message
	if err := json.Unmarshal(unpacked.Plaintext, &m); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse decrypted didcomm message", err)
	}

	return &Result{Message: &m}, nil
}

func receiveJWS(ctx context.Context, data []byte, keys Keys, o options) (*Result, error) {
	verificationKeys, err := resolvedVerificationKeys(ctx, data, keys, o)
	if err != nil {
		return nil, err
	}

	payload, kid, err := jws.Unpack(data, verificationKeys, o.signers)
	if err != nil {
		return nil, err
	}

	var m message.Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse signed didcomm message", err)
	}

	return &Result{Message: &m, Verified: true, VerifiedKID: kid}, nil
}

// resolvedVerificationKeys starts from keys.VerificationKeys and, if a
// Resolver is configured, fills in any candidate signer kid missing from it
// by resolving the kid's DID (the portion before '#') and taking its
// published signing key.
func resolvedVerificationKeys(ctx context.Context, data []byte, keys Keys, o options) (jws.VerificationKeys, error) {
	out := make(jws.VerificationKeys, len(keys.VerificationKeys))
	for k, v := range keys.VerificationKeys {
		out[k] = v
	}

	if o.resolver == nil {
		return out, nil
	}

	kids, err := jws.PeekKIDs(data)
	if err != nil {
		return nil, err
	}

	for _, kid := range kids {
		if _, ok := out[kid]; ok {
			continue
		}

		did := kidDID(kid)

		resolved, err := o.resolver.Resolve(ctx, did)
		if err != nil {
			logger.Debugf("resolve verification key for %s: %v", kid, err)
			continue
		}

		if len(resolved.SigningKey) > 0 {
			out[kid] = resolved.SigningKey
		}
	}

	return out, nil
}

func kidDID(kid string) string {
	for i := 0; i < len(kid); i++ {
		if kid[i] == '#' {
			return kid[:i]
		}
	}

	return kid
}

type envelopeKind int

const (
	kindPlaintext envelopeKind = iota
	kindJWE
	kindJWS
)

// classify distinguishes the three envelope shapes without fully parsing
// any of them: a JWE always carries "ciphertext" (general form) or has 5
// dot-separated compact parts; a JWS carries "signatures" (general form) or
// has 3 compact parts; everything else is treated as plaintext DIDComm
// JSON. Dot-counting only applies to non-JSON input: the compact forms
// are never valid JSON, and a plaintext message's content may itself
// contain dots.
func classify(data []byte) envelopeKind {
	var probe struct {
		Ciphertext *json.RawMessage `json:"ciphertext"`
		Signatures *json.RawMessage `json:"signatures"`
	}

	if err := json.Unmarshal(data, &probe); err == nil {
		if probe.Ciphertext != nil {
			return kindJWE
		}

		if probe.Signatures != nil {
			return kindJWS
		}

		return kindPlaintext
	}

	switch countDots(data) {
	case 4:
		return kindJWE
	case 2:
		return kindJWS
	default:
		return kindPlaintext
	}
}

func countDots(data []byte) int {
	n := 0

	for _, c := range data {
		if c == '.' {
			n++
		}
	}

	return n
}
