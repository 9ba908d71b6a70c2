/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/primitive/keyconv"
)

// multicodec varint prefixes this resolver understands, per the did:key
// method registry (https://github.com/multiformats/multicodec).
const (
	codecEd25519Pub = 0xed
	codecX25519Pub  = 0xec
)

// DIDKey resolves the did:key method: the DID itself is
// multibase(multicodec || raw public key), so no document fetch or
// network I/O is ever required. A did:key that only names an Ed25519
// signing key additionally gets an X25519 agreement key derived via
// pkg/primitive/keyconv.
type DIDKey struct{}

// Resolve implements Resolver.
func (DIDKey) Resolve(_ context.Context, did string) (*ResolvedKeys, error) {
	const prefix = "did:key:"

	trimmed := did
	if idx := strings.IndexByte(trimmed, '#'); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	if !strings.HasPrefix(trimmed, prefix) {
		return nil, didcommerr.New(didcommerr.ResolverFailed, "not a did:key DID: '"+did+"'")
	}

	_, decoded, err := multibase.Decode(trimmed[len(prefix):])
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.ResolverFailed, "decode did:key multibase value", err)
	}

	if len(decoded) < 3 {
		return nil, didcommerr.New(didcommerr.ResolverFailed, "did:key value is too short to carry a multicodec prefix")
	}

	if decoded[1] != 0x01 {
		return nil, didcommerr.New(didcommerr.ResolverFailed, "did:key multicodec prefix is not a recognized 2-byte varint")
	}

	codec, raw := decoded[0], decoded[2:]

	switch codec {
	case codecEd25519Pub:
		xPub, convErr := keyconv.PublicEdToX25519(raw)
		if convErr != nil {
			// Publish the signing key even if agreement-key derivation
			// fails; callers that only need to verify can still proceed.
			return &ResolvedKeys{SigningKey: raw}, nil
		}

		return &ResolvedKeys{SigningKey: raw, EncryptionKey: xPub}, nil
	case codecX25519Pub:
		return &ResolvedKeys{EncryptionKey: raw}, nil
	default:
		return nil, didcommerr.New(didcommerr.ResolverFailed, "unrecognized did:key multicodec prefix")
	}
}

// EncodeEd25519 mints the canonical did:key DID for an Ed25519 public key:
// did:key:<multibase(multicodec || raw key)>, with the fragment repeating
// the same multibase value, per the did:key method spec.
func EncodeEd25519(rawPub []byte) (string, error) {
	return encode(codecEd25519Pub, rawPub)
}

// EncodeX25519 mints the canonical did:key DID for an X25519 public key.
func EncodeX25519(rawPub []byte) (string, error) {
	return encode(codecX25519Pub, rawPub)
}

func encode(codec byte, rawKey []byte) (string, error) {
	mb, err := multibase.Encode(multibase.Base58BTC, append([]byte{codec, 0x01}, rawKey...))
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.Internal, "multibase encode did:key value", err)
	}

	return "did:key:" + mb + "#" + mb, nil
}

// DigestFragment returns a content-addressed did:key fragment: a
// SHA2-256 multihash of rawKey, multibase encoded. Not part of the
// canonical did:key form EncodeEd25519/EncodeX25519 produce, but
// DIDKey.Resolve ignores any fragment entirely (it decodes only the DID
// method-specific id), so a document keying its verificationMethod
// fragments this way resolves correctly too.
func DigestFragment(rawKey []byte) (string, error) {
	digest, err := multihash.Sum(rawKey, multihash.SHA2_256, -1)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.Internal, "multihash sum did:key fragment", err)
	}

	mb, err := multibase.Encode(multibase.Base58BTC, digest)
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.Internal, "multibase encode did:key digest fragment", err)
	}

	return mb, nil
}
