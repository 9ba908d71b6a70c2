/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"encoding/base64"
	"encoding/json"

	"github.com/multiformats/go-multibase"
	"github.com/piprate/json-gold/ld"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// FromDIDDocument builds a Static resolver from an already-fetched DID
// document (live ledger/network fetch is a separate caller concern). The
// document is JSON-LD expanded first via json-gold, so verificationMethod
// entries are read by their absolute term IRI regardless of which @context
// alias (or bare compact term) the document author used.
func FromDIDDocument(doc []byte) (*Static, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal(doc, &generic); err != nil {
		return nil, didcommerr.Wrap(didcommerr.ResolverFailed, "parse did document json", err)
	}

	proc := ld.NewJsonLdProcessor()
	opts := ld.NewJsonLdOptions("")

	expanded, err := proc.Expand(generic, opts)
	if err != nil {
		// Not every DID document ships a dereferenceable @context (or any
		// context at all); fall back to reading the compact document
		// directly rather than failing the whole resolve.
		expanded = nil
	}

	did, _ := generic["id"].(string)
	if did == "" {
		return nil, didcommerr.New(didcommerr.ResolverFailed, "did document has no 'id'")
	}

	vms := verificationMethods(expanded, generic)

	keys := &ResolvedKeys{}

	for _, vm := range vms {
		raw, convErr := verificationMethodKeyBytes(vm)
		if convErr != nil {
			continue
		}

		switch vmType(vm) {
		case "Ed25519VerificationKey2018", "Ed25519VerificationKey2020", "Multikey":
			if keys.SigningKey == nil {
				keys.SigningKey = raw
			}
		case "X25519KeyAgreementKey2019", "X25519KeyAgreementKey2020":
			if keys.EncryptionKey == nil {
				keys.EncryptionKey = raw
			}
		}
	}

	return NewStatic(map[string]*ResolvedKeys{did: keys}), nil
}

// verificationMethods returns the document's verificationMethod array,
// preferring the JSON-LD-expanded form (a stable, context-independent IRI
// key) and falling back to the compact term when expansion produced
// nothing usable.
func verificationMethods(expanded []interface{}, compact map[string]interface{}) []map[string]interface{} {
	const expandedTerm = "https://www.w3.org/ns/did#verificationMethod"

	if len(expanded) == 1 {
		if node, ok := expanded[0].(map[string]interface{}); ok {
			if vms, ok := node[expandedTerm].([]interface{}); ok {
				return toMaps(vms)
			}
		}
	}

	if vms, ok := compact["verificationMethod"].([]interface{}); ok {
		return toMaps(vms)
	}

	return nil
}

func toMaps(vs []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(vs))

	for _, v := range vs {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}

	return out
}

func vmType(vm map[string]interface{}) string {
	switch t := vm["type"].(type) {
	case string:
		return t
	case []interface{}:
		for _, v := range t {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}

	return ""
}

func verificationMethodKeyBytes(vm map[string]interface{}) ([]byte, error) {
	if mb, ok := vm["publicKeyMultibase"].(string); ok {
		_, decoded, err := multibase.Decode(mb)
		if err != nil {
			return nil, didcommerr.Wrap(didcommerr.ResolverFailed, "decode publicKeyMultibase", err)
		}
		// strip the 2-byte multicodec prefix if present (did:key-style
		// multikey values embed one; raw multibase-only values don't).
		// Only a recognized codec byte counts, since a raw key's second
		// byte can be 0x01 too.
		if len(decoded) > 2 && decoded[1] == 0x01 &&
			(decoded[0] == codecEd25519Pub || decoded[0] == codecX25519Pub) {
			return decoded[2:], nil
		}

		return decoded, nil
	}

	if b64url, ok := vm["publicKeyJwk"].(map[string]interface{}); ok {
		if x, ok := b64url["x"].(string); ok {
			return base64.RawURLEncoding.DecodeString(x)
		}
	}

	return nil, didcommerr.New(didcommerr.ResolverFailed, "verification method has no recognized public key encoding")
}
