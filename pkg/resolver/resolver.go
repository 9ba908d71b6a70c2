/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resolver is the non-core DID-key-material resolver glue: a
// Resolver interface and a small set of concrete resolvers operating on
// already-fetched/static DID documents or deterministic did:key
// derivation, never over the network (live ledger resolution is a
// separate caller concern).
package resolver

import (
	"context"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// ResolvedKeys is what Resolve returns for one DID: the raw bytes of its
// encryption (key-agreement) and signing (verification) keys, if the DID
// document publishes them.
type ResolvedKeys struct {
	EncryptionKey []byte
	SigningKey    []byte
}

// Resolver looks up the key material published by a DID. Resolve accepts a
// context because a networked implementation may perform I/O, even though
// none of the resolvers in this package do.
type Resolver interface {
	Resolve(ctx context.Context, did string) (*ResolvedKeys, error)
}

// Static is a Resolver backed by a fixed, caller-populated map. Useful for
// tests and for closed deployments that provision keys out of band.
type Static struct {
	mu   sync.RWMutex
	keys map[string]*ResolvedKeys
}

// NewStatic creates a Static resolver seeded with keys.
func NewStatic(keys map[string]*ResolvedKeys) *Static {
	copied := make(map[string]*ResolvedKeys, len(keys))
	for k, v := range keys {
		copied[k] = v
	}

	return &Static{keys: copied}
}

// Put adds or replaces the keys resolved for did.
func (s *Static) Put(did string, keys *ResolvedKeys) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[did] = keys
}

// Resolve implements Resolver. The returned struct is a copy, so a caller
// reassigning its fields cannot corrupt the resolver's own entry.
func (s *Static) Resolve(_ context.Context, did string) (*ResolvedKeys, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, ok := s.keys[did]
	if !ok {
		return nil, didcommerr.New(didcommerr.ResolverFailed, "no keys registered for did '"+did+"'")
	}

	out := &ResolvedKeys{}
	if err := copier.Copy(out, keys); err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "copy resolved keys", err)
	}

	return out, nil
}
