/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"encoding/json"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/log"
)

var logger = log.New("didcomm/resolver") //nolint:gochecknoglobals

// Caching decorates a Resolver with an in-memory fastcache, avoiding a
// repeat resolve of the same DID within a process. fastcache is a fixed-
// capacity byte-oriented cache (no TTL/eviction callback), so ResolvedKeys
// are stored JSON-encoded and negative lookups are not cached (a resolver
// failure should not be stuck for the life of the cache).
type Caching struct {
	next Resolver
	c    *fastcache.Cache
}

// NewCaching wraps next with a fastcache of the given byte capacity.
func NewCaching(next Resolver, maxBytes int) *Caching {
	return &Caching{next: next, c: fastcache.New(maxBytes)}
}

// Resolve implements Resolver.
func (c *Caching) Resolve(ctx context.Context, did string) (*ResolvedKeys, error) {
	if raw, ok := c.c.HasGet(nil, []byte(did)); ok {
		var keys ResolvedKeys
		if err := json.Unmarshal(raw, &keys); err == nil {
			return &keys, nil
		}

		logger.Warnf("dropping corrupt cache entry for %s", did)
	}

	keys, err := c.next.Resolve(ctx, did)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(keys)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal resolved keys for cache", err)
	}

	c.c.Set([]byte(did), encoded)

	return keys, nil
}
