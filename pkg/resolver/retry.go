/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retrying decorates a Resolver with a bounded constant-backoff retry
// loop (backoff.Retry + backoff.WithMaxRetries over a constant interval).
type Retrying struct {
	next       Resolver
	backoff    time.Duration
	maxRetries uint64
}

// NewRetrying wraps next, retrying a failed Resolve up to maxRetries times
// with a constant backoff interval between attempts.
func NewRetrying(next Resolver, backoffInterval time.Duration, maxRetries uint64) *Retrying {
	return &Retrying{next: next, backoff: backoffInterval, maxRetries: maxRetries}
}

// Resolve implements Resolver.
func (r *Retrying) Resolve(ctx context.Context, did string) (*ResolvedKeys, error) {
	var keys *ResolvedKeys

	err := backoff.Retry(func() error {
		resolved, err := r.next.Resolve(ctx, did)
		if err != nil {
			logger.Debugf("resolve %s failed, retrying: %v", did, err)
			return err
		}

		keys = resolved

		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(r.backoff), r.maxRetries), ctx))
	if err != nil {
		return nil, err
	}

	return keys, nil
}
