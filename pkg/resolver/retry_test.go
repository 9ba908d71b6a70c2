/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/resolver"
)

type flakyResolver struct {
	failuresLeft int
	keys         *resolver.ResolvedKeys
}

func (f *flakyResolver) Resolve(_ context.Context, _ string) (*resolver.ResolvedKeys, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, didcommerr.New(didcommerr.ResolverFailed, "not yet")
	}

	return f.keys, nil
}

func TestRetryingSucceedsAfterTransientFailures(t *testing.T) {
	flaky := &flakyResolver{failuresLeft: 2, keys: &resolver.ResolvedKeys{SigningKey: []byte("k")}}
	retrying := resolver.NewRetrying(flaky, time.Millisecond, 5)

	keys, err := retrying.Resolve(context.Background(), "did:x:a")
	require.NoError(t, err)
	require.Equal(t, []byte("k"), keys.SigningKey)
}

func TestRetryingGivesUpAfterMaxRetries(t *testing.T) {
	flaky := &flakyResolver{failuresLeft: 10, keys: &resolver.ResolvedKeys{}}
	retrying := resolver.NewRetrying(flaky, time.Millisecond, 2)

	_, err := retrying.Resolve(context.Background(), "did:x:a")
	require.Error(t, err)
}
