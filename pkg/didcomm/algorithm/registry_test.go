/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package algorithm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

func TestSelectKeyWrapAlg(t *testing.T) {
	cases := []struct {
		recipients int
		authed     bool
		want       algorithm.KeyWrapAlg
	}{
		{1, false, algorithm.ECDHESDirect},
		{1, true, algorithm.ECDH1PUDirect},
		{2, false, algorithm.ECDHESA256KW},
		{2, true, algorithm.ECDH1PUA256KW},
	}

	for _, c := range cases {
		got := algorithm.SelectKeyWrapAlg(c.recipients, c.authed)
		require.Equal(t, c.want, got)
	}
}

func TestIsDirectAndIs1PU(t *testing.T) {
	require.True(t, algorithm.IsDirect(algorithm.ECDHESDirect))
	require.True(t, algorithm.IsDirect(algorithm.ECDH1PUDirect))
	require.False(t, algorithm.IsDirect(algorithm.ECDHESA256KW))

	require.True(t, algorithm.Is1PU(algorithm.ECDH1PUA256KW))
	require.True(t, algorithm.Is1PU(algorithm.ECDH1PUDirect))
	require.False(t, algorithm.Is1PU(algorithm.ECDHESA256KW))
}

func TestLookupContentEncUnknown(t *testing.T) {
	_, err := algorithm.LookupContentEnc("bogus")
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.UnsupportedAlgorithm))
}

func TestLookupSigAlgKnown(t *testing.T) {
	info, err := algorithm.LookupSigAlg(algorithm.EdDSA)
	require.NoError(t, err)
	require.Equal(t, algorithm.X25519, info.Curve)
}

func TestSupportsCurve(t *testing.T) {
	require.True(t, algorithm.SupportsCurve(algorithm.X25519))
	require.True(t, algorithm.SupportsCurve(algorithm.P256))
	require.True(t, algorithm.SupportsCurve(algorithm.Secp256K1))
	require.False(t, algorithm.SupportsCurve(algorithm.Curve("ed25519")))
}
