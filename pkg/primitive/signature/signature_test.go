/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signature_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/primitive/signature"
)

func TestEdDSASignVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	msg := []byte("sign me")

	sig, err := signature.EdDSA{}.Sign(msg, priv)
	require.NoError(t, err)
	require.NoError(t, signature.EdDSA{}.Verify(msg, sig, pub))

	sig[0] ^= 0xFF
	require.Error(t, signature.EdDSA{}.Verify(msg, sig, pub))
}

func TestES256SignVerify(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	d := make([]byte, 32)
	x := make([]byte, 32)
	y := make([]byte, 32)
	priv.D.FillBytes(d)
	priv.X.FillBytes(x)
	priv.Y.FillBytes(y)

	pub := append(append([]byte{}, x...), y...)

	msg := []byte("sign me")

	sig, err := signature.ES256{}.Sign(msg, d)
	require.NoError(t, err)
	require.NoError(t, signature.ES256{}.Verify(msg, sig, pub))

	sig[0] ^= 0xFF
	require.Error(t, signature.ES256{}.Verify(msg, sig, pub))
}

func TestES256KSignVerify(t *testing.T) {
	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)

	d := make([]byte, 32)
	x := make([]byte, 32)
	y := make([]byte, 32)
	priv.D.FillBytes(d)
	priv.X.FillBytes(x)
	priv.Y.FillBytes(y)

	pub := append(append([]byte{}, x...), y...)

	msg := []byte("sign me")

	sig, err := signature.ES256K{}.Sign(msg, d)
	require.NoError(t, err)
	require.NoError(t, signature.ES256K{}.Verify(msg, sig, pub))
}

func TestDefaultSignersRegistry(t *testing.T) {
	for _, alg := range []algorithm.SigAlg{algorithm.EdDSA, algorithm.ES256, algorithm.ES256K} {
		_, err := signature.DefaultSigners{}.Signer(alg)
		require.NoError(t, err)
	}

	_, err := signature.DefaultSigners{}.Signer("bogus")
	require.Error(t, err)
}
