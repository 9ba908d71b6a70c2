/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jws_test

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/jws"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/primitive/signature"
)

func newEdDSAKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	return pub, priv
}

func TestPackCompactRoundTrip(t *testing.T) {
	pub, priv := newEdDSAKeyPair(t)

	payload := []byte(`{"k":"v"}`)

	out, err := jws.PackCompact(payload, jws.Signer{
		KID: "did:x:alice#key-1", Alg: algorithm.EdDSA, SigningKey: priv,
	}, signature.DefaultSigners{})
	require.NoError(t, err)

	decoded, kid, err := jws.Unpack(out, jws.VerificationKeys{
		"did:x:alice#key-1": pub,
	}, signature.DefaultSigners{})
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(decoded))
	require.Equal(t, "did:x:alice#key-1", kid)
}

func TestPackGeneralMultiSigner(t *testing.T) {
	pub1, priv1 := newEdDSAKeyPair(t)
	pub2, priv2 := newEdDSAKeyPair(t)

	payload := []byte(`{"k":"v"}`)

	out, err := jws.PackGeneral(payload, []jws.Signer{
		{KID: "did:x:alice#key-1", Alg: algorithm.EdDSA, SigningKey: priv1},
		{KID: "did:x:bob#key-1", Alg: algorithm.EdDSA, SigningKey: priv2},
	}, signature.DefaultSigners{})
	require.NoError(t, err)

	_, kid, err := jws.Unpack(out, jws.VerificationKeys{
		"did:x:bob#key-1": pub2,
	}, signature.DefaultSigners{})
	_ = pub1
	require.NoError(t, err)
	require.Equal(t, "did:x:bob#key-1", kid)
}

func TestUnpackZeroValidSignaturesFails(t *testing.T) {
	_, priv := newEdDSAKeyPair(t)
	unrelatedPub, _ := newEdDSAKeyPair(t)

	out, err := jws.PackCompact([]byte(`{}`), jws.Signer{
		KID: "did:x:alice#key-1", Alg: algorithm.EdDSA, SigningKey: priv,
	}, signature.DefaultSigners{})
	require.NoError(t, err)

	_, _, err = jws.Unpack(out, jws.VerificationKeys{
		"did:x:alice#key-1": unrelatedPub,
	}, signature.DefaultSigners{})
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.SignatureInvalid))
}

func TestTamperedSignatureFails(t *testing.T) {
	pub, priv := newEdDSAKeyPair(t)

	out, err := jws.PackCompact([]byte(`{"k":"v"}`), jws.Signer{
		KID: "did:x:alice#key-1", Alg: algorithm.EdDSA, SigningKey: priv,
	}, signature.DefaultSigners{})
	require.NoError(t, err)

	tampered := append([]byte(nil), out...)
	tampered[len(tampered)-1] ^= 0xFF

	_, _, err = jws.Unpack(tampered, jws.VerificationKeys{
		"did:x:alice#key-1": pub,
	}, signature.DefaultSigners{})
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.SignatureInvalid))
}

func TestPeekKIDs(t *testing.T) {
	_, priv1 := newEdDSAKeyPair(t)
	_, priv2 := newEdDSAKeyPair(t)

	out, err := jws.PackGeneral([]byte(`{}`), []jws.Signer{
		{KID: "did:x:alice#key-1", Alg: algorithm.EdDSA, SigningKey: priv1},
		{KID: "did:x:bob#key-1", Alg: algorithm.EdDSA, SigningKey: priv2},
	}, signature.DefaultSigners{})
	require.NoError(t, err)

	kids, err := jws.PeekKIDs(out)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"did:x:alice#key-1", "did:x:bob#key-1"}, kids)
}
