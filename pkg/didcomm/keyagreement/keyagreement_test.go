/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/keyagreement"
)

func TestDirectCEKRoundTripX25519(t *testing.T) {
	recipientPriv, recipientPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	cek, epk, err := keyagreement.DeriveDirectCEK(
		recipientPub, algorithm.ECDHESDirect, algorithm.XC20P, []byte("apu"), []byte("apv"), keyagreement.WrapOpts{})
	require.NoError(t, err)
	require.Len(t, cek, 32)

	unwrapped, err := keyagreement.UnwrapDirectCEK(
		recipientPriv, &epk, algorithm.ECDHESDirect, algorithm.XC20P, []byte("apu"), []byte("apv"), keyagreement.WrapOpts{})
	require.NoError(t, err)
	require.Equal(t, cek, unwrapped)
}

func TestDirectCEK1PURequiresSenderKey(t *testing.T) {
	_, recipientPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	_, _, err = keyagreement.DeriveDirectCEK(
		recipientPub, algorithm.ECDH1PUDirect, algorithm.XC20P, nil, nil, keyagreement.WrapOpts{})
	require.Error(t, err)
}

func TestDirectCEK1PURoundTrip(t *testing.T) {
	senderPriv, senderPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	recipientPriv, recipientPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	cek, epk, err := keyagreement.DeriveDirectCEK(
		recipientPub, algorithm.ECDH1PUDirect, algorithm.XC20P, nil, nil,
		keyagreement.WrapOpts{SenderPriv: senderPriv})
	require.NoError(t, err)

	unwrapped, err := keyagreement.UnwrapDirectCEK(
		recipientPriv, &epk, algorithm.ECDH1PUDirect, algorithm.XC20P, nil, nil,
		keyagreement.WrapOpts{SenderPub: senderPub})
	require.NoError(t, err)
	require.Equal(t, cek, unwrapped)
}

func TestWrapUnwrapCEKRoundTrip(t *testing.T) {
	recipientPriv, recipientPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	cek := make([]byte, 32)
	for i := range cek {
		cek[i] = byte(i)
	}

	wrapped, err := keyagreement.WrapCEK(cek, recipientPub, algorithm.ECDHESA256KW, []byte("apu"), []byte("apv"), keyagreement.WrapOpts{})
	require.NoError(t, err)
	require.NotEmpty(t, wrapped.EncryptedCEK)

	unwrapped, err := keyagreement.UnwrapCEK(
		wrapped.EncryptedCEK, recipientPriv, &wrapped.EPK, algorithm.ECDHESA256KW, []byte("apu"), []byte("apv"), keyagreement.WrapOpts{})
	require.NoError(t, err)
	require.Equal(t, cek, unwrapped)
}

func TestUnwrapCEKFailsWithWrongKey(t *testing.T) {
	_, recipientPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	wrongPriv, _, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	cek := make([]byte, 32)

	wrapped, err := keyagreement.WrapCEK(cek, recipientPub, algorithm.ECDHESA256KW, nil, nil, keyagreement.WrapOpts{})
	require.NoError(t, err)

	_, err = keyagreement.UnwrapCEK(wrapped.EncryptedCEK, wrongPriv, &wrapped.EPK, algorithm.ECDHESA256KW, nil, nil, keyagreement.WrapOpts{})
	require.Error(t, err)
}

func TestECDHCurveMismatch(t *testing.T) {
	x25519Priv, _, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	_, p256Pub, err := keyagreement.GenerateEphemeral(algorithm.P256)
	require.NoError(t, err)

	_, err = keyagreement.ECDH(x25519Priv, p256Pub)
	require.Error(t, err)
}

func TestGenerateEphemeralP256AndSecp256k1(t *testing.T) {
	for _, curve := range []algorithm.Curve{algorithm.P256, algorithm.Secp256K1} {
		priv, pub, err := keyagreement.GenerateEphemeral(curve)
		require.NoError(t, err)
		require.Equal(t, curve, priv.Curve)
		require.Equal(t, curve, pub.Curve)

		z, err := keyagreement.ECDH(priv, pub)
		require.NoError(t, err)
		require.NotEmpty(t, z)
	}
}
