/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package aead_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/primitive/aead"
)

func TestDefaultCyphersRoundTrip(t *testing.T) {
	for _, enc := range []algorithm.ContentEnc{algorithm.XC20P, algorithm.A256GCM, algorithm.A256CBCHS512} {
		info, err := algorithm.LookupContentEnc(enc)
		require.NoError(t, err)

		cypher, err := aead.DefaultCyphers{}.Cypher(enc)
		require.NoError(t, err)

		cek, err := cypher.KeyGen()
		require.NoError(t, err)
		require.Len(t, cek, info.KeyLength)

		nonce := make([]byte, info.NonceLength)

		plaintext := []byte("super secret plaintext")
		aad := []byte("aad value")

		ciphertext, tag, err := cypher.Encrypt(plaintext, cek, nonce, aad)
		require.NoError(t, err)

		decrypted, err := cypher.Decrypt(ciphertext, cek, nonce, aad, tag)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	}
}

func TestDefaultCyphersRejectTamperedTag(t *testing.T) {
	cypher, err := aead.DefaultCyphers{}.Cypher(algorithm.A256GCM)
	require.NoError(t, err)

	cek, err := cypher.KeyGen()
	require.NoError(t, err)

	nonce := make([]byte, 12)

	ciphertext, tag, err := cypher.Encrypt([]byte("hello"), cek, nonce, nil)
	require.NoError(t, err)

	tag[0] ^= 0xFF

	_, err = cypher.Decrypt(ciphertext, cek, nonce, nil, tag)
	require.Error(t, err)
}

func TestDefaultCyphersUnsupportedAlgorithm(t *testing.T) {
	_, err := aead.DefaultCyphers{}.Cypher("bogus")
	require.Error(t, err)
}
