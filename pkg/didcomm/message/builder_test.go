/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

func TestAsJWESelectsDirectModeForSingleRecipient(t *testing.T) {
	m := message.New().SetTo([]string{"did:x:b"}).AsJWE(algorithm.XC20P)

	require.NoError(t, m.StageError())
	require.True(t, m.IsStagedJWE())
	require.Equal(t, string(algorithm.ECDHESDirect), m.JWMHeader().Alg)
	require.Equal(t, string(algorithm.XC20P), m.JWMHeader().Enc)
}

func TestAsJWESelectsKeyWrapForMultipleRecipients(t *testing.T) {
	m := message.New().SetTo([]string{"did:x:b", "did:x:c"}).AsJWE(algorithm.A256GCM)

	require.Equal(t, string(algorithm.ECDHESA256KW), m.JWMHeader().Alg)
}

func TestAsJWESenderAuthenticatedSelects1PU(t *testing.T) {
	m := message.New().
		SetFrom("did:x:a").
		SetTo([]string{"did:x:b", "did:x:c"}).
		AsJWE(algorithm.A256GCM, message.WithSenderAuthenticated())

	require.Equal(t, string(algorithm.ECDH1PUA256KW), m.JWMHeader().Alg)
}

func TestAsJWEUnsupportedAlgorithmRecordsStageError(t *testing.T) {
	m := message.New().AsJWE(algorithm.ContentEnc("bogus"))

	require.Error(t, m.StageError())
	require.True(t, didcommerr.Is(m.StageError(), didcommerr.UnsupportedAlgorithm))
	require.False(t, m.IsStagedJWE())
}

func TestRequireStagedJWEWithoutStagingFails(t *testing.T) {
	m := message.New()

	err := m.RequireStagedJWE()
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.MissingEncryptionMetadata))
}

func TestAsJWSStaging(t *testing.T) {
	m := message.New().AsJWS(algorithm.EdDSA)

	require.True(t, m.IsStagedJWS())
	require.Equal(t, message.SignedTyp, m.JWMHeader().Typ)
}
