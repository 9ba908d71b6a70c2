/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwe_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/jwe"
	"github.com/trustbloc/didcomm-go/pkg/didcomm/keyagreement"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
	"github.com/trustbloc/didcomm-go/pkg/primitive/aead"
)

func newX25519Pair(t *testing.T) (*keyagreement.PrivateKey, *keyagreement.PublicKey) {
	t.Helper()

	priv, pub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	return priv, pub
}

func TestPackCompactDirectRoundTrip(t *testing.T) {
	priv, pub := newX25519Pair(t)
	pub.KID = "did:x:bob#key-1"

	payload := []byte(`{"k":"v"}`)

	out, err := jwe.PackCompact(payload, algorithm.XC20P, algorithm.ECDHESDirect,
		jwe.RecipientTarget{KID: pub.KID, Pub: pub}, jwe.PackOpts{}, aead.DefaultCyphers{})
	require.NoError(t, err)

	res, err := jwe.Unpack(out, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{pub.KID: priv},
	}, aead.DefaultCyphers{})
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(res.Plaintext))
	require.Equal(t, pub.KID, res.KID)
}

func TestPackGeneralMultiRecipient(t *testing.T) {
	priv1, pub1 := newX25519Pair(t)
	pub1.KID = "did:x:bob#key-1"

	priv2, pub2 := newX25519Pair(t)
	pub2.KID = "did:x:carol#key-1"

	payload := []byte(`{"k":"v"}`)

	out, err := jwe.PackGeneral(payload, algorithm.A256GCM, algorithm.ECDHESA256KW,
		[]jwe.RecipientTarget{{KID: pub1.KID, Pub: pub1}, {KID: pub2.KID, Pub: pub2}},
		jwe.PackOpts{}, aead.DefaultCyphers{})
	require.NoError(t, err)

	var general jwe.GeneralJWE

	require.NoError(t, json.Unmarshal(out, &general))
	require.Len(t, general.Recipients, 2)
	require.NotEqual(t, general.Recipients[0].EncryptedKey, general.Recipients[1].EncryptedKey)

	res1, err := jwe.Unpack(out, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{pub1.KID: priv1},
	}, aead.DefaultCyphers{})
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(res1.Plaintext))
	require.Equal(t, pub1.KID, res1.KID)

	res2, err := jwe.Unpack(out, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{pub2.KID: priv2},
	}, aead.DefaultCyphers{})
	require.NoError(t, err)
	require.JSONEq(t, string(payload), string(res2.Plaintext))
	require.Equal(t, pub2.KID, res2.KID)
}

func TestUnpackNoMatchingRecipient(t *testing.T) {
	_, pub := newX25519Pair(t)
	pub.KID = "did:x:bob#key-1"

	otherPriv, _, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	out, err := jwe.PackCompact([]byte(`{}`), algorithm.XC20P, algorithm.ECDHESDirect,
		jwe.RecipientTarget{KID: pub.KID, Pub: pub}, jwe.PackOpts{}, aead.DefaultCyphers{})
	require.NoError(t, err)

	_, err = jwe.Unpack(out, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{"did:x:nobody#key-1": otherPriv},
	}, aead.DefaultCyphers{})
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.NoMatchingRecipient))
}

func TestTamperedTagFailsDecryption(t *testing.T) {
	priv, pub := newX25519Pair(t)
	pub.KID = "did:x:bob#key-1"

	out, err := jwe.PackCompact([]byte(`{"k":"v"}`), algorithm.XC20P, algorithm.ECDHESDirect,
		jwe.RecipientTarget{KID: pub.KID, Pub: pub}, jwe.PackOpts{}, aead.DefaultCyphers{})
	require.NoError(t, err)

	// flip a bit inside the decoded tag, not in its base64 text, so the
	// envelope still parses and the failure comes from the AEAD check.
	parts := strings.Split(string(out), ".")
	require.Len(t, parts, 5)

	tag, err := base64.RawURLEncoding.DecodeString(parts[4])
	require.NoError(t, err)

	tag[len(tag)-1] ^= 0x01
	parts[4] = base64.RawURLEncoding.EncodeToString(tag)
	tampered := []byte(strings.Join(parts, "."))

	_, err = jwe.Unpack(tampered, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{pub.KID: priv},
	}, aead.DefaultCyphers{})
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.DecryptionFailed))
}

func TestPackGeneralRejectsEmptyRecipients(t *testing.T) {
	_, err := jwe.PackGeneral([]byte(`{}`), algorithm.XC20P, algorithm.ECDHESA256KW,
		nil, jwe.PackOpts{}, aead.DefaultCyphers{})
	require.Error(t, err)
	require.True(t, didcommerr.Is(err, didcommerr.Internal))
}

func TestPeekHeader(t *testing.T) {
	_, pub := newX25519Pair(t)
	pub.KID = "did:x:bob#key-1"

	out, err := jwe.PackCompact([]byte(`{"k":"v"}`), algorithm.XC20P, algorithm.ECDHESDirect,
		jwe.RecipientTarget{KID: pub.KID, Pub: pub}, jwe.PackOpts{Skid: "did:x:alice#key-1"}, aead.DefaultCyphers{})
	require.NoError(t, err)

	h, err := jwe.PeekHeader(out)
	require.NoError(t, err)
	require.Equal(t, "did:x:alice#key-1", h.Skid)
	require.Equal(t, string(algorithm.XC20P), h.Enc)
}

func Test1PUSealedEnvelopeRequiresSenderPub(t *testing.T) {
	senderPriv, senderPub, err := keyagreement.GenerateEphemeral(algorithm.X25519)
	require.NoError(t, err)

	recipientPriv, recipientPub := newX25519Pair(t)
	recipientPub.KID = "did:x:bob#key-1"

	out, err := jwe.PackCompact([]byte(`{"k":"v"}`), algorithm.XC20P, algorithm.ECDH1PUDirect,
		jwe.RecipientTarget{KID: recipientPub.KID, Pub: recipientPub},
		jwe.PackOpts{SenderPriv: senderPriv, Skid: "did:x:alice#key-1"}, aead.DefaultCyphers{})
	require.NoError(t, err)

	_, err = jwe.Unpack(out, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{recipientPub.KID: recipientPriv},
	}, aead.DefaultCyphers{})
	require.Error(t, err)

	res, err := jwe.Unpack(out, jwe.UnpackOpts{
		RecipientKeys: map[string]*keyagreement.PrivateKey{recipientPub.KID: recipientPriv},
		SenderPub:     senderPub,
	}, aead.DefaultCyphers{})
	require.NoError(t, err)
	require.JSONEq(t, `{"k":"v"}`, string(res.Plaintext))
}
