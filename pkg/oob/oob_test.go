/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oob_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/oob"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := message.New().SetType(oob.InvitationType).SetFrom("did:x:alice")
	require.NoError(t, m.AddHeaderField("goal_code", "request"))
	require.NoError(t, m.AddHeaderField("accept", "didcomm/v2"))

	body := []byte(`{"services":["did:x:alice"]}`)
	m.SetBody(body)

	url, err := oob.Encode(m)
	require.NoError(t, err)
	require.Contains(t, url, oob.InvitationType+"?_oob=")

	decoded, err := oob.Decode(url)
	require.NoError(t, err)
	require.Equal(t, m.ID(), decoded.ID())
	require.Equal(t, "did:x:alice", decoded.From())
	require.Equal(t, "request", decoded.Other()["goal_code"])
	require.JSONEq(t, string(body), string(decoded.Body()))
}

func TestEncodeRejectsWrongType(t *testing.T) {
	m := message.New().SetType("https://didcomm.org/basicmessage/2.0/message")

	_, err := oob.Encode(m)
	require.Error(t, err)
}

func TestDecodeRejectsMalformedURL(t *testing.T) {
	_, err := oob.Decode("https://didcomm.org/out-of-band/2.0/invitation")
	require.Error(t, err)
}
