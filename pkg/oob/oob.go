/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package oob encodes and decodes out-of-band invitations: a plaintext
// DIDComm message of the well-known invitation type, carried as a
// base64url-encoded query parameter on a fixed URL, per the
// "https://didcomm.org/out-of-band/2.0/invitation?_oob=..." convention.
// An invitation never carries a JWS or JWE layer.
package oob

import (
	"encoding/base64"
	"strings"

	"github.com/trustbloc/didcomm-go/pkg/didcomm/message"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// InvitationType is the well-known application message type URI of an OOB
// invitation.
const InvitationType = "https://didcomm.org/out-of-band/2.0/invitation"

const (
	baseURL  = InvitationType
	queryKey = "_oob="
	querySep = "?"
)

var b64 = base64.RawURLEncoding //nolint:gochecknoglobals

// Encode renders m as an out-of-band invitation URL. m must already have
// InvitationType set via SetType; Encode does not set it. Encoding does not
// seal m (an invitation is never staged for JWE/JWS).
func Encode(m *message.Message) (string, error) {
	if m.Type() != InvitationType {
		return "", didcommerr.New(didcommerr.MalformedEnvelope,
			"oob.Encode requires a message of type '"+InvitationType+"'")
	}

	raw, err := m.MarshalJSON()
	if err != nil {
		return "", didcommerr.Wrap(didcommerr.Internal, "marshal oob invitation", err)
	}

	return baseURL + querySep + queryKey + b64.EncodeToString(raw), nil
}

// Decode parses an out-of-band invitation URL produced by Encode (or any
// compliant producer) back into its plaintext Message.
func Decode(url string) (*message.Message, error) {
	idx := strings.Index(url, querySep+queryKey)
	if idx < 0 {
		return nil, didcommerr.New(didcommerr.MalformedEnvelope, "url has no '"+querySep+queryKey+"' query parameter")
	}

	encoded := url[idx+len(querySep+queryKey):]
	if amp := strings.IndexByte(encoded, '&'); amp >= 0 {
		encoded = encoded[:amp]
	}

	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "base64url decode oob invitation", err)
	}

	var m message.Message
	if err := m.UnmarshalJSON(raw); err != nil {
		return nil, err
	}

	if m.Type() != InvitationType {
		return nil, didcommerr.New(didcommerr.MalformedEnvelope,
			"decoded message is not of type '"+InvitationType+"'")
	}

	return &m, nil
}
