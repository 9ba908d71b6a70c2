/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// ForwardBody is the decoded body of a mediator-forwarding Message
// (type = ForwardMessageType): {"next": <next-hop-did>, "attached":
// <serialized inner envelope>}. There is no dedicated ForwardMessage type:
// a forward message is an ordinary Message with this well-known type and
// body shape.
type ForwardBody struct {
	Next     string `mapstructure:"next" json:"next"`
	Attached string `mapstructure:"attached" json:"attached"`
}

// NewForward builds a plain (not yet sealed) Message representing a
// forward-routing envelope: to = [next], type = ForwardMessageType, body =
// {"next": next, "attached": attached}.
func NewForward(next, attached string) (*Message, error) {
	body := ForwardBody{Next: next, Attached: attached}

	bodyJSON, err := json.Marshal(body)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal forward body", err)
	}

	m := New()
	m.SetType(ForwardMessageType)
	m.SetTo([]string{next})
	m.SetBody(bodyJSON)

	return m, nil
}

// ParseForward decodes m's body into a ForwardBody. Returns
// MalformedEnvelope if m is not shaped like a forward message.
func ParseForward(m *Message) (*ForwardBody, error) {
	if m.Type() != ForwardMessageType {
		return nil, didcommerr.New(didcommerr.MalformedEnvelope,
			"message type is not '"+ForwardMessageType+"'")
	}

	var generic map[string]interface{}

	if err := json.Unmarshal(m.Body(), &generic); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse forward message body", err)
	}

	var fb ForwardBody

	if err := mapstructure.Decode(generic, &fb); err != nil {
		return nil, didcommerr.Wrap(didcommerr.MalformedEnvelope, "decode forward message body", err)
	}

	if fb.Next == "" || fb.Attached == "" {
		return nil, didcommerr.New(didcommerr.MalformedEnvelope, "forward message body missing 'next' or 'attached'")
	}

	return &fb, nil
}
