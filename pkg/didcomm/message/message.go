/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message defines the DIDComm v2 Message data model: the header
// algebra (JOSE header vs. DIDComm header), the fluent builder, and JSON
// (de)serialization of the plaintext DIDComm portion of an envelope.
package message

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// PlainTyp is the media type of an unsecured (plaintext) DIDComm message.
const PlainTyp = "application/didcomm-plain+json"

// SignedTyp is the media type a Message's jwm header Typ is set to once
// AsJWS has staged a signature.
const SignedTyp = "application/didcomm-signed+json"

// EncryptedTyp is the media type a Message's jwm header Typ is set to once
// AsJWE has staged encryption.
const EncryptedTyp = "application/didcomm-encrypted+json"

// ForwardMessageType is the well-known application type URI for a
// mediator-forwarding message.
const ForwardMessageType = "https://didcomm.org/routing/2.0/forward"

// Message is the in-memory DIDComm v2 envelope: the DIDComm (application)
// header fields live directly on the struct; the JOSE (cryptographic)
// header lives in the separate jwmHeader field, enforced by the type
// system: there is no code path from Other into JWMHeader.
type Message struct {
	id          string
	type_       string
	from        string
	to          []string
	createdTime *int64
	expiresTime *int64
	body        []byte
	other       map[string]string
	jwmHeader   JWMHeader
	sealed      bool
	stageErr    error
}

// New creates a Message with a fresh random id and the plaintext default
// media type. The id is a random 128-bit value rendered as a UUID string.
func New() *Message {
	return &Message{
		id:    uuid.New().String(),
		type_: "",
		jwmHeader: JWMHeader{
			Typ: PlainTyp,
		},
		other: map[string]string{},
	}
}

// ID returns the message's unique identifier.
func (m *Message) ID() string { return m.id }

// Type returns the application message type URI.
func (m *Message) Type() string { return m.type_ }

// From returns the sender DID, or "" if unset.
func (m *Message) From() string { return m.from }

// To returns the ordered recipient DID list.
func (m *Message) To() []string { return append([]string(nil), m.to...) }

// Body returns the opaque application payload.
func (m *Message) Body() []byte { return append([]byte(nil), m.body...) }

// Other returns a copy of the application-specific DIDComm headers.
func (m *Message) Other() map[string]string {
	out := make(map[string]string, len(m.other))
	for k, v := range m.other {
		out[k] = v
	}

	return out
}

// CreatedTime returns the created_time header, and whether it was set.
func (m *Message) CreatedTime() (int64, bool) {
	if m.createdTime == nil {
		return 0, false
	}

	return *m.createdTime, true
}

// ExpiresTime returns the expires_time header, and whether it was set.
func (m *Message) ExpiresTime() (int64, bool) {
	if m.expiresTime == nil {
		return 0, false
	}

	return *m.expiresTime, true
}

// JWMHeader returns a copy of the message's JOSE header.
func (m *Message) JWMHeader() JWMHeader { return m.jwmHeader.Clone() }

// Sealed reports whether a terminal Seal*/AsRawJSON call has already
// consumed this Message; further chainable setter calls on a sealed Message
// return it unchanged, and AddHeaderField returns an Internal error without
// mutating it.
func (m *Message) Sealed() bool { return m.sealed }

func (m *Message) checkMutable() error {
	if m.sealed {
		return didcommerr.New(didcommerr.Internal, "message is sealed and can no longer be mutated")
	}

	return nil
}

// SetFrom sets the sender DID. Chainable.
func (m *Message) SetFrom(did string) *Message {
	if m.checkMutable() != nil {
		return m
	}

	m.from = did

	return m
}

// SetTo sets the ordered recipient DID list. Chainable.
func (m *Message) SetTo(to []string) *Message {
	if m.checkMutable() != nil {
		return m
	}

	m.to = append([]string(nil), to...)

	return m
}

// SetType sets the application message type URI. Chainable.
func (m *Message) SetType(typeURI string) *Message {
	if m.checkMutable() != nil {
		return m
	}

	m.type_ = typeURI

	return m
}

// SetBody sets the opaque application payload. Chainable.
func (m *Message) SetBody(body []byte) *Message {
	if m.checkMutable() != nil {
		return m
	}

	m.body = append([]byte(nil), body...)

	return m
}

// AddHeaderField adds an application-specific DIDComm header field.
// Returns ReservedHeader, without mutating the Message, if name collides
// with a JOSE-reserved header name.
func (m *Message) AddHeaderField(name, value string) error {
	if err := m.checkMutable(); err != nil {
		return err
	}

	if IsReservedHeaderName(name) {
		return didcommerr.New(didcommerr.ReservedHeader,
			"cannot set reserved JOSE header name '"+name+"' via AddHeaderField")
	}

	if m.other == nil {
		m.other = map[string]string{}
	}

	m.other[name] = value

	return nil
}

// Kid sets the JOSE header's kid field directly (used for compact-form
// single-recipient layers, and for JWS signing). Chainable.
func (m *Message) Kid(kid string) *Message {
	if m.checkMutable() != nil {
		return m
	}

	m.jwmHeader.Kid = kid

	return m
}

// Timed sets expires_time to createdTime+expiresInSeconds (createdTime
// defaults to now if not already set) via the caller-supplied current-time
// seconds value now; the core never reads the system clock itself.
// Chainable.
func (m *Message) Timed(now, expiresInSeconds int64) *Message {
	if m.checkMutable() != nil {
		return m
	}

	if m.createdTime == nil {
		m.createdTime = &now
	}

	expires := *m.createdTime + expiresInSeconds
	m.expiresTime = &expires

	return m
}

// SetCreatedTime sets created_time explicitly. Chainable.
func (m *Message) SetCreatedTime(t int64) *Message {
	if m.checkMutable() != nil {
		return m
	}

	m.createdTime = &t

	return m
}

// clone returns a deep, independent copy of m. Every field is copied
// explicitly: the fields are unexported, so no reflection-based copier can
// reach them, and the slice/map/pointer fields must not share backing
// storage with the original.
func (m *Message) clone() *Message {
	out := &Message{
		id:       m.id,
		type_:    m.type_,
		from:     m.from,
		sealed:   m.sealed,
		stageErr: m.stageErr,
	}

	out.to = append([]string(nil), m.to...)
	out.body = append([]byte(nil), m.body...)
	out.other = m.Other()
	out.jwmHeader = m.jwmHeader.Clone()

	if m.createdTime != nil {
		t := *m.createdTime
		out.createdTime = &t
	}

	if m.expiresTime != nil {
		t := *m.expiresTime
		out.expiresTime = &t
	}

	return out
}

// Freeze marks m as sealed and returns an independent clone of it, so the
// Message an envelope was built from can no longer be observed or mutated
// through the caller's original reference. Used by the envelope composer
// at every Seal*/RoutedBy terminal call.
func (m *Message) Freeze() *Message {
	frozen := m.clone()
	frozen.sealed = true
	m.sealed = true

	return frozen
}

// wireMessage is the JSON shape of the DIDComm (plaintext) portion of a
// Message: the fixed fields plus the flattened `other` map, merged via a
// plain map merge rather than a nested "other" key.
type wireMessage struct {
	ID          string          `json:"id"`
	Typ         string          `json:"typ,omitempty"`
	Type        string          `json:"type,omitempty"`
	From        string          `json:"from,omitempty"`
	To          []string        `json:"to,omitempty"`
	CreatedTime *int64          `json:"created_time,omitempty"`
	ExpiresTime *int64          `json:"expires_time,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// MarshalJSON renders the DIDComm (plaintext) portion of the message: the
// fixed header fields, the body, and the flattened `other` headers. The
// JOSE header is never part of this output; it is serialized separately
// by the jws/jwe packers into `protected`/per-recipient `header`.
func (m *Message) MarshalJSON() ([]byte, error) {
	body := m.body
	if len(body) == 0 {
		body = []byte("null")
	} else if !json.Valid(body) {
		// opaque non-JSON payloads are carried as a JSON string of their
		// own bytes, so arbitrary application bodies always round-trip.
		raw, err := json.Marshal(string(body))
		if err != nil {
			return nil, err
		}

		body = raw
	}

	base := wireMessage{
		ID: m.id,
		// the plaintext portion always carries the plain media type,
		// whatever layer it is about to be wrapped in.
		Typ:         PlainTyp,
		Type:        m.type_,
		From:        m.from,
		To:          m.to,
		CreatedTime: m.createdTime,
		ExpiresTime: m.expiresTime,
		Body:        body,
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	if len(m.other) == 0 {
		return baseJSON, nil
	}

	var flat map[string]json.RawMessage

	if err := json.Unmarshal(baseJSON, &flat); err != nil {
		return nil, err
	}

	for k, v := range m.other {
		if _, exists := flat[k]; exists {
			continue
		}

		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}

		flat[k] = encoded
	}

	return json.Marshal(flat)
}

// UnmarshalJSON parses the DIDComm (plaintext) portion of a message.
// Unrecognized top-level fields with string values are captured into
// Other; unrecognized fields with any other JSON value are dropped.
func (m *Message) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage

	if err := json.Unmarshal(data, &flat); err != nil {
		return didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse didcomm message", err)
	}

	var base wireMessage

	if err := json.Unmarshal(data, &base); err != nil {
		return didcommerr.Wrap(didcommerr.MalformedEnvelope, "parse didcomm message fields", err)
	}

	if base.ID == "" {
		return didcommerr.New(didcommerr.MalformedEnvelope, "didcomm message is missing required field 'id'")
	}

	m.id = base.ID
	m.type_ = base.Type
	m.from = base.From
	m.to = append([]string(nil), base.To...)
	m.createdTime = base.CreatedTime
	m.expiresTime = base.ExpiresTime
	m.other = map[string]string{}

	if len(base.Body) > 0 && string(base.Body) != "null" {
		var asString string
		if err := json.Unmarshal(base.Body, &asString); err == nil {
			m.body = []byte(asString)
		} else {
			m.body = append([]byte(nil), base.Body...)
		}
	}

	m.jwmHeader.Typ = PlainTyp
	if base.Typ != "" {
		m.jwmHeader.Typ = base.Typ
	}

	known := map[string]struct{}{
		"id": {}, "typ": {}, "type": {}, "from": {}, "to": {},
		"created_time": {}, "expires_time": {}, "body": {},
	}

	for k, v := range flat {
		if _, ok := known[k]; ok {
			continue
		}

		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}

		m.other[k] = s
	}

	return nil
}

// AsRawJSON serializes the message as plaintext DIDComm JSON
// (application/didcomm-plain+json), with no JWS/JWE layer. Calling this
// seals the Message.
func (m *Message) AsRawJSON() ([]byte, error) {
	raw, err := m.MarshalJSON()
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.Internal, "marshal plaintext message", err)
	}

	m.sealed = true

	return raw, nil
}
