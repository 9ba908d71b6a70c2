/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"
)

// JWMHeader is the JOSE (cryptographic/processing) header of a Message, as
// distinct from the DIDComm application header carried on Message itself.
// Field order below is the canonical protected-header key order this
// module emits on the wire: typ, cty, alg, enc, skid, apu, apv, epk.
// Keeping this as a struct with fixed field order,
// rather than a map[string]interface{}, is what makes that order
// reproducible without a custom marshaler.
type JWMHeader struct {
	Typ  string `json:"typ,omitempty"`
	Cty  string `json:"cty,omitempty"`
	Alg  string `json:"alg,omitempty"`
	Enc  string `json:"enc,omitempty"`
	Skid string `json:"skid,omitempty"`
	Apu  string `json:"apu,omitempty"`
	Apv  string `json:"apv,omitempty"`
	// Epk is the ephemeral public key used for this layer's key agreement,
	// rendered as a JWK object (see jwe.epkToJWK/jwe.jwkToEPK for the
	// encoding). Empty unless the layer is a JWE.
	Epk json.RawMessage `json:"epk,omitempty"`
	// Kid, when present on a compact-form single recipient, names which
	// recipient key the layer targets. In general form, kid instead lives
	// per-recipient (see jwe.Recipient) and this field is left empty.
	Kid string `json:"kid,omitempty"`
}

// reservedHeaderNames are the JOSE header field names that
// Message.AddHeaderField must never be able to write.
//
//nolint:gochecknoglobals
var reservedHeaderNames = map[string]struct{}{
	"alg":  {},
	"enc":  {},
	"kid":  {},
	"epk":  {},
	"typ":  {},
	"cty":  {},
	"skid": {},
}

// IsReservedHeaderName reports whether name is a JOSE header name that
// application code is forbidden from setting via AddHeaderField.
func IsReservedHeaderName(name string) bool {
	_, ok := reservedHeaderNames[name]
	return ok
}

// Clone returns a deep copy of h.
func (h JWMHeader) Clone() JWMHeader {
	clone := h
	clone.Epk = append(json.RawMessage(nil), h.Epk...)

	return clone
}
