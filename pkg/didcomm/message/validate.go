/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// headerSchema is the fixed JSON schema for the plaintext DIDComm header
// fields every Message serializes (the `other` map is intentionally left
// unconstrained beyond requiring string values, which MarshalJSON already
// enforces by type).
const headerSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id":           {"type": "string", "minLength": 1},
		"type":         {"type": "string"},
		"from":         {"type": "string"},
		"to":           {"type": "array", "items": {"type": "string"}},
		"created_time": {"type": "integer"},
		"expires_time": {"type": "integer"},
		"body":         {}
	}
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(headerSchema))
	})

	return schema, schemaErr
}

// Validate checks m's serialized DIDComm header against the fixed header
// schema: id is required and non-empty, to/typed fields have the expected
// JSON types. It does not sign, encrypt, or otherwise mutate m.
func (m *Message) Validate() error {
	s, err := loadSchema()
	if err != nil {
		return didcommerr.Wrap(didcommerr.Internal, "load message header schema", err)
	}

	raw, err := m.MarshalJSON()
	if err != nil {
		return didcommerr.Wrap(didcommerr.Internal, "marshal message for validation", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return didcommerr.Wrap(didcommerr.Internal, "run schema validation", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return didcommerr.New(didcommerr.MalformedEnvelope, strings.Join(msgs, "; "))
}
