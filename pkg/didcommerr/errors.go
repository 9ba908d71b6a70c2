/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcommerr defines the stable error taxonomy surfaced by every
// component of the envelope engine. Callers should switch on Kind rather
// than match error strings.
package didcommerr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind is a stable error classification. New Kinds are additive only.
type Kind int

const (
	// Internal marks an invariant violation (a bug). Implementations must
	// not downgrade any other Kind into Internal.
	Internal Kind = iota
	// MalformedEnvelope marks input that is not valid JSON or is missing
	// required fields.
	MalformedEnvelope
	// UnsupportedAlgorithm marks an alg/enc/sigAlg that is unknown or
	// incompatible with the operation requested.
	UnsupportedAlgorithm
	// MissingEncryptionMetadata marks a Seal* call made without a prior
	// AsJWE staging call.
	MissingEncryptionMetadata
	// ReservedHeader marks an attempt to write a JOSE-reserved header name
	// through the application header API.
	ReservedHeader
	// KeyAgreementFailed marks an ECDH or KDF step failure.
	KeyAgreementFailed
	// DecryptionFailed marks an AEAD tag mismatch or key-unwrap failure.
	DecryptionFailed
	// NoMatchingRecipient marks a JWE with no recipient entry matching the
	// supplied key or kid.
	NoMatchingRecipient
	// SignatureInvalid marks a JWS with zero verifiable signatures.
	SignatureInvalid
	// ResolverFailed marks a resolver that returned no key for a DID.
	ResolverFailed
	// DuplicateMessage marks a message id already seen by a replay cache.
	DuplicateMessage
)

//nolint:gochecknoglobals
var kindNames = map[Kind]string{
	Internal:                  "internal",
	MalformedEnvelope:         "malformed_envelope",
	UnsupportedAlgorithm:      "unsupported_algorithm",
	MissingEncryptionMetadata: "missing_encryption_metadata",
	ReservedHeader:            "reserved_header",
	KeyAgreementFailed:        "key_agreement_failed",
	DecryptionFailed:          "decryption_failed",
	NoMatchingRecipient:       "no_matching_recipient",
	SignatureInvalid:          "signature_invalid",
	ResolverFailed:            "resolver_failed",
	DuplicateMessage:          "duplicate_message",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}

	return "unknown"
}

// Error is the concrete error type returned by this module. It carries a
// stable Kind plus a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the wrapped cause, or nil. Mirrors github.com/pkg/errors'
// Cause() so callers used to that idiom can keep using it here.
func (e *Error) Cause() error {
	return e.cause
}

// New creates an Error of the given Kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given Kind wrapping cause. cause is attached
// with github.com/pkg/errors, which records a stack trace at the wrap site;
// formatting the Error itself prints the cause with %v only, so the trace
// shows when the cause (Cause/Unwrap) is formatted with %+v, which helps when a
// DecryptionFailed/KeyAgreementFailed surfaces from deep inside a
// multi-recipient unwrap loop.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return New(kind, message)
	}

	return &Error{Kind: kind, Message: message, cause: pkgerrors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}
