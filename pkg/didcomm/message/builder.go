/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"github.com/trustbloc/didcomm-go/pkg/didcomm/algorithm"
	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// StageOpt configures AsJWE.
type StageOpt func(*stageOpts)

type stageOpts struct {
	senderAuthenticated bool
}

// WithSenderAuthenticated opts into ECDH-1PU (sender-authenticated)
// encryption instead of anonymous ECDH-ES, when From is set. Without this
// option, a Message with From set still encrypts anonymously.
func WithSenderAuthenticated() StageOpt {
	return func(o *stageOpts) { o.senderAuthenticated = true }
}

// AsJWE stages this Message for JWE encryption: it selects and records the
// key-wrap algorithm ("alg") based on the recipient count and sender
// authentication opt-in, and records the content-encryption algorithm
// ("enc"). Must be called before Seal/SealCompact/SealSigned, and again
// before sealing to a different hop, since hops may use different
// algorithms.
func (m *Message) AsJWE(enc algorithm.ContentEnc, opts ...StageOpt) *Message {
	if m.checkMutable() != nil {
		return m
	}

	if _, err := algorithm.LookupContentEnc(enc); err != nil {
		m.stageErr = err
		return m
	}

	var so stageOpts
	for _, opt := range opts {
		opt(&so)
	}

	kwAlg := algorithm.SelectKeyWrapAlg(len(m.to), so.senderAuthenticated && m.from != "")

	m.jwmHeader.Alg = string(kwAlg)
	m.jwmHeader.Enc = string(enc)
	m.jwmHeader.Typ = EncryptedTyp
	m.stageErr = nil

	return m
}

// AsJWS stages this Message for JWS signing with the given signature
// algorithm.
func (m *Message) AsJWS(sigAlg algorithm.SigAlg) *Message {
	if m.checkMutable() != nil {
		return m
	}

	if _, err := algorithm.LookupSigAlg(sigAlg); err != nil {
		m.stageErr = err
		return m
	}

	m.jwmHeader.Alg = string(sigAlg)
	m.jwmHeader.Typ = SignedTyp
	m.stageErr = nil

	return m
}

// StageError returns the error, if any, recorded by the most recent AsJWE
// or AsJWS call (an unsupported algorithm). Seal* must check this before
// proceeding.
func (m *Message) StageError() error {
	return m.stageErr
}

// IsStagedJWE reports whether AsJWE has staged this message for
// encryption (both alg and enc are set), satisfying the precondition Seal*
// checks before producing output (MissingEncryptionMetadata otherwise).
func (m *Message) IsStagedJWE() bool {
	return m.jwmHeader.Alg != "" && m.jwmHeader.Enc != ""
}

// IsStagedJWS reports whether AsJWS has staged this message for signing.
func (m *Message) IsStagedJWS() bool {
	return m.jwmHeader.Alg != "" && m.jwmHeader.Enc == "" && m.jwmHeader.Typ == SignedTyp
}

// RequireStagedJWE returns MissingEncryptionMetadata unless AsJWE has
// already staged alg/enc.
func (m *Message) RequireStagedJWE() error {
	if err := m.StageError(); err != nil {
		return err
	}

	if !m.IsStagedJWE() {
		return didcommerr.New(didcommerr.MissingEncryptionMetadata,
			"Seal called without a prior AsJWE call to stage alg/enc")
	}

	return nil
}
