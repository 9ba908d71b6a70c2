/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import (
	"hash"
	"io"

	sha256simd "github.com/minio/sha256-simd"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// concatKDF implements Concat KDF (NIST SP 800-56A), reading derived key
// material round by round as io.Reader.Read is called: a round counter,
// then big-endian-length-prefixed AlgorithmID/PartyUInfo/PartyVInfo/
// SuppPubInfo fed into the hash for each round.
type concatKDF struct {
	h hash.Hash

	z, algID, apu, apv, suppPub []byte

	round uint32
	buf   []byte
	n     int
}

// newConcatKDF derives key material from z using AlgorithmID = algID,
// PartyUInfo = apu, PartyVInfo = apv, and SuppPubInfo = the requested key
// length in bits, encoded big-endian over 4 bytes, per RFC 7518 §4.6.
func newConcatKDF(z, algID, apu, apv []byte, keyDataLenBits int) *concatKDF {
	h := sha256simd.New()

	var pubInfo [4]byte
	pubInfo[0] = byte(keyDataLenBits >> 24)
	pubInfo[1] = byte(keyDataLenBits >> 16)
	pubInfo[2] = byte(keyDataLenBits >> 8)
	pubInfo[3] = byte(keyDataLenBits)

	return &concatKDF{
		h:       h,
		z:       z,
		algID:   algID,
		apu:     apu,
		apv:     apv,
		suppPub: pubInfo[:],
		buf:     make([]byte, h.Size()),
	}
}

func (k *concatKDF) Read(out []byte) (int, error) {
	if k.n == 0 {
		k.round++
		k.h.Reset()

		writeUint32(k.h, k.round)
		k.h.Write(k.z)
		writeLenPrefixed(k.h, k.algID)
		writeLenPrefixed(k.h, k.apu)
		writeLenPrefixed(k.h, k.apv)
		k.h.Write(k.suppPub)

		k.buf = k.h.Sum(k.buf[:0])
		k.n = len(k.buf)
	}

	n := copy(out, k.buf[len(k.buf)-k.n:])
	k.n -= n

	return n, nil
}

func writeUint32(h hash.Hash, v uint32) {
	var buf [4]byte
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
	h.Write(buf[:])
}

func writeLenPrefixed(h hash.Hash, v []byte) {
	writeUint32(h, uint32(len(v)))
	h.Write(v)
}

// deriveKW derives a key-wrap key of keyLenBytes from shared secret z, for
// the given algorithm identifier string and apu/apv (each raw bytes, not
// base64url-encoded; encoding happens only when the KDF output parameters
// are reflected into the wire protected header).
func deriveKW(z []byte, algID string, apu, apv []byte, keyLenBytes int) ([]byte, error) {
	kdf := newConcatKDF(z, []byte(algID), apu, apv, keyLenBytes*8)

	key := make([]byte, keyLenBytes)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "concat kdf", err)
	}

	return key, nil
}
