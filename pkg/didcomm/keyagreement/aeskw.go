/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import (
	"crypto/aes"
	"crypto/subtle"
	"encoding/binary"

	"github.com/trustbloc/didcomm-go/pkg/didcommerr"
)

// defaultIV is the AES key-wrap default integrity check value from RFC
// 3394 §2.2.3.1.
//
//nolint:gochecknoglobals
var defaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

// aesKWWrap implements RFC 3394 AES Key Wrap: wraps plaintextKey (a
// multiple of 8 bytes) under kek. No third-party package in this module's
// dependency set implements AES-KW, so it is written directly against
// crypto/aes/cipher.Block.
func aesKWWrap(kek, plaintextKey []byte) ([]byte, error) {
	if len(plaintextKey)%8 != 0 || len(plaintextKey) == 0 {
		return nil, didcommerr.New(didcommerr.KeyAgreementFailed, "aes key wrap: key length must be a non-zero multiple of 8")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.KeyAgreementFailed, "aes key wrap: new cipher", err)
	}

	n := len(plaintextKey) / 8
	r := make([][8]byte, n)

	for i := 0; i < n; i++ {
		copy(r[i][:], plaintextKey[i*8:(i+1)*8])
	}

	a := defaultIV

	buf := make([]byte, 16)

	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf, buf)

			t := uint64(n*j + i)
			msb := binary.BigEndian.Uint64(buf[:8]) ^ t
			binary.BigEndian.PutUint64(a[:], msb)

			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(plaintextKey))
	copy(out[:8], a[:])

	for i := 0; i < n; i++ {
		copy(out[8+i*8:8+(i+1)*8], r[i][:])
	}

	return out, nil
}

// aesKWUnwrap is the inverse of aesKWWrap; it returns DecryptionFailed if
// the integrity check value doesn't match defaultIV after unwrapping.
func aesKWUnwrap(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped)%8 != 0 || len(wrapped) < 16 {
		return nil, didcommerr.New(didcommerr.DecryptionFailed, "aes key unwrap: malformed wrapped key length")
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, didcommerr.Wrap(didcommerr.DecryptionFailed, "aes key unwrap: new cipher", err)
	}

	n := len(wrapped)/8 - 1
	r := make([][8]byte, n)

	var a [8]byte
	copy(a[:], wrapped[:8])

	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}

	buf := make([]byte, 16)

	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			msb := binary.BigEndian.Uint64(a[:]) ^ t
			binary.BigEndian.PutUint64(buf[:8], msb)
			copy(buf[8:], r[i-1][:])

			block.Decrypt(buf, buf)

			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}

	if subtle.ConstantTimeCompare(a[:], defaultIV[:]) != 1 {
		return nil, didcommerr.New(didcommerr.DecryptionFailed, "aes key unwrap: integrity check failed")
	}

	out := make([]byte, 0, n*8)
	for i := 0; i < n; i++ {
		out = append(out, r[i][:]...)
	}

	return out, nil
}
