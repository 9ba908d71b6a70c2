/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import "math/big"

func bigFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}
