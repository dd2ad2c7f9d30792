// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package packet

import (
	"encoding/hex"

	"github.com/ckb-collab/cobuild/fault"
)

// HashSize - number of bytes in a hash
const HashSize = 32

// Hash - a script or script info identity
//
// no semantic interpretation beyond identity
// to convert to bytes just use h[:]
type Hash [HashSize]byte

// String - convert a binary hash to hex string for use by the fmt package (for %s)
func (hash Hash) String() string {
	return hex.EncodeToString(hash[:])
}

// GoString - convert a binary hash to hex string for use by the fmt package (for %#v)
func (hash Hash) GoString() string {
	return "<hash:" + hex.EncodeToString(hash[:]) + ">"
}

// MarshalText - convert hash to hex text
func (hash Hash) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(len(hash))
	buffer := make([]byte, size)
	hex.Encode(buffer, hash[:])
	return buffer, nil
}

// UnmarshalText - convert hex text into a hash
func (hash *Hash) UnmarshalText(s []byte) error {
	if HashSize != hex.DecodedLen(len(s)) {
		return fault.ErrSizeMismatch
	}
	buffer := make([]byte, hex.DecodedLen(len(s)))
	byteCount, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	copy(hash[:], buffer[:byteCount])
	return nil
}

// HashFromBytes - convert and validate a binary byte slice to a hash
func HashFromBytes(hash *Hash, buffer []byte) error {
	if HashSize != len(buffer) {
		return fault.ErrSizeMismatch
	}
	copy(hash[:], buffer)
	return nil
}
