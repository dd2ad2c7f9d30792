// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package molecule

import (
	"encoding/binary"

	"github.com/ckb-collab/cobuild/fault"
)

// Uint32 - decode an exact little endian 32 bit unsigned integer
func Uint32(buffer []byte) (uint32, error) {
	if len(buffer) < NumberSize {
		return 0, fault.ErrSizeMismatch
	}
	if len(buffer) > NumberSize {
		return 0, fault.ErrTrailingBytes
	}
	return binary.LittleEndian.Uint32(buffer), nil
}

// Byte - decode an exact single byte
func Byte(buffer []byte) (byte, error) {
	if len(buffer) < 1 {
		return 0, fault.ErrSizeMismatch
	}
	if len(buffer) > 1 {
		return 0, fault.ErrTrailingBytes
	}
	return buffer[0], nil
}

// FixedBytes - decode an exact fixed size array
func FixedBytes(buffer []byte, size int) ([]byte, error) {
	if len(buffer) < size {
		return nil, fault.ErrSizeMismatch
	}
	if len(buffer) > size {
		return nil, fault.ErrTrailingBytes
	}
	return buffer, nil
}

// Bytes - decode a count prefixed byte string
func Bytes(buffer []byte) ([]byte, error) {
	if len(buffer) < NumberSize {
		return nil, fault.ErrTruncatedBody
	}
	count := int(binary.LittleEndian.Uint32(buffer))
	if len(buffer)-NumberSize < count {
		return nil, fault.ErrLengthMismatch
	}
	if len(buffer)-NumberSize > count {
		return nil, fault.ErrTrailingBytes
	}
	return buffer[NumberSize:], nil
}

// FixVec - decode a count prefixed vector of fixed size items
func FixVec(buffer []byte, itemSize int) ([][]byte, error) {
	if len(buffer) < NumberSize {
		return nil, fault.ErrTruncatedBody
	}
	count := int(binary.LittleEndian.Uint32(buffer))
	if len(buffer)-NumberSize != count*itemSize {
		return nil, fault.ErrCountMismatch
	}
	items := make([][]byte, count)
	n := NumberSize
	for i := 0; i < count; i += 1 {
		items[i] = buffer[n : n+itemSize]
		n += itemSize
	}
	return items, nil
}

// Items - decode a dynamic vector returning one slice per item
//
// item bodies always have non-zero width so the offsets must strictly
// increase; an empty vector is the eight byte total size + sentinel form
func Items(buffer []byte) ([][]byte, error) {
	offsets, err := slots(buffer)
	if nil != err {
		return nil, err
	}

	itemCount := len(offsets) - 1 // last slot is the sentinel
	items := make([][]byte, itemCount)
	for i := 0; i < itemCount; i += 1 {
		if offsets[i+1] <= offsets[i] {
			return nil, fault.ErrOffsetNotMonotonic
		}
		items[i] = buffer[offsets[i]:offsets[i+1]]
	}
	return items, nil
}

// Fields - decode a table returning one slice per field
//
// the schema fixes the field arity; a zero width field is an absent
// option value
func Fields(buffer []byte, arity int) ([][]byte, error) {
	offsets, err := slots(buffer)
	if nil != err {
		return nil, err
	}
	if len(offsets)-1 != arity {
		return nil, fault.ErrCountMismatch
	}

	fields := make([][]byte, arity)
	for i := 0; i < arity; i += 1 {
		fields[i] = buffer[offsets[i]:offsets[i+1]]
	}
	return fields, nil
}

// Union - split a union into its variant tag and body
func Union(buffer []byte) (uint32, []byte, error) {
	if len(buffer) < NumberSize {
		return 0, nil, fault.ErrTruncatedBody
	}
	return binary.LittleEndian.Uint32(buffer), buffer[NumberSize:], nil
}

// read and verify the offset table shared by tables and dynamic vectors
//
// the returned offsets include the sentinel and are verified to be
// non-decreasing, within bounds and ending exactly at the total size
func slots(buffer []byte) ([]int, error) {
	if len(buffer) < 2*NumberSize {
		return nil, fault.ErrTruncatedBody
	}

	totalSize := int(binary.LittleEndian.Uint32(buffer))
	if totalSize != len(buffer) {
		return nil, fault.ErrTotalSizeMismatch
	}

	first := int(binary.LittleEndian.Uint32(buffer[NumberSize:]))
	if first < 2*NumberSize || 0 != (first-NumberSize)%NumberSize {
		return nil, fault.ErrOffsetNotMonotonic
	}
	if first > totalSize {
		return nil, fault.ErrTruncatedBody
	}

	slotCount := (first - NumberSize) / NumberSize
	offsets := make([]int, slotCount)
	previous := 0
	for i := 0; i < slotCount; i += 1 {
		offset := int(binary.LittleEndian.Uint32(buffer[NumberSize*(i+1):]))
		if offset < previous {
			return nil, fault.ErrOffsetNotMonotonic
		}
		if offset > totalSize {
			return nil, fault.ErrTruncatedBody
		}
		offsets[i] = offset
		previous = offset
	}

	// the sentinel must close the value exactly
	sentinel := offsets[slotCount-1]
	if sentinel < totalSize {
		return nil, fault.ErrTrailingBytes
	}
	return offsets, nil
}
