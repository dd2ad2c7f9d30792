// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package molecule

import (
	"encoding/binary"
)

// NumberSize - byte size of counts, offsets, total sizes and union tags
const NumberSize = 4

// PackUint32 - little endian encoding of a 32 bit unsigned integer
func PackUint32(value uint32) []byte {
	buffer := make([]byte, NumberSize)
	binary.LittleEndian.PutUint32(buffer, value)
	return buffer
}

// AppendUint32 - append a little endian 32 bit unsigned integer to a buffer
func AppendUint32(buffer []byte, value uint32) []byte {
	return append(buffer, PackUint32(value)...)
}

// PackBytes - count prefixed byte string
func PackBytes(data []byte) []byte {
	buffer := make([]byte, 0, NumberSize+len(data))
	buffer = AppendUint32(buffer, uint32(len(data)))
	return append(buffer, data...)
}

// PackFixVec - count prefixed concatenation of fixed size items
func PackFixVec(items [][]byte) []byte {
	size := NumberSize
	for _, item := range items {
		size += len(item)
	}
	buffer := make([]byte, 0, size)
	buffer = AppendUint32(buffer, uint32(len(items)))
	for _, item := range items {
		buffer = append(buffer, item...)
	}
	return buffer
}

// PackDynVec - total size, offset table with sentinel, then the item bodies
//
// a nil item is not allowed here: dynamic vector items are real values
// and always have non-zero width
func PackDynVec(items ...[]byte) []byte {
	return assemble(items)
}

// PackTable - same layout as a dynamic vector with the schema fixing
// the field arity
//
// a nil or empty field body is an absent option field
func PackTable(fields ...[]byte) []byte {
	return assemble(fields)
}

// PackUnion - variant tag followed by the variant body
func PackUnion(tag uint32, body []byte) []byte {
	buffer := make([]byte, 0, NumberSize+len(body))
	buffer = AppendUint32(buffer, tag)
	return append(buffer, body...)
}

// common layout for tables and dynamic vectors
func assemble(slots [][]byte) []byte {
	headerSize := NumberSize * (len(slots) + 2) // total size + offsets + sentinel
	totalSize := headerSize
	for _, slot := range slots {
		totalSize += len(slot)
	}

	buffer := make([]byte, 0, totalSize)
	buffer = AppendUint32(buffer, uint32(totalSize))

	offset := headerSize
	for _, slot := range slots {
		buffer = AppendUint32(buffer, uint32(offset))
		offset += len(slot)
	}
	buffer = AppendUint32(buffer, uint32(totalSize)) // sentinel

	for _, slot := range slots {
		buffer = append(buffer, slot...)
	}
	return buffer
}
