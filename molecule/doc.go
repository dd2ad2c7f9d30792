// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package molecule - canonical binary framing primitives
//
// Every value has exactly one byte representation and the decoders
// reject everything else:
//
//   fixed array    N raw bytes, no header
//   byte string    uint32 count ‖ raw bytes
//   fixed vector   uint32 count ‖ fixed size items
//   dynamic vector uint32 total size ‖ offsets ‖ sentinel ‖ bodies
//   table          same as dynamic vector, arity fixed by the schema
//   option         absent is zero bytes, present is the bare inner value
//   union          uint32 tag ‖ variant body
//
// All integers are little endian.  Offsets are measured from the start
// of the value; the sentinel offset equals the total size so the first
// offset fixes the slot count as (first − 4) / 4, one slot per item
// plus the sentinel.
package molecule
