// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package molecule_test

import (
	"bytes"
	"testing"

	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/molecule"
)

// an empty dynamic vector is exactly the total size followed by the
// sentinel offset
func TestPackEmptyDynVec(t *testing.T) {

	packed := molecule.PackDynVec()

	expected := []byte{
		0x08, 0x00, 0x00, 0x00, // total size = 8
		0x08, 0x00, 0x00, 0x00, // sentinel = 8
	}
	if !bytes.Equal(packed, expected) {
		t.Fatalf("pack empty vector: %x  expected: %x", packed, expected)
	}

	items, err := molecule.Items(packed)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if 0 != len(items) {
		t.Fatalf("unexpected items: %d", len(items))
	}
}

func TestPackDynVec(t *testing.T) {

	one := molecule.PackBytes([]byte{0x11})
	two := molecule.PackBytes([]byte{0x22, 0x33})

	packed := molecule.PackDynVec(one, two)

	expected := []byte{
		0x1b, 0x00, 0x00, 0x00, // total size = 27
		0x10, 0x00, 0x00, 0x00, // item 0 at 16
		0x15, 0x00, 0x00, 0x00, // item 1 at 21
		0x1b, 0x00, 0x00, 0x00, // sentinel = 27
		0x01, 0x00, 0x00, 0x00, 0x11,
		0x02, 0x00, 0x00, 0x00, 0x22, 0x33,
	}
	if !bytes.Equal(packed, expected) {
		t.Fatalf("pack vector: %x  expected: %x", packed, expected)
	}

	items, err := molecule.Items(packed)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if 2 != len(items) {
		t.Fatalf("unexpected item count: %d", len(items))
	}
	if !bytes.Equal(items[0], one) || !bytes.Equal(items[1], two) {
		t.Fatalf("items do not round trip: %x %x", items[0], items[1])
	}
}

func TestPackTableWithAbsentOption(t *testing.T) {

	first := molecule.PackUint32(42)
	packed := molecule.PackTable(first, nil, molecule.PackBytes(nil))

	fields, err := molecule.Fields(packed, 3)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if 0 != len(fields[1]) {
		t.Fatalf("option field not collapsed: %x", fields[1])
	}
	value, err := molecule.Uint32(fields[0])
	if nil != err {
		t.Fatalf("field decode error: %s", err)
	}
	if 42 != value {
		t.Fatalf("field value: %d  expected: 42", value)
	}
	data, err := molecule.Bytes(fields[2])
	if nil != err {
		t.Fatalf("field decode error: %s", err)
	}
	if 0 != len(data) {
		t.Fatalf("unexpected data: %x", data)
	}

	// arity is fixed by the schema so a different arity must fail
	_, err = molecule.Fields(packed, 4)
	if fault.ErrCountMismatch != err {
		t.Fatalf("arity mismatch error: %v  expected: %v", err, fault.ErrCountMismatch)
	}
}

func TestFixVec(t *testing.T) {

	items := [][]byte{
		{0x01, 0x02, 0x03},
		{0x04, 0x05, 0x06},
	}
	packed := molecule.PackFixVec(items)

	expected := []byte{
		0x02, 0x00, 0x00, 0x00,
		0x01, 0x02, 0x03,
		0x04, 0x05, 0x06,
	}
	if !bytes.Equal(packed, expected) {
		t.Fatalf("pack fixvec: %x  expected: %x", packed, expected)
	}

	unpacked, err := molecule.FixVec(packed, 3)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if 2 != len(unpacked) {
		t.Fatalf("unexpected item count: %d", len(unpacked))
	}

	// wrong item size
	_, err = molecule.FixVec(packed, 4)
	if fault.ErrCountMismatch != err {
		t.Fatalf("size mismatch error: %v  expected: %v", err, fault.ErrCountMismatch)
	}
}

func TestBytesErrors(t *testing.T) {

	// declared length beyond available bytes
	_, err := molecule.Bytes([]byte{0x05, 0x00, 0x00, 0x00, 0x01})
	if fault.ErrLengthMismatch != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrLengthMismatch)
	}

	// extra bytes after the declared length
	_, err = molecule.Bytes([]byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x02})
	if fault.ErrTrailingBytes != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrTrailingBytes)
	}
}

// the total size header must equal the actual byte length
func TestTotalSizeMismatch(t *testing.T) {

	packed := molecule.PackDynVec(molecule.PackBytes([]byte{0x11}))
	packed[0] += 1

	_, err := molecule.Items(packed)
	if fault.ErrTotalSizeMismatch != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrTotalSizeMismatch)
	}
}

// bumping any offset in a valid encoding must fail the decode
func TestOffsetMutation(t *testing.T) {

	one := molecule.PackBytes([]byte{0x11})
	two := molecule.PackBytes([]byte{0x22, 0x33})
	packed := molecule.PackDynVec(one, two)

	// offsets start after the total size header
	for i := molecule.NumberSize; i < 4*molecule.NumberSize; i += molecule.NumberSize {
		mutated := make([]byte, len(packed))
		copy(mutated, packed)
		mutated[i] += 1

		items, err := molecule.Items(mutated)
		if nil == err {
			// the vector frame may still parse, but the shifted
			// item must no longer decode as a byte string
			ok := true
			for _, item := range items {
				if _, e := molecule.Bytes(item); nil != e {
					ok = false
					break
				}
			}
			if ok {
				t.Fatalf("offset %d: mutation silently accepted", i)
			}
		}
	}
}

// decreasing offsets must be detected
func TestOffsetNotMonotonic(t *testing.T) {

	one := molecule.PackBytes([]byte{0x11})
	two := molecule.PackBytes([]byte{0x22, 0x33})
	packed := molecule.PackDynVec(one, two)

	// swap the two item offsets
	mutated := make([]byte, len(packed))
	copy(mutated, packed)
	copy(mutated[4:8], packed[8:12])
	copy(mutated[8:12], packed[4:8])

	_, err := molecule.Items(mutated)
	if fault.ErrOffsetNotMonotonic != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrOffsetNotMonotonic)
	}
}

// every truncated prefix must fail, never panic
func TestTruncation(t *testing.T) {

	one := molecule.PackBytes([]byte{0x11})
	two := molecule.PackBytes([]byte{0x22, 0x33})
	samples := [][]byte{
		molecule.PackDynVec(one, two),
		molecule.PackTable(molecule.PackUint32(7), nil, one),
		molecule.PackBytes([]byte{0x01, 0x02, 0x03}),
		molecule.PackFixVec([][]byte{{0x01}, {0x02}}),
	}

	for i, sample := range samples {
		for n := 0; n < len(sample); n += 1 {
			if _, err := molecule.Items(sample[:n]); nil == err {
				t.Errorf("%d: truncated at %d accepted as dynvec", i, n)
			}
			if _, err := molecule.Fields(sample[:n], 3); nil == err {
				t.Errorf("%d: truncated at %d accepted as table", i, n)
			}
		}
	}
}

func TestUnion(t *testing.T) {

	body := molecule.PackBytes([]byte{0xaa})
	packed := molecule.PackUnion(0xff000001, body)

	tag, unpacked, err := molecule.Union(packed)
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if 0xff000001 != tag {
		t.Fatalf("tag: %08x  expected: ff000001", tag)
	}
	if !bytes.Equal(unpacked, body) {
		t.Fatalf("body does not round trip: %x", unpacked)
	}

	_, _, err = molecule.Union([]byte{0x01, 0x02})
	if fault.ErrTruncatedBody != err {
		t.Fatalf("error: %v  expected: %v", err, fault.ErrTruncatedBody)
	}
}
