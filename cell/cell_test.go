// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cell_test

import (
	"reflect"
	"testing"

	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/molecule"
)

// a minimal output: opaque, but must be some valid table frame
func makeOutput(capacity uint32) cell.CellOutput {
	return cell.CellOutput(molecule.PackTable(
		molecule.PackUint32(capacity),
		molecule.PackBytes([]byte("lock")),
		nil,
	))
}

func TestPackTransaction(t *testing.T) {

	input := cell.CellInput{}
	input[0] = 0x01

	dep := cell.CellDep{}
	dep[0] = 0x02

	header := cell.HeaderDep{}
	header[0] = 0x03

	tx := &cell.Transaction{
		Version:     0,
		CellDeps:    []cell.CellDep{dep},
		HeaderDeps:  []cell.HeaderDep{header},
		Inputs:      []cell.CellInput{input},
		Outputs:     []cell.CellOutput{makeOutput(1000), makeOutput(2000)},
		OutputsData: [][]byte{{0xaa}, nil},
		Witnesses:   [][]byte{{0x01, 0x02}},
	}

	packed := tx.Pack()

	unpacked, err := packed.Unpack()
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if !reflect.DeepEqual(tx, unpacked) {
		t.Fatalf("transaction does not round trip\npacked:   %#v\nunpacked: %#v", tx, unpacked)
	}

	// counts drive the merge validation
	if 1 != len(unpacked.Inputs) || 2 != len(unpacked.Outputs) ||
		1 != len(unpacked.CellDeps) || 1 != len(unpacked.HeaderDeps) {
		t.Fatalf("unexpected counts: %d %d %d %d",
			len(unpacked.Inputs), len(unpacked.Outputs),
			len(unpacked.CellDeps), len(unpacked.HeaderDeps))
	}
}

func TestPackEmptyTransaction(t *testing.T) {

	tx := &cell.Transaction{}

	unpacked, err := tx.Pack().Unpack()
	if nil != err {
		t.Fatalf("unpack error: %s", err)
	}
	if 0 != len(unpacked.Inputs) || 0 != len(unpacked.Outputs) ||
		0 != len(unpacked.CellDeps) || 0 != len(unpacked.HeaderDeps) ||
		0 != len(unpacked.Witnesses) {
		t.Fatalf("empty transaction unpacked with elements: %#v", unpacked)
	}
}

// decode must fail, never panic, on truncated prefixes
func TestTruncatedTransaction(t *testing.T) {

	tx := &cell.Transaction{
		Inputs:      []cell.CellInput{{}},
		Outputs:     []cell.CellOutput{makeOutput(500)},
		OutputsData: [][]byte{{0x01}},
	}
	packed := tx.Pack()

	for n := 0; n < len(packed); n += 1 {
		if _, err := packed[:n].Unpack(); nil == err {
			t.Errorf("truncated at %d silently accepted", n)
		}
	}
}
