// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cell - ledger primitives consumed from the transaction model
//
// The building packet core transports these values and inspects their
// counts; it never interprets their contents.  The encodings here are
// the transaction model's own and are trusted as-is.
package cell

import (
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/molecule"
)

// byte sizes of the fixed ledger primitives
const (
	CellInputSize = 44 // out point (36) + since (8)
	CellDepSize   = 37 // out point (36) + dep type (1)
	HeaderDepSize = 32 // block hash
)

// CellInput - reference to a live cell being consumed
type CellInput [CellInputSize]byte

// CellDep - reference to a cell the transaction depends on
type CellDep [CellDepSize]byte

// HeaderDep - reference to a block header the transaction depends on
type HeaderDep [HeaderDepSize]byte

// CellOutput - an opaque cell output as encoded by the transaction model
type CellOutput []byte

// Transaction - the payload being incrementally extended
//
// only the element counts are significant to the building packet core;
// the elements themselves are opaque
type Transaction struct {
	Version     uint32       `json:"version"`
	CellDeps    []CellDep    `json:"cellDeps"`
	HeaderDeps  []HeaderDep  `json:"headerDeps"`
	Inputs      []CellInput  `json:"inputs"`
	Outputs     []CellOutput `json:"outputs"`
	OutputsData [][]byte     `json:"outputsData"`
	Witnesses   [][]byte     `json:"witnesses"`
}

// Packed - a packed transaction is just a byte slice
type Packed []byte

// Pack - canonical encoding of the transaction
//
// outer table of raw transaction and witnesses; the raw transaction is
// a table of version, cell deps, header deps, inputs, outputs and
// outputs data in that order
func (tx *Transaction) Pack() Packed {

	cellDeps := make([][]byte, len(tx.CellDeps))
	for i, dep := range tx.CellDeps {
		d := dep
		cellDeps[i] = d[:]
	}

	headerDeps := make([][]byte, len(tx.HeaderDeps))
	for i, dep := range tx.HeaderDeps {
		d := dep
		headerDeps[i] = d[:]
	}

	inputs := make([][]byte, len(tx.Inputs))
	for i, input := range tx.Inputs {
		in := input
		inputs[i] = in[:]
	}

	outputs := make([][]byte, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputs[i] = output
	}

	outputsData := make([][]byte, len(tx.OutputsData))
	for i, data := range tx.OutputsData {
		outputsData[i] = molecule.PackBytes(data)
	}

	raw := molecule.PackTable(
		molecule.PackUint32(tx.Version),
		molecule.PackFixVec(cellDeps),
		molecule.PackFixVec(headerDeps),
		molecule.PackFixVec(inputs),
		molecule.PackDynVec(outputs...),
		molecule.PackDynVec(outputsData...),
	)

	witnesses := make([][]byte, len(tx.Witnesses))
	for i, witness := range tx.Witnesses {
		witnesses[i] = molecule.PackBytes(witness)
	}

	return molecule.PackTable(raw, molecule.PackDynVec(witnesses...))
}

// Unpack - turn a byte slice back into a transaction
func (record Packed) Unpack() (*Transaction, error) {

	outer, err := molecule.Fields(record, 2)
	if nil != err {
		return nil, err
	}

	rawFields, err := molecule.Fields(outer[0], 6)
	if nil != err {
		return nil, err
	}

	version, err := molecule.Uint32(rawFields[0])
	if nil != err {
		return nil, err
	}

	packedCellDeps, err := molecule.FixVec(rawFields[1], CellDepSize)
	if nil != err {
		return nil, err
	}
	var cellDeps []CellDep
	if 0 != len(packedCellDeps) {
		cellDeps = make([]CellDep, len(packedCellDeps))
		for i, item := range packedCellDeps {
			copy(cellDeps[i][:], item)
		}
	}

	packedHeaderDeps, err := molecule.FixVec(rawFields[2], HeaderDepSize)
	if nil != err {
		return nil, err
	}
	var headerDeps []HeaderDep
	if 0 != len(packedHeaderDeps) {
		headerDeps = make([]HeaderDep, len(packedHeaderDeps))
		for i, item := range packedHeaderDeps {
			copy(headerDeps[i][:], item)
		}
	}

	packedInputs, err := molecule.FixVec(rawFields[3], CellInputSize)
	if nil != err {
		return nil, err
	}
	var inputs []CellInput
	if 0 != len(packedInputs) {
		inputs = make([]CellInput, len(packedInputs))
		for i, item := range packedInputs {
			copy(inputs[i][:], item)
		}
	}

	packedOutputs, err := molecule.Items(rawFields[4])
	if nil != err {
		return nil, err
	}
	var outputs []CellOutput
	if 0 != len(packedOutputs) {
		outputs = make([]CellOutput, len(packedOutputs))
		for i, item := range packedOutputs {
			outputs[i] = item
		}
	}

	packedOutputsData, err := molecule.Items(rawFields[5])
	if nil != err {
		return nil, err
	}
	var outputsData [][]byte
	if 0 != len(packedOutputsData) {
		outputsData = make([][]byte, len(packedOutputsData))
		for i, item := range packedOutputsData {
			data, err := molecule.Bytes(item)
			if nil != err {
				return nil, err
			}
			if 0 == len(data) {
				data = nil
			}
			outputsData[i] = data
		}
	}

	if len(outputs) != len(outputsData) {
		return nil, fault.ErrCountMismatch
	}

	packedWitnesses, err := molecule.Items(outer[1])
	if nil != err {
		return nil, err
	}
	var witnesses [][]byte
	if 0 != len(packedWitnesses) {
		witnesses = make([][]byte, len(packedWitnesses))
		for i, item := range packedWitnesses {
			witness, err := molecule.Bytes(item)
			if nil != err {
				return nil, err
			}
			if 0 == len(witness) {
				witness = nil
			}
			witnesses[i] = witness
		}
	}

	tx := &Transaction{
		Version:     version,
		CellDeps:    cellDeps,
		HeaderDeps:  headerDeps,
		Inputs:      inputs,
		Outputs:     outputs,
		OutputsData: outputsData,
		Witnesses:   witnesses,
	}
	return tx, nil
}
