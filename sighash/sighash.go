// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sighash - signing message digests
//
// Computes the digest a seal authorises.  Each digest kind hashes
// under a distinct domain tag so a seal produced for one witness
// layout can never be replayed as another.
package sighash

import (
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/molecule"
	"github.com/ckb-collab/cobuild/packet"
)

// domain tags, one per digest kind
var (
	sighashTag = []byte("ckb-tcob-sighash")
	otxTag     = []byte("ckb-tcob-otxhash")
)

// TransactionHash - identity digest of a packed payload
func TransactionHash(payload *cell.Transaction) packet.Hash {
	return packet.Hash(blake2b.Sum256(payload.Pack()))
}

// ScriptInfoHash - the hash actions use to reference a script info
func ScriptInfoHash(info *packet.ScriptInfo) packet.Hash {
	return packet.Hash(blake2b.Sum256(info.Pack()))
}

// SighashAll - digest authorised by a whole-transaction seal
//
// covers the shared message, the payload identity, every consumed
// cell with its data, and any witnesses beyond the input range
func SighashAll(message *packet.Message, payload *cell.Transaction, resolved *packet.ResolvedInputs) (packet.Hash, error) {
	return wholeTransactionDigest(message, payload, resolved)
}

// SighashAllOnly - digest for the message-free whole-transaction seal
func SighashAllOnly(payload *cell.Transaction, resolved *packet.ResolvedInputs) (packet.Hash, error) {
	return wholeTransactionDigest(nil, payload, resolved)
}

func wholeTransactionDigest(message *packet.Message, payload *cell.Transaction, resolved *packet.ResolvedInputs) (packet.Hash, error) {

	if len(resolved.Outputs) != len(resolved.OutputsData) ||
		len(resolved.Outputs) != len(payload.Inputs) {
		return packet.Hash{}, fault.ErrResolvedInputsLength
	}

	hasher, err := blake2b.New256(nil)
	if nil != err {
		return packet.Hash{}, err
	}
	hasher.Write(sighashTag)

	if nil != message {
		packed, err := message.Pack()
		if nil != err {
			return packet.Hash{}, err
		}
		hasher.Write(packed)
	}

	txHash := TransactionHash(payload)
	hasher.Write(txHash[:])

	for i := range payload.Inputs {
		hasher.Write(resolved.Outputs[i])
		writeBytes(hasher, resolved.OutputsData[i])
	}

	// witnesses outside the input range are covered by the seal
	for i := len(payload.Inputs); i < len(payload.Witnesses); i += 1 {
		writeBytes(hasher, payload.Witnesses[i])
	}

	return digest(hasher), nil
}

// Otx - digest authorised by one open transaction segment's seals
//
// covers only the segment's own slice of the payload so later
// contributions cannot invalidate an earlier party's seal
func Otx(contribution *packet.Otx, payload *cell.Transaction, resolved *packet.ResolvedInputs) (packet.Hash, error) {

	if len(resolved.Outputs) != len(resolved.OutputsData) ||
		len(resolved.Outputs) != len(payload.Inputs) {
		return packet.Hash{}, fault.ErrResolvedInputsLength
	}

	inputEnd := contribution.FixedInputCells + contribution.DynamicInputCells
	outputEnd := contribution.FixedOutputCells + contribution.DynamicOutputCells
	cellDepEnd := contribution.FixedCellDeps + contribution.DynamicCellDeps
	headerDepEnd := contribution.FixedHeaderDeps + contribution.DynamicHeaderDeps

	if uint32(len(payload.Inputs)) < inputEnd ||
		uint32(len(payload.Outputs)) < outputEnd ||
		uint32(len(payload.OutputsData)) < outputEnd ||
		uint32(len(payload.CellDeps)) < cellDepEnd ||
		uint32(len(payload.HeaderDeps)) < headerDepEnd {
		return packet.Hash{}, fault.ErrPayloadLengthMismatch
	}

	hasher, err := blake2b.New256(nil)
	if nil != err {
		return packet.Hash{}, err
	}
	hasher.Write(otxTag)

	packed, err := contribution.Message.Pack()
	if nil != err {
		return packet.Hash{}, err
	}
	hasher.Write(packed)

	hasher.Write(molecule.PackUint32(contribution.DynamicInputCells))
	for i := contribution.FixedInputCells; i < inputEnd; i += 1 {
		hasher.Write(payload.Inputs[i][:])
		hasher.Write(resolved.Outputs[i])
		writeBytes(hasher, resolved.OutputsData[i])
	}

	hasher.Write(molecule.PackUint32(contribution.DynamicOutputCells))
	for i := contribution.FixedOutputCells; i < outputEnd; i += 1 {
		hasher.Write(payload.Outputs[i])
		writeBytes(hasher, payload.OutputsData[i])
	}

	hasher.Write(molecule.PackUint32(contribution.DynamicCellDeps))
	for i := contribution.FixedCellDeps; i < cellDepEnd; i += 1 {
		hasher.Write(payload.CellDeps[i][:])
	}

	hasher.Write(molecule.PackUint32(contribution.DynamicHeaderDeps))
	for i := contribution.FixedHeaderDeps; i < headerDepEnd; i += 1 {
		hasher.Write(payload.HeaderDeps[i][:])
	}

	return digest(hasher), nil
}

// length-prefix variable data so adjacent fields cannot alias
func writeBytes(hasher hash.Hash, data []byte) {
	hasher.Write(molecule.PackUint32(uint32(len(data))))
	hasher.Write(data)
}

func digest(hasher hash.Hash) packet.Hash {
	var result packet.Hash
	copy(result[:], hasher.Sum(nil))
	return result
}
