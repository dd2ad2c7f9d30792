// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package packet

import (
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/molecule"
)

// Pack - canonical encoding of an action
//
// table of script info hash, script type, script hash and data
func (action *Action) Pack() (Packed, error) {
	if action.ScriptType > OutputProxy {
		return nil, fault.ErrUnknownVariant
	}
	return molecule.PackTable(
		action.ScriptInfoHash[:],
		[]byte{byte(action.ScriptType)},
		action.ScriptHash[:],
		molecule.PackBytes(action.Data),
	), nil
}

// Pack - canonical encoding of a message
//
// single field table holding the action vector; action order is
// preserved exactly
func (message *Message) Pack() (Packed, error) {
	actions, err := packActions(message.Actions)
	if nil != err {
		return nil, err
	}
	return molecule.PackTable(actions), nil
}

// Pack - canonical encoding of a script info
func (info *ScriptInfo) Pack() Packed {
	return molecule.PackTable(
		molecule.PackBytes([]byte(info.Name)),
		molecule.PackBytes([]byte(info.Url)),
		info.ScriptHash[:],
		molecule.PackBytes([]byte(info.Schema)),
		molecule.PackBytes([]byte(info.MessageType)),
	)
}

// Pack - canonical encoding of resolved inputs
//
// outputs and outputs data must pair positionally
func (resolved *ResolvedInputs) Pack() (Packed, error) {
	if len(resolved.Outputs) != len(resolved.OutputsData) {
		return nil, fault.ErrResolvedInputsLength
	}

	outputs := make([][]byte, len(resolved.Outputs))
	for i, output := range resolved.Outputs {
		outputs[i] = output
	}

	outputsData := make([][]byte, len(resolved.OutputsData))
	for i, data := range resolved.OutputsData {
		outputsData[i] = molecule.PackBytes(data)
	}

	return molecule.PackTable(
		molecule.PackDynVec(outputs...),
		molecule.PackDynVec(outputsData...),
	), nil
}

// Pack - canonical encoding of a seal pair
func (seal *SealPair) Pack() Packed {
	return molecule.PackTable(
		seal.ScriptHash[:],
		molecule.PackBytes(seal.Seal),
	)
}

// Pack - canonical encoding of a sighash all witness
func (record *SighashAll) Pack() (Packed, error) {
	message, err := record.Message.Pack()
	if nil != err {
		return nil, err
	}
	return molecule.PackTable(message, molecule.PackBytes(record.Seal)), nil
}

// PackWitness - wrap in the witness layout union
func (record *SighashAll) PackWitness() (Packed, error) {
	body, err := record.Pack()
	if nil != err {
		return nil, err
	}
	return molecule.PackUnion(SighashAllTag, body), nil
}

// Pack - canonical encoding of a seal-only witness
func (record *SighashAllOnly) Pack() (Packed, error) {
	return molecule.PackTable(molecule.PackBytes(record.Seal)), nil
}

// PackWitness - wrap in the witness layout union
func (record *SighashAllOnly) PackWitness() (Packed, error) {
	body, err := record.Pack()
	if nil != err {
		return nil, err
	}
	return molecule.PackUnion(SighashAllOnlyTag, body), nil
}

// Pack - canonical encoding of an open transaction start checkpoint
func (record *OtxStart) Pack() (Packed, error) {
	return molecule.PackTable(
		molecule.PackUint32(record.StartInputCell),
		molecule.PackUint32(record.StartOutputCell),
		molecule.PackUint32(record.StartCellDeps),
		molecule.PackUint32(record.StartHeaderDeps),
	), nil
}

// PackWitness - wrap in the witness layout union
func (record *OtxStart) PackWitness() (Packed, error) {
	body, err := record.Pack()
	if nil != err {
		return nil, err
	}
	return molecule.PackUnion(OtxStartTag, body), nil
}

// Pack - canonical encoding of an open transaction segment
//
// flag first, then the fixed counters, message, dynamic counters and
// seals in schema order
func (record *Otx) Pack() (Packed, error) {
	if !record.Flag.IsValid() {
		return nil, fault.ErrUnknownFlag
	}

	message, err := record.Message.Pack()
	if nil != err {
		return nil, err
	}

	seals := make([][]byte, len(record.Seals))
	for i, seal := range record.Seals {
		seals[i] = seal.Pack()
	}

	return molecule.PackTable(
		[]byte{byte(record.Flag)},
		molecule.PackUint32(record.FixedInputCells),
		molecule.PackUint32(record.FixedOutputCells),
		molecule.PackUint32(record.FixedCellDeps),
		molecule.PackUint32(record.FixedHeaderDeps),
		message,
		molecule.PackUint32(record.DynamicInputCells),
		molecule.PackUint32(record.DynamicOutputCells),
		molecule.PackUint32(record.DynamicCellDeps),
		molecule.PackUint32(record.DynamicHeaderDeps),
		molecule.PackDynVec(seals...),
	), nil
}

// PackWitness - wrap in the witness layout union
func (record *Otx) PackWitness() (Packed, error) {
	body, err := record.Pack()
	if nil != err {
		return nil, err
	}
	return molecule.PackUnion(OtxTag, body), nil
}

// Pack - canonical encoding of a version one building packet
//
// the change output, when present, must index a payload output and the
// resolved inputs must pair with the payload inputs
func (record *BuildingPacketV1) Pack() (Packed, error) {
	if nil == record.Payload {
		return nil, fault.ErrPayloadLengthMismatch
	}
	if len(record.ResolvedInputs.Outputs) != len(record.Payload.Inputs) {
		return nil, fault.ErrResolvedInputsLength
	}
	if nil != record.ChangeOutput && int(*record.ChangeOutput) >= len(record.Payload.Outputs) {
		return nil, fault.ErrOutputIndexOutOfRange
	}

	message, err := record.Message.Pack()
	if nil != err {
		return nil, err
	}

	resolved, err := record.ResolvedInputs.Pack()
	if nil != err {
		return nil, err
	}

	var changeOutput []byte // absent option is zero width
	if nil != record.ChangeOutput {
		changeOutput = molecule.PackUint32(*record.ChangeOutput)
	}

	scriptInfos := make([][]byte, len(record.ScriptInfos))
	for i, info := range record.ScriptInfos {
		scriptInfos[i] = info.Pack()
	}

	lockActions, err := packActions(record.LockActions)
	if nil != err {
		return nil, err
	}

	return molecule.PackTable(
		message,
		record.Payload.Pack(),
		resolved,
		changeOutput,
		molecule.PackDynVec(scriptInfos...),
		lockActions,
	), nil
}

// PackBuildingPacket - wrap in the building packet union
func (record *BuildingPacketV1) PackBuildingPacket() (Packed, error) {
	body, err := record.Pack()
	if nil != err {
		return nil, err
	}
	return molecule.PackUnion(BuildingPacketV1Tag, body), nil
}

// pack an action vector preserving order
func packActions(actions []*Action) ([]byte, error) {
	items := make([][]byte, len(actions))
	for i, action := range actions {
		packed, err := action.Pack()
		if nil != err {
			return nil, err
		}
		items[i] = packed
	}
	return molecule.PackDynVec(items...), nil
}
