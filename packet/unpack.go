// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package packet

import (
	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/molecule"
)

// UnpackWitness - turn a byte slice into one of the witness variants
//
// must cast result to correct type
//
// e.g.
//   otx, ok := result.(*packet.Otx)
// or:
//   switch w := result.(type) {
//   case *packet.OtxStart:
func (record Packed) UnpackWitness() (Witness, error) {

	tag, body, err := molecule.Union(record)
	if nil != err {
		return nil, err
	}

	switch tag {
	case SighashAllTag:
		return UnpackSighashAll(body)

	case SighashAllOnlyTag:
		return UnpackSighashAllOnly(body)

	case OtxTag:
		return UnpackOtx(body)

	case OtxStartTag:
		return UnpackOtxStart(body)

	default:
		// unknown future variants are a hard failure, not an
		// ignorable field
		return nil, fault.ErrUnknownVariant
	}
}

// UnpackBuildingPacket - turn a byte slice into a building packet
func (record Packed) UnpackBuildingPacket() (BuildingPacket, error) {

	tag, body, err := molecule.Union(record)
	if nil != err {
		return nil, err
	}

	switch tag {
	case BuildingPacketV1Tag:
		return UnpackBuildingPacketV1(body)

	default:
		return nil, fault.ErrUnknownVariant
	}
}

// UnpackAction - decode a single action
func UnpackAction(buffer []byte) (*Action, error) {

	fields, err := molecule.Fields(buffer, 4)
	if nil != err {
		return nil, err
	}

	action := &Action{}

	if err := HashFromBytes(&action.ScriptInfoHash, fields[0]); nil != err {
		return nil, err
	}

	scriptType, err := molecule.Byte(fields[1])
	if nil != err {
		return nil, err
	}
	if scriptType > byte(OutputProxy) {
		return nil, fault.ErrUnknownVariant
	}
	action.ScriptType = ScriptType(scriptType)

	if err := HashFromBytes(&action.ScriptHash, fields[2]); nil != err {
		return nil, err
	}

	data, err := molecule.Bytes(fields[3])
	if nil != err {
		return nil, err
	}
	action.Data = normalise(data)

	return action, nil
}

// UnpackMessage - decode a message preserving action order
func UnpackMessage(buffer []byte) (*Message, error) {

	fields, err := molecule.Fields(buffer, 1)
	if nil != err {
		return nil, err
	}

	actions, err := unpackActions(fields[0])
	if nil != err {
		return nil, err
	}
	return &Message{Actions: actions}, nil
}

// UnpackScriptInfo - decode a script info
func UnpackScriptInfo(buffer []byte) (*ScriptInfo, error) {

	fields, err := molecule.Fields(buffer, 5)
	if nil != err {
		return nil, err
	}

	info := &ScriptInfo{}

	name, err := molecule.Bytes(fields[0])
	if nil != err {
		return nil, err
	}
	info.Name = string(name)

	url, err := molecule.Bytes(fields[1])
	if nil != err {
		return nil, err
	}
	info.Url = string(url)

	if err := HashFromBytes(&info.ScriptHash, fields[2]); nil != err {
		return nil, err
	}

	schema, err := molecule.Bytes(fields[3])
	if nil != err {
		return nil, err
	}
	info.Schema = string(schema)

	messageType, err := molecule.Bytes(fields[4])
	if nil != err {
		return nil, err
	}
	info.MessageType = string(messageType)

	return info, nil
}

// UnpackResolvedInputs - decode resolved inputs
func UnpackResolvedInputs(buffer []byte) (*ResolvedInputs, error) {

	fields, err := molecule.Fields(buffer, 2)
	if nil != err {
		return nil, err
	}

	packedOutputs, err := molecule.Items(fields[0])
	if nil != err {
		return nil, err
	}

	packedOutputsData, err := molecule.Items(fields[1])
	if nil != err {
		return nil, err
	}

	// positional pairing
	if len(packedOutputs) != len(packedOutputsData) {
		return nil, fault.ErrCountMismatch
	}

	resolved := &ResolvedInputs{}
	if 0 != len(packedOutputs) {
		resolved.Outputs = make([]cell.CellOutput, len(packedOutputs))
		resolved.OutputsData = make([][]byte, len(packedOutputsData))
		for i, item := range packedOutputs {
			resolved.Outputs[i] = cell.CellOutput(item)
		}
		for i, item := range packedOutputsData {
			data, err := molecule.Bytes(item)
			if nil != err {
				return nil, err
			}
			resolved.OutputsData[i] = normalise(data)
		}
	}
	return resolved, nil
}

// UnpackSealPair - decode a seal pair
func UnpackSealPair(buffer []byte) (*SealPair, error) {

	fields, err := molecule.Fields(buffer, 2)
	if nil != err {
		return nil, err
	}

	pair := &SealPair{}
	if err := HashFromBytes(&pair.ScriptHash, fields[0]); nil != err {
		return nil, err
	}

	seal, err := molecule.Bytes(fields[1])
	if nil != err {
		return nil, err
	}
	pair.Seal = normalise(seal)

	return pair, nil
}

// UnpackSighashAll - decode a sighash all witness body
func UnpackSighashAll(buffer []byte) (*SighashAll, error) {

	fields, err := molecule.Fields(buffer, 2)
	if nil != err {
		return nil, err
	}

	message, err := UnpackMessage(fields[0])
	if nil != err {
		return nil, err
	}

	seal, err := molecule.Bytes(fields[1])
	if nil != err {
		return nil, err
	}

	return &SighashAll{Message: *message, Seal: normalise(seal)}, nil
}

// UnpackSighashAllOnly - decode a seal-only witness body
func UnpackSighashAllOnly(buffer []byte) (*SighashAllOnly, error) {

	fields, err := molecule.Fields(buffer, 1)
	if nil != err {
		return nil, err
	}

	seal, err := molecule.Bytes(fields[0])
	if nil != err {
		return nil, err
	}

	return &SighashAllOnly{Seal: normalise(seal)}, nil
}

// UnpackOtxStart - decode an open transaction start checkpoint body
func UnpackOtxStart(buffer []byte) (*OtxStart, error) {

	fields, err := molecule.Fields(buffer, 4)
	if nil != err {
		return nil, err
	}

	record := &OtxStart{}
	counters := []*uint32{
		&record.StartInputCell,
		&record.StartOutputCell,
		&record.StartCellDeps,
		&record.StartHeaderDeps,
	}
	for i, counter := range counters {
		value, err := molecule.Uint32(fields[i])
		if nil != err {
			return nil, err
		}
		*counter = value
	}
	return record, nil
}

// UnpackOtx - decode an open transaction segment body
func UnpackOtx(buffer []byte) (*Otx, error) {

	fields, err := molecule.Fields(buffer, 11)
	if nil != err {
		return nil, err
	}

	flag, err := molecule.Byte(fields[0])
	if nil != err {
		return nil, err
	}
	record := &Otx{Flag: OtxFlag(flag)}
	if !record.Flag.IsValid() {
		return nil, fault.ErrUnknownFlag
	}

	counters := []struct {
		counter *uint32
		field   int
	}{
		{&record.FixedInputCells, 1},
		{&record.FixedOutputCells, 2},
		{&record.FixedCellDeps, 3},
		{&record.FixedHeaderDeps, 4},
		{&record.DynamicInputCells, 6},
		{&record.DynamicOutputCells, 7},
		{&record.DynamicCellDeps, 8},
		{&record.DynamicHeaderDeps, 9},
	}
	for _, item := range counters {
		value, err := molecule.Uint32(fields[item.field])
		if nil != err {
			return nil, err
		}
		*item.counter = value
	}

	message, err := UnpackMessage(fields[5])
	if nil != err {
		return nil, err
	}
	record.Message = *message

	packedSeals, err := molecule.Items(fields[10])
	if nil != err {
		return nil, err
	}
	if 0 != len(packedSeals) {
		record.Seals = make([]*SealPair, len(packedSeals))
		for i, item := range packedSeals {
			pair, err := UnpackSealPair(item)
			if nil != err {
				return nil, err
			}
			record.Seals[i] = pair
		}
	}

	return record, nil
}

// UnpackBuildingPacketV1 - decode a version one building packet body
//
// the decoded value must satisfy the packet invariants: resolved
// inputs pair with payload inputs and the change output, when present,
// indexes a payload output
func UnpackBuildingPacketV1(buffer []byte) (*BuildingPacketV1, error) {

	fields, err := molecule.Fields(buffer, 6)
	if nil != err {
		return nil, err
	}

	message, err := UnpackMessage(fields[0])
	if nil != err {
		return nil, err
	}

	payload, err := cell.Packed(fields[1]).Unpack()
	if nil != err {
		return nil, err
	}

	resolved, err := UnpackResolvedInputs(fields[2])
	if nil != err {
		return nil, err
	}

	record := &BuildingPacketV1{
		Message:        *message,
		Payload:        payload,
		ResolvedInputs: *resolved,
	}

	// absent option collapses to zero width
	if 0 != len(fields[3]) {
		index, err := molecule.Uint32(fields[3])
		if nil != err {
			return nil, err
		}
		record.ChangeOutput = &index
	}

	packedInfos, err := molecule.Items(fields[4])
	if nil != err {
		return nil, err
	}
	if 0 != len(packedInfos) {
		record.ScriptInfos = make([]*ScriptInfo, len(packedInfos))
		for i, item := range packedInfos {
			info, err := UnpackScriptInfo(item)
			if nil != err {
				return nil, err
			}
			record.ScriptInfos[i] = info
		}
	}

	record.LockActions, err = unpackActions(fields[5])
	if nil != err {
		return nil, err
	}

	if len(record.ResolvedInputs.Outputs) != len(payload.Inputs) {
		return nil, fault.ErrResolvedInputsLength
	}
	if nil != record.ChangeOutput && int(*record.ChangeOutput) >= len(payload.Outputs) {
		return nil, fault.ErrOutputIndexOutOfRange
	}

	return record, nil
}

// decode an action vector preserving order
func unpackActions(buffer []byte) ([]*Action, error) {

	items, err := molecule.Items(buffer)
	if nil != err {
		return nil, err
	}
	if 0 == len(items) {
		return nil, nil
	}

	actions := make([]*Action, len(items))
	for i, item := range items {
		action, err := UnpackAction(item)
		if nil != err {
			return nil, err
		}
		actions[i] = action
	}
	return actions, nil
}

// zero length byte strings decode as nil for stable comparisons
func normalise(data []byte) []byte {
	if 0 == len(data) {
		return nil
	}
	return data
}
