// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package packet - the building packet entity model
//
// Typed in-memory representation of every entity exchanged between the
// contributing parties, with its canonical packed form.  All entities
// are immutable once constructed: a change is a new value, never an
// in-place mutation, because entities are shared across parties.
package packet

import (
	"github.com/ckb-collab/cobuild/cell"
)

// ScriptType - which script position an action addresses
type ScriptType byte

// the closed set of script types
// unknown values are a decode error, never silently accepted
const (
	InputLock   ScriptType = 0
	InputProxy  ScriptType = 1
	OutputProxy ScriptType = 2
)

// union variant tags
//
// the witness tags sit in a high reserved range so a plain data witness
// can never be mistaken for a witness layout
const (
	BuildingPacketV1Tag uint32 = 0x00000000
	SighashAllTag       uint32 = 0xff000001
	SighashAllOnlyTag   uint32 = 0xff000002
	OtxTag              uint32 = 0xff000003
	OtxStartTag         uint32 = 0xff000004
)

// Packed - packed entities are just a byte slice
type Packed []byte

// Witness - any of the witness layout variants
type Witness interface {
	PackWitness() (Packed, error)
}

// BuildingPacket - tagged union over packet format versions
type BuildingPacket interface {
	PackBuildingPacket() (Packed, error)
}

// Action - one signable action contributed to the shared message
type Action struct {
	ScriptInfoHash Hash       `json:"scriptInfoHash"` // hex
	ScriptType     ScriptType `json:"scriptType"`
	ScriptHash     Hash       `json:"scriptHash"` // hex
	Data           []byte     `json:"data"`       // opaque, script defined
}

// Message - ordered sequence of actions
//
// order is significant: verifiers apply actions in sequence order
type Message struct {
	Actions []*Action `json:"actions"`
}

// ScriptInfo - descriptive metadata for one script family
type ScriptInfo struct {
	Name        string `json:"name"`       // utf-8
	Url         string `json:"url"`        // utf-8
	ScriptHash  Hash   `json:"scriptHash"` // hex
	Schema      string `json:"schema"`     // utf-8
	MessageType string `json:"messageType"` // utf-8
}

// ResolvedInputs - the cells consumed by the payload's inputs
//
// outputs and outputs data pair positionally
type ResolvedInputs struct {
	Outputs     []cell.CellOutput `json:"outputs"`
	OutputsData [][]byte          `json:"outputsData"`
}

// SealPair - an opaque authorisation keyed by the script it authorises
type SealPair struct {
	ScriptHash Hash   `json:"scriptHash"` // hex
	Seal       []byte `json:"seal"`       // opaque, e.g. a signature
}

// SighashAll - whole-transaction witness carrying the shared message
type SighashAll struct {
	Message Message `json:"message"`
	Seal    []byte  `json:"seal"`
}

// SighashAllOnly - whole-transaction witness without a message
type SighashAllOnly struct {
	Seal []byte `json:"seal"`
}

// OtxFlag - selects which dimensions an open transaction step extends
//
// bit 0 inputs, bit 1 outputs, bit 2 cell deps, bit 3 header deps;
// the high four bits are reserved and must be zero
type OtxFlag byte

// OtxFlagMask - all currently assigned flag bits
const OtxFlagMask = OtxFlag(0x0f)

// DynamicInputs - step may introduce input cells
func (flag OtxFlag) DynamicInputs() bool { return 0 != flag&0x01 }

// DynamicOutputs - step may introduce output cells
func (flag OtxFlag) DynamicOutputs() bool { return 0 != flag&0x02 }

// DynamicCellDeps - step may introduce cell deps
func (flag OtxFlag) DynamicCellDeps() bool { return 0 != flag&0x04 }

// DynamicHeaderDeps - step may introduce header deps
func (flag OtxFlag) DynamicHeaderDeps() bool { return 0 != flag&0x08 }

// IsValid - the flag uses only assigned bits
func (flag OtxFlag) IsValid() bool { return 0 == flag&^OtxFlagMask }

// OtxStart - checkpoint marking the boundary where open transaction
// segments begin
//
// all four counters must equal the totals of the transaction being
// extended at the moment the round opens
type OtxStart struct {
	StartInputCell  uint32 `json:"startInputCell"`
	StartOutputCell uint32 `json:"startOutputCell"`
	StartCellDeps   uint32 `json:"startCellDeps"`
	StartHeaderDeps uint32 `json:"startHeaderDeps"`
}

// Otx - one party's segment of the open transaction
//
// the fixed counters are the totals the contributor observed and must
// leave untouched; the dynamic counters are what this step introduces
type Otx struct {
	Flag               OtxFlag     `json:"flag"`
	FixedInputCells    uint32      `json:"fixedInputCells"`
	FixedOutputCells   uint32      `json:"fixedOutputCells"`
	FixedCellDeps      uint32      `json:"fixedCellDeps"`
	FixedHeaderDeps    uint32      `json:"fixedHeaderDeps"`
	Message            Message     `json:"message"`
	DynamicInputCells  uint32      `json:"dynamicInputCells"`
	DynamicOutputCells uint32      `json:"dynamicOutputCells"`
	DynamicCellDeps    uint32      `json:"dynamicCellDeps"`
	DynamicHeaderDeps  uint32      `json:"dynamicHeaderDeps"`
	Seals              []*SealPair `json:"seals"`
}

// BuildingPacketV1 - the finished artifact handed to the signer
type BuildingPacketV1 struct {
	Message        Message        `json:"message"`
	Payload        *cell.Transaction `json:"payload"`
	ResolvedInputs ResolvedInputs `json:"resolvedInputs"`
	ChangeOutput   *uint32        `json:"changeOutput,omitempty"` // optional payload output index
	ScriptInfos    []*ScriptInfo  `json:"scriptInfos"`
	LockActions    []*Action      `json:"lockActions"`
}

// RecordName - returns the name of an entity as a string
func RecordName(record interface{}) (string, bool) {
	switch record.(type) {
	case *SighashAll, SighashAll:
		return "SighashAll", true

	case *SighashAllOnly, SighashAllOnly:
		return "SighashAllOnly", true

	case *Otx, Otx:
		return "Otx", true

	case *OtxStart, OtxStart:
		return "OtxStart", true

	case *BuildingPacketV1, BuildingPacketV1:
		return "BuildingPacketV1", true

	default:
		return "*unknown*", false
	}
}
