// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package builder - assemble the finished building packet
//
// Takes a finalized merge result plus the externally supplied payload
// and produces the BuildingPacketV1 handed to the signer.
package builder

import (
	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/otx"
	"github.com/ckb-collab/cobuild/packet"
	"github.com/ckb-collab/cobuild/sighash"
)

// Builder - accumulates the pieces of one building packet
//
// functional style: every With* returns the builder for chaining and
// nothing is validated until Build
type Builder struct {
	snapshot     *otx.Snapshot
	payload      *cell.Transaction
	resolved     packet.ResolvedInputs
	changeOutput *uint32
	scriptInfos  []*packet.ScriptInfo
	lockActions  []*packet.Action
}

// New - start a builder from a finalized merge snapshot
func New(snapshot *otx.Snapshot) *Builder {
	return &Builder{
		snapshot: snapshot,
	}
}

// WithPayload - the transaction the packet wraps
func (b *Builder) WithPayload(payload *cell.Transaction) *Builder {
	b.payload = payload
	return b
}

// WithResolvedInputs - the cells consumed by the payload's inputs
func (b *Builder) WithResolvedInputs(resolved packet.ResolvedInputs) *Builder {
	b.resolved = resolved
	return b
}

// WithChangeOutput - mark one payload output as the change
func (b *Builder) WithChangeOutput(index uint32) *Builder {
	b.changeOutput = &index
	return b
}

// WithScriptInfo - supply metadata for one referenced script family
func (b *Builder) WithScriptInfo(info *packet.ScriptInfo) *Builder {
	b.scriptInfos = append(b.scriptInfos, info)
	return b
}

// WithLockAction - add an action for a lock script outside the message
func (b *Builder) WithLockAction(action *packet.Action) *Builder {
	b.lockActions = append(b.lockActions, action)
	return b
}

// Build - validate and assemble the packet
//
// checks the payload pairing, the change index and that every action's
// script info reference resolves to a supplied ScriptInfo
func (b *Builder) Build() (*packet.BuildingPacketV1, error) {

	if nil == b.snapshot || otx.StateFinalized != b.snapshot.State {
		return nil, fault.ErrInvalidState
	}
	if nil == b.payload {
		return nil, fault.ErrPayloadLengthMismatch
	}

	if len(b.resolved.Outputs) != len(b.resolved.OutputsData) ||
		len(b.resolved.Outputs) != len(b.payload.Inputs) {
		return nil, fault.ErrResolvedInputsLength
	}

	if nil != b.changeOutput && uint32(len(b.payload.Outputs)) <= *b.changeOutput {
		return nil, fault.ErrOutputIndexOutOfRange
	}

	// index the supplied infos by their hash
	known := make(map[packet.Hash]struct{})
	for _, info := range b.scriptInfos {
		known[sighash.ScriptInfoHash(info)] = struct{}{}
	}

	// every referenced script info must be supplied; a ScriptInfoVec may
	// carry redundant duplicates, that is builder policy not a wire rule
	actions := append([]*packet.Action{}, b.snapshot.Message.Actions...)
	actions = append(actions, b.lockActions...)
	for _, action := range actions {
		if _, ok := known[action.ScriptInfoHash]; !ok {
			return nil, fault.ErrMissingScriptInfo
		}
	}

	record := &packet.BuildingPacketV1{
		Message:        b.snapshot.Message,
		Payload:        b.payload,
		ResolvedInputs: b.resolved,
		ChangeOutput:   b.changeOutput,
		ScriptInfos:    b.scriptInfos,
		LockActions:    b.lockActions,
	}

	// confirm the result round-trips before handing it out
	if _, err := record.Pack(); nil != err {
		return nil, err
	}
	return record, nil
}

// BuildPacked - assemble and serialise under the version union
func (b *Builder) BuildPacked() (packet.Packed, error) {
	record, err := b.Build()
	if nil != err {
		return nil, err
	}
	return record.PackBuildingPacket()
}
