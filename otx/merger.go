// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package otx - the open transaction segment merger
//
// Advances an open transaction through successive OtxStart and Otx
// contributions while enforcing monotonic segment growth and
// consistency between declared counts and the payload's actual shape.
//
// Merging is strictly sequential: each contribution must prove it was
// built against the transaction's current shape, so contributions are
// admitted one at a time in a single total order.
package otx

import (
	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/packet"
	"github.com/ckb-collab/cobuild/sealstore"
)

// State - merge progression
type State int

// the merge states in order
const (
	StateUninitialized State = iota
	StateStarted
	StateExtending
	StateFinalized
)

// String - printable state name
func (state State) String() string {
	switch state {
	case StateUninitialized:
		return "Uninitialized"
	case StateStarted:
		return "Started"
	case StateExtending:
		return "Extending"
	case StateFinalized:
		return "Finalized"
	default:
		return "*unknown*"
	}
}

// Totals - running element counts in the four growth dimensions
type Totals struct {
	InputCells  uint32 `json:"inputCells"`
	OutputCells uint32 `json:"outputCells"`
	CellDeps    uint32 `json:"cellDeps"`
	HeaderDeps  uint32 `json:"headerDeps"`
}

// PayloadTotals - the externally observed element counts of a payload
func PayloadTotals(payload *cell.Transaction) Totals {
	return Totals{
		InputCells:  uint32(len(payload.Inputs)),
		OutputCells: uint32(len(payload.Outputs)),
		CellDeps:    uint32(len(payload.CellDeps)),
		HeaderDeps:  uint32(len(payload.HeaderDeps)),
	}
}

// Snapshot - immutable view of one successfully merged state
//
// snapshots form an append-only log indexed by sequence number so
// readers never block the merge loop
type Snapshot struct {
	Seq     int               `json:"seq"`
	State   State             `json:"state"`
	Totals  Totals            `json:"totals"`
	Message packet.Message    `json:"message"`
	Seals   []*packet.SealPair `json:"seals"`
}

// Merger - the merge authority's mutable core
//
// not safe for concurrent use: the owner serialises access
type Merger struct {
	state      State
	totals     Totals
	aggregator *Aggregator
	seals      *sealstore.Store
	history    []*Snapshot
}

// NewMerger - a merger with no accepted contributions
func NewMerger() *Merger {
	merger := &Merger{
		state:      StateUninitialized,
		aggregator: NewAggregator(),
		seals:      sealstore.New(),
	}
	merger.record()
	return merger
}

// State - current merge state
func (merger *Merger) State() State {
	return merger.state
}

// Totals - current running totals
func (merger *Merger) Totals() Totals {
	return merger.totals
}

// Snapshot - the latest successfully merged state
func (merger *Merger) Snapshot() *Snapshot {
	return merger.history[len(merger.history)-1]
}

// History - the append-only snapshot log
func (merger *Merger) History() []*Snapshot {
	history := make([]*Snapshot, len(merger.history))
	copy(history, merger.history)
	return history
}

// Start - open a fresh round at the payload's current boundary
//
// a checkpoint assertion, not a mutation: all four counters must equal
// the payload's current totals, guarding against a contributor
// operating on stale state
func (merger *Merger) Start(start *packet.OtxStart, payload *cell.Transaction) error {

	if StateUninitialized != merger.state && StateStarted != merger.state {
		return fault.ErrInvalidState
	}

	checkpoint := Totals{
		InputCells:  start.StartInputCell,
		OutputCells: start.StartOutputCell,
		CellDeps:    start.StartCellDeps,
		HeaderDeps:  start.StartHeaderDeps,
	}
	if checkpoint != PayloadTotals(payload) {
		return fault.ErrCheckpointMismatch
	}

	merger.totals = checkpoint
	merger.state = StateStarted
	merger.record()
	return nil
}

// Apply - admit one contributed segment
//
// either fully validated and applied or fully rejected; a rejection
// leaves the running state untouched
func (merger *Merger) Apply(contribution *packet.Otx, payload *cell.Transaction) error {

	if StateStarted != merger.state && StateExtending != merger.state {
		return fault.ErrInvalidState
	}

	if !contribution.Flag.IsValid() {
		return fault.ErrUnknownFlag
	}

	// the contributor must have built against the current shape
	fixed := Totals{
		InputCells:  contribution.FixedInputCells,
		OutputCells: contribution.FixedOutputCells,
		CellDeps:    contribution.FixedCellDeps,
		HeaderDeps:  contribution.FixedHeaderDeps,
	}
	if fixed != merger.totals {
		return fault.ErrCheckpointMismatch
	}

	// a dimension not enabled by the flag must not grow
	if (!contribution.Flag.DynamicInputs() && 0 != contribution.DynamicInputCells) ||
		(!contribution.Flag.DynamicOutputs() && 0 != contribution.DynamicOutputCells) ||
		(!contribution.Flag.DynamicCellDeps() && 0 != contribution.DynamicCellDeps) ||
		(!contribution.Flag.DynamicHeaderDeps() && 0 != contribution.DynamicHeaderDeps) {
		return fault.ErrUnknownFlag
	}

	next := Totals{
		InputCells:  fixed.InputCells + contribution.DynamicInputCells,
		OutputCells: fixed.OutputCells + contribution.DynamicOutputCells,
		CellDeps:    fixed.CellDeps + contribution.DynamicCellDeps,
		HeaderDeps:  fixed.HeaderDeps + contribution.DynamicHeaderDeps,
	}

	// totals are monotonic, growth can only wrap on overflow
	if next.InputCells < fixed.InputCells ||
		next.OutputCells < fixed.OutputCells ||
		next.CellDeps < fixed.CellDeps ||
		next.HeaderDeps < fixed.HeaderDeps {
		return fault.ErrSegmentCountRegression
	}

	// declared dynamic counts must match what was actually appended
	if next != PayloadTotals(payload) {
		return fault.ErrPayloadLengthMismatch
	}

	// stage the seal merge before committing anything
	contributed, err := sealstore.FromPairs(contribution.Seals)
	if nil != err {
		return err
	}
	merged := merger.seals.Clone()
	if err := merged.Merge(contributed); nil != err {
		return err
	}

	merger.totals = next
	merger.seals = merged
	merger.aggregator.Append(contribution.Message.Actions)
	merger.state = StateExtending
	merger.record()
	return nil
}

// Finalize - close the round and hand the result to the builder
func (merger *Merger) Finalize() (*Snapshot, error) {
	if StateStarted != merger.state && StateExtending != merger.state {
		return nil, fault.ErrInvalidState
	}
	merger.state = StateFinalized
	merger.record()
	return merger.Snapshot(), nil
}

// append an immutable snapshot of the current state
func (merger *Merger) record() {
	merger.history = append(merger.history, &Snapshot{
		Seq:     len(merger.history),
		State:   merger.state,
		Totals:  merger.totals,
		Message: merger.aggregator.Message(),
		Seals:   merger.seals.Pairs(),
	})
}
