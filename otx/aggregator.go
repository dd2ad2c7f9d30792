// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package otx

import (
	"github.com/ckb-collab/cobuild/packet"
)

// Aggregator - the running message built from successive contributions
//
// verifiers apply actions in sequence order so the aggregator only ever
// appends: never reorder, deduplicate or coalesce
type Aggregator struct {
	actions []*packet.Action
}

// NewAggregator - create an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Append - add one contribution's actions in arrival order
func (aggregator *Aggregator) Append(actions []*packet.Action) {
	aggregator.actions = append(aggregator.actions, actions...)
}

// Count - number of accumulated actions
func (aggregator *Aggregator) Count() int {
	return len(aggregator.actions)
}

// Message - snapshot of the accumulated message
func (aggregator *Aggregator) Message() packet.Message {
	if 0 == len(aggregator.actions) {
		return packet.Message{}
	}
	actions := make([]*packet.Action, len(aggregator.actions))
	copy(actions, aggregator.actions)
	return packet.Message{Actions: actions}
}
