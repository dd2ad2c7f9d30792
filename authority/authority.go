// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package authority - the merge authority
//
// Owns the single merger instance and imposes the total submission
// order: contributions from any number of parties are queued and a
// single background loop applies them one at a time.  A submission is
// acknowledged only after it has been fully applied or rejected.
//
// Byte-identical resubmission of an already accepted contribution is
// acknowledged again without re-applying it, so a party that lost the
// first acknowledgement can safely retry.
package authority

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"

	"github.com/ckb-collab/cobuild/background"
	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/otx"
	"github.com/ckb-collab/cobuild/packet"
)

const (
	queueSize    = 100
	replayExpiry = 2 * time.Hour
	replayPurge  = 10 * time.Minute
)

// one queued request; reply carries the merge outcome back to the
// submitting party
type submission struct {
	record  interface{}
	payload *cell.Transaction
	reply   chan error
}

// finalize is queued like any contribution so it takes its place in
// the total order
type finalizeRequest struct{}

// merge loop state
type mergeData struct {
	log *logger.L
}

// globals
type globalDataType struct {
	sync.RWMutex
	log        *logger.L
	enabled    bool
	merger     *otx.Merger
	replay     *cache.Cache
	queue      chan *submission
	merge      mergeData
	background *background.T
}

// global storage
var globalData globalDataType

// Initialise - open a merge round over an empty merger
func Initialise() error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.enabled {
		return fault.ErrAlreadyInitialised
	}

	globalData.log = logger.New("authority")
	if nil == globalData.log {
		return fault.ErrInvalidLoggerChannel
	}
	globalData.log.Info("starting…")

	globalData.merger = otx.NewMerger()
	globalData.replay = cache.New(replayExpiry, replayPurge)
	globalData.queue = make(chan *submission, queueSize)

	globalData.merge.log = logger.New("authority-merge")
	if nil == globalData.merge.log {
		return fault.ErrInvalidLoggerChannel
	}

	globalData.enabled = true

	// start background processes
	globalData.log.Info("start background…")

	var processes = background.Processes{
		&globalData.merge,
	}

	globalData.background = background.Start(processes, &globalData)

	return nil
}

// Finalise - stop all background tasks
func Finalise() error {

	globalData.Lock()
	if !globalData.enabled {
		globalData.Unlock()
		return fault.ErrNotInitialised
	}
	globalData.enabled = false
	globalData.Unlock()

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	// stop background
	globalData.background.Stop()

	// release submitters still waiting in the queue
drain:
	for {
		select {
		case job := <-globalData.queue:
			job.reply <- fault.ErrNotInitialised
		default:
			break drain
		}
	}

	globalData.log.Info("finished")
	globalData.log.Flush()
	return nil
}

// SubmitStart - open or reopen the round at the payload's boundary
//
// blocks until the request has been merged or rejected
func SubmitStart(start *packet.OtxStart, payload *cell.Transaction) error {
	return submit(start, payload)
}

// SubmitOtx - submit one party's segment
//
// blocks until the contribution has been merged or rejected
func SubmitOtx(contribution *packet.Otx, payload *cell.Transaction) error {
	return submit(contribution, payload)
}

// FinalizeRound - close the round and return the merged result
func FinalizeRound() (*otx.Snapshot, error) {
	err := submit(finalizeRequest{}, nil)
	if nil != err {
		return nil, err
	}
	return Status()
}

// Status - the latest successfully merged snapshot
func Status() (*otx.Snapshot, error) {
	globalData.RLock()
	defer globalData.RUnlock()

	if !globalData.enabled {
		return nil, fault.ErrNotInitialised
	}
	return globalData.merger.Snapshot(), nil
}

// History - every merged snapshot since Initialise in order
func History() ([]*otx.Snapshot, error) {
	globalData.RLock()
	defer globalData.RUnlock()

	if !globalData.enabled {
		return nil, fault.ErrNotInitialised
	}
	return globalData.merger.History(), nil
}

// queue a request and wait for its outcome
func submit(record interface{}, payload *cell.Transaction) error {

	globalData.RLock()
	if !globalData.enabled {
		globalData.RUnlock()
		return fault.ErrNotInitialised
	}
	queue := globalData.queue
	globalData.RUnlock()

	job := &submission{
		record:  record,
		payload: payload,
		reply:   make(chan error, 1),
	}
	queue <- job
	return <-job.reply
}

// Run - the merge loop
//
// the only goroutine that mutates the merger, giving every submission
// its place in the total order
func (state *mergeData) Run(args interface{}, shutdown <-chan struct{}) {

	log := state.log
	log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case job := <-globalData.queue:
			job.reply <- process(log, job)
		}
	}
	log.Info("stopped")
	log.Flush()
}

// apply one queued request
func process(log *logger.L, job *submission) error {

	globalData.Lock()
	defer globalData.Unlock()

	switch record := job.record.(type) {

	case *packet.OtxStart:
		err := globalData.merger.Start(record, job.payload)
		if nil != err {
			log.Warnf("start rejected: error: %s", err)
			return err
		}
		log.Infof("round started: totals: %v", globalData.merger.Totals())
		return nil

	case *packet.Otx:
		packed, err := record.Pack()
		if nil != err {
			log.Warnf("unpackable contribution: error: %s", err)
			return err
		}
		key := replayKey(packed)

		if _, ok := globalData.replay.Get(key); ok {
			log.Infof("replayed contribution: %s", key)
			return nil
		}

		err = globalData.merger.Apply(record, job.payload)
		if nil != err {
			log.Warnf("contribution rejected: %s  error: %s", key, err)
			return err
		}

		globalData.replay.Set(key, time.Now(), cache.DefaultExpiration)
		log.Infof("contribution merged: %s  totals: %v", key, globalData.merger.Totals())
		return nil

	case finalizeRequest:
		_, err := globalData.merger.Finalize()
		if nil != err {
			log.Warnf("finalize rejected: error: %s", err)
			return err
		}
		log.Infof("round finalized: totals: %v", globalData.merger.Totals())
		return nil

	default:
		log.Errorf("unexpected submission: %v", job.record)
		return fault.ErrInvalidState
	}
}

// cache key for duplicate detection
func replayKey(packed packet.Packed) string {
	digest := blake2b.Sum256(packed)
	return hex.EncodeToString(digest[:])
}
